package http

import (
	"net/http"
	"time"

	loanDomain "pawnshop-backend/internal/domain/loan"
	uc "pawnshop-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *uc.Usecase }

func NewLoanHandler(u *uc.Usecase) *LoanHandler { return &LoanHandler{uc: u} }

type originateReq struct {
	BorrowerID      string  `json:"borrower_id" validate:"required,hex32"`
	CollateralRef   string  `json:"collateral_ref" validate:"required"`
	CollateralValue float64 `json:"collateral_value" validate:"required,gt=0,dec2"`
	Principal       float64 `json:"principal" validate:"required,gt=0,dec2"`
	PaymentPct      float64 `json:"payment_pct" validate:"required,gt=0,lte=100"`
	AnnualRatePct   float64 `json:"annual_rate_pct" validate:"gte=0"`
	Frequency       string  `json:"frequency" validate:"required,frequency"`
	OriginationDate string  `json:"origination_date" validate:"required"`
}

func parseDate(s string) (time.Time, bool) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func (h *LoanHandler) Originate(c echo.Context) error {
	var req originateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	origin, ok := parseDate(req.OriginationDate)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "origination_date must be YYYY-MM-DD or RFC3339"})
	}

	dto, err := h.uc.Originate(c.Request().Context(), uc.OriginateInput{
		BorrowerID:      req.BorrowerID,
		CollateralRef:   req.CollateralRef,
		CollateralValue: req.CollateralValue,
		Principal:       req.Principal,
		PaymentPct:      req.PaymentPct,
		AnnualRatePct:   req.AnnualRatePct,
		Frequency:       req.Frequency,
		OriginationDate: origin,
	})
	if err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) Get(c echo.Context) error {
	var asOf time.Time
	if raw := c.QueryParam("as_of"); raw != "" {
		t, ok := parseDate(raw)
		if !ok {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "as_of must be YYYY-MM-DD or RFC3339"})
		}
		asOf = t
	}
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"), asOf)
	if err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) List(c echo.Context) error {
	state := c.QueryParam("state")
	if state == "" {
		state = string(loanDomain.StateInGrace)
	}
	out, err := h.uc.ListByState(c.Request().Context(), state)
	if err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, out)
}

type paymentReq struct {
	Seq    int     `json:"seq" validate:"required,gte=1"`
	Amount float64 `json:"amount" validate:"required,gt=0,dec2"`
	PaidAt string  `json:"paid_at" validate:"required"`
}

func (h *LoanHandler) RecordPayment(c echo.Context) error {
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	paidAt, ok := parseDate(req.PaidAt)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "paid_at must be YYYY-MM-DD or RFC3339"})
	}

	dto, err := h.uc.RecordPayment(c.Request().Context(), c.Param("loan_id"), uc.PaymentInput{
		Seq:    req.Seq,
		Amount: req.Amount,
		PaidAt: paidAt,
	})
	if err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusCreated, dto)
}

type graceExtensionReq struct {
	ExtraDays int `json:"extra_days" validate:"required,gte=1,lte=29"`
}

func (h *LoanHandler) ExtendGrace(c echo.Context) error {
	var req graceExtensionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.uc.ExtendGrace(c.Request().Context(), c.Param("loan_id"), req.ExtraDays)
	if err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, dto)
}

type simulateReq struct {
	Principal       float64 `json:"principal" validate:"required,gt=0,dec2"`
	PaymentPct      float64 `json:"payment_pct" validate:"required,gt=0,lte=100"`
	AnnualRatePct   float64 `json:"annual_rate_pct" validate:"gte=0"`
	Frequency       string  `json:"frequency" validate:"required,frequency"`
	OriginationDate string  `json:"origination_date" validate:"required"`
}

// Simulate previews a repayment schedule without persisting anything.
func (h *LoanHandler) Simulate(c echo.Context) error {
	var req simulateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	origin, ok := parseDate(req.OriginationDate)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "origination_date must be YYYY-MM-DD or RFC3339"})
	}

	items, err := h.uc.Simulate(c.Request().Context(), loanDomain.Terms{
		Principal:       req.Principal,
		PaymentPct:      req.PaymentPct,
		AnnualRatePct:   req.AnnualRatePct,
		Frequency:       loanDomain.Frequency(req.Frequency),
		OriginationDate: origin,
	})
	if err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"installments": items,
		"count":        len(items),
	})
}
