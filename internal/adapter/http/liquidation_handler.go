package http

import (
	"net/http"

	uc "pawnshop-backend/internal/usecase/liquidation"

	"github.com/labstack/echo/v4"
)

type LiquidationHandler struct{ uc *uc.Usecase }

func NewLiquidationHandler(u *uc.Usecase) *LiquidationHandler { return &LiquidationHandler{uc: u} }

type openLiquidationReq struct {
	LoanID       string  `json:"loan_id" validate:"required,hex32"`
	BasePricePct float64 `json:"base_price_pct" validate:"gte=0,lte=100"`
}

func (h *LiquidationHandler) Open(c echo.Context) error {
	var req openLiquidationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.uc.Open(c.Request().Context(), uc.OpenInput{
		LoanID:       req.LoanID,
		BasePricePct: req.BasePricePct,
	})
	if err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LiquidationHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("liquidation_id"))
	if err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, dto)
}

type offerReq struct {
	BidderID   string  `json:"bidder_id" validate:"required,hex32"`
	BidderName string  `json:"bidder_name"`
	Amount     float64 `json:"amount" validate:"required,gt=0,dec2"`
}

func (h *LiquidationHandler) SubmitOffer(c echo.Context) error {
	var req offerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.uc.SubmitOffer(c.Request().Context(), c.Param("liquidation_id"), uc.OfferInput{
		BidderID:   req.BidderID,
		BidderName: req.BidderName,
		Amount:     req.Amount,
	})
	if err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusCreated, dto)
}

type acceptOfferReq struct {
	OfferID string `json:"offer_id" validate:"required,hex32"`
}

func (h *LiquidationHandler) AcceptOffer(c echo.Context) error {
	var req acceptOfferReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.uc.Accept(c.Request().Context(), c.Param("liquidation_id"), req.OfferID)
	if err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LiquidationHandler) RejectOffer(c echo.Context) error {
	err := h.uc.Reject(c.Request().Context(), c.Param("liquidation_id"), c.Param("offer_id"))
	if err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "rejected"})
}
