package http

import (
	"errors"
	"net/http"
	"strings"

	liqDomain "pawnshop-backend/internal/domain/liquidation"
	loanDomain "pawnshop-backend/internal/domain/loan"
	schedDomain "pawnshop-backend/internal/domain/schedule"
)

// statusFor maps engine sentinel errors onto HTTP codes. Auction races
// (closed / already resolved) are routine outcomes, reported as conflicts.
func statusFor(err error) int {
	switch {
	case errors.Is(err, loanDomain.ErrNotFound),
		errors.Is(err, liqDomain.ErrNotFound),
		errors.Is(err, liqDomain.ErrOfferNotFound),
		errors.Is(err, schedDomain.ErrUnknownInstallment):
		return http.StatusNotFound
	case errors.Is(err, liqDomain.ErrOfferTooLow),
		errors.Is(err, liqDomain.ErrLiquidationClosed),
		errors.Is(err, liqDomain.ErrOfferAlreadyResolved),
		errors.Is(err, loanDomain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, loanDomain.ErrInvalidInput),
		errors.Is(err, schedDomain.ErrNonAmortizing),
		errors.Is(err, schedDomain.ErrPaymentOutOfRange):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ---- helpers ----

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
