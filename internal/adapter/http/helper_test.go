package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	liqDomain "pawnshop-backend/internal/domain/liquidation"
	loanDomain "pawnshop-backend/internal/domain/loan"
	schedDomain "pawnshop-backend/internal/domain/schedule"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{loanDomain.ErrNotFound, http.StatusNotFound},
		{liqDomain.ErrNotFound, http.StatusNotFound},
		{liqDomain.ErrOfferNotFound, http.StatusNotFound},
		{schedDomain.ErrUnknownInstallment, http.StatusNotFound},
		{liqDomain.ErrOfferTooLow, http.StatusConflict},
		{liqDomain.ErrLiquidationClosed, http.StatusConflict},
		{liqDomain.ErrOfferAlreadyResolved, http.StatusConflict},
		{loanDomain.ErrInvalidTransition, http.StatusConflict},
		{loanDomain.ErrInvalidInput, http.StatusBadRequest},
		{schedDomain.ErrNonAmortizing, http.StatusBadRequest},
		{schedDomain.ErrPaymentOutOfRange, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
		// wrapped sentinels map the same way
		{fmt.Errorf("minimum acceptable is 750.00: %w", liqDomain.ErrOfferTooLow), http.StatusConflict},
		{fmt.Errorf("loan is current: %w", loanDomain.ErrInvalidTransition), http.StatusConflict},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
