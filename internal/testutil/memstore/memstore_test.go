package memstore

import (
	"pawnshop-backend/internal/domain/liquidation"
	"pawnshop-backend/internal/domain/loan"
	"pawnshop-backend/internal/domain/schedule"
	"pawnshop-backend/internal/domain/uow"
)

// Compile-time interface compliance.
var (
	_ loan.Repository              = (*loanRepo)(nil)
	_ schedule.Repository          = (*installmentRepo)(nil)
	_ liquidation.Repository       = (*liquidationRepo)(nil)
	_ liquidation.OfferRepository  = (*offerRepo)(nil)
	_ uow.UnitOfWork               = (*memUoW)(nil)
)
