package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	httpadp "pawnshop-backend/internal/adapter/http"
	mw "pawnshop-backend/internal/adapter/middleware"
	"pawnshop-backend/internal/adapter/repository/mysql"
	"pawnshop-backend/internal/config"
	liqDomain "pawnshop-backend/internal/domain/liquidation"
	loanDomain "pawnshop-backend/internal/domain/loan"
	schedDomain "pawnshop-backend/internal/domain/schedule"
	"pawnshop-backend/internal/infrastructure/cache"
	"pawnshop-backend/internal/infrastructure/db"
	liquc "pawnshop-backend/internal/usecase/liquidation"
	loanuc "pawnshop-backend/internal/usecase/loan"
	scheduc "pawnshop-backend/internal/usecase/schedule"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	if err := gdb.AutoMigrate(
		&loanDomain.Loan{},
		&schedDomain.Installment{},
		&schedDomain.PaymentEvent{},
		&liqDomain.Liquidation{},
		&liqDomain.Offer{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	loans := mysql.NewLoanRepository(gdb)
	liqs := mysql.NewLiquidationRepository(gdb)
	offers := mysql.NewOfferRepository(gdb)
	tx := mysql.NewGormUoW(gdb)

	loanUC := loanuc.NewUsecase(loans, tx, scheduc.DefaultBands(), cfg.GraceDaysDefault)
	liqUC := liquc.NewUsecase(liqs, offers, tx, liquc.Config{
		BasePricePct:      cfg.BasePricePct,
		MinIncrementPct:   cfg.MinIncrementPct,
		MinIncrementFloor: cfg.MinIncrementFloor,
	})

	h := httpadp.NewHandler()
	loanH := httpadp.NewLoanHandler(loanUC)
	liqH := httpadp.NewLiquidationHandler(liqUC)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())

	e.GET("/health", h.Health)

	idemp := mw.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)

	api := e.Group("")
	api.GET("/loans", loanH.List)
	api.GET("/loans/:loan_id", loanH.Get)
	api.POST("/schedules/simulate", loanH.Simulate)

	mut := e.Group("", idemp)
	mut.POST("/loans", loanH.Originate)
	mut.POST("/loans/:loan_id/payments", loanH.RecordPayment)
	mut.POST("/loans/:loan_id/grace-extension", loanH.ExtendGrace)
	mut.POST("/liquidations", liqH.Open)
	mut.POST("/liquidations/:liquidation_id/offers", liqH.SubmitOffer)
	mut.POST("/liquidations/:liquidation_id/accept", liqH.AcceptOffer)
	mut.POST("/liquidations/:liquidation_id/offers/:offer_id/reject", liqH.RejectOffer)
	api.GET("/liquidations/:liquidation_id", liqH.Get)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
