package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/forkspot/restaurant-reservation/internal/config"
	"github.com/forkspot/restaurant-reservation/internal/database"
	"github.com/forkspot/restaurant-reservation/internal/handler"
	"github.com/forkspot/restaurant-reservation/internal/middleware"
	"github.com/forkspot/restaurant-reservation/internal/queue"
	"github.com/forkspot/restaurant-reservation/internal/repository"
	"github.com/forkspot/restaurant-reservation/internal/router"
	"github.com/forkspot/restaurant-reservation/internal/validation"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: response cache disabled, rate limiter using in-memory bans")
	}

	users := repository.NewUserRepo(db)
	owners := repository.NewOwnerRepo(db)
	verifications := repository.NewVerificationRepo(db)
	userResets := repository.NewPasswordResetRepo(db, repository.ResetAudienceUser)
	ownerResets := repository.NewPasswordResetRepo(db, repository.ResetAudienceOwner)
	restaurants := repository.NewRestaurantRepo(db)
	menuItems := repository.NewMenuItemRepo(db)
	specialMenus := repository.NewSpecialMenuRepo(db)
	coupons := repository.NewCouponRepo(db)
	reservations := repository.NewReservationRepo(db)
	favorites := repository.NewFavoriteRepo(db)
	testimonials := repository.NewTestimonialRepo(db)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	rlCfg := config.LoadRateLimitConfig()
	var bans middleware.BanStore
	if rdb != nil {
		bans = middleware.NewRedisBanStore(rdb, rlCfg.Prefix)
	} else {
		bans = middleware.NewMemoryBanStore()
	}
	e.Use(middleware.NewRateLimiter(rlCfg, bans))

	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	h := router.Handlers{
		Users:       handler.NewUserHandler(users, verifications, favorites, cfg),
		OwnerAuth:   handler.NewOwnerAuthHandler(owners, cfg),
		UserResets:  handler.NewUserPasswordResetHandler(userResets, users, cfg),
		OwnerResets: handler.NewOwnerPasswordResetHandler(ownerResets, owners, cfg),
		Browse:      handler.NewBrowseHandler(restaurants, menuItems, specialMenus, coupons, testimonials),
		Catalog:     handler.NewOwnerCatalogHandler(restaurants, menuItems, specialMenus, coupons),
		UserCoupons: handler.NewUserCouponHandler(coupons, users),
		Reservation: handler.NewReservationHandler(reservations, coupons, users, restaurants),
	}
	router.Register(e, h, cfg.JWTSecret, cache)

	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
