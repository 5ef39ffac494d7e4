package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zaoconnect/internal/cache"
	"zaoconnect/internal/config"
	"zaoconnect/internal/db"
	"zaoconnect/internal/httpserver"
	"zaoconnect/internal/mpesa"
	"zaoconnect/internal/notify"
	analyticsrepo "zaoconnect/internal/repository/analytics"
	cartrepo "zaoconnect/internal/repository/cart"
	contactrepo "zaoconnect/internal/repository/contact"
	orderrepo "zaoconnect/internal/repository/order"
	productrepo "zaoconnect/internal/repository/product"
	tokenrepo "zaoconnect/internal/repository/token"
	userrepo "zaoconnect/internal/repository/user"
	adminsvc "zaoconnect/internal/service/admin"
	cartsvc "zaoconnect/internal/service/cart"
	checkoutsvc "zaoconnect/internal/service/checkout"
	contactsvc "zaoconnect/internal/service/contact"
	productsvc "zaoconnect/internal/service/product"
	usersvc "zaoconnect/internal/service/user"

	"github.com/redis/go-redis/v9"
)

// checkoutRateLimit caps STK push attempts per user. Five pushes a minute is
// generous for a human and stingy for a script.
const (
	checkoutRateLimit  = 5
	checkoutRateWindow = time.Minute
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	config.LoadDotenv(logger)
	cfg := config.FromEnv()

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	// Redis is optional. Without it the Daraja token lives in process memory
	// and checkout initiation runs unthrottled.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			logger.Fatalf("connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var tokenCache mpesa.TokenCache
	var limiter *cache.RateLimiter
	if redisClient != nil {
		tokenCache = cache.NewTokenStore(redisClient, logger)
		limiter = cache.NewRateLimiter(redisClient, checkoutRateLimit, checkoutRateWindow, logger)
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.SMTP.Host != "" {
		mailer, err := notify.NewMailer(notify.Config{
			Host:       cfg.SMTP.Host,
			Port:       cfg.SMTP.Port,
			Username:   cfg.SMTP.Username,
			Password:   cfg.SMTP.Password,
			From:       cfg.SMTP.From,
			AdminEmail: cfg.SMTP.AdminEmail,
		}, logger)
		if err != nil {
			logger.Fatalf("init mailer: %v", err)
		}
		notifier = mailer
	} else {
		logger.Printf("SMTP_HOST not set, email notifications disabled")
	}

	gateway := mpesa.New(mpesa.Config{
		Env:            cfg.Mpesa.Env,
		ConsumerKey:    cfg.Mpesa.ConsumerKey,
		ConsumerSecret: cfg.Mpesa.ConsumerSecret,
		ShortCode:      cfg.Mpesa.ShortCode,
		Passkey:        cfg.Mpesa.Passkey,
		Timeout:        cfg.Mpesa.Timeout,
	}, tokenCache)

	userRepo := userrepo.NewPostgres(dbpool)
	tokenRepo := tokenrepo.NewPostgres(dbpool)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool)
	analyticsRepo := analyticsrepo.NewPostgres(dbpool)
	contactRepo := contactrepo.NewPostgres(dbpool)

	userService := usersvc.New(userRepo, tokenRepo, notifier, logger)
	productService := productsvc.New(productRepo)
	cartService := cartsvc.New(cartRepo, productRepo)
	checkoutService := checkoutsvc.New(orderRepo, cartRepo, userRepo, analyticsRepo, gateway, notifier, cfg.PublicBaseURL, logger)
	adminService := adminsvc.New(userRepo, productRepo, orderRepo, cartRepo, analyticsRepo)
	contactService := contactsvc.New(contactRepo)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Users:       userService,
		Products:    productService,
		Carts:       cartService,
		Checkout:    checkoutService,
		Admin:       adminService,
		Contact:     contactService,
		Limiter:     limiter,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
