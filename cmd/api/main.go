package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cart-service/internal/client"
	"cart-service/internal/config"
	"cart-service/internal/logger"
	"cart-service/internal/repository"
	"cart-service/internal/server"
	"cart-service/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service: "cart-service",
		Env:     cfg.Environment.Name,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
	})

	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		log.Error("failed to init database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}

	cartRepo := repository.NewCartRepository(db)
	productRepo := repository.NewProductRepository(db)
	userRepo := repository.NewUserRepository(db)

	userService := service.NewUserService(userRepo)

	if cfg.SeedDemoData {
		ctx := context.Background()
		if err := productRepo.Seed(ctx); err != nil {
			log.Error("seed products", "error", err)
			os.Exit(1)
		}
		if err := userService.SeedDemoUsers(ctx); err != nil {
			log.Error("seed users", "error", err)
			os.Exit(1)
		}
	}

	var priceCache repository.PriceCache
	if rdb := client.NewRedisClient(cfg.Redis); rdb != nil {
		defer rdb.Close()
		priceCache = repository.NewRedisPriceCache(rdb, cfg.Redis.PriceTTL)
		log.Info("price cache enabled", "address", cfg.Redis.Address)
	}

	tokenService := service.NewTokenService(cfg.JWT.Secret, userService)
	authService := service.NewAuthService(userService, tokenService, cfg.JWT.TTL)
	catalogService := service.NewCatalogService(productRepo, priceCache, log)
	cartService := service.NewCartService(cartRepo, catalogService, log)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(log, authService, cartService, tokenService)

	log.Info("starting HTTP server", "addr", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}
}
