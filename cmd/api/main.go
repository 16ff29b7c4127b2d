package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	deliveryHTTP "github.com/GibberzPT/Gestao-Frota-New-Print/internal/delivery/http"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/infrastructure/photostore"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/config"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/database"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/hash"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/jwt"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/logger"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/redis"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/repository/cached"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/repository/postgres"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/usecase/auth"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/usecase/backup"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/usecase/incident"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/usecase/round"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/usecase/user"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/usecase/vehicle"
)

func main() {
	// =========================================================================
	// Загрузка конфигурации
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// =========================================================================
	// Инициализация logger
	// =========================================================================

	log := logger.New(cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.Output)
	log.Info("Starting Frota API server", map[string]interface{}{
		"version": "1.0.0",
	})

	// =========================================================================
	// Подключение к PostgreSQL
	// =========================================================================

	ctx := context.Background()
	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer database.Close(db)

	log.Info("Connected to PostgreSQL", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Database,
	})

	// =========================================================================
	// Подключение к Redis
	// =========================================================================

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("Failed to connect to Redis", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer redisClient.Close()

	log.Info("Connected to Redis", map[string]interface{}{
		"host": cfg.Redis.Host,
		"port": cfg.Redis.Port,
	})

	// =========================================================================
	// Инициализация фотохранилища
	// =========================================================================

	photos, err := photostore.New(cfg.Upload.PhotoRoot)
	if err != nil {
		log.Fatal("Failed to init photo store", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// =========================================================================
	// Создание repositories
	// =========================================================================

	userRepo := postgres.NewUserRepository(db)
	vehicleRepo := cached.NewVehicleRepository(postgres.NewVehicleRepository(db), redisClient)
	roundRepo := postgres.NewRoundRepository(db)
	incidentRepo := postgres.NewIncidentRepository(db)

	log.Info("Repositories initialized")

	// =========================================================================
	// Создание JWT token service
	// =========================================================================

	tokenService := jwt.NewTokenService(
		cfg.JWT.SecretKey,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	hasher := hash.New(cfg.Hash.BcryptCost)

	// =========================================================================
	// Создание use case services
	// =========================================================================

	authService := auth.NewService(userRepo, tokenService, hasher, log)
	userService := user.NewService(userRepo, hasher, log)
	vehicleService := vehicle.NewService(vehicleRepo, photos, log)
	roundService := round.NewService(roundRepo, vehicleRepo, userRepo, photos, vehicleRepo, log)
	incidentService := incident.NewService(incidentRepo, vehicleRepo, userRepo, photos, log)
	backupService := backup.NewService(userRepo, vehicleRepo, roundRepo, incidentRepo, photos, log)

	log.Info("Use case services initialized")

	// =========================================================================
	// Начальный администратор
	// =========================================================================

	if err := authService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		log.Fatal("Failed to ensure default admin", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// =========================================================================
	// Создание HTTP handlers
	// =========================================================================

	authHandler := deliveryHTTP.NewAuthHandler(authService, log)
	userHandler := deliveryHTTP.NewUserHandler(userService, log)
	vehicleHandler := deliveryHTTP.NewVehicleHandler(vehicleService, cfg.Upload.MaxBytes, log)
	roundHandler := deliveryHTTP.NewRoundHandler(roundService, cfg.Upload.MaxBytes, log)
	incidentHandler := deliveryHTTP.NewIncidentHandler(incidentService, cfg.Upload.MaxBytes, log)
	backupHandler := deliveryHTTP.NewBackupHandler(backupService, log)

	log.Info("HTTP handlers initialized")

	// =========================================================================
	// Создание и настройка HTTP router
	// =========================================================================

	router := deliveryHTTP.NewRouter(
		authHandler,
		userHandler,
		vehicleHandler,
		roundHandler,
		incidentHandler,
		backupHandler,
		tokenService,
		cfg,
		log,
	)

	handler := router.Setup()

	log.Info("HTTP router configured")

	// =========================================================================
	// Создание HTTP сервера
	// =========================================================================

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// =========================================================================
	// Запуск сервера в goroutine
	// =========================================================================

	serverErrors := make(chan error, 1)

	go func() {
		log.Info("API server listening", map[string]interface{}{
			"address": srv.Addr,
		})
		serverErrors <- srv.ListenAndServe()
	}()

	// =========================================================================
	// Graceful shutdown
	// =========================================================================

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatal("Server error", map[string]interface{}{
			"error": err.Error(),
		})

	case sig := <-shutdown:
		log.Info("Shutdown signal received", map[string]interface{}{
			"signal": sig.String(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Graceful shutdown failed", map[string]interface{}{
				"error": err.Error(),
			})

			if err := srv.Close(); err != nil {
				log.Fatal("Failed to close server", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}

		log.Info("Server stopped gracefully")
	}
}
