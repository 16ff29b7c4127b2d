package http

import (
	"net/http"

	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/delivery/http/middleware"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/domain"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/config"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/jwt"
	"github.com/GibberzPT/Gestao-Frota-New-Print/internal/pkg/logger"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router содержит все зависимости для HTTP роутера
type Router struct {
	authHandler     *AuthHandler
	userHandler     *UserHandler
	vehicleHandler  *VehicleHandler
	roundHandler    *RoundHandler
	incidentHandler *IncidentHandler
	backupHandler   *BackupHandler
	tokenService    *jwt.TokenService
	config          *config.Config
	logger          logger.Logger
}

// NewRouter создает новый HTTP router
func NewRouter(
	authHandler *AuthHandler,
	userHandler *UserHandler,
	vehicleHandler *VehicleHandler,
	roundHandler *RoundHandler,
	incidentHandler *IncidentHandler,
	backupHandler *BackupHandler,
	tokenService *jwt.TokenService,
	config *config.Config,
	logger logger.Logger,
) *Router {
	return &Router{
		authHandler:     authHandler,
		userHandler:     userHandler,
		vehicleHandler:  vehicleHandler,
		roundHandler:    roundHandler,
		incidentHandler: incidentHandler,
		backupHandler:   backupHandler,
		tokenService:    tokenService,
		config:          config,
		logger:          logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.LoggingMiddleware(rt.logger))

	// Health check endpoint (публичный)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	// Фотографии отдаются как есть из корня хранилища
	fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(rt.config.Upload.PhotoRoot)))
	r.Get("/static/*", fileServer.ServeHTTP)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (без аутентификации)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", rt.authHandler.Register)
			r.Post("/login", rt.authHandler.Login)
			r.Post("/refresh", rt.authHandler.Refresh)
		})

		// Protected routes (требуют аутентификации)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(rt.tokenService))

			r.Get("/auth/me", rt.authHandler.GetMe)

			// Vehicle endpoints
			r.Route("/vehicles", func(r chi.Router) {
				r.Get("/", rt.vehicleHandler.ListVehicles)
				r.Get("/available", rt.vehicleHandler.ListAvailableVehicles)
				r.Get("/{id}", rt.vehicleHandler.GetVehicleByID)
			})

			// Round endpoints
			r.Route("/rounds", func(r chi.Router) {
				r.Post("/start", rt.roundHandler.StartRound)
				r.Get("/me/open", rt.roundHandler.GetMyOpenRound)
				r.Get("/me/history", rt.roundHandler.GetMyHistory)
				r.Get("/{id}", rt.roundHandler.GetRoundByID)
				r.Post("/{id}/close", rt.roundHandler.CloseRound)
				r.Put("/{id}", rt.roundHandler.EditRound)
			})

			// Incident endpoints
			r.Route("/incidents", func(r chi.Router) {
				r.Post("/", rt.incidentHandler.ReportIncident)
				r.Get("/me", rt.incidentHandler.ListMyIncidents)
				r.Get("/{id}", rt.incidentHandler.GetIncidentByID)
				r.Put("/{id}", rt.incidentHandler.UpdateMyIncident)
			})

			// Admin only endpoints
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))

				r.Route("/users", func(r chi.Router) {
					r.Post("/", rt.userHandler.CreateUser)
					r.Get("/", rt.userHandler.ListUsers)
					r.Get("/{id}", rt.userHandler.GetUserByID)
					r.Put("/{id}", rt.userHandler.UpdateUser)
					r.Delete("/{id}", rt.userHandler.DeleteUser)
				})

				r.Route("/vehicles", func(r chi.Router) {
					r.Post("/", rt.vehicleHandler.CreateVehicle)
					r.Put("/{id}", rt.vehicleHandler.UpdateVehicle)
					r.Delete("/{id}", rt.vehicleHandler.DeleteVehicle)
				})

				r.Route("/rounds", func(r chi.Router) {
					r.Get("/", rt.roundHandler.ListRounds)
					r.Get("/open", rt.roundHandler.ListOpenRounds)
					r.Put("/{id}", rt.roundHandler.AdminEditRound)
					r.Post("/{id}/force-close", rt.roundHandler.ForceCloseRound)
					r.Delete("/{id}", rt.roundHandler.DeleteRound)
				})

				r.Route("/incidents", func(r chi.Router) {
					r.Get("/", rt.incidentHandler.ListIncidents)
					r.Post("/", rt.incidentHandler.AdminCreateIncident)
					r.Put("/{id}", rt.incidentHandler.AdminUpdateIncident)
					r.Patch("/{id}/status", rt.incidentHandler.SetIncidentStatus)
					r.Delete("/{id}", rt.incidentHandler.DeleteIncident)
				})

				r.Get("/backup/full", rt.backupHandler.FullBackup)
			})
		})
	})

	return r
}
