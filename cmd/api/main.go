package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/medhaven/hospital-api/internal/config"
	"github.com/medhaven/hospital-api/internal/email"
	"github.com/medhaven/hospital-api/internal/handler"
	accountHandler "github.com/medhaven/hospital-api/internal/handler/account"
	departmentHandler "github.com/medhaven/hospital-api/internal/handler/department"
	hospitalHandler "github.com/medhaven/hospital-api/internal/handler/hospital"
	roleHandler "github.com/medhaven/hospital-api/internal/handler/role"
	"github.com/medhaven/hospital-api/internal/middleware"
	"github.com/medhaven/hospital-api/internal/model"
	"github.com/medhaven/hospital-api/internal/repository/postgres"
	"github.com/medhaven/hospital-api/internal/router"
	accountService "github.com/medhaven/hospital-api/internal/service/account"
	departmentService "github.com/medhaven/hospital-api/internal/service/department"
	eventService "github.com/medhaven/hospital-api/internal/service/event"
	hospitalService "github.com/medhaven/hospital-api/internal/service/hospital"
	roleService "github.com/medhaven/hospital-api/internal/service/role"
	tokenService "github.com/medhaven/hospital-api/internal/service/token"
	"github.com/medhaven/hospital-api/pkg/metrics"
	"github.com/medhaven/hospital-api/pkg/security"
	"github.com/medhaven/hospital-api/pkg/storage"
)

func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)
	principalRepo := postgres.NewPrincipalRepository(base)
	hospitalRepo := postgres.NewHospitalRepository(base)
	departmentRepo := postgres.NewDepartmentRepository(base)
	roleRepo := postgres.NewRoleRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	files, err := storage.NewLocalStore(cfg.Storage.Root)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize file storage")
	}

	m := metrics.NewMetrics("hospital_api")
	hasher := security.NewBcryptHasher(10)

	tokenSvc := tokenService.NewService(cfg.JWT)
	roleSvc := roleService.NewService(roleRepo)
	eventSvc := eventService.NewService(outboxRepo)
	emailSvc := email.NewService(cfg.SMTP)
	hospitalSvc := hospitalService.NewService(hospitalRepo)
	departmentSvc := departmentService.NewService(departmentRepo)

	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	authn := authMiddleware.Authenticate()

	h := handler.NewHandler()
	handlers := []router.Handler{
		hospitalHandler.NewHandler(hospitalSvc, authn),
		departmentHandler.NewHandler(departmentSvc, authn),
		roleHandler.NewHandler(roleSvc, authn),
	}

	kinds := []model.PrincipalKind{
		model.KindAdministrator,
		model.KindNurse,
		model.KindDoctor,
		model.KindPatient,
	}
	for _, kind := range kinds {
		opts := accountService.OptionsForKind(kind)
		if cfg.Storage.MaxUploadMB > 0 {
			opts.MaxImageMB = cfg.Storage.MaxUploadMB
		}
		svc := accountService.NewService(
			opts,
			principalRepo,
			hospitalRepo,
			departmentRepo,
			roleSvc,
			tokenSvc,
			files,
			hasher,
			emailSvc,
			eventSvc,
			m,
		)
		handlers = append(handlers, accountHandler.NewHandler(svc, authn))
	}

	r, err := router.NewRouter(router.DefaultConfig(), h, handlers...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
