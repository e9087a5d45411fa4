package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/duetlog/duet-service/internal/config"
	"github.com/duetlog/duet-service/internal/handler"
	"github.com/duetlog/duet-service/internal/service"
	"github.com/duetlog/duet-service/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

func NewApp(infra Infrastructure, cfg *config.Config) *App {
	metrics, err := service.NewMetrics(infra.MeterProvider())
	if err != nil {
		// A nil Metrics records nothing; the service stays up without counters.
		infra.Logger().Error("Failed to register metrics", zap.Error(err))
	}
	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	sessions := service.NewSessionManager(infra.Store(), cfg.Auth.SessionTTL.Duration)
	otpService := service.NewOTPService(
		infra.Store(),
		sessions,
		metrics,
		cfg.Auth.OtpTTL.Duration,
		cfg.Auth.OtpAttempts,
		cfg.Security.BCryptCost,
	)
	qrService := service.NewQRLoginService(infra.Store(), sessions, metrics, cfg.Auth.QrTTL.Duration)
	profileService := service.NewProfileService(infra.Store())
	matchService := service.NewMatchService(infra.Store(), metrics)

	authHandler := handler.NewAuthHandler(otpService, qrService, sessions, profileService)
	matchHandler := handler.NewMatchHandler(matchService)
	profileHandler := handler.NewProfileHandler(profileService)

	router := gin.Default()
	router.Use(otelgin.Middleware("duet-service"))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, infra, sessions, authHandler, matchHandler, profileHandler, rateLimiter, healthChecker)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	infra Infrastructure,
	sessions *service.SessionManager,
	authHandler *handler.AuthHandler,
	matchHandler *handler.MatchHandler,
	profileHandler *handler.ProfileHandler,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
) {
	router.GET("/metrics", observability.PrometheusHandler(infra.MetricsHandler()))
	router.GET("/health", healthChecker.Handler)

	throttled := handler.RateLimitMiddleware(
		rateLimiter,
		cfg.Security.RateLimitRequests,
		cfg.Security.RateLimitWindow.Duration,
		handler.IPBasedKey,
	)
	authorized := handler.AuthMiddleware(sessions, infra.Store())

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/email/request-code", throttled, authHandler.RequestEmailCode)
			auth.POST("/email/verify", authHandler.VerifyEmailCode)
			auth.POST("/phone/request-code", throttled, authHandler.RequestPhoneCode)
			auth.POST("/phone/verify", authHandler.VerifyPhoneCode)
			auth.POST("/wechat/qrcode", throttled, authHandler.CreateQrChallenge)
			auth.POST("/wechat/confirm", authHandler.ConfirmQrChallenge)
			auth.GET("/wechat/poll", authHandler.PollQrChallenge)
			auth.GET("/session", authorized, authHandler.GetSession)
			auth.POST("/logout", authorized, authHandler.Logout)
		}

		match := api.Group("/match", authorized)
		{
			match.POST("/request", matchHandler.Request)
			match.POST("/reset", matchHandler.Reset)
			match.GET("/status", matchHandler.Status)
		}

		profile := api.Group("/profile", authorized)
		{
			profile.GET("", profileHandler.Get)
			profile.PUT("", profileHandler.Update)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
