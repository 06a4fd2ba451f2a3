package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/Davelummy/velvet-rooms-project/docs"
	"github.com/Davelummy/velvet-rooms-project/internal/api/handler"
	"github.com/Davelummy/velvet-rooms-project/internal/api/middleware"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

// Services are the core operations exposed over HTTP.
type Services struct {
	Actors        ports.ActorService
	Registrations ports.RegistrationService
	Sessions      ports.SessionService
	Content       ports.ContentService
	Audit         ports.AuditService
	Commands      handler.CommandRouter
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, checks map[string]handler.HealthCheck, jwtSecret string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(echoprometheus.NewMiddleware("velvet"))

	// --- Operational endpoints (no auth required) ---
	health := handler.NewHealthHandler(checks)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Authenticated API ---
	v1 := e.Group("/v1", middleware.Auth(jwtSecret), middleware.ResolveActor(svc.Actors))

	commands := handler.NewCommandHandler(svc.Commands)
	v1.POST("/commands", commands.Handle)

	registrations := handler.NewRegistrationHandler(svc.Registrations, svc.Actors)
	v1.POST("/registrations", registrations.Begin)
	v1.POST("/registrations/input", registrations.Submit)
	v1.DELETE("/registrations", registrations.Cancel)

	// Everything below is refused while onboarding is in progress.
	gated := v1.Group("", middleware.RegistrationGate(svc.Registrations))
	gated.POST("/me/role", registrations.SwitchRole)

	sessions := handler.NewSessionHandler(svc.Sessions)
	gated.POST("/sessions", sessions.Create)
	gated.GET("/sessions", sessions.List)
	gated.GET("/sessions/:ref", sessions.Get)
	gated.POST("/sessions/:ref/start", sessions.Start)
	gated.POST("/sessions/:ref/end", sessions.End)
	gated.POST("/sessions/:ref/dispute", sessions.Dispute)

	content := handler.NewContentHandler(svc.Content)
	gated.POST("/content", content.Create)
	gated.GET("/content", content.ListActive)
	gated.GET("/me/content", content.ListMine)
	gated.POST("/content/:id/purchase", content.Purchase)
	gated.PATCH("/content/:id", content.Update)

	admin := gated.Group("/admin", middleware.AdminOnly(svc.Actors))
	audit := handler.NewAuditHandler(svc.Audit)
	admin.POST("/sessions/:ref/release", sessions.Release)
	admin.GET("/actions", audit.List)

	return e
}

// requestLogger writes one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
