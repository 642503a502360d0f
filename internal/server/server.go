package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mohammad-safakhou/marketintel/internal/capability"
	"github.com/mohammad-safakhou/marketintel/internal/logger"
	"github.com/mohammad-safakhou/marketintel/internal/metrics"
	"github.com/mohammad-safakhou/marketintel/internal/service"
	"github.com/sirupsen/logrus"
)

// Options selects which route groups a server mounts. A nil Registry leaves
// out the tool routes and a nil Service leaves out /analyze and /chat.
type Options struct {
	Registry *capability.Registry
	Service  *service.Service
	Metrics  *metrics.Metrics
	Log      logrus.FieldLogger
	// Timeout bounds reading a request and writing its response. Zero means no limit.
	Timeout time.Duration
}

type requestValidator struct {
	v *validator.Validate
}

func (r *requestValidator) Validate(i interface{}) error {
	if err := r.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// New builds the echo instance with the unified JSON error handler.
func New(opts Options) *echo.Echo {
	log := opts.Log
	if log == nil {
		log = logger.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = opts.Timeout
	e.Server.WriteTimeout = opts.Timeout
	e.Validator = &requestValidator{v: validator.New()}
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		log.WithFields(logrus.Fields{
			"status": code,
			"method": req.Method,
			"path":   req.URL.Path,
			"remote": c.RealIP(),
		}).WithError(err).Warn("request failed")
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(opts.Metrics.Handler()))

	if opts.Registry != nil {
		th := &ToolsHandler{Registry: opts.Registry}
		th.Register(e)
	}
	if opts.Service != nil {
		ah := &AnalysisHandler{Service: opts.Service}
		ah.Register(e)
	}
	return e
}

// Run serves e on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, e *echo.Echo, addr string, log logrus.FieldLogger) error {
	if log == nil {
		log = logger.Default()
	}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("listening")
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	}
}
