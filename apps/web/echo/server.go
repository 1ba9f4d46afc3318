// Package echoweb serves the admin console pages.
package echoweb

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/assets"
	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/auth"
	"github.com/trezcool/ratiba/core/availability"
	"github.com/trezcool/ratiba/core/invigilation"
	"github.com/trezcool/ratiba/core/timetable"
)

type (
	ServerDeps struct {
		Conf            *core.Config
		Logger          core.Logger
		Gate            *auth.Gate
		AuthSvc         *auth.Service
		TimetableSvc    *timetable.Service
		AvailabilitySvc *availability.Service
		InvigilationSvc *invigilation.Service
		MailSvc         core.EmailService
		Validate        *validator.Validate
		Translator      ut.Translator
		DisableReqLogs  bool
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(ctx context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) (Server, error) {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	rdr, err := newRenderer(assets.FS, assets.WebTemplatesDir)
	if err != nil {
		return nil, errors.Wrap(err, "parsing page templates")
	}
	s.app.Renderer = rdr
	s.setup()
	return s, nil
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.JSONSerializer = sonicSerializer{}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, conf.AppName, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	pages := pageBuilder{appName: conf.AppName}
	session := sessionMiddleware(s.deps.Gate)
	publicOnly := publicOnlyMiddleware(s.deps.Gate)

	registerAuthWeb(s.app, session, publicOnly, pages, s.deps.AuthSvc, s.deps.Validate, s.deps.Translator, conf)
	registerTeacherWeb(s.app, pages, s.deps.AvailabilitySvc, s.deps.Validate, s.deps.Translator, s.deps.Logger)

	protected := s.app.Group("", session)
	protected.GET("/dashboard", pages.static("dashboard", "Dashboard"))
	registerClassWeb(protected, pages, s.deps.TimetableSvc, s.deps.Validate, s.deps.Translator)
	registerAvailabilityWeb(protected, pages, s.deps.AvailabilitySvc, s.deps.TimetableSvc, s.deps.Validate, s.deps.Translator, s.deps.Logger)
	registerTimetableWeb(protected, pages, s.deps.TimetableSvc, s.deps.MailSvc, s.deps.Validate, s.deps.Translator, conf)
	registerInvigilationWeb(protected, pages, s.deps.InvigilationSvc, s.deps.Validate, s.deps.Translator, s.deps.Logger)

	s.app.RouteNotFound("/*", func(ctx echo.Context) error {
		return ctx.Redirect(http.StatusSeeOther, auth.LoginPath)
	})
}

func (s *server) Start() {
	s.deps.Logger.Info("web server listening on " + s.deps.Conf.Server.Address)
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}
