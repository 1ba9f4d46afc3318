package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/apps/web/echo"
	"github.com/trezcool/ratiba/assets"
	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/auth"
	"github.com/trezcool/ratiba/core/availability"
	"github.com/trezcool/ratiba/core/invigilation"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/services/apiclient"
	"github.com/trezcool/ratiba/services/email"
	"github.com/trezcool/ratiba/services/logger"
	"github.com/trezcool/ratiba/services/refresher"
	"github.com/trezcool/ratiba/storage/cache/inmem"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "WEB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	cronLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "CRON : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up services
	client := apiclient.New(conf.API.BaseURL, conf.API.Timeout, logger)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	authSvc := auth.NewService(client)
	availSvc := availability.NewService(client)
	ttSvc := timetable.NewService(client, availSvc, refresher.StoreOptions(conf, inmem.NewTimetableStore())...)
	invigSvc := invigilation.NewService(client)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	timetable.InitValidators(validate, translator)
	invigilation.InitValidators(validate, translator)

	core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf.Debug, logger)

	// =========================================================================
	// Start Timetable Refresher

	cache := refresher.New(conf, authSvc, ttSvc, cronLogger)
	if err := cache.Start(); err != nil {
		logger.Warn(fmt.Sprintf("timetable refresher not started: %v", err), err)
	} else {
		defer func() { <-cache.Stop().Done() }()
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Web Service

	server, err := echoweb.NewServer(
		echoweb.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			Gate:            auth.NewGate(client, conf.VerifyRemote),
			AuthSvc:         authSvc,
			TimetableSvc:    ttSvc,
			AvailabilitySvc: availSvc,
			InvigilationSvc: invigSvc,
			MailSvc:         mailSvc,
			Validate:        validate,
			Translator:      translator,
		},
	)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up web server: %v", err), err)
	}

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
