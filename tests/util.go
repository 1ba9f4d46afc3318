package testutil

import (
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/services/logger"
)

// NewConfig returns the configuration used by tests.
func NewConfig() *core.Config {
	conf := &core.Config{
		TestMode:        true,
		AppName:         "Ratiba",
		Build:           "test",
		Env:             "TEST",
		FrontendBaseURL: "http://ratiba.test",
		VerifyRemote:    true,
		Server:          core.ServerConfig{Address: ":8000", ShutdownTimeout: time.Second},
		API:             core.APIConfig{BaseURL: "http://api.ratiba.test", Timeout: 5 * time.Second},
		Cache:           core.CacheConfig{RefreshSpec: "@every 5m", MaxAge: time.Minute},
	}
	conf.SetDefaultFromEmail("noreply@ratiba.test")
	return conf
}

// NewLogger returns a logger that reports nowhere.
func NewLogger() core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), NewConfig())
}

// NewValidator returns a validator set up with the core tags and english messages.
// Package level validators are registered by passing their Init func.
func NewValidator(inits ...func(*validator.Validate, ut.Translator)) (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	for _, init := range inits {
		init(validate, translator)
	}
	return validate, translator
}

// FieldErrors returns the translated field → message map carried by err, failing the test otherwise.
func FieldErrors(t *testing.T, err error, translator ut.Translator) map[string]string {
	t.Helper()
	switch e := err.(type) {
	case validator.ValidationErrors:
		return core.TranslateErrors(e, translator)
	case *core.ValidationError:
		out := make(map[string]string, len(e.Fields))
		for _, f := range e.Fields {
			out[f.Field] = f.Error
		}
		return out
	}
	t.Fatalf("expected a validation error, got %T: %v", err, err)
	return nil
}
