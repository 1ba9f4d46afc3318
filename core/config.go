package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address         string
		DebugAddress    string
		ShutdownTimeout time.Duration
		SecureCookies   bool
	}

	APIConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	CacheConfig struct {
		RefreshSpec string
		MaxAge      time.Duration
	}

	Config struct {
		Debug            bool
		TestMode         bool
		AppName          string
		Build            string
		Env              string
		WorkDir          string
		FrontendBaseURL  string
		RollbarToken     string
		SendgridApiKey   string
		VerifyRemote     bool
		RefresherPwd     string
		defaultFromEmail string

		Server ServerConfig
		API    APIConfig
		Cache  CacheConfig
	}
)

// NewConfig reads the configuration from defaults, config/.env.<env> and the environment.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Ratiba")
	v.SetDefault("build", "dev")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:8000")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugAddress", ":4000")
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.secureCookies", false)
	v.SetDefault("api.baseURL", "http://localhost:5000")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("auth.verifyRemote", true)
	v.SetDefault("cache.refreshSpec", "@every 5m")
	v.SetDefault("cache.maxAge", 10*time.Minute)
	v.SetDefault("refresher.password", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		Build:            v.GetString("build"),
		Env:              env,
		WorkDir:          wd,
		FrontendBaseURL:  strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		VerifyRemote:     v.GetBool("auth.verifyRemote"),
		RefresherPwd:     v.GetString("refresher.password"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			DebugAddress:    v.GetString("server.debugAddress"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			SecureCookies:   v.GetBool("server.secureCookies"),
		},
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString("api.baseURL"), "/"),
			Timeout: v.GetDuration("api.timeout"),
		},
		Cache: CacheConfig{
			RefreshSpec: v.GetString("cache.refreshSpec"),
			MaxAge:      v.GetDuration("cache.maxAge"),
		},
	}
}

func (conf *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(conf.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: conf.defaultFromEmail}
	}
	if addr.Name == "" {
		addr.Name = conf.AppName
	}
	return *addr
}

// SetDefaultFromEmail is used by tests that build a Config by hand.
func (conf *Config) SetDefaultFromEmail(email string) {
	conf.defaultFromEmail = email
}

// CacheEnabled reports whether timetables are kept warm by the refresher.
// Without it every page load reads the API.
func (conf *Config) CacheEnabled() bool {
	return conf.Cache.RefreshSpec != "" && conf.RefresherPwd != ""
}
