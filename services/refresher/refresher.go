// Package refresher keeps the timetable cache warm on a cron schedule.
package refresher

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/auth"
	"github.com/trezcool/ratiba/core/timetable"
)

const jobTimeout = 2 * time.Minute

var ErrDisabled = errors.New("refresher disabled: no schedule or password configured")

type (
	// Sessions logs the refresher in.
	Sessions interface {
		Login(ctx context.Context, data auth.LoginRequest) (string, auth.Principal, error)
	}

	// Source refetches the timetables and stores them.
	Source interface {
		Refresh(ctx context.Context) ([]timetable.ClassTimetable, error)
	}

	Refresher struct {
		spec     string
		password string
		sessions Sessions
		source   Source
		logger   core.Logger
		cron     *cron.Cron

		mu    sync.Mutex
		token string
	}
)

func New(conf *core.Config, sessions Sessions, source Source, logger core.Logger) *Refresher {
	return &Refresher{
		spec:     conf.Cache.RefreshSpec,
		password: conf.RefresherPwd,
		sessions: sessions,
		source:   source,
		logger:   logger,
	}
}

func (r *Refresher) Enabled() bool {
	return r.spec != "" && r.password != ""
}

// StoreOptions serves timetables from store only when conf enables the refresher.
func StoreOptions(conf *core.Config, store timetable.Store) []timetable.Option {
	if !conf.CacheEnabled() {
		return nil
	}
	return []timetable.Option{timetable.WithStore(store, conf.Cache.MaxAge)}
}

// Start schedules the refresh job. Runs never overlap.
func (r *Refresher) Start() error {
	if !r.Enabled() {
		return ErrDisabled
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(r.spec, r.run); err != nil {
		return errors.Wrapf(err, "scheduling refresh %q", r.spec)
	}
	r.cron = c
	c.Start()
	r.logger.Info(fmt.Sprintf("timetable refresher started, schedule=%q", r.spec))
	return nil
}

// Stop stops the schedule; the returned context is done once a running job has finished.
func (r *Refresher) Stop() context.Context {
	if r.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return r.cron.Stop()
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if err := r.RefreshNow(ctx); err != nil {
		r.logger.Warn(fmt.Sprintf("refreshing timetables: %v", err), err)
	}
}

// RefreshNow fetches the timetables once, logging in first when the held token is missing or expired.
func (r *Refresher) RefreshNow(ctx context.Context) error {
	token, err := r.session(ctx)
	if err != nil {
		return err
	}

	tables, err := r.source.Refresh(auth.NewContext(ctx, token))
	if err != nil {
		if core.IsAPIStatus(err, http.StatusUnauthorized) {
			r.setToken("") // next run logs in again
		}
		return err
	}
	r.logger.Debug(fmt.Sprintf("refreshed %d timetables", len(tables)))
	return nil
}

func (r *Refresher) session(ctx context.Context) (string, error) {
	r.mu.Lock()
	token := r.token
	r.mu.Unlock()
	if token != "" && !auth.Expired(token) {
		return token, nil
	}

	token, _, err := r.sessions.Login(ctx, auth.LoginRequest{Password: r.password})
	if err != nil {
		return "", errors.Wrap(err, "refresher login")
	}
	r.setToken(token)
	return token, nil
}

func (r *Refresher) setToken(token string) {
	r.mu.Lock()
	r.token = token
	r.mu.Unlock()
}
