package cli

import (
	"context"
	"errors"

	"github.com/runreward/runreward/internal/auth"
	"github.com/runreward/runreward/internal/config"
	"github.com/runreward/runreward/internal/logging"
	"github.com/runreward/runreward/internal/metrics"
	"github.com/runreward/runreward/internal/notify"
	"github.com/runreward/runreward/internal/repositories/kv"
	"github.com/runreward/runreward/internal/repositories/repomanager"
	"github.com/runreward/runreward/internal/security"
	"github.com/runreward/runreward/internal/services"
)

// App wires the stores of one invocation. The admin service and the mirror
// are built on first use: the admin gate hashes the configured password and
// the mirror may live on another backend.
type App struct {
	cfg     *config.Config
	log     logging.Logger
	metrics *metrics.Metrics

	primary kv.Repository
	courses *services.CourseService
	users   *services.UserService
	limiter *security.RateLimiter

	admin *services.AdminService
	sync  *services.SyncService

	closers []func() error
}

func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log, metrics: metrics.New()}

	primary, closeFn, err := repomanager.Open(ctx, repomanager.PrimaryOptions(cfg))
	if err != nil {
		return nil, err
	}
	a.primary = primary
	a.closers = append(a.closers, closeFn)

	a.courses, err = services.NewCourseService(ctx, primary, log.With("store", "courses"), a.metrics)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.limiter = security.NewRateLimiter(primary, cfg.RateLimitMax, cfg.RateLimitWindow, security.WithMetrics(a.metrics))
	a.users, err = services.NewUserService(ctx, primary, cfg, log.With("store", "users"), a.metrics,
		services.WithRateLimiter(a.limiter))
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) Admin() (*services.AdminService, error) {
	if a.admin != nil {
		return a.admin, nil
	}
	n, err := notify.NewNotifier(a.cfg, a.log.With("component", "notify"))
	if err != nil {
		return nil, err
	}
	gate := auth.NewPasswordGate(a.cfg.AdminPasswordHash, a.cfg.AdminPassword)
	a.admin = services.NewAdminService(gate, a.users, a.courses, n, a.log.With("component", "admin"), a.metrics)
	return a.admin, nil
}

func (a *App) Sync(ctx context.Context) (*services.SyncService, error) {
	if a.sync != nil {
		return a.sync, nil
	}
	mirror, closeFn, err := repomanager.Open(ctx, repomanager.MirrorOptions(a.cfg))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeFn)
	a.sync = services.NewSyncService(a.users, mirror, a.log.With("component", "sync"), a.metrics)
	return a.sync, nil
}

// Close releases the stores and writes the metrics file when one is
// configured.
func (a *App) Close() error {
	errs := []error{a.metrics.WriteFile(a.cfg.MetricsFile)}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
