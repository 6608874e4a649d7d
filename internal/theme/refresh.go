// internal/theme/refresh.go
package theme

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const refreshJobName = "theme-settings-refresh"

// Reconciler is one reconciliation pass against the authoritative
// settings record. StoreReconciler covers a single store; a server
// hosting many user engines supplies its own fan-out implementation.
type Reconciler interface {
	Reconcile(ctx context.Context)
}

// StoreReconciler reconciles one store against its resolver, applying
// the loaded settings as an external update when they differ.
type StoreReconciler struct {
	Store    *Store
	Resolver *Resolver
}

func (s StoreReconciler) Reconcile(ctx context.Context) {
	loaded := s.Resolver.Load(ctx)
	if loaded.Equal(s.Store.Committed()) {
		return
	}
	s.Store.ApplyExternal(loaded)
}

// Refresher periodically re-fetches the authoritative settings record and
// feeds differences into the store as external updates, so saves from other
// sessions or tabs propagate without a reload. It is an explicit scheduled
// job with a clean shutdown, and the refresh step itself is callable directly
// so tests do not depend on wall-clock time.
type Refresher struct {
	scheduler  gocron.Scheduler
	reconciler Reconciler
	timeout    time.Duration
	stopOnce   sync.Once
	stopErr    error
	logger     zerolog.Logger
}

// NewRefresher builds the refresher with the given standard cron schedule.
func NewRefresher(reconciler Reconciler, schedule string, logger zerolog.Logger) (*Refresher, error) {
	refresherLogger := logger.With().Str("component", "theme_refresher").Logger()

	scheduler, err := gocron.NewScheduler(
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					refresherLogger.Error().
						Str("job_id", jobID.String()).
						Str("job_name", jobName).
						Interface("panic", recoverData).
						Msg("Refresh job panicked")
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}

	r := &Refresher{
		scheduler:  scheduler,
		reconciler: reconciler,
		timeout:    defaultBackendTimeout,
		logger:     refresherLogger,
	}

	if _, err := scheduler.NewJob(
		gocron.CronJob(schedule, false),
		gocron.NewTask(r.run),
		gocron.WithName(refreshJobName),
	); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}

	return r, nil
}

// Start begins running the refresh schedule.
func (r *Refresher) Start() {
	r.logger.Info().Msg("Theme refresh job starting")
	r.scheduler.Start()
}

// Stop shuts the scheduler down and prevents further runs.
func (r *Refresher) Stop() error {
	r.stopOnce.Do(func() {
		r.logger.Info().Msg("Theme refresh job stopping")
		r.stopErr = r.scheduler.Shutdown()
	})
	return r.stopErr
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	r.RefreshOnce(ctx)
}

// RefreshOnce performs a single reconciliation pass.
func (r *Refresher) RefreshOnce(ctx context.Context) {
	r.reconciler.Reconcile(ctx)
}
