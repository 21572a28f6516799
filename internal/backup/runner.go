package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/BruksfildServices01/courier-manager/internal/httperr"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/monitoring"
	"github.com/BruksfildServices01/courier-manager/internal/timezone"
)

// Exporter produces the snapshot to back up. storage.Adapter satisfies it.
type Exporter interface {
	Export(ctx context.Context) (*models.Dataset, error)
}

// Runner executes backups. Dispatch queues runs for a single background
// worker; a full queue drops the request instead of blocking the caller.
type Runner struct {
	store     *Store
	source    Exporter
	uploaders map[models.ConnectionProvider]Uploader
	queue     chan string
	now       func() time.Time
	timeout   time.Duration
	wg        sync.WaitGroup
}

type RunnerOption func(*Runner)

func WithRunnerClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// WithRunTimeout bounds each queued run.
func WithRunTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.timeout = d }
}

func NewRunner(
	store *Store,
	source Exporter,
	uploaders map[models.ConnectionProvider]Uploader,
	queueSize int,
	opts ...RunnerOption,
) *Runner {
	if queueSize <= 0 {
		queueSize = 1
	}
	r := &Runner{
		store:     store,
		source:    source,
		uploaders: uploaders,
		queue:     make(chan string, queueSize),
		now:       timezone.Now,
		timeout:   5 * time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the worker. It stops when ctx is cancelled; Wait blocks
// until it has.
func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.worker(ctx)
}

func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-r.queue:
			r.runQueued(ctx, id)
		}
	}
}

func (r *Runner) runQueued(ctx context.Context, id string) {
	conn, err := r.store.Get(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("connection_id", id).Msg("queued backup skipped")
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.Run(runCtx, *conn); err != nil {
		log.Error().Err(err).
			Str("connection_id", conn.ID).
			Str("provider", string(conn.Provider)).
			Msg("backup failed")
	}
}

// Run performs one backup synchronously and records its outcome on the
// connection.
func (r *Runner) Run(ctx context.Context, conn models.DatabaseConnection) error {
	started := r.now()
	err := r.push(ctx, conn, started)

	status := models.BackupSuccess
	if err != nil {
		status = models.BackupError
	}
	monitoring.Backups.WithLabelValues(string(conn.Provider), string(status)).Inc()
	monitoring.BackupDuration.Observe(r.now().Sub(started).Seconds())

	if serr := r.store.SetStatus(ctx, conn.ID, status, r.now(), err); serr != nil {
		log.Error().Err(serr).Str("connection_id", conn.ID).Msg("failed to record backup status")
	}
	if err == nil {
		log.Info().
			Str("connection_id", conn.ID).
			Str("provider", string(conn.Provider)).
			Msg("backup completed")
	}
	return err
}

func (r *Runner) push(ctx context.Context, conn models.DatabaseConnection, at time.Time) error {
	up, ok := r.uploaders[conn.Provider]
	if !ok {
		return fmt.Errorf("no uploader for provider %s", conn.Provider)
	}
	ds, err := r.source.Export(ctx)
	if err != nil {
		return fmt.Errorf("export dataset: %w", err)
	}
	payload, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return up.Upload(ctx, conn, ObjectName(at), payload)
}

// ObjectName is the file name of a snapshot taken at t.
func ObjectName(t time.Time) string {
	return "backup-" + t.UTC().Format("20060102T150405Z") + ".json"
}

var (
	ErrInactive  = httperr.ErrBusinessMsg("connection_inactive", "Conexão inativa.")
	ErrQueueFull = httperr.ErrBusinessMsg("backup_queue_full", "Fila de backup cheia, tente novamente.")
)

// Dispatch marks the connection PENDING and queues a run.
func (r *Runner) Dispatch(ctx context.Context, id string) error {
	conn, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !conn.IsActive {
		return ErrInactive
	}
	if err := r.store.SetStatus(ctx, id, models.BackupPending, r.now(), nil); err != nil {
		return err
	}

	select {
	case r.queue <- id:
		return nil
	default:
		log.Warn().Str("connection_id", id).Msg("backup queue full, dropping run")
		_ = r.store.SetStatus(ctx, id, models.BackupError, r.now(), ErrQueueFull)
		return ErrQueueFull
	}
}

// DispatchActive queues every active connection and returns how many were
// queued. Individual failures are logged, not returned.
func (r *Runner) DispatchActive(ctx context.Context) (int, error) {
	conns, err := r.store.List(ctx)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, c := range conns {
		if !c.IsActive {
			continue
		}
		if err := r.Dispatch(ctx, c.ID); err != nil {
			log.Warn().Err(err).Str("connection_id", c.ID).Msg("backup not queued")
			continue
		}
		queued++
	}
	return queued, nil
}
