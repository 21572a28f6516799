package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/BruksfildServices01/courier-manager/internal/actor"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/monitoring"
	"github.com/BruksfildServices01/courier-manager/internal/timezone"
)

// Sink persists log entries. Each storage backend provides its own.
type Sink interface {
	AppendLog(ctx context.Context, entry models.ServiceLog) error
}

type Logger struct {
	sink  Sink
	now   func() time.Time
	newID func() string
}

type Option func(*Logger)

func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(l *Logger) { l.newID = newID }
}

func New(sink Sink, opts ...Option) *Logger {
	l := &Logger{
		sink:  sink,
		now:   timezone.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log writes the entry describing old -> new, if any. Failures are logged and
// counted but never returned: the primary write already succeeded.
func (l *Logger) Log(ctx context.Context, old, new *models.ServiceRecord) {
	action, changes, ok := Diff(old, new)
	if !ok {
		return
	}

	entry := models.ServiceLog{
		ID:        l.newID(),
		ServiceID: new.ID,
		UserName:  actor.DisplayName(ctx),
		Action:    action,
		Changes:   changes,
		CreatedAt: l.now(),
	}

	if err := l.append(ctx, entry); err != nil {
		log.Warn().Err(err).
			Str("service_id", new.ID).
			Str("action", string(action)).
			Msg("audit log write failed")
		monitoring.AuditEntries.WithLabelValues(string(action), "error").Inc()
		return
	}
	monitoring.AuditEntries.WithLabelValues(string(action), "success").Inc()
}

func (l *Logger) append(ctx context.Context, entry models.ServiceLog) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("audit sink panic: %v", r)
		}
	}()
	return l.sink.AppendLog(ctx, entry)
}
