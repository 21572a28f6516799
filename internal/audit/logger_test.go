package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BruksfildServices01/courier-manager/internal/actor"
	"github.com/BruksfildServices01/courier-manager/internal/models"
)

type memorySink struct {
	entries []models.ServiceLog
	err     error
	panics  bool
}

func (m *memorySink) AppendLog(_ context.Context, entry models.ServiceLog) error {
	if m.panics {
		panic("sink exploded")
	}
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func fixedLogger(sink Sink) *Logger {
	at := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	return New(sink,
		WithClock(func() time.Time { return at }),
		WithIDGenerator(func() string { return "log-1" }),
	)
}

func TestLoggerAttributesActor(t *testing.T) {
	sink := &memorySink{}
	l := fixedLogger(sink)

	ctx := actor.WithActor(context.Background(), actor.Actor{ID: "u1", Name: "Carlos"})
	l.Log(ctx, nil, baseRecord())

	assert.Len(t, sink.entries, 1)
	entry := sink.entries[0]
	assert.Equal(t, "log-1", entry.ID)
	assert.Equal(t, "s1", entry.ServiceID)
	assert.Equal(t, "Carlos", entry.UserName)
	assert.Equal(t, models.ActionCreated, entry.Action)
}

func TestLoggerSkipsNoop(t *testing.T) {
	sink := &memorySink{}
	l := fixedLogger(sink)

	rec := baseRecord()
	same := rec.Clone()
	l.Log(context.Background(), rec, &same)

	assert.Empty(t, sink.entries)
}

func TestLoggerSwallowsFailures(t *testing.T) {
	rec := baseRecord()

	assert.NotPanics(t, func() {
		fixedLogger(&memorySink{err: errors.New("disk full")}).Log(context.Background(), nil, rec)
	})
	assert.NotPanics(t, func() {
		fixedLogger(&memorySink{panics: true}).Log(context.Background(), nil, rec)
	})
}

func TestLoggerFallsBackToSystemName(t *testing.T) {
	sink := &memorySink{}
	fixedLogger(sink).Log(context.Background(), nil, baseRecord())

	assert.Equal(t, actor.SystemName, sink.entries[0].UserName)
}
