// Package backup keeps the admin-configured backup destinations and pushes
// dataset snapshots to them.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/courier-manager/internal/httperr"
	"github.com/BruksfildServices01/courier-manager/internal/infra/kv"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
)

// Key under which connections live in the key/value store, whatever the
// active storage backend is.
const Key = "db_connections"

type Store struct {
	kv    kv.Store
	mu    sync.Mutex
	newID func() string
}

func NewStore(store kv.Store) *Store {
	return &Store{kv: store, newID: uuid.NewString}
}

func (s *Store) List(ctx context.Context) ([]models.DatabaseConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) Get(ctx context.Context, id string) (*models.DatabaseConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conns, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range conns {
		if conns[i].ID == id {
			return &conns[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

// Save creates or replaces a connection. Backup status fields are owned by
// the runner and kept from the stored version on update.
func (s *Store) Save(ctx context.Context, c *models.DatabaseConnection) error {
	if err := validate(c); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conns, err := s.load(ctx)
	if err != nil {
		return err
	}
	for i := range conns {
		if conns[i].ID != c.ID {
			continue
		}
		c.LastBackupStatus = conns[i].LastBackupStatus
		c.LastBackupTime = conns[i].LastBackupTime
		c.LastBackupError = conns[i].LastBackupError
		if c.APIKey == "" {
			c.APIKey = conns[i].APIKey
		}
		conns[i] = *c
		return s.persist(ctx, conns)
	}

	if c.ID == "" {
		c.ID = s.newID()
	}
	c.LastBackupStatus = models.BackupNever
	c.LastBackupTime = nil
	c.LastBackupError = ""
	return s.persist(ctx, append(conns, *c))
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conns, err := s.load(ctx)
	if err != nil {
		return err
	}
	out := conns[:0]
	for _, c := range conns {
		if c.ID != id {
			out = append(out, c)
		}
	}
	if len(out) == len(conns) {
		return storage.ErrNotFound
	}
	return s.persist(ctx, out)
}

// SetStatus records the outcome of a backup attempt.
func (s *Store) SetStatus(
	ctx context.Context,
	id string,
	status models.BackupStatus,
	at time.Time,
	cause error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conns, err := s.load(ctx)
	if err != nil {
		return err
	}
	for i := range conns {
		if conns[i].ID != id {
			continue
		}
		conns[i].LastBackupStatus = status
		if status != models.BackupPending {
			t := at
			conns[i].LastBackupTime = &t
		}
		conns[i].LastBackupError = ""
		if cause != nil {
			conns[i].LastBackupError = cause.Error()
		}
		return s.persist(ctx, conns)
	}
	return storage.ErrNotFound
}

func (s *Store) load(ctx context.Context) ([]models.DatabaseConnection, error) {
	raw, err := s.kv.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("load connections: %w", err)
	}
	conns := []models.DatabaseConnection{}
	if len(raw) == 0 {
		return conns, nil
	}
	if err := json.Unmarshal(raw, &conns); err != nil {
		return nil, fmt.Errorf("decode connections: %w", err)
	}
	return conns, nil
}

func (s *Store) persist(ctx context.Context, conns []models.DatabaseConnection) error {
	raw, err := json.Marshal(conns)
	if err != nil {
		return fmt.Errorf("encode connections: %w", err)
	}
	if err := s.kv.Set(ctx, Key, raw); err != nil {
		return fmt.Errorf("save connections: %w", err)
	}
	return nil
}

func validate(c *models.DatabaseConnection) error {
	c.Name = strings.TrimSpace(c.Name)
	c.EndpointURL = strings.TrimSpace(c.EndpointURL)

	switch c.Provider {
	case models.ProviderS3, models.ProviderWebhook:
	default:
		return httperr.ErrBusinessMsg("invalid_provider", "Provedor inválido.")
	}
	if c.Name == "" {
		return httperr.ErrBusinessMsg("missing_name", "Informe o nome da conexão.")
	}
	if c.EndpointURL == "" {
		return httperr.ErrBusinessMsg("missing_endpoint", "Informe o endereço de destino.")
	}
	return nil
}
