// Package storage defines the backend-agnostic CRUD contract used by the
// HTTP layer, reports and backups. Implementations live under internal/infra.
package storage

import (
	"context"
	"errors"

	"github.com/BruksfildServices01/courier-manager/internal/models"
)

var ErrNotFound = errors.New("record_not_found")

// ServiceFilter restricts GetServices. Empty fields do not filter, except
// OwnerID which is always applied.
type ServiceFilter struct {
	OwnerID   string
	StartDate string
	EndDate   string
	ClientID  string
}

type ExpenseFilter struct {
	OwnerID   string
	StartDate string
	EndDate   string
}

// Adapter is implemented by every storage backend. The actor used for audit
// attribution travels in ctx (see package actor).
type Adapter interface {
	Initialize(ctx context.Context) error
	Close() error

	// -------- Users --------
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id string) error

	// -------- Clients --------
	// GetClients skips soft-deleted clients; GetDeletedClients returns only
	// those (the trash view).
	GetClients(ctx context.Context, ownerID string) ([]models.Client, error)
	GetDeletedClients(ctx context.Context, ownerID string) ([]models.Client, error)
	GetClient(ctx context.Context, id string) (*models.Client, error)
	SaveClient(ctx context.Context, c *models.Client) error
	DeleteClient(ctx context.Context, id string) error
	RestoreClient(ctx context.Context, id string) error

	// -------- Services --------
	GetServices(ctx context.Context, f ServiceFilter) ([]models.ServiceRecord, error)
	GetService(ctx context.Context, id string) (*models.ServiceRecord, error)
	SaveService(ctx context.Context, s *models.ServiceRecord) error
	UpdateService(ctx context.Context, s *models.ServiceRecord) error
	DeleteService(ctx context.Context, id string) error
	RestoreService(ctx context.Context, id string) error
	GetServiceLogs(ctx context.Context, serviceID string) ([]models.ServiceLog, error)

	// -------- Expenses --------
	GetExpenses(ctx context.Context, f ExpenseFilter) ([]models.ExpenseRecord, error)
	SaveExpense(ctx context.Context, e *models.ExpenseRecord) error
	DeleteExpense(ctx context.Context, id string) error

	// -------- Backup --------
	Export(ctx context.Context) (*models.Dataset, error)
}
