// Package local implements storage.Adapter over an embedded key/value store,
// keeping each entity as one serialized list under its own key.
package local

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/courier-manager/internal/audit"
	"github.com/BruksfildServices01/courier-manager/internal/domain/delivery"
	"github.com/BruksfildServices01/courier-manager/internal/httperr"
	"github.com/BruksfildServices01/courier-manager/internal/infra/kv"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/monitoring"
	"github.com/BruksfildServices01/courier-manager/internal/query"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
	"github.com/BruksfildServices01/courier-manager/internal/timezone"
)

const backendName = "local"

// Adapter serializes every read-modify-write with a single mutex; the
// underlying store has no notion of transactions.
type Adapter struct {
	store kv.Store
	mu    sync.Mutex

	users    collection[models.User]
	clients  collection[models.Client]
	services collection[models.ServiceRecord]
	expenses collection[models.ExpenseRecord]
	logs     collection[models.ServiceLog]

	audit *audit.Logger
	now   func() time.Time
	newID func() string
}

type Option func(*Adapter)

func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(a *Adapter) { a.newID = newID }
}

func New(store kv.Store, opts ...Option) *Adapter {
	a := &Adapter{
		store:    store,
		users:    newCollection(store, KeyUsers, func(u *models.User) string { return u.ID }),
		clients:  newCollection(store, KeyClients, func(c *models.Client) string { return c.ID }),
		services: newCollection(store, KeyServices, func(s *models.ServiceRecord) string { return s.ID }),
		expenses: newCollection(store, KeyExpenses, func(e *models.ExpenseRecord) string { return e.ID }),
		logs:     newCollection(store, KeyLogs, func(l *models.ServiceLog) string { return l.ID }),
		now:      timezone.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.audit = audit.New(logSink{a}, audit.WithClock(a.now), audit.WithIDGenerator(a.newID))
	return a
}

// logSink appends without locking: it only runs inside a locked mutation.
type logSink struct {
	a *Adapter
}

func (s logSink) AppendLog(ctx context.Context, entry models.ServiceLog) error {
	items, err := s.a.logs.all(ctx)
	if err != nil {
		return err
	}
	return s.a.logs.replaceAll(ctx, append(items, entry))
}

func (a *Adapter) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, ensure := range []func(context.Context) error{
		a.users.ensure,
		a.clients.ensure,
		a.services.ensure,
		a.expenses.ensure,
		a.logs.ensure,
	} {
		if err := ensure(ctx); err != nil {
			return fmt.Errorf("initialize local storage: %w", err)
		}
	}
	return nil
}

func (a *Adapter) Close() error {
	return a.store.Close()
}

// --------------------------------------------------
// Users
// --------------------------------------------------

func (a *Adapter) GetUsers(ctx context.Context) ([]models.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.users.all(ctx)
}

func (a *Adapter) GetUser(ctx context.Context, id string) (*models.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	u, err := a.users.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, storage.ErrNotFound
	}
	return u, nil
}

func (a *Adapter) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	users, err := a.users.all(ctx)
	if err != nil {
		return nil, err
	}
	email = models.NormalizeEmail(email)
	for i := range users {
		if users[i].Email == email {
			return &users[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

func (a *Adapter) SaveUser(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)
	if err := delivery.ValidateUser(u); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	users, err := a.users.all(ctx)
	if err != nil {
		return a.observe("save_user", fmt.Errorf("save user: %w", err))
	}
	if emailTaken(users, u.Email, "") {
		return errEmailTaken
	}
	if u.ID == "" {
		u.ID = a.newID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = a.now()
	}
	if err := a.users.replaceAll(ctx, append(users, *u)); err != nil {
		return a.observe("save_user", fmt.Errorf("save user: %w", err))
	}
	return a.observe("save_user", nil)
}

func (a *Adapter) UpdateUser(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)
	if err := delivery.ValidateUser(u); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	users, err := a.users.all(ctx)
	if err != nil {
		return a.observe("update_user", fmt.Errorf("update user: %w", err))
	}
	idx := -1
	for i := range users {
		if users[i].ID == u.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return storage.ErrNotFound
	}
	if emailTaken(users, u.Email, u.ID) {
		return errEmailTaken
	}
	if u.Password == "" {
		u.Password = users[idx].Password
	}
	u.CreatedAt = users[idx].CreatedAt
	users[idx] = *u

	if err := a.users.replaceAll(ctx, users); err != nil {
		return a.observe("update_user", fmt.Errorf("update user: %w", err))
	}
	return a.observe("update_user", nil)
}

func (a *Adapter) DeleteUser(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	removed, err := a.users.remove(ctx, id)
	if err != nil {
		return a.observe("delete_user", fmt.Errorf("delete user: %w", err))
	}
	if !removed {
		return storage.ErrNotFound
	}
	return a.observe("delete_user", nil)
}

var errEmailTaken = httperr.ErrBusinessMsg("email_already_registered", "E-mail já cadastrado.")

func emailTaken(users []models.User, email, exceptID string) bool {
	for _, u := range users {
		if u.Email == email && u.ID != exceptID {
			return true
		}
	}
	return false
}

// --------------------------------------------------
// Clients
// --------------------------------------------------

func (a *Adapter) GetClients(ctx context.Context, ownerID string) ([]models.Client, error) {
	return a.ownedClients(ctx, ownerID, false)
}

func (a *Adapter) GetDeletedClients(ctx context.Context, ownerID string) ([]models.Client, error) {
	return a.ownedClients(ctx, ownerID, true)
}

func (a *Adapter) ownedClients(ctx context.Context, ownerID string, deleted bool) ([]models.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	clients, err := a.clients.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Client, 0, len(clients))
	for _, c := range clients {
		if c.OwnerID == ownerID && c.IsDeleted() == deleted {
			out = append(out, c)
		}
	}
	return out, nil
}

func (a *Adapter) GetClient(ctx context.Context, id string) (*models.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	c, err := a.clients.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, storage.ErrNotFound
	}
	return c, nil
}

func (a *Adapter) SaveClient(ctx context.Context, c *models.Client) error {
	if err := delivery.ValidateClient(c); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var existing *models.Client
	if c.ID != "" {
		var err error
		if existing, err = a.clients.find(ctx, c.ID); err != nil {
			return a.observe("save_client", fmt.Errorf("save client: %w", err))
		}
	}
	if existing != nil {
		c.OwnerID = existing.OwnerID
		c.CreatedAt = existing.CreatedAt
	} else {
		if c.ID == "" {
			c.ID = a.newID()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = a.now()
		}
	}

	if err := a.clients.upsert(ctx, *c); err != nil {
		return a.observe("save_client", fmt.Errorf("save client: %w", err))
	}
	return a.observe("save_client", nil)
}

func (a *Adapter) DeleteClient(ctx context.Context, id string) error {
	return a.mutateClient(ctx, "delete_client", id, func(c *models.Client) bool {
		return delivery.SoftDeleteClient(c, a.now())
	})
}

func (a *Adapter) RestoreClient(ctx context.Context, id string) error {
	return a.mutateClient(ctx, "restore_client", id, delivery.RestoreClient)
}

func (a *Adapter) mutateClient(ctx context.Context, op, id string, apply func(*models.Client) bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	c, err := a.clients.find(ctx, id)
	if err != nil {
		return a.observe(op, fmt.Errorf("%s: %w", op, err))
	}
	if c == nil {
		return storage.ErrNotFound
	}
	if !apply(c) {
		return nil
	}
	if err := a.clients.upsert(ctx, *c); err != nil {
		return a.observe(op, fmt.Errorf("%s: %w", op, err))
	}
	return a.observe(op, nil)
}

// --------------------------------------------------
// Services
// --------------------------------------------------

func (a *Adapter) GetServices(ctx context.Context, f storage.ServiceFilter) ([]models.ServiceRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	services, err := a.services.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.ServiceRecord, 0, len(services))
	for _, s := range services {
		if s.OwnerID != f.OwnerID {
			continue
		}
		if f.ClientID != "" && s.ClientID != f.ClientID {
			continue
		}
		if !query.InDateRange(s.Date, f.StartDate, f.EndDate) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (a *Adapter) GetService(ctx context.Context, id string) (*models.ServiceRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, err := a.services.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, storage.ErrNotFound
	}
	return s, nil
}

func (a *Adapter) SaveService(ctx context.Context, s *models.ServiceRecord) error {
	return a.upsertService(ctx, "save_service", s)
}

func (a *Adapter) UpdateService(ctx context.Context, s *models.ServiceRecord) error {
	return a.upsertService(ctx, "update_service", s)
}

func (a *Adapter) upsertService(ctx context.Context, op string, s *models.ServiceRecord) error {
	if err := delivery.ValidateService(s); err != nil {
		return err
	}
	s.PickupAddresses = delivery.CleanAddresses(s.PickupAddresses)
	s.DeliveryAddresses = delivery.CleanAddresses(s.DeliveryAddresses)

	a.mu.Lock()
	defer a.mu.Unlock()

	var prev *models.ServiceRecord
	if s.ID != "" {
		var err error
		if prev, err = a.services.find(ctx, s.ID); err != nil {
			return a.observe(op, fmt.Errorf("%s: %w", op, err))
		}
	}
	if prev != nil {
		s.OwnerID = prev.OwnerID
		s.CreatedAt = prev.CreatedAt
	} else {
		if s.ID == "" {
			s.ID = a.newID()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = a.now()
		}
	}

	if err := a.services.upsert(ctx, *s); err != nil {
		return a.observe(op, fmt.Errorf("%s: %w", op, err))
	}

	next := s.Clone()
	a.audit.Log(ctx, prev, &next)
	return a.observe(op, nil)
}

// DeleteService soft-deletes; a second delete keeps the first timestamp.
func (a *Adapter) DeleteService(ctx context.Context, id string) error {
	return a.transitionService(ctx, "delete_service", id, func(s *models.ServiceRecord) bool {
		return delivery.SoftDelete(s, a.now())
	})
}

func (a *Adapter) RestoreService(ctx context.Context, id string) error {
	return a.transitionService(ctx, "restore_service", id, delivery.Restore)
}

func (a *Adapter) transitionService(ctx context.Context, op, id string, apply func(*models.ServiceRecord) bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	prev, err := a.services.find(ctx, id)
	if err != nil {
		return a.observe(op, fmt.Errorf("%s: %w", op, err))
	}
	if prev == nil {
		return storage.ErrNotFound
	}

	next := prev.Clone()
	if !apply(&next) {
		return nil
	}
	if err := a.services.upsert(ctx, next); err != nil {
		return a.observe(op, fmt.Errorf("%s: %w", op, err))
	}

	a.audit.Log(ctx, prev, &next)
	return a.observe(op, nil)
}

func (a *Adapter) GetServiceLogs(ctx context.Context, serviceID string) ([]models.ServiceLog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	logs, err := a.logs.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.ServiceLog, 0)
	for _, l := range logs {
		if l.ServiceID == serviceID {
			out = append(out, l)
		}
	}
	sortLogsNewestFirst(out)
	return out, nil
}

func sortLogsNewestFirst(logs []models.ServiceLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].CreatedAt.After(logs[j].CreatedAt)
	})
}

// --------------------------------------------------
// Expenses
// --------------------------------------------------

func (a *Adapter) GetExpenses(ctx context.Context, f storage.ExpenseFilter) ([]models.ExpenseRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	expenses, err := a.expenses.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.ExpenseRecord, 0, len(expenses))
	for _, e := range expenses {
		if e.OwnerID == f.OwnerID && query.InDateRange(e.Date, f.StartDate, f.EndDate) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (a *Adapter) SaveExpense(ctx context.Context, e *models.ExpenseRecord) error {
	if err := delivery.ValidateExpense(e); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var existing *models.ExpenseRecord
	if e.ID != "" {
		var err error
		if existing, err = a.expenses.find(ctx, e.ID); err != nil {
			return a.observe("save_expense", fmt.Errorf("save expense: %w", err))
		}
	}
	if existing != nil {
		e.OwnerID = existing.OwnerID
		e.CreatedAt = existing.CreatedAt
	} else {
		if e.ID == "" {
			e.ID = a.newID()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = a.now()
		}
	}

	if err := a.expenses.upsert(ctx, *e); err != nil {
		return a.observe("save_expense", fmt.Errorf("save expense: %w", err))
	}
	return a.observe("save_expense", nil)
}

func (a *Adapter) DeleteExpense(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	removed, err := a.expenses.remove(ctx, id)
	if err != nil {
		return a.observe("delete_expense", fmt.Errorf("delete expense: %w", err))
	}
	if !removed {
		return storage.ErrNotFound
	}
	return a.observe("delete_expense", nil)
}

// --------------------------------------------------
// Export
// --------------------------------------------------

func (a *Adapter) Export(ctx context.Context) (*models.Dataset, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ds := &models.Dataset{ExportedAt: a.now()}
	var err error
	if ds.Users, err = a.users.all(ctx); err != nil {
		return nil, fmt.Errorf("export users: %w", err)
	}
	for i := range ds.Users {
		ds.Users[i].Password = ""
	}
	if ds.Clients, err = a.clients.all(ctx); err != nil {
		return nil, fmt.Errorf("export clients: %w", err)
	}
	if ds.Services, err = a.services.all(ctx); err != nil {
		return nil, fmt.Errorf("export services: %w", err)
	}
	if ds.Expenses, err = a.expenses.all(ctx); err != nil {
		return nil, fmt.Errorf("export expenses: %w", err)
	}
	if ds.Logs, err = a.logs.all(ctx); err != nil {
		return nil, fmt.Errorf("export logs: %w", err)
	}
	return ds, nil
}

func (a *Adapter) observe(op string, err error) error {
	return monitoring.ObserveWrite(backendName, op, err)
}

// Compile-time check
var _ storage.Adapter = (*Adapter)(nil)
