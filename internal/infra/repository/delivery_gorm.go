package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/courier-manager/internal/audit"
	"github.com/BruksfildServices01/courier-manager/internal/domain/delivery"
	"github.com/BruksfildServices01/courier-manager/internal/httperr"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/monitoring"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
	"github.com/BruksfildServices01/courier-manager/internal/timezone"
)

const (
	backendName = "remote"

	// Postgres unique_violation.
	pgUniqueViolation = "23505"
)

var errEmailTaken = httperr.ErrBusinessMsg("email_already_registered", "E-mail já cadastrado.")

// DeliveryGormRepository implements storage.Adapter on a relational database.
type DeliveryGormRepository struct {
	db    *gorm.DB
	audit *audit.Logger
	now   func() time.Time
	newID func() string
}

type Option func(*DeliveryGormRepository)

func WithClock(now func() time.Time) Option {
	return func(r *DeliveryGormRepository) { r.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(r *DeliveryGormRepository) { r.newID = newID }
}

func NewDeliveryGormRepository(db *gorm.DB, opts ...Option) *DeliveryGormRepository {
	r := &DeliveryGormRepository{
		db:    db,
		now:   timezone.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.audit = audit.New(logSink{db: db}, audit.WithClock(r.now), audit.WithIDGenerator(r.newID))
	return r
}

type logSink struct {
	db *gorm.DB
}

func (s logSink) AppendLog(ctx context.Context, entry models.ServiceLog) error {
	row, err := newServiceLogRow(&entry)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// Initialize checks the connection and migrates the schema. Safe to call
// repeatedly.
func (r *DeliveryGormRepository) Initialize(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if err := r.db.WithContext(ctx).AutoMigrate(
		&userRow{},
		&clientRow{},
		&serviceRow{},
		&expenseRow{},
		&serviceLogRow{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (r *DeliveryGormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --------------------------------------------------
// Users
// --------------------------------------------------

func (r *DeliveryGormRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	var rows []userRow
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *DeliveryGormRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, notFound(err)
	}
	u := row.toModel()
	return &u, nil
}

func (r *DeliveryGormRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).
		Where("email = ?", models.NormalizeEmail(email)).
		Take(&row).Error; err != nil {
		return nil, notFound(err)
	}
	u := row.toModel()
	return &u, nil
}

func (r *DeliveryGormRepository) SaveUser(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)
	if err := delivery.ValidateUser(u); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureEmailFree(tx, u.Email, ""); err != nil {
			return err
		}
		if u.ID == "" {
			u.ID = r.newID()
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = r.now()
		}
		row := newUserRow(u)
		return uniqueEmail(tx.Create(&row).Error)
	})
	return r.finish("save_user", err)
}

func (r *DeliveryGormRepository) UpdateUser(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)
	if err := delivery.ValidateUser(u); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing userRow
		if err := r.forUpdate(tx).Where("id = ?", u.ID).Take(&existing).Error; err != nil {
			return notFound(err)
		}
		if err := ensureEmailFree(tx, u.Email, u.ID); err != nil {
			return err
		}
		if u.Password == "" {
			u.Password = existing.Password
		}
		u.CreatedAt = existing.CreatedAt
		row := newUserRow(u)
		return uniqueEmail(tx.Save(&row).Error)
	})
	return r.finish("update_user", err)
}

func (r *DeliveryGormRepository) DeleteUser(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&userRow{})
	if res.Error != nil {
		return r.finish("delete_user", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return r.observe("delete_user", nil)
}

func ensureEmailFree(tx *gorm.DB, email, exceptID string) error {
	var count int64
	q := tx.Model(&userRow{}).Where("email = ?", email)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errEmailTaken
	}
	return nil
}

// uniqueEmail maps a unique violation that slipped past the pre-check (a
// concurrent insert) to the same business error.
func uniqueEmail(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return errEmailTaken
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errEmailTaken
	}
	return err
}

// --------------------------------------------------
// Clients
// --------------------------------------------------

func (r *DeliveryGormRepository) GetClients(ctx context.Context, ownerID string) ([]models.Client, error) {
	return r.ownedClients(ctx, ownerID, "deleted_at IS NULL")
}

func (r *DeliveryGormRepository) GetDeletedClients(ctx context.Context, ownerID string) ([]models.Client, error) {
	return r.ownedClients(ctx, ownerID, "deleted_at IS NOT NULL")
}

func (r *DeliveryGormRepository) ownedClients(ctx context.Context, ownerID, deletedCond string) ([]models.Client, error) {
	var rows []clientRow
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where(deletedCond).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Client, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *DeliveryGormRepository) GetClient(ctx context.Context, id string) (*models.Client, error) {
	var row clientRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, notFound(err)
	}
	c := row.toModel()
	return &c, nil
}

func (r *DeliveryGormRepository) SaveClient(ctx context.Context, c *models.Client) error {
	if err := delivery.ValidateClient(c); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing clientRow
		found := false
		if c.ID != "" {
			err := r.forUpdate(tx).Where("id = ?", c.ID).Take(&existing).Error
			switch {
			case err == nil:
				found = true
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}
		if found {
			c.OwnerID = existing.OwnerID
			c.CreatedAt = existing.CreatedAt
			row := newClientRow(c)
			return tx.Save(&row).Error
		}
		if c.ID == "" {
			c.ID = r.newID()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = r.now()
		}
		row := newClientRow(c)
		return tx.Create(&row).Error
	})
	return r.finish("save_client", err)
}

func (r *DeliveryGormRepository) DeleteClient(ctx context.Context, id string) error {
	return r.mutateClient(ctx, "delete_client", id, func(c *models.Client) bool {
		return delivery.SoftDeleteClient(c, r.now())
	})
}

func (r *DeliveryGormRepository) RestoreClient(ctx context.Context, id string) error {
	return r.mutateClient(ctx, "restore_client", id, delivery.RestoreClient)
}

func (r *DeliveryGormRepository) mutateClient(
	ctx context.Context,
	op string,
	id string,
	apply func(*models.Client) bool,
) error {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row clientRow
		if err := r.forUpdate(tx).Where("id = ?", id).Take(&row).Error; err != nil {
			return notFound(err)
		}
		c := row.toModel()
		if !apply(&c) {
			return nil
		}
		changed = true
		return tx.Model(&clientRow{}).
			Where("id = ?", id).
			Update("deleted_at", c.DeletedAt).Error
	})
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !changed) {
		return err
	}
	return r.finish(op, err)
}

// --------------------------------------------------
// Services
// --------------------------------------------------

func (r *DeliveryGormRepository) GetServices(ctx context.Context, f storage.ServiceFilter) ([]models.ServiceRecord, error) {
	q := r.db.WithContext(ctx).Where("owner_id = ?", f.OwnerID)
	if f.ClientID != "" {
		q = q.Where("client_id = ?", f.ClientID)
	}
	// Dates may carry a time part; compare on the calendar day only.
	if f.StartDate != "" {
		q = q.Where("substr(date, 1, 10) >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		q = q.Where("substr(date, 1, 10) <= ?", f.EndDate)
	}

	var rows []serviceRow
	if err := q.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.ServiceRecord, 0, len(rows))
	for _, row := range rows {
		s, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("decode service %s: %w", row.ID, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *DeliveryGormRepository) GetService(ctx context.Context, id string) (*models.ServiceRecord, error) {
	var row serviceRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, notFound(err)
	}
	s, err := row.toModel()
	if err != nil {
		return nil, fmt.Errorf("decode service %s: %w", id, err)
	}
	return &s, nil
}

func (r *DeliveryGormRepository) SaveService(ctx context.Context, s *models.ServiceRecord) error {
	return r.upsertService(ctx, "save_service", s)
}

func (r *DeliveryGormRepository) UpdateService(ctx context.Context, s *models.ServiceRecord) error {
	return r.upsertService(ctx, "update_service", s)
}

// upsertService reads the previous version inside the write transaction so
// the audit diff describes exactly what was replaced.
func (r *DeliveryGormRepository) upsertService(ctx context.Context, op string, s *models.ServiceRecord) error {
	if err := delivery.ValidateService(s); err != nil {
		return err
	}
	s.PickupAddresses = delivery.CleanAddresses(s.PickupAddresses)
	s.DeliveryAddresses = delivery.CleanAddresses(s.DeliveryAddresses)

	var prev *models.ServiceRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if s.ID != "" {
			if prev, err = r.lockService(tx, s.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}
		}
		if prev != nil {
			s.OwnerID = prev.OwnerID
			s.CreatedAt = prev.CreatedAt
		} else {
			if s.ID == "" {
				s.ID = r.newID()
			}
			if s.CreatedAt.IsZero() {
				s.CreatedAt = r.now()
			}
		}

		row, err := newServiceRow(s)
		if err != nil {
			return err
		}
		if prev == nil {
			return tx.Create(&row).Error
		}
		return tx.Save(&row).Error
	})
	if err != nil {
		return r.observe(op, fmt.Errorf("%s: %w", op, err))
	}

	next := s.Clone()
	r.audit.Log(ctx, prev, &next)
	return r.observe(op, nil)
}

// DeleteService soft-deletes; a second delete keeps the first timestamp.
func (r *DeliveryGormRepository) DeleteService(ctx context.Context, id string) error {
	return r.transitionService(ctx, "delete_service", id, func(s *models.ServiceRecord) bool {
		return delivery.SoftDelete(s, r.now())
	})
}

func (r *DeliveryGormRepository) RestoreService(ctx context.Context, id string) error {
	return r.transitionService(ctx, "restore_service", id, delivery.Restore)
}

func (r *DeliveryGormRepository) transitionService(
	ctx context.Context,
	op string,
	id string,
	apply func(*models.ServiceRecord) bool,
) error {
	var prev *models.ServiceRecord
	var next models.ServiceRecord
	changed := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if prev, err = r.lockService(tx, id); err != nil {
			return err
		}
		next = prev.Clone()
		if !apply(&next) {
			return nil
		}
		changed = true
		return tx.Model(&serviceRow{}).
			Where("id = ?", id).
			Update("deleted_at", next.DeletedAt).Error
	})
	if errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if err != nil {
		return r.observe(op, fmt.Errorf("%s: %w", op, err))
	}
	if !changed {
		return nil
	}

	r.audit.Log(ctx, prev, &next)
	return r.observe(op, nil)
}

func (r *DeliveryGormRepository) lockService(tx *gorm.DB, id string) (*models.ServiceRecord, error) {
	var row serviceRow
	if err := r.forUpdate(tx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, notFound(err)
	}
	s, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *DeliveryGormRepository) GetServiceLogs(ctx context.Context, serviceID string) ([]models.ServiceLog, error) {
	var rows []serviceLogRow
	if err := r.db.WithContext(ctx).
		Where("service_id = ?", serviceID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.ServiceLog, 0, len(rows))
	for _, row := range rows {
		l, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("decode log %s: %w", row.ID, err)
		}
		out = append(out, l)
	}
	return out, nil
}

// --------------------------------------------------
// Expenses
// --------------------------------------------------

func (r *DeliveryGormRepository) GetExpenses(ctx context.Context, f storage.ExpenseFilter) ([]models.ExpenseRecord, error) {
	q := r.db.WithContext(ctx).Where("owner_id = ?", f.OwnerID)
	if f.StartDate != "" {
		q = q.Where("substr(date, 1, 10) >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		q = q.Where("substr(date, 1, 10) <= ?", f.EndDate)
	}

	var rows []expenseRow
	if err := q.Order("date DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.ExpenseRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *DeliveryGormRepository) SaveExpense(ctx context.Context, e *models.ExpenseRecord) error {
	if err := delivery.ValidateExpense(e); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if e.ID != "" {
			var existing expenseRow
			err := r.forUpdate(tx).Where("id = ?", e.ID).Take(&existing).Error
			if err == nil {
				e.OwnerID = existing.OwnerID
				e.CreatedAt = existing.CreatedAt
				row := newExpenseRow(e)
				return tx.Save(&row).Error
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		if e.ID == "" {
			e.ID = r.newID()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = r.now()
		}
		row := newExpenseRow(e)
		return tx.Create(&row).Error
	})
	return r.finish("save_expense", err)
}

func (r *DeliveryGormRepository) DeleteExpense(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&expenseRow{})
	if res.Error != nil {
		return r.finish("delete_expense", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return r.observe("delete_expense", nil)
}

// --------------------------------------------------
// Export
// --------------------------------------------------

func (r *DeliveryGormRepository) Export(ctx context.Context) (*models.Dataset, error) {
	db := r.db.WithContext(ctx)
	ds := &models.Dataset{ExportedAt: r.now()}

	var users []userRow
	if err := db.Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("export users: %w", err)
	}
	ds.Users = make([]models.User, 0, len(users))
	for _, row := range users {
		u := row.toModel()
		u.Password = ""
		ds.Users = append(ds.Users, u)
	}

	var clients []clientRow
	if err := db.Order("created_at ASC").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("export clients: %w", err)
	}
	ds.Clients = make([]models.Client, 0, len(clients))
	for _, row := range clients {
		ds.Clients = append(ds.Clients, row.toModel())
	}

	var services []serviceRow
	if err := db.Order("created_at ASC").Find(&services).Error; err != nil {
		return nil, fmt.Errorf("export services: %w", err)
	}
	ds.Services = make([]models.ServiceRecord, 0, len(services))
	for _, row := range services {
		s, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("export service %s: %w", row.ID, err)
		}
		ds.Services = append(ds.Services, s)
	}

	var expenses []expenseRow
	if err := db.Order("created_at ASC").Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("export expenses: %w", err)
	}
	ds.Expenses = make([]models.ExpenseRecord, 0, len(expenses))
	for _, row := range expenses {
		ds.Expenses = append(ds.Expenses, row.toModel())
	}

	var logs []serviceLogRow
	if err := db.Order("created_at ASC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("export logs: %w", err)
	}
	ds.Logs = make([]models.ServiceLog, 0, len(logs))
	for _, row := range logs {
		l, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("export log %s: %w", row.ID, err)
		}
		ds.Logs = append(ds.Logs, l)
	}

	return ds, nil
}

// --------------------------------------------------
// Helpers
// --------------------------------------------------

// forUpdate adds SELECT ... FOR UPDATE where the dialect supports it.
func (r *DeliveryGormRepository) forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (r *DeliveryGormRepository) observe(op string, err error) error {
	return monitoring.ObserveWrite(backendName, op, err)
}

// finish observes a write and prefixes database errors with the operation.
// Business errors and ErrNotFound pass through unchanged.
func (r *DeliveryGormRepository) finish(op string, err error) error {
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		if _, ok := httperr.AsBusiness(err); !ok {
			err = fmt.Errorf("%s: %w", op, err)
		}
	}
	return r.observe(op, err)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return err
}

// Compile-time check
var _ storage.Adapter = (*DeliveryGormRepository)(nil)
