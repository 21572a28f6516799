// Package storagetest holds the behavioural suite every storage.Adapter
// implementation must pass.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/courier-manager/internal/actor"
	"github.com/BruksfildServices01/courier-manager/internal/audit"
	"github.com/BruksfildServices01/courier-manager/internal/httperr"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
)

// Clock returns strictly increasing timestamps, one second apart.
type Clock struct {
	mu  sync.Mutex
	cur time.Time
}

func NewClock() *Clock {
	return &Clock{cur: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

// Factory builds a fresh, initialized adapter using the given clock.
type Factory func(t *testing.T, clock *Clock) storage.Adapter

func Run(t *testing.T, factory Factory) {
	tests := map[string]func(*testing.T, storage.Adapter){
		"ServiceRoundTrip":       testServiceRoundTrip,
		"SoftDeleteIdempotence":  testSoftDeleteIdempotence,
		"AuditDiff":              testAuditDiff,
		"NoopUpdateWritesNoLog":  testNoopUpdate,
		"OwnershipIsolation":     testOwnershipIsolation,
		"DateRangeFilter":        testDateRangeFilter,
		"ServiceValidation":      testServiceValidationScenario,
		"ClientLifecycle":        testClientLifecycle,
		"DeletedClientsHidden":   testDeletedClientsHidden,
		"UserUniqueEmail":        testUserUniqueEmail,
		"ExpensesCRUD":           testExpenses,
		"InitializeIsIdempotent": testInitializeIdempotent,
		"ExportStripsPasswords":  testExport,
		"MissingRecordsNotFound": testNotFound,
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			a := factory(t, NewClock())
			t.Cleanup(func() { a.Close() })
			fn(t, a)
		})
	}
}

func ctxAs(name string) context.Context {
	return actor.WithActor(context.Background(), actor.Actor{ID: "u-" + name, Name: name})
}

func NewService(owner, client, date string) *models.ServiceRecord {
	return &models.ServiceRecord{
		OwnerID:           owner,
		ClientID:          client,
		PickupAddresses:   []string{"Rua A, 10"},
		DeliveryAddresses: []string{"Rua B, 20"},
		Cost:              100,
		RequesterName:     "Ana",
		Date:              date,
	}
}

func testServiceRoundTrip(t *testing.T, a storage.Adapter) {
	ctx := ctxAs("Ana")
	wait, extra := 15.0, 7.5

	s := NewService("owner-1", "client-1", "2024-03-10T14:30:00.000Z")
	s.PickupAddresses = []string{"Rua A", "Rua A2"}
	s.DeliveryAddresses = []string{"Rua B", "Rua B2", "Rua B3"}
	s.DriverFee = 40
	s.Paid = true
	s.PaymentMethod = models.PaymentCard
	s.Status = models.StatusInProgress
	s.WaitingTime = &wait
	s.ExtraFee = &extra
	s.ManualOrderID = "OS-77"

	require.NoError(t, a.SaveService(ctx, s))
	require.NotEmpty(t, s.ID)

	got, err := a.GetService(ctx, s.ID)
	require.NoError(t, err)
	assertSameService(t, *s, *got)

	list, err := a.GetServices(ctx, storage.ServiceFilter{OwnerID: "owner-1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assertSameService(t, *s, list[0])
}

func assertSameService(t *testing.T, want, got models.ServiceRecord) {
	t.Helper()
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "createdAt")
	want.CreatedAt, got.CreatedAt = time.Time{}, time.Time{}
	if want.DeletedAt != nil && got.DeletedAt != nil {
		assert.True(t, want.DeletedAt.Equal(*got.DeletedAt), "deletedAt")
		want.DeletedAt, got.DeletedAt = nil, nil
	}
	assert.Equal(t, want, got)
}

func testSoftDeleteIdempotence(t *testing.T, a storage.Adapter) {
	ctx := ctxAs("Bruno")
	s := NewService("owner-1", "client-1", "2024-01-05")
	require.NoError(t, a.SaveService(ctx, s))

	require.NoError(t, a.RestoreService(ctx, s.ID))
	logs, err := a.GetServiceLogs(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1, "restore of a live record must not log")

	require.NoError(t, a.DeleteService(ctx, s.ID))
	first, err := a.GetService(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, first.DeletedAt)

	require.NoError(t, a.DeleteService(ctx, s.ID))
	again, err := a.GetService(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, first.DeletedAt.Equal(*again.DeletedAt))

	require.NoError(t, a.RestoreService(ctx, s.ID))
	restored, err := a.GetService(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)

	require.NoError(t, a.DeleteService(ctx, s.ID))
	final, err := a.GetService(ctx, s.ID)
	require.NoError(t, err)
	assert.NotNil(t, final.DeletedAt)

	logs, err = a.GetServiceLogs(ctx, s.ID)
	require.NoError(t, err)
	actions := make([]models.LogAction, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
		assert.Equal(t, "Bruno", l.UserName)
	}
	assert.Equal(t, []models.LogAction{
		models.ActionDeleted,
		models.ActionRestored,
		models.ActionDeleted,
		models.ActionCreated,
	}, actions)
}

func testAuditDiff(t *testing.T, a storage.Adapter) {
	ctx := ctxAs("Carla")
	s := NewService("owner-1", "client-1", "2024-01-05")
	require.NoError(t, a.SaveService(ctx, s))

	updated := s.Clone()
	updated.Cost = 150
	require.NoError(t, a.UpdateService(ctx, &updated))

	logs, err := a.GetServiceLogs(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	edit := logs[0]
	assert.Equal(t, models.ActionEdited, edit.Action)
	assert.Equal(t, "Carla", edit.UserName)
	require.Len(t, edit.Changes, 1)
	assert.EqualValues(t, 100, edit.Changes[audit.LabelCost].Old)
	assert.EqualValues(t, 150, edit.Changes[audit.LabelCost].New)

	assert.Equal(t, models.ActionCreated, logs[1].Action)
	assert.Empty(t, logs[1].Changes)
}

func testNoopUpdate(t *testing.T, a storage.Adapter) {
	ctx := context.Background()
	s := NewService("owner-1", "client-1", "2024-01-05")
	require.NoError(t, a.SaveService(ctx, s))

	same := s.Clone()
	same.RequesterName = "Outro solicitante"
	require.NoError(t, a.UpdateService(ctx, &same))

	logs, err := a.GetServiceLogs(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionCreated, logs[0].Action)
	assert.Equal(t, actor.SystemName, logs[0].UserName)

	got, err := a.GetService(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Outro solicitante", got.RequesterName)
}

func testOwnershipIsolation(t *testing.T, a storage.Adapter) {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		for _, owner := range []string{"A", "B"} {
			c := &models.Client{OwnerID: owner, Name: fmt.Sprintf("%s-%d", owner, i)}
			require.NoError(t, a.SaveClient(ctx, c))
		}
	}

	clients, err := a.GetClients(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, clients, 3)
	for _, c := range clients {
		assert.Equal(t, "A", c.OwnerID)
	}

	none, err := a.GetClients(ctx, "C")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testDateRangeFilter(t *testing.T, a storage.Adapter) {
	ctx := context.Background()
	dates := []string{"2024-01-05", "2024-01-15", "2024-02-01"}
	ids := map[string]string{}
	for _, d := range dates {
		s := NewService("owner-1", "client-1", d)
		require.NoError(t, a.SaveService(ctx, s))
		ids[s.ID] = d
	}
	other := NewService("owner-2", "client-1", "2024-01-10")
	require.NoError(t, a.SaveService(ctx, other))

	got, err := a.GetServices(ctx, storage.ServiceFilter{
		OwnerID:   "owner-1",
		StartDate: "2024-01-01",
		EndDate:   "2024-01-31",
	})
	require.NoError(t, err)

	gotDates := []string{}
	for _, s := range got {
		gotDates = append(gotDates, ids[s.ID])
	}
	assert.ElementsMatch(t, []string{"2024-01-05", "2024-01-15"}, gotDates)

	iso := NewService("owner-1", "client-2", "2024-01-31T23:59:59.000Z")
	require.NoError(t, a.SaveService(ctx, iso))
	got, err = a.GetServices(ctx, storage.ServiceFilter{
		OwnerID:   "owner-1",
		StartDate: "2024-01-31",
		EndDate:   "2024-01-31",
		ClientID:  "client-2",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, iso.ID, got[0].ID)
}

func testServiceValidationScenario(t *testing.T, a storage.Adapter) {
	ctx := ctxAs("Dora")
	c := &models.Client{OwnerID: "U1", Name: "Farmácia Central"}
	require.NoError(t, a.SaveClient(ctx, c))

	bad := NewService("U1", c.ID, "2024-01-05")
	bad.PickupAddresses = []string{}
	err := a.SaveService(ctx, bad)
	assert.True(t, httperr.IsBusiness(err, "missing_pickup_address"))
	assert.Empty(t, bad.ID)

	all, err := a.GetServices(ctx, storage.ServiceFilter{OwnerID: "U1"})
	require.NoError(t, err)
	assert.Empty(t, all)

	good := NewService("U1", c.ID, "2024-01-05")
	good.PickupAddresses = []string{"Rua A"}
	good.DeliveryAddresses = []string{"Rua B"}
	good.Cost = 50
	require.NoError(t, a.SaveService(ctx, good))

	logs, err := a.GetServiceLogs(ctx, good.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionCreated, logs[0].Action)

	byClient, err := a.GetServices(ctx, storage.ServiceFilter{OwnerID: "U1", ClientID: c.ID})
	require.NoError(t, err)
	require.Len(t, byClient, 1)
	assert.Equal(t, good.ID, byClient[0].ID)
}

func testClientLifecycle(t *testing.T, a storage.Adapter) {
	ctx := context.Background()
	c := &models.Client{
		OwnerID:       "owner-1",
		Name:          "Laboratório Vida",
		Email:         "contato@vida.com.br",
		Phone:         "11999990000",
		Category:      "Laboratório",
		Address:       "Av. Paulista, 1000",
		ContactPerson: "Marta",
		CNPJ:          "12.345.678/0001-90",
	}
	require.NoError(t, a.SaveClient(ctx, c))
	created := c.CreatedAt

	update := *c
	update.OwnerID = "intruder"
	update.Phone = "1133334444"
	require.NoError(t, a.SaveClient(ctx, &update))

	got, err := a.GetClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", got.OwnerID)
	assert.Equal(t, "1133334444", got.Phone)
	assert.Equal(t, "Marta", got.ContactPerson)
	assert.Equal(t, "12.345.678/0001-90", got.CNPJ)
	assert.True(t, created.Equal(got.CreatedAt))

	require.NoError(t, a.DeleteClient(ctx, c.ID))
	deleted, err := a.GetClient(ctx, c.ID)
	require.NoError(t, err)
	assert.NotNil(t, deleted.DeletedAt)

	require.NoError(t, a.RestoreClient(ctx, c.ID))
	restored, err := a.GetClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)
}

func testDeletedClientsHidden(t *testing.T, a storage.Adapter) {
	ctx := context.Background()
	keep := &models.Client{OwnerID: "A", Name: "Ativo"}
	gone := &models.Client{OwnerID: "A", Name: "Removido"}
	other := &models.Client{OwnerID: "B", Name: "Removido B"}
	for _, c := range []*models.Client{keep, gone, other} {
		require.NoError(t, a.SaveClient(ctx, c))
	}
	require.NoError(t, a.DeleteClient(ctx, gone.ID))
	require.NoError(t, a.DeleteClient(ctx, other.ID))

	active, err := a.GetClients(ctx, "A")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, keep.ID, active[0].ID)

	trash, err := a.GetDeletedClients(ctx, "A")
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.Equal(t, gone.ID, trash[0].ID)
	assert.NotNil(t, trash[0].DeletedAt)

	require.NoError(t, a.RestoreClient(ctx, gone.ID))
	active, err = a.GetClients(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, active, 2)
	trash, err = a.GetDeletedClients(ctx, "A")
	require.NoError(t, err)
	assert.Empty(t, trash)
}

func testUserUniqueEmail(t *testing.T, a storage.Adapter) {
	ctx := context.Background()
	u := &models.User{Name: "Admin", Email: "Admin@Example.com", Password: "hash", Role: models.RoleAdmin, Status: models.UserActive}
	require.NoError(t, a.SaveUser(ctx, u))
	assert.Equal(t, "admin@example.com", u.Email)

	dup := &models.User{Name: "Other", Email: "admin@example.com ", Password: "x", Role: models.RoleUser, Status: models.UserActive}
	assert.True(t, httperr.IsBusiness(a.SaveUser(ctx, dup), "email_already_registered"))

	second := &models.User{Name: "Second", Email: "second@example.com", Password: "x", Role: models.RoleUser, Status: models.UserActive}
	require.NoError(t, a.SaveUser(ctx, second))

	second.Email = "admin@example.com"
	assert.True(t, httperr.IsBusiness(a.UpdateUser(ctx, second), "email_already_registered"))

	second.Email = "second@example.com"
	second.Password = ""
	second.Status = models.UserBlocked
	require.NoError(t, a.UpdateUser(ctx, second))

	got, err := a.GetUserByEmail(ctx, "SECOND@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.UserBlocked, got.Status)
	assert.Equal(t, "x", got.Password)

	users, err := a.GetUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, a.DeleteUser(ctx, second.ID))
	_, err = a.GetUser(ctx, second.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testExpenses(t *testing.T, a storage.Adapter) {
	ctx := context.Background()
	e1 := &models.ExpenseRecord{OwnerID: "owner-1", Category: models.ExpenseGas, Amount: 80, Date: "2024-01-10", Description: "Posto"}
	e2 := &models.ExpenseRecord{OwnerID: "owner-1", Category: models.ExpenseLunch, Amount: 30, Date: "2024-02-10"}
	e3 := &models.ExpenseRecord{OwnerID: "owner-2", Category: models.ExpenseOther, Amount: 10, Date: "2024-01-10"}
	for _, e := range []*models.ExpenseRecord{e1, e2, e3} {
		require.NoError(t, a.SaveExpense(ctx, e))
	}

	jan, err := a.GetExpenses(ctx, storage.ExpenseFilter{OwnerID: "owner-1", StartDate: "2024-01-01", EndDate: "2024-01-31"})
	require.NoError(t, err)
	require.Len(t, jan, 1)
	assert.Equal(t, "Posto", jan[0].Description)

	e1.Amount = 95
	require.NoError(t, a.SaveExpense(ctx, e1))
	require.NoError(t, a.DeleteExpense(ctx, e2.ID))
	assert.ErrorIs(t, a.DeleteExpense(ctx, e2.ID), storage.ErrNotFound)

	all, err := a.GetExpenses(ctx, storage.ExpenseFilter{OwnerID: "owner-1"})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 95.0, all[0].Amount)

	bad := &models.ExpenseRecord{OwnerID: "owner-1", Category: "TOLL", Amount: 1, Date: "2024-01-01"}
	assert.True(t, httperr.IsBusiness(a.SaveExpense(ctx, bad), "invalid_category"))
}

func testInitializeIdempotent(t *testing.T, a storage.Adapter) {
	ctx := context.Background()
	s := NewService("owner-1", "client-1", "2024-01-05")
	require.NoError(t, a.SaveService(ctx, s))

	require.NoError(t, a.Initialize(ctx))
	require.NoError(t, a.Initialize(ctx))

	got, err := a.GetServices(ctx, storage.ServiceFilter{OwnerID: "owner-1"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func testExport(t *testing.T, a storage.Adapter) {
	ctx := context.Background()
	u := &models.User{Name: "Op", Email: "op@example.com", Password: "secret-hash", Role: models.RoleUser, Status: models.UserActive}
	require.NoError(t, a.SaveUser(ctx, u))
	require.NoError(t, a.SaveClient(ctx, &models.Client{OwnerID: u.ID, Name: "C"}))
	s := NewService(u.ID, "c", "2024-01-05")
	require.NoError(t, a.SaveService(ctx, s))
	require.NoError(t, a.SaveExpense(ctx, &models.ExpenseRecord{OwnerID: u.ID, Category: models.ExpenseGas, Amount: 1, Date: "2024-01-05"}))

	ds, err := a.Export(ctx)
	require.NoError(t, err)
	require.Len(t, ds.Users, 1)
	assert.Empty(t, ds.Users[0].Password)
	assert.Len(t, ds.Clients, 1)
	assert.Len(t, ds.Services, 1)
	assert.Len(t, ds.Expenses, 1)
	assert.Len(t, ds.Logs, 1)
	assert.False(t, ds.ExportedAt.IsZero())
}

func testNotFound(t *testing.T, a storage.Adapter) {
	ctx := context.Background()
	_, err := a.GetService(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = a.GetClient(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = a.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, a.DeleteService(ctx, "missing"), storage.ErrNotFound)
	assert.ErrorIs(t, a.RestoreClient(ctx, "missing"), storage.ErrNotFound)
	assert.ErrorIs(t, a.DeleteUser(ctx, "missing"), storage.ErrNotFound)
}
