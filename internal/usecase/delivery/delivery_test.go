package delivery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/courier-manager/internal/actor"
	"github.com/BruksfildServices01/courier-manager/internal/httperr"
	"github.com/BruksfildServices01/courier-manager/internal/infra/kv"
	"github.com/BruksfildServices01/courier-manager/internal/infra/local"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
	"github.com/BruksfildServices01/courier-manager/internal/storage/storagetest"
)

func newRepo(t *testing.T) storage.Adapter {
	t.Helper()
	repo := local.New(kv.NewMemory(), local.WithClock(storagetest.NewClock().Now))
	require.NoError(t, repo.Initialize(context.Background()))
	return repo
}

func input(date string) ServiceInput {
	return ServiceInput{
		ClientID:          "c1",
		PickupAddresses:   []string{"Rua A"},
		DeliveryAddresses: []string{"Rua B"},
		Cost:              80,
		Date:              date,
	}
}

func TestCreateServiceSetsOwner(t *testing.T) {
	repo := newRepo(t)
	ctx := actor.WithActor(context.Background(), actor.Actor{ID: "u1", Name: "Ana"})

	s, err := NewCreateService(repo).Execute(ctx, "u1", input("2024-01-10"))
	require.NoError(t, err)
	assert.Equal(t, "u1", s.OwnerID)
	assert.NotEmpty(t, s.ID)

	logs, err := NewServiceHistory(repo).Execute(ctx, "u1", s.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Ana", logs[0].UserName)
}

func TestOtherOwnersServicesAreHidden(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	s, err := NewCreateService(repo).Execute(ctx, "u1", input("2024-01-10"))
	require.NoError(t, err)

	_, err = NewUpdateService(repo).Execute(ctx, "u2", s.ID, input("2024-01-11"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, NewDeleteService(repo).Execute(ctx, "u2", s.ID), storage.ErrNotFound)
	_, err = NewServiceHistory(repo).Execute(ctx, "u2", s.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	list, err := NewListServices(repo).Execute(ctx, "u2", ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateServiceKeepsIdentity(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	s, err := NewCreateService(repo).Execute(ctx, "u1", input("2024-01-10"))
	require.NoError(t, err)

	in := input("2024-01-10")
	in.Cost = 95
	updated, err := NewUpdateService(repo).Execute(ctx, "u1", s.ID, in)
	require.NoError(t, err)
	assert.Equal(t, s.ID, updated.ID)
	assert.True(t, s.CreatedAt.Equal(updated.CreatedAt))

	logs, err := repo.GetServiceLogs(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.ActionEdited, logs[0].Action)
}

func TestTrashRules(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	s, err := NewCreateService(repo).Execute(ctx, "u1", input("2024-01-10"))
	require.NoError(t, err)

	_, err = NewRestoreService(repo).Execute(ctx, "u1", s.ID)
	assert.True(t, httperr.IsBusiness(err, "not_deleted"))

	require.NoError(t, NewDeleteService(repo).Execute(ctx, "u1", s.ID))

	_, err = NewUpdateService(repo).Execute(ctx, "u1", s.ID, input("2024-01-10"))
	assert.True(t, httperr.IsBusiness(err, "service_deleted"))

	live, err := NewListServices(repo).Execute(ctx, "u1", ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, live)

	trash, err := NewListServices(repo).Execute(ctx, "u1", ListFilter{Trash: true})
	require.NoError(t, err)
	require.Len(t, trash, 1)

	restored, err := NewRestoreService(repo).Execute(ctx, "u1", s.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)
}

func TestListServicesJoinsClientsAndSorts(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	client := &models.Client{OwnerID: "u1", Name: "Farmácia Central"}
	require.NoError(t, repo.SaveClient(ctx, client))

	create := NewCreateService(repo)
	for _, d := range []string{"2024-01-05", "2024-01-20", "2024-01-12"} {
		in := input(d)
		in.ClientID = client.ID
		in.WaitingTime = ptr(10)
		_, err := create.Execute(ctx, "u1", in)
		require.NoError(t, err)
	}

	list, err := NewListServices(repo).Execute(ctx, "u1", ListFilter{From: "2024-01-06", To: "2024-01-31"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-01-20", list[0].Date)
	assert.Equal(t, "2024-01-12", list[1].Date)
	assert.Equal(t, "Farmácia Central", list[0].ClientName)
	assert.Equal(t, 90.0, list[0].Charge)
}

func ptr(v float64) *float64 { return &v }
