package backup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/courier-manager/internal/httperr"
	"github.com/BruksfildServices01/courier-manager/internal/infra/kv"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
)

var fixedNow = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

type staticExporter struct {
	err error
}

func (e staticExporter) Export(context.Context) (*models.Dataset, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &models.Dataset{
		ExportedAt: fixedNow,
		Users:      []models.User{{ID: "u1", Name: "Admin"}},
	}, nil
}

// --------------------------------------------------
// Store
// --------------------------------------------------

func TestStoreSaveAssignsDefaults(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemory())

	c := &models.DatabaseConnection{Provider: models.ProviderWebhook, Name: " Nuvem ", EndpointURL: "https://hooks.example.com/b", IsActive: true}
	require.NoError(t, s.Save(ctx, c))
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Nuvem", c.Name)
	assert.Equal(t, models.BackupNever, c.LastBackupStatus)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, *c, list[0])
}

func TestStoreUpdateKeepsStatusAndKey(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemory())

	c := &models.DatabaseConnection{Provider: models.ProviderS3, Name: "S3", EndpointURL: "s3.example.com/bucket", APIKey: "AK:SK"}
	require.NoError(t, s.Save(ctx, c))
	require.NoError(t, s.SetStatus(ctx, c.ID, models.BackupSuccess, fixedNow, nil))

	update := &models.DatabaseConnection{ID: c.ID, Provider: models.ProviderS3, Name: "S3 novo", EndpointURL: "s3.example.com/bucket2", IsActive: true}
	require.NoError(t, s.Save(ctx, update))

	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "S3 novo", got.Name)
	assert.Equal(t, "AK:SK", got.APIKey)
	assert.Equal(t, models.BackupSuccess, got.LastBackupStatus)
	require.NotNil(t, got.LastBackupTime)
	assert.True(t, fixedNow.Equal(*got.LastBackupTime))
}

func TestStoreValidation(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemory())

	err := s.Save(ctx, &models.DatabaseConnection{Provider: "FTP", Name: "x", EndpointURL: "y"})
	assert.True(t, httperr.IsBusiness(err, "invalid_provider"))

	err = s.Save(ctx, &models.DatabaseConnection{Provider: models.ProviderWebhook, Name: "x"})
	assert.True(t, httperr.IsBusiness(err, "missing_endpoint"))
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemory())

	c := &models.DatabaseConnection{Provider: models.ProviderWebhook, Name: "W", EndpointURL: "https://x"}
	require.NoError(t, s.Save(ctx, c))
	require.NoError(t, s.Delete(ctx, c.ID))
	assert.ErrorIs(t, s.Delete(ctx, c.ID), storage.ErrNotFound)
	_, err := s.Get(ctx, c.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// --------------------------------------------------
// Uploaders
// --------------------------------------------------

type fakePutObject struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutObject) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3UploaderTarget(t *testing.T) {
	fake := &fakePutObject{}
	var endpoint, access, secret string
	up := &S3Uploader{
		region: "sa-east-1",
		newClient: func(e, a, s string) PutObjectAPI {
			endpoint, access, secret = e, a, s
			return fake
		},
	}

	conn := models.DatabaseConnection{
		Provider:    models.ProviderS3,
		EndpointURL: "http://minio.local:9000/courier/daily",
		APIKey:      "AKIA:shh",
	}
	require.NoError(t, up.Upload(context.Background(), conn, "backup-x.json", []byte(`{"a":1}`)))

	assert.Equal(t, "http://minio.local:9000", endpoint)
	assert.Equal(t, "AKIA", access)
	assert.Equal(t, "shh", secret)
	assert.Equal(t, "courier", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "daily/backup-x.json", aws.ToString(fake.input.Key))
	assert.Equal(t, `{"a":1}`, string(fake.body))
}

func TestS3UploaderRejectsBadKey(t *testing.T) {
	up := &S3Uploader{newClient: func(string, string, string) PutObjectAPI { return &fakePutObject{} }}
	conn := models.DatabaseConnection{EndpointURL: "s3.amazonaws.com/bucket", APIKey: "only-access"}
	assert.Error(t, up.Upload(context.Background(), conn, "b.json", nil))
}

func TestParseS3Target(t *testing.T) {
	got, err := parseS3Target("s3.sa-east-1.amazonaws.com/my-bucket")
	require.NoError(t, err)
	assert.Equal(t, s3Target{endpoint: "https://s3.sa-east-1.amazonaws.com", bucket: "my-bucket"}, got)

	_, err = parseS3Target("https://s3.amazonaws.com/")
	assert.Error(t, err)
}

func TestWebhookUploader(t *testing.T) {
	var gotAuth, gotName string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotName = r.Header.Get("X-Backup-Name")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	up := NewWebhookUploader(srv.Client())
	conn := models.DatabaseConnection{EndpointURL: srv.URL, APIKey: "token-1"}
	require.NoError(t, up.Upload(context.Background(), conn, "backup-1.json", []byte(`{}`)))

	assert.Equal(t, "Bearer token-1", gotAuth)
	assert.Equal(t, "backup-1.json", gotName)
	assert.Equal(t, "{}", string(gotBody))
}

func TestWebhookUploaderNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	up := NewWebhookUploader(srv.Client())
	err := up.Upload(context.Background(), models.DatabaseConnection{EndpointURL: srv.URL}, "b.json", nil)
	assert.ErrorContains(t, err, "502")
}

// --------------------------------------------------
// Runner
// --------------------------------------------------

type recordingUploader struct {
	names    []string
	payloads [][]byte
	err      error
}

func (u *recordingUploader) Upload(_ context.Context, _ models.DatabaseConnection, name string, payload []byte) error {
	u.names = append(u.names, name)
	u.payloads = append(u.payloads, payload)
	return u.err
}

func newRunnerFixture(t *testing.T, up Uploader, exp Exporter, queue int) (*Runner, *Store, *models.DatabaseConnection) {
	t.Helper()
	store := NewStore(kv.NewMemory())
	conn := &models.DatabaseConnection{Provider: models.ProviderWebhook, Name: "W", EndpointURL: "https://x", IsActive: true}
	require.NoError(t, store.Save(context.Background(), conn))

	r := NewRunner(store, exp, map[models.ConnectionProvider]Uploader{models.ProviderWebhook: up}, queue,
		WithRunnerClock(func() time.Time { return fixedNow }))
	return r, store, conn
}

func TestRunRecordsSuccess(t *testing.T) {
	ctx := context.Background()
	up := &recordingUploader{}
	r, store, conn := newRunnerFixture(t, up, staticExporter{}, 1)

	require.NoError(t, r.Run(ctx, *conn))

	require.Len(t, up.names, 1)
	assert.Equal(t, "backup-20240301T123000Z.json", up.names[0])
	var ds models.Dataset
	require.NoError(t, json.Unmarshal(up.payloads[0], &ds))
	assert.Equal(t, "Admin", ds.Users[0].Name)

	got, err := store.Get(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BackupSuccess, got.LastBackupStatus)
	assert.Empty(t, got.LastBackupError)
	require.NotNil(t, got.LastBackupTime)
}

func TestRunRecordsFailure(t *testing.T) {
	ctx := context.Background()
	r, store, conn := newRunnerFixture(t, &recordingUploader{}, staticExporter{err: errors.New("db down")}, 1)

	err := r.Run(ctx, *conn)
	assert.ErrorContains(t, err, "db down")

	got, err := store.Get(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BackupError, got.LastBackupStatus)
	assert.Contains(t, got.LastBackupError, "db down")
}

func TestRunUnknownProvider(t *testing.T) {
	r, _, conn := newRunnerFixture(t, &recordingUploader{}, staticExporter{}, 1)
	conn.Provider = models.ProviderS3
	assert.ErrorContains(t, r.Run(context.Background(), *conn), "no uploader")
}

func TestDispatchRejectsInactive(t *testing.T) {
	ctx := context.Background()
	r, store, conn := newRunnerFixture(t, &recordingUploader{}, staticExporter{}, 1)
	conn.IsActive = false
	require.NoError(t, store.Save(ctx, conn))

	assert.ErrorIs(t, r.Dispatch(ctx, conn.ID), ErrInactive)
}

func TestDispatchDropsWhenQueueFull(t *testing.T) {
	ctx := context.Background()
	r, store, conn := newRunnerFixture(t, &recordingUploader{}, staticExporter{}, 1)

	require.NoError(t, r.Dispatch(ctx, conn.ID))
	got, err := store.Get(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BackupPending, got.LastBackupStatus)

	assert.ErrorIs(t, r.Dispatch(ctx, conn.ID), ErrQueueFull)
	got, err = store.Get(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BackupError, got.LastBackupStatus)
}

func TestWorkerRunsQueuedBackups(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	up := &recordingUploader{}
	r, store, conn := newRunnerFixture(t, up, staticExporter{}, 4)
	r.Start(ctx)

	queued, err := r.DispatchActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)

	require.Eventually(t, func() bool {
		got, err := store.Get(context.Background(), conn.ID)
		return err == nil && got.LastBackupStatus == models.BackupSuccess
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	r.Wait()
	assert.Len(t, up.names, 1)
}
