package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/courier-manager/internal/backup"
	"github.com/BruksfildServices01/courier-manager/internal/config"
	"github.com/BruksfildServices01/courier-manager/internal/infra/kv"
	"github.com/BruksfildServices01/courier-manager/internal/infra/local"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/routes"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUploader struct{ calls int }

func (f *fakeUploader) Upload(context.Context, models.DatabaseConnection, string, []byte) error {
	f.calls++
	return nil
}

type testAPI struct {
	router http.Handler
	store  *local.Adapter
}

// newAPI wires the full router over an in-memory local backend. The backup
// worker is never started, so queued runs stay PENDING.
func newAPI(t *testing.T) *testAPI {
	t.Helper()

	mem := kv.NewMemory()
	store := local.New(mem)
	require.NoError(t, store.Initialize(context.Background()))

	connections := backup.NewStore(mem)
	runner := backup.NewRunner(connections, store, map[models.ConnectionProvider]backup.Uploader{
		models.ProviderWebhook: &fakeUploader{},
	}, 4)

	cfg := &config.Config{JWTSecret: "test-secret", StorageBackend: config.BackendLocal}
	r := gin.New()
	routes.RegisterRoutes(r, store, connections, runner, cfg)
	return &testAPI{router: r, store: store}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type authBody struct {
	User struct {
		ID   string      `json:"id"`
		Role models.Role `json:"role"`
	} `json:"user"`
	Token string `json:"token"`
}

type listBody[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

type errorBody struct {
	Code string `json:"error_code"`
}

func (a *testAPI) register(t *testing.T, name, email string) authBody {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[authBody](t, w)
}

func serviceBody(clientID string) map[string]any {
	return map[string]any{
		"clientId":          clientID,
		"pickupAddresses":   []string{"Rua A, 10"},
		"deliveryAddresses": []string{"Rua B, 20"},
		"cost":              100,
		"driverFee":         40,
		"requesterName":     "Ana",
		"date":              "2024-03-10",
		"paymentMethod":     "PIX",
	}
}

// ======================================================
// AUTH
// ======================================================

func TestRegisterFirstUserBecomesAdmin(t *testing.T) {
	api := newAPI(t)

	first := api.register(t, "Ana", "ana@example.com")
	second := api.register(t, "Bruno", "bruno@example.com")

	assert.Equal(t, models.RoleAdmin, first.User.Role)
	assert.Equal(t, models.RoleUser, second.User.Role)
	assert.NotEmpty(t, first.Token)
}

func TestRegisterRejectsDuplicateAndInvalidEmail(t *testing.T) {
	api := newAPI(t)
	api.register(t, "Ana", "ana@example.com")

	w := api.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Outra", "email": "ANA@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Outra", "email": "not-an-email", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_email", decode[errorBody](t, w).Code)
}

func TestLogin(t *testing.T) {
	api := newAPI(t)
	api.register(t, "Ana", "ana@example.com")

	w := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[authBody](t, w).Token)

	w = api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeNeverExposesPassword(t *testing.T) {
	api := newAPI(t)
	ana := api.register(t, "Ana", "ana@example.com")

	w := api.do(t, http.MethodGet, "/api/me", ana.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Contains(t, w.Body.String(), "ana@example.com")
}

// ======================================================
// CLIENTS
// ======================================================

func TestClientLifecycle(t *testing.T) {
	api := newAPI(t)
	ana := api.register(t, "Ana", "ana@example.com")

	w := api.do(t, http.MethodPost, "/api/clients", ana.Token, map[string]string{
		"name": "Farmácia Central", "category": "Saúde",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	client := decode[models.Client](t, w)

	w = api.do(t, http.MethodDelete, "/api/clients/"+client.ID, ana.Token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	active := decode[listBody[models.Client]](t, api.do(t, http.MethodGet, "/api/clients", ana.Token, nil))
	trash := decode[listBody[models.Client]](t, api.do(t, http.MethodGet, "/api/clients/trash", ana.Token, nil))
	assert.Equal(t, 0, active.Total)
	require.Equal(t, 1, trash.Total)
	assert.Equal(t, client.ID, trash.Data[0].ID)

	w = api.do(t, http.MethodPost, "/api/clients/"+client.ID+"/restore", ana.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	active = decode[listBody[models.Client]](t, api.do(t, http.MethodGet, "/api/clients?query=farm", ana.Token, nil))
	assert.Equal(t, 1, active.Total)
}

func TestClientInTrashCannotBeEdited(t *testing.T) {
	api := newAPI(t)
	ana := api.register(t, "Ana", "ana@example.com")

	w := api.do(t, http.MethodPost, "/api/clients", ana.Token, map[string]string{"name": "Loja"})
	require.Equal(t, http.StatusCreated, w.Code)
	client := decode[models.Client](t, w)
	require.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/api/clients/"+client.ID, ana.Token, nil).Code)

	w = api.do(t, http.MethodPut, "/api/clients/"+client.ID, ana.Token, map[string]string{"name": "Loja Nova"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "client_deleted", decode[errorBody](t, w).Code)

	got, err := api.store.GetClient(context.Background(), client.ID)
	require.NoError(t, err)
	assert.Equal(t, "Loja", got.Name)
}

func TestClientListCountsActiveServices(t *testing.T) {
	api := newAPI(t)
	ana := api.register(t, "Ana", "ana@example.com")

	w := api.do(t, http.MethodPost, "/api/clients", ana.Token, map[string]string{"name": "Loja"})
	client := decode[models.Client](t, w)

	var ids []string
	for i := 0; i < 3; i++ {
		w = api.do(t, http.MethodPost, "/api/services", ana.Token, serviceBody(client.ID))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		ids = append(ids, decode[models.ServiceRecord](t, w).ID)
	}
	require.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/api/services/"+ids[0], ana.Token, nil).Code)

	list := decode[listBody[struct {
		ID           string `json:"id"`
		ServiceCount int    `json:"serviceCount"`
	}]](t, api.do(t, http.MethodGet, "/api/clients", ana.Token, nil))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, client.ID, list.Data[0].ID)
	assert.Equal(t, 2, list.Data[0].ServiceCount)
}

func TestClientsAreIsolatedByOwner(t *testing.T) {
	api := newAPI(t)
	ana := api.register(t, "Ana", "ana@example.com")
	bruno := api.register(t, "Bruno", "bruno@example.com")

	w := api.do(t, http.MethodPost, "/api/clients", ana.Token, map[string]string{"name": "Loja"})
	require.Equal(t, http.StatusCreated, w.Code)
	client := decode[models.Client](t, w)

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/clients/"+client.ID, bruno.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, "/api/clients/"+client.ID, bruno.Token, nil).Code)

	list := decode[listBody[models.Client]](t, api.do(t, http.MethodGet, "/api/clients", bruno.Token, nil))
	assert.Equal(t, 0, list.Total)
}

func TestSecuredRoutesRequireToken(t *testing.T) {
	api := newAPI(t)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/api/services", "", nil).Code)
}

// ======================================================
// SERVICES
// ======================================================

func TestServiceFlowWithHistory(t *testing.T) {
	api := newAPI(t)
	ana := api.register(t, "Ana", "ana@example.com")

	w := api.do(t, http.MethodPost, "/api/clients", ana.Token, map[string]string{"name": "Loja"})
	client := decode[models.Client](t, w)

	w = api.do(t, http.MethodPost, "/api/services", ana.Token, serviceBody(client.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	svc := decode[models.ServiceRecord](t, w)

	update := serviceBody(client.ID)
	update["cost"] = 150
	w = api.do(t, http.MethodPut, "/api/services/"+svc.ID, ana.Token, update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	list := decode[listBody[struct {
		ID         string  `json:"id"`
		ClientName string  `json:"clientName"`
		Charge     float64 `json:"charge"`
	}]](t, api.do(t, http.MethodGet, "/api/services?from=2024-03-01&to=2024-03-31", ana.Token, nil))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Loja", list.Data[0].ClientName)
	assert.Equal(t, 150.0, list.Data[0].Charge)

	logs := decode[listBody[models.ServiceLog]](t, api.do(t, http.MethodGet, "/api/services/"+svc.ID+"/logs", ana.Token, nil))
	require.Equal(t, 2, logs.Total)
	assert.Equal(t, models.ActionEdited, logs.Data[0].Action)
	assert.Equal(t, "Ana", logs.Data[0].UserName)
	assert.Contains(t, logs.Data[0].Changes, "Valor")
	assert.Equal(t, models.ActionCreated, logs.Data[1].Action)
}

func TestServiceDeleteAndRestore(t *testing.T) {
	api := newAPI(t)
	ana := api.register(t, "Ana", "ana@example.com")

	w := api.do(t, http.MethodPost, "/api/services", ana.Token, serviceBody(""))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	svc := decode[models.ServiceRecord](t, w)

	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/api/services/"+svc.ID, ana.Token, nil).Code)

	w = api.do(t, http.MethodPut, "/api/services/"+svc.ID, ana.Token, serviceBody(""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "service_deleted", decode[errorBody](t, w).Code)

	trash := decode[listBody[models.ServiceRecord]](t, api.do(t, http.MethodGet, "/api/services/trash", ana.Token, nil))
	assert.Equal(t, 1, trash.Total)

	w = api.do(t, http.MethodPost, "/api/services/"+svc.ID+"/restore", ana.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[models.ServiceRecord](t, w).DeletedAt)

	w = api.do(t, http.MethodPost, "/api/services/"+svc.ID+"/restore", ana.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServiceValidationAndOwnership(t *testing.T) {
	api := newAPI(t)
	ana := api.register(t, "Ana", "ana@example.com")
	bruno := api.register(t, "Bruno", "bruno@example.com")

	body := serviceBody("")
	body["pickupAddresses"] = []string{"  "}
	w := api.do(t, http.MethodPost, "/api/services", ana.Token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_pickup_address", decode[errorBody](t, w).Code)

	w = api.do(t, http.MethodPost, "/api/services", ana.Token, serviceBody(""))
	svc := decode[models.ServiceRecord](t, w)

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/services/"+svc.ID, ana.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/services/"+svc.ID, bruno.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/services/"+svc.ID+"/logs", bruno.Token, nil).Code)
}

// ======================================================
// EXPENSES
// ======================================================

func TestExpenses(t *testing.T) {
	api := newAPI(t)
	ana := api.register(t, "Ana", "ana@example.com")
	bruno := api.register(t, "Bruno", "bruno@example.com")

	for _, date := range []string{"2024-03-01", "2024-03-20"} {
		w := api.do(t, http.MethodPost, "/api/expenses", ana.Token, map[string]any{
			"category": "gas", "amount": 50, "date": date,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	list := decode[listBody[models.ExpenseRecord]](t, api.do(t, http.MethodGet, "/api/expenses", ana.Token, nil))
	require.Equal(t, 2, list.Total)
	assert.Equal(t, "2024-03-20", list.Data[0].Date)
	assert.Equal(t, models.ExpenseGas, list.Data[0].Category)

	id := list.Data[0].ID
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, "/api/expenses/"+id, bruno.Token, nil).Code)

	w := api.do(t, http.MethodPut, "/api/expenses/"+id, ana.Token, map[string]any{
		"category": "LUNCH", "amount": 30, "date": "2024-03-20",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ExpenseLunch, decode[models.ExpenseRecord](t, w).Category)

	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/api/expenses/"+id, ana.Token, nil).Code)

	list = decode[listBody[models.ExpenseRecord]](t, api.do(t, http.MethodGet, "/api/expenses?from=2024-03-10", ana.Token, nil))
	assert.Equal(t, 0, list.Total)

	w = api.do(t, http.MethodPost, "/api/expenses", ana.Token, map[string]any{
		"category": "TOLL", "amount": 5, "date": "2024-03-01",
	})
	assert.Equal(t, "invalid_category", decode[errorBody](t, w).Code)
}

// ======================================================
// REPORTS
// ======================================================

func TestReports(t *testing.T) {
	api := newAPI(t)
	ana := api.register(t, "Ana", "ana@example.com")

	w := api.do(t, http.MethodPost, "/api/services", ana.Token, serviceBody(""))
	require.Equal(t, http.StatusCreated, w.Code)
	w = api.do(t, http.MethodPost, "/api/expenses", ana.Token, map[string]any{
		"category": "GAS", "amount": 20, "date": "2024-03-11",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	const q = "?from=2024-03-01&to=2024-03-31"

	w = api.do(t, http.MethodGet, "/api/reports/summary"+q, ana.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[struct {
		ServiceCount int    `json:"serviceCount"`
		Revenue      string `json:"revenue"`
		NetProfit    string `json:"netProfit"`
	}](t, w)
	assert.Equal(t, 1, sum.ServiceCount)
	assert.Equal(t, "100", sum.Revenue)
	assert.Equal(t, "40", sum.NetProfit)

	w = api.do(t, http.MethodGet, "/api/reports/csv"+q, ana.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "relatorio_2024-03-01_2024-03-31.csv")
	assert.Equal(t, 2, strings.Count(w.Body.String(), "\n"))
	assert.Contains(t, w.Body.String(), "100,00")

	w = api.do(t, http.MethodGet, "/api/reports/pdf"+q, ana.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

// ======================================================
// ADMIN
// ======================================================

func TestAdminRoutesRequireAdmin(t *testing.T) {
	api := newAPI(t)
	api.register(t, "Ana", "ana@example.com")
	bruno := api.register(t, "Bruno", "bruno@example.com")

	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/api/admin/users", bruno.Token, nil).Code)
}

func TestAdminBlocksUser(t *testing.T) {
	api := newAPI(t)
	admin := api.register(t, "Ana", "ana@example.com")
	bruno := api.register(t, "Bruno", "bruno@example.com")

	users := decode[listBody[map[string]any]](t, api.do(t, http.MethodGet, "/api/admin/users", admin.Token, nil))
	require.Equal(t, 2, users.Total)
	assert.NotContains(t, users.Data[0], "password")

	w := api.do(t, http.MethodPatch, "/api/admin/users/"+admin.User.ID+"/status", admin.Token, map[string]string{"status": "BLOCKED"})
	assert.Equal(t, "cannot_change_own_status", decode[errorBody](t, w).Code)

	w = api.do(t, http.MethodPatch, "/api/admin/users/"+bruno.User.ID+"/status", admin.Token, map[string]string{"status": "blocked"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "bruno@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "user_blocked", decode[errorBody](t, w).Code)

	w = api.do(t, http.MethodPatch, "/api/admin/users/"+bruno.User.ID+"/role", admin.Token, map[string]string{"role": "ADMIN"})
	require.Equal(t, http.StatusOK, w.Code)
	u, err := api.store.GetUser(context.Background(), bruno.User.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
}

func TestAdminConnectionsAndBackupRun(t *testing.T) {
	api := newAPI(t)
	admin := api.register(t, "Ana", "ana@example.com")

	w := api.do(t, http.MethodPost, "/api/admin/connections", admin.Token, map[string]any{
		"provider": "webhook", "name": "Arquivo", "isActive": true,
		"endpointUrl": "https://backup.example.com/hook", "apiKey": "top-secret",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "top-secret")
	conn := decode[struct {
		ID        string `json:"id"`
		HasAPIKey bool   `json:"hasApiKey"`
	}](t, w)
	assert.True(t, conn.HasAPIKey)

	w = api.do(t, http.MethodPut, "/api/admin/connections/"+conn.ID, admin.Token, map[string]any{
		"provider": "WEBHOOK", "name": "Arquivo 2", "isActive": true,
		"endpointUrl": "https://backup.example.com/hook",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[struct {
		HasAPIKey bool `json:"hasApiKey"`
	}](t, w).HasAPIKey)

	w = api.do(t, http.MethodPost, "/api/admin/backups/run", admin.Token, nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"queued":1}`, w.Body.String())

	list := decode[listBody[models.DatabaseConnection]](t, api.do(t, http.MethodGet, "/api/admin/connections", admin.Token, nil))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, models.BackupPending, list.Data[0].LastBackupStatus)

	w = api.do(t, http.MethodPost, "/api/admin/backups/run?id=missing", admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/connections/%s", conn.ID), admin.Token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
