package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wilfies/wilfies-backend/internal/application/receiving"
	"github.com/wilfies/wilfies-backend/internal/domain"
	"github.com/wilfies/wilfies-backend/internal/domain/entity"
	"github.com/wilfies/wilfies-backend/internal/domain/repository"
	apphttp "github.com/wilfies/wilfies-backend/internal/interfaces/http"
	pkgjwt "github.com/wilfies/wilfies-backend/pkg/jwt"
	"github.com/wilfies/wilfies-backend/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes mínimos para ejercer el handler de recepción por HTTP
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	headers    map[string]*entity.Transaction
	byExternal map[string]bool
	items      []*entity.TransactionItem
	products   map[string]*entity.Product
	warehouses map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		headers:    map[string]*entity.Transaction{},
		byExternal: map[string]bool{},
		products:   map[string]*entity.Product{},
		warehouses: map[string]bool{"wh-1": true},
	}
}

type memTxRepo struct{ s *memStore }

func (r *memTxRepo) Create(t *entity.Transaction) error {
	if r.s.byExternal[t.TransactionID] {
		return domain.ErrDuplicate
	}
	if !r.s.warehouses[t.WarehouseID] {
		return domain.ErrInvalidReference
	}
	r.s.headers[t.ID] = t
	r.s.byExternal[t.TransactionID] = true
	return nil
}

func (r *memTxRepo) CreateItem(item *entity.TransactionItem) error {
	r.s.items = append(r.s.items, item)
	return nil
}

func (r *memTxRepo) GetByID(string) (*entity.Transaction, error)            { return nil, nil }
func (r *memTxRepo) GetByTransactionID(string) (*entity.Transaction, error) { return nil, nil }
func (r *memTxRepo) ListItems(string) ([]*entity.TransactionItem, error)    { return nil, nil }
func (r *memTxRepo) List(int, int) ([]*entity.Transaction, error)           { return nil, nil }
func (r *memTxRepo) ListByUser(string, int, int) ([]*entity.Transaction, error) {
	return nil, nil
}
func (r *memTxRepo) Update(*entity.Transaction) error { return nil }
func (r *memTxRepo) DeleteItems(string) error         { return nil }
func (r *memTxRepo) Delete(string) error              { return nil }

type memProductRepo struct{ s *memStore }

func (r *memProductRepo) Create(p *entity.Product) error {
	r.s.products[p.SystemCode] = p
	return nil
}
func (r *memProductRepo) GetByID(string) (*entity.Product, error)         { return nil, nil }
func (r *memProductRepo) GetBySystemCode(string) (*entity.Product, error) { return nil, nil }
func (r *memProductRepo) GetOrCreateBySystemCode(p *entity.Product) (*entity.Product, error) {
	if existing := r.s.products[p.SystemCode]; existing != nil {
		return existing, nil
	}
	r.s.products[p.SystemCode] = p
	return p, nil
}
func (r *memProductRepo) Update(*entity.Product) error             { return nil }
func (r *memProductRepo) List(int, int) ([]*entity.Product, error) { return nil, nil }
func (r *memProductRepo) Delete(string) error                      { return nil }

type memTxRunner struct{ s *memStore }

func (tr *memTxRunner) Run(ctx context.Context, fn func(repository.TransactionRepository, repository.ProductRepository) error) error {
	return fn(&memTxRepo{s: tr.s}, &memProductRepo{s: tr.s})
}

func buildReceiveApp(s *memStore) *fiber.App {
	app := fiber.New()
	uc := receiving.NewReceiveUseCase(&memTxRunner{s: s}, logger.Nop())
	handler := apphttp.NewReceivingHandler(uc, logger.Nop())
	app.Post("/api/transactions/receive_items/",
		apphttp.AuthMiddleware(testJWTSecret),
		handler.ReceiveItems,
	)
	return app
}

func postReceive(t *testing.T, app *fiber.App, body []byte) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/transactions/receive_items/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, "user"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestReceiveItems_BodyVacio_400MissingPayload(t *testing.T) {
	app := buildReceiveApp(newMemStore())
	resp := postReceive(t, app, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "missing payload", body["error"])
	assert.NotEmpty(t, body["traceback"], "el cuerpo de error debe incluir traceback")
}

func TestReceiveItems_SinBodega_400MissingWarehouse(t *testing.T) {
	app := buildReceiveApp(newMemStore())
	resp := postReceive(t, app, []byte(`{"receiveNo":"RCV-1","items":[]}`))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "missing warehouse", body["error"])
	assert.NotEmpty(t, body["traceback"])
}

func TestReceiveItems_SinToken_401(t *testing.T) {
	app := buildReceiveApp(newMemStore())
	req := httptest.NewRequest(http.MethodPost, "/api/transactions/receive_items/", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestReceiveItems_FlujoCompleto_201(t *testing.T) {
	s := newMemStore()
	app := buildReceiveApp(s)

	payload := `{
		"receiveNo": "RCV-100",
		"warehouse": "wh-1",
		"supplier": "Proveedor SA",
		"totalAmount": "120.00",
		"items": [
			{"systemCode": "SKU-1", "itemName": "Ron Añejo", "unit_type": "bottle", "quantity": "10", "unit_price": "7.5", "amount": "75"},
			{"systemCode": "SKU-2", "quantity": {"box": "2"}, "supplierPrice": {"box": "22.5"}},
			{"systemCode": "SKU-RARO", "quantity": "3"}
		]
	}`
	resp := postReceive(t, app, []byte(payload))
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		TransactionID   string `json:"transaction_id"`
		TransactionType string `json:"transaction_type"`
		Warehouse       string `json:"warehouse"`
		User            string `json:"user"`
		Items           []struct {
			UnitType string `json:"unit_type"`
			Amount   string `json:"amount"`
		} `json:"items"`
		Rejected []struct {
			Index  int    `json:"index"`
			Reason string `json:"reason"`
		} `json:"rejected"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, "RCV-100", body.TransactionID)
	assert.Equal(t, "receive", body.TransactionType)
	assert.Equal(t, "wh-1", body.Warehouse)
	assert.Equal(t, testUserID, body.User, "el user debe salir del token, no del body")

	require.Len(t, body.Items, 2)
	assert.Equal(t, "bottle", body.Items[0].UnitType)
	assert.Equal(t, "75", body.Items[0].Amount, "forma directa: amount del caller")
	assert.Equal(t, "box", body.Items[1].UnitType)
	assert.Equal(t, "45", body.Items[1].Amount, "forma anidada: 2 × 22.5")

	require.Len(t, body.Rejected, 1)
	assert.Equal(t, 2, body.Rejected[0].Index)

	assert.Len(t, s.headers, 1)
	assert.Len(t, s.items, 2)
	assert.Contains(t, s.products, "SKU-1")
	assert.Contains(t, s.products, "SKU-2")
}

func TestReceiveItems_ReceiveNoDuplicado_400(t *testing.T) {
	s := newMemStore()
	app := buildReceiveApp(s)

	payload := []byte(`{
		"receiveNo": "RCV-DUP",
		"warehouse": "wh-1",
		"items": [{"systemCode": "SKU-1", "unit_type": "box", "quantity": "1", "unit_price": "2"}]
	}`)

	resp := postReceive(t, app, payload)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postReceive(t, app, payload)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["error"])
	assert.NotEmpty(t, body["traceback"])
}

func TestReceiveItems_JSONInvalido_400(t *testing.T) {
	app := buildReceiveApp(newMemStore())
	resp := postReceive(t, app, []byte(`{"receiveNo": `))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// tokenForRole genera un JWT con el rol indicado.
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, role, testIssuer, testExpMin)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return fmt.Sprintf("Bearer %s", tok)
}
