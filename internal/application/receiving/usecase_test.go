package receiving_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wilfies/wilfies-backend/internal/application/dto"
	"github.com/wilfies/wilfies-backend/internal/application/receiving"
	"github.com/wilfies/wilfies-backend/internal/domain"
	"github.com/wilfies/wilfies-backend/internal/domain/entity"
	"github.com/wilfies/wilfies-backend/internal/domain/repository"
	"github.com/wilfies/wilfies-backend/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria: emulan el comportamiento transaccional del repo real,
// incluyendo rollback por snapshot cuando el callback del runner falla.
// ──────────────────────────────────────────────────────────────────────────────

type fakeStore struct {
	headers    map[string]*entity.Transaction // por ID interno
	byExternal map[string]string              // transaction_id externo → ID interno
	items      []*entity.TransactionItem
	products   map[string]*entity.Product // por system_code
	warehouses map[string]bool

	failItemCode    string // system_code cuya línea falla al persistir
	productsCreated int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		headers:    map[string]*entity.Transaction{},
		byExternal: map[string]string{},
		products:   map[string]*entity.Product{},
		warehouses: map[string]bool{"wh-1": true},
	}
}

func (s *fakeStore) snapshot() *fakeStore {
	cp := &fakeStore{
		headers:         map[string]*entity.Transaction{},
		byExternal:      map[string]string{},
		items:           append([]*entity.TransactionItem(nil), s.items...),
		products:        map[string]*entity.Product{},
		warehouses:      s.warehouses,
		failItemCode:    s.failItemCode,
		productsCreated: s.productsCreated,
	}
	for k, v := range s.headers {
		cp.headers[k] = v
	}
	for k, v := range s.byExternal {
		cp.byExternal[k] = v
	}
	for k, v := range s.products {
		cp.products[k] = v
	}
	return cp
}

func (s *fakeStore) restore(snap *fakeStore) {
	s.headers = snap.headers
	s.byExternal = snap.byExternal
	s.items = snap.items
	s.products = snap.products
	s.productsCreated = snap.productsCreated
}

type fakeTransactionRepo struct{ s *fakeStore }

func (r *fakeTransactionRepo) Create(t *entity.Transaction) error {
	if _, dup := r.s.byExternal[t.TransactionID]; dup {
		return domain.ErrDuplicate
	}
	if !r.s.warehouses[t.WarehouseID] {
		return domain.ErrInvalidReference
	}
	r.s.headers[t.ID] = t
	r.s.byExternal[t.TransactionID] = t.ID
	return nil
}

func (r *fakeTransactionRepo) CreateItem(item *entity.TransactionItem) error {
	if r.s.failItemCode != "" && item.SystemCode == r.s.failItemCode {
		return fmt.Errorf("fallo simulado de persistencia")
	}
	r.s.items = append(r.s.items, item)
	return nil
}

func (r *fakeTransactionRepo) GetByID(id string) (*entity.Transaction, error) {
	return r.s.headers[id], nil
}

func (r *fakeTransactionRepo) GetByTransactionID(transactionID string) (*entity.Transaction, error) {
	return r.s.headers[r.s.byExternal[transactionID]], nil
}

func (r *fakeTransactionRepo) ListItems(transactionID string) ([]*entity.TransactionItem, error) {
	var out []*entity.TransactionItem
	for _, it := range r.s.items {
		if it.TransactionID == transactionID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) List(limit, offset int) ([]*entity.Transaction, error) {
	return nil, nil
}

func (r *fakeTransactionRepo) ListByUser(userID string, limit, offset int) ([]*entity.Transaction, error) {
	return nil, nil
}

func (r *fakeTransactionRepo) Update(t *entity.Transaction) error     { return nil }
func (r *fakeTransactionRepo) DeleteItems(transactionID string) error { return nil }
func (r *fakeTransactionRepo) Delete(id string) error                 { return nil }

type fakeProductRepo struct{ s *fakeStore }

func (r *fakeProductRepo) Create(p *entity.Product) error {
	if _, dup := r.s.products[p.SystemCode]; dup {
		return domain.ErrDuplicate
	}
	r.s.products[p.SystemCode] = p
	r.s.productsCreated++
	return nil
}

func (r *fakeProductRepo) GetByID(id string) (*entity.Product, error) { return nil, nil }

func (r *fakeProductRepo) GetBySystemCode(systemCode string) (*entity.Product, error) {
	return r.s.products[systemCode], nil
}

func (r *fakeProductRepo) GetOrCreateBySystemCode(p *entity.Product) (*entity.Product, error) {
	if existing := r.s.products[p.SystemCode]; existing != nil {
		return existing, nil
	}
	if err := r.Create(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *fakeProductRepo) Update(p *entity.Product) error                    { return nil }
func (r *fakeProductRepo) List(limit, offset int) ([]*entity.Product, error) { return nil, nil }
func (r *fakeProductRepo) Delete(id string) error                            { return nil }

// fakeTxRunner ejecuta el callback sobre el store y revierte por snapshot si
// falla, igual que el rollback del runner real.
type fakeTxRunner struct{ s *fakeStore }

func (tr *fakeTxRunner) Run(ctx context.Context, fn func(repository.TransactionRepository, repository.ProductRepository) error) error {
	snap := tr.s.snapshot()
	if err := fn(&fakeTransactionRepo{s: tr.s}, &fakeProductRepo{s: tr.s}); err != nil {
		tr.s.restore(snap)
		return err
	}
	return nil
}

func newUseCase(s *fakeStore) *receiving.ReceiveUseCase {
	return receiving.NewReceiveUseCase(&fakeTxRunner{s: s}, logger.Nop())
}

func directItem(code, name, unitType, qty, price, amount string) dto.ReceiveItemRequest {
	it := dto.ReceiveItemRequest{
		SystemCode: code,
		ItemName:   name,
		UnitType:   unitType,
		Quantity:   json.RawMessage(qty),
		UnitPrice:  json.RawMessage(price),
	}
	if amount != "" {
		it.Amount = json.RawMessage(amount)
	}
	return it
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestReceiveItems_PayloadVacio(t *testing.T) {
	s := newFakeStore()
	uc := newUseCase(s)

	_, err := uc.ReceiveItems(context.Background(), "user-1", dto.ReceiveRequest{})
	require.ErrorIs(t, err, domain.ErrMissingPayload)
	assert.Equal(t, "missing payload", err.Error())
	assert.Empty(t, s.headers, "no debe persistirse nada")
}

func TestReceiveItems_SinBodega_NoPersisteNada(t *testing.T) {
	s := newFakeStore()
	uc := newUseCase(s)

	_, err := uc.ReceiveItems(context.Background(), "user-1", dto.ReceiveRequest{
		ReceiveNo: "RCV-001",
		Items:     []dto.ReceiveItemRequest{directItem("SKU-1", "Ron", "bottle", "1", "2", "")},
	})
	require.ErrorIs(t, err, domain.ErrMissingWarehouse)
	assert.Equal(t, "missing warehouse", err.Error())
	assert.Empty(t, s.headers)
	assert.Empty(t, s.items)
	assert.Empty(t, s.products)
}

func TestReceiveItems_FlujoCompleto(t *testing.T) {
	s := newFakeStore()
	uc := newUseCase(s)

	out, err := uc.ReceiveItems(context.Background(), "user-1", dto.ReceiveRequest{
		ReceiveNo:   "RCV-001",
		Warehouse:   "wh-1",
		Supplier:    "Proveedor SA",
		TotalAmount: json.RawMessage(`"99.90"`),
		Items: []dto.ReceiveItemRequest{
			directItem("SKU-1", "Ron Añejo", "bottle", "10", "7.5", "75"),
		},
	})
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, "RCV-001", out.TransactionID)
	assert.Equal(t, entity.TransactionTypeReceive, out.TransactionType)
	assert.Equal(t, "wh-1", out.Warehouse)
	assert.Equal(t, "user-1", out.User)
	assert.Equal(t, "99.9", out.TotalAmount.String())
	require.Len(t, out.Items, 1)
	assert.Empty(t, out.Rejected)

	assert.Len(t, s.headers, 1)
	assert.Len(t, s.items, 1)
	require.Contains(t, s.products, "SKU-1")
	assert.Equal(t, "Ron Añejo", s.products["SKU-1"].Name)
}

// Dos líneas con el mismo systemCode deben resolver al mismo producto: un solo
// registro creado, ambas líneas apuntan a su ID.
func TestReceiveItems_ProductoReutilizadoPorSystemCode(t *testing.T) {
	s := newFakeStore()
	uc := newUseCase(s)

	out, err := uc.ReceiveItems(context.Background(), "user-1", dto.ReceiveRequest{
		ReceiveNo: "RCV-002",
		Warehouse: "wh-1",
		Items: []dto.ReceiveItemRequest{
			directItem("SKU-X", "Cerveza", "box", "2", "10", ""),
			directItem("SKU-X", "Cerveza", "case", "1", "40", ""),
		},
	})
	require.NoError(t, err)
	require.Len(t, out.Items, 2)

	assert.Equal(t, 1, s.productsCreated, "un solo producto para el mismo system_code")
	assert.Equal(t, out.Items[0].Product, out.Items[1].Product)
}

// Producto sin nombre: se crea con el nombre por defecto y una descripción
// generada que menciona el tipo de ítem.
func TestReceiveItems_ProductoSinNombre(t *testing.T) {
	s := newFakeStore()
	uc := newUseCase(s)

	item := directItem("SKU-ANON", "", "shell", "5", "1", "")
	item.ItemType = "licor"
	_, err := uc.ReceiveItems(context.Background(), "user-1", dto.ReceiveRequest{
		ReceiveNo: "RCV-003",
		Warehouse: "wh-1",
		Items:     []dto.ReceiveItemRequest{item},
	})
	require.NoError(t, err)

	p := s.products["SKU-ANON"]
	require.NotNil(t, p)
	assert.Equal(t, entity.DefaultProductName, p.Name)
	assert.Contains(t, p.Description, "licor")
}

// Las líneas persistidas llevan line_no correlativo en el orden de entrada,
// incluyendo las expandidas desde la forma anidada, para que las lecturas
// posteriores las devuelvan en el mismo orden que la respuesta de creación.
func TestReceiveItems_LineasConOrdenDeInsercion(t *testing.T) {
	s := newFakeStore()
	uc := newUseCase(s)

	out, err := uc.ReceiveItems(context.Background(), "user-1", dto.ReceiveRequest{
		ReceiveNo: "RCV-ORD",
		Warehouse: "wh-1",
		Items: []dto.ReceiveItemRequest{
			directItem("SKU-A", "Vino", "bottle", "6", "8", ""),
			{
				SystemCode:    "SKU-B",
				Quantity:      json.RawMessage(`{"box": "2", "case": "1"}`),
				SupplierPrice: json.RawMessage(`{"box": "10", "case": "40"}`),
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, out.Items, 3)

	require.Len(t, s.items, 3)
	for i, it := range s.items {
		assert.Equal(t, i, it.LineNo, "line_no debe seguir el orden de inserción")
	}
	assert.Equal(t, "bottle", s.items[0].UnitType)
	assert.Equal(t, "box", s.items[1].UnitType)
	assert.Equal(t, "case", s.items[2].UnitType)
}

// Tolerancia parcial: un descriptor inválido se reporta en rejected y el resto
// del lote se persiste normal.
func TestReceiveItems_ToleranciaParcial(t *testing.T) {
	s := newFakeStore()
	uc := newUseCase(s)

	out, err := uc.ReceiveItems(context.Background(), "user-1", dto.ReceiveRequest{
		ReceiveNo: "RCV-004",
		Warehouse: "wh-1",
		Items: []dto.ReceiveItemRequest{
			directItem("SKU-OK", "Vino", "bottle", "6", "8", ""),
			{SystemCode: "SKU-MAL", Quantity: json.RawMessage("3")}, // sin unit_type ni mapas
		},
	})
	require.NoError(t, err, "un descriptor inválido no aborta el lote")

	require.Len(t, out.Items, 1)
	require.Len(t, out.Rejected, 1)
	assert.Equal(t, 1, out.Rejected[0].Index)
	assert.NotEmpty(t, out.Rejected[0].Reason)
	assert.Len(t, s.items, 1)
}

// receiveNo duplicado: el segundo intento falla y no deja rastro.
func TestReceiveItems_ReceiveNoDuplicado(t *testing.T) {
	s := newFakeStore()
	uc := newUseCase(s)

	req := dto.ReceiveRequest{
		ReceiveNo: "RCV-DUP",
		Warehouse: "wh-1",
		Items:     []dto.ReceiveItemRequest{directItem("SKU-1", "Ron", "bottle", "1", "2", "")},
	}
	_, err := uc.ReceiveItems(context.Background(), "user-1", req)
	require.NoError(t, err)

	_, err = uc.ReceiveItems(context.Background(), "user-1", req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Len(t, s.headers, 1, "el duplicado no debe dejar una segunda cabecera")
	assert.Len(t, s.items, 1)
}

// Bodega inexistente: la FK falla al persistir y todo se revierte.
func TestReceiveItems_BodegaInexistente(t *testing.T) {
	s := newFakeStore()
	uc := newUseCase(s)

	_, err := uc.ReceiveItems(context.Background(), "user-1", dto.ReceiveRequest{
		ReceiveNo: "RCV-005",
		Warehouse: "wh-fantasma",
		Items:     []dto.ReceiveItemRequest{directItem("SKU-1", "Ron", "bottle", "1", "2", "")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidReference)
	assert.Empty(t, s.headers)
	assert.Empty(t, s.items)
}

// Atomicidad: si una línea falla a mitad del lote, no queda ni la cabecera ni
// las líneas anteriores.
func TestReceiveItems_FalloDeLineaRevierteTodo(t *testing.T) {
	s := newFakeStore()
	s.failItemCode = "SKU-ROTO"
	uc := newUseCase(s)

	_, err := uc.ReceiveItems(context.Background(), "user-1", dto.ReceiveRequest{
		ReceiveNo: "RCV-006",
		Warehouse: "wh-1",
		Items: []dto.ReceiveItemRequest{
			directItem("SKU-OK", "Vino", "bottle", "1", "2", ""),
			directItem("SKU-ROTO", "Roto", "box", "1", "2", ""),
		},
	})
	require.Error(t, err)
	assert.Empty(t, s.headers, "la cabecera debe revertirse")
	assert.Empty(t, s.items, "las líneas previas deben revertirse")
}

// totalAmount no numérico: error antes de persistir.
func TestReceiveItems_TotalAmountInvalido(t *testing.T) {
	s := newFakeStore()
	uc := newUseCase(s)

	_, err := uc.ReceiveItems(context.Background(), "user-1", dto.ReceiveRequest{
		ReceiveNo:   "RCV-007",
		Warehouse:   "wh-1",
		TotalAmount: json.RawMessage(`"no-es-numero"`),
		Items:       []dto.ReceiveItemRequest{directItem("SKU-1", "Ron", "bottle", "1", "2", "")},
	})
	require.Error(t, err)
	assert.Empty(t, s.headers)
}
