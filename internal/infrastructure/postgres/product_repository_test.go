package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wilfies/wilfies-backend/internal/domain/entity"
)

// fakeRow implementa pgx.Row con una función de scan inyectada.
type fakeRow struct{ scan func(dest ...any) error }

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

// upsertQuerier emula el comportamiento de Postgres relevante para el upsert de
// productos: selects que encuentran (o no) la fila y un insert con ON CONFLICT
// DO NOTHING cuyo resultado se controla con insertAffected. Si el SQL del
// insert no trae la cláusula ON CONFLICT, devuelve 23505 y marca la transacción
// como abortada (todo statement posterior falla con 25P02), igual que haría el
// servidor ante una violación de constraint único dentro de una transacción.
type upsertQuerier struct {
	existing        *entity.Product // fila visible en los selects (nil: no existe)
	missFirstSelect bool            // el primer select no ve la fila (carrera con otra tx)
	insertAffected  int64           // filas afectadas por el insert

	selects int
	execs   int
	aborted bool
	lastSQL string
}

func (q *upsertQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.execs++
	q.lastSQL = sql
	if q.aborted {
		return pgconn.CommandTag{}, &pgconn.PgError{Code: "25P02", Message: "current transaction is aborted, commands ignored until end of transaction block"}
	}
	if !containsOnConflict(sql) && q.existing != nil {
		q.aborted = true
		return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	}
	if q.insertAffected == 1 {
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.NewCommandTag("INSERT 0 0"), nil
}

func (q *upsertQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("Query no se usa en el upsert de productos")
}

func (q *upsertQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.selects++
	if q.aborted {
		return fakeRow{scan: func(dest ...any) error {
			return &pgconn.PgError{Code: "25P02", Message: "current transaction is aborted, commands ignored until end of transaction block"}
		}}
	}
	if q.existing == nil || (q.missFirstSelect && q.selects == 1) {
		return fakeRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
	}
	p := q.existing
	return fakeRow{scan: func(dest ...any) error {
		*dest[0].(*string) = p.ID
		*dest[1].(*string) = p.SystemCode
		*dest[2].(*string) = p.Name
		*dest[3].(*string) = p.Description
		*dest[4].(*time.Time) = p.CreatedAt
		*dest[5].(*time.Time) = p.UpdatedAt
		return nil
	}}
}

func containsOnConflict(sql string) bool {
	return strings.Contains(sql, "ON CONFLICT")
}

func candidateProduct(systemCode string) *entity.Product {
	now := time.Now()
	return &entity.Product{
		ID:          "prod-candidato",
		SystemCode:  systemCode,
		Name:        "Ron Añejo",
		Description: "Producto creado automáticamente en recepción",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Carrera con otra transacción: el select inicial no ve la fila, el insert
// llega en conflicto (0 filas afectadas) y el upsert debe resolver a la fila
// existente sin abortar la transacción en curso.
func TestGetOrCreateBySystemCode_ConflictoConcurrenteResuelveAFilaExistente(t *testing.T) {
	existing := &entity.Product{
		ID:         "prod-existente",
		SystemCode: "SKU-1",
		Name:       "Ron Añejo",
	}
	q := &upsertQuerier{existing: existing, missFirstSelect: true, insertAffected: 0}
	repo := NewProductRepository(q)

	got, err := repo.GetOrCreateBySystemCode(candidateProduct("SKU-1"))
	require.NoError(t, err, "el conflicto debe resolverse, no propagarse como error fatal")
	require.NotNil(t, got)

	assert.Equal(t, "prod-existente", got.ID, "debe devolverse la fila que ganó el insert")
	assert.Contains(t, q.lastSQL, "ON CONFLICT (system_code) DO NOTHING",
		"el insert debe ser libre de conflicto para no abortar la transacción")
	assert.False(t, q.aborted, "la transacción no debe quedar abortada")
	assert.Equal(t, 1, q.execs)
	assert.Equal(t, 2, q.selects, "select inicial + select de resolución")
}

// Sin conflicto: el producto no existe y el insert lo crea.
func TestGetOrCreateBySystemCode_CreaCuandoNoExiste(t *testing.T) {
	q := &upsertQuerier{existing: nil, insertAffected: 1}
	repo := NewProductRepository(q)

	candidate := candidateProduct("SKU-NUEVO")
	got, err := repo.GetOrCreateBySystemCode(candidate)
	require.NoError(t, err)
	assert.Equal(t, candidate.ID, got.ID)
	assert.Equal(t, 1, q.execs)
	assert.Equal(t, 1, q.selects, "no hace falta select de resolución")
}

// El producto ya existe: un solo select, ningún insert.
func TestGetOrCreateBySystemCode_ExistenteNoInserta(t *testing.T) {
	existing := &entity.Product{ID: "prod-existente", SystemCode: "SKU-1", Name: "Cerveza"}
	q := &upsertQuerier{existing: existing}
	repo := NewProductRepository(q)

	got, err := repo.GetOrCreateBySystemCode(candidateProduct("SKU-1"))
	require.NoError(t, err)
	assert.Equal(t, "prod-existente", got.ID)
	assert.Equal(t, 0, q.execs, "no debe intentarse ningún insert")
	assert.Equal(t, 1, q.selects)
}
