package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/wilfies/wilfies-backend/internal/domain"
	"github.com/wilfies/wilfies-backend/internal/domain/entity"
	"github.com/wilfies/wilfies-backend/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo implementación del puerto TransactionRepository sobre PostgreSQL (usable con pool o tx).
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

// Create persiste la cabecera. domain.ErrDuplicate si el transaction_id externo
// ya existe; domain.ErrInvalidReference si la bodega o el usuario no existen.
func (r *TransactionRepo) Create(t *entity.Transaction) error {
	query := `
		INSERT INTO transactions (id, transaction_id, transaction_type, warehouse_id, user_id, supplier, total_amount, timestamp, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		t.ID, t.TransactionID, t.Type, t.WarehouseID, t.UserID,
		nullIfEmpty(t.Supplier), t.TotalAmount, t.Timestamp, nullIfEmpty(t.Notes),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("warehouse o user inexistente: %w", domain.ErrInvalidReference)
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// CreateItem persiste una línea de la transacción.
func (r *TransactionRepo) CreateItem(item *entity.TransactionItem) error {
	query := `
		INSERT INTO transaction_items (id, transaction_id, product_id, line_no, system_code, supplier_code, item_type, item_name, unit_type, quantity, unit_price, amount, requires_return)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.TransactionID, item.ProductID, item.LineNo,
		nullIfEmpty(item.SystemCode), nullIfEmpty(item.SupplierCode),
		nullIfEmpty(item.ItemType), nullIfEmpty(item.ItemName),
		item.UnitType, item.Quantity, item.UnitPrice, item.Amount, item.RequiresReturn,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("producto o transacción inexistente: %w", domain.ErrInvalidReference)
		}
		return fmt.Errorf("insert transaction item: %w", err)
	}
	return nil
}

// GetByID obtiene una transacción por su ID interno.
func (r *TransactionRepo) GetByID(id string) (*entity.Transaction, error) {
	return r.getOne(`SELECT id, transaction_id, transaction_type, warehouse_id, user_id,
		COALESCE(supplier, ''), total_amount, timestamp, COALESCE(notes, '')
		FROM transactions WHERE id = $1`, id)
}

// GetByTransactionID obtiene una transacción por su identificador externo.
func (r *TransactionRepo) GetByTransactionID(transactionID string) (*entity.Transaction, error) {
	return r.getOne(`SELECT id, transaction_id, transaction_type, warehouse_id, user_id,
		COALESCE(supplier, ''), total_amount, timestamp, COALESCE(notes, '')
		FROM transactions WHERE transaction_id = $1`, transactionID)
}

// ListItems lista las líneas de una transacción en su orden de inserción.
func (r *TransactionRepo) ListItems(transactionID string) ([]*entity.TransactionItem, error) {
	query := `
		SELECT id, transaction_id, product_id, line_no, COALESCE(system_code, ''), COALESCE(supplier_code, ''),
			COALESCE(item_type, ''), COALESCE(item_name, ''), unit_type, quantity, unit_price, amount, requires_return
		FROM transaction_items WHERE transaction_id = $1 ORDER BY line_no`
	rows, err := r.q.Query(context.Background(), query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list transaction items: %w", err)
	}
	defer rows.Close()
	var list []*entity.TransactionItem
	for rows.Next() {
		var it entity.TransactionItem
		if err := rows.Scan(&it.ID, &it.TransactionID, &it.ProductID, &it.LineNo, &it.SystemCode, &it.SupplierCode,
			&it.ItemType, &it.ItemName, &it.UnitType, &it.Quantity, &it.UnitPrice, &it.Amount, &it.RequiresReturn); err != nil {
			return nil, fmt.Errorf("scan transaction item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// List lista transacciones con paginación (todas, para admins).
func (r *TransactionRepo) List(limit, offset int) ([]*entity.Transaction, error) {
	return r.list(`SELECT id, transaction_id, transaction_type, warehouse_id, user_id,
		COALESCE(supplier, ''), total_amount, timestamp, COALESCE(notes, '')
		FROM transactions ORDER BY timestamp DESC LIMIT $1 OFFSET $2`, limit, offset)
}

// ListByUser lista transacciones creadas por un usuario con paginación.
func (r *TransactionRepo) ListByUser(userID string, limit, offset int) ([]*entity.Transaction, error) {
	return r.list(`SELECT id, transaction_id, transaction_type, warehouse_id, user_id,
		COALESCE(supplier, ''), total_amount, timestamp, COALESCE(notes, '')
		FROM transactions WHERE user_id = $1 ORDER BY timestamp DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
}

// Update actualiza los campos mutables de la cabecera (timestamp es inmutable).
func (r *TransactionRepo) Update(t *entity.Transaction) error {
	query := `
		UPDATE transactions SET supplier = $2, total_amount = $3, notes = $4
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		t.ID, nullIfEmpty(t.Supplier), t.TotalAmount, nullIfEmpty(t.Notes),
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

// DeleteItems borra todas las líneas de una transacción (usado al reemplazar líneas en update).
func (r *TransactionRepo) DeleteItems(transactionID string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM transaction_items WHERE transaction_id = $1`, transactionID)
	if err != nil {
		return fmt.Errorf("delete transaction items: %w", err)
	}
	return nil
}

// Delete elimina una transacción; las líneas caen en cascada.
func (r *TransactionRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepo) getOne(query string, arg any) (*entity.Transaction, error) {
	var t entity.Transaction
	err := r.q.QueryRow(context.Background(), query, arg).Scan(
		&t.ID, &t.TransactionID, &t.Type, &t.WarehouseID, &t.UserID,
		&t.Supplier, &t.TotalAmount, &t.Timestamp, &t.Notes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &t, nil
}

func (r *TransactionRepo) list(query string, args ...any) ([]*entity.Transaction, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	var list []*entity.Transaction
	for rows.Next() {
		var t entity.Transaction
		if err := rows.Scan(&t.ID, &t.TransactionID, &t.Type, &t.WarehouseID, &t.UserID,
			&t.Supplier, &t.TotalAmount, &t.Timestamp, &t.Notes); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
