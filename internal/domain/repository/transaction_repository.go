package repository

import "github.com/wilfies/wilfies-backend/internal/domain/entity"

// TransactionRepository define el puerto de persistencia para Transaction y sus líneas (DIP).
type TransactionRepository interface {
	// Create persiste la cabecera. Devuelve domain.ErrDuplicate si el
	// transaction_id externo ya existe, y domain.ErrInvalidReference si la
	// bodega o el usuario referenciados no existen.
	Create(transaction *entity.Transaction) error
	CreateItem(item *entity.TransactionItem) error
	GetByID(id string) (*entity.Transaction, error)
	GetByTransactionID(transactionID string) (*entity.Transaction, error)
	ListItems(transactionID string) ([]*entity.TransactionItem, error)
	List(limit, offset int) ([]*entity.Transaction, error)
	ListByUser(userID string, limit, offset int) ([]*entity.Transaction, error)
	Update(transaction *entity.Transaction) error
	DeleteItems(transactionID string) error
	Delete(id string) error
}
