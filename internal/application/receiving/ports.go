package receiving

import (
	"context"

	"github.com/wilfies/wilfies-backend/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Cabecera, upserts de producto y líneas se
// confirman juntos o no quedan visibles en absoluto.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		transactionRepo repository.TransactionRepository,
		productRepo repository.ProductRepository,
	) error) error
}
