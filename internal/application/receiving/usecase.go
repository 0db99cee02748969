package receiving

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wilfies/wilfies-backend/internal/application/dto"
	"github.com/wilfies/wilfies-backend/internal/domain"
	"github.com/wilfies/wilfies-backend/internal/domain/entity"
	"github.com/wilfies/wilfies-backend/internal/domain/repository"
	"github.com/wilfies/wilfies-backend/pkg/logger"
)

// ReceiveUseCase procesa la ingesta de recepciones: normaliza los descriptores
// (forma directa o anidada), resuelve productos por system_code y persiste
// cabecera + líneas en una sola transacción.
type ReceiveUseCase struct {
	txRunner TxRunner
	log      *logger.Logger
}

// NewReceiveUseCase construye el caso de uso.
func NewReceiveUseCase(txRunner TxRunner, log *logger.Logger) *ReceiveUseCase {
	return &ReceiveUseCase{txRunner: txRunner, log: log}
}

// ReceiveItems ingesta una recepción completa.
//
// La decisión aceptar/rechazar por descriptor se toma ANTES de abrir la
// transacción; dentro de ella todo es o-todo-o-nada. Un descriptor rechazado
// se reporta en la respuesta y nunca aborta el lote; un fallo de persistencia
// (receiveNo duplicado, bodega inexistente) sí aborta sin dejar cabecera
// visible. La existencia de la bodega no se valida aquí: una referencia
// colgante falla en la FK al persistir.
func (uc *ReceiveUseCase) ReceiveItems(ctx context.Context, userID string, in dto.ReceiveRequest) (*dto.ReceiveResponse, error) {
	if in.ReceiveNo == "" && in.Warehouse == "" && len(in.Items) == 0 {
		return nil, domain.ErrMissingPayload
	}
	if in.Warehouse == "" {
		return nil, domain.ErrMissingWarehouse
	}

	lines, rejects := Normalize(in.Items)
	for _, rej := range rejects {
		uc.log.Warn().
			Str("receive_no", in.ReceiveNo).
			Int("item_index", rej.Index).
			Str("reason", rej.Reason).
			Msg("descriptor de ítem rechazado en recepción")
	}

	totalAmount := decimal.Zero
	if scalarPresent(in.TotalAmount) {
		parsed, err := parseDecimal(in.TotalAmount)
		if err != nil {
			return nil, fmt.Errorf("totalAmount: %w", err)
		}
		totalAmount = parsed
	}

	now := time.Now()
	txn := &entity.Transaction{
		ID:            uuid.New().String(),
		TransactionID: in.ReceiveNo,
		Type:          entity.TransactionTypeReceive,
		WarehouseID:   in.Warehouse,
		UserID:        userID,
		Supplier:      in.Supplier,
		TotalAmount:   totalAmount,
		Timestamp:     now,
		Notes:         in.Remarks,
	}

	items := make([]*entity.TransactionItem, 0, len(lines))
	err := uc.txRunner.Run(ctx, func(
		transactionRepo repository.TransactionRepository,
		productRepo repository.ProductRepository,
	) error {
		if err := transactionRepo.Create(txn); err != nil {
			return fmt.Errorf("crear cabecera de recepción: %w", err)
		}
		for i, line := range lines {
			product, err := uc.resolveProduct(productRepo, line, now)
			if err != nil {
				return fmt.Errorf("resolver producto %q: %w", line.SystemCode, err)
			}
			item := &entity.TransactionItem{
				ID:             uuid.New().String(),
				TransactionID:  txn.ID,
				ProductID:      product.ID,
				LineNo:         i,
				SystemCode:     line.SystemCode,
				SupplierCode:   line.SupplierCode,
				ItemType:       line.ItemType,
				ItemName:       line.ItemName,
				UnitType:       line.UnitType,
				Quantity:       line.Quantity,
				UnitPrice:      line.UnitPrice,
				Amount:         line.Amount,
				RequiresReturn: line.RequiresReturn,
			}
			if err := transactionRepo.CreateItem(item); err != nil {
				return fmt.Errorf("crear línea de recepción: %w", err)
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("receive_no", in.ReceiveNo).
		Str("warehouse_id", in.Warehouse).
		Int("accepted", len(items)).
		Int("rejected", len(rejects)).
		Msg("recepción ingresada")

	resp := &dto.ReceiveResponse{
		TransactionResponse: toTransactionResponse(txn, items),
		Rejected:            toRejectedResponses(rejects),
	}
	return resp, nil
}

// resolveProduct hace el upsert por system_code: una vez por línea, sin caché
// dentro de la petición. El repo resuelve un insert en conflicto a la fila
// existente, así que la redundancia solo cuesta lecturas.
func (uc *ReceiveUseCase) resolveProduct(productRepo repository.ProductRepository, line Line, now time.Time) (*entity.Product, error) {
	name := line.ItemName
	if name == "" {
		name = entity.DefaultProductName
	}
	desc := "Producto creado automáticamente en recepción"
	if line.ItemType != "" {
		desc = fmt.Sprintf("%s (tipo %s)", desc, line.ItemType)
	}
	candidate := &entity.Product{
		ID:          uuid.New().String(),
		SystemCode:  line.SystemCode,
		Name:        name,
		Description: desc,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return productRepo.GetOrCreateBySystemCode(candidate)
}

func toTransactionResponse(txn *entity.Transaction, items []*entity.TransactionItem) dto.TransactionResponse {
	out := dto.TransactionResponse{
		ID:              txn.ID,
		TransactionID:   txn.TransactionID,
		TransactionType: txn.Type,
		Warehouse:       txn.WarehouseID,
		User:            txn.UserID,
		Supplier:        txn.Supplier,
		TotalAmount:     txn.TotalAmount,
		Timestamp:       txn.Timestamp,
		Notes:           txn.Notes,
		Items:           make([]dto.TransactionItemResponse, 0, len(items)),
	}
	for _, it := range items {
		out.Items = append(out.Items, dto.TransactionItemResponse{
			ID:             it.ID,
			Product:        it.ProductID,
			SystemCode:     it.SystemCode,
			SupplierCode:   it.SupplierCode,
			ItemType:       it.ItemType,
			ItemName:       it.ItemName,
			UnitType:       it.UnitType,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			Amount:         it.Amount,
			RequiresReturn: it.RequiresReturn,
		})
	}
	return out
}

func toRejectedResponses(rejects []Reject) []dto.RejectedItemResponse {
	out := make([]dto.RejectedItemResponse, 0, len(rejects))
	for _, r := range rejects {
		out = append(out, dto.RejectedItemResponse{Index: r.Index, Reason: r.Reason})
	}
	return out
}
