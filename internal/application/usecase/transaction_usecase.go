package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wilfies/wilfies-backend/internal/application/dto"
	"github.com/wilfies/wilfies-backend/internal/application/receiving"
	"github.com/wilfies/wilfies-backend/internal/domain"
	"github.com/wilfies/wilfies-backend/internal/domain/entity"
	"github.com/wilfies/wilfies-backend/internal/domain/repository"
)

// TransactionUseCase CRUD genérico de transacciones. Las escrituras que tocan
// cabecera y líneas pasan por el TxRunner para ser atómicas; las lecturas van
// directo al repo ligado al pool.
type TransactionUseCase struct {
	repo     repository.TransactionRepository
	txRunner receiving.TxRunner
}

// NewTransactionUseCase construye el caso de uso.
func NewTransactionUseCase(repo repository.TransactionRepository, txRunner receiving.TxRunner) *TransactionUseCase {
	return &TransactionUseCase{repo: repo, txRunner: txRunner}
}

// Create crea una transacción con sus líneas en una sola transacción de BD.
// Los productos de las líneas deben existir (se referencian por ID).
func (uc *TransactionUseCase) Create(ctx context.Context, userID string, in dto.CreateTransactionRequest) (*dto.TransactionResponse, error) {
	now := time.Now()
	txn := &entity.Transaction{
		ID:            uuid.New().String(),
		TransactionID: in.TransactionID,
		Type:          in.TransactionType,
		WarehouseID:   in.Warehouse,
		UserID:        userID,
		Supplier:      in.Supplier,
		TotalAmount:   in.TotalAmount,
		Timestamp:     now,
		Notes:         in.Notes,
	}
	items := buildItems(txn.ID, in.Items)

	err := uc.txRunner.Run(ctx, func(
		transactionRepo repository.TransactionRepository,
		_ repository.ProductRepository,
	) error {
		if err := transactionRepo.Create(txn); err != nil {
			return err
		}
		for _, item := range items {
			if err := transactionRepo.CreateItem(item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toTransactionResponse(txn, items), nil
}

// GetByID obtiene una transacción con sus líneas. Un usuario no admin solo
// puede ver las suyas.
func (uc *TransactionUseCase) GetByID(id, userID, role string) (*dto.TransactionResponse, error) {
	txn, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, nil
	}
	if role != entity.RoleAdmin && txn.UserID != userID {
		return nil, domain.ErrForbidden
	}
	items, err := uc.repo.ListItems(txn.ID)
	if err != nil {
		return nil, err
	}
	return toTransactionResponse(txn, items), nil
}

// List lista transacciones paginadas: los admins ven todas, el resto solo las propias.
func (uc *TransactionUseCase) List(userID, role string, limit, offset int) (*dto.TransactionListResponse, error) {
	var list []*entity.Transaction
	var err error
	if role == entity.RoleAdmin {
		list, err = uc.repo.List(limit, offset)
	} else {
		list, err = uc.repo.ListByUser(userID, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	items := make([]dto.TransactionResponse, 0, len(list))
	for _, t := range list {
		items = append(items, *toTransactionResponse(t, nil))
	}
	return &dto.TransactionListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Update actualiza la cabecera y, si llegan líneas, las reemplaza todas.
// Cabecera y líneas se escriben en una sola transacción de BD.
func (uc *TransactionUseCase) Update(ctx context.Context, id, userID, role string, in dto.UpdateTransactionRequest) (*dto.TransactionResponse, error) {
	txn, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, nil
	}
	if role != entity.RoleAdmin && txn.UserID != userID {
		return nil, domain.ErrForbidden
	}
	if in.Supplier != nil {
		txn.Supplier = *in.Supplier
	}
	if in.TotalAmount != nil {
		txn.TotalAmount = *in.TotalAmount
	}
	if in.Notes != nil {
		txn.Notes = *in.Notes
	}

	var items []*entity.TransactionItem
	err = uc.txRunner.Run(ctx, func(
		transactionRepo repository.TransactionRepository,
		_ repository.ProductRepository,
	) error {
		if err := transactionRepo.Update(txn); err != nil {
			return err
		}
		if in.Items == nil {
			var err error
			items, err = transactionRepo.ListItems(txn.ID)
			return err
		}
		if err := transactionRepo.DeleteItems(txn.ID); err != nil {
			return err
		}
		items = buildItems(txn.ID, in.Items)
		for _, item := range items {
			if err := transactionRepo.CreateItem(item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toTransactionResponse(txn, items), nil
}

// Delete elimina una transacción; las líneas caen en cascada.
func (uc *TransactionUseCase) Delete(id, userID, role string) error {
	txn, err := uc.repo.GetByID(id)
	if err != nil {
		return err
	}
	if txn == nil {
		return domain.ErrNotFound
	}
	if role != entity.RoleAdmin && txn.UserID != userID {
		return domain.ErrForbidden
	}
	return uc.repo.Delete(id)
}

func buildItems(transactionID string, inputs []dto.TransactionItemInput) []*entity.TransactionItem {
	items := make([]*entity.TransactionItem, 0, len(inputs))
	for i, in := range inputs {
		items = append(items, &entity.TransactionItem{
			ID:             uuid.New().String(),
			TransactionID:  transactionID,
			ProductID:      in.ProductID,
			LineNo:         i,
			SystemCode:     in.SystemCode,
			SupplierCode:   in.SupplierCode,
			ItemType:       in.ItemType,
			ItemName:       in.ItemName,
			UnitType:       in.UnitType,
			Quantity:       in.Quantity,
			UnitPrice:      in.UnitPrice,
			Amount:         in.Amount,
			RequiresReturn: in.RequiresReturn,
		})
	}
	return items
}

func toTransactionResponse(t *entity.Transaction, items []*entity.TransactionItem) *dto.TransactionResponse {
	if t == nil {
		return nil
	}
	out := &dto.TransactionResponse{
		ID:              t.ID,
		TransactionID:   t.TransactionID,
		TransactionType: t.Type,
		Warehouse:       t.WarehouseID,
		User:            t.UserID,
		Supplier:        t.Supplier,
		TotalAmount:     t.TotalAmount,
		Timestamp:       t.Timestamp,
		Notes:           t.Notes,
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
