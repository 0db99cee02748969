package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateTransactionRequest entrada del CRUD genérico de transacciones
// (los nombres de campo siguen el contrato REST original).
type CreateTransactionRequest struct {
	TransactionID   string                 `json:"transaction_id" validate:"required,min=1,max=255"`
	TransactionType string                 `json:"transaction_type" validate:"required,oneof=sale purchase transfer receive"`
	Warehouse       string                 `json:"warehouse" validate:"required"`
	Supplier        string                 `json:"supplier" validate:"omitempty,max=255"`
	TotalAmount     decimal.Decimal        `json:"total_amount"`
	Notes           string                 `json:"notes"`
	Items           []TransactionItemInput `json:"items" validate:"dive"`
}

// UpdateTransactionRequest entrada para actualizar una transacción.
// Si Items no es nil, reemplaza todas las líneas existentes.
type UpdateTransactionRequest struct {
	Supplier    *string                `json:"supplier" validate:"omitempty,max=255"`
	TotalAmount *decimal.Decimal       `json:"total_amount"`
	Notes       *string                `json:"notes"`
	Items       []TransactionItemInput `json:"items" validate:"omitempty,dive"`
}

// TransactionItemInput línea de transacción en el CRUD genérico.
type TransactionItemInput struct {
	ProductID      string          `json:"product" validate:"required"`
	SystemCode     string          `json:"system_code" validate:"omitempty,max=100"`
	SupplierCode   string          `json:"supplier_code" validate:"omitempty,max=100"`
	ItemType       string          `json:"item_type" validate:"omitempty,max=100"`
	ItemName       string          `json:"item_name" validate:"omitempty,max=255"`
	UnitType       string          `json:"unit_type" validate:"required,oneof=box case bottle shell"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Amount         decimal.Decimal `json:"amount"`
	RequiresReturn bool            `json:"requires_return"`
}

// TransactionItemResponse línea serializada de una transacción.
type TransactionItemResponse struct {
	ID             string          `json:"id"`
	Product        string          `json:"product"`
	SystemCode     string          `json:"system_code"`
	SupplierCode   string          `json:"supplier_code"`
	ItemType       string          `json:"item_type"`
	ItemName       string          `json:"item_name"`
	UnitType       string          `json:"unit_type"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Amount         decimal.Decimal `json:"amount"`
	RequiresReturn bool            `json:"requires_return"`
}

// TransactionResponse cabecera serializada con sus líneas anidadas.
type TransactionResponse struct {
	ID              string                    `json:"id"`
	TransactionID   string                    `json:"transaction_id"`
	TransactionType string                    `json:"transaction_type"`
	Warehouse       string                    `json:"warehouse"`
	User            string                    `json:"user"`
	Supplier        string                    `json:"supplier,omitempty"`
	TotalAmount     decimal.Decimal           `json:"total_amount"`
	Timestamp       time.Time                 `json:"timestamp"`
	Notes           string                    `json:"notes,omitempty"`
	Items           []TransactionItemResponse `json:"items"`
}

// TransactionListResponse listado paginado de transacciones (sin líneas).
type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}
