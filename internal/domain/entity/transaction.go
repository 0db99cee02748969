package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción.
const (
	TransactionTypeSale     = "sale"
	TransactionTypePurchase = "purchase"
	TransactionTypeTransfer = "transfer"
	TransactionTypeReceive  = "receive"
)

// Tipos de unidad para las líneas de una transacción.
const (
	UnitTypeBox    = "box"
	UnitTypeCase   = "case"
	UnitTypeBottle = "bottle"
	UnitTypeShell  = "shell"
)

// UnitTypes orden fijo en que la forma anidada de recepción recorre las unidades.
var UnitTypes = []string{UnitTypeBox, UnitTypeCase, UnitTypeBottle, UnitTypeShell}

// ValidTransactionType verifica el tipo de transacción.
func ValidTransactionType(t string) bool {
	switch t {
	case TransactionTypeSale, TransactionTypePurchase, TransactionTypeTransfer, TransactionTypeReceive:
		return true
	}
	return false
}

// ValidUnitType verifica el tipo de unidad.
func ValidUnitType(t string) bool {
	switch t {
	case UnitTypeBox, UnitTypeCase, UnitTypeBottle, UnitTypeShell:
		return true
	}
	return false
}

// Transaction cabecera de un movimiento de inventario (venta, compra, traslado o recepción).
// TransactionID es el identificador externo (ej. número de recibo) y es único global.
// Se crea de forma atómica junto con sus líneas.
type Transaction struct {
	ID            string
	TransactionID string
	Type          string
	WarehouseID   string
	UserID        string
	Supplier      string
	TotalAmount   decimal.Decimal
	Timestamp     time.Time // asignado por el servidor, inmutable
	Notes         string
}

// TransactionItem línea de una transacción. Pertenece a exactamente una Transaction
// (se borra en cascada con la cabecera). Los campos descriptivos son un snapshot
// tomado al momento de la recepción aunque exista la referencia viva a Product.
type TransactionItem struct {
	ID             string
	TransactionID  string // FK a Transaction.ID
	ProductID      string
	LineNo         int // posición de la línea dentro de la transacción (orden de inserción)
	SystemCode     string
	SupplierCode   string
	ItemType       string
	ItemName       string
	UnitType       string // box, case, bottle, shell
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	Amount         decimal.Decimal
	RequiresReturn bool // la unidad debe devolverse (envase con depósito)
}
