package dto

import "encoding/json"

// ReceiveRequest body de POST /api/transactions/receive_items/.
// TotalAmount llega como número o como string ("123.45"), por eso RawMessage.
type ReceiveRequest struct {
	ReceiveNo   string               `json:"receiveNo"`
	Warehouse   string               `json:"warehouse"`
	Supplier    string               `json:"supplier"`
	TotalAmount json.RawMessage      `json:"totalAmount"`
	Remarks     string               `json:"remarks"`
	Items       []ReceiveItemRequest `json:"items"`
}

// ReceiveItemRequest descriptor de ítem en una recepción. Admite dos formas:
//
//   - directa:  unit_type, quantity y unit_price escalares. Amount se toma del
//     caller tal cual (no se recalcula; comportamiento heredado del contrato
//     original) y por defecto es 0.
//   - anidada:  quantity y supplierPrice son mapas por tipo de unidad
//     (box, case, bottle, shell); amount se calcula quantity × price por unidad.
//
// quantity es escalar en una forma y objeto en la otra: RawMessage permite que
// la clasificación decida de forma explícita en lugar de adivinar por truthiness.
type ReceiveItemRequest struct {
	SystemCode     string          `json:"systemCode"`
	SupplierCode   string          `json:"supplierCode"`
	ItemType       string          `json:"itemType"`
	ItemName       string          `json:"itemName"`
	UnitType       string          `json:"unit_type"`
	Quantity       json.RawMessage `json:"quantity"`
	UnitPrice      json.RawMessage `json:"unit_price"`
	Amount         json.RawMessage `json:"amount"`
	SupplierPrice  json.RawMessage `json:"supplierPrice"`
	RequiresReturn bool            `json:"requiresReturn"`
}

// RejectedItemResponse descriptor rechazado durante la normalización: índice en
// el array items de la petición y la razón. Un ítem rechazado nunca aborta el lote.
type RejectedItemResponse struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ReceiveResponse respuesta 201: la transacción serializada con sus líneas más
// la lista de descriptores rechazados (vacía cuando todos fueron aceptados).
type ReceiveResponse struct {
	TransactionResponse
	Rejected []RejectedItemResponse `json:"rejected"`
}

// ReceiveErrorResponse cuerpo de error del endpoint de recepción: mensaje y
// traza de diagnóstico.
type ReceiveErrorResponse struct {
	Error     string `json:"error"`
	Traceback string `json:"traceback"`
}
