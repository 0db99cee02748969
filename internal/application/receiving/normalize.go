package receiving

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wilfies/wilfies-backend/internal/application/dto"
	"github.com/wilfies/wilfies-backend/internal/domain/entity"
)

// Line es una línea normalizada de recepción, lista para persistir.
// Un descriptor en forma directa produce exactamente una Line; uno en forma
// anidada produce una por cada tipo de unidad que traiga cantidad y precio.
type Line struct {
	SystemCode     string
	SupplierCode   string
	ItemType       string
	ItemName       string
	UnitType       string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	Amount         decimal.Decimal
	RequiresReturn bool
}

// Reject registra un descriptor descartado: índice dentro de items y la razón.
type Reject struct {
	Index  int
	Reason string
}

// shape clasificación de un descriptor de ítem.
type shape int

const (
	shapeUnknown shape = iota
	shapeDirect
	shapeNested
)

// classify decide la forma del descriptor antes de extraer datos. La prioridad
// es fija: directa primero, luego anidada. Un descriptor que no encaja en
// ninguna se rechaza en vez de caer silenciosamente en la rama equivocada.
func classify(in dto.ReceiveItemRequest) shape {
	if in.UnitType != "" && scalarPresent(in.Quantity) && scalarPresent(in.UnitPrice) {
		return shapeDirect
	}
	if isObject(in.Quantity) || isObject(in.SupplierPrice) {
		return shapeNested
	}
	return shapeUnknown
}

// Normalize clasifica y extrae cada descriptor. Un descriptor inválido se
// agrega a rejects y no afecta a los demás: la decisión aceptar/rechazar se
// toma aquí, antes de cualquier persistencia.
func Normalize(items []dto.ReceiveItemRequest) (lines []Line, rejects []Reject) {
	for i, item := range items {
		extracted, err := normalizeItem(item)
		if err != nil {
			rejects = append(rejects, Reject{Index: i, Reason: err.Error()})
			continue
		}
		lines = append(lines, extracted...)
	}
	return lines, rejects
}

func normalizeItem(in dto.ReceiveItemRequest) ([]Line, error) {
	switch classify(in) {
	case shapeDirect:
		line, err := normalizeDirect(in)
		if err != nil {
			return nil, err
		}
		return []Line{*line}, nil
	case shapeNested:
		return normalizeNested(in)
	default:
		return nil, fmt.Errorf("forma no reconocida: faltan unit_type/quantity/unit_price escalares y no hay mapas por tipo de unidad")
	}
}

// normalizeDirect extrae la forma directa: una sola línea con los escalares del
// descriptor. Amount se toma del caller tal cual (0 si falta); NO se recalcula
// como quantity × unit_price, a diferencia de la forma anidada.
func normalizeDirect(in dto.ReceiveItemRequest) (*Line, error) {
	if !entity.ValidUnitType(in.UnitType) {
		return nil, fmt.Errorf("unit_type inválido: %q", in.UnitType)
	}
	qty, err := parseDecimal(in.Quantity)
	if err != nil {
		return nil, fmt.Errorf("quantity: %v", err)
	}
	price, err := parseDecimal(in.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("unit_price: %v", err)
	}
	if qty.IsNegative() || price.IsNegative() {
		return nil, fmt.Errorf("quantity y unit_price deben ser >= 0")
	}
	amount := decimal.Zero
	if scalarPresent(in.Amount) {
		amount, err = parseDecimal(in.Amount)
		if err != nil {
			return nil, fmt.Errorf("amount: %v", err)
		}
	}
	return &Line{
		SystemCode:     in.SystemCode,
		SupplierCode:   in.SupplierCode,
		ItemType:       in.ItemType,
		ItemName:       in.ItemName,
		UnitType:       in.UnitType,
		Quantity:       qty,
		UnitPrice:      price,
		Amount:         amount,
		RequiresReturn: in.RequiresReturn,
	}, nil
}

// normalizeNested extrae la forma anidada: recorre los cuatro tipos de unidad
// en orden fijo (box, case, bottle, shell) y genera una línea por cada unidad
// que traiga cantidad y precio. Aquí amount sí se calcula como quantity × price.
func normalizeNested(in dto.ReceiveItemRequest) ([]Line, error) {
	qtys, err := unmarshalUnitMap(in.Quantity)
	if err != nil {
		return nil, fmt.Errorf("quantity: %v", err)
	}
	prices, err := unmarshalUnitMap(in.SupplierPrice)
	if err != nil {
		return nil, fmt.Errorf("supplierPrice: %v", err)
	}

	var lines []Line
	for _, unit := range entity.UnitTypes {
		q, qok := qtys[unit]
		p, pok := prices[unit]
		if !qok || !pok || !scalarPresent(q) || !scalarPresent(p) {
			continue
		}
		qty, err := parseDecimal(q)
		if err != nil {
			return nil, fmt.Errorf("quantity.%s: %v", unit, err)
		}
		price, err := parseDecimal(p)
		if err != nil {
			return nil, fmt.Errorf("supplierPrice.%s: %v", unit, err)
		}
		if qty.IsNegative() || price.IsNegative() {
			return nil, fmt.Errorf("%s: cantidad y precio deben ser >= 0", unit)
		}
		lines = append(lines, Line{
			SystemCode:     in.SystemCode,
			SupplierCode:   in.SupplierCode,
			ItemType:       in.ItemType,
			ItemName:       in.ItemName,
			UnitType:       unit,
			Quantity:       qty,
			UnitPrice:      price,
			Amount:         qty.Mul(price),
			RequiresReturn: in.RequiresReturn,
		})
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("ningún tipo de unidad trae cantidad y precio")
	}
	return lines, nil
}

// scalarPresent indica si el RawMessage trae un escalar utilizable: presente,
// no null, no string vacío y no objeto/array.
func scalarPresent(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) || bytes.Equal(t, []byte(`""`)) {
		return false
	}
	return t[0] != '{' && t[0] != '['
}

func isObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}

// parseDecimal acepta números JSON y strings numéricos ("12.5"): el cliente
// original envía indistintamente ambos.
func parseDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return decimal.Decimal{}, fmt.Errorf("valor ausente")
	}
	if t[0] == '"' {
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return decimal.Decimal{}, fmt.Errorf("string inválido")
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return decimal.Decimal{}, fmt.Errorf("valor vacío")
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("valor no numérico: %q", s)
		}
		return d, nil
	}
	d, err := decimal.NewFromString(string(t))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("valor no numérico: %s", t)
	}
	return d, nil
}

func unmarshalUnitMap(raw json.RawMessage) (map[string]json.RawMessage, error) {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return map[string]json.RawMessage{}, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(t, &m); err != nil {
		return nil, fmt.Errorf("se esperaba un objeto por tipo de unidad")
	}
	return m, nil
}
