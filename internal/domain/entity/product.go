package entity

import "time"

// DefaultProductName nombre asignado a productos creados durante la recepción
// cuando el descriptor no trae item_name.
const DefaultProductName = "Unknown Product"

// Product representa un producto del inventario. SystemCode es la llave natural
// para el upsert durante la recepción: a lo sumo un Product por system_code
// (constraint único en la tabla; un insert en conflicto se resuelve a la fila existente).
type Product struct {
	ID          string
	SystemCode  string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
