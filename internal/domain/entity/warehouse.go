package entity

import "time"

// Warehouse representa una bodega donde entra y sale mercancía.
type Warehouse struct {
	ID        string
	Name      string
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
