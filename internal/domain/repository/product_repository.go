package repository

import "github.com/wilfies/wilfies-backend/internal/domain/entity"

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetBySystemCode(systemCode string) (*entity.Product, error)
	// GetOrCreateBySystemCode busca por system_code y crea el producto si no existe.
	// Ante un insert en conflicto (otra petición lo creó primero) devuelve la fila existente.
	GetOrCreateBySystemCode(product *entity.Product) (*entity.Product, error)
	Update(product *entity.Product) error
	List(limit, offset int) ([]*entity.Product, error)
	Delete(id string) error
}
