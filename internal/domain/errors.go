package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrInvalidReference   = errors.New("referencia inexistente")
)

// Errores de validación del flujo de recepción. Los mensajes van tal cual en el
// campo `error` de la respuesta, por eso se mantienen en inglés.
var (
	ErrMissingPayload   = errors.New("missing payload")
	ErrMissingWarehouse = errors.New("missing warehouse")
)
