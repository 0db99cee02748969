package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	pkgerrors "github.com/pkg/errors"
	"github.com/wilfies/wilfies-backend/internal/application/dto"
	"github.com/wilfies/wilfies-backend/internal/application/receiving"
	"github.com/wilfies/wilfies-backend/internal/domain"
	"github.com/wilfies/wilfies-backend/pkg/logger"
)

// ReceivingHandler maneja la ingesta de recepciones de mercancía.
type ReceivingHandler struct {
	uc  *receiving.ReceiveUseCase
	log *logger.Logger
}

// NewReceivingHandler construye el handler.
func NewReceivingHandler(uc *receiving.ReceiveUseCase, log *logger.Logger) *ReceivingHandler {
	return &ReceivingHandler{uc: uc, log: log}
}

// ReceiveItems godoc
// @Summary      Ingresar recepción de mercancía
// @Description  Crea la transacción de recepción con sus líneas; los productos
// @Description  se crean/resuelven por systemCode. Los descriptores inválidos
// @Description  se reportan en `rejected` sin abortar el lote.
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveRequest  true  "Recepción"
// @Success      201   {object}  dto.ReceiveResponse
// @Failure      400   {object}  dto.ReceiveErrorResponse
// @Router       /api/transactions/receive_items/ [post]
func (h *ReceivingHandler) ReceiveItems(c *fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return h.fail(c, domain.ErrMissingPayload)
	}
	var in dto.ReceiveRequest
	if err := c.BodyParser(&in); err != nil {
		return h.fail(c, pkgerrors.Wrap(err, "invalid json body"))
	}
	out, err := h.uc.ReceiveItems(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// fail responde 400 con {error, traceback}. El contrato del endpoint colapsa
// todos los fallos (payload vacío, bodega faltante, receiveNo duplicado,
// referencia colgante) en un solo código de estado; el campo error distingue
// la causa.
func (h *ReceivingHandler) fail(c *fiber.Ctx, err error) error {
	withStack := pkgerrors.WithStack(err)
	h.log.Error().
		Stack().
		Err(withStack).
		Str("path", c.Path()).
		Msg("recepción rechazada")
	return c.Status(fiber.StatusBadRequest).JSON(dto.ReceiveErrorResponse{
		Error:     err.Error(),
		Traceback: fmt.Sprintf("%+v", withStack),
	})
}
