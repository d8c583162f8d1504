package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"campo,omitempty"`
}

type shortageResponse struct {
	Error     string            `json:"error"`
	Shortages []domain.Shortage `json:"faltantes"`
}

type productInUseResponse struct {
	Error    string   `json:"error"`
	Packages []string `json:"paquetes"`
}

// writeError maps domain errors to responses. Anything unknown is logged and
// answered with a generic message.
func writeError(c *gin.Context, err error) {
	var (
		validation *domain.ValidationError
		inUse      *domain.ProductInUseError
	)

	if shortage, ok := domain.AsInsufficientStock(err); ok {
		c.JSON(http.StatusConflict, shortageResponse{
			Error:     "No hay suficiente stock",
			Shortages: shortage.Shortages,
		})
		return
	}

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: validation.Message, Field: validation.Field})
	case errors.As(err, &inUse):
		codes := make([]string, 0, len(inUse.PackageIDs))
		for _, id := range inUse.PackageIDs {
			codes = append(codes, domain.PackageCode(id))
		}
		c.JSON(http.StatusConflict, productInUseResponse{
			Error: "No se puede eliminar el producto '" + inUse.ProductName +
				"' porque está siendo usado en paquetes. Elimina primero esos paquetes.",
			Packages: codes,
		})
	case errors.Is(err, domain.ErrNotFound):
		// volver al catálogo
		c.Redirect(http.StatusSeeOther, "/api/products")
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, errorResponse{Error: "acceso denegado"})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, errorResponse{Error: "el paquete no admite esta operación en su estado actual"})
	case errors.Is(err, domain.ErrStockConflict):
		c.JSON(http.StatusConflict, errorResponse{Error: "el inventario cambió, intenta de nuevo"})
	case errors.Is(err, domain.ErrReferenced):
		c.JSON(http.StatusConflict, errorResponse{Error: "el registro está en uso"})
	default:
		log.Printf("HTTP %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
