package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/application"
	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

type packageResponse struct {
	Code string `json:"codigo"`
	domain.Package
}

func toPackageResponse(p *domain.Package) packageResponse {
	return packageResponse{Code: domain.PackageCode(p.ID), Package: *p}
}

// Body JSON alternativo al campo de formulario productos_data.
type generateRequest struct {
	Products []application.SelectionItem `json:"productos"`
}

// POST /api/packages/generate
func (s *Server) handleGeneratePackage(c *gin.Context) {
	var selection []application.SelectionItem

	if raw := c.PostForm("productos_data"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &selection); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "productos_data inválido", Field: "productos_data"})
			return
		}
	} else if strings.HasPrefix(c.ContentType(), "application/json") {
		var req generateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "cuerpo inválido"})
			return
		}
		selection = req.Products
	} else {
		// sin selección: de vuelta al catálogo
		c.Redirect(http.StatusSeeOther, "/api/products")
		return
	}

	draft, err := s.packages.Generate(c.Request.Context(), actorFrom(c), selection)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPackageResponse(draft))
}

// POST /api/packages/:id/confirm
func (s *Server) handleConfirmPackage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	pkg, err := s.packages.Confirm(c.Request.Context(), actorFrom(c), id, c.PostForm("sucursal"))
	if err != nil {
		var validation *domain.ValidationError
		if errors.As(err, &validation) && pkg != nil {
			// re-mostrar el borrador con el error
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   validation.Message,
				"campo":   validation.Field,
				"paquete": toPackageResponse(pkg),
			})
			return
		}
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/api/packages")
}

// POST /api/packages/:id/cancel
func (s *Server) handleCancelPackage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.packages.Cancel(c.Request.Context(), actorFrom(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/api/products")
}

// POST /api/packages/:id/delete
func (s *Server) handleDeletePackage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.packages.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/api/packages")
}

// GET /api/packages
func (s *Server) handleListPackages(c *gin.Context) {
	pkgs, err := s.packages.List(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]packageResponse, 0, len(pkgs))
	for i := range pkgs {
		out = append(out, toPackageResponse(&pkgs[i]))
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/packages/:id
func (s *Server) handleGetPackage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	pkg, err := s.packages.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPackageResponse(pkg))
}
