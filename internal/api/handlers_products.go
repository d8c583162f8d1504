package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/application"
)

// GET /api/products
func (s *Server) handleListProducts(c *gin.Context) {
	products, err := s.products.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GET /api/products/:id
func (s *Server) handleGetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := s.products.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/products/:id/image
func (s *Server) handleProductImage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	img, err := s.products.Image(c.Request.Context(), id)
	writeBinary(c, img, err)
}

// bindProductInput reads the product form; a blank cantidad counts as missing.
func bindProductInput(c *gin.Context) (application.ProductInput, bool) {
	var in application.ProductInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "formulario inválido"})
		return in, false
	}
	if formValueMissing(c, "cantidad") {
		in.Quantity = nil
	}
	img, err := readUpload(c, "imagen")
	if err != nil {
		writeError(c, err)
		return in, false
	}
	in.Image = img
	return in, true
}

// POST /api/products
func (s *Server) handleCreateProduct(c *gin.Context) {
	in, ok := bindProductInput(c)
	if !ok {
		return
	}
	if _, err := s.products.Create(c.Request.Context(), actorFrom(c), in); err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/api/products")
}

// POST /api/products/:id/edit
func (s *Server) handleEditProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	in, ok := bindProductInput(c)
	if !ok {
		return
	}
	if _, err := s.products.Update(c.Request.Context(), actorFrom(c), id, in); err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/api/products")
}

// POST /api/products/:id/delete
func (s *Server) handleDeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.products.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/api/products")
}
