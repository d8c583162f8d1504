package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/application"
	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

// GET /api/employees
func (s *Server) handleListEmployees(c *gin.Context) {
	list, err := s.employees.List(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /api/employees
func (s *Server) handleAddEmployee(c *gin.Context) {
	var in application.NewEmployeeInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "formulario inválido"})
		return
	}
	if _, err := s.employees.Add(c.Request.Context(), actorFrom(c), in); err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/api/employees")
}

// POST /api/employees/:id/edit
func (s *Server) handleEditEmployee(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var profile domain.EmployeeProfile
	if err := c.ShouldBind(&profile); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "formulario inválido"})
		return
	}
	if _, err := s.employees.Edit(c.Request.Context(), actorFrom(c), id, profile, c.PostForm("rol")); err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/api/employees")
}

// POST /api/employees/:id/delete
func (s *Server) handleDeleteEmployee(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.employees.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/api/employees")
}

// POST /api/employees/:id/role
func (s *Server) handleUpdateEmployeeRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.employees.UpdateRole(c.Request.Context(), actorFrom(c), id, c.PostForm("rol")); err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/api/employees")
}

// GET /api/employees/:id/picture
func (s *Server) handleEmployeePicture(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	pic, err := s.employees.Picture(c.Request.Context(), id)
	writeBinary(c, pic, err)
}

// GET /api/profile
func (s *Server) handleProfile(c *gin.Context) {
	e, err := s.employees.Profile(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"empleado": e, "tiene_foto": e.HasPicture()})
}

// POST /api/profile
func (s *Server) handleEditProfile(c *gin.Context) {
	var profile domain.EmployeeProfile
	if err := c.ShouldBind(&profile); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "formulario inválido"})
		return
	}
	pic, err := readUpload(c, "foto_perfil")
	if err != nil {
		writeError(c, err)
		return
	}
	if _, err := s.employees.EditOwnProfile(c.Request.Context(), actorFrom(c), profile, pic); err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/api/profile")
}

// POST /api/profile/delete_picture
func (s *Server) handleDeleteProfilePicture(c *gin.Context) {
	if err := s.employees.DeleteOwnPicture(c.Request.Context(), actorFrom(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/api/profile")
}
