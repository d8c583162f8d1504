package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/application"
	"github.com/RodolfoDevApp/eventshop-packages-go/internal/config"
)

// Server agrupa deps para la capa HTTP.
type Server struct {
	cfg       config.Config
	packages  *application.PackageService
	products  *application.ProductService
	employees *application.EmployeeService
}

func NewServer(
	cfg config.Config,
	packages *application.PackageService,
	products *application.ProductService,
	employees *application.EmployeeService,
) *Server {
	return &Server{
		cfg:       cfg,
		packages:  packages,
		products:  products,
		employees: employees,
	}
}

// NewRouter builds the gin engine with tracing and every route registered.
func (s *Server) NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(otelgin.Middleware(s.cfg.ServiceName))
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes registra todas las rutas HTTP.
func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", s.handleHealth)
	r.GET("/swagger.json", s.handleSwaggerJson)

	api := r.Group("/api", s.requireActor())

	api.GET("/products", s.handleListProducts)
	api.GET("/products/:id", s.handleGetProduct)
	api.GET("/products/:id/image", s.handleProductImage)
	api.POST("/products", s.handleCreateProduct)
	api.POST("/products/:id/edit", s.handleEditProduct)
	api.POST("/products/:id/delete", s.handleDeleteProduct)

	api.POST("/packages/generate", s.handleGeneratePackage)
	api.GET("/packages", s.handleListPackages)
	api.GET("/packages/:id", s.handleGetPackage)
	api.POST("/packages/:id/confirm", s.handleConfirmPackage)
	api.POST("/packages/:id/cancel", s.handleCancelPackage)
	api.POST("/packages/:id/delete", s.handleDeletePackage)

	api.GET("/employees", s.handleListEmployees)
	api.POST("/employees", s.handleAddEmployee)
	api.POST("/employees/:id/edit", s.handleEditEmployee)
	api.POST("/employees/:id/delete", s.handleDeleteEmployee)
	api.POST("/employees/:id/role", s.handleUpdateEmployeeRole)
	api.GET("/employees/:id/picture", s.handleEmployeePicture)

	api.GET("/profile", s.handleProfile)
	api.POST("/profile", s.handleEditProfile)
	api.POST("/profile/delete_picture", s.handleDeleteProfilePicture)
}

// Respuesta de health.
type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) handleSwaggerJson(c *gin.Context) {
	c.Data(http.StatusOK, "application/json", []byte(openAPISpec))
}
