package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-api/internal/services"
)

type Handler interface {
	HandleCreateTodo(c *gin.Context)
	HandleGetTodos(c *gin.Context)
	HandleGetTodo(c *gin.Context)
	HandleUpdateTodo(c *gin.Context)
	HandleDeleteTodo(c *gin.Context)

	HandleHealth(c *gin.Context)
}

type handlerImpl struct {
	logger zerolog.Logger
	todos  services.TodoService
}

func New(
	logger zerolog.Logger,
	todoService services.TodoService,
) Handler {
	return &handlerImpl{
		logger: logger,
		todos:  todoService,
	}
}

// RegisterRoutes mounts the todo endpoints on router. The list/create
// route keeps its trailing slash, the detail route has none.
func RegisterRoutes(router gin.IRouter, h Handler) {
	router.GET("/healthz", h.HandleHealth)

	todoRouter := router.Group("/todo")
	todoRouter.GET("/", h.HandleGetTodos)
	todoRouter.POST("/", h.HandleCreateTodo)
	todoRouter.GET("/:id", h.HandleGetTodo)
	todoRouter.PUT("/:id", h.HandleUpdateTodo)
	todoRouter.PATCH("/:id", h.HandleUpdateTodo)
	todoRouter.DELETE("/:id", h.HandleDeleteTodo)
}
