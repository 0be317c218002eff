// Package handlers wires the HTTP surface: the REST endpoints the
// dashboards poll and mutate through, and the WebSocket push channel.
package handlers

import (
	"github.com/Luiscraft7/sistema-dn/internal/workorder/auth"
	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Jobs    *JobHandler
	Clients *ClientHandler
	Admin   *AdminHandler
	WS      *WSHandler
}

// NewRouter builds the gin engine. Every route requires a valid token;
// user and business management additionally require the owner role.
func NewRouter(h Handlers, users auth.UserSource, jwtSecret string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	authn := auth.Middleware(users, jwtSecret)

	api := router.Group("/api", authn)
	{
		jobs := api.Group("/jobs")
		{
			jobs.GET("", h.Jobs.List)
			jobs.POST("", h.Jobs.Create)
			jobs.GET("/:id", h.Jobs.Get)
			jobs.PATCH("/:id", h.Jobs.Update)
			jobs.POST("/:id/state", h.Jobs.Transition)
		}

		clients := api.Group("/clients")
		{
			clients.GET("", h.Clients.List)
			clients.POST("", h.Clients.Create)
			clients.DELETE("/:id", h.Clients.Delete)
		}

		api.GET("/businesses", h.Admin.ListBusinesses)
		api.POST("/businesses", auth.RequireOwner(), h.Admin.CreateBusiness)

		usersGroup := api.Group("/users", auth.RequireOwner())
		{
			usersGroup.GET("", h.Admin.ListUsers)
			usersGroup.POST("", h.Admin.CreateUser)
			usersGroup.PATCH("/:id", h.Admin.UpdateUser)
		}
	}

	router.GET("/ws", authn, h.WS.Serve)

	return router
}
