package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uniconnect/backend/internal/middleware"
	"github.com/uniconnect/backend/internal/websocket"
)

// RegisterRoutes mounts the API, socket, health and metrics endpoints.
// ws may be nil when the socket layer is disabled.
func (h *Handlers) RegisterRoutes(r *gin.Engine, ws *websocket.Handler) {
	requireAuth := middleware.RequireAuth(h.auth)

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if ws != nil {
		r.GET("/ws", ws.HandleWebSocket)
	}

	api := r.Group("/api")
	api.Use(middleware.RateLimit())
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", middleware.RateLimitAuth(), h.Register)
			authGroup.POST("/verify", middleware.RateLimitAuth(), h.Verify)
			authGroup.POST("/login", middleware.RateLimitAuth(), h.Login)
			authGroup.GET("/me", requireAuth, h.Me)
		}

		dashboard := api.Group("/dashboard")
		{
			dashboard.GET("/posts", h.GetPosts)

			dashboard.Use(requireAuth)
			dashboard.POST("/posts", h.CreatePost)
			dashboard.PUT("/posts/:id/like", h.ToggleLike)
			dashboard.POST("/posts/:id/comment", h.AddComment)
			dashboard.POST("/connect", h.Connect)
			dashboard.POST("/network/respond", h.RespondToConnection)
			dashboard.GET("/network", h.GetNetwork)
			dashboard.GET("/suggestions", h.GetSuggestions)
			dashboard.GET("/u/:username", h.GetUserByUsername)
			dashboard.PUT("/user/profile", h.UpdateProfile)
		}

		groupsGroup := api.Group("/groups", requireAuth)
		{
			groupsGroup.POST("", middleware.RateLimitUpload(), h.CreateGroup)
			groupsGroup.GET("", h.GetGroups)
			groupsGroup.POST("/join", h.RequestJoinGroup)
			groupsGroup.POST("/join-public", h.JoinPublicGroup)
			groupsGroup.POST("/handle-request", h.HandleJoinRequest)
			groupsGroup.GET("/:groupId", h.GetGroup)
			groupsGroup.DELETE("/:groupId", h.DeleteGroup)
			groupsGroup.GET("/:groupId/requests", h.GetJoinRequests)
			groupsGroup.GET("/:groupId/messages", h.GetGroupMessages)
			groupsGroup.GET("/:groupId/media", h.GetGroupMedia)
			groupsGroup.POST("/:groupId/leave", h.LeaveGroup)
		}

		api.GET("/messages/:userA/:userB", requireAuth, h.GetDirectMessages)

		notificationsGroup := api.Group("/notifications", requireAuth)
		{
			notificationsGroup.GET("", h.GetNotifications)
			notificationsGroup.POST("", h.CreateNotification)
			notificationsGroup.GET("/unread-count", h.GetUnreadCount)
			notificationsGroup.PUT("/mark-read", h.MarkNotificationsRead)
		}

		api.POST("/upload", requireAuth, middleware.RateLimitUpload(), h.UploadFile)
		api.POST("/chat", h.Chat)
	}
}
