package webserver

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func attachRoutes(ctx context.Context, r *gin.Engine, d Deps) {
	origins := d.Config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "If-None-Match"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "ETag"},
		AllowCredentials: true,
	}))

	secret := []byte(d.Config.JWTSecret)
	sessH := NewSessions(d.Service)
	adminH := NewAdmin(d)
	limiter := NewRateLimiter(ctx, d.Config.RateLimit, time.Minute)

	v1 := r.Group("/v1")
	{
		v1.GET("/personas", sessH.Personas)

		v1.POST("/sessions", sessH.Create)
		v1.GET("/sessions/:id", sessH.Get)
		v1.POST("/sessions/:id/messages", RateLimitMiddleware(limiter), sessH.Send)
		v1.POST("/sessions/:id/order/confirm", sessH.Confirm)
		v1.POST("/sessions/:id/order/edit", sessH.Edit)
		v1.PUT("/sessions/:id/persona", sessH.SwitchPersona)
		v1.PUT("/sessions/:id/instructions/:personaId", sessH.UpdateInstruction)
		v1.GET("/sessions/:id/backup", sessH.Backup)
		v1.POST("/sessions/:id/restore", sessH.Restore)

		v1.POST("/admin/login", RateLimitMiddleware(limiter), adminH.Login)
	}

	admin := v1.Group("/admin")
	admin.Use(JWTMiddleware(secret))
	{
		admin.POST("/broadcast", adminH.Broadcast)
		admin.GET("/orders", adminH.Orders)
		admin.PUT("/settings/:name", adminH.SetSetting)
	}
}
