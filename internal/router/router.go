package router

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/config"
	"github.com/inkpress/internal/handler"
	"go.uber.org/zap"
)

// Setup configures the gin engine and routes.
func Setup(cfg config.AppConfig, api *handler.API, logger *zap.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("inkpress_session", store))

	r.Static(cfg.UploadURLPath, cfg.UploadDir)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Public read API.
	public := r.Group("/api")
	{
		public.GET("/posts", api.ListPublishedPosts)
		public.GET("/posts/:year/:month/:slug", api.GetPublishedPost)
		public.GET("/popular", api.PopularPosts)
		public.GET("/random", api.RandomPosts)
		public.GET("/archives", api.Archives)

		public.GET("/categories", api.ListCategories)
		public.GET("/categories/:slug", api.GetCategoryBySlug)
		public.GET("/tags", api.ListTags)
		public.GET("/tags/:slug", api.GetTagBySlug)
		public.GET("/authors", api.ListAuthors)
		public.GET("/authors/best", api.BestAuthors)
		public.GET("/authors/:slug", api.GetAuthorBySlug)
	}

	// Admin API behind session auth.
	admin := r.Group("/admin")
	{
		admin.POST("/login", api.Login)
		admin.POST("/logout", api.Logout)

		auth := admin.Group("/api")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/posts", api.GetPosts)
			auth.GET("/posts/:id", api.GetPost)
			auth.POST("/posts", api.CreatePost)
			auth.PUT("/posts/:id", api.UpdatePost)
			auth.DELETE("/posts/:id", api.DeletePost)
			auth.POST("/posts/:id/toggle", api.TogglePost)
			auth.POST("/posts/:id/image", api.UploadPostImage)

			auth.GET("/categories", api.GetCategories)
			auth.POST("/categories", api.CreateCategory)
			auth.PUT("/categories/:id", api.UpdateCategory)
			auth.DELETE("/categories/:id", api.DeleteCategory)

			auth.GET("/tags", api.GetTags)
			auth.POST("/tags", api.CreateTag)
			auth.PUT("/tags/:id", api.UpdateTag)
			auth.DELETE("/tags/:id", api.DeleteTag)

			auth.GET("/authors", api.GetAuthors)
			auth.POST("/authors", api.CreateAuthor)
			auth.PUT("/authors/:id", api.UpdateAuthor)
			auth.DELETE("/authors/:id", api.DeleteAuthor)
			auth.POST("/authors/:id/image", api.UploadAuthorImage)

			auth.POST("/upload", api.Upload)
		}
	}

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
