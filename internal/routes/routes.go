package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/handler"
	"github.com/gtracker/forum-backend/internal/middleware"
	"github.com/gtracker/forum-backend/internal/service"
)

// uploadBodyLimit multipart overhead on top of the image size cap
const uploadBodyLimit = service.MaxImageSize + 1<<20

// Handlers every HTTP handler mounted under /api/v1
type Handlers struct {
	Auth       *handler.AuthHandler
	Invite     *handler.InviteHandler
	Admin      *handler.AdminHandler
	Profile    *handler.ProfileHandler
	Category   *handler.CategoryHandler
	Thread     *handler.ThreadHandler
	Post       *handler.PostHandler
	Like       *handler.LikeHandler
	Moderation *handler.ModerationHandler
	Content    *handler.ContentHandler
}

// Options router settings that vary per deployment
type Options struct {
	Environment   string
	// UserRateLimit runs right after authentication on every authenticated
	// route; nil disables it
	UserRateLimit gin.HandlerFunc
	// Probes are run by /health/ready, keyed by dependency name
	Probes        map[string]func(ctx context.Context) error
}

// Setup configures the health check, all API routes and the 404 fallback
func Setup(router *gin.Engine, h *Handlers, auth *middleware.Authenticator, opts Options) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"environment": opts.Environment,
		})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status, checks := http.StatusOK, gin.H{}
		for name, probe := range opts.Probes {
			if err := probe(ctx); err != nil {
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		c.JSON(status, gin.H{"ready": status == http.StatusOK, "checks": checks})
	})

	authed := []gin.HandlerFunc{auth.Required()}
	if opts.UserRateLimit != nil {
		authed = append(authed, opts.UserRateLimit)
	}
	// with returns the authentication chain followed by extra
	with := func(extra ...gin.HandlerFunc) []gin.HandlerFunc {
		chain := make([]gin.HandlerFunc, 0, len(authed)+len(extra))
		return append(append(chain, authed...), extra...)
	}
	optional := auth.Optional()

	api := router.Group("/api/v1")

	// Auth
	authGroup := api.Group("/auth", middleware.NoStore())
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authSession := authGroup.Group("", with()...)
	authSession.POST("/logout", h.Auth.Logout)
	authSession.GET("/me", h.Auth.Me)

	// Invites
	invites := api.Group("/invites")
	invites.GET("/status", h.Invite.Status)
	invites.GET("/validate/:code", h.Invite.Validate)
	invites.Group("", with()...).GET("/my", h.Invite.Mine)

	// Admin settings
	admin := api.Group("/admin", with(middleware.RequireAdmin())...)
	admin.GET("/settings", h.Admin.Settings)
	admin.GET("/settings/registration", h.Admin.RegistrationStatus)
	admin.PUT("/settings/registration", h.Admin.ToggleRegistration)

	// Profile (own)
	profile := api.Group("/profile", with(middleware.NoStore())...)
	profile.GET("", h.Profile.Get)
	profile.PATCH("", h.Profile.Update)
	profile.POST("/avatar", middleware.MaxBodySize(uploadBodyLimit), h.Profile.UpdateAvatar)
	profile.POST("/banner", middleware.MaxBodySize(uploadBodyLimit), h.Profile.UpdateBanner)
	profile.POST("/signature", middleware.MaxBodySize(uploadBodyLimit), h.Profile.UpdateSignature)
	profile.DELETE("/signature", h.Profile.RemoveSignature)
	profile.POST("/email/request", h.Profile.RequestEmailChange)
	profile.POST("/email/confirm", h.Profile.ConfirmEmailChange)
	profile.POST("/password/request", h.Profile.RequestPasswordChange)
	profile.POST("/password/confirm", h.Profile.ConfirmPasswordChange)

	// Categories
	categories := api.Group("/categories")
	categories.GET("", h.Category.List)
	categories.GET("/tree", h.Category.Tree)
	categories.GET("/root", h.Category.Roots)
	categories.GET("/slug/:slug", h.Category.GetBySlug)
	categories.GET("/:categoryId", h.Category.GetByID)
	categories.GET("/:categoryId/breadcrumbs", h.Category.Breadcrumbs)
	categoryAdmin := categories.Group("", with(middleware.RequireAdmin())...)
	categoryAdmin.POST("", h.Category.Create)
	categoryAdmin.PUT("/reorder", h.Category.Reorder)
	categoryAdmin.PATCH("/:categoryId", h.Category.Update)
	categoryAdmin.PATCH("/:categoryId/toggle-lock", h.Category.ToggleLock)
	categoryAdmin.DELETE("/:categoryId", h.Category.Delete)

	// Threads
	threads := api.Group("/threads")
	threads.GET("", h.Thread.List)
	threads.GET("/search", h.Thread.Search)
	threads.GET("/category/:categoryId/slug/:slug", h.Thread.GetBySlug)
	threads.GET("/:id", h.Thread.GetByID)
	threadWrite := threads.Group("", with()...)
	threadWrite.POST("", h.Thread.Create)
	threadWrite.PATCH("/:id", h.Thread.Update)
	threadWrite.DELETE("/:id", h.Thread.Delete)
	threadMod := threads.Group("", with(middleware.RequireModerator())...)
	threadMod.PATCH("/:id/toggle-pin", h.Thread.TogglePin)
	threadMod.PATCH("/:id/toggle-lock", h.Thread.ToggleLock)
	threadMod.PATCH("/:id/archive", h.Thread.Archive)

	// Posts
	posts := api.Group("/posts")
	posts.GET("", optional, h.Post.List)
	posts.GET("/:id", optional, h.Post.GetByID)
	posts.GET("/:id/replies", optional, h.Post.Replies)
	postWrite := posts.Group("", with()...)
	postWrite.POST("", h.Post.Create)
	postWrite.PATCH("/:id", h.Post.Update)
	postWrite.DELETE("/:id", h.Post.Delete)

	// Likes
	likes := api.Group("/likes")
	likes.GET("/threads/:id/status", optional, h.Like.Status(domain.LikeSubjectThread))
	likes.GET("/threads/:id", h.Like.Likers(domain.LikeSubjectThread))
	likes.GET("/posts/:id/status", optional, h.Like.Status(domain.LikeSubjectPost))
	likes.GET("/posts/:id", h.Like.Likers(domain.LikeSubjectPost))
	likeWrite := likes.Group("", with()...)
	likeWrite.POST("/threads/:id", h.Like.Toggle(domain.LikeSubjectThread))
	likeWrite.POST("/posts/:id", h.Like.Toggle(domain.LikeSubjectPost))

	// Moderation
	moderation := api.Group("/moderation", with(middleware.RequireModerator())...)
	moderation.POST("/bans/:userId", h.Moderation.Ban)
	moderation.DELETE("/bans/:userId", h.Moderation.Unban)
	moderation.GET("/bans", h.Moderation.ListBans)
	moderation.GET("/bans/history/:userId", h.Moderation.BanHistory)
	moderation.PATCH("/roles/:userId", h.Moderation.ChangeRole)
	moderation.GET("/roles/history/:userId", h.Moderation.RoleHistory)
	moderation.GET("/roles/changes", h.Moderation.RecentRoleChanges)
	moderation.GET("/stats", h.Moderation.Stats)

	// External catalogs
	external := api.Group("/external")
	external.GET("/tmdb/search", h.Content.SearchMovie)
	external.GET("/tmdb/:tmdbId", h.Content.MovieByID)
	external.GET("/steam/search", h.Content.SearchGame)
	external.GET("/steam/:appId", h.Content.GameByID)
	external.GET("/cache/stats", h.Content.CacheStats)
	external.GET("/cache/most-accessed", h.Content.MostAccessed)
	external.GET("/cache/count/:source", h.Content.CountCache)
	cacheAdmin := external.Group("/cache", with(middleware.RequireAdmin())...)
	cacheAdmin.POST("/cleanup", h.Content.CleanupCache)
	cacheAdmin.DELETE("/:source/:externalId", h.Content.DeleteCache)

	router.NoRoute(func(c *gin.Context) {
		common.ErrorResponse(c, http.StatusNotFound, "Rota não encontrada", nil)
	})
}
