package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/journalkeep/journal-backend/internal/handler"
	"github.com/journalkeep/journal-backend/internal/middleware"
	"github.com/journalkeep/journal-backend/pkg/jwt"
	"github.com/redis/go-redis/v9"
)

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Auth    *handler.AuthHandler
	Journal *handler.JournalHandler
	Entry   *handler.EntryHandler
	Tag     *handler.TagHandler
	Media   *handler.MediaHandler
}

// Options 선택 미들웨어 설정
type Options struct {
	RedisClient        *redis.Client // nil이면 rate limit 생략
	RateLimitPerMinute int
}

// Setup configures all API routes
func Setup(router *gin.Engine, h Handlers, jwtManager *jwt.Manager, opts Options) {
	api := router.Group("/api/v1")
	limit := middleware.RateLimit(opts.RedisClient, opts.RateLimitPerMinute)

	// Authentication endpoints (no auth required, limited per IP)
	auth := api.Group("/auth")
	auth.POST("/register", limit, h.Auth.Register)
	auth.POST("/login", limit, h.Auth.Login)
	auth.POST("/refresh", limit, h.Auth.RefreshToken)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/verify", limit, h.Auth.VerifyEmail)
	auth.POST("/resend-verification", limit, h.Auth.ResendVerification)
	auth.GET("/me", middleware.JWTAuth(jwtManager), h.Auth.Me)
	auth.POST("/change-password", middleware.JWTAuth(jwtManager), limit, h.Auth.ChangePassword)

	// 이하 인증 필요, 사용자 단위 rate limit
	protected := api.Group("", middleware.JWTAuth(jwtManager), limit)

	journals := protected.Group("/journals")
	journals.GET("", h.Journal.ListJournals)
	journals.POST("", h.Journal.CreateJournal)
	journals.GET("/:journal_id", h.Journal.GetJournal)
	journals.PUT("/:journal_id", h.Journal.UpdateJournal)

	entries := journals.Group("/:journal_id/entries")
	entries.GET("", h.Entry.ListEntries)
	entries.POST("", h.Entry.CreateEntry)
	entries.GET("/recycle-bin", h.Entry.RecycleBin)
	entries.GET("/search", h.Entry.SearchEntries)
	entries.GET("/:entry_id", h.Entry.GetEntry)
	entries.PUT("/:entry_id", h.Entry.UpdateEntry)
	entries.DELETE("/:entry_id", h.Entry.SoftDeleteEntry)
	entries.DELETE("/:entry_id/permanent", h.Entry.DeleteEntry)
	entries.POST("/:entry_id/restore", h.Entry.RestoreEntry)
	entries.GET("/:entry_id/tags", h.Entry.GetEntryTags)
	entries.GET("/:entry_id/versions", h.Entry.ListVersions)
	entries.POST("/:entry_id/versions/:version_id/restore", h.Entry.RestoreVersion)

	// 첨부파일
	entries.GET("/:entry_id/media", h.Media.List)
	entries.POST("/:entry_id/media", h.Media.Upload)
	entries.DELETE("/:entry_id/media/:media_id", h.Media.Delete)

	tags := protected.Group("/tags")
	tags.GET("", h.Tag.ListTags)
	tags.POST("", h.Tag.CreateTag)
	tags.GET("/search", h.Tag.SearchTags)
	tags.GET("/:tag_id/entries", h.Tag.EntriesByTag)
}
