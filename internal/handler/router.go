package handler

import (
	"github.com/gin-gonic/gin"

	"inkpost/internal/middleware"
)

// RateLimits holds the per-route limiter rules. Zero-valued rules leave
// the route unlimited, which is what the tests rely on.
type RateLimits struct {
	Register       middleware.RateLimitRule
	Login          middleware.RateLimitRule
	ForgotPassword middleware.RateLimitRule
	SendOTP        middleware.RateLimitRule
	VerifyOTP      middleware.RateLimitRule
	BlogCreate     middleware.RateLimitRule
	BlogUpdate     middleware.RateLimitRule
	BlogDelete     middleware.RateLimitRule
	BlogPublish    middleware.RateLimitRule
}

type RouterDeps struct {
	Auth       *AuthHandler
	OTP        *OTPHandler
	Blogs      *BlogHandler
	Public     *PublicHandler
	JWTSecret  []byte
	RateLimits RateLimits
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	limits := deps.RateLimits

	auth := api.Group("/auth")
	auth.POST("/register", middleware.RateLimit(limits.Register), deps.Auth.Register)
	auth.POST("/login", middleware.RateLimit(limits.Login), deps.Auth.Login)
	auth.POST("/logout", deps.Auth.Logout)
	auth.POST("/forgot-password", middleware.RateLimit(limits.ForgotPassword), deps.Auth.ResetPassword)
	auth.POST("/send-otp", middleware.RateLimit(limits.SendOTP), deps.OTP.Send)
	auth.POST("/verify-otp", middleware.RateLimit(limits.VerifyOTP), deps.OTP.Verify)

	blog := api.Group("/blog")
	blog.Use(middleware.JWTAuth(deps.JWTSecret))
	blog.POST("/publish/:id", middleware.RateLimit(limits.BlogPublish), middleware.ValidateBlogParams("id", "anon"), deps.Blogs.Publish)
	blog.POST("/:state", middleware.RateLimit(limits.BlogCreate), middleware.ValidateBlogParams("state", "anon"), deps.Blogs.Create)
	blog.PUT("/:state/:id", middleware.RateLimit(limits.BlogUpdate), middleware.ValidateBlogParams("state", "id"), deps.Blogs.Update)
	blog.DELETE("/:state/:id", middleware.RateLimit(limits.BlogDelete), middleware.ValidateBlogParams("state", "id"), deps.Blogs.Delete)
	blog.GET("/:state", middleware.ValidateBlogParams("state"), deps.Blogs.List)
	blog.GET("/:state/:id", middleware.ValidateBlogParams("state", "id"), deps.Blogs.Get)

	public := api.Group("/public")
	public.GET("", deps.Public.List)
	public.GET("/:id", middleware.ValidateBlogParams("id"), deps.Public.Get)
}
