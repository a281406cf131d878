package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/joystreak/config"
	"github.com/cppla/joystreak/controllers"
	"github.com/cppla/joystreak/middleware"
	"github.com/cppla/joystreak/progression"
	"github.com/cppla/joystreak/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, ledger *progression.Ledger, tz *time.Location) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(utils.Ginzap())
	r.Use(utils.RecoveryWithZap())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController()
	eventController := controllers.NewEventController(ledger, tz)
	profileController := controllers.NewProfileController(db, ledger, tz)
	statsController := controllers.NewStatsController(db)
	adminController := controllers.NewAdminController(ledger)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)

	// Public reads
	api.GET("/stats", statsController.GetServerStats)
	api.GET("/classes", profileController.GetClasses)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/events/joy", eventController.SubmitJoy)
	protected.GET("/users/:id", profileController.GetProfile)
	protected.POST("/users/:id/claim", profileController.ClaimDaily)
	protected.POST("/users/:id/class", profileController.SetClass)
	protected.GET("/leaderboard", profileController.GetLeaderboard)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	admin.POST("/users/:id/xp", adminController.GrantExperience)
	admin.POST("/users/:id/coins", adminController.GrantCoins)
	admin.POST("/users/:id/damage", adminController.ApplyDamage)
	admin.POST("/users/:id/heal", adminController.ApplyHealing)
	admin.POST("/users/:id/class", profileController.SetClass)
	admin.DELETE("/users/:id", adminController.ResetUser)
	admin.POST("/reset-all", adminController.ResetAll)
	admin.POST("/newday", adminController.ForceNewDay)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
