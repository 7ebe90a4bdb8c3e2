package app

import (
	"context"
	"log"

	"userapi/internal/auth"
	"userapi/internal/cache"
	"userapi/internal/config"
	"userapi/internal/handlers"
	"userapi/internal/repo"
	"userapi/internal/seeder"
	"userapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// Setup wires all components and registers routes on the given engine.
// All collaborators are assembled here, once, and passed by constructor.
func Setup(r *gin.Engine, cfg config.Config, db *pgxpool.Pool, rdb *redis.Client) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	hasher := auth.NewPasswordHasher(cfg.JWT.BcryptCost)
	issuer := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL.Duration())

	userRepo := repo.NewPGUserRepo(db)
	var userCache *cache.UserCache
	if rdb != nil {
		userCache = cache.NewUserCache(rdb, cfg.Redis.DefaultTTL.Duration())
	}
	userSvc := service.NewUserService(userRepo, hasher, userCache)
	authSvc := service.NewAuthService(userRepo, hasher, issuer)

	authHandler := handlers.NewAuthHandler(authSvc)
	userHandler := handlers.NewUserHandler(userSvc)

	r.POST("/auth/login", authHandler.Login)

	protected := r.Group("", auth.RequireToken(issuer, userSvc))
	registerUserRoutes(protected, userHandler)

	// Seeding is best-effort; startup continues without mock users.
	if err := seeder.New(userSvc).Run(context.Background()); err != nil {
		log.Printf("%v", err)
	}
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "User API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
		})
	}
}

func healthHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "env": cfg.App.Env})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerUserRoutes(api *gin.RouterGroup, h *handlers.UserHandler) {
	api.POST("/usuarios", h.Create)
	api.GET("/usuarios", h.List)
	api.GET("/usuarios/:id", h.GetByID)
	api.PUT("/usuarios/:id", h.Update)
	api.DELETE("/usuarios/:id", h.Delete)
}
