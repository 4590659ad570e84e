package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/textbin/rooms_backend/cache"
	"github.com/textbin/rooms_backend/config"
	"github.com/textbin/rooms_backend/controllers"
	"github.com/textbin/rooms_backend/database"
	"github.com/textbin/rooms_backend/docs"
	"github.com/textbin/rooms_backend/middleware"
	"github.com/textbin/rooms_backend/storage"
)

// @title           TextBin Rooms API
// @version         1.0
// @description     API Server for TextBin Rooms, a message board with capacity-bounded retention
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	// Initialize logger
	if cfg.IsDevelopment() {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	log.Info().Msg("database connection established")

	// Initialize blob storage
	var blobs storage.BlobStore
	if cfg.S3Endpoint != "" {
		store, err := storage.NewMinioStore(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to blob storage")
		}
		blobs = store
		log.Info().Str("bucket", cfg.S3Bucket).Msg("connected to blob storage")
	} else {
		log.Warn().Msg("S3_ENDPOINT not set, file uploads disabled")
	}

	// Initialize room list cache
	var roomCache *cache.Cache
	if cfg.RedisURL != "" {
		roomCache, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer roomCache.Close()
		log.Info().Msg("connected to redis")
	}

	// Set up Swagger info
	docs.SwaggerInfo.Host = "localhost:" + cfg.Port

	// Controllers
	authController := controllers.NewAuthController(db)
	roomController := controllers.NewRoomController(db, roomCache)
	messageController := controllers.NewMessageController(db, blobs)

	// Set up router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Authentication routes
	auth := router.Group("/api")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
	}

	// Public read routes (polling clients)
	reads := router.Group("/api")
	{
		reads.GET("/rooms", roomController.GetRooms)
		reads.GET("/rooms/topic/:topic", roomController.GetRoomByTopic)
		reads.GET("/rooms/:id/messages", messageController.GetMessages)
	}

	// Protected write routes
	writes := router.Group("/api")
	writes.Use(middleware.JWTAuth())
	{
		writes.POST("/rooms", roomController.CreateRoom)
		writes.POST("/rooms/:id/messages", messageController.CreateMessage)
	}

	log.Info().Str("port", cfg.Port).Msg("server running")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
