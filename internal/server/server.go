// Package server wires the HTTP API: routing, middleware, handlers and
// realtime event publication.
package server

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"pronet/internal/cache"
	"pronet/internal/config"
	"pronet/internal/database"
	"pronet/internal/middleware"
	"pronet/internal/models"
	"pronet/internal/notifications"
	"pronet/internal/repository"
	"pronet/internal/service"
	"pronet/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config *config.Config
	db     *gorm.DB
	redis  *redis.Client
	store  *storage.DiskStore

	userRepo repository.UserRepository

	users       *service.UserService
	posts       *service.PostService
	connections *service.ConnectionService
	chat        *service.ChatService
	showcase    *service.ShowcaseService

	notifier *notifications.Notifier
	hub      *notifications.Hub
}

// NewServer creates a server instance, connecting to the database and Redis.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a server around existing database and Redis
// handles. Tests use this with in-memory SQLite and miniredis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*Server, error) {
	store, err := storage.NewDiskStore(cfg.StorageRoot, cfg.PublicBaseURL, cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("object store init failed: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	connRepo := repository.NewConnectionRepository(db)
	chatRepo := repository.NewChatRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	skillRepo := repository.NewSkillRepository(db)
	jobRepo := repository.NewJobRepository(db)

	s := &Server{
		config:      cfg,
		db:          db,
		redis:       rdb,
		store:       store,
		userRepo:    userRepo,
		users:       service.NewUserService(userRepo, skillRepo, projectRepo, jobRepo),
		posts:       service.NewPostService(postRepo, commentRepo),
		connections: service.NewConnectionService(connRepo, userRepo),
		chat:        service.NewChatService(chatRepo, userRepo),
		showcase:    service.NewShowcaseService(projectRepo, skillRepo, jobRepo, userRepo),
		notifier:    notifications.NewNotifier(rdb),
		hub:         notifications.NewHub(),
	}

	return s, nil
}

// fiberprometheus registers its collectors in the default registry; creating
// it once keeps repeated App() calls in tests from panicking on duplicates.
var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// App builds a configured Fiber application with all middleware and routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "ProNet API",
		BodyLimit: 10 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, fe)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	return app
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(helmet.New())

	promOnce.Do(func() {
		prom = middleware.InitMetrics("pronet")
	})
	prom.RegisterAt(app, "/metrics")
	app.Use(middleware.MetricsMiddleware(prom))

	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.StructuredLogger())

	// Global rate limit, per IP.
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.HealthLive)
	app.Get("/health/ready", s.HealthReady)

	// Stored objects; private buckets require a signed URL.
	app.Get("/files/*", s.ServeFile)

	api := app.Group("/api")

	api.Get("/monitor", monitor.New(monitor.Config{
		Title: "ProNet Metrics",
	}))

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/forgot-password", middleware.RateLimit(s.redis, 3, 15*time.Minute, "forgot_password"), s.ForgotPassword)
	auth.Post("/reset-password", middleware.RateLimit(s.redis, 5, 15*time.Minute, "reset_password"), s.ResetPassword)

	protected := api.Group("", s.AuthRequired(), middleware.ContextMiddleware())

	protectedAuth := protected.Group("/auth")
	protectedAuth.Post("/refresh", s.Refresh)
	protectedAuth.Post("/logout", s.Logout)
	protectedAuth.Get("/session", s.Session)

	users := protected.Group("/users")
	users.Get("/", s.SearchUsers)
	// Literal /me routes must be registered before the generic /:id routes.
	users.Get("/me", s.GetMe)
	users.Put("/me", s.UpdateMe)
	users.Post("/me/skills", s.AddSkill)
	users.Delete("/me/skills/:skillId", s.RemoveSkill)
	users.Get("/:id/posts", s.GetUserPosts)
	users.Get("/:id/projects", s.GetUserProjects)
	users.Get("/:id/skills", s.GetUserSkills)
	users.Get("/:id/jobs", s.GetUserJobs)
	users.Get("/:id", s.GetUserProfile)

	connections := protected.Group("/connections")
	connections.Get("/", s.GetConnections)
	connections.Get("/pending", s.GetPendingConnections)
	connections.Get("/sent", s.GetSentConnections)
	connections.Get("/status/:userId", s.GetConnectionStatus)
	connections.Post("/:id/accept", s.AcceptConnection)
	connections.Post("/:id/reject", s.RejectConnection)
	connections.Delete("/:id", s.RemoveConnection)
	// Generic request route last so it cannot shadow /:id/accept etc.
	connections.Post("/:userId", middleware.RateLimit(s.redis, 20, 5*time.Minute, "connection_request"), s.SendConnectionRequest)

	posts := protected.Group("/posts")
	posts.Get("/", s.GetFeed)
	posts.Post("/", middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:id/like", s.ToggleLike)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CreateComment)
	posts.Put("/:id/comments/:commentId", s.UpdateComment)
	posts.Delete("/:id/comments/:commentId", s.DeleteComment)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	conversations := protected.Group("/conversations")
	conversations.Post("/", s.StartConversation)
	conversations.Get("/", s.GetConversations)
	conversations.Get("/:id/messages", s.GetMessages)
	conversations.Post("/:id/messages", middleware.RateLimit(s.redis, 30, time.Minute, "send_message"), s.SendMessage)
	conversations.Post("/:id/read", s.MarkConversationRead)
	conversations.Get("/:id", s.GetConversation)

	messages := protected.Group("/messages")
	messages.Put("/:id", s.UpdateMessage)
	messages.Delete("/:id", s.DeleteMessage)

	projects := protected.Group("/projects")
	projects.Post("/", s.CreateProject)
	projects.Put("/:id", s.UpdateProject)
	projects.Delete("/:id", s.DeleteProject)

	protected.Get("/skills", s.GetSkills)

	jobs := protected.Group("/jobs")
	jobs.Post("/", s.CreateJob)
	jobs.Post("/:id/feedback", s.AddFeedback)

	uploads := protected.Group("/uploads")
	uploads.Post("/avatar", middleware.RateLimit(s.redis, 10, time.Minute, "upload"), s.UploadAvatar)
	uploads.Post("/media", middleware.RateLimit(s.redis, 10, time.Minute, "upload"), s.UploadMedia)
	uploads.Post("/attachment", middleware.RateLimit(s.redis, 20, time.Minute, "upload"), s.UploadAttachment)

	ws := api.Group("/ws", s.AuthRequired())
	ws.Post("/ticket", s.IssueWSTicket)
	ws.Get("/", s.WebsocketHandler())
}

// HealthLive reports process liveness.
func (s *Server) HealthLive(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "time": time.Now()})
}

// HealthReady reports readiness of the database and Redis dependencies.
func (s *Server) HealthReady(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status": "ready",
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start runs the HTTP server on app and wires the realtime hub to Redis.
// The caller owns app so it can drain it on shutdown.
func (s *Server) Start(app *fiber.App) error {
	if s.redis != nil {
		go func() {
			if err := s.hub.StartWiring(context.Background(), s.notifier); err != nil {
				log.Printf("failed to start event hub wiring: %v", err)
			}
		}()
	}

	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server's long-lived resources.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			log.Printf("error shutting down event hub: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
