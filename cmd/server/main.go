package main

import (
	"context"
	"log"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/plankhq/plank-api/internal/config"
	"github.com/plankhq/plank-api/internal/database"
	"github.com/plankhq/plank-api/internal/handlers"
	"github.com/plankhq/plank-api/internal/logging"
	"github.com/plankhq/plank-api/internal/middleware"
	"github.com/plankhq/plank-api/internal/realtime"
	"github.com/plankhq/plank-api/internal/repository"
	"github.com/plankhq/plank-api/internal/services"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	logger, err := logging.New(cfg.GinMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	db := database.GetDB()

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	store, err := redisStore.NewStore(
		10,              // Redis pool size
		"tcp",           // network type
		cfg.RedisAddr(), // Redis address from config
		"",              // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax
	})
	r.Use(sessions.Sessions("plank_session", store))

	// Realtime fan-out: in-process hub plus a redis bridge so pushes
	// reach subscribers on every instance
	hub := realtime.NewHub(logger)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
	bridge := realtime.NewBridge(rdb, hub, logger)
	if err := bridge.Start(context.Background()); err != nil {
		log.Fatalf("Failed to subscribe to push events: %v", err)
	}
	broadcaster := realtime.NewBroadcaster(bridge, logger)

	// Repositories
	workspaceRepo := repository.NewWorkspaceRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)

	// Services
	authService := services.NewAuthService(db, userRepo, broadcaster)
	workspaceService := services.NewWorkspaceService(db, workspaceRepo, broadcaster)
	teamMemberService := services.NewTeamMemberService(db, workspaceRepo, userRepo, broadcaster)
	projectService := services.NewProjectService(db, projectRepo, workspaceRepo, broadcaster)
	taskService := services.NewTaskService(db, taskRepo, projectRepo, workspaceRepo, broadcaster)
	customerService := services.NewCustomerService(db, customerRepo, workspaceRepo, broadcaster)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceService)
	teamMemberHandler := handlers.NewTeamMemberHandler(teamMemberService)
	projectHandler := handlers.NewProjectHandler(projectService)
	taskHandler := handlers.NewTaskHandler(taskService)
	billingHandler := handlers.NewBillingHandler(customerService, cfg.StripeWebhookSecret, logger)
	subscriptionHandler := handlers.NewSubscriptionHandler(db, hub, logger)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Workspace routes (protected)
		workspaces := api.Group("/workspaces")
		workspaces.Use(middleware.RequireAuth())
		{
			workspaces.POST("", workspaceHandler.CreateWorkspace)
			workspaces.GET("", workspaceHandler.ListWorkspaces)
			workspaces.GET("/:uuid", workspaceHandler.GetWorkspace)
			workspaces.PUT("/:uuid", workspaceHandler.UpdateWorkspace)
			workspaces.DELETE("/:uuid", workspaceHandler.DeleteWorkspace)

			workspaces.GET("/:uuid/customer", billingHandler.GetCustomer)
			workspaces.POST("/:uuid/labels", workspaceHandler.CreateLabel)
			workspaces.POST("/:uuid/projects", projectHandler.CreateProject)
			workspaces.GET("/:uuid/projects", projectHandler.ListProjects)

			scoped := workspaces.Group("/:uuid", middleware.RequireWorkspaceAccess())
			{
				scoped.GET("/team-members", teamMemberHandler.ListMembers)
				scoped.POST("/invites", teamMemberHandler.CreateInvite)
				scoped.GET("/invites", teamMemberHandler.ListInvites)
			}
		}

		// Membership and invite routes (protected)
		teamMembers := api.Group("/team-members")
		teamMembers.Use(middleware.RequireAuth())
		{
			teamMembers.PUT("/:uuid/role", teamMemberHandler.UpdateMemberRole)
			teamMembers.DELETE("/:uuid", teamMemberHandler.RemoveMember)
		}
		invites := api.Group("/invites")
		invites.Use(middleware.RequireAuth())
		{
			invites.DELETE("/:uuid", teamMemberHandler.DeleteInvite)
		}

		// Label routes (protected)
		labels := api.Group("/labels")
		labels.Use(middleware.RequireAuth())
		{
			labels.PUT("/:uuid", workspaceHandler.UpdateLabel)
			labels.DELETE("/:uuid", workspaceHandler.DeleteLabel)
		}

		// Project and section routes (protected)
		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth())
		{
			projects.GET("/:uuid", projectHandler.GetProject)
			projects.PUT("/:uuid", projectHandler.UpdateProject)
			projects.POST("/:uuid/archive", projectHandler.SetProjectArchived)
			projects.DELETE("/:uuid", projectHandler.DeleteProject)
			projects.POST("/:uuid/sections", projectHandler.CreateSection)
		}
		sections := api.Group("/sections")
		sections.Use(middleware.RequireAuth())
		{
			sections.PUT("/:uuid", projectHandler.UpdateSection)
			sections.POST("/:uuid/move", projectHandler.MoveSection)
			sections.DELETE("/:uuid", projectHandler.DeleteSection)
			sections.POST("/:uuid/tasks", taskHandler.CreateTask)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("/:uuid", taskHandler.GetTask)
			tasks.PUT("/:uuid", taskHandler.UpdateTask)
			tasks.POST("/:uuid/move", taskHandler.MoveTask)
			tasks.DELETE("/:uuid", taskHandler.DeleteTask)
			tasks.POST("/:uuid/sub-tasks", taskHandler.CreateSubTask)
			tasks.POST("/:uuid/chat-messages", taskHandler.CreateChatMessage)
			tasks.GET("/:uuid/chat-messages", taskHandler.ListChatMessages)
		}
		subTasks := api.Group("/sub-tasks")
		subTasks.Use(middleware.RequireAuth())
		{
			subTasks.PUT("/:uuid", taskHandler.UpdateSubTask)
			subTasks.POST("/:uuid/move", taskHandler.MoveSubTask)
			subTasks.DELETE("/:uuid", taskHandler.DeleteSubTask)
		}
	}

	// Billing webhook (public, signature-authenticated)
	r.POST("/webhooks/stripe", billingHandler.HandleWebhook)

	// Snapshot subscription endpoint (protected)
	r.GET("/ws/:resource/:uuid", middleware.RequireAuth(), subscriptionHandler.Subscribe)

	// Start server
	log.Printf("Server starting on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
