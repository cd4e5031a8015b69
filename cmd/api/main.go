package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/animateai/animateai-backend/pkg/config"
	"github.com/animateai/animateai-backend/pkg/db"
	"github.com/animateai/animateai-backend/pkg/handlers"
	"github.com/animateai/animateai-backend/pkg/llm"
	"github.com/animateai/animateai-backend/pkg/middleware"
	"github.com/animateai/animateai-backend/pkg/render"
	"github.com/animateai/animateai-backend/pkg/services"
	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	razorpay "github.com/razorpay/razorpay-go"
	log "github.com/sirupsen/logrus"
)

// simulatedRenderDelay approximates how long a short Manim render takes.
const simulatedRenderDelay = 5 * time.Second

func main() {
	log.SetOutput(gin.DefaultWriter)
	log.SetLevel(log.InfoLevel)
	log.SetFormatter(&log.JSONFormatter{})
	log.Info("Starting AnimateAI API...")

	cfg := config.LoadConfig()
	services.Init(cfg.JwtSecret)

	if err := db.InitDB(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	generator, err := llm.NewClient(cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("Failed to initialize generation client: %v", err)
	}

	var renderer render.Renderer
	if cfg.RendererURL != "" {
		renderer = render.NewServiceRenderer(cfg.RendererURL, cfg.RenderCallbackBase)
	} else {
		renderer = render.NewSimulatedRenderer(render.StoreFinalizer{}, simulatedRenderDelay)
	}

	var razorpayClient *razorpay.Client
	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		razorpayClient = razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	}

	apiHandlers := handlers.NewHandlers(cfg, generator, renderer, razorpayClient)

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "https://animateai.vercel.app"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", handlers.HealthCheck)
	// The render service reports outcomes here; it authenticates by knowing
	// the animation id, not by JWT.
	router.POST("/api/animations/render-callback", apiHandlers.HandleRenderCallback)

	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", handlers.RegisterUser)
		authRoutes.POST("/login", handlers.LoginUser)
	}

	protectedRoutes := router.Group("/api")
	protectedRoutes.Use(middleware.AuthMiddleware())
	{
		protectedRoutes.POST("/delete", handlers.DeleteUser)

		protectedRoutes.POST("/chat", apiHandlers.Chat)
		protectedRoutes.GET("/chat/messages", apiHandlers.GetMessages)

		projectsRoutes := protectedRoutes.Group("/projects")
		{
			projectsRoutes.POST("", handlers.CreateProject)
			projectsRoutes.GET("", handlers.GetUserProjects)
			projectsRoutes.GET("/:id", handlers.GetProjectByID)
			projectsRoutes.PUT("/:id", handlers.UpdateProject)
			projectsRoutes.DELETE("/:id", handlers.DeleteProject)
		}

		animationsRoutes := protectedRoutes.Group("/animations")
		{
			animationsRoutes.POST("/render", apiHandlers.TriggerRender)
			animationsRoutes.GET("/latest", apiHandlers.GetLatestAnimation)
			animationsRoutes.GET("/by-message", apiHandlers.GetAnimationByMessage)
		}

		paymentsRoutes := protectedRoutes.Group("/payments")
		{
			paymentsRoutes.POST("/create-order", apiHandlers.CreateOrder)
			paymentsRoutes.POST("/verify", apiHandlers.VerifyPayment)
			paymentsRoutes.POST("/get-amount", apiHandlers.GetPaymentAmount)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Infof("Server listening on %s:%s", cfg.Host, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited gracefully.")
}
