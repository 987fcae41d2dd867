package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exam-system/backend/internal/config"
	"github.com/exam-system/backend/internal/database"
	"github.com/exam-system/backend/internal/handlers"
	"github.com/exam-system/backend/internal/middleware"
	"github.com/exam-system/backend/internal/models"
	"github.com/exam-system/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// @title Exam Assessment Engine API
// @version 1.0
// @description Automated assessment grading engine: exams, questions, submissions, and scoring
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if len(os.Args) > 1 {
		handleCommand(os.Args[1])
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if cfg.Server.Env == "development" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		for _, allowedOrigin := range cfg.CORS.Origins {
			if origin == allowedOrigin {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check - simple endpoint that doesn't require DB
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "exam-system-api"})
	})
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Exam Assessment Engine API", "status": "running"})
	})

	// Metrics
	if cfg.Monitoring.PrometheusEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Services
	authService := services.NewAuthService(db, cfg)
	submissionService := services.NewSubmissionService(db)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	examHandler := handlers.NewExamHandler(db)
	submissionHandler := handlers.NewSubmissionHandler(submissionService, auditService)
	auditHandler := handlers.NewAuditHandler(db)

	// Routes
	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
		}

		// Protected routes
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(authService))
		{
			// Admin only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/exams", examHandler.Create)
				admin.PUT("/exams/:id", examHandler.Update)
				admin.POST("/exams/:id/questions", examHandler.AddQuestion)
				admin.DELETE("/exams/:id", examHandler.Delete)

				// Audit logs
				admin.GET("/audit/recent", auditHandler.GetRecentActivity)
			}

			// Student routes (all authenticated users)
			protected.GET("/exams", examHandler.List)
			protected.GET("/exams/:id", examHandler.Get)
			protected.POST("/exams/:id/submit", submissionHandler.Submit)
			protected.GET("/submissions", submissionHandler.List)
			protected.GET("/submissions/:id", submissionHandler.Get)
		}
	}

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func handleCommand(cmd string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	switch cmd {
	case "migrate":
		if err := database.Migrate(db); err != nil {
			log.Fatal("Migration failed:", err)
		}
		log.Println("Migration completed successfully")

	case "seed-admin":
		seedAdmin(db, cfg)

	case "seed-demo":
		seedDemoExam(db)

	default:
		log.Printf("Unknown command: %s", cmd)
	}
}

func seedAdmin(db *gorm.DB, cfg *config.Config) {
	authService := services.NewAuthService(db, cfg)

	var count int64
	db.Model(&models.User{}).Where("role = ?", "admin").Count(&count)
	if count > 0 {
		log.Println("Admin already exists")
		return
	}

	admin := &models.User{
		Email:    "admin@exam.local",
		FullName: "System Administrator",
		Role:     "admin",
		IsActive: true,
	}

	if err := authService.CreateUser(admin, "Admin@123"); err != nil {
		log.Fatal("Failed to create admin:", err)
	}

	log.Println("Admin: admin@exam.local / Admin@123")
}

func seedDemoExam(db *gorm.DB) {
	var count int64
	db.Model(&models.Exam{}).Count(&count)
	if count > 0 {
		log.Println("Exams already exist")
		return
	}

	exam := models.Exam{
		Title:           "Sample Exam",
		Course:          "Math 101",
		DurationMinutes: 30,
	}
	if err := db.Create(&exam).Error; err != nil {
		log.Fatal("Failed to seed exam:", err)
	}

	questions := []models.Question{
		{
			ExamID:         exam.ID,
			Text:           "What is 2 + 2?",
			QuestionType:   models.QuestionTypeObjective,
			ExpectedAnswer: "4",
			MaxScore:       1.0,
		},
		{
			ExamID:         exam.ID,
			Text:           "Name a prime number between 10 and 20.",
			QuestionType:   models.QuestionTypeObjective,
			ExpectedAnswer: "11-19",
			MaxScore:       1.0,
		},
		{
			ExamID:         exam.ID,
			Text:           "Explain Pythagoras theorem briefly.",
			QuestionType:   models.QuestionTypeEssay,
			ExpectedAnswer: "right-angled, square, hypotenuse, sum of squares",
			MaxScore:       4.0,
		},
	}
	if err := db.Create(&questions).Error; err != nil {
		log.Fatal("Failed to seed questions:", err)
	}

	log.Printf("Seeded exam %q with %d questions", exam.Title, len(questions))
}
