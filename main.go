package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"assessment-service/internal/config"
	"assessment-service/internal/db"
	"assessment-service/internal/event"
	"assessment-service/internal/handlers"
	"assessment-service/internal/repository"
	"assessment-service/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg := config.Load()
	if cfg.MongoURI == "" {
		log.Fatal("MONGO_URI is required")
	}
	db.InitMongo(cfg.MongoURI)
	defer db.Disconnect()

	var publisher *event.Publisher
	if cfg.RabbitURI != "" && cfg.RabbitExchange != "" {
		var err error
		publisher, err = event.NewPublisher(cfg.RabbitURI, cfg.RabbitExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, lifecycle events will not be published")
	}

	database := db.Client.Database(cfg.MongoDatabase)

	userRepo := repository.NewUserRepository(database)
	questionRepo := repository.NewQuestionRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	certRepo := repository.NewCertificateRepository(database)

	// The partial unique session index and the certificate uniqueness
	// constraints are part of the engine's correctness, not an optimization.
	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := questionRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to create question indexes: %v", err)
	}
	if err := sessionRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to create session indexes: %v", err)
	}
	if err := certRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to create certificate indexes: %v", err)
	}

	certService := service.NewCertificateService(certRepo, userRepo, publisher)
	assessmentService := service.NewAssessmentService(
		userRepo,
		questionRepo,
		sessionRepo,
		certService,
		publisher,
		cfg.QuestionsPerLevel,
		cfg.SecondsPerQuestion,
	)
	supervisorService := service.NewSupervisorService(sessionRepo, questionRepo, publisher)
	questionService := service.NewQuestionService(questionRepo)

	assessmentHandler := handlers.NewAssessmentHandler(assessmentService)
	certificateHandler := handlers.NewCertificateHandler(certService)
	supervisorHandler := handlers.NewSupervisorHandler(supervisorService)
	questionHandler := handlers.NewQuestionHandler(questionService)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "X-User-ID", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api/v1")

	assessments := api.Group("/assessments")
	assessments.Use(handlers.RequireUserID())
	{
		assessments.POST("/start", assessmentHandler.Start)
		assessments.GET("/active", assessmentHandler.Active)
		assessments.POST("/:sessionId/submit", assessmentHandler.SubmitStep)
		assessments.POST("/:sessionId/next", assessmentHandler.NextStep)
	}

	questions := api.Group("/questions")
	questions.Use(handlers.RequireUserID())
	{
		questions.POST("/", questionHandler.Create)
		questions.POST("/bulk", questionHandler.BulkCreate)
		questions.GET("/", questionHandler.List)
		questions.GET("/pool", questionHandler.PoolInfo)
		questions.GET("/:id", questionHandler.Get)
		questions.PUT("/:id", questionHandler.Update)
		questions.DELETE("/:id", questionHandler.Deactivate)
	}

	certificates := api.Group("/certificates")
	{
		certificates.GET("/me", handlers.RequireUserID(), certificateHandler.Mine)
		certificates.GET("/verify/:uid", certificateHandler.Verify)
		certificates.POST("/:id/revoke", handlers.RequireUserID(), certificateHandler.Revoke)
	}

	supervisor := api.Group("/supervisor")
	supervisor.Use(handlers.RequireUserID())
	{
		supervisor.GET("/sessions", supervisorHandler.ListSessions)
		supervisor.GET("/sessions/:id", supervisorHandler.SessionDetail)
		supervisor.POST("/sessions/:id/force-submit", supervisorHandler.ForceSubmit)
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}
