package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lmorrow/quizforge/config"
	"github.com/lmorrow/quizforge/database"
	adminctrl "github.com/lmorrow/quizforge/internal/controller/admin"
	userctrl "github.com/lmorrow/quizforge/internal/controller/user"
	"github.com/lmorrow/quizforge/internal/logger"
	"github.com/lmorrow/quizforge/internal/model"
	"github.com/lmorrow/quizforge/internal/repository"
	"github.com/lmorrow/quizforge/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Quizforge API
// @version 1.0
// @description Tutoring quiz platform: templated question generation, pooled quizzes, tokenized student links and AI-assisted explanations.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		fx.Provide(
			repository.NewTopicRepository,
			repository.NewBankQuestionRepository,
			repository.NewTemplateRepository,
			repository.NewQuizRepository,
			repository.NewPoolRepository,
			repository.NewStudentLinkRepository,
			repository.NewAttemptRepository,
			repository.NewAttemptItemRepository,
			repository.NewAnswerRepository,
		),

		fx.Provide(
			service.NewGeminiLLMService,
			service.NewDistractorService,
			service.NewExplanationService,
			service.NewPoolSamplerService,
			service.NewTemplateService,
			service.NewQuizService,
			service.NewAttemptService,
			service.NewGradingService,
			service.NewItemGeneratorService,
			service.NewMailer,
			service.NewLinkService,
		),

		fx.Provide(
			adminctrl.NewController,
			userctrl.NewController,
		),

		fx.Invoke(AutoMigrateDB),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI at /swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer wires the controllers onto the engine and
// manages the HTTP server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	adminCtrl *adminctrl.Controller,
	userCtrl *userctrl.Controller,
) {
	adminCtrl.RegisterRoutes(router)
	userCtrl.RegisterRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Quizforge API server starting on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Topic{},
		&model.BankQuestion{},
		&model.QuestionTemplate{},
		&model.TemplateVersion{},
		&model.Quiz{},
		&model.Question{},
		&model.QuizPool{},
		&model.StudentLink{},
		&model.Attempt{},
		&model.AttemptItem{},
		&model.Answer{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
