package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"quizprep_backend/internal/config"
	"quizprep_backend/internal/controller"
	"quizprep_backend/internal/repository"
	"quizprep_backend/internal/service"
	"quizprep_backend/pkg/configwatcher"
	"quizprep_backend/pkg/database"
	"quizprep_backend/pkg/logger"
	"quizprep_backend/pkg/monitoring"
	"quizprep_backend/pkg/security"
	"quizprep_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user         *repository.UserRepository
	question     *repository.QuestionRepository
	quizSession  *repository.QuizSessionRepository
	attempt      *repository.QuestionAttemptRepository
	topic        *repository.TopicAnalysisRepository
	userAnalysis *repository.UserAnalysisRepository
	streak       *repository.StreakRepository
}

type services struct {
	auth         *service.AuthService
	user         *service.UserService
	quiz         *service.QuizService
	chatStore    *service.ChatSessionStore
	chatQuiz     *service.ChatQuizService
	bot          *service.QuizBot
	streak       *service.StreakService
	topic        *service.TopicAnalysisService
	userAnalysis *service.UserAnalysisService
	export       *service.ExportService
}

type controllers struct {
	auth     *controller.AuthController
	quiz     *controller.QuizController
	analysis *controller.AnalysisController
	user     *controller.UserController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		question:     repository.NewQuestionRepository(db),
		quizSession:  repository.NewQuizSessionRepository(db),
		attempt:      repository.NewQuestionAttemptRepository(db),
		topic:        repository.NewTopicAnalysisRepository(db),
		userAnalysis: repository.NewUserAnalysisRepository(db),
		streak:       repository.NewStreakRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)

	s.streak = service.NewStreakService(repos.quizSession, repos.streak)
	s.topic = service.NewTopicAnalysisService(repos.topic)
	s.userAnalysis = service.NewUserAnalysisService(repos.quizSession, repos.attempt, repos.userAnalysis, rdb)

	s.quiz = service.NewQuizService(
		repos.question,
		repos.quizSession,
		repos.attempt,
		s.streak,
		s.topic,
		s.userAnalysis,
		cfg,
	)

	s.chatStore = service.NewChatSessionStore(cfg.Quiz.SessionIdleTTL, cfg.Quiz.ReaperInterval)
	go s.chatStore.Run()

	s.chatQuiz = service.NewChatQuizService(s.chatStore, s.quiz, cfg)

	if cfg.Telegram.Enabled {
		bot, err := service.NewQuizBot(cfg, s.chatQuiz, s.user, repos.user, s.streak, s.userAnalysis)
		if err != nil {
			logger.Log.Error("Failed to initialize telegram bot", zap.Error(err))
		} else {
			s.bot = bot
			go bot.Run()
		}
	}

	if cfg.Storage.MinioEndpoint != "" {
		export, err := service.NewExportService(repos.attempt, &cfg.Storage)
		if err != nil {
			logger.Log.Error("Failed to initialize export service", zap.Error(err))
		} else {
			s.export = export
		}
	}

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		quiz:     controller.NewQuizController(s.quiz),
		analysis: controller.NewAnalysisController(s.topic, s.userAnalysis, s.streak, s.export),
		user:     controller.NewUserController(s.user),
		health:   controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("quiz-prep", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	// 配置热更新，变更通过回调下发
	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(newCfg interface{}) {
		c, ok := newCfg.(*config.Config)
		if !ok {
			return
		}
		logger.Log.Info("Config reloaded")
		for _, callback := range app.configCallbacks {
			callback(c)
		}
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 停掉机器人长轮询与会话清理任务
	if a.services != nil {
		if a.services.bot != nil {
			a.services.bot.Stop()
		}
		if a.services.chatStore != nil {
			a.services.chatStore.Stop()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
