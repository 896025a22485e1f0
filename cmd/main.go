package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/avdeevko/cropguard/internal/classifier"
	"github.com/avdeevko/cropguard/internal/handlers"
	"github.com/avdeevko/cropguard/internal/hasher"
	appjwt "github.com/avdeevko/cropguard/internal/jwt"
	"github.com/avdeevko/cropguard/internal/logger"
	"github.com/avdeevko/cropguard/internal/middlewares"
	"github.com/avdeevko/cropguard/internal/repositories"
	"github.com/avdeevko/cropguard/internal/services"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "modernc.org/sqlite"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title cropguard API
// @version 1.0.0
// @description Crop disease prediction and treatment advisory service
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	appHost, appPort, logLevel,
		sqlitePath,
		sessionBackend, redisAddr, redisDB, redisPassword,
		kafkaAddr, kafkaTopic,
		classifierMode, weightsPath, classNamesPath, modelConfigPath, inferenceURL,
		treatmentsPath, hasherName,
		jwtSecret, jwtExp, minPasswordLen,
		err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(),
		appHost, appPort, logLevel,
		sqlitePath,
		sessionBackend, redisAddr, redisDB, redisPassword,
		kafkaAddr, kafkaTopic,
		classifierMode, weightsPath, classNamesPath, modelConfigPath, inferenceURL,
		treatmentsPath, hasherName,
		jwtSecret, jwtExp, minPasswordLen,
	); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns all
// application, storage, session, Kafka, classifier, and auth configuration.
func parseConfig(path string) (
	appHost, appPort, logLevel string,
	sqlitePath string,
	sessionBackend, redisAddr string, redisDB int, redisPassword string,
	kafkaAddr, kafkaTopic string,
	classifierMode, weightsPath, classNamesPath, modelConfigPath, inferenceURL string,
	treatmentsPath, hasherName string,
	jwtSecretKey string, jwtExpSecond int, minPasswordLen int,
	err error,
) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	// Application config
	appHost = getEnv("APP_HOST", "localhost")
	appPort = getEnv("APP_PORT", "8080")
	logLevel = getEnv("APP_LOG_LEVEL", "info")

	// Storage config
	sqlitePath = getEnv("SQLITE_PATH", "data/users.db")

	// Session config
	sessionBackend = getEnv("SESSION_BACKEND", "memory")
	redisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	redisPassword = getEnv("REDIS_PASSWORD", "")
	if redisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return
	}

	// Kafka config, optional: empty address disables event publishing
	kafkaAddr = getEnv("KAFKA_ADDR", "")
	kafkaTopic = getEnv("KAFKA_TOPIC", "predictions")

	// Classifier config
	classifierMode = getEnv("CLASSIFIER_MODE", "local")
	weightsPath = getEnv("MODEL_WEIGHTS_PATH", "models/model.json")
	classNamesPath = getEnv("MODEL_CLASS_NAMES_PATH", "config/class_names.json")
	modelConfigPath = getEnv("MODEL_CONFIG_PATH", "config/model_config.json")
	inferenceURL = getEnv("INFERENCE_URL", "http://localhost:9090")

	// Treatment data config
	treatmentsPath = getEnv("TREATMENTS_PATH", "data/treatments.json")

	// Auth config
	hasherName = getEnv("PASSWORD_HASHER", "sha256")
	jwtSecretKey = getEnv("JWT_SECRET_KEY", "my_super_secret_key")
	if jwtExpSecond, err = strconv.Atoi(getEnv("JWT_EXP_SECOND", "3600")); err != nil {
		return
	}
	if minPasswordLen, err = strconv.Atoi(getEnv("PASSWORD_MIN_LENGTH", "4")); err != nil {
		return
	}

	return
}

// run initializes the logger, database, session store, Kafka writer, and
// classifier, sets up routes and middleware, and handles graceful shutdown.
func run(ctx context.Context,
	appHost, appPort, logLevel string,
	sqlitePath string,
	sessionBackend, redisAddr string, redisDB int, redisPassword string,
	kafkaAddr, kafkaTopic string,
	classifierMode, weightsPath, classNamesPath, modelConfigPath, inferenceURL string,
	treatmentsPath, hasherName string,
	jwtSecretKey string, jwtExpSecond int, minPasswordLen int,
) error {
	// Initialize logger
	if err := logger.Initialize(logLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Sync()
	logger.Log.Infof("Logger initialized with level %s", logLevel)

	// Open SQLite and apply migrations
	logger.Log.Infof("Opening SQLite database: %s", sqlitePath)
	db, err := sqlx.ConnectContext(ctx, "sqlite", sqlitePath)
	if err != nil {
		logger.Log.Errorw("SQLite connection error", "path", sqlitePath, "error", err)
		return err
	}
	defer db.Close()
	// One writer at a time: the driver serializes access to the single file.
	db.SetMaxOpenConns(1)

	if err := repositories.RunMigrations(ctx, db.DB); err != nil {
		logger.Log.Errorw("migration error", "error", err)
		return err
	}

	// Session store: in-process by default, Redis when shared sessions are
	// needed across instances
	var sessionStore services.SessionStore
	switch sessionBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: redisPassword,
			DB:       redisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Log.Errorw("Redis connection error", "addr", redisAddr, "error", err)
			return err
		}
		defer rdb.Close()
		sessionStore = repositories.NewRedisSessionStore(rdb)
	case "memory":
		sessionStore = repositories.NewMemorySessionStore()
	default:
		return fmt.Errorf("unknown session backend: %s", sessionBackend)
	}

	// Kafka writer for prediction audit events, optional
	var eventWriter services.KafkaWriter
	if kafkaAddr != "" {
		kw := &kafka.Writer{
			Addr:     kafka.TCP(kafkaAddr),
			Topic:    kafkaTopic,
			Balancer: &kafka.LeastBytes{},
		}
		defer kw.Close()
		eventWriter = kw
	}

	// Load the classifier once; a missing or malformed model artifact is
	// fatal, the service must not start without predictions
	clf, err := classifier.New(classifierMode, classifier.Config{
		WeightsPath:     weightsPath,
		ClassNamesPath:  classNamesPath,
		ModelConfigPath: modelConfigPath,
		RemoteURL:       inferenceURL,
	})
	if err != nil {
		return err
	}
	if err := clf.Load(ctx); err != nil {
		logger.Log.Errorw("classifier load error", "error", err)
		return err
	}

	// Load treatment data and cross-check coverage of the label set
	treatments, err := repositories.NewTreatmentRepository(treatmentsPath)
	if err != nil {
		logger.Log.Errorw("treatment data error", "error", err)
		return err
	}
	if err := treatments.Covers(ctx, clf.Classes()); err != nil {
		logger.Log.Errorw("treatment data does not cover classifier labels", "error", err)
		return err
	}

	// Initialize JWT service and password hasher
	jwt := appjwt.New(
		appjwt.WithSecretKey(jwtSecretKey),
		appjwt.WithExpiration(time.Duration(jwtExpSecond)*time.Second),
	)
	pwHasher, err := hasher.New(hasherName)
	if err != nil {
		return err
	}

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(db)
	userWriteRepo := repositories.NewUserWriteRepository(db)

	// Initialize services
	authService := services.NewAuthService(
		userReadRepo, userWriteRepo, pwHasher, sessionStore, jwt,
		services.WithMinPasswordLength(minPasswordLen),
	)
	predictionService := services.NewPredictionService(clf, treatments, eventWriter)

	// Initialize handlers
	registerHandler := handlers.NewRegisterHandler(authService)
	loginHandler := handlers.NewLoginHandler(authService)
	logoutHandler := handlers.NewLogoutHandler(authService)
	predictHandler := handlers.NewPredictHandler(predictionService)
	diseasesHandler := handlers.NewDiseasesHandler(predictionService)
	treatmentHandler := handlers.NewTreatmentHandler(predictionService)
	statsHandler := handlers.NewStatsHandler(authService)

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware(logger.Log))

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.With(middlewares.TxMiddleware(db)).Post("/register", registerHandler)
		r.Post("/login", loginHandler)
		r.Get("/stats", statsHandler)

		// Protected routes with session middleware
		r.Group(func(r chi.Router) {
			r.Use(middlewares.AuthMiddleware(jwt, authService))
			r.Post("/logout", logoutHandler)
			r.Post("/predict", predictHandler)
			r.Get("/diseases", diseasesHandler)
			r.Get("/diseases/{label}/treatment", treatmentHandler)
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", appHost, appPort)),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", appHost, appPort),
		Handler: r,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", appHost, appPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
