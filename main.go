package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rpupo63/unified-personal-site-frontend/api"
	"github.com/rpupo63/unified-personal-site-frontend/config"
	"github.com/rpupo63/unified-personal-site-frontend/database"
	"github.com/rpupo63/unified-personal-site-frontend/editor"
	"github.com/rpupo63/unified-personal-site-frontend/models"
	"github.com/rpupo63/unified-personal-site-frontend/remote"
	"github.com/rpupo63/unified-personal-site-frontend/session"
	"github.com/rpupo63/unified-personal-site-frontend/storage"
)

func main() {
	fmt.Println("Initializing app...")

	// Load environment variables from .env file
	c := config.Load()
	setupLogging(c)

	ctx := context.Background()
	deps := api.Dependencies{}

	// Upload journal
	dbType := config.GetString(c, "DB_TYPE", "memory")
	log.Info().Str("dbType", dbType).Msg("Opening upload journal")
	switch dbType {
	case "supa":
		db, err := openSupabase(c)
		if err != nil {
			log.Fatal().Err(err).Msg("Error connecting to database")
		}

		// If generating models, run generation and exit
		if config.GetBool(c, "GENERATE_MODELS", false) {
			log.Info().Msg("Generating models and query helpers...")
			if err := models.GenerateModels(db, log.Logger); err != nil {
				log.Fatal().Err(err).Msg("Model generation failed")
			}
			return
		}

		// If generating column mismatch report, run report and exit
		if config.GetBool(c, "GENERATE_COLUMN_REPORT", false) {
			report, err := models.ColumnMismatchReport(db)
			if err != nil {
				log.Fatal().Err(err).Msg("Column report failed")
			}
			for table, columns := range report {
				log.Warn().Str("table", table).Strs("unmappedColumns", columns).Msg("Column mismatch")
			}
			return
		}

		currentDB := database.New(db)
		if err := currentDB.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("Error migrating database")
		}
		deps.Journal = currentDB.PendingUploadRepo()
		deps.Health = currentDB.Ping
	case "memory":
		deps.Journal = editor.NewMemoryJournal()
	default:
		log.Fatal().Str("dbType", dbType).Msg("Unsupported DB_TYPE")
	}

	// Sessions
	var store session.Store
	switch storeType := config.GetString(c, "SESSION_STORE", "memory"); storeType {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     config.GetString(c, "REDIS_ADDR", "localhost:6379"),
			Password: config.GetString(c, "REDIS_PASSWORD", ""),
			DB:       config.GetInt(c, "REDIS_DB", 0),
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("Error connecting to redis")
		}
		defer client.Close()
		store = session.NewRedisStore(client, "")
	case "memory":
		store = session.NewMemoryStore()
	default:
		log.Fatal().Str("sessionStore", storeType).Msg("Unsupported SESSION_STORE")
	}
	ttl := time.Duration(config.GetInt(c, "SESSION_TTL_HOURS", 24)) * time.Hour
	deps.Sessions = session.NewManager(store, ttl)

	// Downloads
	switch sinkType := config.GetString(c, "ASSET_SINK", "file"); sinkType {
	case "s3":
		sink, err := storage.NewS3SinkFromEnv(ctx, config.GetString(c, "S3_BUCKET", ""), config.GetString(c, "S3_PREFIX", "downloads"))
		if err != nil {
			log.Fatal().Err(err).Msg("Error configuring S3 asset sink")
		}
		deps.Sink = sink
	case "file":
		deps.Sink = storage.NewFileSink(config.GetString(c, "ASSET_DIR", "downloads"))
	default:
		log.Fatal().Str("assetSink", sinkType).Msg("Unsupported ASSET_SINK")
	}

	// Upstream API
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Gatherer = registry
	deps.Client = remote.NewClient(
		config.GetString(c, "API_BASE_URL", "http://localhost:5000"),
		remote.WithTimeout(config.GetSeconds(c, "UPSTREAM_TIMEOUT_SECONDS", 30)),
		remote.WithMaxDownload(int64(config.GetInt(c, "MAX_DOWNLOAD_MB", 256))<<20),
		remote.WithMetrics(remote.NewMetrics(registry)),
	)

	errChannel := make(chan error)
	defer close(errChannel)

	server, err := api.NewServer(c, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

func setupLogging(c map[string]string) {
	level, err := zerolog.ParseLevel(config.GetString(c, "LOG_LEVEL", "info"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.GetBool(c, "LOG_PRETTY", true) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func openSupabase(c map[string]string) (*gorm.DB, error) {
	connStr := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
		config.GetString(c, "SUPABASE_DB_HOST", ""),
		config.GetString(c, "SUPABASE_DB_USER", ""),
		config.GetString(c, "SUPABASE_DB_PASSWORD", ""),
		config.GetString(c, "SUPABASE_DB_NAME", ""),
		config.GetString(c, "SUPABASE_DB_PORT", "5432"),
	)
	log.Info().Msg("Connecting to Supabase database...")

	newLogger := logger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      newLogger,
	})
	if err != nil {
		return nil, err
	}

	// Test database connection
	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, fmt.Errorf("testing database connection: %w", err)
	}
	return db, nil
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
