package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	apimod "github.com/example/task-tracker/modules/api"
	authmod "github.com/example/task-tracker/modules/auth"
	cachemod "github.com/example/task-tracker/modules/cache"
	commentmod "github.com/example/task-tracker/modules/comment"
	taskmod "github.com/example/task-tracker/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	dbPath := getEnv("DB_PATH", "./tasks.db")
	httpPort := getEnvInt("HTTP_PORT", 3000)
	cacheTTL := getEnvDuration("CACHE_TTL", 5*time.Minute)
	cachePrefix := getEnv("CACHE_PREFIX", "tracker:")

	jwtCfg := authmod.DefaultJWTConfig()
	if key := os.Getenv("JWT_SECRET"); key != "" {
		jwtCfg.SecretKey = key
	}
	jwtCfg.AccessTokenDuration = getEnvDuration("JWT_ACCESS_TTL", jwtCfg.AccessTokenDuration)

	log.Println("=== Task Tracker ===")
	log.Printf("Redis: %s", redisAddr)
	log.Printf("Database: %s", dbPath)
	log.Printf("HTTP Port: %d", httpPort)
	log.Printf("Cache TTL: %s", cacheTTL)

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	cacheModule := cachemod.NewModule(redisAddr, cachePrefix, cacheTTL)
	authModule := authmod.NewModule(db, jwtCfg)
	taskModule := taskmod.NewModule(db)
	commentModule := commentmod.NewModule(db)
	apiModule := apimod.NewModule(httpPort)

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
	)
	if err != nil {
		log.Fatalf("Failed to create mono application: %v", err)
	}

	app.Register(cacheModule)
	app.Register(authModule)
	app.Register(taskModule)
	app.Register(commentModule)

	// The cache instance only exists after the cache module's Init, so
	// cross-module wiring happens after start; the API module starts
	// last, once every service is in place.
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}
	taskModule.SetCache(cacheModule.GetCache())
	commentModule.SetCache(cacheModule.GetCache())

	apiModule.SetServices(
		authModule.GetService(),
		taskModule.GetService(),
		commentModule.GetService(),
		cacheModule.GetCache(),
	)
	if err := apiModule.Start(ctx); err != nil {
		log.Fatalf("Failed to start API: %v", err)
	}

	log.Println("=== Application Started ===")
	log.Printf("API available at http://localhost:%d", httpPort)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"api": func(ctx context.Context) error {
				return apiModule.Stop(ctx)
			},
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// getEnv returns an environment variable value or the default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as int or the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns an environment variable as duration or the default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
