package main

import (
	"context"
	"log"
	"time"

	"anoa.com/campusadmin/internal/bootstrap"
	"anoa.com/campusadmin/internal/config"
	accountRepo "anoa.com/campusadmin/internal/modules/account/repository"
	searchService "anoa.com/campusadmin/internal/modules/search/service"
	"anoa.com/campusadmin/internal/server"
	"anoa.com/campusadmin/pkg/database"
	"anoa.com/campusadmin/pkg/storage"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	db, err := database.Connect(database.Options{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Name:     cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
		Debug:    cfg.IsDevelopment(),
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = bootstrap.SeedSuperAdmin(ctx, accountRepo.NewAccountRepository(db), cfg.SeedSuperAdminEmail, cfg.SeedSuperAdminPassword, bcrypt.DefaultCost)
	cancel()
	if err != nil {
		log.Fatalf("failed to seed super admin: %v", err)
	}

	redisClient := connectRedis(cfg.RedisURL)

	fileStorage, err := storage.NewCloudinaryStorage(cfg.CloudinaryURL, cfg.CloudinaryUploadFolder)
	if err != nil {
		log.Fatalf("failed to initialize cloudinary storage: %v", err)
	}

	deps := server.Deps{
		DB:          db,
		Redis:       redisClient,
		FileStorage: fileStorage,
	}
	if cfg.MeiliSearchHost != "" {
		meiliClient := meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		deps.Search = searchService.NewMeiliSearchService(meiliClient)
	} else {
		log.Println("[search] MEILISEARCH_HOST not set, subject search uses the database")
	}

	srv, err := server.NewServer(cfg, deps)
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	log.Printf("listening on :%s", cfg.Port)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

// connectRedis returns nil when url is empty or the server is unreachable;
// rate limiting, realtime notifications, the stats cache and the correction
// queue are then disabled.
func connectRedis(url string) *redis.Client {
	if url == "" {
		log.Println("[redis] REDIS_URL not set, running without redis")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[redis] invalid REDIS_URL: %v", err)
		return nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[redis] ping failed, running without redis: %v", err)
		_ = client.Close()
		return nil
	}
	return client
}
