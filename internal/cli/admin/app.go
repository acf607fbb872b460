// Package admin implements the kioskd daemon commands.
package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/odclabs/kiosk/internal/config"
	"github.com/odclabs/kiosk/internal/corpus"
	"github.com/odclabs/kiosk/internal/database"
	"github.com/odclabs/kiosk/internal/domain"
	"github.com/odclabs/kiosk/internal/index"
	"github.com/odclabs/kiosk/internal/openai"
	"github.com/odclabs/kiosk/internal/repository"
	"github.com/odclabs/kiosk/internal/service"
	"github.com/odclabs/kiosk/internal/storage"
)

// app holds the wired components shared by the serve and rebuild
// commands.
type app struct {
	cfg       *config.Config
	client    *openai.Client
	retriever service.Retriever
	rebuilder *service.Rebuilder
	syncer    *storage.S3Client
	pool      *pgxpool.Pool
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// buildApp wires the question pipeline's dependencies from config. The
// progress callback, when non-nil, is forwarded to the rebuilder for
// interactive use.
func buildApp(ctx context.Context, cfg *config.Config, migrateDB bool, progress func(done, total int)) (*app, error) {
	if !cfg.HasOpenAI() {
		return nil, fmt.Errorf("KIOSK_OPENAI_API_KEY is required")
	}

	client := openai.NewClientWithConfig(openai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		EmbeddingModel: cfg.EmbeddingModel,
		ChatModel:      cfg.ChatModel,
	})

	a := &app{cfg: cfg, client: client}

	var store service.IndexStore
	switch {
	case cfg.UsesPostgresIndex():
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.pool = pool
		log.Println("connected to database")

		if migrateDB {
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				a.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		repo := repository.NewPassageRepository(pool)
		pgRetriever := service.NewPostgresRetriever(client, repo, float32(cfg.ScoreThreshold))
		if err := pgRetriever.CheckModel(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("stored index is unusable: %w", err)
		}
		a.retriever = pgRetriever
		store = repo

	default:
		fileRetriever := service.NewFileRetriever(client, cfg.IndexDir, float32(cfg.ScoreThreshold))
		if err := fileRetriever.Load(); err != nil {
			if index.IsModelMismatch(err) {
				return nil, fmt.Errorf("stored index is unusable: %w", err)
			}
			// No index yet; the pipeline degrades to general answers
			// until the first rebuild.
			log.Printf("no vector index loaded yet: %v", err)
		}
		a.retriever = fileRetriever
		store = service.NewFileIndexStore(cfg.IndexDir, fileRetriever)
	}

	chunker, err := service.NewChunker(service.ChunkConfig{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap})
	if err != nil {
		a.Close()
		return nil, err
	}

	loadCorpus := func() ([]domain.Document, error) { return corpus.Load(cfg.CorpusDir) }
	a.rebuilder = service.NewRebuilder(loadCorpus, chunker, client, store, service.RebuildConfig{
		BatchSize:        cfg.EmbedBatchSize,
		BatchesPerSecond: cfg.EmbedBatchesPerSecond,
		Progress:         progress,
	})

	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		a.syncer = s3Client
	}

	return a, nil
}

// corpusSyncAdapter narrows the S3 client to the rebuild task's needs.
type corpusSyncAdapter struct {
	client *storage.S3Client
}

func (a corpusSyncAdapter) SyncCorpus(ctx context.Context, destDir string) error {
	_, err := a.client.SyncCorpus(ctx, destDir)
	return err
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
