package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"google.golang.org/api/idtoken"

	"github.com/vbonduro/kissthem/internal/artifactstore"
	"github.com/vbonduro/kissthem/internal/artifactstore/gcs"
	"github.com/vbonduro/kissthem/internal/artifactstore/local"
	"github.com/vbonduro/kissthem/internal/auth"
	"github.com/vbonduro/kissthem/internal/config"
	"github.com/vbonduro/kissthem/internal/db"
	"github.com/vbonduro/kissthem/internal/domain"
	"github.com/vbonduro/kissthem/internal/imagegen"
	claudenamer "github.com/vbonduro/kissthem/internal/imagegen/claude"
	"github.com/vbonduro/kissthem/internal/imagegen/gemini"
	"github.com/vbonduro/kissthem/internal/logging"
	"github.com/vbonduro/kissthem/internal/metrics"
	"github.com/vbonduro/kissthem/internal/secrets"
	"github.com/vbonduro/kissthem/internal/secrets/gsm"
	"github.com/vbonduro/kissthem/internal/service"
	"github.com/vbonduro/kissthem/internal/store"
	mongostore "github.com/vbonduro/kissthem/internal/store/mongo"
	"github.com/vbonduro/kissthem/internal/web"
)

var version = "dev"

// photoRepository is satisfied by both metadata backends.
type photoRepository interface {
	Save(ctx context.Context, p *domain.Photo) error
	Get(ctx context.Context, id string) (*domain.Photo, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Photo, error)
	Delete(ctx context.Context, id string) error
}

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New("kissthem", cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	resolver, err := newResolver(ctx, cfg, logger)
	if err != nil {
		return err
	}

	artifacts, closeArtifacts, err := newArtifactStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeArtifacts()

	photos, closePhotos, err := newPhotoRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePhotos()

	validator, err := idtoken.NewValidator(ctx)
	if err != nil {
		return fmt.Errorf("failed to create id token validator: %w", err)
	}
	verifier := auth.NewVerifier(validator, resolver, cfg.ClientIDSecretName, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.NewMetrics(registry)
	if err != nil {
		return err
	}

	provider := gemini.NewProvider(cfg.GeminiNameModel, cfg.GeminiImageModel)
	photoService := service.NewPhotoService(resolver, cfg.ModelSecretName, provider, newNamer(cfg, logger), artifacts, photos, m, logger)
	galleryService := service.NewGalleryService(photos, artifacts, m, logger)

	opts := web.Options{
		Photos:             photoService,
		Gallery:            galleryService,
		Verifier:           verifier,
		Secrets:            resolver,
		ClientIDSecretName: cfg.ClientIDSecretName,
		Metrics:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AllowedOrigins:     cfg.AllowedOrigins,
		RateLimit:          rate.Limit(cfg.RateLimitRPS),
		RateBurst:          cfg.RateLimitBurst,
		Version:            version,
		Logger:             logger,
	}
	if r, ok := artifacts.(artifactstore.Reader); ok {
		opts.Files = r
	}

	return web.NewServer(opts).ListenAndServe(ctx, cfg.ListenAddr)
}

func newResolver(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*secrets.Resolver, error) {
	opts := []secrets.Option{secrets.WithLogger(logger)}
	if !cfg.IsProduction() {
		fallbacks, err := godotenv.Read(cfg.DevSecretsFile)
		switch {
		case err == nil:
			logger.Warn("development secret fallbacks enabled", "file", cfg.DevSecretsFile, "count", len(fallbacks))
			opts = append(opts, secrets.WithDevFallbacks(fallbacks))
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read dev secrets: %w", err)
		}
	}

	var remote secrets.Store
	switch cfg.SecretBackend {
	case "gsm":
		s, err := gsm.New(ctx, cfg.GCPProject)
		if err != nil {
			return nil, err
		}
		remote = s
	case "none":
		logger.Info("remote secret store disabled")
	default:
		return nil, fmt.Errorf("unknown secret backend %q", cfg.SecretBackend)
	}
	return secrets.NewResolver(remote, opts...), nil
}

func newArtifactStore(ctx context.Context, cfg *config.Config) (artifactstore.Store, func(), error) {
	switch cfg.ArtifactBackend {
	case "gcs":
		s, err := gcs.New(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "local":
		s, err := local.NewStore(cfg.ArtifactLocalPath, cfg.PublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown artifact backend %q", cfg.ArtifactBackend)
	}
}

func newPhotoRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (photoRepository, func(), error) {
	switch cfg.MetadataBackend {
	case "mongo":
		client, err := mongostore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		s := mongostore.NewPhotoStore(client.Database(cfg.MongoDatabase))
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return s, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Error("failed to disconnect from mongo", "error", err)
			}
		}, nil
	case "sqlite":
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		return store.NewPhotoStore(database), func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown metadata backend %q", cfg.MetadataBackend)
	}
}

// newNamer returns nil when names should come from the Gemini session.
func newNamer(cfg *config.Config, logger *slog.Logger) imagegen.Namer {
	if cfg.NamingBackend != "claude" {
		return nil
	}
	if cfg.ClaudeAPIKey == "" {
		logger.Error("CLAUDE_API_KEY is required when NAMING_BACKEND=claude, using gemini")
		return nil
	}
	logger.Info("using Claude naming backend", "model", cfg.ClaudeModel)
	return claudenamer.NewNamer(cfg.ClaudeAPIKey, cfg.ClaudeModel)
}
