package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/vbonduro/kissthem/internal/artifactstore"
	"github.com/vbonduro/kissthem/internal/auth"
	"github.com/vbonduro/kissthem/internal/service"
)

const (
	serviceName  = "Kiss them! Backend"
	maxBodyBytes = 50 << 20
)

type secretResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// Options configures a Server. Files and Metrics are optional.
type Options struct {
	Photos             *service.PhotoService
	Gallery            *service.GalleryService
	Verifier           auth.UserVerifier
	Secrets            secretResolver
	ClientIDSecretName string

	// Files serves artifacts under /files/ when the artifact store is local.
	Files artifactstore.Reader
	// Metrics is mounted at /metrics.
	Metrics http.Handler

	AllowedOrigins []string
	RateLimit      rate.Limit
	RateBurst      int
	Version        string
	Logger         *slog.Logger
}

type Server struct {
	photos             *service.PhotoService
	gallery            *service.GalleryService
	secrets            secretResolver
	clientIDSecretName string
	files              artifactstore.Reader
	version            string
	logger             *slog.Logger

	router  chi.Router
	handler http.Handler
	now     func() time.Time
}

func NewServer(opts Options) *Server {
	s := &Server{
		photos:             opts.Photos,
		gallery:            opts.Gallery,
		secrets:            opts.Secrets,
		clientIDSecretName: opts.ClientIDSecretName,
		files:              opts.Files,
		version:            opts.Version,
		logger:             opts.Logger,
		router:             chi.NewRouter(),
		now:                time.Now,
	}
	s.registerRoutes(opts)
	s.handler = requestLogger(s.logger, securityHeaders(cors(opts.AllowedOrigins, s.router)))
	return s
}

func (s *Server) registerRoutes(opts Options) {
	r := s.router
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/api/oauth-client-id", s.handleClientID)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	if s.files != nil {
		r.Get("/files/*", s.handleFile)
	}

	limiter := newRateLimiter(opts.RateLimit, opts.RateBurst)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(opts.Verifier))
		r.With(limiter.middleware).Post("/api/process-image", s.handleProcessImage)
		r.Get("/api/gallery", s.handleListGallery)
		r.Delete("/api/gallery", s.handleDeleteGallery)
		r.Delete("/api/photos/{photoId}", s.handleDeletePhoto)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
