// Package api exposes the file and key services over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/photovault/internal/dto"
	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/dmitrijs2005/photovault/internal/server/blobstore"
	"github.com/dmitrijs2005/photovault/internal/server/models"
	"github.com/dmitrijs2005/photovault/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// FileService is the part of services.FileService used by the handlers.
type FileService interface {
	PushMetadata(ctx context.Context, callerID uuid.UUID, req *dto.FilesUploadRequest) (int, error)
	ListSince(ctx context.Context, callerID uuid.UUID, since *time.Time) ([]*models.FileRecord, error)
	Upload(ctx context.Context, callerID, fileID uuid.UUID, parts services.PartReader) (*services.UploadResult, error)
	Download(ctx context.Context, callerID, fileID uuid.UUID, variant string) (*blobstore.Blob, error)
}

// KeyService is the part of services.KeyService used by the handlers.
type KeyService interface {
	Get(ctx context.Context, userID uuid.UUID) (*string, error)
	Save(ctx context.Context, userID uuid.UUID, req *dto.SaveKeysRequest) error
}

type HTTPServer struct {
	address        string
	files          FileService
	keys           KeyService
	logger         logging.Logger
	jwtSecret      []byte
	maxUploadBytes int64
}

func NewHTTPServer(address string, l logging.Logger, fs FileService, ks KeyService, secretKey string, maxUploadBytes int64) *HTTPServer {
	return &HTTPServer{
		address:        address,
		files:          fs,
		keys:           ks,
		logger:         l.With("module", "http_server"),
		jwtSecret:      []byte(secretKey),
		maxUploadBytes: maxUploadBytes,
	}
}

// Handler returns the routed API.
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", s.ping)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/files/metadata", s.listMetadata)
		r.Post("/files/metadata", s.pushMetadata)
		r.Post("/files/{uuid}/data", s.uploadData)
		r.Get("/files/{uuid}/data", s.downloadData)

		r.Get("/auth/keys", s.getKeys)
		r.Post("/auth/keys", s.saveKeys)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
