/**
 * HTTP intake surface
 *
 * POST /ocr/batch        synchronous batch extraction
 * POST /ocr/batch/async  enqueue a batch, poll for the result
 * GET  /ocr/batch/{id}   async batch status and result
 * GET  /healthz          readiness
 */

package server

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/king-song823/orcPig/internal/config"
	pipeerrors "github.com/king-song823/orcPig/internal/errors"
	"github.com/king-song823/orcPig/internal/logging"
	"github.com/king-song823/orcPig/internal/pipeline"
	"github.com/king-song823/orcPig/internal/queue"
)

// BatchStore persists completed batches. Persistence is best effort; a
// storage failure never fails the request.
type BatchStore interface {
	SaveBatch(ctx context.Context, batchID string, result *pipeline.BatchResult) error
}

// Server is the HTTP intake service
type Server struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	enqueuer *queue.Enqueuer
	status   *queue.StatusStore
	store    BatchStore
	logger   *logging.Logger
	mux      *http.ServeMux
}

// New wires the intake server. enqueuer, status, and store may be nil when
// the async path or persistence is not configured.
func New(cfg *config.Config, p *pipeline.Pipeline, enqueuer *queue.Enqueuer, status *queue.StatusStore, store BatchStore) *Server {
	logger := logging.NewLogger("Server")
	logger.SetDebug(cfg.Debug)

	s := &Server{
		cfg:      cfg,
		pipeline: p,
		enqueuer: enqueuer,
		status:   status,
		store:    store,
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	limiter := newIPLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	sem := semaphore.NewWeighted(int64(cfg.OCRConcurrency) * 2)

	common := []middleware{withRecovery(logger), withLogging(logger)}
	heavy := append(append([]middleware{}, common...), withRateLimit(limiter), withConcurrencyCap(sem))

	s.mux.Handle("/ocr/batch", chain(s.routeBatch(), heavy...))
	s.mux.Handle("/ocr/batch/async", chain(http.HandlerFunc(s.handleBatchAsync), append(heavy, withMethod(http.MethodPost))...))
	s.mux.Handle("/ocr/batch/", chain(http.HandlerFunc(s.handleBatchStatus), append(common, withMethod(http.MethodGet))...))
	s.mux.Handle("/healthz", chain(http.HandlerFunc(s.handleHealth), common...))

	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// routeBatch keeps POST /ocr/batch distinct from GET /ocr/batch/{id}
func (s *Server) routeBatch() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleBatch(w, r)
	})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	images, ok := s.readBatch(w, r)
	if !ok {
		return
	}

	batchID := uuid.New().String()
	result := s.pipeline.ProcessBatch(r.Context(), images)

	if s.store != nil {
		if err := s.store.SaveBatch(r.Context(), batchID, result); err != nil {
			s.logger.Warn("Batch persistence failed", "batchId", batchID, "error", err)
		}
	}

	s.logger.Info("Batch processed", "batchId", batchID, "pages", len(images))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBatchAsync(w http.ResponseWriter, r *http.Request) {
	if s.enqueuer == nil {
		writeErr(w, http.StatusNotImplemented, "async processing not configured")
		return
	}

	images, ok := s.readBatch(w, r)
	if !ok {
		return
	}

	batchID := uuid.New().String()
	if err := s.enqueuer.Enqueue(r.Context(), batchID, images); err != nil {
		s.logger.Error("Enqueue failed", "batchId", batchID, "error", err)
		writeErr(w, http.StatusInternalServerError, pipeerrors.NewQueueFailedError(batchID, err).Message)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"batchId": batchID,
		"status":  queue.StatusPending,
	})
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		writeErr(w, http.StatusNotImplemented, "async processing not configured")
		return
	}

	batchID := strings.TrimPrefix(r.URL.Path, "/ocr/batch/")
	if batchID == "" || strings.Contains(batchID, "/") {
		writeErr(w, http.StatusNotFound, "batch not found")
		return
	}

	status, err := s.status.Get(r.Context(), batchID)
	if err != nil {
		writeErr(w, http.StatusNotFound, "batch not found")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readBatch parses the multipart form and loads every uploaded page. The
// second return is false when an error response was already written.
func (s *Server) readBatch(w http.ResponseWriter, r *http.Request) ([]pipeline.Image, bool) {
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid multipart form")
		return nil, false
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["files"]
	}

	if len(files) == 0 {
		writeErr(w, http.StatusBadRequest, pipeerrors.NewNoFilesError().Message)
		return nil, false
	}
	if len(files) > s.cfg.MaxBatchSize {
		writeErr(w, http.StatusBadRequest, pipeerrors.NewBatchTooLargeError(len(files), s.cfg.MaxBatchSize).Message)
		return nil, false
	}

	images := make([]pipeline.Image, 0, len(files))
	for _, fh := range files {
		data, err := readUpload(fh)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "failed to read uploaded file")
			return nil, false
		}
		images = append(images, pipeline.Image{Filename: fh.Filename, Data: data})
	}

	return images, true
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
