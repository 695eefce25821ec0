package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/dto"
	"github.com/dmitrijs2005/photovault/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *HTTPServer) ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("pong"))
}

func (s *HTTPServer) listMetadata(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var since *time.Time
	if from := r.URL.Query().Get("from"); from != "" {
		sec, err := strconv.ParseInt(from, 10, 64)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("bad from %q: %w", from, common.ErrValidation))
			return
		}
		t := time.Unix(sec, 0).UTC()
		since = &t
	}

	recs, err := s.files.ListSince(r.Context(), userID, since)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]dto.FileMetadata, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toMetadata(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) pushMetadata(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req dto.FilesUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("decode body: %w: %w", common.ErrValidation, err))
		return
	}

	n, err := s.files.PushMetadata(r.Context(), userID, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PushMetadataResponse{Created: n})
}

func (s *HTTPServer) uploadData(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	fileID, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("bad uuid: %w", common.ErrValidation))
		return
	}

	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", common.ErrValidation, err))
		return
	}

	res, err := s.files.Upload(r.Context(), userID, fileID, &multipartParts{mr: mr})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.UploadResponse{Parts: res.Parts, Resumed: res.Resumed})
}

func (s *HTTPServer) downloadData(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	fileID, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("bad uuid: %w", common.ErrValidation))
		return
	}

	blob, err := s.files.Download(r.Context(), userID, fileID, r.URL.Query().Get("variant"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Data)
}

func (s *HTTPServer) getKeys(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	v, err := s.keys.Get(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.KeysResponse{Value: v})
}

func (s *HTTPServer) saveKeys(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req dto.SaveKeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("decode body: %w: %w", common.ErrValidation, err))
		return
	}

	if err := s.keys.Save(r.Context(), userID, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func toMetadata(rec *models.FileRecord) dto.FileMetadata {
	added := rec.AddedAt
	owner, uploader := rec.OwnerID, rec.UploaderID
	return dto.FileMetadata{
		Path:       rec.Path,
		UUID:       rec.UUID,
		Date:       rec.CreatedAt,
		SHA256:     rec.ContentHash,
		Key:        rec.KeyEnvelope,
		State:      rec.State.String(),
		AddedAt:    &added,
		SyncedAt:   rec.SyncedAt,
		OwnerID:    &owner,
		UploaderID: &uploader,
	}
}
