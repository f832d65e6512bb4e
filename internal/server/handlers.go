package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/donexus/lease-extract/internal/doctext"
	"github.com/donexus/lease-extract/internal/model"
	"github.com/donexus/lease-extract/internal/schema"
	"github.com/donexus/lease-extract/internal/store"
)

// maxUploadMemory bounds the multipart form buffer; larger files spill
// to temp files.
const maxUploadMemory = 8 << 20

// uploadResponse is returned for a processed upload, failed runs included.
type uploadResponse struct {
	Success bool                    `json:"success"`
	Result  *model.ExtractionResult `json:"result"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "missing form field \"file\"")
		return
	}
	defer file.Close()

	if err := s.files.ValidateFilename(header.Filename); err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	path, err := s.files.Save(file, header.Filename)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.pipe.Process(r.Context(), path)
	if err != nil {
		// The failed run is journaled; surface it with the right code.
		status := http.StatusInternalServerError
		var ve *schema.ValidationError
		switch {
		case errors.Is(err, doctext.ErrUnreadable), errors.As(err, &ve):
			status = http.StatusUnprocessableEntity
		}
		zap.L().Error("upload processing failed",
			zap.String("file", header.Filename),
			zap.Error(err))
		render.Status(r, status)
		render.JSON(w, r, uploadResponse{Success: false, Result: result})
		return
	}

	render.JSON(w, r, uploadResponse{Success: true, Result: result})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	filter := store.ExtractionFilter{
		Status:   model.ExtractionStatus(r.URL.Query().Get("status")),
		Filename: r.URL.Query().Get("filename"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			renderError(w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			renderError(w, r, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	results, err := s.store.ListExtractions(r.Context(), filter)
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, "listing extractions failed")
		return
	}
	if results == nil {
		results = []model.ExtractionResult{}
	}
	render.JSON(w, r, map[string]any{
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := s.store.GetExtraction(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			renderError(w, r, http.StatusNotFound, "extraction not found")
			return
		}
		renderError(w, r, http.StatusInternalServerError, "fetching extraction failed")
		return
	}
	render.JSON(w, r, result)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteExtraction(r.Context(), id); err != nil {
		if isNotFound(err) {
			renderError(w, r, http.StatusNotFound, "extraction not found")
			return
		}
		renderError(w, r, http.StatusInternalServerError, "deleting extraction failed")
		return
	}
	render.JSON(w, r, map[string]any{"success": true, "id": id})
}
