package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donexus/lease-extract/internal/config"
	"github.com/donexus/lease-extract/internal/doctext"
	"github.com/donexus/lease-extract/internal/files"
	"github.com/donexus/lease-extract/internal/model"
	"github.com/donexus/lease-extract/internal/store"
)

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) Process(ctx context.Context, path string) (*model.ExtractionResult, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExtractionResult), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateExtraction(ctx context.Context, filename string) (*model.ExtractionResult, error) {
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExtractionResult), args.Error(1)
}

func (m *mockStore) UpdateExtraction(ctx context.Context, res *model.ExtractionResult) error {
	return m.Called(ctx, res).Error(0)
}

func (m *mockStore) GetExtraction(ctx context.Context, id string) (*model.ExtractionResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExtractionResult), args.Error(1)
}

func (m *mockStore) ListExtractions(ctx context.Context, filter store.ExtractionFilter) ([]model.ExtractionResult, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ExtractionResult), args.Error(1)
}

func (m *mockStore) DeleteExtraction(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) CountExtractions(ctx context.Context, status model.ExtractionStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *mockStore) Close() error                      { return m.Called().Error(0) }

func newTestServer(t *testing.T) (*Server, *mockProcessor, *mockStore) {
	t.Helper()
	fm, err := files.NewManager(config.UploadConfig{
		Dir:           filepath.Join(t.TempDir(), "uploads"),
		MaxFileSizeMB: 1,
		Extensions:    []string{".pdf", ".txt"},
	})
	require.NoError(t, err)

	pipe := &mockProcessor{}
	st := &mockStore{}
	return New(pipe, st, fm, nil), pipe, st
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func successResult() *model.ExtractionResult {
	return &model.ExtractionResult{
		ID:       "id-1",
		Filename: "lease.pdf",
		Status:   model.StatusSuccess,
		Report: &model.QualityReport{
			OverallScore: 92.5,
			QualityTier:  model.TierExcellent,
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleUpload_Success(t *testing.T) {
	srv, pipe, _ := newTestServer(t)

	pipe.On("Process", mock.Anything, mock.MatchedBy(func(path string) bool {
		return strings.HasSuffix(path, ".pdf")
	})).Return(successResult(), nil).Once()

	body, contentType := multipartBody(t, "file", "lease.pdf", "%PDF- lease body")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Equal(t, model.StatusSuccess, resp.Result.Status)
	pipe.AssertExpectations(t)
}

func TestHandleUpload_MissingFile(t *testing.T) {
	srv, pipe, _ := newTestServer(t)

	body, contentType := multipartBody(t, "document", "lease.pdf", "body")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	pipe.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestHandleUpload_BadExtension(t *testing.T) {
	srv, pipe, _ := newTestServer(t)

	body, contentType := multipartBody(t, "file", "lease.exe", "body")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not allowed")
	pipe.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestHandleUpload_UnreadableDocumentIs422(t *testing.T) {
	srv, pipe, _ := newTestServer(t)

	failed := &model.ExtractionResult{
		ID:           "id-2",
		Filename:     "scan.pdf",
		Status:       model.StatusFailed,
		ErrorMessage: doctext.ErrUnreadable.Error(),
	}
	pipe.On("Process", mock.Anything, mock.Anything).
		Return(failed, doctext.ErrUnreadable).Once()

	body, contentType := multipartBody(t, "file", "scan.pdf", "%PDF- scanned")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Equal(t, model.StatusFailed, resp.Result.Status)
}

func TestHandleUpload_PipelineErrorIs500(t *testing.T) {
	srv, pipe, _ := newTestServer(t)

	pipe.On("Process", mock.Anything, mock.Anything).
		Return(nil, eris.New("db down")).Once()

	body, contentType := multipartBody(t, "file", "lease.pdf", "%PDF- body")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleList(t *testing.T) {
	srv, _, st := newTestServer(t)

	st.On("ListExtractions", mock.Anything, store.ExtractionFilter{
		Status: model.StatusSuccess,
		Limit:  10,
		Offset: 20,
	}).Return([]model.ExtractionResult{*successResult()}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/extractions/?status=success&limit=10&offset=20", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count   int                      `json:"count"`
		Results []model.ExtractionResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "id-1", resp.Results[0].ID)
	st.AssertExpectations(t)
}

func TestHandleList_EmptyIsNotNull(t *testing.T) {
	srv, _, st := newTestServer(t)

	st.On("ListExtractions", mock.Anything, mock.Anything).
		Return([]model.ExtractionResult(nil), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/extractions/", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"results":[]`)
}

func TestHandleList_InvalidLimit(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/extractions/?limit=abc", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGet(t *testing.T) {
	srv, _, st := newTestServer(t)

	st.On("GetExtraction", mock.Anything, "id-1").
		Return(successResult(), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/extractions/id-1", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result model.ExtractionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "id-1", result.ID)
}

func TestHandleGet_NotFound(t *testing.T) {
	srv, _, st := newTestServer(t)

	st.On("GetExtraction", mock.Anything, "missing").
		Return(nil, eris.Wrap(store.ErrNotFound, "extraction missing")).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/extractions/missing", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDelete(t *testing.T) {
	srv, _, st := newTestServer(t)

	st.On("DeleteExtraction", mock.Anything, "id-1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/extractions/id-1", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	st.AssertExpectations(t)
}

func TestHandleDelete_NotFound(t *testing.T) {
	srv, _, st := newTestServer(t)

	st.On("DeleteExtraction", mock.Anything, "missing").
		Return(eris.Wrap(store.ErrNotFound, "extraction missing")).Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/extractions/missing", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
