package videos

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeplay/yourleague-service/internal/blobstore"
	"github.com/freeplay/yourleague-service/internal/catalog"
	"github.com/freeplay/yourleague-service/internal/storage/memory"
	"github.com/freeplay/yourleague-service/internal/types/media"
)

func newMux(t *testing.T, maxBytes int64, publicURL string) *http.ServeMux {
	t.Helper()
	blobs, err := blobstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	h := NewVideoHandlers(catalog.New(memory.New(), blobs), maxBytes, publicURL)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /matches/{matchId}/videos", h.Upload())
	mux.HandleFunc("POST /upload-video", h.Upload())
	mux.HandleFunc("GET /matches/{matchId}/videos", h.List())
	mux.HandleFunc("GET /videos", h.List())
	mux.HandleFunc("GET /uploads/{name}", h.Serve())
	return mux
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("video", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(mux http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestUploadListServe(t *testing.T) {
	mux := newMux(t, 0, "")
	payload := []byte("fake mp4 bytes")

	body, ct := multipartBody(t, map[string]string{"title": "Highlights"}, "final whistle.mp4", payload)
	req := httptest.NewRequest(http.MethodPost, "/matches/42/videos", body)
	req.Header.Set("Content-Type", ct)
	req.Host = "league.test:3000"
	rr := do(mux, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var rec media.VideoRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, "42", rec.MatchID)
	assert.Equal(t, "Highlights", rec.Title)
	assert.Equal(t, "final whistle.mp4", rec.OriginalName)
	assert.Equal(t, "http://league.test:3000"+rec.StoragePath, rec.URL)

	rr = do(mux, httptest.NewRequest(http.MethodGet, "/matches/42/videos", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []media.VideoRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID, list[0].ID)

	rr = do(mux, httptest.NewRequest(http.MethodGet, rec.StoragePath, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "video/mp4", rr.Header().Get("Content-Type"))
	got, _ := io.ReadAll(rr.Body)
	assert.Equal(t, payload, got)
}

func TestUpload_LegacyRoute(t *testing.T) {
	mux := newMux(t, 0, "https://cdn.league.test/")

	body, ct := multipartBody(t, map[string]string{"matchId": "7"}, "clip.mp4", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/upload-video", body)
	req.Header.Set("Content-Type", ct)
	rr := do(mux, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var rec media.VideoRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, "7", rec.MatchID)
	assert.Equal(t, "https://cdn.league.test"+rec.StoragePath, rec.URL)

	rr = do(mux, httptest.NewRequest(http.MethodGet, "/videos?matchId=7", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), rec.ID)
}

func TestUpload_BadRequests(t *testing.T) {
	mux := newMux(t, 0, "")

	// no file part
	body, ct := multipartBody(t, map[string]string{"matchId": "7"}, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/upload-video", body)
	req.Header.Set("Content-Type", ct)
	rr := do(mux, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "no video file uploaded")

	// no match id
	body, ct = multipartBody(t, nil, "clip.mp4", []byte("x"))
	req = httptest.NewRequest(http.MethodPost, "/upload-video", body)
	req.Header.Set("Content-Type", ct)
	rr = do(mux, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "MatchID")

	// not multipart
	req = httptest.NewRequest(http.MethodPost, "/matches/7/videos", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, do(mux, req).Code)
}

func TestUpload_TooLarge(t *testing.T) {
	mux := newMux(t, 1024, "")

	body, ct := multipartBody(t, nil, "big.mp4", bytes.Repeat([]byte("v"), 4096))
	req := httptest.NewRequest(http.MethodPost, "/matches/1/videos", body)
	req.Header.Set("Content-Type", ct)
	rr := do(mux, req)
	assert.NotEqual(t, http.StatusCreated, rr.Code)

	rr = do(mux, httptest.NewRequest(http.MethodGet, "/matches/1/videos", nil))
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestList_EmptyAndMissingMatch(t *testing.T) {
	mux := newMux(t, 0, "")

	rr := do(mux, httptest.NewRequest(http.MethodGet, "/matches/unknown/videos", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = do(mux, httptest.NewRequest(http.MethodGet, "/videos", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServe_NotFound(t *testing.T) {
	mux := newMux(t, 0, "")

	assert.Equal(t, http.StatusNotFound, do(mux, httptest.NewRequest(http.MethodGet, "/uploads/1-abcd-missing.mp4", nil)).Code)
	assert.Equal(t, http.StatusNotFound, do(mux, httptest.NewRequest(http.MethodGet, "/uploads/.hidden", nil)).Code)
}
