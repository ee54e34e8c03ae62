package videos

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/freeplay/yourleague-service/internal/blobstore"
	"github.com/freeplay/yourleague-service/internal/catalog"
	"github.com/freeplay/yourleague-service/internal/types"
	"github.com/freeplay/yourleague-service/internal/types/media"
	"github.com/freeplay/yourleague-service/internal/utils/response"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before the rest spills to temporary files.
const multipartMemory = 32 << 20

// videoTypes covers containers missing from minimal mime tables.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
}

type VideoHandlers struct {
	catalog   *catalog.Catalog
	maxBytes  int64
	publicURL string
	validate  *validator.Validate
}

// NewVideoHandlers creates the video handlers. publicURL overrides the base
// URL derived from each request when set.
func NewVideoHandlers(cat *catalog.Catalog, maxBytes int64, publicURL string) *VideoHandlers {
	return &VideoHandlers{
		catalog:   cat,
		maxBytes:  maxBytes,
		publicURL: publicURL,
		validate:  validator.New(),
	}
}

// Upload handles a multipart video upload
// @Summary Upload a match video
// @Description Store a video for a match. The match id comes from the path, or from the matchId form field on /upload-video.
// @Tags videos
// @Accept multipart/form-data
// @Produce json
// @Param matchId path string true "Match ID"
// @Param video formData file true "Video file"
// @Param title formData string false "Video title"
// @Success 201 {object} media.VideoRecord "Video uploaded"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 413 {object} response.Response "Video too large"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /matches/{matchId}/videos [post]
// @Router /upload-video [post]
func (h *VideoHandlers) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.maxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
		}

		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.WriteJSON(w, http.StatusRequestEntityTooLarge, response.GeneralError(errors.New("video exceeds the upload size limit")))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("expected a multipart/form-data body")))
			return
		}
		defer r.MultipartForm.RemoveAll()

		form := media.UploadForm{
			MatchID: strings.TrimSpace(r.PathValue("matchId")),
			Title:   strings.TrimSpace(r.FormValue("title")),
		}
		if form.MatchID == "" {
			form.MatchID = strings.TrimSpace(r.FormValue("matchId"))
		}
		if err := h.validate.Struct(form); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		file, header, err := r.FormFile("video")
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("no video file uploaded")))
			return
		}
		defer file.Close()

		rec, err := h.catalog.Upload(r.Context(), catalog.UploadInput{
			MatchID:      form.MatchID,
			Title:        form.Title,
			OriginalName: header.Filename,
			ContentType:  header.Header.Get("Content-Type"),
			Body:         file,
			BaseURL:      h.baseURL(r),
		})
		if err != nil {
			slog.Error("Video upload failed",
				slog.String("match_id", form.MatchID),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusCreated, rec)
	}
}

// List returns the videos of one match
// @Summary List match videos
// @Description List every video uploaded for a match, oldest first. An unknown match yields an empty list.
// @Tags videos
// @Produce json
// @Param matchId path string true "Match ID"
// @Success 200 {array} media.VideoRecord "Videos of the match"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /matches/{matchId}/videos [get]
// @Router /videos [get]
func (h *VideoHandlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := strings.TrimSpace(r.PathValue("matchId"))
		if matchID == "" {
			matchID = strings.TrimSpace(r.URL.Query().Get("matchId"))
		}
		if matchID == "" {
			response.WriteError(w, types.Validationf("matchId is required"))
			return
		}

		records, err := h.catalog.ListByMatch(r.Context(), matchID)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, records)
	}
}

// Serve streams a stored video
// @Summary Download a video
// @Tags videos
// @Produce octet-stream
// @Param name path string true "Stored file name"
// @Success 200 {file} binary "Video bytes"
// @Failure 404 {object} response.Response "Video not found"
// @Router /uploads/{name} [get]
func (h *VideoHandlers) Serve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		if !blobstore.ValidName(name) {
			response.WriteError(w, types.ErrNotFound)
			return
		}

		rc, err := h.catalog.OpenBlob(r.Context(), name)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", contentTypeOf(name))

		// Seekable blobs get Range support.
		if rs, ok := rc.(io.ReadSeeker); ok {
			http.ServeContent(w, r, name, time.Time{}, rs)
			return
		}
		if _, err := io.Copy(w, rc); err != nil {
			slog.Warn("Video stream interrupted",
				slog.String("name", name),
				slog.String("error", err.Error()))
		}
	}
}

func contentTypeOf(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := videoTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// baseURL is the externally reachable address of this service.
func (h *VideoHandlers) baseURL(r *http.Request) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}
