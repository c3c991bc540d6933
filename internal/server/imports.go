package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listx/internal/document"
	"github.com/desertthunder/listx/internal/models"
	"github.com/desertthunder/listx/internal/shared"
	"github.com/desertthunder/listx/internal/tasks"
)

// MaxDocumentSize caps uploaded documents at 10 MiB.
const MaxDocumentSize = 10 << 20

// Importer runs one import. Implemented by [tasks.ImportEngine].
type Importer interface {
	RunWith(ctx context.Context, source document.Source, overrides tasks.RunOverrides, progress chan<- tasks.ProgressUpdate) (*models.RunResult, error)
}

// RunStore reads import history. Implemented by repositories.RunRepository.
type RunStore interface {
	Get(ctx context.Context, id string) (*models.ImportRun, error)
	List(ctx context.Context, limit int) ([]*models.ImportRun, error)
}

// ImportHandler serves the /api/imports endpoints.
type ImportHandler struct {
	importer Importer
	runs     RunStore
	logger   *log.Logger
}

// NewImportHandler creates the import API handler. runs may be nil when
// history is disabled; the history endpoints then answer 503.
func NewImportHandler(importer Importer, runs RunStore, logger *log.Logger) *ImportHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ImportHandler{importer: importer, runs: runs, logger: logger.With("component", "http")}
}

func (h *ImportHandler) Routes() []string {
	return []string{"/api/imports", "/api/imports/{id}"}
}

func (h *ImportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	switch {
	case r.Method == http.MethodPost && id == "":
		h.create(w, r)
	case r.Method == http.MethodGet && id == "":
		h.list(w, r)
	case r.Method == http.MethodGet:
		h.show(w, r, id)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// importResponse is the body of POST /api/imports.
type importResponse struct {
	*models.RunResult
	Canceled bool   `json:"canceled,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (h *ImportHandler) create(w http.ResponseWriter, r *http.Request) {
	source, err := sourceFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	overrides := tasks.RunOverrides{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}

	res, err := h.importer.RunWith(r.Context(), source, overrides, nil)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, importResponse{RunResult: res})
	case errors.Is(err, shared.ErrNothingToImport):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, shared.ErrPlaylistCreate):
		h.logger.Error("import failed", "source", source.Name(), "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, shared.ErrRunCanceled) && res != nil:
		h.logger.Warn("import canceled", "source", source.Name(), "processed", res.Processed)
		writeJSON(w, http.StatusAccepted, importResponse{RunResult: res, Canceled: true, Error: err.Error()})
	default:
		h.logger.Error("import failed", "source", source.Name(), "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *ImportHandler) list(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "import history is disabled")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}

	runs, err := h.runs.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []*models.ImportRun{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *ImportHandler) show(w http.ResponseWriter, r *http.Request, id string) {
	if h.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "import history is disabled")
		return
	}

	run, err := h.runs.Get(r.Context(), id)
	if errors.Is(err, shared.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to load run", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// sourceFromRequest reads the document from a multipart "document" field or the raw body.
// HTML is detected from the upload's extension or the request content type.
func sourceFromRequest(r *http.Request) (document.Source, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		name string
		data []byte
		err  error
	)

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(MaxDocumentSize); err != nil {
			return nil, fmt.Errorf("invalid multipart body: %w", err)
		}
		file, header, err := r.FormFile("document")
		if err != nil {
			return nil, fmt.Errorf("%w: document", shared.ErrMissingArgument)
		}
		defer file.Close()

		name = header.Filename
		data, err = io.ReadAll(io.LimitReader(file, MaxDocumentSize))
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		mediaType = header.Header.Get("Content-Type")
	} else {
		name = r.URL.Query().Get("name")
		if name == "" {
			name = "upload"
		}
		data, err = io.ReadAll(io.LimitReader(r.Body, MaxDocumentSize))
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".html" || ext == ".htm" || strings.HasPrefix(mediaType, "text/html") {
		return document.NewHTMLSource(name, bytes.NewReader(data)), nil
	}
	return document.NewTextSource(name, bytes.NewReader(data)), nil
}

// HealthHandler answers liveness probes.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
