// Package server exposes the pipeline over HTTP: submit a sheet, poll its
// job, download the packaged result.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"spritesplit/internal/job"
	"spritesplit/internal/sprite"
)

// Upload size cap. Sheets past this are rejected before decoding.
const maxUploadBytes = 32 << 20

// Server routes pipeline requests to the job queue.
type Server struct {
	Store     *job.Store
	Queue     *job.Queue
	UploadDir string
}

// Handler returns the HTTP routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/process", s.handleProcess)
	mux.HandleFunc("/status/", s.handleStatus)
	mux.HandleFunc("/download/", s.handleDownload)
	return mux
}

type submitResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleProcess accepts a multipart upload (field "file") or a generation
// prompt (field "prompt"), validates the tuning parameters, and enqueues a
// job.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request: "+err.Error())
		return
	}

	opts, err := parseOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	prompt := strings.TrimSpace(r.FormValue("prompt"))
	file, header, ferr := r.FormFile("file")
	if ferr != nil && prompt == "" {
		writeError(w, http.StatusBadRequest, "either a file upload or a prompt is required")
		return
	}

	j := s.Store.Create()
	req := job.Request{ID: j.ID, Prompt: prompt, Options: opts}

	if ferr == nil {
		defer file.Close()
		path, err := s.saveUpload(j.ID, header.Filename, file)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "store upload: "+err.Error())
			return
		}
		req.InputPath = path
		req.Prompt = "" // an upload wins over a prompt
	}

	if err := s.Queue.Submit(req); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, submitResponse{TaskID: j.ID, Status: string(j.State)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/status/")
	j, ok := s.Store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown task")
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/download/")
	j, ok := s.Store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown task")
		return
	}
	if j.State != job.StateSuccess {
		writeError(w, http.StatusConflict, fmt.Sprintf("task is %s, not ready for download", j.State))
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="sprites_%s.zip"`, id))
	http.ServeFile(w, r, j.ArchivePath)
}

// saveUpload copies the uploaded raster into the upload directory under the
// job's id.
func (s *Server) saveUpload(id, filename string, file io.Reader) (string, error) {
	if err := os.MkdirAll(s.UploadDir, 0o755); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".png"
	}
	path := filepath.Join(s.UploadDir, id+ext)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, file); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// parseOptions reads the tuning form fields, rejecting out-of-range values.
func parseOptions(r *http.Request) (sprite.Options, error) {
	opts := sprite.DefaultOptions()

	if err := formFloat(r, "distance", 10, 500, &opts.Merge.DistanceThreshold); err != nil {
		return opts, err
	}
	if err := formFloat(r, "size_ratio", 0.1, 1.0, &opts.Merge.SizeRatioThreshold); err != nil {
		return opts, err
	}
	if err := formFloat(r, "min_area_ratio", 0.0001, 0.1, &opts.Detect.MinAreaRatio); err != nil {
		return opts, err
	}
	if err := formFloat(r, "max_area_ratio", 0.05, 0.9, &opts.Detect.MaxAreaRatio); err != nil {
		return opts, err
	}
	if err := formInt(r, "alpha_threshold", 1, 254, &opts.Detect.AlphaThreshold); err != nil {
		return opts, err
	}
	if opts.Detect.MinAreaRatio >= opts.Detect.MaxAreaRatio {
		return opts, fmt.Errorf("min_area_ratio must be below max_area_ratio")
	}

	if r.FormValue("grid") == "true" || r.FormValue("grid") == "1" {
		opts.GridMode = true
		if err := formInt(r, "rows", 0, 64, &opts.Grid.FallbackRows); err != nil {
			return opts, err
		}
		if err := formInt(r, "cols", 0, 64, &opts.Grid.FallbackCols); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func formFloat(r *http.Request, name string, lo, hi float64, dst *float64) error {
	raw := r.FormValue(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%s: not a number", name)
	}
	if v < lo || v > hi {
		return fmt.Errorf("%s must be between %g and %g", name, lo, hi)
	}
	*dst = v
	return nil
}

func formInt(r *http.Request, name string, lo, hi int, dst *int) error {
	raw := r.FormValue(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s: not an integer", name)
	}
	if v < lo || v > hi {
		return fmt.Errorf("%s must be between %d and %d", name, lo, hi)
	}
	*dst = v
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
