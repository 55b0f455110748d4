// Package uploadsrv HTTP-сервер, принимающий снимки и раздающий их обратно.
package uploadsrv

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"facecam/internal/infrastructure/storage"
	"facecam/internal/infrastructure/upload"
	"facecam/internal/metrics"
)

const (
	maxMemory   = 32 << 20
	maxAttempts = 16

	msgNoFile      = "No file uploaded."
	msgStoreFailed = "Failed to store file."
)

// Server принимает multipart-загрузки и хранит их в каталоге
type Server struct {
	store     *storage.FileStore
	publicURL string
	now       func() time.Time

	mu        sync.Mutex
	lastStamp int64
}

// New создаёт сервер. Пустой publicURL означает адрес из заголовка Host запроса.
func New(store *storage.FileStore, publicURL string) *Server {
	return &Server{
		store:     store,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// Routes собирает роутер сервера
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/health", handleHealth)
	r.Post("/upload", s.handleUpload)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(filesOnly{http.Dir(s.store.Dir())})))
	r.Handle("/metrics", metrics.Handler())
	return r
}

// handleUpload сохраняет поле image под именем <unix-ms><ext>
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		log.Printf("No file uploaded: %v", err)
		metrics.StoredFiles.WithLabelValues(metrics.OutcomeError).Inc()
		writeJSON(w, http.StatusBadRequest, upload.ErrorResponse{Error: msgNoFile})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(upload.FieldName)
	if err != nil {
		log.Printf("No file uploaded: %v", err)
		metrics.StoredFiles.WithLabelValues(metrics.OutcomeError).Inc()
		writeJSON(w, http.StatusBadRequest, upload.ErrorResponse{Error: msgNoFile})
		return
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	stamp := s.nextStamp()

	var name string
	var size int64
	for attempt := int64(0); attempt < maxAttempts; attempt++ {
		name = fmt.Sprintf("%d%s", stamp+attempt, ext)
		size, err = s.store.Write(r.Context(), name, file)
		if !errors.Is(err, os.ErrExist) {
			break
		}
	}
	if err != nil {
		log.Printf("Error storing upload %q: %v", header.Filename, err)
		metrics.StoredFiles.WithLabelValues(metrics.OutcomeError).Inc()
		writeJSON(w, http.StatusInternalServerError, upload.ErrorResponse{Error: msgStoreFailed})
		return
	}

	log.Printf("Received file: %s (%d bytes)", name, size)
	metrics.StoredFiles.WithLabelValues(metrics.OutcomeOK).Inc()

	writeJSON(w, http.StatusOK, upload.Response{
		FileName: name,
		FilePath: s.baseURL(r) + "/uploads/" + name,
	})
}

func (s *Server) baseURL(r *http.Request) string {
	if s.publicURL != "" {
		return s.publicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// nextStamp миллисекундная метка, строго возрастающая в пределах процесса
func (s *Server) nextStamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now().UnixMilli()
	if stamp <= s.lastStamp {
		stamp = s.lastStamp + 1
	}
	s.lastStamp = stamp
	return stamp
}

// handleHealth отвечает, что сервер жив
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// filesOnly отдаёт только файлы: каталоги, включая корень, выглядят отсутствующими
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}

// cors разрешает запросы с любого origin
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE")
			if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
				h.Set("Access-Control-Allow-Headers", req)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}
