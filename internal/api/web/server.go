// Package web HTTP-интерфейс сессии камеры: состояние, снимки, галерея и живые обновления.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	app "facecam/internal/application"
	"facecam/internal/domain/entity"
	"facecam/internal/domain/port"
	"facecam/internal/metrics"
)

const (
	thumbWidth  = 160
	thumbHeight = 120

	updatesBuffer = 16
	writeTimeout  = 5 * time.Second
)

// Session операции сессии, которые нужны интерфейсу
type Session interface {
	Capture(ctx context.Context) (*entity.CapturedImage, error)
	Status() app.Status
	Gallery() port.Gallery
	Overlay() (image.Image, bool)
	Subscribe(buffer int) (<-chan app.Update, func())
}

// ImageInfo описание снимка без данных
type ImageInfo struct {
	Index     int       `json:"index"`
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"createdAt"`
	URL       string    `json:"url"`
	ThumbURL  string    `json:"thumbUrl"`
}

// Event сообщение в /ws
type Event struct {
	Type   string      `json:"type"`
	Status *app.Status `json:"status,omitempty"`
	Update *app.Update `json:"update,omitempty"`
}

// Server HTTP-обработчики сессии
type Server struct {
	session  Session
	upgrader websocket.Upgrader
}

// New создаёт сервер интерфейса
func New(session Session) *Server {
	return &Server{
		session: session,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Routes собирает роутер интерфейса
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/status", s.handleStatus)
	r.Post("/capture", s.handleCapture)
	r.Get("/gallery", s.handleGallery)
	r.Get("/gallery/{index}", s.handleImage)
	r.Get("/gallery/{index}/thumb", s.handleThumb)
	r.Get("/overlay.png", s.handleOverlay)
	r.Get("/ws", s.handleWS)
	r.Handle("/metrics", metrics.Handler())
	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Status())
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	img, err := s.session.Capture(r.Context())
	if errors.Is(err, app.ErrNotBound) {
		writeError(w, http.StatusConflict, "video is not playing")
		return
	}
	if err != nil {
		log.Printf("Error capturing image: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, imageInfo(img))
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	list := s.session.Gallery().List()
	infos := make([]ImageInfo, 0, len(list))
	for _, img := range list {
		infos = append(infos, imageInfo(img))
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	img, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Content-Disposition", `inline; filename="`+img.FileName+`"`)
	w.Write(img.Data)
}

func (s *Server) handleThumb(w http.ResponseWriter, r *http.Request) {
	img, ok := s.lookup(w, r)
	if !ok {
		return
	}

	src, err := imaging.Decode(bytes.NewReader(img.Data))
	if err != nil {
		log.Printf("Error decoding capture %s: %v", img.FileName, err)
		writeError(w, http.StatusInternalServerError, "failed to decode image")
		return
	}
	thumb := imaging.Fit(src, thumbWidth, thumbHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		log.Printf("Error encoding thumbnail: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to encode thumbnail")
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(buf.Bytes())
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	img, ok := s.session.Overlay()
	if !ok {
		writeError(w, http.StatusNotFound, "overlay is not bound")
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

// handleWS отправляет текущее состояние, затем каждое применённое обновление
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := s.session.Subscribe(updatesBuffer)
	defer cancel()

	ctx, stop := context.WithCancel(r.Context())
	defer stop()

	// Клиент ничего не шлёт, чтение нужно только чтобы заметить закрытие.
	go func() {
		defer stop()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("WebSocket read error: %v", err)
				}
				return
			}
		}
	}()

	status := s.session.Status()
	if err := writeEvent(conn, Event{Type: "status", Status: &status}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(writeTimeout))
				return
			}
			if err := writeEvent(conn, Event{Type: "update", Update: &u}); err != nil {
				return
			}
		}
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*entity.CapturedImage, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return nil, false
	}
	img, ok := s.session.Gallery().Get(index)
	if !ok {
		writeError(w, http.StatusNotFound, "image not found")
		return nil, false
	}
	return img, true
}

func imageInfo(img *entity.CapturedImage) ImageInfo {
	base := "/gallery/" + strconv.Itoa(img.Index)
	return ImageInfo{
		Index:     img.Index,
		ID:        img.ID,
		FileName:  img.FileName,
		Width:     img.Width,
		Height:    img.Height,
		CreatedAt: img.CreatedAt,
		URL:       base,
		ThumbURL:  base + "/thumb",
	}
}

func writeEvent(conn *websocket.Conn, e Event) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(e)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}
