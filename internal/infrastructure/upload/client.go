// Package upload HTTP-клиент сервера хранения снимков.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"facecam/internal/domain/entity"
	"facecam/internal/domain/port"
)

// FieldName имя поля multipart с файлом
const FieldName = "image"

// Response ответ сервера на успешную загрузку
type Response struct {
	FileName string `json:"fileName"`
	FilePath string `json:"filePath"`
}

// ErrorResponse ответ сервера с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

// Client отправляет снимки на <endpoint>/upload
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient создаёт клиента. timeout 0 означает таймаут транспорта по умолчанию.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Upload делает один POST без повторов
func (c *Client) Upload(ctx context.Context, payload entity.UploadPayload) entity.UploadOutcome {
	body, contentType, err := multipartBody(payload)
	if err != nil {
		return entity.UploadOutcome{Err: fmt.Errorf("build multipart body: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/upload", body)
	if err != nil {
		return entity.UploadOutcome{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.UploadOutcome{Err: fmt.Errorf("upload: %w", err)}
	}
	defer resp.Body.Close()

	outcome := entity.UploadOutcome{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome.Err = fmt.Errorf("read response: %w", err)
		return outcome
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			outcome.Err = fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, e.Error)
		} else {
			outcome.Err = fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return outcome
	}

	var r Response
	if err := json.Unmarshal(data, &r); err != nil {
		outcome.Err = fmt.Errorf("decode response: %w", err)
		return outcome
	}
	outcome.FileName = r.FileName
	outcome.FilePath = r.FilePath
	return outcome
}

func multipartBody(payload entity.UploadPayload) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FieldName, payload.FileName))
	h.Set("Content-Type", payload.MIMEType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(payload.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var _ port.Uploader = (*Client)(nil)
