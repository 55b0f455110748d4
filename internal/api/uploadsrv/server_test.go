package uploadsrv

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"facecam/internal/domain/entity"
	"facecam/internal/infrastructure/storage"
	"facecam/internal/infrastructure/upload"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir)
	require.NoError(t, err)

	srv := New(store, "")
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return srv, ts, dir
}

func TestUpload_RoundTripWithClient(t *testing.T) {
	srv, ts, dir := newTestServer(t)
	srv.now = func() time.Time { return time.UnixMilli(1700000000000) }

	data := []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3}
	client := upload.NewClient(ts.URL, 0)
	outcome := client.Upload(context.Background(), entity.UploadPayload{
		FileName: "capture.jpg",
		MIMEType: "image/jpeg",
		Data:     data,
	})
	require.NoError(t, outcome.Err)
	require.Equal(t, http.StatusOK, outcome.StatusCode)
	require.Equal(t, "1700000000000.jpg", outcome.FileName)
	require.Equal(t, ts.URL+"/uploads/1700000000000.jpg", outcome.FilePath)

	stored, err := os.ReadFile(filepath.Join(dir, outcome.FileName))
	require.NoError(t, err)
	require.Equal(t, data, stored)

	resp, err := http.Get(outcome.FilePath)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	served, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, data, served)
}

func TestUploads_DirectoriesAreNotListed(t *testing.T) {
	_, ts, dir := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1700000000000.jpg"), []byte{1}, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	for _, path := range []string{"/uploads/", "/uploads/nested/", "/uploads/nested"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err, path)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err, path)
		require.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		require.NotContains(t, string(body), "1700000000000.jpg", path)
		require.NotContains(t, string(body), "nested", path)
	}

	resp, err := http.Get(ts.URL + "/uploads/1700000000000.jpg")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUpload_SameMillisecondGetsDistinctNames(t *testing.T) {
	srv, ts, _ := newTestServer(t)
	srv.now = func() time.Time { return time.UnixMilli(1700000000000) }

	client := upload.NewClient(ts.URL, 0)
	payload := entity.UploadPayload{FileName: "capture.jpg", MIMEType: "image/jpeg", Data: []byte{1}}

	first := client.Upload(context.Background(), payload)
	second := client.Upload(context.Background(), payload)
	require.NoError(t, first.Err)
	require.NoError(t, second.Err)
	require.NotEqual(t, first.FileName, second.FileName)
}

func TestUpload_NoFile(t *testing.T) {
	_, ts, dir := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "no image here"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp upload.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	require.Equal(t, "No file uploaded.", errResp.Error)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestUpload_NotMultipart(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/upload", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpload_PublicURL(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	srv := New(store, "https://files.example.com/")
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	outcome := upload.NewClient(ts.URL, 0).Upload(context.Background(), entity.UploadPayload{
		FileName: "capture.png", MIMEType: "image/png", Data: []byte{1, 2},
	})
	require.NoError(t, outcome.Err)
	require.Equal(t, "https://files.example.com/uploads/"+outcome.FileName, outcome.FilePath)
	require.Equal(t, ".png", filepath.Ext(outcome.FileName))
}

func TestCORS(t *testing.T) {
	_, ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/upload", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
