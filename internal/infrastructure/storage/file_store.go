package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"facecam/internal/domain/port"
)

// ErrInvalidName имя файла выходит за пределы каталога
var ErrInvalidName = errors.New("invalid file name: path traversal detected")

// FileStore каталог с файлами: локальные снимки и загрузки сервера
type FileStore struct {
	baseDir string
}

// NewFileStore создаёт каталог, если его нет
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Dir корневой каталог
func (fs *FileStore) Dir() string {
	return fs.baseDir
}

// Save записывает data в файл fileName и возвращает полный путь
func (fs *FileStore) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	path, err := fs.path(fileName)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

// Write копирует r в новый файл fileName, существующий файл не перезаписывается
func (fs *FileStore) Write(ctx context.Context, fileName string, r io.Reader) (int64, error) {
	path, err := fs.path(fileName)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	return n, nil
}

func (fs *FileStore) path(fileName string) (string, error) {
	if fileName == "" || strings.ContainsAny(fileName, `/\`) {
		return "", ErrInvalidName
	}
	path := filepath.Join(fs.baseDir, fileName)
	if filepath.Dir(filepath.Clean(path)) != filepath.Clean(fs.baseDir) {
		return "", ErrInvalidName
	}
	return path, nil
}

var _ port.Downloader = (*FileStore)(nil)
