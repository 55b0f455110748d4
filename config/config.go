package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config настройки клиента детекции и сервера загрузок
type Config struct {
	// Клиент
	CameraDevice   string
	DisplayWidth   int
	DisplayHeight  int
	DetectInterval time.Duration
	MaxInFlight    int
	ModelsDir      string
	UploadEndpoint string
	UploadTimeout  time.Duration
	DownloadDir    string
	JPEGQuality    int
	HTTPAddr       string
	TelegramToken  string

	// Сервер загрузок
	ServerAddr string
	UploadDir  string
	PublicURL  string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		CameraDevice:   getEnv("CAMERA_DEVICE", "0"),
		ModelsDir:      getEnv("MODELS_DIR", "./models"),
		UploadEndpoint: getEnv("UPLOAD_ENDPOINT", "http://localhost:5000"),
		DownloadDir:    getEnv("DOWNLOAD_DIR", "./captures"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		ServerAddr:     getEnv("SERVER_ADDR", ":5000"),
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		PublicURL:      os.Getenv("PUBLIC_URL"),
	}

	var err error
	if cfg.DisplayWidth, err = getInt("DISPLAY_WIDTH", 720); err != nil {
		return nil, err
	}
	if cfg.DisplayHeight, err = getInt("DISPLAY_HEIGHT", 560); err != nil {
		return nil, err
	}
	if cfg.MaxInFlight, err = getInt("DETECT_MAX_INFLIGHT", 2); err != nil {
		return nil, err
	}
	if cfg.JPEGQuality, err = getInt("CAPTURE_JPEG_QUALITY", 92); err != nil {
		return nil, err
	}
	if cfg.DetectInterval, err = getDuration("DETECT_INTERVAL", 100*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.UploadTimeout, err = getDuration("UPLOAD_TIMEOUT", 0); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения, которые нельзя исправить молча
func (c *Config) Validate() error {
	if c.DisplayWidth <= 0 || c.DisplayHeight <= 0 {
		return fmt.Errorf("display size must be positive, got %dx%d", c.DisplayWidth, c.DisplayHeight)
	}
	if c.DetectInterval <= 0 {
		return fmt.Errorf("DETECT_INTERVAL must be positive, got %s", c.DetectInterval)
	}
	if c.MaxInFlight < 1 {
		return fmt.Errorf("DETECT_MAX_INFLIGHT must be at least 1, got %d", c.MaxInFlight)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("CAPTURE_JPEG_QUALITY must be in 1..100, got %d", c.JPEGQuality)
	}
	if c.UploadTimeout < 0 {
		return fmt.Errorf("UPLOAD_TIMEOUT must not be negative, got %s", c.UploadTimeout)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
