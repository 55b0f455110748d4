package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	telegram "facecam/internal/api"
	"facecam/internal/api/web"
	"facecam/internal/container"
)

const shutdownTimeout = 10 * time.Second

var runFlags struct {
	camera   string
	httpAddr string
	models   string
	upload   string
	interval time.Duration
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the camera, track faces and serve the session UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRunFlags(cmd)
		return runSession(cmd.Context())
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.camera, "camera", "", "camera device id or file:<path> (env CAMERA_DEVICE)")
	f.StringVar(&runFlags.httpAddr, "http", "", "session UI address (env HTTP_ADDR)")
	f.StringVar(&runFlags.models, "models", "", "directory with model files (env MODELS_DIR)")
	f.StringVar(&runFlags.upload, "upload", "", "upload server endpoint (env UPLOAD_ENDPOINT)")
	f.DurationVar(&runFlags.interval, "interval", 0, "detection polling interval (env DETECT_INTERVAL)")
	rootCmd.AddCommand(runCmd)
}

func applyRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("camera") {
		cfg.CameraDevice = runFlags.camera
	}
	if f.Changed("http") {
		cfg.HTTPAddr = runFlags.httpAddr
	}
	if f.Changed("models") {
		cfg.ModelsDir = runFlags.models
	}
	if f.Changed("upload") {
		cfg.UploadEndpoint = runFlags.upload
	}
	if f.Changed("interval") && runFlags.interval > 0 {
		cfg.DetectInterval = runFlags.interval
	}
}

func runSession(ctx context.Context) error {
	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Printf("Error closing session: %v", err)
		}
	}()

	// Сбой моделей или камеры не останавливает интерфейс: причина видна в /status.
	if err := c.Session.Start(ctx); err != nil {
		log.Printf("Session start failed: %v", err)
	}

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: web.New(c.Session).Routes(),
	}
	errc := make(chan error, 1)
	go func() {
		log.Printf("Session UI listening on %s", cfg.HTTPAddr)
		errc <- server.ListenAndServe()
	}()

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, c.Session)
		if err != nil {
			log.Printf("Failed to create bot: %v", err)
		} else {
			go func() {
				log.Println("Bot is running...")
				if err := bot.Run(ctx); err != nil {
					log.Printf("Bot error: %v", err)
				}
			}()
		}
	}

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
