package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"facecam/internal/api/uploadsrv"
	"facecam/internal/infrastructure/storage"
)

var serveFlags struct {
	addr      string
	dir       string
	publicURL string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the upload server that stores captures",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		if f.Changed("addr") {
			cfg.ServerAddr = serveFlags.addr
		}
		if f.Changed("dir") {
			cfg.UploadDir = serveFlags.dir
		}
		if f.Changed("public-url") {
			cfg.PublicURL = serveFlags.publicURL
		}
		return serveUploads(cmd.Context())
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.addr, "addr", "", "listen address (env SERVER_ADDR)")
	f.StringVar(&serveFlags.dir, "dir", "", "directory for stored uploads (env UPLOAD_DIR)")
	f.StringVar(&serveFlags.publicURL, "public-url", "", "base URL used in filePath responses (env PUBLIC_URL)")
	rootCmd.AddCommand(serveCmd)
}

func serveUploads(ctx context.Context) error {
	store, err := storage.NewFileStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: uploadsrv.New(store, cfg.PublicURL).Routes(),
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("Server is running on %s, storing files in %s", cfg.ServerAddr, store.Dir())
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
