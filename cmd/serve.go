package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OrcaXS/animeloop-server/internal/api"
	"github.com/OrcaXS/animeloop-server/internal/config"
	"github.com/OrcaXS/animeloop-server/internal/database"
	"github.com/OrcaXS/animeloop-server/internal/engine"
	"github.com/OrcaXS/animeloop-server/internal/storage"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the animeloop API server",
	Long:  `Start the animeloop API server and the scheduled background jobs.`,
	Example: `animeloop-server serve --config config.yml
animeloop-server serve -c /path/to/config.yml --log-level debug
`,
	Run: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	db, err := database.New(ctx, cfg.MongoDB.URL, cfg.MongoDB.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	files, err := storage.New(cfg.Storage.DataDir, cfg.ServerURL, cfg.CDNURL)
	if err != nil {
		log.Fatalf("failed to initialize file store: %v", err)
	}

	eng, err := engine.New(cfg, db, files)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}

	server, err := api.New(cfg, eng, files, log.GetLevel() == log.DebugLevel)
	if err != nil {
		log.Fatalf("failed to create API server: %v", err)
	}

	// Start the engine in a goroutine
	go func() {
		if err := eng.Run(ctx); err != nil {
			log.Error("engine error", "error", err)
		}
	}()

	// Start the API server in a goroutine
	go func() {
		log.Info("starting API server", "listen", cfg.Listen)
		if err := server.Run(); err != nil {
			log.Error("API server error", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	log.Info("animeloop-server started successfully")
	<-c
	log.Info("shutting down gracefully...")

	// Give time for graceful shutdown
	cancel()
	time.Sleep(2 * time.Second)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := db.Close(shutdownCtx); err != nil {
		log.Error("failed to close database connection", "error", err)
	}
}
