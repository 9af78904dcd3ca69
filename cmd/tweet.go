package cmd

import (
	"context"
	"time"

	"github.com/OrcaXS/animeloop-server/internal/config"
	"github.com/OrcaXS/animeloop-server/internal/database"
	"github.com/OrcaXS/animeloop-server/internal/engine"
	"github.com/OrcaXS/animeloop-server/internal/storage"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var tweetCmd = &cobra.Command{
	Use:     "tweet",
	Short:   "Announce one random loop and exit",
	Long:    `Pick a random loop and post an announcement for it, the same way the scheduled bot job does.`,
	Example: `animeloop-server tweet --config config.yml`,
	Run:     tweetOnce,
}

func init() {
	rootCmd.AddCommand(tweetCmd)
}

func tweetOnce(cmd *cobra.Command, _ []string) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg.MongoDB.URL, cfg.MongoDB.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(ctx); err != nil {
			log.Error("failed to close database connection", "error", err)
		}
	}()

	files, err := storage.New(cfg.Storage.DataDir, cfg.ServerURL, cfg.CDNURL)
	if err != nil {
		log.Fatalf("failed to initialize file store: %v", err)
	}

	eng, err := engine.New(cfg, db, files)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}

	if err := eng.AnnounceRandomLoop(ctx); err != nil {
		log.Fatalf("failed to announce random loop: %v", err)
	}
	log.Info("announced one random loop")
}
