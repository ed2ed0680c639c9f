package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fmusic/core/audio"
	"fmusic/core/metadata"
	"fmusic/core/scanner"
	"fmusic/db"
	"fmusic/logger"
	"fmusic/model"
	"fmusic/repository"

	"github.com/spf13/cobra"
)

var indexDir string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Walk the music directory once and index every track",
	Run: func(cmd *cobra.Command, args []string) {
		conn, err := db.Connect(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to database", logger.ErrorField(err))
		}
		defer conn.Close()

		if err := db.MigrateSchema(cfg, &model.Song{}, &model.Playlist{}, &model.Favorite{}); err != nil {
			logger.Fatal("Failed to migrate schema", logger.ErrorField(err))
		}

		songRepo := repository.NewMySQLSongRepository(conn)
		decoder := audio.NewFFmpegDecoder(cfg.FFmpegPath)
		libraryScanner := scanner.New(metadata.NewExtractor(decoder), songRepo)

		dir := indexDir
		if dir == "" {
			dir = cfg.MusicDir
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if _, err := libraryScanner.ScanDir(ctx, dir); err != nil {
			logger.Fatal("Library scan failed", logger.ErrorField(err))
		}
	},
}

func init() {
	indexCmd.Flags().StringVar(&indexDir, "dir", "", "directory to scan (defaults to MUSIC_DIR)")
	rootCmd.AddCommand(indexCmd)
}
