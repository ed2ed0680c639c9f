package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fmusic/core/audio"
	"fmusic/core/spectrogram"
	"fmusic/db"
	"fmusic/logger"
	"fmusic/repository"

	"github.com/spf13/cobra"
)

var spectrogramCmd = &cobra.Command{
	Use:   "spectrogram",
	Short: "Pre-compute spectrogram images for every track in the catalog",
	Run: func(cmd *cobra.Command, args []string) {
		conn, err := db.Connect(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to database", logger.ErrorField(err))
		}
		defer conn.Close()

		songRepo := repository.NewMySQLSongRepository(conn)
		decoder := audio.NewFFmpegDecoder(cfg.FFmpegPath)
		cache, err := spectrogram.NewCache(cfg.SpectrogramDir, songRepo, decoder)
		if err != nil {
			logger.Fatal("Failed to create spectrogram cache", logger.ErrorField(err))
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		songs, err := songRepo.GetAll(ctx, -1)
		if err != nil {
			logger.Fatal("Failed to list songs", logger.ErrorField(err))
		}

		var done, failed int
		for _, song := range songs {
			if ctx.Err() != nil {
				break
			}
			if _, err := cache.Get(ctx, song.ID); err != nil {
				logger.Warn("Spectrogram generation failed",
					logger.Int64("songId", song.ID),
					logger.String("name", song.Name),
					logger.ErrorField(err),
				)
				failed++
				continue
			}
			done++
		}
		logger.Info("Spectrogram pass finished",
			logger.Int("total", len(songs)),
			logger.Int("generated", done),
			logger.Int("failed", failed),
		)
	},
}

func init() {
	rootCmd.AddCommand(spectrogramCmd)
}
