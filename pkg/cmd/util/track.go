package util

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/splash-track/log"
	"github.com/mpapenbr/splash-track/pkg/config"
	"github.com/mpapenbr/splash-track/pkg/track"
)

// AddTrackFlags registers the flags selecting the track of a command.
func AddTrackFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&config.Track,
		"track", "t",
		track.Beginner.String(),
		"built-in track (beginner, vertical, advanced)")
	cmd.Flags().StringVarP(&config.TrackFile,
		"file", "f",
		"",
		"track description file, takes precedence over --track")
}

// ResolveTrack builds the track selected by config.TrackFile or config.Track.
func ResolveTrack(ctx context.Context) (*track.Track, error) {
	logger := log.GetFromContext(ctx).Named("track")
	if config.TrackFile != "" {
		data, err := track.LoadFile(config.TrackFile)
		if err != nil {
			return nil, err
		}
		return track.Build(data, track.WithLogger(logger))
	}
	n, err := track.ParseNickname(config.Track)
	if err != nil {
		return nil, err
	}
	catalog, err := track.NewCatalog(ctx, track.WithCatalogLogger(logger))
	if err != nil {
		return nil, err
	}
	t, ok := catalog.Get(n)
	if !ok {
		return nil, fmt.Errorf("track %s not in catalog", n)
	}
	return t, nil
}

// StartTelemetry sets up telemetry if enabled. The returned func flushes it.
func StartTelemetry(ctx context.Context) func() {
	if !config.EnableTelemetry {
		return func() {}
	}
	log.Info("Enabling telemetry")
	telemetry, err := config.SetupTelemetry(ctx)
	if err != nil {
		log.Warn("Could not setup telemetry", log.ErrorField(err))
		return func() {}
	}
	return telemetry.Shutdown
}
