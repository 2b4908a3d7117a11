package build

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/splash-track/log"
	"github.com/mpapenbr/splash-track/pkg/cmd/util"
	"github.com/mpapenbr/splash-track/pkg/config"
	"github.com/mpapenbr/splash-track/pkg/track"
)

var dumpFile string

func NewBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "builds a track and prints its summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := log.AddToContext(cmd.Context(), log.Default())
			defer util.StartTelemetry(ctx)()
			t, err := util.ResolveTrack(ctx)
			if err != nil {
				log.Error("could not build track", log.ErrorField(err))
				return err
			}
			if err := printSummary(cmd.OutOrStdout(), t); err != nil {
				return err
			}
			return dump(cmd)
		},
	}
	util.AddTrackFlags(cmd)
	cmd.Flags().StringVar(&dumpFile,
		"dump",
		"",
		"writes the track description as yaml to this file (- for stdout)")
	return cmd
}

func printSummary(w io.Writer, t *track.Track) error {
	_, err := fmt.Fprintf(w,
		"track:       %s\nlength:      %.3f\nlooping:     %t\nlayers:      %d\n"+
			"checkpoints: %d\nsections:    %d\nvertices:    %d\ntriangles:   %d\n",
		t.Name, t.TotalLength, t.IsLooping, t.LayerCount(),
		t.CheckpointCount, len(t.Sections), t.Mesh.VertexCount(), t.Mesh.TriangleCount())
	return err
}

// dump writes the description of the selected track in the current file
// format.
func dump(cmd *cobra.Command) error {
	if dumpFile == "" {
		return nil
	}
	data, err := description()
	if err != nil {
		return err
	}
	var w io.Writer = cmd.OutOrStdout()
	if dumpFile != "-" {
		f, err := os.Create(dumpFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return track.Encode(w, data)
}

func description() (*track.Data, error) {
	if config.TrackFile != "" {
		return track.LoadFile(config.TrackFile)
	}
	n, err := track.ParseNickname(config.Track)
	if err != nil {
		return nil, err
	}
	return track.Preset(n), nil
}
