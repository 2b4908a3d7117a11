package preview

import (
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/mpapenbr/splash-track/log"
	"github.com/mpapenbr/splash-track/pkg/cmd/util"
	"github.com/mpapenbr/splash-track/pkg/config"
	"github.com/mpapenbr/splash-track/pkg/preview"
)

var sizeInch float64

func NewPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "renders a top-down view of a track",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := log.AddToContext(cmd.Context(), log.Default())
			defer util.StartTelemetry(ctx)()
			t, err := util.ResolveTrack(ctx)
			if err != nil {
				log.Error("could not build track", log.ErrorField(err))
				return err
			}
			opts := []preview.Option{
				preview.WithSize(vg.Length(sizeInch)*vg.Inch, vg.Length(sizeInch)*vg.Inch),
			}
			if config.Centerline {
				opts = append(opts, preview.WithCenterline())
			}
			if err := preview.Render(t, config.PreviewOut, opts...); err != nil {
				return err
			}
			log.Info("preview written",
				log.String("track", t.Name),
				log.String("file", config.PreviewOut),
				log.String("format", preview.Format(config.PreviewOut)))
			return nil
		},
	}
	util.AddTrackFlags(cmd)
	cmd.Flags().StringVarP(&config.PreviewOut,
		"out", "o",
		"track.png",
		"output file, the extension selects the format (png, svg, pdf)")
	cmd.Flags().BoolVar(&config.Centerline,
		"centerline",
		false,
		"draws the centerline")
	cmd.Flags().Float64Var(&sizeInch,
		"size",
		8,
		"width and height in inch")
	return cmd
}
