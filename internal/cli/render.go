package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/phanxgames/canopy"
	"github.com/phanxgames/canopy/backend"
	"github.com/phanxgames/canopy/backend/softbackend"
	"github.com/phanxgames/canopy/internal/config"
	"github.com/phanxgames/canopy/internal/demo"
	"github.com/phanxgames/canopy/internal/snapshot"
)

// frameInterval is the simulated time between headless frames.
const frameInterval = time.Second / 60

// errNoFrame is returned when the render finished without presenting a
// frame to write.
var errNoFrame = errors.New("no frame was rendered")

func (c *CLI) renderCommand() *cobra.Command {
	var s settingsFlags

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the demo mixer headlessly and write the last frame as PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.resolve(cmd)
			if err != nil {
				return err
			}
			return c.runRender(cmd, cfg, s.channels)
		},
	}
	s.bind(cmd)
	cmd.Flags().IntVarP(&s.cfg.Frames, "frames", "n", s.cfg.Frames, "number of frames to render")
	cmd.Flags().StringVarP(&s.cfg.Output, "output", "o", s.cfg.Output, "PNG file for the last frame (empty to skip)")
	return cmd
}

// runRender drives the soft backend with a simulated 60 Hz clock so the
// animation is reproducible.
func (c *CLI) runRender(cmd *cobra.Command, cfg config.Config, channels int) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Backend != "" && cfg.Backend != backend.Software {
		return fmt.Errorf("render: backend %q cannot run headless, use %q", cfg.Backend, backend.Software)
	}
	bg, err := cfg.Color()
	if err != nil {
		return err
	}

	b := softbackend.New(cfg.Width, cfg.Height, cfg.Scale)
	defer b.Close()

	now := time.Now()
	r := canopy.NewRenderer(b,
		canopy.WithClock(func() time.Time { return now }),
		canopy.WithClearColor(bg),
		canopy.WithDebug(cfg.Debug),
	)
	m := demo.NewMixer(r, demo.Options{Channels: channels, Cache: cfg.Cache})
	m.SetSize(float64(cfg.Width), float64(cfg.Height))
	m.Play()

	c.Logger.Debug("rendering", "frames", cfg.Frames, "size", fmt.Sprintf("%dx%d@%v", cfg.Width, cfg.Height, cfg.Scale))
	start := time.Now()
	for range cfg.Frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.RenderFrame(&m.Root.Node)
		now = now.Add(frameInterval)
	}
	c.Logger.Info("rendered", "frames", r.FrameCount(), "elapsed", time.Since(start).Round(time.Millisecond))

	out := cmd.OutOrStdout()
	printTitle(out, "canopy render")
	printKeyValue(out, "backend", b.Name())
	printKeyValue(out, "size", fmt.Sprintf("%dx%d @%gx", cfg.Width, cfg.Height, cfg.Scale))
	printStats(out, r.Stats())

	if cfg.Output == "" {
		return nil
	}
	img := b.LastFrame()
	if img == nil {
		return errNoFrame
	}
	if dir := filepath.Dir(cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := snapshot.WritePNG(cfg.Output, snapshot.FromImage(img)); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	printSuccess(out, "wrote last frame")
	printFile(out, cfg.Output)
	return nil
}
