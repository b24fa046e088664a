package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/spf13/cobra"

	"github.com/phanxgames/canopy"
	"github.com/phanxgames/canopy/backend"
	"github.com/phanxgames/canopy/backend/ebitenbackend"
	"github.com/phanxgames/canopy/internal/config"
	"github.com/phanxgames/canopy/internal/demo"
)

func (c *CLI) runCommand() *cobra.Command {
	var s settingsFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the demo mixer in a window",
		Long: `Open the demo mixer in a window.

Click a strip's mute button to fade it, click the round play button or press
space to start and stop the transport, press F12 to save a screenshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.resolve(cmd)
			if err != nil {
				return err
			}
			return c.runWindow(cmd.Context(), cfg, s.channels)
		},
	}
	s.bind(cmd)
	cmd.Flags().StringVarP(&s.cfg.Output, "output", "o", s.cfg.Output, "screenshots are written next to this path")
	return cmd
}

func (c *CLI) runWindow(ctx context.Context, cfg config.Config, channels int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Backend != "" && cfg.Backend != backend.Ebiten {
		return fmt.Errorf("run: backend %q has no window, use %q", cfg.Backend, backend.Ebiten)
	}
	bg, err := cfg.Color()
	if err != nil {
		return err
	}

	b := ebitenbackend.New(cfg.Width, cfg.Height, cfg.Scale)
	r := canopy.NewRenderer(b, canopy.WithClearColor(bg), canopy.WithDebug(cfg.Debug))
	m := demo.NewMixer(r, demo.Options{Channels: channels, Cache: cfg.Cache})
	m.SetSize(float64(cfg.Width), float64(cfg.Height))

	game := ebitenbackend.NewGame(r, b, &m.Root.Node)
	game.ShowStats = cfg.Debug
	shots := filepath.Dir(cfg.Output)
	game.OnUpdate = func() error {
		if ctx.Err() != nil {
			return ebiten.Termination
		}
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			// The screen is in physical pixels; the tree is in logical ones.
			x, y := ebiten.CursorPosition()
			s := b.Scale()
			if m.Click(float64(x)/s, float64(y)/s) {
				c.Logger.Debug("click", "x", x, "y", y, "playing", m.Playing())
			}
		}
		if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
			m.TogglePlay()
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
			game.Screenshot(shots, "mixer")
		}
		return nil
	}

	ebiten.SetWindowTitle(appName + " mixer")
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	c.Logger.Info("opening window", "size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height), "channels", len(m.Strips))
	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("run game: %w", err)
	}
	c.Logger.Info("closed", "stats", r.Stats())
	return ctx.Err()
}
