package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/phanxgames/canopy/internal/config"
)

// settingsFlags are the config keys that can be overridden per command.
type settingsFlags struct {
	cfg      config.Config
	noCache  bool
	channels int
}

// bind registers the override flags on cmd, defaulting to config.Default.
func (s *settingsFlags) bind(cmd *cobra.Command) {
	s.cfg = config.Default()
	s.channels = 8
	f := cmd.Flags()
	f.StringVarP(&s.cfg.Backend, "backend", "b", s.cfg.Backend, "backend name (see `canopy backends`)")
	f.IntVar(&s.cfg.Width, "width", s.cfg.Width, "window width in logical pixels")
	f.IntVar(&s.cfg.Height, "height", s.cfg.Height, "window height in logical pixels")
	f.Float64Var(&s.cfg.Scale, "scale", s.cfg.Scale, "device pixel scale")
	f.StringVar(&s.cfg.ClearColor, "clear", s.cfg.ClearColor, "clear color name")
	f.BoolVar(&s.cfg.Debug, "debug", s.cfg.Debug, "enable engine debug checks and per-frame stats")
	f.BoolVar(&s.noCache, "no-cache", false, "disable offscreen caching")
	f.IntVar(&s.channels, "channels", s.channels, "number of mixer channels")
}

// resolve loads the --config file, if any, and applies the flags the user
// set on top of it.
func (s *settingsFlags) resolve(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = s.cfg.Backend
		case "width":
			cfg.Width = s.cfg.Width
		case "height":
			cfg.Height = s.cfg.Height
		case "scale":
			cfg.Scale = s.cfg.Scale
		case "clear":
			cfg.ClearColor = s.cfg.ClearColor
		case "debug":
			cfg.Debug = s.cfg.Debug
		case "frames":
			cfg.Frames = s.cfg.Frames
		case "output":
			cfg.Output = s.cfg.Output
		case "no-cache":
			cfg.Cache = !s.noCache
		}
	})
	return cfg, cfg.Validate()
}
