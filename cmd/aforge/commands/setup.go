package commands

import (
	"fmt"
	"image"

	"github.com/bartonlees/aforge/internal/config"
	"github.com/bartonlees/aforge/internal/logger"
	"github.com/bartonlees/aforge/internal/overlay"
	"github.com/bartonlees/aforge/internal/player"
	"github.com/bartonlees/aforge/internal/source"
	"github.com/spf13/viper"
)

// loadConfig builds the config manager and applies command line overrides
func loadConfig() (*config.Manager, error) {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config manager: %w", err)
	}

	if viper.IsSet("server_port") {
		if port := viper.GetInt("server_port"); port > 0 {
			configMgr.SetPort(port)
		}
	}
	if viper.IsSet("log_level") {
		if level := viper.GetString("log_level"); level != "" {
			configMgr.SetLogLevel(level)
		}
	}

	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, true)
	return configMgr, nil
}

// newSource builds the video source selected by the configuration, with
// type and URL optionally overridden from the command line
func newSource(cfg *config.Config) (source.Source, error) {
	srcType := cfg.Source.Type
	if viper.IsSet("source_type") {
		if t := viper.GetString("source_type"); t != "" {
			srcType = config.SourceType(t)
		}
	}
	url := cfg.Source.URL
	if viper.IsSet("source_url") {
		if u := viper.GetString("source_url"); u != "" {
			url = u
		}
	}

	switch srcType {
	case config.SourceTestPattern:
		return source.NewTestPattern(cfg.Source.Width, cfg.Source.Height, cfg.Source.FPS), nil
	case config.SourceMJPEG:
		if url == "" {
			return nil, fmt.Errorf("mjpeg source requires a URL")
		}
		return source.NewMJPEG(url), nil
	case config.SourceScreen:
		region := image.Rect(
			cfg.Source.X, cfg.Source.Y,
			cfg.Source.X+cfg.Source.Width, cfg.Source.Y+cfg.Source.Height,
		)
		return source.NewScreen(region, cfg.Source.FPS)
	default:
		return nil, fmt.Errorf("unknown source type %q", srcType)
	}
}

// newPlayer builds a player configured per the player section, with the
// overlay chain attached when enabled
func newPlayer(cfg *config.Config) (*player.Player, error) {
	p := player.New()
	p.SetAutoSize(cfg.Player.AutoSize)

	if cfg.Player.BorderColor != "" {
		borderColor, err := config.ParseHexColor(cfg.Player.BorderColor)
		if err != nil {
			return nil, fmt.Errorf("invalid border color: %w", err)
		}
		p.SetBorderColor(borderColor)
	}

	if cfg.Player.Timestamp {
		widgets := overlay.NewManager()
		widgets.Add(overlay.NewTimestampWidget(""))
		p.OnNewFrame(widgets.Hook())
	}
	return p, nil
}
