package commands

import (
	"fmt"
	"log"

	"github.com/bartonlees/aforge/internal/render"
	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show the player in an X11 window",
	Long: `Open an X11 window and present the configured video source in it.
The window closes when the source stops or the window is destroyed.`,
	Example: `  # View the built-in test pattern
  aforge view

  # View an MJPEG camera
  aforge view --source mjpeg --url http://camera.local/video`,
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()

	p, err := newPlayer(cfg)
	if err != nil {
		return err
	}

	src, err := newSource(cfg)
	if err != nil {
		return fmt.Errorf("failed to create video source: %w", err)
	}
	if err := p.SetSource(src); err != nil {
		return fmt.Errorf("failed to attach video source: %w", err)
	}

	win, err := render.NewWindow(cfg.Display.Title, cfg.Display.Width, cfg.Display.Height, p)
	if err != nil {
		return fmt.Errorf("failed to open window: %w", err)
	}
	defer win.Close()
	p.SetHost(win)

	log.Printf("Starting video source: %s", src.Name())
	if err := p.Start(); err != nil {
		return fmt.Errorf("failed to start player: %w", err)
	}
	defer func() {
		p.SignalToStop()
		p.WaitForStop()
	}()

	return win.Run()
}
