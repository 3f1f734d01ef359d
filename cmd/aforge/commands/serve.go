package commands

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bartonlees/aforge/internal/api"
	"github.com/bartonlees/aforge/internal/output"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the aforge streaming server",
	Long: `Start the aforge HTTP server, streaming the rendered player output
as MJPEG and exposing a REST API for player control.`,
	Example: `  # Serve the built-in test pattern on the default port (8080)
  aforge serve

  # Stream an MJPEG camera
  aforge serve --source mjpeg --url http://camera.local/video

  # Capture the screen on a custom port
  aforge serve --source screen --port 9090

  # Start with debug logging
  aforge serve --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Println("Loading configuration...")
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()
	log.Printf("Configuration loaded from: %s", configMgr.GetConfigPath())
	log.Printf("Log level: %s", cfg.LogLevel)

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

	broadcaster := output.NewBroadcaster(p, output.Config{
		Width:   cfg.Stream.Width,
		Height:  cfg.Stream.Height,
		FPS:     cfg.Stream.FPS,
		Quality: cfg.Stream.Quality,
	})
	p.SetHost(broadcaster)

	log.Printf("Starting video source: %s", src.Name())
	if err := p.Start(); err != nil {
		return fmt.Errorf("failed to start player: %w", err)
	}
	if err := broadcaster.Start(); err != nil {
		return fmt.Errorf("failed to start broadcaster: %w", err)
	}

	server := api.NewServer(p, configMgr, broadcaster)
	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.ServerPort)
		if err := server.Start(cfg.ServerPort); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Printf("aforge is running")
	log.Printf("   - Stream: http://localhost:%d/stream", cfg.ServerPort)
	log.Printf("   - API: http://localhost:%d/api", cfg.ServerPort)
	log.Println("   - Press Ctrl+C to stop")

	<-sigChan

	log.Println("Shutting down gracefully...")
	broadcaster.Stop()
	p.SignalToStop()
	p.WaitForStop()
	return nil
}
