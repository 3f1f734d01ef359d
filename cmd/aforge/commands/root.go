package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "aforge",
		Short: "aforge - live video source player",
		Long: `aforge plays live video sources - MJPEG network cameras, X11 screen
regions or a synthetic test pattern - and presents them in an X11 window
or as an MJPEG stream over HTTP.

The player keeps the most recent frame, shows source errors as status
text, and derives the control geometry from the frame dimensions when
auto-sizing is enabled.`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/aforge/config.yaml)")
	rootCmd.PersistentFlags().Int("port", 0, "API server port (default is 8080)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("source", "", "video source type (testpattern, mjpeg, screen)")
	rootCmd.PersistentFlags().String("url", "", "MJPEG stream URL")

	viper.BindPFlag("server_port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("source_type", rootCmd.PersistentFlags().Lookup("source"))
	viper.BindPFlag("source_url", rootCmd.PersistentFlags().Lookup("url"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}
