package cmd

import (
	"fmt"
	"os"

	"drive-cache/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "drive-cache",
	Short: "Google Drive mirror cache",
	Long: `Drive Cache mirrors a Google Drive folder into local or S3 storage and
serves it to clients with a versioned manifest and live update events.
Spreadsheets are split into one JSON file per tab.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format for a CLI; debug selects the development preset
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

