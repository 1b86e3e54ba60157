package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"picturebook/internal/config"
	"picturebook/internal/models"
	"picturebook/internal/tui"
	"picturebook/internal/viewer"
)

var (
	tuiTablet    bool
	tuiHideDelay time.Duration
)

// tuiCmd opens the shelf in the terminal
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Read picture books in the terminal",
	Long: `Open the shelf as a full-screen terminal app.

A terminal at least twice as wide as it is tall counts as landscape; on a
phone-class device the controls are hidden there. Pass --tablet to keep them.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	delay := tuiHideDelay
	if delay == 0 {
		d, err := config.LoadHideDelay()
		if err != nil {
			return err
		}
		delay = d
	}

	device := models.Phone
	if tuiTablet {
		device = models.Tablet
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return tui.Run(ctx, cat,
		tui.WithDevice(device),
		tui.WithViewerOptions(viewer.WithHideDelay(delay)),
	)
}
