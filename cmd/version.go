package cmd

import (
	"fmt"
	"runtime"

	"github.com/PolarWolf314/backpack/internal/container"
	"github.com/PolarWolf314/backpack/internal/ui"
	"github.com/PolarWolf314/backpack/internal/utils"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X github.com/PolarWolf314/backpack/cmd.Version=...".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the backpack version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if utils.IsTerminal() {
			banner := figure.NewColorFigure("Backpack", "small", "green", true)
			banner.Print()
			fmt.Println()
		}
		fmt.Printf("backpack %s\n", ui.Highlight.Sprint(Version))
		fmt.Printf("  container format v%d\n", container.FormatVersion)
		fmt.Printf("  %s/%s, %s\n", runtime.GOOS, runtime.GOARCH, runtime.Version())
	},
}
