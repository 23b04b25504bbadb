package cmd

import (
	"fmt"
	"os"

	"github.com/ZiperRom1/codechecker/internal/adapters/web"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var flagRunName string

var storeCmd = &cobra.Command{
	Use:   "store [flags] REPORT_DIR...",
	Short: "Store analyzer results under a run name",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStore,
}

func init() {
	storeCmd.Flags().StringVarP(&flagRunName, "name", "n", "", "run name (required)")
	storeCmd.MarkFlagRequired("name")
}

func runStore(cmd *cobra.Command, args []string) error {
	// Fail fast on unreadable directories before talking to the server.
	// The bar only shows up for multi-directory stores.
	var bar *progressbar.ProgressBar
	if len(args) > 1 {
		bar = progressbar.Default(int64(len(args)), "checking report dirs")
	}
	for _, dir := range args {
		fi, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("report directory %s: %w", dir, err)
		}
		if !fi.IsDir() {
			return fmt.Errorf("report directory %s: not a directory", dir)
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	client := web.NewClient(flagURL)
	result, err := client.Store(flagProduct, flagRunName, args)
	if err != nil {
		return err
	}

	if result.Captured {
		fmt.Printf("stored run %q (analysis statistics captured)\n", result.RunName)
	} else {
		fmt.Printf("stored run %q\n", result.RunName)
	}
	return nil
}
