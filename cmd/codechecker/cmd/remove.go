package cmd

import (
	"fmt"

	"github.com/ZiperRom1/codechecker/internal/adapters/web"
	"github.com/ZiperRom1/codechecker/internal/ports"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove RUN_NAME...",
	Short: "Remove runs: failure records and statistics archives",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	client := web.NewClient(flagURL)
	ok, err := client.RemoveRuns(flagProduct, ports.RunFilter{Names: args})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("run removal was not acknowledged")
	}
	fmt.Printf("removed %d run(s)\n", len(args))
	return nil
}
