package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "codechecker",
	Short: "codechecker: analysis statistics capture and failed-file tracking",
	Long: "Server and client for storing analyzer run statistics: per-product\n" +
		"archives of failed analysis artifacts and a queryable failed-file index.",
}

var (
	flagURL     string
	flagProduct string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "http://127.0.0.1:8001", "base URL of the statistics server")
	rootCmd.PersistentFlags().StringVar(&flagProduct, "product", "", "product scope (server default when empty)")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(failedCmd)
	rootCmd.AddCommand(removeCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
