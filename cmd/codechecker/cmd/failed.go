package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZiperRom1/codechecker/internal/adapters/web"
	"github.com/spf13/cobra"
)

var flagRuns []string

var failedCmd = &cobra.Command{
	Use:   "failed",
	Short: "Query files whose analysis failed",
}

var failedCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count distinct failed files",
	RunE:  runFailedCount,
}

var failedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List failed files and the runs they failed in",
	RunE:  runFailedList,
}

func init() {
	failedCmd.PersistentFlags().StringArrayVar(&flagRuns, "run", nil, "restrict to run name (repeatable; default: all runs)")
	failedCmd.AddCommand(failedCountCmd)
	failedCmd.AddCommand(failedListCmd)
}

func runFailedCount(cmd *cobra.Command, args []string) error {
	client := web.NewClient(flagURL)
	count, err := client.FailedFilesCount(flagProduct, flagRuns)
	if err != nil {
		return err
	}
	fmt.Println(count)
	return nil
}

func runFailedList(cmd *cobra.Command, args []string) error {
	client := web.NewClient(flagURL)
	files, err := client.FailedFiles(flagProduct, flagRuns)
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		runs := make([]string, 0, len(files[p]))
		for _, rec := range files[p] {
			runs = append(runs, rec.RunName)
		}
		fmt.Printf("%s\t%s\n", p, strings.Join(runs, ","))
	}
	return nil
}
