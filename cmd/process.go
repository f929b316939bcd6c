package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/caserelay/caserelay/internal/extract"
	"github.com/caserelay/caserelay/internal/progress"
)

var processJSON bool

var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Extract documents locally without starting the server",
	Long: `Runs local extraction over the given files and prints what the server
would work with: text size, detected sections, key points and images. Useful
for checking a document before uploading it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reporter := progress.NewReporter()
		reporter.Start(len(args))

		var results []*extract.Result
		for i, path := range args {
			res, err := extract.Process(path)
			if err != nil {
				reporter.Finish()
				return fmt.Errorf("processing %s: %w", path, err)
			}
			results = append(results, res)
			reporter.Update(i+1, path)
		}
		reporter.Finish()

		if processJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}

		for _, res := range results {
			printResult(res)
		}
		return nil
	},
}

func printResult(res *extract.Result) {
	m := res.Metadata
	fmt.Printf("%s (%s, %d bytes)\n", m.Filename, m.FileType, m.FileSize)
	fmt.Printf("  Status: %s", m.Status)
	if m.Error != "" {
		fmt.Printf(" (%s)", m.Error)
	}
	fmt.Println()
	fmt.Printf("  Words: %d", m.WordCount)
	if m.PageCount > 0 {
		fmt.Printf(", pages: %d", m.PageCount)
	}
	fmt.Println()
	if res.Structured.Title != "" {
		fmt.Printf("  Title: %s\n", res.Structured.Title)
	}
	if n := len(res.Structured.Sections); n > 0 {
		fmt.Printf("  Sections (%d):\n", n)
		for _, sec := range res.Structured.Sections {
			fmt.Printf("    - %s\n", sec.Title)
		}
	}
	if n := len(res.Structured.KeyPoints); n > 0 {
		fmt.Printf("  Key points: %d\n", n)
	}
	if n := len(res.Images); n > 0 {
		fmt.Printf("  Images: %d\n", n)
	}
	if res.SkipAI {
		fmt.Println("  Note: too large for model generation, fallback draft only")
	}
	if verbose {
		preview := res.Text
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("  Text preview:\n%s\n", preview)
	}
}

func init() {
	processCmd.Flags().BoolVar(&processJSON, "json", false, "Print full extraction results as JSON")
	rootCmd.AddCommand(processCmd)
}
