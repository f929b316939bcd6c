package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "caserelay",
	Short: "Turn uploaded documents into editable AI case-study drafts",
	Long: `Caserelay ingests business documents (PDF, Word, PowerPoint, plain
text or a web page), extracts their text and illustrations, and drafts a
structured case study with an LLM. The draft is served to a browser editor
where it can be refined, regenerated for a different audience, and exported
as a standalone HTML document.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".caserelay.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
