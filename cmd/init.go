package cmd

import (
	"github.com/spf13/cobra"

	"github.com/caserelay/caserelay/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize caserelay configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure caserelay and generates a .caserelay.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
