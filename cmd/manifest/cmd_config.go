package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/config"
)

var forceInit bool

// configCmd groups configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configInitCmd = &cobra.Command{
	Use:         "init [path]",
	Short:       "Write the default configuration (built-in customer groups included)",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{skipConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultPath
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("%s already exists (use --force to replace it)", path)
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}
