package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/LukeCreativeInd/cm-logistics-manifest/cmd/manifest/ui"
)

// groupsCmd lists the configured customer groups
var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List the configured customer groups and their rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := cfg.Registry()
		if err != nil {
			return err
		}
		tbl := ui.NewTable("Customer groups", "Key", "Label", "Meals/label", "Bundles", "Archive")
		for _, g := range reg.Groups() {
			tbl.AddRow(g.Key, g.Label, strconv.Itoa(g.ItemsPerLabel), string(g.BundlePolicy), g.ArchiveName+".zip")
		}
		styles := ui.DefaultStyles()
		fmt.Fprint(cmd.OutOrStdout(), tbl.View(styles))
		for _, g := range reg.Groups() {
			fmt.Fprintln(cmd.OutOrStdout(), styles.Muted.Render(ui.Rules(g)))
		}
		return nil
	},
}
