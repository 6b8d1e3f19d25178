package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LukeCreativeInd/cm-logistics-manifest/cmd/manifest/ui"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/orders"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/pipeline"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/policy"
)

var (
	groupKey     string
	coldPickup   bool
	templatePath string
	outDir       string
	overwrite    bool
	showReport   bool

	// interactive reports whether the group picker may be shown.
	interactive = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) && isatty.IsTerminal(os.Stdin.Fd())
	}
)

// generateCmd runs the pipeline over one or more CSV exports.
var generateCmd = &cobra.Command{
	Use:   "generate [files...]",
	Short: "Generate the manifest archive from Shopify order exports",
	Long: `Reads one or more Shopify order CSV exports, builds the manifests for the
selected customer group and writes <archive_name>.zip to the output directory.

Without --group, an interactive picker lists the configured groups when
running in a terminal.

Examples:
  manifest generate orders.csv --group clean-eats
  manifest generate a.csv b.csv --group clean-eats --cold-pickup --report`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&groupKey, "group", "g", "", "Customer group key or label")
	generateCmd.Flags().BoolVar(&coldPickup, "cold-pickup", false, "Add the Cold Xpress pickup row to the MC manifest")
	generateCmd.Flags().StringVar(&templatePath, "template", "", "CX-Ready template (default from config)")
	generateCmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default from config)")
	generateCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing archive instead of adding a timestamp")
	generateCmd.Flags().BoolVar(&showReport, "report", false, "Print a markdown run report")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, err := resolveGroup(groupKey, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}

	var sources []orders.Source
	for _, path := range args {
		src, f, err := orders.FileSource(path)
		if err != nil {
			return err
		}
		defer f.Close()
		sources = append(sources, src)
	}

	tmpl := templatePath
	if tmpl == "" {
		tmpl = cfg.Templates.CXReady
	}
	dir := outDir
	if dir == "" {
		dir = cfg.Output.Dir
	}

	logger.Info("generating manifests",
		zap.String("group", group.Key),
		zap.Int("inputs", len(sources)),
		zap.Bool("cold_pickup", coldPickup))

	res, err := pipeline.Run(ctx, pipeline.Request{
		Group:        group,
		ColdPickup:   coldPickup,
		Inputs:       sources,
		TemplatePath: tmpl,
	})
	if err != nil {
		if res != nil && errors.Is(err, pipeline.ErrNothingGenerated) {
			for _, w := range res.Warnings {
				logger.Warn("data warning", zap.String("warning", w.String()))
			}
			fmt.Fprint(cmd.ErrOrStderr(), ui.Failure(res, err, ui.DefaultStyles()))
		}
		return err
	}

	path, err := pipeline.WriteArchive(dir, res, time.Now(), overwrite || cfg.Output.Overwrite)
	if err != nil {
		return err
	}
	logger.Info("archive written",
		zap.String("run_id", res.RunID),
		zap.String("path", path),
		zap.Int("files", len(res.Files)),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("duration", res.Duration))

	return printResult(cmd.OutOrStdout(), res, path)
}

func printResult(w io.Writer, res *pipeline.Result, path string) error {
	styles := ui.DefaultStyles()
	fmt.Fprint(w, ui.Summary(res, path, styles))
	if !showReport {
		return nil
	}
	out, err := ui.RenderMarkdown(ui.ReportMarkdown(res, path), 100, styles.Theme.IsDark)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	fmt.Fprint(w, out)
	return nil
}

// resolveGroup looks up key, or asks the user when key is empty and a
// terminal is attached.
func resolveGroup(key string, in io.Reader, out io.Writer) (policy.GroupPolicy, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return policy.GroupPolicy{}, err
	}
	if key != "" {
		return reg.Lookup(key)
	}
	if !interactive() {
		return policy.GroupPolicy{}, fmt.Errorf("--group is required (one of %v)", reg.Keys())
	}
	return ui.PickGroup(reg.Groups(), in, out)
}

