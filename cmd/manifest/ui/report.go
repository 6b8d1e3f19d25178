package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/pipeline"
)

// maxReportWarnings caps the warning list in the markdown report.
const maxReportWarnings = 50

// Summary renders the bucket counts and packed files of a run.
func Summary(res *pipeline.Result, path string, styles Styles) string {
	var sb strings.Builder
	sb.WriteString(styles.Subtitle.Render(fmt.Sprintf("run %s · %s", res.RunID, res.Group)))
	sb.WriteString(" ")
	sb.WriteString(styles.Info.Render(res.Duration.Round(time.Millisecond).String()))
	sb.WriteString("\n\n")

	c := res.Counts
	counts := NewTable("Orders", "Rows", "Orders", "Dropped", "CM", "MC", "CX", "DK", "Other", "Polar")
	counts.AddRow(itoa(c.Rows), itoa(c.Orders), itoa(c.Dropped), itoa(c.CM), itoa(c.MC), itoa(c.CX), itoa(c.DK), itoa(c.Other), itoa(c.Polar))
	sb.WriteString(counts.View(styles))
	sb.WriteString("\n")

	files := NewTable("Files in "+res.ArchiveName, "File", "Rows", "Bytes")
	for _, f := range res.Files {
		files.AddRow(f.Name, itoa(f.Rows), itoa(f.Size))
	}
	sb.WriteString(files.View(styles))

	for _, o := range res.Omissions {
		sb.WriteString(styles.Warning.Render(fmt.Sprintf("omitted %s: %s", o.Name, o.Reason)))
		sb.WriteString("\n")
	}
	if n := len(res.Warnings); n > 0 {
		sb.WriteString(styles.Warning.Render(fmt.Sprintf("%d data warning(s); run with --report for details", n)))
		sb.WriteString("\n")
	}
	if path != "" {
		sb.WriteString(styles.Success.Render("wrote " + path))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Failure renders a run that produced no archive, listing the data warnings
// that explain why.
func Failure(res *pipeline.Result, err error, styles Styles) string {
	var sb strings.Builder
	sb.WriteString(styles.Error.Render("no archive written: " + err.Error()))
	sb.WriteString("\n")
	if res == nil {
		return sb.String()
	}
	for i, w := range res.Warnings {
		if i == maxReportWarnings {
			sb.WriteString(styles.Muted.Render(fmt.Sprintf("… and %d more", len(res.Warnings)-maxReportWarnings)))
			sb.WriteString("\n")
			break
		}
		sb.WriteString(styles.Warning.Render(w.String()))
		sb.WriteString("\n")
	}
	return sb.String()
}

// ReportMarkdown describes a run as markdown.
func ReportMarkdown(res *pipeline.Result, path string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Manifest run `%s`\n\n", res.RunID)
	fmt.Fprintf(&sb, "- **Group:** %s\n", res.Group)
	fmt.Fprintf(&sb, "- **Archive:** %s\n", res.ArchiveName)
	if path != "" {
		fmt.Fprintf(&sb, "- **Written to:** `%s`\n", path)
	}
	fmt.Fprintf(&sb, "- **Duration:** %s\n\n", res.Duration.Round(time.Millisecond))

	c := res.Counts
	sb.WriteString("## Buckets\n\n| Bucket | Orders |\n|---|---|\n")
	for _, row := range []struct {
		name string
		n    int
	}{{"CM", c.CM}, {"MC", c.MC}, {"CX", c.CX}, {"DK", c.DK}, {"Other", c.Other}, {"Polar Parcel", c.Polar}} {
		fmt.Fprintf(&sb, "| %s | %d |\n", row.name, row.n)
	}
	fmt.Fprintf(&sb, "\n%d input rows, %d orders, %d rows dropped.\n\n", c.Rows, c.Orders, c.Dropped)

	sb.WriteString("## Files\n\n")
	if len(res.Files) == 0 {
		sb.WriteString("_none_\n\n")
	} else {
		sb.WriteString("| File | Rows | Bytes |\n|---|---|---|\n")
		for _, f := range res.Files {
			fmt.Fprintf(&sb, "| %s | %d | %d |\n", f.Name, f.Rows, f.Size)
		}
		sb.WriteString("\n")
	}

	if len(res.Omissions) > 0 {
		sb.WriteString("## Omitted\n\n")
		for _, o := range res.Omissions {
			fmt.Fprintf(&sb, "- **%s**: %s\n", o.Name, o.Reason)
		}
		sb.WriteString("\n")
	}

	if len(res.Warnings) > 0 {
		sb.WriteString("## Data warnings\n\n")
		for i, w := range res.Warnings {
			if i == maxReportWarnings {
				fmt.Fprintf(&sb, "- … and %d more\n", len(res.Warnings)-maxReportWarnings)
				break
			}
			fmt.Fprintf(&sb, "- %s\n", w.String())
		}
	}
	return sb.String()
}

// RenderMarkdown renders markdown for the terminal. The light style is used
// unless dark is set, so output stays stable when piped.
func RenderMarkdown(md string, width int, dark bool) (string, error) {
	style := "light"
	if dark {
		style = "dark"
	}
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
