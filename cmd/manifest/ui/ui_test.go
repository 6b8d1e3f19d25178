package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/export"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/manifest"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/pipeline"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/policy"
)

func press(m tea.Model, key string) (tea.Model, tea.Cmd) {
	switch key {
	case "enter":
		return m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	case "down":
		return m.Update(tea.KeyMsg{Type: tea.KeyDown})
	case "esc":
		return m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	}
	return m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
}

func TestPicker_SelectsHighlightedGroup(t *testing.T) {
	var m tea.Model = NewPickerModel(policy.Builtin())
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Contains(t, m.View(), "Clean Eats Australia")

	m, _ = press(m, "down")
	m, cmd := press(m, "enter")
	require.NotNil(t, cmd)

	g, ok := m.(PickerModel).Chosen()
	require.True(t, ok)
	assert.Equal(t, "made-active", g.Key)
	assert.Empty(t, m.View())
}

func TestPicker_Cancel(t *testing.T) {
	for _, key := range []string{"esc", "q"} {
		t.Run(key, func(t *testing.T) {
			var m tea.Model = NewPickerModel(policy.Builtin())
			m, cmd := press(m, key)
			require.NotNil(t, cmd)
			_, ok := m.(PickerModel).Chosen()
			assert.False(t, ok)
		})
	}
}

func TestPickGroup_NoGroups(t *testing.T) {
	_, err := PickGroup(nil, strings.NewReader(""), &strings.Builder{})
	assert.ErrorIs(t, err, policy.ErrUnknownGroup)
}

func TestRules(t *testing.T) {
	clean := Rules(policy.CleanEats())
	assert.Contains(t, clean, "24 meals/label")
	assert.Contains(t, clean, "carriers: CM,MC,CX,DK")
	assert.Contains(t, clean, "docs: CX-Ready,Polar Parcel,DK")

	elite := Rules(policy.EliteMeals())
	assert.Contains(t, elite, "single manifest")
	assert.NotContains(t, elite, "docs:")
}

func TestTable_View(t *testing.T) {
	styles := NewStyles(LightTheme())
	assert.Empty(t, NewTable("Empty", "A").View(styles))

	tbl := NewTable("Counts", "Bucket", "Orders")
	tbl.AddRow("CM", "12")
	tbl.AddRow("Other")
	out := tbl.View(styles)
	assert.Contains(t, out, "Counts")
	assert.Contains(t, out, "Bucket")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "Other")
	assert.Contains(t, out, "-----")
}

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		RunID:       "run-1",
		Group:       "clean-eats",
		ArchiveName: "CleanEats_Manifests.zip",
		Files: []export.FileInfo{
			{Name: "CM_Manifest.xlsx", Size: 6100, Rows: 2},
			{Name: "Polar_Parcel_Manifest.xlsx", Size: 5800, Rows: 4},
		},
		Omissions: []export.Omission{{Name: "CX_Ready_Manifest.xlsx", Reason: "template missing"}},
		Warnings:  []manifest.Warning{{OrderID: "#1005", Field: "Lineitem quantity", Message: "not a number"}},
		Counts:    pipeline.Counts{Rows: 9, Orders: 5, Dropped: 1, CM: 1, MC: 1, CX: 1, DK: 1, Other: 1, Polar: 4},
		Duration:  1234 * time.Millisecond,
	}
}

func TestSummary(t *testing.T) {
	out := Summary(sampleResult(), "/out/CleanEats_Manifests.zip", NewStyles(LightTheme()))
	assert.Contains(t, out, "CM_Manifest.xlsx")
	assert.Contains(t, out, "omitted CX_Ready_Manifest.xlsx")
	assert.Contains(t, out, "1 data warning(s)")
	assert.Contains(t, out, "wrote /out/CleanEats_Manifests.zip")
	assert.Contains(t, out, "run run-1")
	assert.Contains(t, out, "1.234s")
}

func TestFailure(t *testing.T) {
	styles := NewStyles(LightTheme())
	err := errors.New("nothing generated: no orders in input")

	out := Failure(sampleResult(), err, styles)
	assert.Contains(t, out, "no archive written: nothing generated")
	assert.Contains(t, out, "#1005 [Lineitem quantity]: not a number")

	assert.Equal(t, 1, strings.Count(Failure(nil, err, styles), "\n"))
}

func TestReportMarkdown(t *testing.T) {
	md := ReportMarkdown(sampleResult(), "")
	assert.Contains(t, md, "# Manifest run `run-1`")
	assert.Contains(t, md, "| Polar Parcel | 4 |")
	assert.Contains(t, md, "| CM_Manifest.xlsx | 2 | 6100 |")
	assert.Contains(t, md, "## Omitted")
	assert.Contains(t, md, "#1005 [Lineitem quantity]: not a number")
	assert.NotContains(t, md, "Written to")

	rendered, err := RenderMarkdown(md, 100, false)
	require.NoError(t, err)
	assert.Contains(t, rendered, "CM_Manifest.xlsx")
}

func TestReportMarkdown_CapsWarnings(t *testing.T) {
	res := sampleResult()
	res.Warnings = make([]manifest.Warning, maxReportWarnings+3)
	md := ReportMarkdown(res, "")
	assert.Contains(t, md, "and 3 more")
}
