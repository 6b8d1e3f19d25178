package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/policy"
)

// ErrPickerCancelled is returned when the picker is closed without a choice.
var ErrPickerCancelled = errors.New("no customer group selected")

// groupItem adapts policy.GroupPolicy to list.Item
type groupItem struct {
	group policy.GroupPolicy
}

func (i groupItem) Title() string       { return i.group.Label }
func (i groupItem) Description() string { return Rules(i.group) }
func (i groupItem) FilterValue() string { return i.group.Key + " " + i.group.Label }

// Rules is a one-line summary of a group's counting and routing rules.
func Rules(p policy.GroupPolicy) string {
	parts := []string{
		p.Key,
		fmt.Sprintf("%d meals/label", p.ItemsPerLabel),
		"bundles: " + string(p.BundlePolicy),
	}
	if p.Classification.Partition {
		parts = append(parts, "carriers: "+carrierList(p.Precedence()))
	} else {
		parts = append(parts, "single manifest")
	}
	if docs := documentList(p.Workflows); docs != "" {
		parts = append(parts, "docs: "+docs)
	}
	return strings.Join(parts, " · ")
}

func carrierList(cs []policy.Carrier) string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return strings.Join(out, ",")
}

func documentList(w policy.Workflows) string {
	var docs []string
	if w.CXReady {
		docs = append(docs, "CX-Ready")
	}
	if w.PolarParcel {
		docs = append(docs, "Polar Parcel")
	}
	if w.DKDistribution {
		docs = append(docs, "DK")
	}
	return strings.Join(docs, ",")
}

// PickerModel lists the configured customer groups and records the one the
// user confirms with enter.
type PickerModel struct {
	list      list.Model
	styles    Styles
	chosen    *policy.GroupPolicy
	cancelled bool
}

// NewPickerModel creates a picker over groups in the given order.
func NewPickerModel(groups []policy.GroupPolicy) PickerModel {
	items := make([]list.Item, len(groups))
	for i, g := range groups {
		items[i] = groupItem{group: g}
	}

	styles := DefaultStyles()
	l := list.New(items, list.NewDefaultDelegate(), 80, 14)
	l.Title = "Select customer group"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = styles.Badge

	return PickerModel{list: l, styles: styles}
}

// Init initializes the model.
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(groupItem); ok {
				g := item.group
				m.chosen = &g
				return m, tea.Quit
			}
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the picker.
func (m PickerModel) View() string {
	if m.chosen != nil || m.cancelled {
		return ""
	}
	return m.list.View() + "\n" + m.styles.Muted.Render("enter: select · /: filter · q: quit")
}

// Chosen returns the selected group, if any.
func (m PickerModel) Chosen() (policy.GroupPolicy, bool) {
	if m.chosen == nil {
		return policy.GroupPolicy{}, false
	}
	return *m.chosen, true
}

// PickGroup runs the picker on the given terminal streams.
func PickGroup(groups []policy.GroupPolicy, in io.Reader, out io.Writer) (policy.GroupPolicy, error) {
	if len(groups) == 0 {
		return policy.GroupPolicy{}, policy.ErrUnknownGroup
	}
	prog := tea.NewProgram(NewPickerModel(groups), tea.WithInput(in), tea.WithOutput(out))
	final, err := prog.Run()
	if err != nil {
		return policy.GroupPolicy{}, fmt.Errorf("group picker: %w", err)
	}
	if m, ok := final.(PickerModel); ok {
		if g, ok := m.Chosen(); ok {
			return g, nil
		}
	}
	return policy.GroupPolicy{}, ErrPickerCancelled
}
