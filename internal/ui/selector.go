package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// selectModel wraps a huh form in Bubble Tea for proper escape handling
type selectModel struct {
	form    *huh.Form
	aborted bool
}

func (m selectModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.aborted = true
			return m, tea.Quit
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, tea.Quit
	}

	return m, cmd
}

func (m selectModel) View() string {
	if m.form.State == huh.StateCompleted {
		return ""
	}
	return m.form.View()
}

// runSelect shows a single-select form and reports whether the user
// picked an option. The chosen value is written through value.
func runSelect[T comparable](title, description string, options []huh.Option[T], value *T) (bool, error) {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[T]().
				Title(title).
				Description(description).
				Options(options...).
				Value(value),
		),
	).WithTheme(customTheme()).WithShowHelp(false)

	final, err := tea.NewProgram(selectModel{form: form}).Run()
	if err != nil {
		return false, err
	}
	return !final.(selectModel).aborted, nil
}

// customTheme returns a custom huh theme matching our style palette
func customTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = t.Focused.Title.Foreground(ColorAccent).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(ColorDim)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(ColorAccent)
	t.Focused.UnselectedOption = t.Focused.UnselectedOption.Foreground(lipgloss.AdaptiveColor{Light: "#1C1917", Dark: "#F5F5F4"})
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(ColorAccent)

	return t
}
