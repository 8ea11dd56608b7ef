package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"deckcrafter/internal/types"
)

// errFormCanceled is returned when the user leaves the form with esc.
var errFormCanceled = errors.New("preferences form canceled")

type formField struct {
	label string
	get   func(p types.UserPreferences) string
	set   func(p *types.UserPreferences, v string) error
}

// textField edits a plain string preference.
func textField(label string, field func(p *types.UserPreferences) *string) formField {
	return formField{
		label: label,
		get:   func(p types.UserPreferences) string { return *field(&p) },
		set: func(p *types.UserPreferences, v string) error {
			*field(p) = v
			return nil
		},
	}
}

var formFields = []formField{
	textField("Language", func(p *types.UserPreferences) *string { return &p.Language }),
	textField("Theme", func(p *types.UserPreferences) *string { return &p.Theme }),
	textField("Game style", func(p *types.UserPreferences) *string { return &p.GameStyle }),
	{
		label: "Players (e.g. 2-6)",
		get:   func(p types.UserPreferences) string { return p.NumberOfPlayers },
		set: func(p *types.UserPreferences, v string) error {
			if v != "" {
				if _, err := types.ParsePlayerRange(v); err != nil {
					return err
				}
			}
			p.NumberOfPlayers = v
			return nil
		},
	},
	{
		label: "Max unique cards (0 = no limit)",
		get: func(p types.UserPreferences) string {
			if p.MaxUniqueCards == 0 {
				return ""
			}
			return strconv.Itoa(p.MaxUniqueCards)
		},
		set: func(p *types.UserPreferences, v string) error {
			if v == "" {
				p.MaxUniqueCards = 0
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("%q is not a non-negative number", v)
			}
			p.MaxUniqueCards = n
			return nil
		},
	},
	textField("Target audience", func(p *types.UserPreferences) *string { return &p.TargetAudience }),
	textField("Rule complexity", func(p *types.UserPreferences) *string { return &p.RuleComplexity }),
	{
		label: "Content exclusions (comma separated)",
		get:   func(p types.UserPreferences) string { return strings.Join(p.ContentExclusions, ", ") },
		set: func(p *types.UserPreferences, v string) error {
			p.ContentExclusions = splitList(v)
			return nil
		},
	},
	textField("Free description (fills empty fields)", func(p *types.UserPreferences) *string { return &p.GameDescription }),
}

// formModel is a bubbletea model editing UserPreferences.
type formModel struct {
	inputs    []textinput.Model
	focus     int
	prefs     types.UserPreferences
	err       error
	submitted bool
	canceled  bool
}

func newFormModel(prefs types.UserPreferences) formModel {
	m := formModel{prefs: prefs.Clone()}
	for i, f := range formFields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 500
		ti.Width = 60
		ti.SetValue(f.get(prefs))
		if i == 0 {
			ti.Focus()
		}
		m.inputs = append(m.inputs, ti)
	}
	return m
}

func (m formModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		case tea.KeyTab, tea.KeyDown:
			return m.move(1), nil
		case tea.KeyShiftTab, tea.KeyUp:
			return m.move(-1), nil
		case tea.KeyEnter:
			if m.focus < len(m.inputs)-1 {
				return m.move(1), nil
			}
			if err := m.collect(); err != nil {
				m.err = err
				return m, nil
			}
			m.submitted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m formModel) move(delta int) formModel {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Focus()
	return m
}

// collect copies every input into prefs.
func (m *formModel) collect() error {
	for i, f := range formFields {
		if err := f.set(&m.prefs, strings.TrimSpace(m.inputs[i].Value())); err != nil {
			m.focus = i
			return fmt.Errorf("%s: %w", f.label, err)
		}
	}
	return nil
}

func (m formModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("New card game"))
	sb.WriteString("\n\n")
	for i, f := range formFields {
		label := mutedStyle.Render(f.label)
		if i == m.focus {
			label = headerStyle.UnsetPadding().Render(f.label)
		}
		fmt.Fprintf(&sb, "%s\n%s\n\n", label, m.inputs[i].View())
	}
	if m.err != nil {
		sb.WriteString(errorStyle.Render(m.err.Error()))
		sb.WriteString("\n")
	}
	sb.WriteString(mutedStyle.Render("tab/shift+tab move · enter next/submit · esc cancel"))
	sb.WriteString("\n")
	return sb.String()
}

// runForm shows the preferences form and returns the edited preferences.
func runForm(prefs types.UserPreferences) (types.UserPreferences, error) {
	final, err := tea.NewProgram(newFormModel(prefs)).Run()
	if err != nil {
		return prefs, fmt.Errorf("preferences form: %w", err)
	}
	m := final.(formModel)
	if !m.submitted {
		return prefs, errFormCanceled
	}
	return m.prefs, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
