package tui

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stackpilot/stackpilot/internal/state"
)

// phaseRow is one line of the phase checklist.
type phaseRow struct {
	Name  string
	Phase state.Phase
}

// phaseRows lists the six phases in forward order for display.
var phaseRows = []phaseRow{
	{Name: "Environment Check", Phase: state.PhaseEnvCheck},
	{Name: "Authentication", Phase: state.PhaseAuth},
	{Name: "Scaffold", Phase: state.PhaseScaffold},
	{Name: "Provision", Phase: state.PhaseProvision},
	{Name: "Environment Wiring", Phase: state.PhaseEnvWiring},
	{Name: "Deploy", Phase: state.PhaseDeploy},
}

// phaseIndex returns the position of p in the fixed sequence, -1 if
// unknown.
func phaseIndex(p state.Phase) int {
	for i, row := range phaseRows {
		if row.Phase == p {
			return i
		}
	}
	return -1
}

// LoadFunc fetches the latest run state on each tick.
type LoadFunc func() (*state.RunState, error)

// Model is the Bubble Tea model for the watch dashboard.
type Model struct {
	ProjectName string

	// Latest persisted state
	State    *state.RunState
	NotFound bool

	// Animation
	SpinnerFrame int

	// UI state
	Width  int
	Height int
	Err    error
	Done   bool

	load LoadFunc
}

// NewWatchModel creates a model that polls load on every tick.
func NewWatchModel(projectName string, load LoadFunc) Model {
	return Model{ProjectName: projectName, load: load}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), tickCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case StateMsg:
		m.applyState(msg)
		if m.State != nil {
			switch m.State.Status {
			case state.StatusComplete:
				m.Done = true
				return m, tea.Quit
			case state.StatusFailed:
				return m, tea.Quit
			}
		}

	case TickMsg:
		m.SpinnerFrame++
		return m, tea.Batch(m.loadCmd(), tickCmd())

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) applyState(msg StateMsg) {
	m.NotFound = msg.NotFound
	if msg.FetchErr != "" {
		m.Err = errString(msg.FetchErr)
		return
	}
	if msg.State != nil {
		m.State = msg.State
	}
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		st, err := m.load()
		switch {
		case errors.Is(err, state.ErrNotFound):
			return StateMsg{NotFound: true}
		case err != nil:
			return StateMsg{FetchErr: err.Error()}
		default:
			return StateMsg{State: st}
		}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}

type errString string

func (e errString) Error() string { return string(e) }
