package releasetui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MacroPower/shipper/pkg/releasecmd"
)

// RunModel displays sequential stage progress: a spinner for the stage in
// flight, a check or cross per finished stage, and an overall progress bar.
type RunModel struct {
	err             error
	startedStages   []string
	completedStages []string
	erroredStages   []string
	spinner         spinner.Model
	progress        progress.Model
	totalStages     int
	width           int
	height          int
	mu              sync.RWMutex
	done            bool
}

func NewRunModel() *RunModel {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	s := spinner.New()
	s.Style = spinnerStyle

	return &RunModel{
		startedStages:   []string{},
		completedStages: []string{},
		erroredStages:   []string{},
		spinner:         s,
		progress:        p,
		mu:              sync.RWMutex{},
	}
}

func (m *RunModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.progress.SetPercent(0))
}

//nolint:ireturn // Third-party.
func (m *RunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		if keyExits(msg) {
			return m, tea.Quit
		}

	case teaMsgWriteLog:
		return m, writeLog(msg, m.width)

	case releasecmd.EventSetStageTotal:
		m.mu.Lock()
		defer m.mu.Unlock()

		m.totalStages = int(msg)

	case releasecmd.EventStartingStage:
		m.mu.Lock()
		defer m.mu.Unlock()

		m.startedStages = append(m.startedStages, string(msg))

	case releasecmd.EventFinishedStage:
		m.mu.Lock()
		defer m.mu.Unlock()

		icon := checkMark
		if msg.Err != nil {
			m.erroredStages = append(m.erroredStages, msg.Stage)
			icon = errorMark
		}

		m.completedStages = append(m.completedStages, msg.Stage)
		completedCount := len(m.completedStages)
		progressCmd := m.progress.SetPercent(float64(completedCount) / float64(m.totalStages))

		return m, tea.Batch(
			progressCmd,
			tea.Printf("%s %s", icon, msg.Stage),
		)

	case releasecmd.EventDone:
		// Allow previously sent messages to be drawn.
		preQuitCmd := tea.Tick(time.Millisecond*100, func(_ time.Time) tea.Msg {
			m.mu.Lock()
			defer m.mu.Unlock()

			m.err = msg.Err
			m.done = true

			return nil
		})

		return m, tea.Sequence(preQuitCmd, teaQuit())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case progress.FrameMsg:
		newModel, cmd := m.progress.Update(msg)
		if newModel, ok := newModel.(progress.Model); ok {
			m.progress = newModel
		}

		return m, cmd

	case error:
		m.mu.Lock()
		defer m.mu.Unlock()

		m.err = msg

		return m, tea.Sequence(finalPause(), tea.Quit)
	}

	return m, nil
}

func (m *RunModel) View() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return getErrorMessage(m.err, m.width, m.totalStages)
	}

	completedCount := len(m.completedStages)

	if m.done {
		return doneStyle.Render(fmt.Sprintf("Done! Ran %d stages.\n", completedCount))
	}

	w := lipgloss.Width(strconv.Itoa(m.totalStages))
	stageCount := fmt.Sprintf(" %*d/%*d", w, completedCount, w, m.totalStages)

	prog := m.progress.View()
	progRendered := progressStyle.Render(prog + stageCount)
	progCellsRemaining := max(0, m.width-lipgloss.Width(progRendered))
	gap := strings.Repeat(" ", progCellsRemaining)
	progOut := progRendered + gap + "\n"

	inProgressStages := differenceStringSlices(m.startedStages, m.completedStages)

	spinners := []string{}
	for _, stage := range inProgressStages {
		spin := m.spinner.View() + " "
		cellsAvail := max(0, m.width-lipgloss.Width(spin))

		stageName := currentStageStyle.Render(stage)
		info := lipgloss.NewStyle().MaxWidth(cellsAvail).Render("Running " + stageName)

		cellsRemaining := max(0, m.width-lipgloss.Width(spin+info))
		gap := strings.Repeat(" ", cellsRemaining)

		spinners = append(spinners, spin+info+gap)
	}

	return strings.Join(spinners, "\n") + "\n" + progOut
}

func differenceStringSlices(a, b []string) []string {
	difference := []string{}

	for _, x := range a {
		if !slices.Contains(b, x) {
			difference = append(difference, x)
		}
	}

	return difference
}
