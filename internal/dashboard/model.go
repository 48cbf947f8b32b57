// Package dashboard renders the live two-pane terminal UI: a step checklist
// on top and the scrollable output of the selected step below.
//
// The dashboard is the render side of the run: on a fixed tick it takes
// value snapshots of the workflow state and the selected step's output
// buffer and repaints. It owns all view state (selection, scroll offsets,
// tail-mode flags) and never mutates execution state; the only signal it
// sends back is cancellation when the user quits mid-run.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/checkboard/checkboard/internal/workflow"
)

// tickInterval is the repaint cadence. New output shows up at the next tick
// at the latest.
const tickInterval = 80 * time.Millisecond

// tickMsg drives the periodic snapshot-and-repaint cycle.
type tickMsg time.Time

// paneView is the per-step scroll state of the output pane.
type paneView struct {
	// offset is the sequence number of the first visible line. Meaningful
	// only while follow is false.
	offset int
	// follow pins the view to the newest output (tail mode). On by default;
	// scrolling up suspends it, scrolling back to the bottom resumes it.
	follow bool
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	run    *workflow.Run
	cancel context.CancelFunc

	width  int
	height int

	snap     workflow.Snapshot
	selected int
	// manual is set once the user picks a step; until then selection
	// follows the step the run is currently working on.
	manual bool
	views  map[int]*paneView
	frame  int
}

// New creates a dashboard model observing run. cancel is invoked when the
// user quits; it must stop the supervisor.
func New(run *workflow.Run, cancel context.CancelFunc) Model {
	return Model{
		run:    run,
		cancel: cancel,
		snap:   run.Snapshot(),
		views:  make(map[int]*paneView),
	}
}

// Run drives the dashboard program until the user quits or a successful
// non-wait run finishes.
func Run(run *workflow.Run, cancel context.CancelFunc) error {
	p := tea.NewProgram(New(run, cancel), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.frame++
		m.snap = m.run.Snapshot()
		if !m.manual {
			m.selected = autoSelect(m.snap)
		}
		if m.snap.Overall == workflow.Succeeded && !m.run.Wait() {
			return m, tea.Quit
		}
		return m, tick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		// The user can always exit, even mid-run. Cancelling a finished
		// run is a no-op; the app waits for the supervisor to confirm the
		// child is gone before the process exits.
		m.cancel()
		return m, tea.Quit

	case "l":
		// Full clear and repaint, recovering from any terminal state a
		// child's raw control sequences may have left behind.
		return m, tea.ClearScreen

	case "j", "down":
		m.scrollBy(1)
	case "k", "up":
		m.scrollBy(-1)
	case "pgdown", " ":
		m.scrollBy(m.pageSize())
	case "pgup":
		m.scrollBy(-m.pageSize())
	case "g", "home":
		m.scrollTo(0)
	case "G", "end":
		m.view(m.selected).follow = true

	case "tab", "right":
		m.selectStep(m.selected + 1)
	case "shift+tab", "left":
		m.selectStep(m.selected - 1)
	}
	// Unrecognized keys are ignored.
	return m, nil
}

// view returns the scroll state for step i, creating it in tail mode.
func (m Model) view(i int) *paneView {
	v, ok := m.views[i]
	if !ok {
		v = &paneView{follow: true}
		m.views[i] = v
	}
	return v
}

func (m *Model) selectStep(i int) {
	if i < 0 || i >= m.run.Len() {
		return
	}
	m.selected = i
	m.manual = true
}

// scrollBy moves the output view of the selected step by delta lines,
// suspending tail mode when the user moves off the bottom and resuming it
// when they reach the bottom again.
func (m *Model) scrollBy(delta int) {
	v := m.view(m.selected)
	if v.follow {
		v.offset = m.maxOffset()
	}
	m.setOffset(v, v.offset+delta)
}

func (m *Model) scrollTo(offset int) {
	m.setOffset(m.view(m.selected), offset)
}

func (m *Model) setOffset(v *paneView, offset int) {
	max := m.maxOffset()
	if offset >= max {
		offset = max
	}
	if offset < 0 {
		offset = 0
	}
	v.offset = offset
	v.follow = offset == max
}

// maxOffset is the offset that puts the buffer tail on the last visible
// line of the output pane.
func (m *Model) maxOffset() int {
	max := m.run.Buffer(m.selected).Len() - m.pageSize()
	if max < 0 {
		max = 0
	}
	return max
}

// autoSelect picks the step the user most likely wants to watch: the running
// step, else the step the run stopped on, else the last step that has output
// to show.
func autoSelect(snap workflow.Snapshot) int {
	for _, s := range snap.Steps {
		if s.State == workflow.Running {
			return s.Index
		}
	}
	for _, s := range snap.Steps {
		if s.State == workflow.Failed || s.State == workflow.Aborted {
			return s.Index
		}
	}
	for i := len(snap.Steps) - 1; i >= 0; i-- {
		if s := snap.Steps[i]; s.State != workflow.Pending {
			return s.Index
		}
	}
	return 0
}

// layout returns the inner height of the output pane's line area. The step
// pane always shows every step; the output pane gets the rest of the screen
// minus borders, pane titles and the footer.
func (m Model) pageSize() int {
	// step pane: title + steps + border; output pane: title + border; footer.
	page := m.height - (1 + len(m.snap.Steps) + 2) - (1 + 2) - 1
	if page < 1 {
		page = 1
	}
	return page
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	innerWidth := m.width - 2
	if innerWidth < 1 {
		innerWidth = 1
	}

	steps := m.renderSteps(innerWidth)
	output := m.renderOutput(innerWidth)
	footer := helpStyle.Render("j/k scroll · pgup/pgdn page · tab select step · l redraw · q quit")

	return lipgloss.JoinVertical(lipgloss.Left, steps, output, footer)
}

func (m Model) renderSteps(width int) string {
	var lines []string
	lines = append(lines, titleStyle.Render("Workflow")+" "+mutedStyle.Render(overallLabel(m.snap.Overall)))
	for _, s := range m.snap.Steps {
		marker := "  "
		name := s.Name
		if s.Index == m.selected {
			marker = accentStyle.Render("▸") + " "
			name = selectStyle.Render(name)
		}
		line := fmt.Sprintf("%s%s %s", marker, stepGlyph(s.State, m.frame), name)
		if note := stepNote(s); note != "" {
			line += " " + mutedStyle.Render(note)
		}
		lines = append(lines, lipgloss.NewStyle().MaxWidth(width).Render(line))
	}
	return borderStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderOutput(width int) string {
	buf := m.run.Buffer(m.selected)
	total := buf.Len()
	page := m.pageSize()
	v := m.view(m.selected)

	start := v.offset
	if v.follow {
		start = total - page
		if start < 0 {
			start = 0
		}
	}
	window := buf.Range(start, start+page)

	title := titleStyle.Render(m.snap.Steps[m.selected].Name) + " " +
		mutedStyle.Render(scrollLabel(start, len(window), total, v.follow))

	lines := make([]string, 0, page+1)
	lines = append(lines, title)
	for _, l := range window {
		lines = append(lines, lipgloss.NewStyle().MaxWidth(width).Render(sanitize(l.Text)))
	}
	for len(lines) < page+1 {
		lines = append(lines, "")
	}
	return borderStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func overallLabel(s workflow.State) string {
	return "· " + s.String()
}

// stepNote is the muted annotation after a step name: duration for finished
// steps, the failure cause for failed ones.
func stepNote(s workflow.StepSnapshot) string {
	switch s.State {
	case workflow.Failed:
		if s.LaunchError != "" {
			return "launch error"
		}
		return fmt.Sprintf("exit %d · %s", s.ExitCode, stepDuration(s))
	case workflow.Succeeded:
		return stepDuration(s)
	case workflow.Aborted:
		return "aborted"
	default:
		return ""
	}
}

func stepDuration(s workflow.StepSnapshot) string {
	if s.StartedAt.IsZero() || s.FinishedAt.IsZero() {
		return ""
	}
	return s.FinishedAt.Sub(s.StartedAt).Round(10 * time.Millisecond).String()
}

func scrollLabel(start, shown, total int, follow bool) string {
	if total == 0 {
		return "· no output yet"
	}
	if follow {
		return fmt.Sprintf("· %d lines · tail", total)
	}
	return fmt.Sprintf("· lines %d-%d of %d", start+1, start+shown, total)
}
