package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tilewright/tilewright/pkg/errors"
	"github.com/tilewright/tilewright/pkg/pipeline"
)

// stageOrder lists the pipeline stages in execution order for display.
var stageOrder = []string{
	pipeline.StageExtract,
	pipeline.StageConstrain,
	pipeline.StageSolve,
	pipeline.StageReconstruct,
}

// stageLabels maps stage names to display labels.
var stageLabels = map[string]string{
	pipeline.StageExtract:     "Extract fragments",
	pipeline.StageConstrain:   "Build constraints",
	pipeline.StageSolve:       "Solve grid",
	pipeline.StageReconstruct: "Reconstruct map",
}

// spinnerFrames are the animation frames for the active stage marker.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// =============================================================================
// GenerateModel - Pipeline progress display
// =============================================================================

type eventMsg pipeline.Event

type eventsClosedMsg struct{}

type frameMsg time.Time

// GenerateModel is the bubbletea model for pipeline progress. It drains
// the runner's event channel once per frame and marks stages complete
// as their events arrive.
type GenerateModel struct {
	events  <-chan pipeline.Event
	done    map[string]bool
	notes   map[string]string
	retries int
	frame   int

	Result *GenerateResult
}

// GenerateResult holds the terminal outcome of the monitored run.
type GenerateResult struct {
	Result *pipeline.Result
	Err    error
}

// NewGenerateModel creates a progress model consuming the given events.
func NewGenerateModel(events <-chan pipeline.Event) GenerateModel {
	return GenerateModel{
		events: events,
		done:   make(map[string]bool),
		notes:  make(map[string]string),
	}
}

func (m GenerateModel) Init() tea.Cmd {
	return tea.Batch(nextFrame(), waitForEvent(m.events))
}

// waitForEvent blocks for the next pipeline event.
func waitForEvent(ch <-chan pipeline.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func nextFrame() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m GenerateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.Result = &GenerateResult{Err: context.Canceled}
			return m, tea.Quit
		}

	case frameMsg:
		m.frame++
		return m, nextFrame()

	case eventMsg:
		ev := pipeline.Event(msg)
		switch ev.Kind {
		case pipeline.EventStage:
			m.done[ev.Stage] = true
			m.notes[ev.Stage] = ev.Message
		case pipeline.EventRetry:
			m.retries++
		case pipeline.EventDone:
			m.Result = &GenerateResult{Result: ev.Result}
			return m, tea.Quit
		case pipeline.EventFailed:
			m.Result = &GenerateResult{Err: ev.Err}
			return m, tea.Quit
		}
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		if m.Result == nil {
			m.Result = &GenerateResult{Err: errors.New(errors.ErrCodeInternal, "run ended without a terminal event")}
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m GenerateModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Generating map"))
	b.WriteString("\n\n")

	active := false
	for _, stage := range stageOrder {
		var marker string
		switch {
		case m.done[stage]:
			marker = styleIconSuccess.Render(iconSuccess)
		case !active:
			marker = styleIconSpinner.Render(spinnerFrames[m.frame%len(spinnerFrames)])
			active = true
		default:
			marker = StyleDim.Render("·")
		}

		line := fmt.Sprintf("  %s %s", marker, stageLabels[stage])
		if note := m.notes[stage]; note != "" {
			line += "  " + StyleDim.Render(note)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.retries > 0 {
		b.WriteString("\n")
		b.WriteString("  " + StyleWarning.Render(fmt.Sprintf("%d contradiction retries", m.retries)))
		b.WriteString("\n")
	}

	return b.String()
}

// runGenerateTUI executes the pipeline behind a progress display and
// returns the terminal result.
func runGenerateTUI(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	events := runner.ExecuteAsync(ctx, opts)

	p := tea.NewProgram(NewGenerateModel(events), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return nil, err
	}

	m, ok := final.(GenerateModel)
	if !ok || m.Result == nil {
		return nil, errors.New(errors.ErrCodeInternal, "progress display ended without a result")
	}
	if m.Result.Err != nil {
		return nil, m.Result.Err
	}
	return m.Result.Result, nil
}
