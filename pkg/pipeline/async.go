package pipeline

import (
	"context"
)

// EventKind classifies pipeline events.
type EventKind string

const (
	// EventStage reports a completed pipeline stage.
	EventStage EventKind = "stage"

	// EventRetry reports a solve attempt that hit a contradiction.
	EventRetry EventKind = "retry"

	// EventDone carries the final result. It is the last event on the
	// channel for a successful run.
	EventDone EventKind = "done"

	// EventFailed carries the terminal error. It is the last event on
	// the channel for a failed run.
	EventFailed EventKind = "failed"
)

// Stage names carried by EventStage events.
const (
	StageExtract     = "extract"
	StageConstrain   = "constrain"
	StageSolve       = "solve"
	StageReconstruct = "reconstruct"
)

// Event is a progress notification from an asynchronous run.
type Event struct {
	Kind    EventKind
	Stage   string
	Message string
	Result  *Result
	Err     error
}

// ExecuteAsync runs Execute on a background goroutine and returns a
// channel of progress events. The channel is buffered and closed after
// the terminal EventDone or EventFailed; a consumer may drain it once
// per frame without blocking the run, at the cost of dropped stage
// events when the buffer is full. Terminal events are never dropped.
func (r *Runner) ExecuteAsync(ctx context.Context, opts Options) <-chan Event {
	events := make(chan Event, 64)
	opts.events = events

	go func() {
		defer close(events)
		result, err := r.Execute(ctx, opts)
		if err != nil {
			events <- Event{Kind: EventFailed, Err: err}
			return
		}
		events <- Event{Kind: EventDone, Result: result}
	}()

	return events
}

// emit sends a non-terminal event without blocking. Runs without a
// consumer, or with a slow one, drop progress events rather than stall.
func (r *Runner) emit(opts *Options, ev Event) {
	if opts.events == nil {
		return
	}
	select {
	case opts.events <- ev:
	default:
	}
}

// DrainEvents receives whatever is immediately available on ch without
// blocking and reports whether the channel is still open.
func DrainEvents(ch <-chan Event) (drained []Event, open bool) {
	open = true
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return drained, false
			}
			drained = append(drained, ev)
		default:
			return drained, true
		}
	}
}
