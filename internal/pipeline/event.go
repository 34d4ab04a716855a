package pipeline

// EventKind identifies what an Event reports.
type EventKind int

const (
	EventProgress EventKind = iota
	EventStatus
	EventCompleted
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventStatus:
		return "status"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is one notification from a running conversion.
type Event struct {
	RunID   string
	Kind    EventKind
	Percent int
	Status  string
	Outcome Outcome
	Err     error
}

// Terminal reports whether the event ends a run.
func (e Event) Terminal() bool {
	return e.Kind == EventCompleted || e.Kind == EventFailed
}

// Observer receives the notifications of runs started on a Runner. Methods
// are called from a single dispatcher goroutine per run, in emission order.
type Observer interface {
	Progress(runID string, percent int)
	Status(runID, message string)
	Completed(runID string, outcome Outcome)
	Failed(runID string, err *ConversionError)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnProgress  func(runID string, percent int)
	OnStatus    func(runID, message string)
	OnCompleted func(runID string, outcome Outcome)
	OnFailed    func(runID string, err *ConversionError)
}

func (f ObserverFuncs) Progress(runID string, percent int) {
	if f.OnProgress != nil {
		f.OnProgress(runID, percent)
	}
}

func (f ObserverFuncs) Status(runID, message string) {
	if f.OnStatus != nil {
		f.OnStatus(runID, message)
	}
}

func (f ObserverFuncs) Completed(runID string, outcome Outcome) {
	if f.OnCompleted != nil {
		f.OnCompleted(runID, outcome)
	}
}

func (f ObserverFuncs) Failed(runID string, err *ConversionError) {
	if f.OnFailed != nil {
		f.OnFailed(runID, err)
	}
}

// deliver routes ev to the matching Observer method.
func deliver(obs Observer, ev Event) {
	if obs == nil {
		return
	}
	switch ev.Kind {
	case EventProgress:
		obs.Progress(ev.RunID, ev.Percent)
	case EventStatus:
		obs.Status(ev.RunID, ev.Status)
	case EventCompleted:
		obs.Completed(ev.RunID, ev.Outcome)
	case EventFailed:
		obs.Failed(ev.RunID, AsConversionError(ev.Err))
	}
}
