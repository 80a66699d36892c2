package harness

// OutcomeOK is the trace outcome of a step that succeeded. Failed steps
// record the engine error code instead (e.g. "SCHEMA_MISMATCH").
const OutcomeOK = "ok"

// Trace phases.
const (
	PhaseSetup = "setup"
	PhaseSteps = "steps"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Phase   string         `json:"phase"`
	Step    int            `json:"step"`
	Op      string         `json:"op"`
	Table   string         `json:"table,omitempty"`
	Profile string         `json:"profile,omitempty"`
	Action  string         `json:"action,omitempty"`
	Args    map[string]any `json:"args,omitempty"`
	Outcome string         `json:"outcome"`
	Result  map[string]any `json:"result,omitempty"`
	Seq     int64          `json:"seq"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every executed step in order, setup first.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State holds the final rows of every table the scenario touched,
	// keyed by table name.
	State map[string]any `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string]any),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event, numbering it with the next sequence value.
func (r *Result) AddTrace(ev TraceEvent) TraceEvent {
	ev.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, ev)
	return ev
}
