package publish

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jmcleod/redpost/client"
	"github.com/jmcleod/redpost/internal/uuid"
)

// State names the workflow's sequential steps, for logging.
type State string

const (
	StateValidating            State = "validating"
	StateResolvingTopics       State = "resolving_topics"
	StateAssemblingDescription State = "assembling_description"
	StateScheduleGate          State = "schedule_gate"
	StateSubmitting            State = "submitting"
	StateRecording             State = "recording"
	StateDone                  State = "done"
)

const (
	// maxResolvedTopics bounds the topic-resolution fan-out: only the first
	// distinct tags up to this count are resolved against the platform.
	maxResolvedTopics = 3

	// DefaultCooldown is the pause after a successful submission before the
	// caller may trigger another publish, to stay under abuse throttling.
	DefaultCooldown = 30 * time.Second
)

// Submitter is the outbound platform boundary the workflow drives.
type Submitter interface {
	ResolveTopic(ctx context.Context, keyword string) (*client.Topic, error)
	SubmitVideoNote(ctx context.Context, req client.SubmitRequest) (*client.NoteHandle, error)
}

// Recorder receives one terminal outcome per publish attempt.
type Recorder interface {
	Append(outcome Outcome) error
}

// ResolvedTopic pairs a platform topic with the tag it was resolved from.
type ResolvedTopic struct {
	Tag   string
	Topic client.Topic
}

// Workflow runs one publish attempt at a time. A single instance is strictly
// sequential; independent instances may run concurrently as long as each
// owns its own session and signing context.
type Workflow struct {
	client   Submitter
	recorder Recorder
	logger   *slog.Logger
	cooldown time.Duration
	sleep    func(time.Duration)
	now      func() time.Time
}

// WorkflowOption configures a Workflow.
type WorkflowOption func(*Workflow)

// WithCooldown overrides the post-submission cool-down.
func WithCooldown(d time.Duration) WorkflowOption {
	return func(w *Workflow) { w.cooldown = d }
}

// WithSleeper overrides the sleep function, for tests.
func WithSleeper(sleep func(time.Duration)) WorkflowOption {
	return func(w *Workflow) { w.sleep = sleep }
}

// WithWorkflowClock overrides the wall clock, for tests.
func WithWorkflowClock(now func() time.Time) WorkflowOption {
	return func(w *Workflow) { w.now = now }
}

// WithWorkflowLogger sets the structured logger for step events.
func WithWorkflowLogger(logger *slog.Logger) WorkflowOption {
	return func(w *Workflow) { w.logger = logger }
}

// NewWorkflow creates a Workflow submitting through c and recording to rec.
func NewWorkflow(c Submitter, rec Recorder, opts ...WorkflowOption) *Workflow {
	w := &Workflow{
		client:   c,
		recorder: rec,
		logger:   slog.Default(),
		cooldown: DefaultCooldown,
		sleep:    time.Sleep,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run executes one publish attempt and returns its terminal outcome.
// Exactly one outcome is recorded per invocation, on every path; a failure
// is returned alongside the Failed outcome that captured it.
func (w *Workflow) Run(ctx context.Context, req Request) (*Outcome, error) {
	w.logStep(StateValidating, req)
	if err := req.Validate(); err != nil {
		return w.fail(req, "", err)
	}

	w.logStep(StateResolvingTopics, req)
	resolved, plain := w.resolveTopics(ctx, req.Tags)

	w.logStep(StateAssemblingDescription, req)
	desc := assembleDescription(req.Body, plain, resolved)

	if !req.ScheduleAt.IsZero() {
		w.logStep(StateScheduleGate, req)
		if !req.ScheduleAt.After(w.now()) {
			return w.fail(req, desc, &ValidationError{
				Field:  "schedule_time",
				Reason: "must be strictly in the future",
			})
		}
	}

	w.logStep(StateSubmitting, req)
	topics := make([]client.Topic, 0, len(resolved))
	for _, rt := range resolved {
		topics = append(topics, rt.Topic)
	}
	handle, err := w.client.SubmitVideoNote(ctx, client.SubmitRequest{
		Title:       req.Title,
		VideoPath:   req.MediaPath,
		Description: desc,
		Topics:      topics,
		Private:     req.Private,
		PostTime:    req.ScheduleAt,
	})
	if err != nil {
		return w.fail(req, desc, err)
	}

	status := StatusSuccess
	note := "published"
	if handle != nil && handle.ID != "" {
		note = "published note " + handle.ID
	}
	if !req.ScheduleAt.IsZero() {
		status = StatusScheduled
		note = "scheduled"
	}

	outcome := w.record(req, desc, status, note)
	w.logStep(StateDone, req)

	// Submission went through; pause before handing control back so the
	// next publish cannot trip platform abuse throttling.
	w.sleep(w.cooldown)

	return outcome, nil
}

// resolveTopics resolves at most the first maxResolvedTopics distinct tags
// against the platform. A per-tag failure or empty result is not fatal: the
// tag degrades to a plain hashtag. Tags beyond the resolution bound are
// always plain hashtags.
func (w *Workflow) resolveTopics(ctx context.Context, tags []string) ([]ResolvedTopic, []string) {
	distinct := dedupeTags(tags)

	var resolved []ResolvedTopic
	var plain []string
	for i, tag := range distinct {
		if i >= maxResolvedTopics {
			plain = append(plain, tag)
			continue
		}
		topic, err := w.client.ResolveTopic(ctx, tag)
		if err != nil {
			w.logger.Warn("topic resolution degraded to plain hashtag", "tag", tag, "error", err)
			plain = append(plain, tag)
			continue
		}
		if topic == nil {
			plain = append(plain, tag)
			continue
		}
		resolved = append(resolved, ResolvedTopic{Tag: tag, Topic: *topic})
	}
	return resolved, plain
}

// assembleDescription concatenates body text, plain hashtags, and topic
// markers, in that fixed order. Resolved topics keep original tag order.
func assembleDescription(body string, plain []string, resolved []ResolvedTopic) string {
	var b strings.Builder
	b.WriteString(body)
	for _, tag := range plain {
		b.WriteString(" #")
		b.WriteString(tag)
	}
	for _, rt := range resolved {
		b.WriteString(" #")
		b.WriteString(rt.Topic.Name)
		b.WriteString("[话题]#")
	}
	return b.String()
}

// fail records a Failed outcome carrying the error text verbatim and
// returns it with the error.
func (w *Workflow) fail(req Request, desc string, cause error) (*Outcome, error) {
	outcome := w.record(req, desc, StatusFailed, cause.Error())
	return outcome, cause
}

// record builds the terminal outcome and appends it to the recorder. A
// recorder failure is logged but never overturns the determined result.
func (w *Workflow) record(req Request, desc string, status Status, note string) *Outcome {
	outcome := Outcome{
		ID:        uuid.New(),
		Time:      w.now().UTC().Format(time.RFC3339),
		Title:     req.Title,
		Status:    status,
		Note:      note,
		VideoPath: req.MediaPath,
		Desc:      desc,
	}
	if !req.ScheduleAt.IsZero() {
		outcome.ScheduleTime = req.ScheduleAt.Format("2006-01-02 15:04:05")
	}

	if err := w.recorder.Append(outcome); err != nil {
		w.logger.Error("recording publish outcome failed", "title", req.Title, "status", status, "error", err)
	}
	return &outcome
}

func (w *Workflow) logStep(state State, req Request) {
	w.logger.Debug("publish step", "state", string(state), "title", req.Title)
}
