package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/redpost/client"
)

type fakeSubmitter struct {
	resolveCalls []string
	topics       map[string]*client.Topic
	resolveErr   map[string]error

	submitCalls int
	lastSubmit  client.SubmitRequest
	submitErr   error
}

func (f *fakeSubmitter) ResolveTopic(_ context.Context, keyword string) (*client.Topic, error) {
	f.resolveCalls = append(f.resolveCalls, keyword)
	if err := f.resolveErr[keyword]; err != nil {
		return nil, err
	}
	return f.topics[keyword], nil
}

func (f *fakeSubmitter) SubmitVideoNote(_ context.Context, req client.SubmitRequest) (*client.NoteHandle, error) {
	f.submitCalls++
	f.lastSubmit = req
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &client.NoteHandle{ID: "note-1"}, nil
}

type fakeRecorder struct {
	outcomes  []Outcome
	appendErr error
}

func (f *fakeRecorder) Append(outcome Outcome) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.outcomes = append(f.outcomes, outcome)
	return nil
}

func officialTopic(name string) *client.Topic {
	return &client.Topic{ID: "id-" + name, Name: name, Type: "topic"}
}

func tempVideo(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("video"), 0o600))
	return path
}

type testEnv struct {
	submitter *fakeSubmitter
	recorder  *fakeRecorder
	slept     []time.Duration
	now       time.Time
	workflow  *Workflow
}

func newTestEnv(t *testing.T, opts ...WorkflowOption) *testEnv {
	t.Helper()
	env := &testEnv{
		submitter: &fakeSubmitter{topics: map[string]*client.Topic{}, resolveErr: map[string]error{}},
		recorder:  &fakeRecorder{},
		now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	base := []WorkflowOption{
		WithSleeper(func(d time.Duration) { env.slept = append(env.slept, d) }),
		WithWorkflowClock(func() time.Time { return env.now }),
	}
	env.workflow = NewWorkflow(env.submitter, env.recorder, append(base, opts...)...)
	return env
}

func validRequest(t *testing.T) Request {
	return Request{
		Title:     "Hi",
		Body:      "content",
		MediaPath: tempVideo(t, "clip.mp4"),
	}
}

func TestRunNoTagsDescriptionIsBodyOnly(t *testing.T) {
	env := newTestEnv(t)
	req := validRequest(t)

	outcome, err := env.workflow.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Empty(t, env.submitter.resolveCalls)
	assert.Equal(t, "content", env.submitter.lastSubmit.Description)
	assert.Equal(t, StatusSuccess, outcome.Status)
}

func TestRunResolvesAtMostThreeTags(t *testing.T) {
	env := newTestEnv(t)
	env.submitter.topics["life"] = officialTopic("LifeTopic")
	env.submitter.topics["food"] = officialTopic("FoodTopic")
	env.submitter.topics["travel"] = officialTopic("TravelTopic")

	req := validRequest(t)
	req.Body = "content"
	req.Tags = []string{"life", "food", "travel", "extra1", "extra2"}

	outcome, err := env.workflow.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{"life", "food", "travel"}, env.submitter.resolveCalls)

	desc := env.submitter.lastSubmit.Description
	assert.Equal(t, "content #extra1 #extra2 #LifeTopic[话题]# #FoodTopic[话题]# #TravelTopic[话题]#", desc)

	require.Len(t, env.submitter.lastSubmit.Topics, 3)
	assert.Equal(t, "LifeTopic", env.submitter.lastSubmit.Topics[0].Name)

	assert.Equal(t, StatusSuccess, outcome.Status)
	require.Len(t, env.recorder.outcomes, 1)
	assert.Equal(t, StatusSuccess, env.recorder.outcomes[0].Status)

	// Cool-down applied after the successful submission.
	assert.Equal(t, []time.Duration{DefaultCooldown}, env.slept)
}

func TestRunUnresolvedTagBecomesPlainHashtag(t *testing.T) {
	env := newTestEnv(t)
	// "foo" resolves to nothing.
	req := validRequest(t)
	req.Tags = []string{"foo"}

	_, err := env.workflow.Run(context.Background(), req)
	require.NoError(t, err)

	desc := env.submitter.lastSubmit.Description
	assert.Contains(t, desc, "#foo")
	assert.NotContains(t, desc, "[话题]#")
}

func TestRunResolutionErrorDegradesToPlainHashtag(t *testing.T) {
	env := newTestEnv(t)
	env.submitter.resolveErr["life"] = errors.New("suggestion endpoint down")
	env.submitter.topics["food"] = officialTopic("FoodTopic")

	req := validRequest(t)
	req.Tags = []string{"life", "food"}

	outcome, err := env.workflow.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, outcome.Status)
	assert.Equal(t, "content #life #FoodTopic[话题]#", env.submitter.lastSubmit.Description)
}

func TestRunDeduplicatesTagsPreservingOrder(t *testing.T) {
	env := newTestEnv(t)
	req := validRequest(t)
	req.Tags = []string{"life", "life", "#food", "life", "food"}

	_, err := env.workflow.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"life", "food"}, env.submitter.resolveCalls)
}

func TestRunValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, req *Request)
		field  string
	}{
		{"empty title", func(t *testing.T, r *Request) { r.Title = " " }, "title"},
		{"empty body", func(t *testing.T, r *Request) { r.Body = "" }, "body"},
		{"empty media path", func(t *testing.T, r *Request) { r.MediaPath = "" }, "media_path"},
		{"missing file", func(t *testing.T, r *Request) { r.MediaPath = filepath.Join(t.TempDir(), "gone.mp4") }, "media_path"},
		{"bad extension", func(t *testing.T, r *Request) { r.MediaPath = tempVideo(t, "clip.wmv") }, "media_path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			req := validRequest(t)
			tt.mutate(t, &req)

			outcome, err := env.workflow.Run(context.Background(), req)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)

			// Short-circuits before any network call, but still records.
			assert.Empty(t, env.submitter.resolveCalls)
			assert.Zero(t, env.submitter.submitCalls)
			require.Len(t, env.recorder.outcomes, 1)
			assert.Equal(t, StatusFailed, outcome.Status)
			assert.Empty(t, env.slept)
		})
	}
}

func TestRunScheduleGateRejectsPastAndPresent(t *testing.T) {
	for _, offset := range []time.Duration{0, -time.Minute} {
		t.Run(fmt.Sprintf("offset %v", offset), func(t *testing.T) {
			env := newTestEnv(t)
			req := validRequest(t)
			req.ScheduleAt = env.now.Add(offset)

			outcome, err := env.workflow.Run(context.Background(), req)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "schedule_time", verr.Field)
			assert.Zero(t, env.submitter.submitCalls, "no submission call on schedule-gate failure")
			assert.Equal(t, StatusFailed, outcome.Status)
			require.Len(t, env.recorder.outcomes, 1)
		})
	}
}

func TestRunScheduledSubmission(t *testing.T) {
	env := newTestEnv(t)
	req := validRequest(t)
	req.ScheduleAt = env.now.Add(2 * time.Hour)

	outcome, err := env.workflow.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, StatusScheduled, outcome.Status)
	assert.Equal(t, req.ScheduleAt, env.submitter.lastSubmit.PostTime)
	require.Len(t, env.recorder.outcomes, 1)
	assert.Equal(t, StatusScheduled, env.recorder.outcomes[0].Status)
	assert.Equal(t, req.ScheduleAt.Format("2006-01-02 15:04:05"), env.recorder.outcomes[0].ScheduleTime)
}

func TestRunSubmissionFailureRecordsFailedOutcome(t *testing.T) {
	env := newTestEnv(t)
	env.submitter.submitErr = &client.PlatformError{Code: 10001, Msg: "note illegal"}

	req := validRequest(t)
	outcome, err := env.workflow.Run(context.Background(), req)

	var pe *client.PlatformError
	require.ErrorAs(t, err, &pe)

	require.Len(t, env.recorder.outcomes, 1)
	rec := env.recorder.outcomes[0]
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Contains(t, rec.Note, "note illegal")
	assert.Equal(t, StatusFailed, outcome.Status)

	// No cool-down after a failed submission.
	assert.Empty(t, env.slept)
}

func TestRunSuccessRecordsExactlyOneOutcome(t *testing.T) {
	env := newTestEnv(t)
	req := validRequest(t)

	_, err := env.workflow.Run(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, env.recorder.outcomes, 1)
	for _, o := range env.recorder.outcomes {
		assert.NotEqual(t, StatusFailed, o.Status)
	}
}

func TestRunRecorderFailureDoesNotOverturnResult(t *testing.T) {
	env := newTestEnv(t)
	env.recorder.appendErr = errors.New("disk full")

	req := validRequest(t)
	outcome, err := env.workflow.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, outcome.Status)
}

func TestRunEndToEndScenario(t *testing.T) {
	env := newTestEnv(t)
	env.submitter.topics["life"] = officialTopic("life")
	env.submitter.topics["food"] = officialTopic("food")
	env.submitter.topics["travel"] = officialTopic("travel")

	req := Request{
		Title:     "Hi",
		Body:      "content",
		Tags:      []string{"life", "food", "travel", "extra1", "extra2"},
		MediaPath: tempVideo(t, "valid.mp4"),
	}

	outcome, err := env.workflow.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{"life", "food", "travel"}, env.submitter.resolveCalls)
	assert.True(t, strings.Contains(env.submitter.lastSubmit.Description, "#extra1"))
	assert.True(t, strings.Contains(env.submitter.lastSubmit.Description, "#extra2"))

	require.Len(t, env.recorder.outcomes, 1)
	assert.Equal(t, StatusSuccess, env.recorder.outcomes[0].Status)
	assert.Equal(t, StatusSuccess, outcome.Status)

	require.Len(t, env.slept, 1)
	assert.Equal(t, DefaultCooldown, env.slept[0])
}
