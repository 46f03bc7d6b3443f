package workflow

import (
	"context"
	"errors"
	"math/rand"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apresai/convoconnect/internal/script"
)

type fakeGenerator struct {
	text  string
	err   error
	calls atomic.Int32
}

func (f *fakeGenerator) Generate(ctx context.Context, topic string) (string, error) {
	f.calls.Add(1)
	return f.text, f.err
}

func newTestController(gen script.Generator) *Controller {
	return NewController(NewCatalog(Topics, rand.New(rand.NewSource(1))), gen)
}

func selectTopic(t *testing.T, c *Controller, topic string) {
	t.Helper()
	_, err := c.RequestTopic()
	require.NoError(t, err)
	require.NoError(t, c.EditTopic(topic))
}

func TestInitialState(t *testing.T) {
	c := newTestController(nil)
	assert.Equal(t, PhaseInitial, c.Phase())
	assert.Equal(t, Initial{}, c.State())
	assert.Empty(t, c.Topic())
	assert.False(t, c.CanSubmit())
}

func TestRequestTopicFromInitial(t *testing.T) {
	c := newTestController(nil)
	topic, err := c.RequestTopic()
	require.NoError(t, err)

	assert.Equal(t, PhaseTopicSelected, c.Phase())
	assert.Equal(t, topic, c.Topic())
	assert.Contains(t, Topics, topic)
	assert.Empty(t, c.Err())
	assert.Empty(t, c.Script())
}

func TestSubmitIsSynchronous(t *testing.T) {
	gen := &fakeGenerator{text: "never called"}
	c := newTestController(gen)
	selectTopic(t, c, "Sharing chores")

	req, ok, err := c.Submit()
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, PhaseGenerating, c.Phase())
	assert.Equal(t, "Sharing chores", req.Topic)
	assert.Len(t, req.ID, 26)
	assert.Equal(t, Generating{Topic: "Sharing chores", Request: req}, c.State())
	assert.Equal(t, int32(0), gen.calls.Load())
}

func TestBlankTopicSubmitIsNoop(t *testing.T) {
	for _, topic := range []string{"", "   ", "\t\n"} {
		gen := &fakeGenerator{}
		c := newTestController(gen)
		selectTopic(t, c, topic)

		_, ok, err := c.Submit()
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, PhaseTopicSelected, c.Phase())
		assert.False(t, c.CanSubmit())

		_, err = c.Generate(context.Background())
		assert.Error(t, err)
		assert.Equal(t, int32(0), gen.calls.Load(), "no provider call for %q", topic)
	}
}

func TestResolveSuccessStoresScriptVerbatim(t *testing.T) {
	raw := "  Partner A (Speaker): I'm tired.\r\n\n  trailing   "
	c := newTestController(nil)
	selectTopic(t, c, "Sleep")
	req, _, err := c.Submit()
	require.NoError(t, err)

	require.NoError(t, c.Resolve(req.ID, raw, nil))
	assert.Equal(t, PhaseScriptGenerated, c.Phase())
	assert.Equal(t, raw, c.Script())
	assert.Equal(t, "Sleep", c.Topic())
	assert.Empty(t, c.PartnerEmail())
}

func TestResolveEmptySuccessIsValid(t *testing.T) {
	c := newTestController(nil)
	selectTopic(t, c, "Sleep")
	req, _, _ := c.Submit()

	require.NoError(t, c.Resolve(req.ID, "", nil))
	assert.Equal(t, PhaseScriptGenerated, c.Phase())
	assert.Empty(t, c.Script())
}

func TestResolveFailureReturnsToTopicSelected(t *testing.T) {
	c := newTestController(nil)
	selectTopic(t, c, "Money")
	req, _, _ := c.Submit()

	cause := &script.GenerationError{Provider: "gemini", Cause: errors.New("quota exceeded")}
	require.NoError(t, c.Resolve(req.ID, "", cause))

	assert.Equal(t, PhaseTopicSelected, c.Phase())
	assert.Equal(t, "Money", c.Topic())
	assert.Equal(t, script.FailureMessage, c.Err())
	assert.Empty(t, c.Script())

	// Any error kind surfaces the same message.
	req, _, _ = c.Submit()
	assert.Empty(t, c.Err(), "submitting clears the previous error")
	require.NoError(t, c.Resolve(req.ID, "", errors.New("raw transport error")))
	assert.Equal(t, script.FailureMessage, c.Err())
}

func TestResolveStaleRequest(t *testing.T) {
	c := newTestController(nil)
	selectTopic(t, c, "Money")

	assert.ErrorIs(t, c.Resolve("nope", "x", nil), ErrStaleRequest)

	req, _, _ := c.Submit()
	assert.ErrorIs(t, c.Resolve("other", "x", nil), ErrStaleRequest)
	assert.Equal(t, PhaseGenerating, c.Phase())

	require.NoError(t, c.Resolve(req.ID, "done", nil))
	assert.ErrorIs(t, c.Resolve(req.ID, "again", nil), ErrStaleRequest)
	assert.Equal(t, "done", c.Script())
}

func TestGeneratingRejectsEditsAndResubmission(t *testing.T) {
	c := newTestController(nil)
	selectTopic(t, c, "Vacations")
	req, _, _ := c.Submit()

	assert.ErrorIs(t, c.EditTopic("changed"), ErrInvalidTransition)
	_, _, err := c.Submit()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = c.RequestTopic()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, Generating{Topic: "Vacations", Request: req}, c.State())
}

func TestInvalidTransitionsLeaveStateUnchanged(t *testing.T) {
	c := newTestController(nil)

	assert.ErrorIs(t, c.EditTopic("x"), ErrInvalidTransition)
	_, _, err := c.Submit()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, c.SetPartnerEmail("a@b.com"), ErrInvalidTransition)
	_, err = c.Mailto("")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, Initial{}, c.State())
}

func TestNewTopicFromScriptGeneratedClearsEverything(t *testing.T) {
	c := newTestController(nil)
	selectTopic(t, c, "Chores")
	req, _, _ := c.Submit()
	require.NoError(t, c.Resolve(req.ID, "Partner A (Speaker): hi", nil))
	require.NoError(t, c.SetPartnerEmail("partner@example.com"))

	topic, err := c.RequestTopic()
	require.NoError(t, err)

	assert.Equal(t, PhaseTopicSelected, c.Phase())
	assert.Equal(t, TopicSelected{Topic: topic}, c.State())
	assert.Empty(t, c.Script())
	assert.Empty(t, c.Err())
	assert.Empty(t, c.PartnerEmail())
}

func TestNewTopicClearsError(t *testing.T) {
	c := newTestController(nil)
	selectTopic(t, c, "Chores")
	req, _, _ := c.Submit()
	require.NoError(t, c.Resolve(req.ID, "", errors.New("boom")))
	require.NotEmpty(t, c.Err())

	_, err := c.RequestTopic()
	require.NoError(t, err)
	assert.Empty(t, c.Err())
}

func TestMailto(t *testing.T) {
	c := newTestController(nil)
	selectTopic(t, c, "Chores")
	req, _, _ := c.Submit()
	require.NoError(t, c.Resolve(req.ID, "Line1\n\nLine2", nil))

	_, err := c.Mailto("https://example.com/")
	assert.ErrorIs(t, err, ErrNoPartnerEmail)

	require.NoError(t, c.SetPartnerEmail("   "))
	_, err = c.Mailto("https://example.com/")
	assert.ErrorIs(t, err, ErrNoPartnerEmail)

	require.NoError(t, c.SetPartnerEmail("partner@example.com"))
	link, err := c.Mailto("https://example.com/")
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "partner@example.com", u.Opaque)
	q, err := url.ParseQuery(u.RawQuery)
	require.NoError(t, err)
	assert.Equal(t, "Conversation Practice: Chores", q.Get("subject"))
	assert.True(t, strings.HasPrefix(q.Get("body"), "Line1\n\nLine2\n\n---\n\n"))
	assert.True(t, strings.HasSuffix(q.Get("body"), "https://example.com/"))
}

func TestGenerate(t *testing.T) {
	gen := &fakeGenerator{text: "Partner A (Speaker): hello"}
	c := newTestController(gen)
	selectTopic(t, c, "Chores")

	text, err := c.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Partner A (Speaker): hello", text)
	assert.Equal(t, PhaseScriptGenerated, c.Phase())
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestGenerateFailure(t *testing.T) {
	gen := &fakeGenerator{err: &script.GenerationError{Provider: "gemini", Cause: errors.New("401")}}
	c := newTestController(gen)
	selectTopic(t, c, "Chores")

	_, err := c.Generate(context.Background())
	var genErr *script.GenerationError
	assert.True(t, errors.As(err, &genErr))
	assert.Equal(t, PhaseTopicSelected, c.Phase())
	assert.Equal(t, script.FailureMessage, c.Err())
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestGenerateWithoutGenerator(t *testing.T) {
	c := newTestController(nil)
	selectTopic(t, c, "Chores")
	_, err := c.Generate(context.Background())
	assert.Error(t, err)
	assert.Equal(t, PhaseTopicSelected, c.Phase())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "Initial", PhaseInitial.String())
	assert.Equal(t, "Topic Selected", PhaseTopicSelected.String())
	assert.Equal(t, "Generating", PhaseGenerating.String())
	assert.Equal(t, "Script Generated", PhaseScriptGenerated.String())
	assert.Equal(t, "Unknown", Phase(42).String())
}
