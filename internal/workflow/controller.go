package workflow

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/apresai/convoconnect/internal/mailto"
	"github.com/apresai/convoconnect/internal/script"
)

var (
	// ErrInvalidTransition is returned when an event is not accepted in the
	// current phase. State is left unchanged.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrStaleRequest is returned when a result arrives for a request that is
	// no longer in flight.
	ErrStaleRequest = errors.New("stale generation request")
	// ErrNoPartnerEmail is returned when a share link is requested without a
	// partner email.
	ErrNoPartnerEmail = errors.New("partner email is empty")
)

// Request identifies one generation call. Results are matched back to the
// controller by ID.
type Request struct {
	ID    string
	Topic string
}

// Controller owns the workflow state. It is not safe for concurrent use;
// callers drive it from a single event loop.
type Controller struct {
	state   State
	catalog *Catalog
	gen     script.Generator
}

// NewController starts in Initial. gen may be nil when the caller performs
// the provider call itself and reports back through Resolve.
func NewController(catalog *Catalog, gen script.Generator) *Controller {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Controller{state: Initial{}, catalog: catalog, gen: gen}
}

// State returns the current state value.
func (c *Controller) State() State { return c.state }

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.state.Phase() }

// Topic returns the topic for every phase but Initial.
func (c *Controller) Topic() string {
	switch s := c.state.(type) {
	case TopicSelected:
		return s.Topic
	case Generating:
		return s.Topic
	case ScriptGenerated:
		return s.Topic
	}
	return ""
}

// Script returns the generated script, or "" outside ScriptGenerated.
func (c *Controller) Script() string {
	if s, ok := c.state.(ScriptGenerated); ok {
		return s.Script
	}
	return ""
}

// Err returns the last generation error message, if any.
func (c *Controller) Err() string {
	if s, ok := c.state.(TopicSelected); ok {
		return s.Err
	}
	return ""
}

// PartnerEmail returns the partner email, or "" outside ScriptGenerated.
func (c *Controller) PartnerEmail() string {
	if s, ok := c.state.(ScriptGenerated); ok {
		return s.PartnerEmail
	}
	return ""
}

// CanSubmit reports whether Submit would start a request.
func (c *Controller) CanSubmit() bool {
	s, ok := c.state.(TopicSelected)
	return ok && strings.TrimSpace(s.Topic) != ""
}

func (c *Controller) reject(event string) error {
	return fmt.Errorf("%w: %s in phase %s", ErrInvalidTransition, event, c.state.Phase())
}

// RequestTopic draws a random topic and moves to TopicSelected, discarding
// any script, error and partner email.
func (c *Controller) RequestTopic() (string, error) {
	if _, busy := c.state.(Generating); busy {
		return "", c.reject("request topic")
	}
	topic := c.catalog.Random()
	c.state = TopicSelected{Topic: topic}
	slog.Debug("Topic selected", "topic", topic)
	return topic, nil
}

// EditTopic replaces the topic text. The last error is kept until the next
// submission.
func (c *Controller) EditTopic(topic string) error {
	s, ok := c.state.(TopicSelected)
	if !ok {
		return c.reject("edit topic")
	}
	s.Topic = topic
	c.state = s
	return nil
}

// Submit moves to Generating and returns the request the caller must run.
// A blank topic is a no-op and returns ok=false with no error.
func (c *Controller) Submit() (req Request, ok bool, err error) {
	s, isTopic := c.state.(TopicSelected)
	if !isTopic {
		return Request{}, false, c.reject("submit")
	}
	if strings.TrimSpace(s.Topic) == "" {
		return Request{}, false, nil
	}

	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return Request{}, false, fmt.Errorf("generate request id: %w", err)
	}
	req = Request{ID: id.String(), Topic: s.Topic}
	c.state = Generating{Topic: s.Topic, Request: req}
	slog.Info("Generation requested", "request_id", req.ID, "topic", req.Topic)
	return req, true, nil
}

// Resolve records the outcome of the in-flight request. On success the
// script is stored verbatim. On failure the controller returns to
// TopicSelected with a user-facing message.
func (c *Controller) Resolve(id, text string, genErr error) error {
	s, ok := c.state.(Generating)
	if !ok {
		return fmt.Errorf("%w: %s", ErrStaleRequest, id)
	}
	if s.Request.ID != id {
		return fmt.Errorf("%w: %s (in flight %s)", ErrStaleRequest, id, s.Request.ID)
	}

	if genErr != nil {
		c.state = TopicSelected{Topic: s.Topic, Err: userMessage(genErr)}
		return nil
	}
	c.state = ScriptGenerated{Topic: s.Topic, Script: text}
	return nil
}

func userMessage(err error) string {
	var genErr *script.GenerationError
	if errors.As(err, &genErr) {
		return genErr.Error()
	}
	return script.FailureMessage
}

// SetPartnerEmail stores the email typed in the share field.
func (c *Controller) SetPartnerEmail(email string) error {
	s, ok := c.state.(ScriptGenerated)
	if !ok {
		return c.reject("set partner email")
	}
	s.PartnerEmail = email
	c.state = s
	return nil
}

// Mailto builds the share link for the current script. Sending is
// suppressed when the partner email is empty.
func (c *Controller) Mailto(shareURL string) (string, error) {
	s, ok := c.state.(ScriptGenerated)
	if !ok {
		return "", c.reject("share")
	}
	if strings.TrimSpace(s.PartnerEmail) == "" {
		return "", ErrNoPartnerEmail
	}
	return mailto.Build(s.PartnerEmail, mailto.Subject(s.Topic), mailto.Body(s.Script, shareURL)), nil
}

// Generate submits the current topic, calls the generator and resolves the
// request. The returned error is the generation failure, if any; the
// controller has already moved back to TopicSelected in that case.
func (c *Controller) Generate(ctx context.Context) (string, error) {
	if c.gen == nil {
		return "", errors.New("no generator configured")
	}
	req, ok, err := c.Submit()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New("topic is blank")
	}

	text, genErr := c.gen.Generate(ctx, req.Topic)
	if err := c.Resolve(req.ID, text, genErr); err != nil {
		return "", err
	}
	if genErr != nil {
		return "", genErr
	}
	return text, nil
}
