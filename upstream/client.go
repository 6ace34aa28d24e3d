package upstream

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/sockerless/issuehub/upstream"

// Observer receives the outcome of every upstream operation.
type Observer interface {
	ObserveUpstream(operation, outcome string, dur time.Duration)
}

// Client runs the gateway operations against the upstream: build, post, map.
// It holds no per-request state and is safe for concurrent use.
type Client struct {
	builder   *Builder
	transport *Transport
	logger    zerolog.Logger
	observer  Observer
	tracer    trace.Tracer
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver registers a metrics hook.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient validates cfg and wires builder and transport from it.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t, err := NewTransport(cfg)
	if err != nil {
		return nil, err
	}
	c := &Client{
		builder:   NewBuilder(cfg),
		transport: t,
		logger:    zerolog.Nop(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Builder exposes the operation builder (used by tests and tooling).
func (c *Client) Builder() *Builder { return c.builder }

// GetIssue fetches a single issue by repository and number.
func (c *Client) GetIssue(ctx context.Context, in Repository) (*Issue, error) {
	op, err := c.builder.FetchIssue(in)
	if err != nil {
		c.record("getIssue", err, 0)
		return nil, err
	}
	var out *Issue
	err = c.run(ctx, op, func(resp *Response) (err error) {
		out, err = DecodeIssue(op, resp)
		return err
	})
	return out, err
}

// ListIssues returns the most recent issues of a repository. last <= 0 uses
// the configured limit.
func (c *Client) ListIssues(ctx context.Context, owner, name string, last int) ([]Issue, error) {
	op := c.builder.ListIssues(owner, name, last)
	var out []Issue
	err := c.run(ctx, op, func(resp *Response) (err error) {
		out, err = DecodeIssues(op, resp)
		return err
	})
	return out, err
}

// ListLabels returns the first labels of a repository. first <= 0 uses the
// configured limit.
func (c *Client) ListLabels(ctx context.Context, owner, name string, first int) ([]Label, error) {
	op := c.builder.ListLabels(owner, name, first)
	var out []Label
	err := c.run(ctx, op, func(resp *Response) (err error) {
		out, err = DecodeLabels(op, resp)
		return err
	})
	return out, err
}

func (c *Client) CreateIssue(ctx context.Context, in CreateIssue) (*Issue, error) {
	op := c.builder.CreateIssue(in)
	var out *Issue
	err := c.run(ctx, op, func(resp *Response) (err error) {
		out, err = DecodeIssue(op, resp)
		return err
	})
	return out, err
}

func (c *Client) UpdateIssue(ctx context.Context, in UpdateIssue) (*Issue, error) {
	op := c.builder.UpdateIssue(in)
	var out *Issue
	err := c.run(ctx, op, func(resp *Response) (err error) {
		out, err = DecodeIssue(op, resp)
		return err
	})
	return out, err
}

func (c *Client) DeleteIssue(ctx context.Context, in DeleteIssue) (*ClientMutationID, error) {
	op := c.builder.DeleteIssue(in)
	err := c.run(ctx, op, func(resp *Response) error {
		return CheckAck(op, resp)
	})
	if err != nil {
		return nil, err
	}
	return &ClientMutationID{ClientMutationID: "deleted"}, nil
}

func (c *Client) CloseIssue(ctx context.Context, in FetchIssue) (string, error) {
	op := c.builder.CloseIssue(in)
	err := c.run(ctx, op, func(resp *Response) error {
		return CheckAck(op, resp)
	})
	if err != nil {
		return "", err
	}
	return "Issue closed successfully", nil
}

func (c *Client) AddLabels(ctx context.Context, in AddLabelsToLabelable) (string, error) {
	op, err := c.builder.AddLabels(in)
	if err != nil {
		c.record("addLabelsToLabelable", err, 0)
		return "", err
	}
	err = c.run(ctx, op, func(resp *Response) error {
		return CheckAck(op, resp)
	})
	if err != nil {
		return "", err
	}
	return "Add label successfully", nil
}

// run posts op and hands the response to decode, recording the outcome.
func (c *Client) run(ctx context.Context, op Operation, decode func(*Response) error) error {
	ctx, span := c.tracer.Start(ctx, "upstream."+op.Name, trace.WithAttributes(
		attribute.String("issuehub.operation", op.Description),
	))
	defer span.End()

	start := time.Now()
	resp, err := c.transport.Post(ctx, op.Payload())
	if err != nil {
		err = &TransportError{Op: op.Description, Err: err}
	} else {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		err = decode(resp)
	}
	dur := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, Outcome(err))
	}
	c.record(op.Name, err, dur)
	return err
}

func (c *Client) record(name string, err error, dur time.Duration) {
	outcome := Outcome(err)
	if c.observer != nil {
		c.observer.ObserveUpstream(name, outcome, dur)
	}
	if err != nil {
		c.logger.Warn().Err(err).
			Str("op", name).
			Str("outcome", outcome).
			Dur("dur", dur).
			Msg("upstream call failed")
		return
	}
	c.logger.Debug().
		Str("op", name).
		Dur("dur", dur).
		Msg("upstream call")
}
