package twitterq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go-twitterq/query"
)

// Client translates filter expressions into REST calls and their responses
// into typed entities. One Client serves concurrent queries: each query owns
// its own descriptor and result and shares only the executor.
type Client struct {
	exec Executor
	cfg  ClientConfig
}

// NewClient creates a fully wired query client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Executor == nil && cfg.BearerToken == "" && cfg.HTTPClient == nil {
		return nil, errors.New("twitterq: config needs an Executor, a BearerToken, or a signing HTTPClient")
	}
	cfg.defaults()
	exec := cfg.Executor
	if exec == nil {
		exec = NewHTTPExecutor(cfg)
	}
	return &Client{exec: exec, cfg: cfg}, nil
}

// Help runs one help/diagnostics query, selected by FieldType:
// configuration, languages, rate limit status, privacy policy, or terms.
func (c *Client) Help(ctx context.Context, pred query.Expr) (*Help, error) {
	params, err := extractParams(pred, helpQueryFields)
	if err != nil {
		return nil, err
	}
	kind, err := parseHelpKind(params[FieldType])
	if err != nil {
		return nil, err
	}
	rt, ok := helpRoutes[kind]
	if !ok {
		panic(fmt.Sprintf("twitterq: no route for help kind %q", kind))
	}
	rd, err := rt.build(c.cfg.LegacyAPIRoot, params)
	if err != nil {
		return nil, err
	}
	slog.Debug("query built", slog.String("endpoint", rd.Endpoint))
	body, err := c.exec.Execute(ctx, rd)
	if err != nil {
		return nil, err
	}
	return rt.parse(body)
}

// Users runs one user query: lookups by ids or usernames, or the follower
// and following connections of a single user.
func (c *Client) Users(ctx context.Context, pred query.Expr) (*UserResponse, error) {
	params, err := extractParams(pred, userQueryFields)
	if err != nil {
		return nil, err
	}
	kind, err := parseUserKind(params[FieldType])
	if err != nil {
		return nil, err
	}
	rt, ok := userRoutes[kind]
	if !ok {
		panic(fmt.Sprintf("twitterq: no route for user kind %q", kind))
	}
	rd, err := rt.build(c.cfg.APIRoot, params)
	if err != nil {
		return nil, err
	}
	slog.Debug("query built", slog.String("endpoint", rd.Endpoint))
	body, err := c.exec.Execute(ctx, rd)
	if err != nil {
		return nil, err
	}
	return rt.parse(body)
}

// Tweets runs one tweet query.
func (c *Client) Tweets(ctx context.Context, pred query.Expr) (*TweetResponse, error) {
	params, err := extractParams(pred, tweetQueryFields)
	if err != nil {
		return nil, err
	}
	kind, err := parseTweetKind(params[FieldType])
	if err != nil {
		return nil, err
	}
	rt, ok := tweetRoutes[kind]
	if !ok {
		panic(fmt.Sprintf("twitterq: no route for tweet kind %q", kind))
	}
	rd, err := rt.build(c.cfg.APIRoot, params)
	if err != nil {
		return nil, err
	}
	slog.Debug("query built", slog.String("endpoint", rd.Endpoint))
	body, err := c.exec.Execute(ctx, rd)
	if err != nil {
		return nil, err
	}
	return rt.parse(body)
}

// Stream opens a filtered or sampled streaming query and invokes onMessage
// for every decoded message, in arrival order, until ctx is cancelled.
// Cancellation resolves the stream and returns nil. An error from onMessage
// aborts the stream and is returned as is. Message lines that fail to decode
// are skipped.
func (c *Client) Stream(ctx context.Context, pred query.Expr, onMessage func(*StreamMessage) error) error {
	params, err := extractParams(pred, streamQueryFields)
	if err != nil {
		return err
	}
	kind, err := parseStreamKind(params[FieldType])
	if err != nil {
		return err
	}
	rt, ok := streamRoutes[kind]
	if !ok {
		panic(fmt.Sprintf("twitterq: no route for stream kind %q", kind))
	}
	rd, err := rt.build(c.cfg.APIRoot, params)
	if err != nil {
		return err
	}
	slog.Debug("stream query built", slog.String("endpoint", rd.Endpoint))
	return c.exec.Stream(ctx, rd, func(line []byte) error {
		msg, err := parseStreamMessage(kind, line)
		if err != nil {
			slog.Debug("skipping undecodable stream message",
				slog.String("endpoint", rd.Endpoint),
				slog.Any("error", err))
			return nil
		}
		return onMessage(msg)
	})
}

// extractParams runs the parameter extractor and maps its failures onto the
// invalid-query taxonomy.
func extractParams(pred query.Expr, recognized []string) (query.Params, error) {
	params, err := query.Extract(pred, recognized)
	if err != nil {
		var nonLiteral *query.NonLiteralError
		if errors.As(err, &nonLiteral) {
			return nil, &InvalidQueryError{Field: nonLiteral.Field, Reason: "must compare against a literal value"}
		}
		return nil, &InvalidQueryError{Reason: err.Error()}
	}
	return params, nil
}
