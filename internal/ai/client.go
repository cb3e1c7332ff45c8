package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"
)

// ClientOptions are the defaults applied to every call.
type ClientOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	// MaxRetries bounds extra attempts after a malformed or schema-violating answer.
	MaxRetries int
	CacheTTL   time.Duration
}

// Client wraps a Provider and turns free-form completions into validated typed values.
type Client struct {
	provider Provider
	cache    Cache
	opts     ClientOptions
	log      *zap.Logger
}

// NewClient builds a client. cache may be nil to disable response caching.
func NewClient(provider Provider, cache Cache, opts ClientOptions, log *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{provider: provider, cache: cache, opts: opts, log: log}
}

func (c *Client) ProviderName() string { return c.provider.Name() }

// Complete runs call, validates the answer against call.Schema and decodes it into out.
// Only malformed or schema-violating answers are retried; provider failures and
// timeouts are returned immediately.
func (c *Client) Complete(ctx context.Context, call Call, out any) (Result, error) {
	if call.Schema == nil {
		return Result{}, errors.New("llm: call has no schema")
	}
	start := time.Now()
	model := call.Model
	if model == "" {
		model = c.opts.Model
	}
	temperature := c.opts.Temperature
	if call.Temperature != nil {
		temperature = *call.Temperature
	}
	res := Result{Model: model}
	log := c.log.With(zap.String("stage", call.Stage), zap.String("schema", call.Schema.Name()), zap.String("model", model))

	key := cacheKey(c.provider.Name(), model, call.Schema.Name(), temperature, call.System, call.Prompt)
	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			log.Warn("llm cache lookup failed", zap.Error(err))
		} else if ok && json.Unmarshal([]byte(cached), out) == nil {
			aerr := accept(call)
			if aerr == nil {
				res.Cached = true
				res.Latency = time.Since(start)
				log.Debug("llm cache hit")
				return res, nil
			}
			log.Warn("cached llm answer rejected, asking provider", zap.Error(aerr))
			reset(out)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		doc, usage, err := c.attempt(ctx, call, model, temperature)
		res.Calls++
		res.Usage = res.Usage.Add(usage)
		if err == nil {
			if uerr := json.Unmarshal(doc, out); uerr != nil {
				err = fmt.Errorf("%w: %v", ErrSchemaViolation, uerr)
			}
		}
		if err == nil {
			if aerr := accept(call); aerr != nil {
				res.Latency = time.Since(start)
				return res, aerr
			}
			if c.cache != nil {
				if serr := c.cache.Set(ctx, key, string(doc), c.opts.CacheTTL); serr != nil {
					log.Warn("llm cache store failed", zap.Error(serr))
				}
			}
			res.Latency = time.Since(start)
			return res, nil
		}

		lastErr = err
		if !retriable(err) {
			break
		}
		log.Warn("llm answer rejected", zap.Int("attempt", attempt+1), zap.Error(err))
	}

	res.Latency = time.Since(start)
	return res, lastErr
}

func (c *Client) attempt(ctx context.Context, call Call, model string, temperature float32) ([]byte, Usage, error) {
	cctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	resp, err := c.provider.Generate(cctx, Request{
		System:      call.System,
		Prompt:      call.Prompt,
		Model:       model,
		Temperature: temperature,
		MaxTokens:   c.opts.MaxTokens,
	})
	if err != nil {
		switch {
		case ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled):
			return nil, Usage{}, fmt.Errorf("llm: %w", ctx.Err())
		case errors.Is(cctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
			return nil, Usage{}, fmt.Errorf("%w after %s", ErrTimeout, c.opts.Timeout)
		case errors.Is(err, ErrProvider):
			return nil, Usage{}, err
		default:
			return nil, Usage{}, fmt.Errorf("%w: %w", ErrProvider, err)
		}
	}

	doc, err := ExtractJSON(resp.Text)
	if err != nil {
		return nil, resp.Usage, err
	}
	if err := call.Schema.Validate(doc); err != nil {
		return nil, resp.Usage, err
	}
	return doc, resp.Usage, nil
}

func accept(call Call) error {
	if call.Accept == nil {
		return nil
	}
	return call.Accept()
}

// reset zeroes the value out points to so a rejected answer leaves nothing behind.
func reset(out any) {
	v := reflect.ValueOf(out)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v.Elem().Set(reflect.Zero(v.Elem().Type()))
	}
}
