package decision

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/pkg/llms"
	"github.com/effective-security/miniagent/pkg/metricskey"
	"github.com/effective-security/xlog"
)

// Remote asks a language model for the Choice.
// Content that is not a valid Choice becomes a fallback final choice,
// transport errors are returned.
type Remote struct {
	name  string
	model llms.Model
	codec *Codec
	opts  []llms.CallOption
}

// NewRemote returns a Source named by strategy backed by the model
func NewRemote(strategy string, model llms.Model, opts ...llms.CallOption) *Remote {
	return &Remote{
		name:  strategy,
		model: model,
		codec: defaultCodec,
		opts:  append([]llms.CallOption{llms.WithTemperature(0)}, opts...),
	}
}

// WithCodec sets the reply format, nil keeps JSON
func (s *Remote) WithCodec(c *Codec) *Remote {
	if c != nil {
		s.codec = c
	}
	return s
}

// Name returns the strategy name
func (s *Remote) Name() string {
	return s.name
}

// Model returns the model used for decisions
func (s *Remote) Model() llms.Model {
	return s.model
}

// Decide renders the prompt, calls the model and parses the reply
func (s *Remote) Decide(ctx context.Context, req *Request) (*Choice, error) {
	msgs, err := s.codec.Prompt(req)
	if err != nil {
		return nil, err
	}

	modelName := s.model.GetName()
	started := time.Now()
	resp, err := s.model.GenerateContent(ctx, msgs.Messages(), s.opts...)
	metricskey.PerfDecisionCall.MeasureSince(started, s.name, modelName)

	var content string
	if err != nil {
		if !errors.Is(err, llms.ErrEmptyResponse) {
			logger.ContextKV(ctx, xlog.ERROR,
				"strategy", s.name,
				"model", modelName,
				"err", err.Error())
			return nil, errors.WithMessagef(err, "%s decision failed", s.name)
		}
	} else {
		content = resp.Content
		metricskey.StatsDecisionBytesReceived.IncrCounter(float64(len(content)), s.name, modelName)
	}

	choice := s.codec.ParseOrFallback(content)
	if choice.Fallback {
		metricskey.StatsDecisionFallback.IncrCounter(1, s.name, modelName)
		logger.ContextKV(ctx, xlog.WARNING,
			"reason", "invalid_choice",
			"strategy", s.name,
			"model", modelName,
			"format", s.codec.Mode(),
			"content", content)
	} else {
		logger.ContextKV(ctx, xlog.DEBUG,
			"strategy", s.name,
			"action", choice.Action,
			"reasoning", choice.Reasoning)
	}
	return choice, nil
}
