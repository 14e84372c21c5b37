package engine

import (
	"time"

	"github.com/rhuss/dolmetscher/pkg/api"
	"github.com/rhuss/dolmetscher/pkg/provider"
)

// timestamp returns the current time in the created_at format. It is
// called at encode time, once per response or frame.
func (e *Engine) timestamp() string {
	return e.now().UTC().Format(time.RFC3339Nano)
}

func (e *Engine) doneReason(finish string) string {
	if finish == "" {
		return e.cfg.doneReason()
	}
	return finish
}

func (e *Engine) encodeGenerate(model string, c *provider.Completion, elapsed time.Duration) *api.GenerateResponse {
	prompt, eval := usageCounts(c.Usage)
	return &api.GenerateResponse{
		Model:           model,
		CreatedAt:       e.timestamp(),
		Response:        c.Text,
		Done:            true,
		DoneReason:      e.doneReason(c.FinishReason),
		TotalDuration:   nonNegative(elapsed),
		PromptEvalCount: prompt,
		EvalCount:       eval,
	}
}

func (e *Engine) encodeChat(model string, c *provider.Completion, elapsed time.Duration) *api.ChatResponse {
	prompt, eval := usageCounts(c.Usage)
	return &api.ChatResponse{
		Model:     model,
		CreatedAt: e.timestamp(),
		Message: api.Message{
			Role:    api.RoleAssistant,
			Content: c.Text,
		},
		Done:            true,
		DoneReason:      e.doneReason(c.FinishReason),
		TotalDuration:   nonNegative(elapsed),
		PromptEvalCount: prompt,
		EvalCount:       eval,
	}
}

// usageCounts returns the token counts, or nils when the backend did
// not report usage. Counts are never defaulted to zero.
func usageCounts(u *provider.Usage) (prompt, eval *int) {
	if u == nil {
		return nil, nil
	}
	p, c := u.PromptTokens, u.CompletionTokens
	return &p, &c
}

func nonNegative(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return d.Nanoseconds()
}
