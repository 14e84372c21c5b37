package engine

import (
	"strings"

	"github.com/rhuss/dolmetscher/pkg/api"
	"github.com/rhuss/dolmetscher/pkg/debug"
	"github.com/rhuss/dolmetscher/pkg/provider"
)

// canonicalRequest is the single internal form of every completion call.
// Messages always end with exactly one user message.
type canonicalRequest struct {
	Messages []provider.Message
	Options  map[string]any
	Stream   bool
}

// Role labels of the flattened chat prompt.
const (
	userLabel      = "User: "
	assistantLabel = "Assistant: "
)

// normalizeGenerate builds the canonical request of a generate call: an
// optional system message, then one user message with the prompt (which
// may be empty). Extra top-level fields become options verbatim.
func normalizeGenerate(req *api.GenerateRequest) canonicalRequest {
	var msgs []provider.Message
	if req.System != "" {
		msgs = append(msgs, provider.Message{Role: provider.RoleSystem, Content: req.System})
	}
	msgs = append(msgs, provider.Message{Role: provider.RoleUser, Content: req.Prompt})

	return canonicalRequest{
		Messages: msgs,
		Options:  copyOptions(req.Extra),
		Stream:   req.Stream,
	}
}

// chatAsGenerate flattens a chat request into the generate request that
// serves it. The last system message wins. User and assistant turns are
// labelled and joined by newlines. Tool messages are dropped.
func chatAsGenerate(req *api.ChatRequest) *api.GenerateRequest {
	var system string
	var turns []string

	for _, m := range req.Messages {
		switch m.Role {
		case api.RoleSystem:
			system = m.Content
		case api.RoleUser:
			turns = append(turns, userLabel+m.Content)
		case api.RoleAssistant:
			turns = append(turns, assistantLabel+m.Content)
		default:
			debug.Log("engine", "dropping chat message", "role", m.Role)
		}
	}

	return &api.GenerateRequest{
		Model:  req.Model,
		Prompt: strings.Join(turns, "\n"),
		System: system,
		Stream: req.Stream,
		Extra:  req.Extra,
	}
}

func copyOptions(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
