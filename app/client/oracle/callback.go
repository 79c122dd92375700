package oracle

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/llms"
)

var _ callbacks.Handler = (*LogCallbackHandler)(nil)

// LogCallbackHandler traces chat generations. Chain, tool and retriever
// events never happen here and fall through to SimpleHandler.
type LogCallbackHandler struct {
	callbacks.SimpleHandler
	model string
}

func (l LogCallbackHandler) HandleLLMGenerateContentStart(ctx context.Context, ms []llms.MessageContent) {
	slog.DebugContext(ctx, "LLM generate content start", "model", l.model, "messages", len(ms))
}

func (l LogCallbackHandler) HandleLLMGenerateContentEnd(ctx context.Context, res *llms.ContentResponse) {
	if res == nil || len(res.Choices) == 0 {
		slog.WarnContext(ctx, "LLM returned no choices", "model", l.model)
		return
	}

	slog.DebugContext(ctx, "LLM generate content end",
		"model", l.model,
		"stop_reason", res.Choices[0].StopReason,
		"length", len([]rune(res.Choices[0].Content)),
	)
}

func (l LogCallbackHandler) HandleLLMError(ctx context.Context, err error) {
	slog.ErrorContext(ctx, "LLM error", "model", l.model, "error", err)
}
