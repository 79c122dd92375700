package oracle

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"clubintake/app/config"
	"clubintake/app/service/conversation"

	"github.com/samber/do"
	"github.com/samber/oops"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

const intentPrompt = `사용자 메시지를 보고 대화를 계속할지 분류하세요.
'종료', '그만', '됐어', '지원서 생성해줘', '마무리' 등 대화 종료 의사를 명확히 밝히면 end_chat, 그 외 모든 질문이나 대답은 continue_chat입니다.`

var _ conversation.Oracle = (*Client)(nil)

// Client talks to OpenAI compatible endpoints. Structured calls go through
// go-openai with a JSON schema response format, free text through langchaingo.
type Client struct {
	extract        *openai.Client
	extractModel   string
	extractTimeout time.Duration

	chat        llms.Model
	chatTimeout time.Duration
}

func New(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewClient(cfg.OpenAI)
}

func NewClient(cfg config.OpenAI) (*Client, error) {
	clientConfig := openai.DefaultConfig(cfg.Extract.Token)
	clientConfig.BaseURL = cfg.Extract.BaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: cfg.Extract.Timeout,
	}

	chat, err := lcopenai.New(
		lcopenai.WithToken(cfg.Chat.Token),
		lcopenai.WithBaseURL(cfg.Chat.BaseURL),
		lcopenai.WithModel(cfg.Chat.Model),
		lcopenai.WithCallback(LogCallbackHandler{model: cfg.Chat.Model}),
	)
	if err != nil {
		return nil, oops.In("oracle").Wrapf(err, "create chat model")
	}

	return &Client{
		extract:        openai.NewClientWithConfig(clientConfig),
		extractModel:   cfg.Extract.Model,
		extractTimeout: cfg.Extract.Timeout,
		chat:           chat,
		chatTimeout:    cfg.Chat.Timeout,
	}, nil
}

func (c *Client) Extract(ctx context.Context, req conversation.ExtractRequest, out any) error {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: req.Instruction,
	})
	for _, msg := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    chatRole(msg.Role),
			Content: msg.Content,
		})
	}

	content, err := c.complete(ctx, req.Name, req.Schema, messages)
	if err != nil {
		return err
	}

	if err = json.Unmarshal([]byte(content), out); err != nil {
		return oops.In("oracle").With("schema", req.Name).With("content", content).Wrapf(err, "unmarshal structured answer")
	}

	return nil
}

func (c *Client) ClassifyIntent(ctx context.Context, text string) (conversation.Intent, error) {
	schema := &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"intent": {
				Type: jsonschema.String,
				Enum: []string{string(conversation.IntentContinue), string(conversation.IntentEnd)},
			},
		},
		Required:             []string{"intent"},
		AdditionalProperties: false,
	}

	content, err := c.complete(ctx, "intent", schema, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: intentPrompt},
		{Role: openai.ChatMessageRoleUser, Content: text},
	})
	if err != nil {
		return "", err
	}

	var answer struct {
		Intent string `json:"intent"`
	}
	if err = json.Unmarshal([]byte(content), &answer); err != nil {
		return "", oops.In("oracle").With("content", content).Wrapf(err, "unmarshal intent")
	}

	if conversation.Intent(answer.Intent) == conversation.IntentEnd {
		return conversation.IntentEnd, nil
	}

	if answer.Intent != string(conversation.IntentContinue) {
		slog.Warn("Unexpected intent label", "intent", answer.Intent)
	}

	return conversation.IntentContinue, nil
}

func (c *Client) Generate(ctx context.Context, system string, history []conversation.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.chatTimeout)
	defer cancel()

	messages := make([]llms.MessageContent, 0, len(history)+1)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	for _, msg := range history {
		role := llms.ChatMessageTypeHuman
		if msg.Role == conversation.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, msg.Content))
	}

	resp, err := c.chat.GenerateContent(ctx, messages)
	if err != nil {
		return "", oops.In("oracle").Wrapf(err, "generate content")
	}

	if len(resp.Choices) == 0 {
		return "", oops.In("oracle").Errorf("no choices in response")
	}

	return strings.TrimSpace(resp.Choices[0].Content), nil
}

func (c *Client) complete(ctx context.Context, name string, schema *jsonschema.Definition, messages []openai.ChatCompletionMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.extractTimeout)
	defer cancel()

	start := time.Now()

	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}
	if schema != nil {
		format = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: schema,
			},
		}
	}

	resp, err := c.extract.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          c.extractModel,
		Messages:       messages,
		Temperature:    0,
		ResponseFormat: format,
	})
	if err != nil {
		return "", oops.In("oracle").With("schema", name).Wrapf(err, "create chat completion")
	}

	if len(resp.Choices) == 0 {
		return "", oops.In("oracle").With("schema", name).Errorf("no chat completion found")
	}

	slog.Debug("Structured completion",
		"schema", name,
		"latency_ms", time.Since(start).Milliseconds(),
		"tokens", resp.Usage.TotalTokens,
	)

	return trimFence(resp.Choices[0].Message.Content), nil
}

func trimFence(content string) string {
	content = strings.Trim(content, "`")
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "json")

	return strings.TrimSpace(content)
}

func chatRole(role conversation.Role) string {
	if role == conversation.RoleAssistant {
		return openai.ChatMessageRoleAssistant
	}

	return openai.ChatMessageRoleUser
}
