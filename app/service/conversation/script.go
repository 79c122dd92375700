package conversation

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/elliotchance/pie/v2"
	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

//go:embed script.yaml
var defaultScript []byte

// Script holds every piece of user-facing wording and every prompt. Values
// may contain {placeholders} filled by render.
type Script struct {
	SkipKeywords []string `yaml:"skip_keywords"`

	Opening string `yaml:"opening" validate:"required"`

	IntroExtractPrompt  string `yaml:"intro_extract_prompt" validate:"required"`
	IntroReply          string `yaml:"intro_reply" validate:"required"`
	IntroReplyAnonymous string `yaml:"intro_reply_anonymous" validate:"required"`
	IntroSkipReply      string `yaml:"intro_skip_reply" validate:"required"`

	PositionExtractPrompt string `yaml:"position_extract_prompt" validate:"required"`
	PositionReply         string `yaml:"position_reply" validate:"required"`
	PositionSkipReply     string `yaml:"position_skip_reply" validate:"required"`
	PositionRetry         string `yaml:"position_retry" validate:"required"`

	MotivationAck string `yaml:"motivation_ack" validate:"required"`

	QASystemPrompt string `yaml:"qa_system_prompt" validate:"required"`

	ResumePrompt      string `yaml:"resume_prompt" validate:"required"`
	ResumeRequest     string `yaml:"resume_request" validate:"required"`
	ShortLengthBand   string `yaml:"short_length_band" validate:"required"`
	LongLengthBand    string `yaml:"long_length_band" validate:"required"`
	NoQuestions       string `yaml:"no_questions" validate:"required"`
	InsufficientInput string `yaml:"insufficient_input" validate:"required"`

	Closing                  string `yaml:"closing" validate:"required"`
	ClosingSubmitStatus      string `yaml:"closing_submit_status" validate:"required"`
	ClosingSubmitUnreachable string `yaml:"closing_submit_unreachable" validate:"required"`
	ClosingUnknown           string `yaml:"closing_unknown" validate:"required"`
}

// DefaultScript returns the built-in wording.
func DefaultScript() *Script {
	var script Script
	if err := yaml.Unmarshal(defaultScript, &script); err != nil {
		panic(err)
	}

	return &script
}

// LoadScript reads the built-in wording and overlays the keys present in the
// file at path. An empty path keeps the defaults.
func LoadScript(path string) (*Script, error) {
	script := DefaultScript()
	if path == "" {
		return script, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Errorf("failed to read script file: %w", err)
	}

	if err = yaml.Unmarshal(data, script); err != nil {
		return nil, oops.Errorf("failed to parse script file: %w", err)
	}

	if err = validator.New().Struct(script); err != nil {
		return nil, oops.Errorf("failed to validate script: %w", err)
	}

	return script, nil
}

func (s *Script) isSkip(text string) bool {
	text = strings.ToLower(text)

	return pie.Any(s.SkipKeywords, func(keyword string) bool {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		return keyword != "" && strings.Contains(text, keyword)
	})
}

func render(template string, values map[string]any) string {
	result := template
	for key, value := range values {
		result = strings.ReplaceAll(result, "{"+key+"}", fmt.Sprint(value))
	}

	return result
}
