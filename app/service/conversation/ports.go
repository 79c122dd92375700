package conversation

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai/jsonschema"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrUnknownStage      = errors.New("unknown conversation stage")
	ErrSubmitStatus      = errors.New("submission endpoint returned an error status")
	ErrSubmitUnreachable = errors.New("submission endpoint is unreachable")
)

type Intent string

const (
	IntentContinue Intent = "continue_chat"
	IntentEnd      Intent = "end_chat"
)

// ExtractRequest asks the oracle to fill Schema from the conversation.
// Properties the applicant never mentioned must come back absent.
type ExtractRequest struct {
	Name        string
	Instruction string
	Schema      *jsonschema.Definition
	History     []Message
}

// Oracle is the language understanding and generation backend.
type Oracle interface {
	// Extract decodes the structured answer into out.
	Extract(ctx context.Context, req ExtractRequest, out any) error
	ClassifyIntent(ctx context.Context, text string) (Intent, error)
	Generate(ctx context.Context, system string, history []Message) (string, error)
}

// Sink receives finished applications. Implementations wrap failures with
// ErrSubmitStatus or ErrSubmitUnreachable where they can tell them apart.
type Sink interface {
	Submit(ctx context.Context, profile *ProfileData) error
}
