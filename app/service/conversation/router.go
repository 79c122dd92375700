package conversation

import (
	"context"

	"github.com/samber/oops"
)

type handlerFunc func(ctx context.Context, st *State, input string) (*Delta, error)

// route picks the handler for the next turn. A nil handler with a nil error
// means the dialogue is over.
func (s *Service) route(st *State) (handlerFunc, error) {
	if len(st.Messages) == 0 {
		return s.handleStart, nil
	}

	switch st.NextStage {
	case StageIntro:
		return s.handleIntro, nil
	case StagePosition:
		return s.handlePosition, nil
	case StageMotivation:
		return s.handleMotivation, nil
	case StageQA:
		return s.handleQA, nil
	case StageResume:
		return s.handleResume, nil
	case StageDone:
		return nil, nil
	default:
		return nil, oops.
			In("conversation").
			With("session_id", st.SessionID).
			Wrapf(ErrUnknownStage, "stage %q", st.NextStage)
	}
}
