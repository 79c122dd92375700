package conversation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubintake/app/config"
	"clubintake/app/service/knowledge"
	"clubintake/app/service/session"

	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/samber/oops"
)

type Service struct {
	oracle Oracle
	sink   Sink
	store  *session.Store[State]
	kb     *knowledge.Base
	script *Script
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	script, err := LoadScript(cfg.Conversation.ScriptPath)
	if err != nil {
		return nil, err
	}

	return NewService(
		do.MustInvoke[Oracle](di),
		do.MustInvoke[Sink](di),
		do.MustInvoke[*session.Store[State]](di),
		do.MustInvoke[*knowledge.Base](di),
		script,
	), nil
}

func NewService(
	oracle Oracle,
	sink Sink,
	store *session.Store[State],
	kb *knowledge.Base,
	script *Script,
) *Service {
	return &Service{
		oracle: oracle,
		sink:   sink,
		store:  store,
		kb:     kb,
		script: script,
	}
}

// Begin opens a new session and returns the opening line.
func (s *Service) Begin(ctx context.Context) (*Reply, error) {
	st := State{SessionID: uuid.NewString()}

	if err := s.runTurn(ctx, &st, ""); err != nil {
		return nil, err
	}

	st.UpdatedAt = time.Now()
	if err := s.store.Create(st.SessionID, st); err != nil {
		return nil, oops.In("conversation").With("session_id", st.SessionID).Wrapf(err, "create session")
	}

	slog.Info("Session started", "session_id", st.SessionID)

	return s.reply(&st), nil
}

// Advance feeds one applicant message into the session. Ending the Q&A and
// producing the final application happen within the same call.
func (s *Service) Advance(ctx context.Context, sessionID, text string) (*Reply, error) {
	var reply *Reply

	err := s.store.Update(ctx, sessionID, func(current State) (State, error) {
		if current.NextStage.Terminal() {
			reply = s.reply(&current)
			return current, nil
		}

		st := current.clone()
		st.Messages = append(st.Messages, userMessage(text))

		if err := s.runTurn(ctx, &st, text); err != nil {
			return current, err
		}

		if st.NextStage == StageResume {
			if err := s.runTurn(ctx, &st, ""); err != nil {
				return current, err
			}
		}

		st.UpdatedAt = time.Now()
		reply = s.reply(&st)

		return st, nil
	})
	if errors.Is(err, session.ErrNotFound) {
		return nil, oops.In("conversation").With("session_id", sessionID).Wrapf(ErrSessionNotFound, "advance")
	}
	if err != nil {
		return nil, err
	}

	return reply, nil
}

// State returns a snapshot of the session.
func (s *Service) State(sessionID string) (State, bool) {
	st, ok := s.store.Get(sessionID)
	if !ok {
		return State{}, false
	}

	return st.clone(), true
}

func (s *Service) runTurn(ctx context.Context, st *State, input string) error {
	handler, err := s.route(st)
	if err != nil {
		return err
	}

	if handler == nil {
		return nil
	}

	stage := st.NextStage
	start := time.Now()

	delta, err := handler(ctx, st, input)
	if err != nil {
		return oops.
			In("conversation").
			With("session_id", st.SessionID, "stage", stage).
			Wrapf(err, "handle stage")
	}

	st.apply(delta)

	slog.Debug("Stage handled",
		"session_id", st.SessionID,
		"stage", stage,
		"next_stage", st.NextStage,
		"duration", time.Since(start))

	return nil
}

func (s *Service) reply(st *State) *Reply {
	reply := &Reply{
		SessionID: st.SessionID,
		Message:   st.lastMessage(),
		NextStage: st.NextStage,
	}

	if st.NextStage.Terminal() {
		reply.Profile = st.profile()
	}

	return reply
}
