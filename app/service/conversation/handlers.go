package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const (
	// SkippedMotivation is stored when the applicant skips the motivation question.
	SkippedMotivation = "skipped"

	qaHistoryWindow    = 10
	minSynthesisInput  = 20
	longInputThreshold = 100
)

func (s *Service) handleStart(_ context.Context, _ *State, _ string) (*Delta, error) {
	return &Delta{
		Messages: []Message{assistantMessage(s.script.Opening)},
		Next:     StageIntro,
	}, nil
}

func (s *Service) handleIntro(ctx context.Context, st *State, input string) (*Delta, error) {
	values := map[string]any{"positions": s.kb.PositionList()}

	if s.script.isSkip(input) {
		return &Delta{
			Messages: []Message{assistantMessage(render(s.script.IntroSkipReply, values))},
			Personal: &PersonalInfo{},
			Next:     StagePosition,
		}, nil
	}

	var info PersonalInfo
	err := s.oracle.Extract(ctx, ExtractRequest{
		Name:        "user_info",
		Instruction: s.script.IntroExtractPrompt,
		Schema:      personalInfoSchema(),
		History:     st.Messages,
	}, &info)
	if err != nil {
		return nil, oops.In("conversation").Wrapf(err, "extract introduction")
	}

	info = info.normalized()

	reply := render(s.script.IntroReplyAnonymous, values)
	if info.Name != nil {
		values["name"] = *info.Name
		reply = render(s.script.IntroReply, values)
	}

	return &Delta{
		Messages: []Message{assistantMessage(reply)},
		Personal: &info,
		Next:     StagePosition,
	}, nil
}

func (s *Service) handlePosition(ctx context.Context, st *State, input string) (*Delta, error) {
	if s.script.isSkip(input) {
		return &Delta{
			Messages:  []Message{assistantMessage(s.script.PositionSkipReply)},
			Positions: lo.ToPtr([]string{}),
			Next:      StageMotivation,
		}, nil
	}

	positions, err := s.extractPositions(ctx, st)
	if err != nil {
		slog.Warn("Position extraction failed, asking again",
			"session_id", st.SessionID,
			"error", err)

		retry := render(s.script.PositionRetry, map[string]any{"positions": s.kb.PositionList()})
		return &Delta{
			Messages: []Message{assistantMessage(retry)},
			Next:     StagePosition,
		}, nil
	}

	return &Delta{
		Messages:  []Message{assistantMessage(s.script.PositionReply)},
		Positions: &positions,
		Next:      StageMotivation,
	}, nil
}

func (s *Service) extractPositions(ctx context.Context, st *State) ([]string, error) {
	var answer positionsAnswer
	err := s.oracle.Extract(ctx, ExtractRequest{
		Name:        "position_info",
		Instruction: render(s.script.PositionExtractPrompt, map[string]any{"positions": s.kb.PositionList()}),
		Schema:      positionsSchema(s.kb.Positions),
		History:     st.Messages,
	}, &answer)
	if err != nil {
		return nil, err
	}

	positions := s.kb.MatchPositions(answer.Positions)
	if len(positions) == 0 {
		return nil, errors.New("no position selected")
	}

	return positions, nil
}

func (s *Service) handleMotivation(_ context.Context, _ *State, input string) (*Delta, error) {
	motivation := input
	if s.script.isSkip(input) {
		motivation = SkippedMotivation
	}

	return &Delta{
		Messages:          []Message{assistantMessage(s.script.MotivationAck)},
		InitialMotivation: &motivation,
		Next:              StageQA,
	}, nil
}

func (s *Service) handleQA(ctx context.Context, st *State, input string) (*Delta, error) {
	intent, err := s.oracle.ClassifyIntent(ctx, input)
	if err != nil {
		return nil, oops.In("conversation").Wrapf(err, "classify intent")
	}

	if intent == IntentEnd {
		slog.Info("Applicant ended Q&A", "session_id", st.SessionID)
		return &Delta{Next: StageResume}, nil
	}

	system := render(s.script.QASystemPrompt, map[string]any{
		"club_name": s.kb.Name,
		"knowledge": s.kb.Text(),
	})

	answer, err := s.oracle.Generate(ctx, system, lastMessages(st.Messages, qaHistoryWindow))
	if err != nil {
		return nil, oops.In("conversation").Wrapf(err, "generate answer")
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, oops.In("conversation").Errorf("empty answer from oracle")
	}

	return &Delta{
		Messages: []Message{assistantMessage(answer)},
		Next:     StageQA,
	}, nil
}

func (s *Service) handleResume(ctx context.Context, st *State, _ string) (*Delta, error) {
	questions, err := s.collectQuestions(ctx, st)
	if err != nil {
		return nil, err
	}

	initial := strings.TrimSpace(lo.FromPtr(st.InitialMotivation))
	if initial == SkippedMotivation {
		initial = ""
	}

	length := utf8.RuneCountInString(initial)
	for _, q := range questions {
		length += utf8.RuneCountInString(q)
	}

	var motivation string
	if length < minSynthesisInput {
		slog.Info("Not enough input for motivation write-up",
			"session_id", st.SessionID,
			"length", length)
		motivation = s.script.InsufficientInput
	} else {
		motivation, err = s.synthesize(ctx, st, initial, questions, length)
		if err != nil {
			return nil, err
		}
	}

	profile := st.profile()
	profile.Motivation = &motivation

	closing := s.script.Closing
	if err = s.sink.Submit(ctx, profile); err != nil {
		slog.Warn("Application submission failed",
			"session_id", st.SessionID,
			"error", err)
		closing = s.closingFor(err)
	}

	return &Delta{
		Messages:   []Message{assistantMessage(closing)},
		Motivation: &motivation,
		Next:       StageDone,
	}, nil
}

// collectQuestions returns the applicant's Q&A turns after the motivation
// acknowledgement. A final turn that only asked to finish is dropped.
func (s *Service) collectQuestions(ctx context.Context, st *State) ([]string, error) {
	ack := pie.FindFirstUsing(st.Messages, func(m Message) bool {
		return m.Role == RoleAssistant && m.Content == s.script.MotivationAck
	})
	if ack < 0 {
		return nil, nil
	}

	turns := pie.Filter(st.Messages[ack+1:], func(m Message) bool {
		return m.Role == RoleUser && strings.TrimSpace(m.Content) != ""
	})
	questions := pie.Map(turns, func(m Message) string {
		return strings.TrimSpace(m.Content)
	})
	if len(questions) == 0 {
		return nil, nil
	}

	intent, err := s.oracle.ClassifyIntent(ctx, pie.Last(questions))
	if err != nil {
		return nil, oops.In("conversation").Wrapf(err, "classify last question")
	}

	if intent == IntentEnd {
		questions = questions[:len(questions)-1]
	}

	return questions, nil
}

func (s *Service) synthesize(ctx context.Context, st *State, initial string, questions []string, length int) (string, error) {
	band := s.script.LongLengthBand
	if length < longInputThreshold {
		band = s.script.ShortLengthBand
	}

	qa := s.script.NoQuestions
	if len(questions) > 0 {
		qa = "- " + strings.Join(questions, "\n- ")
	}

	positions := "미지정"
	if len(st.Positions) > 0 {
		positions = strings.Join(st.Positions, ", ")
	}

	system := render(s.script.ResumePrompt, map[string]any{
		"club_name":          s.kb.Name,
		"positions":          positions,
		"department":         lo.CoalesceOrEmpty(lo.FromPtr(st.Department), "정보 없음"),
		"initial_motivation": lo.CoalesceOrEmpty(initial, "없음"),
		"qa":                 qa,
		"length_band":        band,
	})

	text, err := s.oracle.Generate(ctx, system, []Message{userMessage(s.script.ResumeRequest)})
	if err != nil {
		return "", oops.In("conversation").Wrapf(err, "generate motivation")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", oops.In("conversation").Errorf("empty motivation from oracle")
	}

	return text, nil
}

func (s *Service) closingFor(err error) string {
	switch {
	case errors.Is(err, ErrSubmitStatus):
		return s.script.ClosingSubmitStatus
	case errors.Is(err, ErrSubmitUnreachable):
		return s.script.ClosingSubmitUnreachable
	default:
		return s.script.ClosingUnknown
	}
}
