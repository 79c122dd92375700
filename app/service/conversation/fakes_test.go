package conversation

import (
	"context"
	"sync"
	"testing"

	"clubintake/app/service/knowledge"
	"clubintake/app/service/session"

	"github.com/stretchr/testify/require"
)

type generateCall struct {
	system  string
	history []Message
}

type fakeOracle struct {
	mu sync.Mutex

	personal     PersonalInfo
	personalErr  error
	positions    []string
	positionsErr error
	intents      map[string]Intent
	intentErr    error
	answer       string
	motivation   string
	generateErr  error

	extractCalls  []ExtractRequest
	classifyCalls []string
	generateCalls []generateCall
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{
		positions:  []string{"백엔드"},
		intents:    map[string]Intent{},
		answer:     "매주 목요일 저녁 7시에 모여요.",
		motivation: "팀워크를 배우고 싶은 지원자입니다.",
	}
}

func (f *fakeOracle) Extract(_ context.Context, req ExtractRequest, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.extractCalls = append(f.extractCalls, req)

	switch answer := out.(type) {
	case *PersonalInfo:
		if f.personalErr != nil {
			return f.personalErr
		}
		*answer = f.personal
	case *positionsAnswer:
		if f.positionsErr != nil {
			return f.positionsErr
		}
		answer.Positions = f.positions
	}

	return nil
}

func (f *fakeOracle) ClassifyIntent(_ context.Context, text string) (Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.classifyCalls = append(f.classifyCalls, text)

	if f.intentErr != nil {
		return "", f.intentErr
	}

	if intent, ok := f.intents[text]; ok {
		return intent, nil
	}

	return IntentContinue, nil
}

func (f *fakeOracle) Generate(_ context.Context, system string, history []Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.generateCalls = append(f.generateCalls, generateCall{system: system, history: history})

	if f.generateErr != nil {
		return "", f.generateErr
	}

	if len(history) == 1 && history[0].Content == DefaultScript().ResumeRequest {
		return f.motivation, nil
	}

	return f.answer, nil
}

func (f *fakeOracle) generated() []generateCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]generateCall(nil), f.generateCalls...)
}

type fakeSink struct {
	mu       sync.Mutex
	err      error
	profiles []*ProfileData
}

func (f *fakeSink) Submit(_ context.Context, profile *ProfileData) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.profiles = append(f.profiles, profile)

	return f.err
}

func (f *fakeSink) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.profiles)
}

func testKnowledge() *knowledge.Base {
	return &knowledge.Base{
		Name:      "MARS",
		Intro:     "개발과 디자인을 함께하는 IT 동아리",
		Positions: []string{"기획자", "디자이너", "프론트엔드", "백엔드", "AI 포지션"},
		Data:      "- 주요 활동:\n  - 정기 세션: 매주 목요일 저녁 7시",
	}
}

func newTestService(oracle *fakeOracle, sink *fakeSink) *Service {
	return NewService(oracle, sink, session.NewStore[State](), testKnowledge(), DefaultScript())
}

// advanceTo begins a session and answers until the session sits at stage.
func advanceTo(t *testing.T, svc *Service, stage Stage) string {
	t.Helper()

	ctx := context.Background()

	reply, err := svc.Begin(ctx)
	require.NoError(t, err)

	answers := map[Stage]string{
		StageIntro:      "안녕하세요",
		StagePosition:   "백엔드요",
		StageMotivation: "다양한 사람들과 협업하며 팀워크를 배우고 싶어서 지원합니다",
	}

	for reply.NextStage != stage {
		answer, ok := answers[reply.NextStage]
		require.True(t, ok, "cannot advance past %s", reply.NextStage)

		reply, err = svc.Advance(ctx, reply.SessionID, answer)
		require.NoError(t, err)
	}

	return reply.SessionID
}
