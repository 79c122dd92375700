package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clubintake/app/config"
	"clubintake/app/service/conversation"

	"github.com/samber/lo"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConversation struct {
	beginErr   error
	advanceErr error
	reply      *conversation.Reply
	lastText   string
}

func (s *stubConversation) Begin(context.Context) (*conversation.Reply, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}

	return &conversation.Reply{SessionID: "sid-1", Message: "안녕하세요!", NextStage: conversation.StageIntro}, nil
}

func (s *stubConversation) Advance(_ context.Context, sessionID, text string) (*conversation.Reply, error) {
	s.lastText = text

	if s.advanceErr != nil {
		return nil, s.advanceErr
	}

	reply := *s.reply
	reply.SessionID = sessionID

	return &reply, nil
}

func newTestService(conv Conversation) *Service {
	return NewService(config.Server{Listen: ":0", CORSOrigins: "*"}, conv, "마스외전")
}

func call(t *testing.T, svc *Service, method, path, body string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := svc.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))

	return resp.StatusCode, payload
}

func TestService_Root(t *testing.T) {
	code, payload := call(t, newTestService(&stubConversation{}), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "마스외전 챗봇 API입니다.", payload["message"])
}

func TestService_Start(t *testing.T) {
	code, payload := call(t, newTestService(&stubConversation{}), http.MethodPost, "/chat/start", "")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "sid-1", payload["session_id"])
	assert.Equal(t, "안녕하세요!", payload["response_message"])
	assert.Equal(t, "intro", payload["next_step"])
}

func TestService_Start_Failure(t *testing.T) {
	svc := newTestService(&stubConversation{beginErr: errors.New("boom")})

	code, payload := call(t, svc, http.MethodPost, "/chat/start", "")

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, payload["detail"], "boom")
}

func TestService_Send(t *testing.T) {
	conv := &stubConversation{
		reply: &conversation.Reply{Message: "어떤 포지션에 관심 있으신가요?", NextStage: conversation.StagePosition},
	}
	svc := newTestService(conv)

	code, payload := call(t, svc, http.MethodPost, "/chat/send", `{"session_id":"sid-1","message":"김민수입니다"}`)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "sid-1", payload["session_id"])
	assert.Equal(t, "position", payload["next_step"])
	assert.Nil(t, payload["profile_data"])
	assert.Equal(t, "김민수입니다", conv.lastText)
}

func TestService_Send_Done(t *testing.T) {
	conv := &stubConversation{
		reply: &conversation.Reply{
			Message:   "지원이 완료되었습니다! 감사합니다.",
			NextStage: conversation.StageDone,
			Profile: &conversation.ProfileData{
				Name:       lo.ToPtr("김민수"),
				Positions:  []string{"백엔드"},
				Motivation: lo.ToPtr("협업을 배우고 싶습니다."),
			},
		},
	}

	code, payload := call(t, newTestService(conv), http.MethodPost, "/chat/send", `{"session_id":"sid-1","message":"그만할게요"}`)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "done", payload["next_step"])

	profile, ok := payload["profile_data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "김민수", profile["name"])
	assert.Equal(t, []any{"백엔드"}, profile["positions"])
	assert.Nil(t, profile["phone_number"])
}

func TestService_Send_EmptyMessage(t *testing.T) {
	conv := &stubConversation{reply: &conversation.Reply{NextStage: conversation.StageQA}}

	code, _ := call(t, newTestService(conv), http.MethodPost, "/chat/send", `{"session_id":"sid-1","message":""}`)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "", conv.lastText)
}

func TestService_Send_Errors(t *testing.T) {
	tests := []struct {
		name string
		conv *stubConversation
		body string
		code int
	}{
		{
			name: "Malformed body",
			conv: &stubConversation{},
			body: `{"session_id":`,
			code: http.StatusBadRequest,
		},
		{
			name: "Missing message",
			conv: &stubConversation{},
			body: `{"session_id":"sid-1"}`,
			code: http.StatusBadRequest,
		},
		{
			name: "Missing session",
			conv: &stubConversation{},
			body: `{"message":"hi"}`,
			code: http.StatusBadRequest,
		},
		{
			name: "Unknown session",
			conv: &stubConversation{advanceErr: oops.Wrapf(conversation.ErrSessionNotFound, "sid-9")},
			body: `{"session_id":"sid-9","message":"hi"}`,
			code: http.StatusNotFound,
		},
		{
			name: "Turn failure",
			conv: &stubConversation{advanceErr: errors.New("oracle timeout")},
			body: `{"session_id":"sid-1","message":"hi"}`,
			code: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, payload := call(t, newTestService(tt.conv), http.MethodPost, "/chat/send", tt.body)

			assert.Equal(t, tt.code, code)
			assert.NotEmpty(t, payload["detail"])
		})
	}
}

func TestService_CORS(t *testing.T) {
	svc := newTestService(&stubConversation{})

	req := httptest.NewRequest(http.MethodOptions, "/chat/start", nil)
	req.Header.Set("Origin", "https://mars.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := svc.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
