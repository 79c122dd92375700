package submission

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"clubintake/app/config"
	"clubintake/app/service/archive"
	"clubintake/app/service/conversation"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProfile() *conversation.ProfileData {
	return &conversation.ProfileData{
		Name:       lo.ToPtr("김민수"),
		Department: lo.ToPtr("컴퓨터공학과"),
		Positions:  []string{"백엔드"},
		Motivation: lo.ToPtr("협업을 배우고 싶습니다."),
	}
}

func newTestClient(t *testing.T, url string) (*Client, *archive.Service) {
	t.Helper()

	archiveSvc, err := archive.NewService(filepath.Join(t.TempDir(), "applications.jsonl"))
	require.NoError(t, err)

	return NewClient(config.Submission{URL: url, Timeout: 2 * time.Second}, archiveSvc), archiveSvc
}

func TestClient_Submit(t *testing.T) {
	var received map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client, archiveSvc := newTestClient(t, srv.URL)

	require.NoError(t, client.Submit(context.Background(), testProfile()))

	assert.Equal(t, "김민수", received["name"])
	assert.Equal(t, "컴퓨터공학과", received["department"])
	assert.Equal(t, []any{"백엔드"}, received["positions"])
	assert.Equal(t, "협업을 배우고 싶습니다.", received["motivation"])
	assert.Nil(t, received["age"])

	records, err := archiveSvc.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Delivered)
	assert.Empty(t, records[0].Error)
}

func TestClient_Submit_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client, archiveSvc := newTestClient(t, srv.URL)

	err := client.Submit(context.Background(), testProfile())
	require.Error(t, err)
	assert.ErrorIs(t, err, conversation.ErrSubmitStatus)

	records, err := archiveSvc.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Delivered)
	assert.NotEmpty(t, records[0].Error)
}

func TestClient_Submit_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, _ := newTestClient(t, url)

	err := client.Submit(context.Background(), testProfile())
	require.Error(t, err)
	assert.ErrorIs(t, err, conversation.ErrSubmitUnreachable)
}

func TestClient_Submit_CancelledContext(t *testing.T) {
	client, _ := newTestClient(t, "http://127.0.0.1:1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Submit(ctx, testProfile())
	assert.ErrorIs(t, err, conversation.ErrSubmitUnreachable)
}

func TestClient_Submit_NoURL(t *testing.T) {
	client, archiveSvc := newTestClient(t, "")

	require.NoError(t, client.Submit(context.Background(), testProfile()))

	records, err := archiveSvc.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Delivered)
}
