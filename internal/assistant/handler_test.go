package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct {
	result string
	err    error
	calls  int
}

func (s *stubAnalyzer) AnalyzeScan(ctx context.Context, mimeType string, data []byte) (string, error) {
	s.calls++
	return s.result, s.err
}

func newTestServer(t *testing.T, analyzer ScanAnalyzer, chat ChatClient) (*httptest.Server, *SessionStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	sessions := NewSessionStore(rdb, time.Hour, 10, nil)

	r := chi.NewRouter()
	NewHandler(sessions, analyzer, chat, nil).Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, sessions
}

func multipartImage(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestAnalyzeScan(t *testing.T) {
	analyzer := &stubAnalyzer{result: "normal chest X-ray"}
	srv, sessions := newTestServer(t, analyzer, nil)

	buf, contentType := multipartImage(t, "file", "xray.png", "image/png", []byte("fake-png"))
	resp, err := http.Post(srv.URL+"/api/analyze-scan", contentType, buf)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON(t, resp)
	assert.Equal(t, "normal chest X-ray", body["analysis"])
	assert.Equal(t, "xray.png", body["filename"])
	assert.Equal(t, "image/png", body["image_type"])
	assert.NotEmpty(t, body["session_id"])
	assert.Equal(t, 1, analyzer.calls)

	// The analysis is stored on the session.
	sess, err := sessions.Get(context.Background(), body["session_id"].(string))
	require.NoError(t, err)
	require.Len(t, sess.Analyses, 1)
	assert.Equal(t, "xray.png", sess.Analyses[0].Filename)
}

func TestAnalyzeScanRejectsUnsupportedType(t *testing.T) {
	srv, _ := newTestServer(t, &stubAnalyzer{}, nil)

	buf, contentType := multipartImage(t, "file", "doc.pdf", "application/pdf", []byte("%PDF"))
	resp, err := http.Post(srv.URL+"/api/analyze-scan", contentType, buf)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Contains(t, body["detail"], "unsupported image type")
}

func TestAnalyzeScanMissingFile(t *testing.T) {
	srv, _ := newTestServer(t, &stubAnalyzer{}, nil)

	buf, contentType := multipartImage(t, "other", "xray.png", "image/png", []byte("fake"))
	resp, err := http.Post(srv.URL+"/api/analyze-scan", contentType, buf)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzeScanUpstreamFailure(t *testing.T) {
	analyzer := &stubAnalyzer{err: errors.New("model unavailable")}
	srv, _ := newTestServer(t, analyzer, nil)

	buf, contentType := multipartImage(t, "file", "xray.png", "image/png", []byte("fake"))
	resp, err := http.Post(srv.URL+"/api/analyze-scan", contentType, buf)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestAnalyzeScanNotConfigured(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	buf, contentType := multipartImage(t, "file", "xray.png", "image/png", []byte("fake"))
	resp, err := http.Post(srv.URL+"/api/analyze-scan", contentType, buf)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestChat(t *testing.T) {
	chat := &stubChatClient{reply: "drink plenty of water"}
	srv, sessions := newTestServer(t, nil, chat)

	payload := `{"messages": [{"role": "user", "content": "I have a mild headache"}]}`
	resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON(t, resp)
	assert.Equal(t, "drink plenty of water", body["reply"])
	sessionID := body["session_id"].(string)
	assert.NotEmpty(t, sessionID)

	// The provided turn reaches the model unchanged.
	require.Len(t, chat.last.Messages, 1)
	assert.Equal(t, "I have a mild headache", chat.last.Messages[0].Content)

	// Both turns are recorded.
	sess, err := sessions.Get(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, sess.History, 2)
	assert.Equal(t, RoleUser, sess.History[0].Role)
	assert.Equal(t, RoleAssistant, sess.History[1].Role)

	// The guardrail prompt rides along on every request.
	require.NotEmpty(t, chat.last.System)
	assert.Contains(t, chat.last.System[0], "MediAssist")
}

func TestChatMultipleTurns(t *testing.T) {
	chat := &stubChatClient{reply: "ok"}
	srv, sessions := newTestServer(t, nil, chat)

	payload := `{"messages": [
		{"role": "user", "content": "earlier question"},
		{"role": "assistant", "content": "earlier answer"},
		{"role": "user", "content": "follow-up"}
	]}`
	resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)

	require.Len(t, chat.last.Messages, 3)
	assert.Equal(t, "earlier question", chat.last.Messages[0].Content)
	assert.Equal(t, "follow-up", chat.last.Messages[2].Content)

	// Only the user turns plus the reply land in history.
	sess, err := sessions.Get(context.Background(), body["session_id"].(string))
	require.NoError(t, err)
	require.Len(t, sess.History, 3)
	assert.Equal(t, "earlier question", sess.History[0].Content)
	assert.Equal(t, "follow-up", sess.History[1].Content)
	assert.Equal(t, RoleAssistant, sess.History[2].Role)
}

func TestChatSingleMessageConvenience(t *testing.T) {
	chat := &stubChatClient{reply: "noted"}
	srv, _ := newTestServer(t, nil, chat)

	resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(`{"message": "hello"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, chat.last.Messages, 1)
	assert.Equal(t, "hello", chat.last.Messages[0].Content)
}

func TestChatInjectsLatestAnalysis(t *testing.T) {
	chat := &stubChatClient{reply: "ok"}
	srv, sessions := newTestServer(t, nil, chat)

	sess, err := sessions.GetOrCreate(context.Background(), "")
	require.NoError(t, err)
	sess.Analyses = []ScanAnalysis{{Filename: "xray.png", Analysis: "mild opacity noted"}}
	require.NoError(t, sessions.Save(context.Background(), sess))

	payload := `{"messages": [{"role": "user", "content": "what does that mean?"}], "session_id": "` + sess.ID + `"}`
	resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp)

	require.Len(t, chat.last.System, 2)
	assert.Contains(t, chat.last.System[1], "xray.png")
	assert.Contains(t, chat.last.System[1], "mild opacity noted")
}

func TestChatEmptyMessagesUsesGreeting(t *testing.T) {
	chat := &stubChatClient{reply: "hello, how can I help?"}
	srv, _ := newTestServer(t, nil, chat)

	resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(`{"messages": []}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, chat.last.Messages, 1)
	assert.Equal(t, "Hello, I'd like some general health information.", chat.last.Messages[0].Content)
}

func TestChatInvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t, nil, &stubChatClient{reply: "x"})

	resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(`{"messages": `))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatUpstreamFailure(t *testing.T) {
	srv, _ := newTestServer(t, nil, &stubChatClient{err: errors.New("down")})

	payload := `{"messages": [{"role": "user", "content": "hello"}]}`
	resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestSimpleChat(t *testing.T) {
	chat := &stubChatClient{reply: "hello back"}
	srv, sessions := newTestServer(t, nil, chat)

	resp, err := http.PostForm(srv.URL+"/api/simple-chat", url.Values{"message": {"hello"}})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON(t, resp)
	assert.Equal(t, "hello back", body["reply"])
	sessionID := body["session_id"].(string)
	assert.NotEmpty(t, sessionID)

	// The exchange is recorded like any other chat turn.
	sess, err := sessions.Get(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, sess.History, 2)
	assert.Equal(t, "hello", sess.History[0].Content)
}

func TestSimpleChatReusesSession(t *testing.T) {
	chat := &stubChatClient{reply: "again"}
	srv, sessions := newTestServer(t, nil, chat)

	sess, err := sessions.GetOrCreate(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, sessions.Save(context.Background(), sess))

	resp, err := http.PostForm(srv.URL+"/api/simple-chat", url.Values{
		"message":    {"second question"},
		"session_id": {sess.ID},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON(t, resp)
	assert.Equal(t, sess.ID, body["session_id"])
}

func TestSimpleChatRequiresMessage(t *testing.T) {
	srv, _ := newTestServer(t, nil, &stubChatClient{reply: "x"})

	resp, err := http.PostForm(srv.URL+"/api/simple-chat", url.Values{"message": {"  "}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionInfo(t *testing.T) {
	srv, sessions := newTestServer(t, nil, nil)

	sess, err := sessions.GetOrCreate(context.Background(), "")
	require.NoError(t, err)
	sess.History = []Message{
		{Role: RoleUser, Content: "q"},
		{Role: RoleAssistant, Content: "a"},
	}
	sess.Analyses = []ScanAnalysis{{Filename: "scan.jpg", Timestamp: time.Now().UTC()}}
	require.NoError(t, sessions.Save(context.Background(), sess))

	resp, err := http.Get(srv.URL + "/api/session/" + sess.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON(t, resp)
	assert.Equal(t, sess.ID, body["session_id"])
	assert.Equal(t, float64(1), body["analysis_count"])
	assert.Equal(t, float64(1), body["chat_count"])
	latest := body["latest_analysis"].(map[string]any)
	assert.Equal(t, "scan.jpg", latest["filename"])
}

func TestSessionInfoNotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	resp, err := http.Get(srv.URL + "/api/session/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthcheck(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	resp, err := http.Get(srv.URL + "/api/healthcheck")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON(t, resp)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}
