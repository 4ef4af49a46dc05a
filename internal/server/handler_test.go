package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-shopping-guide/server/internal/agent/graph/nodes"
	"github.com/Chative-shopping-guide/server/internal/core"
	errx "github.com/Chative-shopping-guide/server/internal/core/error"
)

type fakeRunner struct {
	handled  []string
	resetErr error
	resets   []string
}

func (f *fakeRunner) Handle(_ context.Context, sessionID, text string) string {
	f.handled = append(f.handled, sessionID+"|"+text)
	return "回复：" + text
}

func (f *fakeRunner) Reset(_ context.Context, sessionID string) error {
	f.resets = append(f.resets, sessionID)
	return f.resetErr
}

type fakeComparer struct{ names []string }

func (f *fakeComparer) Compare(_ context.Context, names []string) string {
	f.names = names
	return "| 商品 |"
}

func newTestRouter(runner *fakeRunner, cmp *fakeComparer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(core.Testing, NewChatHandler(runner, cmp, "table"))
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChat(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRouter(runner, &fakeComparer{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/chat", ChatRequest{SessionID: "s1", Message: "推荐口红"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "回复：推荐口红", resp.Reply)
	assert.Equal(t, []string{"s1|推荐口红"}, runner.handled)
}

func TestChatAssignsSessionID(t *testing.T) {
	r := newTestRouter(&fakeRunner{}, &fakeComparer{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/chat", ChatRequest{Message: "你好"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	_, err := uuid.Parse(resp.SessionID)
	assert.NoError(t, err)
}

func TestChatEmptyMessage(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRouter(runner, &fakeComparer{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/chat", ChatRequest{SessionID: "s1", Message: "   "})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, nodes.EmptyInputMessage, resp.Reply)
	assert.Empty(t, runner.handled)
}

func TestChatInvalidBody(t *testing.T) {
	r := newTestRouter(&fakeRunner{}, &fakeComparer{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearHistory(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRouter(runner, &fakeComparer{})

	w := doJSON(t, r, http.MethodDelete, "/api/v1/sessions/s42/history", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"s42"}, runner.resets)
}

func TestClearHistoryFailure(t *testing.T) {
	runner := &fakeRunner{resetErr: errx.WrapRedis(errors.New("connection refused"))}
	r := newTestRouter(runner, &fakeComparer{})

	w := doJSON(t, r, http.MethodDelete, "/api/v1/sessions/s1/history", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestCompare(t *testing.T) {
	cmp := &fakeComparer{}
	r := newTestRouter(&fakeRunner{}, cmp)

	w := doJSON(t, r, http.MethodPost, "/api/v1/compare", CompareRequest{Names: []string{"A", "B"}})
	require.Equal(t, http.StatusOK, w.Code)

	var resp CompareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "| 商品 |", resp.Result)
	assert.Equal(t, []string{"A", "B"}, cmp.names)

	w = doJSON(t, r, http.MethodPost, "/api/v1/compare", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&fakeRunner{}, &fakeComparer{})

	w := doJSON(t, r, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","catalog_backend":"table"}`, w.Body.String())
}
