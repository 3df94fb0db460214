package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codehealer/autofix-engine/internal/autofix"
	"github.com/codehealer/autofix-engine/internal/controller"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubExecutor struct {
	stdout, stderr string
	err            error
}

func (s *stubExecutor) Run(ctx context.Context, source autofix.Source, language string, timeout time.Duration) (string, string, error) {
	return s.stdout, s.stderr, s.err
}

func TestHandleRun_ReturnsStdoutAndStderr(t *testing.T) {
	exec := &stubExecutor{stdout: "hello\n"}
	c := controller.New(exec, nil)
	s := New(exec, c, "", nil)

	body, _ := json.Marshal(RunRequest{Code: "package main\n"})
	req := httptest.NewRequest(http.MethodPost, "/run", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hello\n", resp.Stdout)
}

func TestHandleRun_RejectsEmptyBody(t *testing.T) {
	exec := &stubExecutor{}
	c := controller.New(exec, nil)
	s := New(exec, c, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/run", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRepair_ReturnsFinalStatus(t *testing.T) {
	exec := &stubExecutor{stdout: "ok\n"}
	c := controller.New(exec, nil)
	s := New(exec, c, "", nil)

	body, _ := json.Marshal(RepairRequest{Code: "package main\nfunc main(){}\n", Prompt: "fix it"})
	req := httptest.NewRequest(http.MethodPost, "/repair", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp RepairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, autofix.StatusSuccess, resp.FinalStatus)
}

func TestHandleRepair_RejectsMissingPrompt(t *testing.T) {
	exec := &stubExecutor{}
	c := controller.New(exec, nil)
	s := New(exec, c, "", nil)

	body, _ := json.Marshal(RepairRequest{Code: "package main\n"})
	req := httptest.NewRequest(http.MethodPost, "/repair", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoutes_RequireAuthWhenJWTKeyConfigured(t *testing.T) {
	exec := &stubExecutor{}
	c := controller.New(exec, nil)
	s := New(exec, c, "test-secret", nil)

	body, _ := json.Marshal(RunRequest{Code: "package main\n"})
	req := httptest.NewRequest(http.MethodPost, "/run", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMetricsEndpoint_IsReachableWithoutAuth(t *testing.T) {
	exec := &stubExecutor{}
	c := controller.New(exec, nil)
	s := New(exec, c, "test-secret", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
