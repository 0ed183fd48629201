// internal/workers/drone/generate-specs/handler_test.go
package generatespecs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drone-configurator/internal/common/config"
	apperrors "drone-configurator/internal/common/errors"
	commonhttp "drone-configurator/internal/common/http"
	"drone-configurator/internal/common/logger"
	"drone-configurator/internal/models"
	"drone-configurator/internal/providers"
	"drone-configurator/internal/specgen"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:      5 * time.Second,
		MaxBodyBytes: 1 << 10,
	}
}

// newOfflinePipeline builds a pipeline whose providers have no credentials,
// so every request is answered by the fallback.
func newOfflinePipeline(t *testing.T) *specgen.Pipeline {
	t.Helper()
	log := logger.NewTestLogger(t)
	client := commonhttp.NewClient(time.Second)

	gateway, err := providers.NewGateway(log,
		providers.NewOpenAI(providers.Config{ID: "openai"}, client),
		providers.NewAnthropic(providers.Config{ID: "anthropic"}, client),
	)
	require.NoError(t, err)

	p, err := specgen.New(specgen.Options{Gateway: gateway, Logger: log})
	require.NoError(t, err)
	return p
}

// newCountingPipeline points a credentialed OpenAI provider at a stub that
// counts every call it receives.
func newCountingPipeline(t *testing.T, hits *int32) *specgen.Pipeline {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Build this."}}]}`))
	}))
	t.Cleanup(server.Close)

	log := logger.NewTestLogger(t)
	client := commonhttp.NewClient(time.Second)
	gateway, err := providers.NewGateway(log,
		providers.NewOpenAI(providers.Config{ID: "openai", APIKey: "sk-test", Endpoint: server.URL}, client),
		providers.NewAnthropic(providers.Config{ID: "anthropic", APIKey: "ak-test", Endpoint: server.URL}, client),
	)
	require.NoError(t, err)

	p, err := specgen.New(specgen.Options{Gateway: gateway, Logger: log})
	require.NoError(t, err)
	return p
}

func newTestHandler(t *testing.T, pipeline Pipeline) *Handler {
	t.Helper()
	return NewHandler(createTestConfig(), pipeline, nil, logger.NewTestLogger(t))
}

type response struct {
	Success  bool                   `json:"success"`
	Response string                 `json:"response"`
	Specs    map[string]interface{} `json:"specs"`
	Error    string                 `json:"error"`
}

func do(t *testing.T, h http.Handler, method, body string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest(method, Route, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

// ==========================
// HTTP Surface Tests
// ==========================

func TestServeHTTP_Success(t *testing.T) {
	h := newTestHandler(t, newOfflinePipeline(t)).Routes()

	rec, resp := do(t, h, http.MethodPost, `{"prompt":"I want a racing drone under $500","model":"openai"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(commonhttp.HeaderRequestID))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, strings.Count(resp.Response, "I want a racing drone under $500"))
	require.NotNil(t, resp.Specs)
	frame, ok := resp.Specs["frame"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, frame["type"])
}

func TestServeHTTP_CallerErrors(t *testing.T) {
	var hits int32
	h := newTestHandler(t, newCountingPipeline(t, &hits)).Routes()

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantError  string
	}{
		{"get", http.MethodGet, "", http.StatusMethodNotAllowed, "Method not allowed"},
		{"delete", http.MethodDelete, `{"prompt":"x"}`, http.StatusMethodNotAllowed, "Method not allowed"},
		{"missing prompt", http.MethodPost, `{"model":"anthropic"}`, http.StatusBadRequest, "Prompt is required"},
		{"empty prompt", http.MethodPost, `{"prompt":""}`, http.StatusBadRequest, "Prompt is required"},
		{"invalid json", http.MethodPost, `not json`, http.StatusBadRequest, "Prompt is required"},
		{"body too large", http.MethodPost, `{"prompt":"` + strings.Repeat("a", 2048) + `"}`, http.StatusBadRequest, "Prompt is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, h, tt.method, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantError, resp.Error)
			assert.Empty(t, resp.Response)
			assert.Nil(t, resp.Specs)
		})
	}

	assert.Zero(t, atomic.LoadInt32(&hits), "rejected requests never reach a provider")

	_, resp := do(t, h, http.MethodPost, `{"prompt":"quad"}`)
	assert.True(t, resp.Success)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestServeHTTP_MethodNotAllowedSetsAllow(t *testing.T) {
	h := newTestHandler(t, newOfflinePipeline(t)).Routes()

	rec, _ := do(t, h, http.MethodGet, "")

	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

// panickingPipeline simulates a handler-level bug outside the pipeline's
// own recovery.
type panickingPipeline struct{}

func (panickingPipeline) Handle(context.Context, string, []byte) *models.PipelineOutcome {
	panic("unexpected")
}

func (panickingPipeline) Generate(context.Context, models.BuildRequest) *models.PipelineOutcome {
	panic("unexpected")
}

func TestServeHTTP_PanicBecomesInternalFault(t *testing.T) {
	h := newTestHandler(t, panickingPipeline{}).Routes()

	rec, resp := do(t, h, http.MethodPost, `{"prompt":"quad"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, apperrors.MsgInternal, resp.Error)
}

// stubPipeline returns a fixed outcome.
type stubPipeline struct {
	outcome *models.PipelineOutcome
}

func (s stubPipeline) Handle(context.Context, string, []byte) *models.PipelineOutcome {
	return s.outcome
}

func (s stubPipeline) Generate(context.Context, models.BuildRequest) *models.PipelineOutcome {
	return s.outcome
}

func TestServeHTTP_InternalOutcome(t *testing.T) {
	h := newTestHandler(t, stubPipeline{outcome: specgen.AssembleInternalFault()}).Routes()

	rec, resp := do(t, h, http.MethodPost, `{"prompt":"quad"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to generate specifications", resp.Error)
}

// ==========================
// Job Execution Tests
// ==========================

func TestExecute_Success(t *testing.T) {
	h := newTestHandler(t, newOfflinePipeline(t))

	out, err := h.Execute(context.Background(), &Input{Prompt: "cinewhoop", Model: "anthropic"})

	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Contains(t, out.Response, "cinewhoop")
	assert.NotNil(t, out.Specs)
}

func TestExecute_EmptyPromptIsCallerError(t *testing.T) {
	h := newTestHandler(t, newOfflinePipeline(t))

	out, err := h.Execute(context.Background(), &Input{})

	assert.Nil(t, out)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodePromptRequired, apperrors.CodeOf(err))
	assert.True(t, apperrors.IsCallerError(apperrors.CodeOf(err)))
}

func TestExecute_InternalOutcome(t *testing.T) {
	h := newTestHandler(t, stubPipeline{outcome: specgen.AssembleInternalFault()})

	out, err := h.Execute(context.Background(), &Input{Prompt: "quad"})

	assert.Nil(t, out)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInternal, apperrors.CodeOf(err))
}

func TestOutput_Serialization(t *testing.T) {
	data, err := json.Marshal(Output{Success: true, Response: "text"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"response":"text"}`, string(data))

	data, err = json.Marshal(Output{Success: true, Response: "text", Specs: models.ExtractedSpec{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"response":"text","specs":{}}`, string(data))
}

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig(&config.Config{
		Server:  config.ServerConfig{MaxBodyBytes: 4096},
		Camunda: config.CamundaConfig{Timeout: 90000},
	})

	assert.Equal(t, int64(4096), cfg.MaxBodyBytes)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
}
