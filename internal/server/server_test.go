package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kdange/portfolio/internal/api/dto/common"
	"github.com/kdange/portfolio/internal/api/dto/v1/chat"
	"github.com/kdange/portfolio/internal/api/dto/v1/contact"
	"github.com/kdange/portfolio/internal/config"
	"github.com/kdange/portfolio/internal/metrics"
	"github.com/kdange/portfolio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubMailer struct {
	mu   sync.Mutex
	sent []*service.Envelope
	err  error
}

func (m *stubMailer) Send(ctx context.Context, env *service.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, env)
	return nil
}

type stubCompletions struct {
	answer string
	err    error
}

func (s *stubCompletions) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: s.answer}}},
	}, nil
}

type testEnv struct {
	router *gin.Engine
	mailer *stubMailer
	quota  service.EmailQuota
}

type envOptions struct {
	completions service.CompletionClient
	adminToken  string
	// cfg replaces testConfig when set
	cfg *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Port:        "0",
		Mail: config.MailConfig{
			Username:      "owner@example.com",
			SubjectPrefix: "Portfolio Contact: ",
			Timeout:       time.Second,
		},
		Quota: config.QuotaConfig{MaxEmails: 50},
		LLM: config.LLMConfig{
			Model:     "gpt-3.5-turbo",
			MaxTokens: 500,
			Timeout:   time.Second,
		},
		HTTP: config.HTTPConfig{
			AllowedOrigins: []string{"*"},
			RateLimitRPS:   1000,
			RateLimitBurst: 1000,
		},
		Telemetry:           config.TelemetryConfig{MetricsEnabled: true},
		OutboundMaxInFlight: 4,
	}
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	cfg := opts.cfg
	if cfg == nil {
		cfg = testConfig()
		cfg.AdminToken = opts.adminToken
	}

	persona, err := service.LoadPersona("")
	require.NoError(t, err)

	m := metrics.New()
	mailer := &stubMailer{}
	quota := service.NewMemoryQuota(cfg.Quota.MaxEmails, 0)
	limiter := service.NewOutboundLimiter(cfg.OutboundMaxInFlight)

	svc := &Services{
		Contacts: service.NewContactService(service.ContactServiceOptions{
			Mailer:        mailer,
			Quota:         quota,
			Limiter:       limiter,
			Metrics:       m,
			Account:       cfg.Mail.Username,
			SubjectPrefix: cfg.Mail.SubjectPrefix,
			Timeout:       cfg.Mail.Timeout,
		}),
		Chats:   service.NewChatServiceWithClient(opts.completions, cfg.LLM, persona, limiter, m),
		Metrics: m,
	}

	router, err := NewRouter(cfg, svc)
	require.NoError(t, err)

	return &testEnv{router: router, mailer: mailer, quota: quota}
}

func (e *testEnv) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) used(t *testing.T) int64 {
	t.Helper()
	status, err := e.quota.Status(context.Background())
	require.NoError(t, err)
	return status.Used
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) common.APIResponse {
	t.Helper()
	var resp common.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

const examplePayload = `{"name":"A","email":"a@b.com","subject":"Hi","message":"Test"}`

func TestSendMessageSuccess(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(http.MethodPost, "/api/send-message", examplePayload)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, contact.MessageSent, resp.Message)
	assert.Equal(t, int64(1), env.used(t))

	require.Len(t, env.mailer.sent, 1)
	sent := env.mailer.sent[0]
	assert.Equal(t, "owner@example.com", sent.From)
	assert.Equal(t, "owner@example.com", sent.To)
	assert.Equal(t, "a@b.com", sent.ReplyTo)
	assert.Equal(t, "Portfolio Contact: Hi", sent.Subject)
	assert.Equal(t, "Name: A\nEmail: a@b.com\nSubject: Hi\n\nMessage:\nTest\n", sent.Body)
}

func TestSendMessageAtLimit(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	for i := 0; i < 50; i++ {
		res, err := env.quota.Reserve(context.Background())
		require.NoError(t, err)
		require.True(t, res.Granted)
	}

	rec := env.do(http.MethodPost, "/api/send-message", examplePayload)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	resp := decode(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, contact.MessageLimitReached, resp.Message)

	// The limit is reported before the body is validated
	rec = env.do(http.MethodPost, "/api/send-message", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	assert.Empty(t, env.mailer.sent)
	assert.Equal(t, int64(50), env.used(t))
}

func TestSendMessageValidation(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing field", `{"name":"A","email":"a@b.com","subject":"Hi"}`, contact.MessageMissingField},
		{"empty field", `{"name":"A","email":"a@b.com","subject":"","message":"Test"}`, contact.MessageMissingField},
		{"bad email", `{"name":"A","email":"not-an-email","subject":"Hi","message":"Test"}`, contact.MessageInvalidEmail},
		{"malformed body", `not json`, common.MessageInvalidBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/send-message", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decode(t, rec).Message)
		})
	}

	assert.Empty(t, env.mailer.sent)
	assert.Zero(t, env.used(t))
}

func TestSendMessageUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.mailer.err = errors.New("535 5.7.8 Username and Password not accepted")

	rec := env.do(http.MethodPost, "/api/send-message", examplePayload)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	resp := decode(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, contact.MessageSendFailed, resp.Message)
	assert.NotContains(t, rec.Body.String(), "535")
	assert.Zero(t, env.used(t))
}

func TestResetEmailCount(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	for i := 0; i < 50; i++ {
		_, _ = env.quota.Reserve(context.Background())
	}

	for i := 0; i < 2; i++ {
		rec := env.do(http.MethodPost, "/api/reset-email-count", "")
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode(t, rec)
		assert.True(t, resp.Success)
		assert.Equal(t, contact.MessageCountReset, resp.Message)
		assert.Zero(t, env.used(t))
	}

	rec := env.do(http.MethodPost, "/api/send-message", examplePayload)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), env.used(t))
}

// defaultConfig parses the environment with every gateway variable unset
func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	for _, key := range []string{
		"ENV", "MAIL_PROVIDER", "MAX_EMAILS_PER_DAY", "EMAIL_LIMIT_WINDOW", "REDIS_URL",
		"OPENAI_API_KEY", "ADMIN_TOKEN", "API_RATE_LIMIT_RPS", "API_RATE_LIMIT_BURST",
		"OUTBOUND_MAX_INFLIGHT", "PERSONA_FILE", "LOG_LEVEL", "LOG_FILE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	cfg, err := config.Parse()
	require.NoError(t, err)
	return cfg
}

func TestDefaultLimiterOnlyGuardsContactForm(t *testing.T) {
	env := newTestEnv(t, envOptions{cfg: defaultConfig(t)})

	for i := 0; i < 20; i++ {
		rec := env.do(http.MethodPost, "/api/reset-email-count", "")
		require.Equal(t, http.StatusOK, rec.Code, "reset %d", i)
		assert.Equal(t, contact.MessageCountReset, decode(t, rec).Message)
	}

	for i := 0; i < 20; i++ {
		rec := env.do(http.MethodPost, "/api/chat", `{"message":"hello"}`)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code, "chat %d", i)
		assert.Equal(t, chat.MessageUnavailable, decode(t, rec).Message)
	}

	// The contact form keeps its per-IP burst of 5
	var limited *httptest.ResponseRecorder
	for i := 0; i < 10; i++ {
		rec := env.do(http.MethodPost, "/api/send-message", examplePayload)
		if rec.Code == http.StatusTooManyRequests {
			limited = rec
			break
		}
		require.Equal(t, http.StatusOK, rec.Code, "send %d", i)
	}
	require.NotNil(t, limited)
	assert.Equal(t, common.MessageTooManyRequests, decode(t, limited).Message)

	rec := env.do(http.MethodPost, "/api/reset-email-count", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, env.used(t))
}

func TestResetEmailCountWithAdminToken(t *testing.T) {
	env := newTestEnv(t, envOptions{adminToken: "s3cret"})
	_, _ = env.quota.Reserve(context.Background())

	rec := env.do(http.MethodPost, "/api/reset-email-count", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, int64(1), env.used(t))

	rec = env.do(http.MethodPost, "/api/reset-email-count", "", "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, env.used(t))
}

func TestChatUnavailableWithoutKey(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(http.MethodPost, "/api/chat", `{"message":"hello"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decode(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, chat.MessageUnavailable, resp.Message)

	// Availability is checked before the body
	rec = env.do(http.MethodPost, "/api/chat", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestChatReply(t *testing.T) {
	env := newTestEnv(t, envOptions{completions: &stubCompletions{answer: "  I build web apps.  "}})

	rec := env.do(http.MethodPost, "/api/chat", `{"message":"What do you do?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "I build web apps.", resp.Message)

	rec = env.do(http.MethodPost, "/api/chat", `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, chat.MessageRequired, decode(t, rec).Message)
}

func TestChatProviderFailure(t *testing.T) {
	env := newTestEnv(t, envOptions{completions: &stubCompletions{err: errors.New("invalid api key sk-xxx")}})

	rec := env.do(http.MethodPost, "/api/chat", `{"message":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, chat.MessageFailed, decode(t, rec).Message)
	assert.NotContains(t, rec.Body.String(), "sk-xxx")
}

func TestIndexPage(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec := env.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "contact-form")
	assert.NotContains(t, rec.Body.String(), `id="chat"`)

	env = newTestEnv(t, envOptions{completions: &stubCompletions{answer: "hi"}})
	rec = env.do(http.MethodGet, "/", "")
	assert.Contains(t, rec.Body.String(), `id="chat"`)

	rec = env.do(http.MethodGet, "/static/app.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.do(http.MethodPost, "/api/send-message", examplePayload)

	rec := env.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			ChatEnabled bool `json:"chat_enabled"`
			EmailQuota  struct {
				Used  int64 `json:"used"`
				Limit int64 `json:"limit"`
			} `json:"email_quota"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.False(t, body.Data.ChatEnabled)
	assert.Equal(t, int64(1), body.Data.EmailQuota.Used)
	assert.Equal(t, int64(50), body.Data.EmailQuota.Limit)

	rec = env.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "portfolio_emails_sent_total 1")
}

func TestResponsesCarryRequestID(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec := env.do(http.MethodPost, "/api/reset-email-count", "", "X-Request-ID", "trace-me")
	assert.Equal(t, "trace-me", rec.Header().Get("X-Request-ID"))
}

func TestBuildServicesRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Mail.Provider = "resend"
	_, err := BuildServices(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Quota.RedisURL = "::not a url::"
	_, err = BuildServices(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.PersonaFile = "/nonexistent/persona.yaml"
	_, err = BuildServices(cfg)
	assert.Error(t, err)
}

func TestBuildServicesDefaults(t *testing.T) {
	svc, err := BuildServices(testConfig())
	require.NoError(t, err)
	defer svc.Close()

	assert.False(t, svc.Chats.Enabled())
	status, err := svc.Contacts.QuotaStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(50), status.Limit)
}

func TestServerStartStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	srv.httpServer.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
