package analyst

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "optionflow/internal/errors"
	"optionflow/internal/locale"
	"optionflow/internal/models"
	"optionflow/internal/pricing"
	"optionflow/internal/resilience"
)

type fakeClient struct {
	response string
	err      error
	system   string
	prompt   string
	calls    int
}

func (f *fakeClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.calls++
	f.system = system
	f.prompt = prompt
	return f.response, f.err
}

func defaultParams() models.OptionParameters {
	return models.OptionParameters{Spot: 100, Strike: 100, TimeToExpiry: 120.0 / 365.0, RiskFreeRate: 0.0365, Volatility: 0.25}
}

func TestBuildPrompt(t *testing.T) {
	p := defaultParams()
	r, err := pricing.Price(p)
	if err != nil {
		t.Fatal(err)
	}

	system, prompt := BuildPrompt(p, r, locale.New(locale.English), 150)
	if !strings.HasPrefix(system, "You are a senior derivatives trader.") {
		t.Errorf("unexpected persona: %q", system)
	}

	for _, want := range []string{
		"- Underlying Price: $100\n",
		"- Strike Price: $100\n",
		"- Time to Expiration: 120.0 days\n",
		"- Volatility (IV): 25.0%\n",
		"- Risk Free Rate: 3.6%\n",
		"- Call Delta: 0.56\n",
		"- Call Theta (Daily Decay): -0.029\n",
		"- Gamma: 0.0275\n",
		"Keep it under 150 words.",
		"Theta Burn",
		"Vega risk",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPrompt_LocalizedPersona(t *testing.T) {
	p := defaultParams()
	r, _ := pricing.Price(p)

	system, prompt := BuildPrompt(p, r, locale.New(locale.Chinese), 0)
	if !strings.Contains(system, "请用中文") {
		t.Errorf("expected Chinese persona, got %q", system)
	}
	if !strings.Contains(prompt, "Keep it under 150 words.") {
		t.Errorf("zero max words should fall back to the default")
	}
}

func TestExplain(t *testing.T) {
	client := &fakeClient{response: "  - ATM call\n- theta burn is moderate  "}
	a := New(client, locale.New(locale.English), WithMaxWords(80))

	c, err := a.Explain(context.Background(), defaultParams())
	if err != nil {
		t.Fatalf("Explain returned error: %v", err)
	}
	if client.calls != 1 {
		t.Errorf("expected one completion call, got %d", client.calls)
	}
	if c.Text != "- ATM call\n- theta burn is moderate" {
		t.Errorf("text not trimmed: %q", c.Text)
	}
	if c.Moneyness != models.AtTheMoney {
		t.Errorf("moneyness = %s, want ATM", c.Moneyness)
	}
	if !strings.Contains(client.prompt, "Keep it under 80 words.") {
		t.Errorf("max words option not applied")
	}
}

func TestExplain_EmptyResponse(t *testing.T) {
	a := New(&fakeClient{response: "   "}, nil)
	_, err := a.Explain(context.Background(), defaultParams())
	if !apperrors.Is(err, apperrors.ErrAnalystUnavailable) {
		t.Errorf("expected ErrAnalystUnavailable, got %v", err)
	}
}

func TestExplain_ClientError(t *testing.T) {
	boom := errors.New("rate limited")
	a := New(&fakeClient{err: boom}, nil)

	_, err := a.Explain(context.Background(), defaultParams())
	var aerr *apperrors.AnalystError
	if !apperrors.As(err, &aerr) || !errors.Is(err, boom) {
		t.Errorf("expected AnalystError wrapping client error, got %v", err)
	}
}

func TestExplain_NoClient(t *testing.T) {
	_, err := New(nil, nil).Explain(context.Background(), defaultParams())
	if !apperrors.Is(err, apperrors.ErrAnalystUnavailable) {
		t.Errorf("expected ErrAnalystUnavailable, got %v", err)
	}
}

func TestExplain_InvalidParameters(t *testing.T) {
	client := &fakeClient{response: "ok"}
	p := defaultParams()
	p.Volatility = 0

	_, err := New(client, nil).Explain(context.Background(), p)
	if !apperrors.Is(err, apperrors.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
	if client.calls != 0 {
		t.Errorf("invalid parameters should not reach the model")
	}
}

func TestExplain_BreakerOpensOnFailures(t *testing.T) {
	client := &fakeClient{err: errors.New("upstream 502")}
	cb := resilience.NewCircuitBreaker("analyst", resilience.CircuitBreakerConfig{FailureThreshold: 2, Timeout: time.Hour})
	a := New(client, nil, WithBreaker(cb))

	for i := 0; i < 2; i++ {
		if _, err := a.Explain(context.Background(), defaultParams()); err == nil {
			t.Fatal("expected client error")
		}
	}

	_, err := a.Explain(context.Background(), defaultParams())
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if client.calls != 2 {
		t.Errorf("open circuit should not reach the client, calls = %d", client.calls)
	}
	if a.Breaker() != cb {
		t.Error("Breaker() should return the configured breaker")
	}
}

func TestWithTranslator(t *testing.T) {
	client := &fakeClient{response: "ok"}
	en := New(client, locale.New(locale.English))
	zh := en.WithTranslator(locale.New(locale.Chinese))

	c, err := zh.Explain(context.Background(), defaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if c.Language != locale.Chinese || !strings.Contains(client.system, "请用中文") {
		t.Errorf("copy should answer in Chinese, got %s", c.Language)
	}

	c, _ = en.Explain(context.Background(), defaultParams())
	if c.Language != locale.English {
		t.Errorf("original analyst should keep English, got %s", c.Language)
	}
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":0,"model":"test-model",
			"choices":[{"index":0,"message":{"role":"assistant","content":"- ATM"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClientWithBaseURL("sk-test", "test-model", server.URL+"/v1")
	text, err := client.Complete(context.Background(), "persona", "prompt")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if text != "- ATM" {
		t.Errorf("text = %q", text)
	}
	if got.Model != "test-model" || len(got.Messages) != 2 {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.Messages[0].Role != "system" || got.Messages[1].Content != "prompt" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
}
