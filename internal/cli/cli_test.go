package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"optionflow/internal/config"
	apperrors "optionflow/internal/errors"
	"optionflow/internal/locale"
	"optionflow/internal/models"
	"optionflow/internal/performance"
	"optionflow/internal/pricing"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPTIONFLOW_LANG", "OPTIONFLOW_ADDR", "OPTIONFLOW_DB", "OPTIONFLOW_LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	app := NewApp(cfg, zerolog.Nop())
	t.Cleanup(func() { app.Close() })
	return app
}

func execute(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(app)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func mustExecute(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := execute(t, app, args...)
	if err != nil {
		t.Fatalf("%v failed: %v\n%s", args, err, out)
	}
	return out
}

func defaultResult(t *testing.T, app *App) models.PricingResult {
	t.Helper()
	r, err := pricing.Price(app.Config.Defaults.Params())
	if err != nil {
		t.Fatal(err)
	}
	return r
}

type fakeLLM struct {
	reply  string
	system string
	prompt string
}

func (f *fakeLLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.system, f.prompt = system, prompt
	return f.reply, nil
}

func TestVersion_JSON(t *testing.T) {
	app := newTestApp(t)

	var info map[string]string
	out := mustExecute(t, app, "version", "--json")
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if info["version"] != Version {
		t.Errorf("version = %q, want %q", info["version"], Version)
	}
}

func TestPrice_Table(t *testing.T) {
	app := newTestApp(t)
	want := defaultResult(t, app)

	out := mustExecute(t, app, "price")
	for _, s := range []string{"Call Price", FormatMoney(want.CallPrice), FormatMoney(want.PutPrice), "ATM", "Approx 120 Days"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
}

func TestPrice_FlagsOverrideDefaults(t *testing.T) {
	app := newTestApp(t)

	var view priceView
	out := mustExecute(t, app, "price", "--json", "--spot", "120", "--days", "365", "--vol", "0.2")
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if view.Params.Spot != 120 || view.Params.TimeToExpiry != 1 || view.Params.Volatility != 0.2 {
		t.Errorf("flags not applied: %+v", view.Params)
	}
	if view.Params.Strike != app.Config.Defaults.Strike {
		t.Errorf("strike should come from defaults, got %v", view.Params.Strike)
	}
	if view.Moneyness != models.InTheMoney {
		t.Errorf("moneyness = %s, want ITM", view.Moneyness)
	}
	want, _ := pricing.Price(view.Params)
	if view.Result != want {
		t.Errorf("result = %+v, want %+v", view.Result, want)
	}
}

func TestPrice_Invalid(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		args  []string
		field string
	}{
		{[]string{"price", "--spot", "-1"}, "spot"},
		{[]string{"price", "--strike", "0"}, "strike"},
		{[]string{"price", "--vol", "0"}, "volatility"},
		{[]string{"price", "--days", "-3"}, "time_to_expiry"},
		{[]string{"price", "--rate", "-1", "--years", "1000"}, "risk_free_rate"},
		{[]string{"decay", "--vol", "1e200"}, "volatility"},
		{[]string{"ladder", "--from", "90", "--to", "Inf", "--step", "5"}, "to"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, err := execute(t, app, tt.args...)
			var verr *apperrors.ValidationError
			if !apperrors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestPrice_Chinese(t *testing.T) {
	app := newTestApp(t)
	zh := locale.New(locale.Chinese)

	out := mustExecute(t, app, "price", "--lang", "zh")
	if !strings.Contains(out, zh.T(locale.CallPrice)) || !strings.Contains(out, zh.T(locale.GreeksTitle)) {
		t.Errorf("expected Chinese labels:\n%s", out)
	}
}

func TestPrice_UnknownFormat(t *testing.T) {
	app := newTestApp(t)

	if _, err := execute(t, app, "price", "--format", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestDecay_Formats(t *testing.T) {
	app := newTestApp(t)

	out := mustExecute(t, app, "decay", "--format", "csv")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header and 4 rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "label,days,call_start") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Month 1,30,") {
		t.Errorf("unexpected first row %q", lines[1])
	}

	var view struct {
		Rows []map[string]interface{} `yaml:"rows"`
	}
	out = mustExecute(t, app, "decay", "--format", "yaml")
	if err := yaml.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if len(view.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(view.Rows))
	}
	if view.Rows[3]["final"] != false || view.Rows[3]["label"] != "Month 4" {
		t.Errorf("unexpected last row: %v", view.Rows[3])
	}
}

func TestDecay_TableShowsPartialPeriod(t *testing.T) {
	app := newTestApp(t)

	out := mustExecute(t, app, "decay", "--days", "45")
	for _, s := range []string{"Call Decay", "Put Decay", "Month 1", "Final (15d)"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
}

func TestCurve(t *testing.T) {
	app := newTestApp(t)

	var view curveView
	out := mustExecute(t, app, "curve", "--mode", "price", "--json")
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if view.Mode != models.SweepPriceAction || len(view.Samples) != pricing.PriceSweepSteps+1 {
		t.Errorf("unexpected curve: mode=%s samples=%d", view.Mode, len(view.Samples))
	}

	out = mustExecute(t, app, "curve", "--every", "10")
	if !strings.Contains(out, "Time Decay") || !strings.Contains(out, "0.0") {
		t.Errorf("unexpected table:\n%s", out)
	}

	_, err := execute(t, app, "curve", "--mode", "sideways")
	var verr *apperrors.ValidationError
	if !apperrors.As(err, &verr) || verr.Field != "mode" {
		t.Errorf("expected mode validation error, got %v", err)
	}
}

func TestLadder(t *testing.T) {
	app := newTestApp(t)

	var view struct {
		Rows []performance.LadderRow `json:"rows"`
	}
	out := mustExecute(t, app, "ladder", "--from", "90", "--to", "110", "--step", "5", "--json")
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(view.Rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(view.Rows))
	}
	for i := 1; i < len(view.Rows); i++ {
		if view.Rows[i].Strike <= view.Rows[i-1].Strike {
			t.Errorf("rows out of order at %d", i)
		}
		if view.Rows[i].Result.CallPrice > view.Rows[i-1].Result.CallPrice {
			t.Errorf("call price should fall as strike rises")
		}
	}

	if _, err := execute(t, app, "ladder", "--from", "90", "--to", "110"); err == nil {
		t.Error("expected error when --step is missing")
	}
}

func TestScenarioLifecycle(t *testing.T) {
	app := newTestApp(t)

	mustExecute(t, app, "scenario", "save", "leaps", "--days", "730", "--vol", "0.3", "--notes", "two year call")

	var list []models.Scenario
	out := mustExecute(t, app, "scenario", "list", "--json")
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(list) != 1 || list[0].Name != "leaps" || list[0].Params.TimeToExpiry != 2 {
		t.Fatalf("unexpected scenarios: %+v", list)
	}

	var view priceView
	out = mustExecute(t, app, "price", "--scenario", "leaps", "--spot", "110", "--json")
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if view.Scenario != "leaps" || view.Params.Volatility != 0.3 || view.Params.Spot != 110 {
		t.Errorf("scenario not merged with flags: %+v", view)
	}

	var history []models.Evaluation
	out = mustExecute(t, app, "scenario", "history", "leaps", "--json")
	if err := json.Unmarshal([]byte(out), &history); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(history) != 1 || history[0].Result != view.Result {
		t.Errorf("expected one journaled evaluation, got %+v", history)
	}

	out = mustExecute(t, app, "scenario", "show", "leaps")
	if !strings.Contains(out, "[leaps]") || !strings.Contains(out, "two year call") {
		t.Errorf("unexpected show output:\n%s", out)
	}

	mustExecute(t, app, "scenario", "delete", "leaps")

	_, err := execute(t, app, "scenario", "show", "leaps")
	if !apperrors.Is(err, apperrors.ErrScenarioNotFound) {
		t.Errorf("expected ErrScenarioNotFound, got %v", err)
	}
	_, err = execute(t, app, "price", "--scenario", "leaps")
	if !apperrors.Is(err, apperrors.ErrScenarioNotFound) {
		t.Errorf("expected ErrScenarioNotFound, got %v", err)
	}
}

func TestScenarioSave_RejectsBadName(t *testing.T) {
	app := newTestApp(t)

	_, err := execute(t, app, "scenario", "save", "   ")
	if !apperrors.Is(err, apperrors.ErrInvalidParameter) {
		t.Errorf("expected invalid parameter error, got %v", err)
	}
}

func TestScenarioJournal_EveryEvaluation(t *testing.T) {
	app := newTestApp(t)
	app.LLMClient = &fakeLLM{reply: "- Verdict: hold."}

	mustExecute(t, app, "scenario", "save", "leaps", "--days", "730")

	runs := [][]string{
		{"decay", "--scenario", "leaps", "--json"},
		{"curve", "--scenario", "leaps", "--json"},
		{"ladder", "--scenario", "leaps", "--from", "90", "--to", "110", "--step", "10", "--json"},
		{"analyze", "--scenario", "leaps", "--json"},
	}
	for _, args := range runs {
		mustExecute(t, app, args...)
	}
	mustExecute(t, app, "decay", "--json")

	var history []models.Evaluation
	out := mustExecute(t, app, "scenario", "history", "leaps", "--json")
	if err := json.Unmarshal([]byte(out), &history); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(history) != len(runs) {
		t.Errorf("journal entries = %d, want %d", len(history), len(runs))
	}
}

func TestAnalyze_WithoutKey(t *testing.T) {
	app := newTestApp(t)

	_, err := execute(t, app, "analyze")
	if !apperrors.Is(err, apperrors.ErrAnalystUnavailable) {
		t.Errorf("expected ErrAnalystUnavailable, got %v", err)
	}
}

func TestAnalyze(t *testing.T) {
	app := newTestApp(t)
	llm := &fakeLLM{reply: "- Theta is eating **$0.05** a day.\n- Verdict: fair."}
	app.LLMClient = llm

	out := mustExecute(t, app, "analyze", "--lang", "zh", "--max-words", "80")
	if !strings.Contains(out, "Verdict: fair.") {
		t.Errorf("commentary missing from output:\n%s", out)
	}
	if llm.system != locale.New(locale.Chinese).T(locale.PromptContext) {
		t.Errorf("expected Chinese persona, got %q", llm.system)
	}
	if !strings.Contains(llm.prompt, "under 80 words") {
		t.Errorf("word limit not applied: %q", llm.prompt)
	}
}

func TestAnalyze_CompatibleEndpoint(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":0,"model":"local",
			"choices":[{"index":0,"message":{"role":"assistant","content":"- Local verdict."},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	cfg := newTestApp(t).Config
	cfg.Credentials.OpenAI.APIKey = "sk-local"
	cfg.Analyst.BaseURL = server.URL + "/v1"
	app := NewApp(cfg, zerolog.Nop())
	t.Cleanup(func() { app.Close() })

	out := mustExecute(t, app, "analyze")
	if !strings.Contains(out, "Local verdict.") {
		t.Errorf("commentary missing from output:\n%s", out)
	}
	if path != "/v1/chat/completions" {
		t.Errorf("request path = %q", path)
	}
}

func TestConfigShow_RedactsKey(t *testing.T) {
	app := newTestApp(t)
	app.Config.Credentials.OpenAI.APIKey = "sk-test-1234567890"

	out := mustExecute(t, app, "config", "show")
	if strings.Contains(out, "sk-test-1234567890") {
		t.Errorf("API key leaked:\n%s", out)
	}
	if !strings.Contains(out, "sk-...7890") {
		t.Errorf("expected redacted key:\n%s", out)
	}

	out = mustExecute(t, app, "config", "validate")
	if !strings.Contains(out, "valid") {
		t.Errorf("unexpected validate output: %s", out)
	}
}
