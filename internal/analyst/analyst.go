package analyst

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "optionflow/internal/errors"
	"optionflow/internal/locale"
	"optionflow/internal/models"
	"optionflow/internal/pricing"
	"optionflow/internal/resilience"
)

// Commentary is the output of one Explain call.
type Commentary struct {
	Params    models.OptionParameters `json:"params" yaml:"params"`
	Result    models.PricingResult    `json:"result" yaml:"result"`
	Moneyness models.Moneyness        `json:"moneyness" yaml:"moneyness"`
	Language  locale.Language         `json:"language" yaml:"language"`
	Text      string                  `json:"text" yaml:"text"`
	Duration  time.Duration           `json:"duration" yaml:"duration"`
}

// Analyst asks an LLM to explain a priced option to a retail user.
type Analyst struct {
	client     LLMClient
	translator *locale.Translator
	maxWords   int
	timeout    time.Duration
	breaker    *resilience.CircuitBreaker
	logger     zerolog.Logger
}

// Option configures an Analyst.
type Option func(*Analyst)

// WithMaxWords sets the commentary length limit.
func WithMaxWords(n int) Option {
	return func(a *Analyst) { a.maxWords = n }
}

// WithTimeout bounds each completion call.
func WithTimeout(d time.Duration) Option {
	return func(a *Analyst) { a.timeout = d }
}

// WithBreaker routes completion calls through cb.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(a *Analyst) { a.breaker = cb }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Analyst) { a.logger = logger }
}

// New creates an Analyst. A nil translator means English.
func New(client LLMClient, tr *locale.Translator, opts ...Option) *Analyst {
	if tr == nil {
		tr = locale.New(locale.English)
	}
	a := &Analyst{
		client:     client,
		translator: tr,
		maxWords:   DefaultMaxWords,
		timeout:    60 * time.Second,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// WithTranslator returns a copy of a that answers in tr's language. The
// client and breaker are shared with a.
func (a *Analyst) WithTranslator(tr *locale.Translator) *Analyst {
	clone := *a
	if tr != nil {
		clone.translator = tr
	}
	return &clone
}

// Breaker returns the circuit breaker guarding the client, if any.
func (a *Analyst) Breaker() *resilience.CircuitBreaker {
	return a.breaker
}

// Explain prices p and asks the model for commentary on the result.
func (a *Analyst) Explain(ctx context.Context, p models.OptionParameters) (*Commentary, error) {
	if a.client == nil {
		return nil, apperrors.NewAnalystError("explain", apperrors.ErrAnalystUnavailable)
	}

	result, err := pricing.Price(p)
	if err != nil {
		return nil, err
	}

	system, prompt := BuildPrompt(p, result, a.translator, a.maxWords)

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := a.complete(ctx, system, prompt)
	duration := time.Since(start)
	if err != nil {
		a.logger.Error().Err(err).Dur("duration", duration).Msg("Commentary request failed")
		return nil, apperrors.NewAnalystError("complete", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		a.logger.Warn().Dur("duration", duration).Msg("Commentary request returned no text")
		return nil, apperrors.NewAnalystError("complete", apperrors.ErrAnalystUnavailable)
	}

	a.logger.Debug().
		Str("language", string(a.translator.Language())).
		Int("chars", len(text)).
		Dur("duration", duration).
		Msg("Commentary generated")

	return &Commentary{
		Params:    p,
		Result:    result,
		Moneyness: pricing.Classify(p.Spot, p.Strike),
		Language:  a.translator.Language(),
		Text:      text,
		Duration:  duration,
	}, nil
}

func (a *Analyst) complete(ctx context.Context, system, prompt string) (string, error) {
	if a.breaker == nil {
		return a.client.Complete(ctx, system, prompt)
	}
	return resilience.Execute(ctx, a.breaker, func(ctx context.Context) (string, error) {
		return a.client.Complete(ctx, system, prompt)
	})
}
