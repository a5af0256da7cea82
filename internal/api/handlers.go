package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "optionflow/internal/errors"
	"optionflow/internal/locale"
	"optionflow/internal/logging"
	"optionflow/internal/models"
	"optionflow/internal/performance"
	"optionflow/internal/pricing"
	"optionflow/internal/resilience"
)

// paramsQuery holds the optional pricing inputs shared by every endpoint.
// Missing values fall back to the scenario, then to the server defaults.
type paramsQuery struct {
	Scenario string   `form:"scenario"`
	Spot     *float64 `form:"spot" binding:"omitempty,gt=0"`
	Strike   *float64 `form:"strike" binding:"omitempty,gt=0"`
	Days     *float64 `form:"days" binding:"omitempty,gte=0"`
	Years    *float64 `form:"years" binding:"omitempty,gte=0"`
	Rate     *float64 `form:"rate"`
	Vol      *float64 `form:"vol" binding:"omitempty,gte=0"`
}

type curveQuery struct {
	paramsQuery
	Mode string `form:"mode"`
}

type ladderQuery struct {
	paramsQuery
	From float64 `form:"from" binding:"required,gt=0"`
	To   float64 `form:"to" binding:"required,gt=0"`
	Step float64 `form:"step" binding:"required,gt=0"`
}

type analyzeQuery struct {
	paramsQuery
	Lang string `form:"lang" binding:"omitempty,oneof=en zh"`
}

type historyQuery struct {
	Limit int `form:"limit" binding:"omitempty,gte=1,lte=500"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// DecayResponse is the body of GET /v1/decay.
type DecayResponse struct {
	Result models.PricingResult      `json:"result"`
	Rows   []models.DecayScheduleRow `json:"rows"`
}

// CurveResponse is the body of GET /v1/curve.
type CurveResponse struct {
	Mode    models.SweepMode     `json:"mode"`
	Samples []models.CurveSample `json:"samples"`
}

// PriceResponse is the body of GET /v1/price.
type PriceResponse struct {
	Params    models.OptionParameters `json:"params"`
	Result    models.PricingResult    `json:"result"`
	Moneyness models.Moneyness        `json:"moneyness"`
}

// LadderResponse is the body of GET /v1/ladder.
type LadderResponse struct {
	Params models.OptionParameters  `json:"params"`
	Rows   []performance.LadderRow `json:"rows"`
}

func (s *Server) health(c *gin.Context) {
	body := gin.H{
		"status":  "ok",
		"version": s.opts.Version,
		"memory":  performance.MemoryStats(),
	}
	if s.pool != nil {
		body["pool"] = s.pool.Stats()
	}
	if s.opts.Analyst != nil && s.opts.Analyst.Breaker() != nil {
		body["analyst"] = s.opts.Analyst.Breaker().Stats()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) price(c *gin.Context) {
	var q paramsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.bindError(c, err)
		return
	}

	p, scenario, err := s.resolve(c, q)
	if err != nil {
		s.writeError(c, err)
		return
	}

	result, err := pricing.Price(p)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.journal(c, scenario, p, result)

	c.JSON(http.StatusOK, PriceResponse{
		Params:    p,
		Result:    result,
		Moneyness: pricing.Classify(p.Spot, p.Strike),
	})
}

func (s *Server) decay(c *gin.Context) {
	var q paramsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.bindError(c, err)
		return
	}

	p, scenario, err := s.resolve(c, q)
	if err != nil {
		s.writeError(c, err)
		return
	}

	result, err := pricing.Price(p)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.journal(c, scenario, p, result)
	rows, err := pricing.Schedule(p, result)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if rows == nil {
		rows = []models.DecayScheduleRow{}
	}

	c.JSON(http.StatusOK, DecayResponse{Result: result, Rows: rows})
}

func (s *Server) curve(c *gin.Context) {
	var q curveQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.bindError(c, err)
		return
	}

	mode := models.SweepTimeDecay
	if q.Mode != "" {
		parsed, ok := models.ParseSweepMode(q.Mode)
		if !ok {
			s.writeError(c, apperrors.NewValidationError("mode", q.Mode, "must be time or price"))
			return
		}
		mode = parsed
	}

	p, scenario, err := s.resolve(c, q.paramsQuery)
	if err != nil {
		s.writeError(c, err)
		return
	}

	samples, err := pricing.Sample(p, mode)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if result, err := pricing.Price(p); err == nil {
		s.journal(c, scenario, p, result)
	}

	c.JSON(http.StatusOK, CurveResponse{Mode: mode, Samples: samples})
}

func (s *Server) ladder(c *gin.Context) {
	if s.pool == nil {
		s.writeError(c, errors.New("ladder evaluation is not configured"))
		return
	}

	var q ladderQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.bindError(c, err)
		return
	}

	p, scenario, err := s.resolve(c, q.paramsQuery)
	if err != nil {
		s.writeError(c, err)
		return
	}

	strikes, err := performance.StrikeLadder(q.From, q.To, q.Step)
	if err != nil {
		s.writeError(c, err)
		return
	}

	rows, err := performance.EvaluateLadder(c.Request.Context(), s.pool, p, strikes)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if result, err := pricing.Price(p); err == nil {
		s.journal(c, scenario, p, result)
	}

	c.JSON(http.StatusOK, LadderResponse{Params: p, Rows: rows})
}

func (s *Server) analyze(c *gin.Context) {
	if s.opts.Analyst == nil {
		s.writeError(c, apperrors.NewAnalystError("analyze", apperrors.ErrAnalystUnavailable))
		return
	}

	var q analyzeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.bindError(c, err)
		return
	}

	p, scenario, err := s.resolve(c, q.paramsQuery)
	if err != nil {
		s.writeError(c, err)
		return
	}

	a := s.opts.Analyst
	if q.Lang != "" {
		a = a.WithTranslator(locale.New(locale.ParseLanguage(q.Lang)))
	}

	commentary, err := a.Explain(c.Request.Context(), p)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.journal(c, scenario, p, commentary.Result)
	c.JSON(http.StatusOK, commentary)
}

func (s *Server) listScenarios(c *gin.Context) {
	if s.store == nil {
		s.writeError(c, errors.New("scenario store is not configured"))
		return
	}

	scenarios, err := s.store.ListScenarios(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	if scenarios == nil {
		scenarios = []models.Scenario{}
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": scenarios})
}

func (s *Server) getScenario(c *gin.Context) {
	if s.store == nil {
		s.writeError(c, errors.New("scenario store is not configured"))
		return
	}

	sc, err := s.store.GetScenario(c.Request.Context(), c.Param("name"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sc)
}

func (s *Server) scenarioHistory(c *gin.Context) {
	if s.store == nil {
		s.writeError(c, errors.New("scenario store is not configured"))
		return
	}

	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.bindError(c, err)
		return
	}

	evals, err := s.store.GetEvaluations(c.Request.Context(), c.Param("name"), q.Limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if evals == nil {
		evals = []models.Evaluation{}
	}
	c.JSON(http.StatusOK, gin.H{"evaluations": evals})
}

// resolve merges scenario, defaults and query overrides into one parameter
// set. The returned name is the stored scenario name, or empty without one.
func (s *Server) resolve(c *gin.Context, q paramsQuery) (models.OptionParameters, string, error) {
	p := s.opts.Defaults

	var name string
	if q.Scenario != "" {
		if s.store == nil {
			return p, "", apperrors.NewValidationError("scenario", q.Scenario, "scenario store is not configured")
		}
		sc, err := s.store.GetScenario(c.Request.Context(), q.Scenario)
		if err != nil {
			return p, "", err
		}
		p = sc.Params
		name = sc.Name
	}

	if q.Spot != nil {
		p.Spot = *q.Spot
	}
	if q.Strike != nil {
		p.Strike = *q.Strike
	}
	if q.Years != nil {
		p.TimeToExpiry = *q.Years
	}
	if q.Days != nil {
		p.TimeToExpiry = *q.Days / pricing.DaysPerYear
	}
	if q.Rate != nil {
		p.RiskFreeRate = *q.Rate
	}
	if q.Vol != nil {
		p.Volatility = *q.Vol
	}

	return p, name, pricing.Validate(p)
}

// journal logs the evaluation and, for named scenarios, records it in the store.
func (s *Server) journal(c *gin.Context, scenario string, p models.OptionParameters, r models.PricingResult) {
	logging.LogEvaluation(s.logger, p, r)
	if s.store == nil || scenario == "" {
		return
	}
	eval := &models.Evaluation{Scenario: scenario, Params: p, Result: r}
	if err := s.store.LogEvaluation(c.Request.Context(), eval); err != nil {
		s.logger.Warn().Err(err).Str("scenario", scenario).Msg("Failed to journal evaluation")
	}
}

var queryFields = map[string]string{
	"Spot":   "spot",
	"Strike": "strike",
	"Days":   "days",
	"Years":  "years",
	"Rate":   "rate",
	"Vol":    "vol",
	"From":   "from",
	"To":     "to",
	"Step":   "step",
	"Limit":  "limit",
	"Lang":   "lang",
}

func (s *Server) bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field, ok := queryFields[fe.Field()]
		if !ok {
			field = strings.ToLower(fe.Field())
		}
		c.JSON(http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("invalid parameter: %s failed '%s' check", field, fe.Tag()),
			Field: field,
		})
		return
	}
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func (s *Server) writeError(c *gin.Context, err error) {
	var verr *apperrors.ValidationError
	switch {
	case apperrors.As(err, &verr):
		c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
	case apperrors.Is(err, apperrors.ErrInvalidParameter):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case apperrors.Is(err, apperrors.ErrScenarioNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case apperrors.Is(err, apperrors.ErrAnalystUnavailable),
		apperrors.Is(err, resilience.ErrCircuitOpen),
		apperrors.Is(err, resilience.ErrTooManyConcurrent):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case apperrors.As(err, new(*apperrors.AnalystError)):
		c.Error(err)
		c.JSON(http.StatusBadGateway, errorResponse{Error: "commentary service failed"})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
