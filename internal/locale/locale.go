// Package locale holds the English and Chinese label catalogs used by the
// CLI and the analyst prompt. A Translator is passed explicitly to whatever
// renders text; nothing in the pricing packages depends on it.
package locale

import (
	"strconv"
	"strings"

	"optionflow/internal/models"
)

// Language identifies a label catalog.
type Language string

const (
	English Language = "en"
	Chinese Language = "zh"
)

// ParseLanguage maps a config value to a Language. Unknown values are English.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zh", "zh-cn", "cn", "chinese":
		return Chinese
	default:
		return English
	}
}

// Key names a translatable label.
type Key string

const (
	AppTitle    Key = "appTitle"
	AppSubtitle Key = "appSubtitle"
	CallPrice   Key = "callPrice"
	PutPrice    Key = "putPrice"
	SpotPrice   Key = "spotPrice"
	StrikePrice Key = "strikePrice"
	TimeToExp   Key = "timeToExp"
	Volatility  Key = "volatility"
	RiskFree    Key = "riskFreeRate"
	ApproxDays  Key = "approxDays"
	Settings    Key = "settings"

	GreeksTitle Key = "greeksTitle"
	DeltaCall   Key = "deltaCall"
	DeltaPut    Key = "deltaPut"
	Theta       Key = "theta"
	Gamma       Key = "gamma"
	Vega        Key = "vega"
	Rho         Key = "rho"
	DeltaDesc   Key = "deltaDesc"
	ThetaDesc   Key = "thetaDesc"
	GammaDesc   Key = "gammaDesc"
	VegaDesc    Key = "vegaDesc"
	Moneyness   Key = "moneyness"

	DecayTitle  Key = "decayTitle"
	DecayNote   Key = "decayNote"
	CallDecay   Key = "callDecay"
	PutDecay    Key = "putDecay"
	Period      Key = "period"
	StartVal    Key = "startVal"
	EndVal      Key = "endVal"
	LossAmt     Key = "lossAmt"
	CumLossPct  Key = "cumLossPct"
	LossPct     Key = "lossPct"
	MonthN      Key = "monthN"
	FinalPeriod Key = "finalPeriod"

	TimeDecayCurve   Key = "timeDecayCurve"
	PriceActionCurve Key = "priceActionCurve"
	DaysLeft         Key = "daysLeft"
	UnderlyingPrice  Key = "underlyingPrice"
	CallValue        Key = "callValue"
	PutValue         Key = "putValue"
	IntrinsicCall    Key = "intrinsicCall"
	IntrinsicPut     Key = "intrinsicPut"

	AITitle       Key = "aiTitle"
	AnalysisError Key = "error"
	PromptContext Key = "promptContext"
)

var catalogs = map[Language]map[Key]string{
	English: {
		AppTitle:    "OptionFlow",
		AppSubtitle: "Time Decay & Pricing Visualizer",
		CallPrice:   "Call Price",
		PutPrice:    "Put Price",
		SpotPrice:   "Spot Price ($)",
		StrikePrice: "Strike Price ($)",
		TimeToExp:   "Time (Years)",
		Volatility:  "Volatility (σ)",
		RiskFree:    "Risk-Free Rate (r)",
		ApproxDays:  "Approx {days} Days",
		Settings:    "Parameters",

		GreeksTitle: "Greeks & Analysis",
		DeltaCall:   "Delta (Call)",
		DeltaPut:    "Delta (Put)",
		Theta:       "Theta (Daily)",
		Gamma:       "Gamma",
		Vega:        "Vega",
		Rho:         "Rho",
		DeltaDesc:   "Price change / $1 move",
		ThetaDesc:   "Daily time decay",
		GammaDesc:   "Delta change rate",
		VegaDesc:    "Sens. to 1% Vol change",
		Moneyness:   "Moneyness",

		DecayTitle:  "Monthly Decay Schedule",
		DecayNote:   "Projected value loss per month assuming price and volatility remain constant.",
		CallDecay:   "Call Decay",
		PutDecay:    "Put Decay",
		Period:      "Period",
		StartVal:    "Start",
		EndVal:      "End",
		LossAmt:     "Loss $",
		CumLossPct:  "Total Loss %",
		LossPct:     "Period Loss %",
		MonthN:      "Month {n}",
		FinalPeriod: "Final ({days}d)",

		TimeDecayCurve:   "Time Decay (Theta Curve)",
		PriceActionCurve: "Price Simulation (Delta Curve)",
		DaysLeft:         "Days Left",
		UnderlyingPrice:  "Underlying Price ($)",
		CallValue:        "Call Value",
		PutValue:         "Put Value",
		IntrinsicCall:    "Call Intrinsic",
		IntrinsicPut:     "Put Intrinsic",

		AITitle:       "AI Risk Analyst",
		AnalysisError: "Analysis failed",
		PromptContext: "You are a senior derivatives trader. Analyze this option scenario concisely for a retail user in English. Explain the risks.",
	},
	Chinese: {
		AppTitle:    "OptionFlow 期权流",
		AppSubtitle: "时间价值衰减与定价可视化",
		CallPrice:   "看涨期权 (Call)",
		PutPrice:    "看跌期权 (Put)",
		SpotPrice:   "标的价格 ($)",
		StrikePrice: "行权价格 ($)",
		TimeToExp:   "到期时间 (年)",
		Volatility:  "波动率 (σ)",
		RiskFree:    "无风险利率 (r)",
		ApproxDays:  "约 {days} 天",
		Settings:    "参数设置",

		GreeksTitle: "希腊值与分析",
		DeltaCall:   "Delta (看涨)",
		DeltaPut:    "Delta (看跌)",
		Theta:       "Theta (日衰减)",
		Gamma:       "Gamma (伽马)",
		Vega:        "Vega (维加)",
		Rho:         "Rho (罗)",
		DeltaDesc:   "股价变动$1的价格变化",
		ThetaDesc:   "每日时间价值损耗",
		GammaDesc:   "Delta的变化速率",
		VegaDesc:    "波动率变动1%的敏感度",
		Moneyness:   "价值状态",

		DecayTitle:  "月度价值衰减明细",
		DecayNote:   "假设价格和波动率不变，预计每月的价值损耗。",
		CallDecay:   "看涨期权",
		PutDecay:    "看跌期权",
		Period:      "时间段",
		StartVal:    "期初值",
		EndVal:      "期末值",
		LossAmt:     "损耗额",
		CumLossPct:  "累计损耗%",
		LossPct:     "当期损耗率",
		MonthN:      "第 {n} 个月",
		FinalPeriod: "最后 {days} 天",

		TimeDecayCurve:   "时间衰减 (Theta 曲线)",
		PriceActionCurve: "价格模拟 (Delta 曲线)",
		DaysLeft:         "剩余天数",
		UnderlyingPrice:  "标的价格 ($)",
		CallValue:        "看涨价值",
		PutValue:         "看跌价值",
		IntrinsicCall:    "看涨内在价值",
		IntrinsicPut:     "看跌内在价值",

		AITitle:       "AI 风险分析师",
		AnalysisError: "分析失败",
		PromptContext: "你是一位资深衍生品交易员。请用中文为散户投资者简明扼要地分析此期权方案。解释风险。",
	},
}

// Translator resolves labels for one language.
type Translator struct {
	lang    Language
	catalog map[Key]string
}

// New returns a Translator for lang. Unknown languages get the English catalog.
func New(lang Language) *Translator {
	catalog, ok := catalogs[lang]
	if !ok {
		lang = English
		catalog = catalogs[English]
	}
	return &Translator{lang: lang, catalog: catalog}
}

// Language returns the catalog language in use.
func (t *Translator) Language() Language {
	return t.lang
}

// T returns the label for key. Keys missing from the catalog fall back to
// English, then to the key itself.
func (t *Translator) T(key Key) string {
	if s, ok := t.catalog[key]; ok {
		return s
	}
	if s, ok := catalogs[English][key]; ok {
		return s
	}
	return string(key)
}

// Format returns the label for key with {name} placeholders substituted from
// name/value pairs.
func (t *Translator) Format(key Key, pairs ...string) string {
	s := t.T(key)
	for i := 0; i+1 < len(pairs); i += 2 {
		s = strings.ReplaceAll(s, "{"+pairs[i]+"}", pairs[i+1])
	}
	return s
}

// Period renders a decay period label.
func (t *Translator) Period(label models.PeriodLabel) string {
	if label.Final {
		return t.Format(FinalPeriod, "days", strconv.Itoa(label.Days))
	}
	return t.Format(MonthN, "n", strconv.Itoa(label.Index))
}
