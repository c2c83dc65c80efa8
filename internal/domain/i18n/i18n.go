// Package i18n holds the fixed phrases used for recommendation reasons,
// investor profiles and the opening question, in English and Traditional
// Chinese.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Lang is a supported phrasebook language.
type Lang string

const (
	English Lang = "en"
	Chinese Lang = "zh"
)

// DefaultLang is used when negotiation finds no acceptable match.
const DefaultLang = English

var (
	supported = []language.Tag{language.English, language.TraditionalChinese, language.Chinese} //nolint:gochecknoglobals // fixed table
	langs     = []Lang{English, Chinese, Chinese}                                               //nolint:gochecknoglobals // parallel to supported
	matcher   = language.NewMatcher(supported)                                                  //nolint:gochecknoglobals // immutable matcher
)

// Valid reports whether l has a phrasebook.
func (l Lang) Valid() bool {
	return l == English || l == Chinese
}

// String implements fmt.Stringer.
func (l Lang) String() string { return string(l) }

// Tag returns the BCP 47 tag for l.
func (l Lang) Tag() language.Tag {
	if l == Chinese {
		return language.TraditionalChinese
	}
	return language.English
}

// Negotiate resolves a language preference to a supported Lang. The input
// may be a bare code ("zh"), a regional tag ("zh-TW", "en-GB") or a full
// Accept-Language header. Unparseable or unsupported input yields fallback.
func Negotiate(pref string, fallback Lang) Lang {
	if !fallback.Valid() {
		fallback = DefaultLang
	}
	pref = strings.TrimSpace(pref)
	if pref == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(pref)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	return langs[idx]
}

// Phrasebook is the set of phrases for one language. Fields holding a %s verb
// take the band or dimension word from the matching map.
type Phrasebook struct {
	Lang            Lang
	Separator       string
	Fallback        string
	RiskFit         string
	HorizonFit      string
	ESGFit          string
	SDGFit          string
	RiskStyles      map[string]string
	Horizons        map[string]string
	ESGNames        map[string]string
	InvestorTypes   map[string]string
	Summary         string
	SDGExplanation  string
	OpeningQuestion string
}

var english = Phrasebook{ //nolint:gochecknoglobals // fixed table
	Lang:       English,
	Separator:  "; ",
	Fallback:   "has strong investment potential",
	RiskFit:    "matches your %s risk appetite",
	HorizonFit: "suits a %s investment plan",
	ESGFit:     "closely aligned with the %s issues you value",
	SDGFit:     "directly contributes to your prioritized sustainability goals",
	RiskStyles: map[string]string{
		"aggressive":           "aggressive",
		"balanced":             "balanced",
		"conservative-leaning": "conservative-leaning",
		"conservative":         "conservative",
	},
	Horizons: map[string]string{
		"long":   "long-term",
		"medium": "medium-term",
		"short":  "short-term",
	},
	ESGNames: map[string]string{
		"E": "environmental",
		"S": "social",
		"G": "governance",
	},
	InvestorTypes: map[string]string{
		"aggressive":           "Aggressive Investor",
		"balanced":             "Balanced Investor",
		"conservative-leaning": "Steady Investor",
		"conservative":         "Conservative Investor",
	},
	Summary:        "You are a %s with a %s investment outlook.",
	SDGExplanation: "These sustainable development goals closely match your values.",
	OpeningQuestion: "Hello! I'm the Sustainable Investment Assistant, and I'm delighted to help you " +
		"explore suitable investment directions. Before we begin, I'd like to understand your background. " +
		"Do you have any previous investment experience? Could you briefly share your investment history?",
}

var chinese = Phrasebook{ //nolint:gochecknoglobals // fixed table
	Lang:       Chinese,
	Separator:  "，",
	Fallback:   "具有良好的投資潛力",
	RiskFit:    "符合你的%s型風險偏好",
	HorizonFit: "適合%s投資規劃",
	ESGFit:     "與你重視的%s議題高度契合",
	SDGFit:     "直接貢獻你關注的永續發展目標",
	RiskStyles: map[string]string{
		"aggressive":           "積極",
		"balanced":             "平衡",
		"conservative-leaning": "穩健",
		"conservative":         "保守",
	},
	Horizons: map[string]string{
		"long":   "長期",
		"medium": "中期",
		"short":  "短期",
	},
	ESGNames: map[string]string{
		"E": "環境",
		"S": "社會",
		"G": "治理",
	},
	InvestorTypes: map[string]string{
		"aggressive":           "積極型投資人",
		"balanced":             "平衡型投資人",
		"conservative-leaning": "穩健型投資人",
		"conservative":         "保守型投資人",
	},
	Summary:         "你是一位%s，具有%s投資視野。",
	SDGExplanation:  "這些永續發展目標與你的價值觀高度契合",
	OpeningQuestion: "你好！我是永續投資助手，很高興能協助你探索適合的投資方向。在開始之前，我想先了解一下，你過去有投資經驗嗎？可以簡單分享一下你的投資背景嗎？",
}

// For returns the phrasebook for l, English for anything unsupported.
func For(l Lang) *Phrasebook {
	if l == Chinese {
		return &chinese
	}
	return &english
}

// OpeningQuestion returns the first question asked in a new session.
func OpeningQuestion(l Lang) string {
	return For(l).OpeningQuestion
}
