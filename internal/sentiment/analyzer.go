// Package sentiment scores text polarity with the VADER lexicon, overlaid
// with a domain lexicon for Argentine political and economic vocabulary.
package sentiment

import (
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"github.com/jmoralesv/pulso/internal/models"
)

// Classification cutoffs on the compound score. These are fixed; tuning them
// would silently reclassify all stored history.
const (
	positiveThreshold = 0.05
	negativeThreshold = -0.05
)

// domainLexicon overrides the base VADER lexicon. Entity names are pinned to
// zero so surrounding context decides their polarity.
var domainLexicon = map[string]float64{
	// Positive terms
	"crecimiento": 2.0,
	"inversión":   1.5,
	"desarrollo":  1.8,
	"progreso":    2.0,
	"mejora":      1.5,
	"éxito":       2.2,

	// Negative terms
	"inflación":   -2.5,
	"crisis":      -2.8,
	"corrupción":  -3.0,
	"pobreza":     -2.5,
	"inseguridad": -2.3,
	"desempleo":   -2.4,
	"ajuste":      -1.8,
	"recesión":    -2.6,

	// Political figures and movements
	"milei":        0.0,
	"cristina":     0.0,
	"macri":        0.0,
	"massa":        0.0,
	"peronismo":    0.0,
	"kirchnerismo": 0.0,
}

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?://[^\s)]+)\)`)
	urlPattern          = regexp.MustCompile(`https?://\S+|www\.\S+`)
	mentionPattern      = regexp.MustCompile(`@\w+`)
	htmlTagPattern      = regexp.MustCompile(`<[^>]*>`)
)

// Result carries the scores for one text. Positive, Negative and Neutral are
// proportions summing to 1; Compound is the signed summary in [-1, 1].
type Result struct {
	Label      string  `json:"label"`
	Compound   float64 `json:"compound"`
	Positive   float64 `json:"positive"`
	Negative   float64 `json:"negative"`
	Neutral    float64 `json:"neutral"`
	Confidence float64 `json:"confidence"`
}

type Analyzer struct {
	vader *govader.SentimentIntensityAnalyzer
}

// NewAnalyzer builds the analyzer with the domain lexicon merged over the
// base lexicon. The merge happens once here, so overrides win by construction.
func NewAnalyzer() *Analyzer {
	vader := govader.NewSentimentIntensityAnalyzer()
	for term, valence := range domainLexicon {
		vader.Lexicon[term] = valence
	}
	return &Analyzer{vader: vader}
}

// Analyze scores a single text. It is a pure function of the input and the
// two lexicons: identical input yields identical output.
func (a *Analyzer) Analyze(text string) Result {
	clean := Preprocess(text)
	scores := a.vader.PolarityScores(clean)

	label := models.SentimentNeutral
	switch {
	case scores.Compound >= positiveThreshold:
		label = models.SentimentPositive
	case scores.Compound <= negativeThreshold:
		label = models.SentimentNegative
	}

	confidence := scores.Positive
	if scores.Negative > confidence {
		confidence = scores.Negative
	}
	if scores.Neutral > confidence {
		confidence = scores.Neutral
	}

	return Result{
		Label:      label,
		Compound:   scores.Compound,
		Positive:   scores.Positive,
		Negative:   scores.Negative,
		Neutral:    scores.Neutral,
		Confidence: confidence,
	}
}

// Preprocess strips URLs and @-mentions, drops hash marks while keeping the
// tagged word, collapses whitespace and lowercases.
func Preprocess(text string) string {
	text = markdownLinkPattern.ReplaceAllString(text, "$1")
	text = urlPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "#", "")
	text = strings.Join(strings.Fields(text), " ")
	return strings.ToLower(text)
}

// FlattenMarkdown renders Reddit markdown and collapses it to a single line
// of plain text, keeping link text but dropping tags and link targets.
func FlattenMarkdown(input string) string {
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plain := htmlTagPattern.ReplaceAllString(string(output), " ")
	plain = urlPattern.ReplaceAllString(plain, "")
	return strings.Join(strings.Fields(plain), " ")
}
