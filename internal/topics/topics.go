// Package topics tags text with known political subject keywords.
package topics

import "strings"

// Keyword-list order is the output order, so extracted tags are stable across
// runs regardless of where a keyword appears in the text.
var topicKeywords = []string{
	"economía", "inflación", "dólar", "peso",
	"milei", "cristina", "macri", "massa",
	"peronismo", "kirchnerismo", "libertarios",
	"educación", "salud", "seguridad", "trabajo",
	"corrupción", "justicia", "política",
	"congreso", "senado", "diputados",
	"provincias", "caba", "buenos aires",
}

// Extract returns the topic tags whose keyword appears anywhere in the text.
// Containment only, no stemming or frequency counting; a tag appears at most
// once per text.
func Extract(text string) []string {
	lower := strings.ToLower(text)

	var found []string
	for _, keyword := range topicKeywords {
		if strings.Contains(lower, keyword) {
			found = append(found, keyword)
		}
	}
	return found
}
