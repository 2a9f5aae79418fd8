// Package schema defines the shared value types that flow through the
// retrieval and generation stages.
package schema

// StoredTextLimit is the maximum number of characters of example text kept in
// the similarity index payload; the full text is stored alongside it.
const StoredTextLimit = 1000

// Example is a labeled neighbor returned by the similarity index. It is
// immutable once constructed: the retrieval stage owns it, the generation
// stage only reads it.
type Example struct {
	// Text is the stored variant, truncated to StoredTextLimit characters.
	Text string `json:"text"`
	// FullText is the untruncated source text.
	FullText string `json:"full_text,omitempty"`
	// Label is the category identifier (small finite domain).
	Label int `json:"label"`
	// Category is the display name for Label.
	Category string `json:"category"`
	// Score is the cosine similarity in [0,1], usable for ranking.
	Score float64 `json:"score"`
}

// NewExample builds an Example from raw text, truncating the stored variant.
func NewExample(text string, label int, category string) Example {
	return Example{
		Text:     Truncate(text, StoredTextLimit),
		FullText: text,
		Label:    label,
		Category: category,
	}
}

// Truncate returns at most n characters of s. It counts runes, not bytes, so
// multi-byte text is never cut mid-character.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
