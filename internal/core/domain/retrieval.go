package domain

// Match is a single retrieved chunk with its partition provenance.
// PriorityBoost is an additive scalar applied before the final sort so
// in-stock hits can outrank catalog hits with similar raw scores.
type Match struct {
	ID            string         `json:"id"`
	Code          string         `json:"code"`
	Text          string         `json:"text"`
	Score         float64        `json:"score"`
	Source        Collection     `json:"source"`
	PriorityBoost float64        `json:"priority_boost,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

type Answer struct {
	Text    string  `json:"text"`
	Sources []Match `json:"sources"`
}
