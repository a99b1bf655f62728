package types

// Candidate represents a single generated query candidate.
type Candidate struct {
	SQL       string  `json:"sql"`
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}
