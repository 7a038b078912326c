package models

import "time"

// AnalysisResult is the value handed to the renderer once per run.
type AnalysisResult struct {
	UserMessages     []string         `json:"userMessages"`
	Queries          []string         `json:"queries"`
	AllQueries       []string         `json:"allQueries"`
	ResultsUsed      []SearchResult   `json:"resultsUsed"`
	ResultsUnused    []SearchResult   `json:"resultsUnused"`
	ReasoningEntries []ReasoningEntry `json:"reasoningEntries"`
	ProductResults   []ProductResult  `json:"productResults"`
}

// NewAnalysisResult returns a result with every collection initialised so that
// it serialises as empty arrays rather than null.
func NewAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		UserMessages:     []string{},
		Queries:          []string{},
		AllQueries:       []string{},
		ResultsUsed:      []SearchResult{},
		ResultsUnused:    []SearchResult{},
		ReasoningEntries: []ReasoningEntry{},
		ProductResults:   []ProductResult{},
	}
}

type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	PubDate string `json:"pub_date"`
	Snippet string `json:"snippet"`
}

// ReasoningEntry is one captured thought or turn summary.
// At holds the parsed creation time used for ordering and is not serialised.
type ReasoningEntry struct {
	Label     string     `json:"label"`
	Content   string     `json:"content"`
	Timestamp string     `json:"timestamp,omitempty"`
	At        *time.Time `json:"-"`
}

type ProductResult struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Price       string   `json:"price"`
	Rating      string   `json:"rating"`
	NumReviews  string   `json:"num_reviews"`
	Merchants   []string `json:"merchants"`
	FeaturedTag string   `json:"featured_tag,omitempty"`
}

// Counts summarises the size of each collection for logs and the run log.
func (r *AnalysisResult) Counts() map[string]int {
	return map[string]int{
		"user_messages":  len(r.UserMessages),
		"queries":        len(r.Queries),
		"results_used":   len(r.ResultsUsed),
		"results_unused": len(r.ResultsUnused),
		"reasoning":      len(r.ReasoningEntries),
		"products":       len(r.ProductResults),
	}
}
