// Package extraction turns a conversation document into an AnalysisResult.
//
// The engine makes one pass over the conversation's message nodes. Each node
// goes through a set of small adapters, one per known source shape, and an
// adapter that finds nothing simply contributes nothing. Missing or oddly
// shaped fields are never an error here.
package extraction

import (
	"strings"

	"github.com/Ayash-Bera/webgpt-analyzer/internal/conversation"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

type Engine struct {
	opts   Options
	logger *logrus.Logger
}

func NewEngine(opts Options, logger *logrus.Logger) *Engine {
	if opts.UsedResultsScope == "" {
		opts.UsedResultsScope = ScopeAllTurns
	}
	if opts.MaxEmbeddedDepth < 0 {
		opts.MaxEmbeddedDepth = 0
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{opts: opts, logger: logger}
}

// Analyze extracts every record type from doc. A nil document yields an
// empty result.
func (e *Engine) Analyze(doc *conversation.Document) *models.AnalysisResult {
	if doc == nil {
		return models.NewAnalysisResult()
	}

	acc := newAccumulator()
	final, hasFinal := doc.FinalAssistantNode()

	for _, node := range doc.Nodes() {
		if !node.HasMessage() {
			continue
		}
		userMessage(acc, node)
		e.searchArtifacts(acc, node)
		thoughts(acc, node)
		turnSummary(acc, node)

		if node.Role() == "assistant" {
			inScope := e.opts.UsedResultsScope == ScopeAllTurns ||
				(hasFinal && node.ID == final.ID)
			e.references(acc, node, inScope)
		}
	}

	e.logger.WithFields(logrus.Fields{
		"queries":           len(acc.queries.items),
		"potential_results": len(acc.unused.items),
		"used_results":      len(acc.used.items),
		"user_messages":     len(acc.userMessages.items),
		"final_turn_ended":  hasFinal && final.EndTurn(),
		"scope":             e.opts.UsedResultsScope,
	}).Debug("Initial extraction finished")

	return e.finalize(acc)
}

// userMessage takes the first content part of a user node.
func userMessage(acc *accumulator, node conversation.Node) {
	if node.Role() != "user" {
		return
	}
	first := node.Content().Get("parts.0")
	if first.Type != gjson.String {
		return
	}
	acc.userMessages.add(strings.TrimSpace(first.String()))
}

// finalize applies the ordering-sensitive steps: enrich and settle used
// results, drop unused entries claimed as used, drop featured products, then
// order reasoning.
func (e *Engine) finalize(acc *accumulator) *models.AnalysisResult {
	result := models.NewAnalysisResult()
	result.UserMessages = acc.userMessages.items
	result.Queries = acc.queries.items
	result.AllQueries = acc.allQueries.items

	for _, r := range acc.used.items {
		if pooled, ok := acc.unused.get(NormalizeURL(r.URL)); ok {
			if r.Title == "" && pooled.Title != pooled.URL {
				r.Title = pooled.Title
			}
			if r.PubDate == "" {
				r.PubDate = pooled.PubDate
			}
			if r.Snippet == "" {
				r.Snippet = pooled.Snippet
			}
		}
		if r.Title == "" {
			r.Title = r.URL
		}
		result.ResultsUsed = append(result.ResultsUsed, r)
	}

	for _, r := range acc.unused.items {
		if acc.used.has(NormalizeURL(r.URL)) {
			continue
		}
		result.ResultsUnused = append(result.ResultsUnused, r)
	}

	for _, p := range acc.products {
		if p.FeaturedTag != "" {
			continue
		}
		result.ProductResults = append(result.ProductResults, p)
	}

	sortReasoning(acc.reasoning)
	result.ReasoningEntries = acc.reasoning

	e.logger.WithFields(logrus.Fields{
		"results_used":      len(result.ResultsUsed),
		"results_unused":    len(result.ResultsUnused),
		"products":          len(result.ProductResults),
		"featured_filtered": len(acc.products) - len(result.ProductResults),
		"reasoning":         len(result.ReasoningEntries),
	}).Debug("Extraction finalized")

	return result
}
