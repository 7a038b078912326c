package extraction

import (
	"fmt"
	"strings"
)

// UsedResultsScope selects which assistant turns contribute used results.
type UsedResultsScope string

const (
	// ScopeAllTurns unions citations from every assistant turn.
	ScopeAllTurns UsedResultsScope = "all_turns"
	// ScopeFinalTurn only reads the terminal assistant turn.
	ScopeFinalTurn UsedResultsScope = "final_turn"
)

func ParseUsedResultsScope(s string) (UsedResultsScope, error) {
	switch UsedResultsScope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeAllTurns:
		return ScopeAllTurns, nil
	case ScopeFinalTurn:
		return ScopeFinalTurn, nil
	default:
		return "", fmt.Errorf("unknown used results scope %q (want %s or %s)", s, ScopeAllTurns, ScopeFinalTurn)
	}
}

type Options struct {
	UsedResultsScope UsedResultsScope
	// MaxEmbeddedDepth bounds how many levels of JSON-in-text are re-parsed.
	MaxEmbeddedDepth int
}

func DefaultOptions() Options {
	return Options{
		UsedResultsScope: ScopeAllTurns,
		MaxEmbeddedDepth: 4,
	}
}
