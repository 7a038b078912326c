package extraction

import "github.com/Ayash-Bera/webgpt-analyzer/internal/models"

// stringSet keeps insertion order and drops duplicates.
type stringSet struct {
	seen  map[string]struct{}
	items []string
}

func newStringSet() *stringSet {
	return &stringSet{seen: make(map[string]struct{}), items: []string{}}
}

func (s *stringSet) add(v string) bool {
	if v == "" {
		return false
	}
	if _, ok := s.seen[v]; ok {
		return false
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

func (s *stringSet) has(v string) bool {
	_, ok := s.seen[v]
	return ok
}

// resultSet holds search results keyed by normalised URL; first occurrence wins.
type resultSet struct {
	index map[string]int
	items []models.SearchResult
}

func newResultSet() *resultSet {
	return &resultSet{index: make(map[string]int), items: []models.SearchResult{}}
}

func (s *resultSet) add(r models.SearchResult) bool {
	key := NormalizeURL(r.URL)
	if key == "" {
		return false
	}
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = len(s.items)
	s.items = append(s.items, r)
	return true
}

func (s *resultSet) get(key string) (models.SearchResult, bool) {
	i, ok := s.index[key]
	if !ok {
		return models.SearchResult{}, false
	}
	return s.items[i], true
}

func (s *resultSet) has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// accumulator is the traversal context threaded through every adapter for one
// Analyze call. Nothing in it outlives the call.
type accumulator struct {
	userMessages *stringSet
	queries      *stringSet
	allQueries   *stringSet
	used         *resultSet
	unused       *resultSet
	reasoning    []models.ReasoningEntry
	products     []models.ProductResult
	productIDs   *stringSet
	synthesized  *stringSet
	turnSummary  int
}

func newAccumulator() *accumulator {
	return &accumulator{
		userMessages: newStringSet(),
		queries:      newStringSet(),
		allQueries:   newStringSet(),
		used:         newResultSet(),
		unused:       newResultSet(),
		reasoning:    []models.ReasoningEntry{},
		products:     []models.ProductResult{},
		productIDs:   newStringSet(),
		synthesized:  newStringSet(),
	}
}
