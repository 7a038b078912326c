package extraction

import (
	"strings"

	"github.com/Ayash-Bera/webgpt-analyzer/internal/conversation"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/models"
	"github.com/tidwall/gjson"
)

// scanTree visits every object reachable from v. When an object carries
// content.text that parses as JSON, the parsed value is scanned as well, up to
// maxDepth levels of embedding.
func scanTree(v gjson.Result, depth, maxDepth int, visit func(obj gjson.Result)) {
	switch {
	case v.IsArray():
		v.ForEach(func(_, item gjson.Result) bool {
			scanTree(item, depth, maxDepth, visit)
			return true
		})
	case v.IsObject():
		visit(v)
		if depth < maxDepth {
			if text := v.Get("content.text"); text.Type == gjson.String {
				if embedded, ok := conversation.TryParseEmbedded(text.String()); ok {
					scanTree(embedded, depth+1, maxDepth, visit)
				}
			}
		}
		v.ForEach(func(_, child gjson.Result) bool {
			scanTree(child, depth, maxDepth, visit)
			return true
		})
	}
}

// searchArtifacts runs the search-related adapters over every object in the
// node's message, including JSON embedded in text content.
func (e *Engine) searchArtifacts(acc *accumulator, node conversation.Node) {
	scanTree(node.Message, 0, e.opts.MaxEmbeddedDepth, func(obj gjson.Result) {
		splitQueries(acc, obj)
		modelQueries(acc, obj)
		resultGroups(acc, obj)
	})
}

// splitQueries handles search_queries / search_query arrays of {q} objects,
// whose q may concatenate several questions.
func splitQueries(acc *accumulator, obj gjson.Result) {
	for _, key := range []string{"search_queries", "search_query"} {
		list := obj.Get(key)
		if !list.IsArray() {
			continue
		}
		list.ForEach(func(_, sq gjson.Result) bool {
			q := sq.Get("q")
			if q.Type != gjson.String {
				return true
			}
			if raw := strings.TrimSpace(q.String()); raw != "" {
				acc.allQueries.add(raw)
			}
			for _, part := range SplitQuery(q.String()) {
				acc.queries.add(part)
			}
			return true
		})
	}
}

// modelQueries handles search_model_queries, either {queries: [...]} or a bare
// list. These are already one query per entry and are not split.
func modelQueries(acc *accumulator, obj gjson.Result) {
	smq := obj.Get("search_model_queries")
	list := smq
	if smq.IsObject() {
		list = smq.Get("queries")
	}
	if !list.IsArray() {
		return
	}
	list.ForEach(func(_, item gjson.Result) bool {
		q := item.String()
		if item.IsObject() {
			q = item.Get("q").String()
		}
		if q = strings.TrimSpace(q); q != "" {
			acc.queries.add(q)
			acc.allQueries.add(q)
		}
		return true
	})
}

// resultGroups feeds search_result_groups[].entries[] into the unused pool.
func resultGroups(acc *accumulator, obj gjson.Result) {
	groups := obj.Get("search_result_groups")
	if !groups.IsArray() {
		return
	}
	groups.ForEach(func(_, group gjson.Result) bool {
		group.Get("entries").ForEach(func(_, entry gjson.Result) bool {
			if !entry.IsObject() {
				return true
			}
			if r, ok := searchResultFrom(entry); ok {
				if r.Title == "" {
					r.Title = r.URL
				}
				acc.unused.add(r)
			}
			return true
		})
		return true
	})
}

// searchResultFrom maps an entry or reference item onto a SearchResult. The
// title is left empty when absent so that callers can choose a fallback.
func searchResultFrom(item gjson.Result) (models.SearchResult, bool) {
	url := strings.TrimSpace(item.Get("url").String())
	if NormalizeURL(url) == "" {
		return models.SearchResult{}, false
	}
	return models.SearchResult{
		Title:   strings.TrimSpace(item.Get("title").String()),
		URL:     url,
		PubDate: pubDate(item.Get("pub_date")),
		Snippet: item.Get("snippet").String(),
	}, true
}
