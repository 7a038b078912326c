package extraction

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Ayash-Bera/webgpt-analyzer/internal/conversation"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/models"
	"github.com/tidwall/gjson"
)

const timestampLayout = "2006-01-02 15:04:05 UTC"

// thoughts reads discrete {summary, content} pairs from a thoughts node.
func thoughts(acc *accumulator, node conversation.Node) {
	if node.ContentType() != "thoughts" {
		return
	}
	entryTime := stamp(node)
	node.Content().Get("thoughts").ForEach(func(_, t gjson.Result) bool {
		summary := strings.TrimSpace(t.Get("summary").String())
		content := strings.TrimSpace(t.Get("content").String())
		if summary == "" && content == "" {
			return true
		}
		if summary == "" {
			summary = "Thought"
		}
		entry := entryTime
		entry.Label = summary
		entry.Content = content
		acc.reasoning = append(acc.reasoning, entry)
		return true
	})
}

// turnSummary reads the single free-text summary an assistant turn may carry.
func turnSummary(acc *accumulator, node conversation.Node) {
	if node.Role() != "assistant" {
		return
	}
	text := firstString(node.Metadata(), "turn_summary", "reasoning_summary")
	if text == "" && node.ContentType() == "reasoning_recap" {
		text = strings.TrimSpace(node.Content().Get("content").String())
	}
	if text == "" {
		return
	}
	acc.turnSummary++
	entry := stamp(node)
	entry.Label = fmt.Sprintf("Turn %d Summary", acc.turnSummary)
	entry.Content = text
	acc.reasoning = append(acc.reasoning, entry)
}

func stamp(node conversation.Node) models.ReasoningEntry {
	var entry models.ReasoningEntry
	if at, ok := node.CreateTime(); ok {
		entry.At = &at
		entry.Timestamp = at.Format(timestampLayout)
	}
	return entry
}

// sortReasoning orders entries by time when any entry has one. Untimed
// entries keep their encounter order after the timed ones.
func sortReasoning(entries []models.ReasoningEntry) {
	timed := false
	for _, e := range entries {
		if e.At != nil {
			timed = true
			break
		}
	}
	if !timed {
		return
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].At, entries[j].At
		if a == nil {
			return false
		}
		return b == nil || a.Before(*b)
	})
}
