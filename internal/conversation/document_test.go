package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const branchedDoc = `{
  "conversation_id": "conv-1",
  "title": "Trip planning",
  "current_node": "a2",
  "mapping": {
    "a2": {"id": "a2", "parent": "u2", "children": [], "message": {"author": {"role": "assistant"}, "create_time": 1700000300.5, "content": {"content_type": "text", "parts": ["done"]}}},
    "root": {"id": "root", "parent": null, "children": ["u1"]},
    "u1": {"id": "u1", "parent": "root", "children": ["a1"], "message": {"author": {"role": "user"}, "content": {"content_type": "text", "parts": ["hi"]}}},
    "a1": {"id": "a1", "parent": "u1", "children": ["u2"], "message": {"author": {"role": "assistant"}, "content": {"content_type": "text", "parts": ["hello"]}}},
    "u2": {"id": "u2", "parent": "a1", "children": ["a2"], "message": {"author": {"role": "user"}, "content": {"content_type": "text", "parts": ["more"]}}},
    "orphan": {"id": "orphan", "parent": "gone", "children": []}
  }
}`

func ids(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"mapping": `))
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestDocument_Metadata(t *testing.T) {
	doc, err := Parse([]byte(branchedDoc))
	require.NoError(t, err)

	assert.Equal(t, "conv-1", doc.ConversationID())
	assert.Equal(t, "Trip planning", doc.Title())
	assert.Equal(t, "a2", doc.CurrentNodeID())
	assert.Equal(t, len(branchedDoc), doc.Size())

	current, ok := doc.CurrentNode()
	require.True(t, ok)
	assert.Equal(t, "u2", current.Parent)
	assert.False(t, current.EndTurn())
}

func TestDocument_NodesFollowConversationOrder(t *testing.T) {
	doc, err := Parse([]byte(branchedDoc))
	require.NoError(t, err)

	// the orphan's parent is missing, so it is treated as a root of its own
	assert.Equal(t, []string{"root", "u1", "a1", "u2", "a2", "orphan"}, ids(doc.Nodes()))
}

func TestDocument_NodesWithCycle(t *testing.T) {
	doc, err := Parse([]byte(`{"mapping": {
		"x": {"parent": "y", "children": ["y"]},
		"y": {"parent": "x", "children": ["x"]}
	}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y"}, ids(doc.Nodes()))
}

func TestDocument_NodesWithoutMapping(t *testing.T) {
	doc, err := Parse([]byte(`{"title": "empty"}`))
	require.NoError(t, err)

	assert.Empty(t, doc.Nodes())
	_, ok := doc.FinalAssistantNode()
	assert.False(t, ok)
}

func TestDocument_FinalAssistantNode(t *testing.T) {
	doc, err := Parse([]byte(`{
		"current_node": "tool",
		"mapping": {
			"a": {"parent": null, "children": ["tool"], "message": {"author": {"role": "assistant"}}},
			"tool": {"parent": "a", "children": [], "message": {"author": {"role": "tool", "name": "web.run"}}}
		}
	}`))
	require.NoError(t, err)

	n, ok := doc.FinalAssistantNode()
	require.True(t, ok)
	assert.Equal(t, "a", n.ID)
}

func TestNode_Accessors(t *testing.T) {
	doc, err := Parse([]byte(branchedDoc))
	require.NoError(t, err)

	n, ok := doc.Node("a2")
	require.True(t, ok)
	assert.True(t, n.HasMessage())
	assert.Equal(t, "assistant", n.Role())
	assert.Equal(t, "text", n.ContentType())

	at, ok := n.CreateTime()
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 11, 14, 22, 18, 20, 500000000, time.UTC), at)

	root, ok := doc.Node("root")
	require.True(t, ok)
	assert.False(t, root.HasMessage())
	_, ok = root.CreateTime()
	assert.False(t, ok)
}

func TestTryParseEmbedded(t *testing.T) {
	r, ok := TryParseEmbedded(` {"search_queries": [{"q": "x"}]} `)
	require.True(t, ok)
	assert.Equal(t, "x", r.Get("search_queries.0.q").String())

	_, ok = TryParseEmbedded("plain text answer")
	assert.False(t, ok)

	_, ok = TryParseEmbedded(`{"broken": `)
	assert.False(t, ok)

	_, ok = TryParseEmbedded("")
	assert.False(t, ok)
}
