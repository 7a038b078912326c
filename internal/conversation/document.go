// Package conversation wraps the ChatGPT conversation document, a graph of
// message nodes keyed by node ID, behind tolerant gjson accessors.
package conversation

import (
	"errors"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

var ErrInvalidJSON = errors.New("conversation document is not valid JSON")

// Result is re-exported so callers can work with node payloads without
// importing gjson themselves.
type Result = gjson.Result

// Document is a parsed conversation. Every accessor tolerates absent fields.
type Document struct {
	raw  []byte
	root gjson.Result

	indexOnce sync.Once
	byID      map[string]Node
	order     []string
}

// Parse checks JSON syntax only. Shape problems surface later as empty results.
func Parse(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	return &Document{raw: data, root: gjson.ParseBytes(data)}, nil
}

func (d *Document) Size() int { return len(d.raw) }

// ConversationID returns the document's own identifier, if it carries one.
func (d *Document) ConversationID() string {
	if id := d.root.Get("conversation_id").String(); id != "" {
		return id
	}
	return d.root.Get("id").String()
}

func (d *Document) Title() string {
	return d.root.Get("title").String()
}

func (d *Document) CurrentNodeID() string {
	return d.root.Get("current_node").String()
}

// Node is one entry of the mapping graph.
type Node struct {
	ID       string
	Parent   string
	Children []string
	Message  gjson.Result
}

func newNode(key string, v gjson.Result) Node {
	n := Node{
		ID:      key,
		Parent:  v.Get("parent").String(),
		Message: v.Get("message"),
	}
	if n.ID == "" {
		n.ID = v.Get("id").String()
	}
	v.Get("children").ForEach(func(_, child gjson.Result) bool {
		if id := child.String(); id != "" {
			n.Children = append(n.Children, id)
		}
		return true
	})
	return n
}

func (n Node) HasMessage() bool { return n.Message.IsObject() }

func (n Node) Role() string { return n.Message.Get("author.role").String() }

func (n Node) Content() gjson.Result { return n.Message.Get("content") }

func (n Node) ContentType() string { return n.Message.Get("content.content_type").String() }

func (n Node) Metadata() gjson.Result { return n.Message.Get("metadata") }

func (n Node) EndTurn() bool { return n.Message.Get("end_turn").Bool() }

// CreateTime reads message.create_time (fractional Unix seconds).
func (n Node) CreateTime() (time.Time, bool) {
	ct := n.Message.Get("create_time")
	if ct.Type != gjson.Number || ct.Float() <= 0 {
		return time.Time{}, false
	}
	sec := ct.Float()
	whole := int64(sec)
	nanos := int64((sec - float64(whole)) * float64(time.Second))
	return time.Unix(whole, nanos).UTC(), true
}
