package conversation

func (d *Document) index() (map[string]Node, []string) {
	d.indexOnce.Do(func() {
		d.byID = make(map[string]Node)
		mapping := d.root.Get("mapping")
		if !mapping.IsObject() {
			return
		}
		mapping.ForEach(func(key, value Result) bool {
			if !value.IsObject() {
				return true
			}
			n := newNode(key.String(), value)
			if n.ID == "" {
				return true
			}
			if _, dup := d.byID[n.ID]; dup {
				return true
			}
			d.byID[n.ID] = n
			d.order = append(d.order, n.ID)
			return true
		})
	})
	return d.byID, d.order
}

// Nodes linearises the mapping in conversation order: depth-first from every
// root (no parent, or a parent missing from the mapping) following children
// order. Nodes not reachable from a root keep document order at the end.
func (d *Document) Nodes() []Node {
	byID, order := d.index()
	if len(order) == 0 {
		return nil
	}

	visited := make(map[string]bool, len(byID))
	nodes := make([]Node, 0, len(byID))

	walk := func(start string) {
		stack := []string{start}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[id] {
				continue
			}
			n, ok := byID[id]
			if !ok {
				continue
			}
			visited[id] = true
			nodes = append(nodes, n)
			for i := len(n.Children) - 1; i >= 0; i-- {
				if !visited[n.Children[i]] {
					stack = append(stack, n.Children[i])
				}
			}
		}
	}

	for _, id := range order {
		if _, hasParent := byID[byID[id].Parent]; !hasParent {
			walk(id)
		}
	}
	// cycles
	for _, id := range order {
		if !visited[id] {
			walk(id)
		}
	}

	return nodes
}

// Node looks up a single node by ID.
func (d *Document) Node(id string) (Node, bool) {
	byID, _ := d.index()
	n, ok := byID[id]
	return n, ok
}

// CurrentNode returns the node named by current_node.
func (d *Document) CurrentNode() (Node, bool) {
	return d.Node(d.CurrentNodeID())
}

// FinalAssistantNode walks from current_node towards the root and returns the
// first node holding an assistant message.
func (d *Document) FinalAssistantNode() (Node, bool) {
	seen := make(map[string]bool)
	id := d.CurrentNodeID()
	for id != "" && !seen[id] {
		seen[id] = true
		n, ok := d.Node(id)
		if !ok {
			return Node{}, false
		}
		if n.HasMessage() && n.Role() == "assistant" {
			return n, true
		}
		id = n.Parent
	}
	return Node{}, false
}
