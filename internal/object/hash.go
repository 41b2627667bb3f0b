package object

// ToHash projects the graph into a raw nested map. Fields keep their scalar
// values (repeated fields become []any), single children become nested maps
// and repeated children become []any of maps. With includeRoot the result
// is wrapped as {Name: body}; otherwise the node's own body is returned.
func (n *Node) ToHash(includeRoot bool) map[string]any {
	body := n.body()
	if includeRoot {
		return map[string]any{n.Name(): body}
	}

	return body
}

func (n *Node) body() map[string]any {
	out := make(map[string]any, len(n.values)+len(n.children))

	for k, v := range n.values {
		if list, ok := v.([]any); ok {
			out[k] = append([]any(nil), list...)

			continue
		}

		out[k] = v
	}

	for _, c := range n.typ.Children {
		list := n.children[c.Name]
		if len(list) == 0 {
			continue
		}

		if !c.Cardinality.IsRepeated() {
			out[c.Name] = list[0].body()

			continue
		}

		items := make([]any, 0, len(list))
		for _, child := range list {
			items = append(items, child.body())
		}

		out[c.Name] = items
	}

	return out
}
