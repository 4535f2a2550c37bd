package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
	"sort"
)

// FilesKey is the reserved key holding a node's own files in the persisted form.
const FilesKey = "__files__"

// Node is one segment of the category namespace.
//
// Persisted form: {"__files__": [...], "<child>": <node>, ...}. Older data
// stored a bare list of filenames in place of a node; those are upgraded to
// {Files: list, Children: {}} when decoded, so nothing past the decoder ever
// sees two shapes.
type Node struct {
	Files    []string
	Children map[string]*Node
}

// NewNode returns an empty canonical node.
func NewNode() *Node {
	return &Node{Files: []string{}, Children: map[string]*Node{}}
}

// Clone returns a deep copy of the node and all descendants.
func (n *Node) Clone() *Node {
	out := &Node{
		Files:    append(make([]string, 0, len(n.Files)), n.Files...),
		Children: make(map[string]*Node, len(n.Children)),
	}
	for name, child := range n.Children {
		out.Children[name] = child.Clone()
	}
	return out
}

// Lookup walks path segment by segment. ok is false as soon as a segment is missing.
func (n *Node) Lookup(path []string) (*Node, bool) {
	node := n
	for _, seg := range path {
		child, exists := node.Children[seg]
		if !exists {
			return nil, false
		}
		node = child
	}
	return node, true
}

// EnsurePath creates every missing segment as an empty node and returns the
// terminal node. Existing children are never replaced.
func (n *Node) EnsurePath(path []string) *Node {
	node := n
	for _, seg := range path {
		child, exists := node.Children[seg]
		if !exists {
			child = NewNode()
			node.Children[seg] = child
		}
		node = child
	}
	return node
}

// HasFile reports whether id is registered directly at this node.
func (n *Node) HasFile(id string) bool {
	return slices.Contains(n.Files, id)
}

// AddFile appends id unless already present. Returns true if it was added.
func (n *Node) AddFile(id string) bool {
	if n.HasFile(id) {
		return false
	}
	n.Files = append(n.Files, id)
	return true
}

// RemoveFile removes id from Files. Returns false if it was not present.
func (n *Node) RemoveFile(id string) bool {
	idx := slices.Index(n.Files, id)
	if idx < 0 {
		return false
	}
	n.Files = slices.Delete(n.Files, idx, idx+1)
	return true
}

// DeleteChild removes the terminal segment of path from its parent.
// The root itself cannot be deleted.
func (n *Node) DeleteChild(path []string) bool {
	if len(path) == 0 {
		return false
	}
	parent, ok := n.Lookup(path[:len(path)-1])
	if !ok {
		return false
	}
	last := path[len(path)-1]
	if _, exists := parent.Children[last]; !exists {
		return false
	}
	delete(parent.Children, last)
	return true
}

// CollectFiles gathers every file at this node and below, pre-order.
// Children are visited in name order so the result is stable.
func (n *Node) CollectFiles() []string {
	var out []string
	var walk func(*Node)
	walk = func(node *Node) {
		out = append(out, node.Files...)
		for _, name := range node.ChildNames() {
			walk(node.Children[name])
		}
	}
	walk(n)
	return out
}

// ChildNames returns the child segment names sorted.
func (n *Node) ChildNames() []string {
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON writes the canonical persisted form.
func (n *Node) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(n.Children)+1)
	files := n.Files
	if files == nil {
		files = []string{}
	}
	m[FilesKey] = files
	for name, child := range n.Children {
		m[name] = child
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts both the canonical and the legacy bare-list form.
func (n *Node) UnmarshalJSON(data []byte) error {
	var d decoder
	node, ok := d.decode(data, "")
	if !ok {
		return ErrNotContainer
	}
	*n = *node
	return nil
}

// ErrNotContainer is returned when a persisted tree root is neither an object nor a list.
var ErrNotContainer = errors.New("category node is not a container")

// DecodeStats counts the repairs DecodeTree made while reading a tree.
type DecodeStats struct {
	Upgraded int      // legacy file lists turned into nodes
	Dropped  []string // keys whose values were not containers
}

// DecodeTree parses a persisted tree. Keys holding scalars are dropped and
// reported in the stats; they do not survive the next save.
func DecodeTree(data []byte) (*Node, DecodeStats, error) {
	var d decoder
	node, ok := d.decode(data, "")
	if !ok {
		return nil, DecodeStats{}, ErrNotContainer
	}
	sort.Strings(d.stats.Dropped)
	return node, d.stats, nil
}

type decoder struct {
	stats DecodeStats
}

// decode returns ok=false for values that are not containers (strings,
// numbers, null, malformed JSON); callers drop those entries.
func (d *decoder) decode(raw []byte, at string) (*Node, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false
	}
	switch raw[0] {
	case '[':
		files, ok := decodeFiles(raw)
		if !ok {
			return nil, false
		}
		d.stats.Upgraded++
		return &Node{Files: files, Children: map[string]*Node{}}, true
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, false
		}
		node := NewNode()
		for key, value := range fields {
			if key == FilesKey {
				if files, ok := decodeFiles(value); ok {
					node.Files = files
				}
				continue
			}
			path := key
			if at != "" {
				path = at + "/" + key
			}
			child, ok := d.decode(value, path)
			if !ok {
				d.stats.Dropped = append(d.stats.Dropped, path)
				continue
			}
			node.Children[key] = child
		}
		return node, true
	default:
		return nil, false
	}
}

// decodeFiles keeps string entries of a JSON list in order.
func decodeFiles(raw []byte) ([]string, bool) {
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	files := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			files = append(files, s)
		}
	}
	return files, true
}
