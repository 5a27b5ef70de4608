package fieldusage

import (
	"context"
	"fmt"
	es "github.com/elastic/go-elasticsearch/v7"
	"github.com/tidwall/gjson"
	"io"
	"strings"
)

// type MappingNode is a single field in an index mapping. Object nodes (anything with a
// "properties" key) have children; every other node is a leaf.
type MappingNode struct {
	Name     string
	Path     []string
	object   bool
	children map[string]*MappingNode
	order    []string
}

// IsLeaf reports whether n is a leaf field.
func (n *MappingNode) IsLeaf() bool {
	return !n.object
}

// Children returns the child nodes of n in mapping order.
func (n *MappingNode) Children() []*MappingNode {

	nodes := make([]*MappingNode, len(n.order))

	for i, name := range n.order {
		nodes[i] = n.children[name]
	}

	return nodes
}

// type MappingTree is the nested field structure of an index, parsed from
// `<index>.mappings.properties`.
type MappingTree struct {
	root *MappingNode
}

// NewMappingTree returns a new *MappingTree for the "properties" object of an index mapping.
// Values that are not JSON objects are ignored and multi-field ("fields") definitions are not
// descended.
func NewMappingTree(properties gjson.Result) *MappingTree {

	root := newObjectNode("", nil)
	populateNode(root, properties)

	return &MappingTree{
		root: root,
	}
}

func newObjectNode(name string, path []string) *MappingNode {
	return &MappingNode{
		Name:     name,
		Path:     path,
		object:   true,
		children: make(map[string]*MappingNode),
		order:    make([]string, 0),
	}
}

func populateNode(parent *MappingNode, properties gjson.Result) {

	properties.ForEach(func(key gjson.Result, value gjson.Result) bool {

		if !value.IsObject() {
			return true
		}

		name := key.String()

		path := make([]string, len(parent.Path)+1)
		copy(path, parent.Path)
		path[len(parent.Path)] = name

		var node *MappingNode

		props := value.Get("properties")

		if props.Exists() {
			node = newObjectNode(name, path)
			populateNode(node, props)
		} else {
			node = &MappingNode{
				Name: name,
				Path: path,
			}
		}

		if _, exists := parent.children[name]; !exists {
			parent.order = append(parent.order, name)
		}

		parent.children[name] = node
		return true
	})
}

// Leaves returns the dotted path of every leaf in the tree, depth first in mapping order.
func (t *MappingTree) Leaves() []string {

	leaves := make([]string, 0)

	var walk func(*MappingNode)

	walk = func(n *MappingNode) {

		for _, child := range n.Children() {

			if child.IsLeaf() {
				leaves = append(leaves, strings.Join(child.Path, "."))
				continue
			}

			walk(child)
		}
	}

	walk(t.root)
	return leaves
}

// Lookup descends the tree along segments and returns the node it ends on.
func (t *MappingTree) Lookup(segments []string) (*MappingNode, bool) {

	if len(segments) == 0 {
		return nil, false
	}

	n := t.root

	for _, seg := range segments {

		if !n.object {
			return nil, false
		}

		child, ok := n.children[seg]

		if !ok {
			return nil, false
		}

		n = child
	}

	return n, true
}

// ParseMapping returns the *MappingTree for index from a get-mapping API response body. If the
// response does not contain index, or the index has no properties, the tree is empty.
func ParseMapping(body []byte, index string) (*MappingTree, error) {

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: mapping response for %s is not valid JSON", ErrResultNotExpected, index)
	}

	var properties gjson.Result

	// Index names may contain characters (".", "*", "?") that gjson treats as path syntax
	gjson.ParseBytes(body).ForEach(func(key gjson.Result, value gjson.Result) bool {

		if key.String() != index {
			return true
		}

		properties = value.Get("mappings.properties")
		return false
	})

	return NewMappingTree(properties), nil
}

// GetMapping fetches and parses the field mapping of index.
func GetMapping(ctx context.Context, es_client *es.Client, index string) (*MappingTree, error) {

	rsp, err := es_client.Indices.GetMapping(
		es_client.Indices.GetMapping.WithIndex(index),
		es_client.Indices.GetMapping.WithContext(ctx),
	)

	if err != nil {
		return nil, fmt.Errorf("%w: unable to get mapping for %s: %w", ErrResultNotExpected, index, err)
	}

	defer rsp.Body.Close()

	err = CheckResponse(rsp)

	if err != nil {
		return nil, fmt.Errorf("unable to get mapping for %s: %w", index, err)
	}

	body, err := io.ReadAll(rsp.Body)

	if err != nil {
		return nil, fmt.Errorf("%w: failed to read mapping for %s: %w", ErrResultNotExpected, index, err)
	}

	return ParseMapping(body, index)
}
