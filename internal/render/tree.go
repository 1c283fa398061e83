package render

import (
	"sort"
	"strings"

	"github.com/temirov/ingest/internal/types"
)

// treeNode is one structural node of the rendered directory tree. Only
// directories holding at least one included file appear.
type treeNode struct {
	name        string
	isDirectory bool
	children    []*treeNode
}

type treeConnectors struct {
	middle string
	last   string
	bar    string
	blank  string
}

var unicodeConnectors = treeConnectors{middle: "├── ", last: "└── ", bar: "│   ", blank: "    "}
var asciiConnectors = treeConnectors{middle: "|-- ", last: "`-- ", bar: "|   ", blank: "    "}

// buildTree folds the included relative paths into a nested node structure.
// Intermediate directories are created on demand, so directories without
// included descendants never appear.
func buildTree(included []types.FileRecord) *treeNode {
	root := &treeNode{isDirectory: true}
	for _, record := range included {
		segments := strings.Split(record.RelativePath, "/")
		currentNode := root
		for segmentIndex, segment := range segments {
			isLeaf := segmentIndex == len(segments)-1
			childNode := currentNode.findChild(segment)
			if childNode == nil {
				childNode = &treeNode{name: segment, isDirectory: !isLeaf}
				currentNode.children = append(currentNode.children, childNode)
			}
			currentNode = childNode
		}
	}
	sortChildren(root)
	return root
}

func (node *treeNode) findChild(name string) *treeNode {
	for _, childNode := range node.children {
		if childNode.name == name {
			return childNode
		}
	}
	return nil
}

func sortChildren(node *treeNode) {
	sort.Slice(node.children, func(firstIndex, secondIndex int) bool {
		return node.children[firstIndex].name < node.children[secondIndex].name
	})
	for _, childNode := range node.children {
		sortChildren(childNode)
	}
}

// writeTree renders the node structure with branch connectors for the chosen
// charset. The root line shows rootName with a trailing slash.
func writeTree(builder *strings.Builder, rootName string, root *treeNode, charset string) {
	connectors := unicodeConnectors
	if charset == types.CharsetASCII {
		connectors = asciiConnectors
	}
	builder.WriteString(rootName + "/\n")
	writeTreeChildren(builder, root.children, "", connectors)
}

func writeTreeChildren(builder *strings.Builder, children []*treeNode, prefix string, connectors treeConnectors) {
	for childIndex, childNode := range children {
		isLastChild := childIndex == len(children)-1
		connector := connectors.middle
		nextPrefix := prefix + connectors.bar
		if isLastChild {
			connector = connectors.last
			nextPrefix = prefix + connectors.blank
		}
		displayName := childNode.name
		if childNode.isDirectory {
			displayName += "/"
		}
		builder.WriteString(prefix + connector + displayName + "\n")
		if childNode.isDirectory {
			writeTreeChildren(builder, childNode.children, nextPrefix, connectors)
		}
	}
}
