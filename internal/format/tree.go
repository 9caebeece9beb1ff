package format

import (
	"strings"

	"github.com/temirov/ingest/internal/fsnode"
	"github.com/temirov/ingest/internal/types"
)

const (
	treeLastConnector   = "└── "
	treeBranchConnector = "├── "
	treeLastPadding     = "    "
	treeBranchPadding   = "│   "
	directorySuffix     = "/"
	symlinkArrow        = " -> "
)

// renderTree draws the visual directory tree for node. The root node takes
// the query slug as its display name when it has none.
func renderTree(node *fsnode.FileSystemNode, query *types.IngestionQuery) string {
	var rendered strings.Builder
	renderTreeNode(&rendered, node, query, "", true)
	return rendered.String()
}

func renderTreeNode(rendered *strings.Builder, node *fsnode.FileSystemNode, query *types.IngestionQuery, prefix string, isLast bool) {
	displayName := node.Name
	if displayName == "" {
		displayName = query.Slug
	}

	connector := treeLastConnector
	if !isLast {
		connector = treeBranchConnector
	}

	switch node.Kind {
	case fsnode.KindDirectory:
		displayName += directorySuffix
	case fsnode.KindSymlink:
		displayName += symlinkArrow + node.SymlinkTargetName()
	}

	rendered.WriteString(prefix + connector + displayName + "\n")

	if node.Kind == fsnode.KindDirectory && len(node.Children) > 0 {
		childPrefix := prefix + treeLastPadding
		if !isLast {
			childPrefix = prefix + treeBranchPadding
		}
		for childIndex, child := range node.Children {
			renderTreeNode(rendered, child, query, childPrefix, childIndex == len(node.Children)-1)
		}
	}
}
