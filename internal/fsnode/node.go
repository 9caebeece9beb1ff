// Package fsnode defines the in-memory tree built by a traversal: file,
// directory, and symlink nodes with aggregate counts and lazily resolved,
// explicitly clearable content.
package fsnode

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// NodeKind tags a FileSystemNode. Behavior that depends on the kind
// (content resolution, rendering, sorting) switches exhaustively on it.
type NodeKind int

const (
	// KindFile marks a regular file node.
	KindFile NodeKind = iota
	// KindDirectory marks a directory node; only directories carry children.
	KindDirectory
	// KindSymlink marks a symbolic link node. Targets are never dereferenced.
	KindSymlink
)

// String returns the upper-case kind label used in content block headers.
func (kind NodeKind) String() string {
	switch kind {
	case KindFile:
		return "FILE"
	case KindDirectory:
		return "DIRECTORY"
	case KindSymlink:
		return "SYMLINK"
	default:
		return "UNKNOWN"
	}
}

// separatorLine divides content blocks. Forty-eight characters keeps the
// divider at two tokens for the tokenizers used for estimation.
const separatorLine = "================================================"

// ErrDirectoryContent is returned when content is requested from a directory node.
var ErrDirectoryContent = errors.New("cannot read content of a directory node")

// FileSystemStats tracks global counters for one traversal run. A single
// instance is threaded by pointer through the whole recursive walk so the
// limits apply across the entire tree, never shared between requests.
type FileSystemStats struct {
	TotalFiles int
	TotalSize  int64
}

// FileSystemNode is one entry in the ingestion tree.
//
// Structural fields are written by the traversal engine while walking and
// read-only afterwards. The content cache is populated lazily on first read
// and may be cleared at any time without touching structure.
type FileSystemNode struct {
	Name         string
	Kind         NodeKind
	RelativePath string
	AbsolutePath string
	Size         int64
	FileCount    int
	DirCount     int
	Depth        int
	Children     []*FileSystemNode

	contentCache *string
}

// ClearContentCache discards cached content on this node and every
// descendant, freeing the memory held by file contents. Structural fields
// are unaffected and content is re-read from disk on the next access.
func (node *FileSystemNode) ClearContentCache() {
	node.contentCache = nil
	for _, child := range node.Children {
		child.ClearContentCache()
	}
}

// SortChildren orders a directory's children deterministically: README
// files first, then regular files, hidden files, regular directories, and
// hidden directories, each group sorted by lower-case name.
func (node *FileSystemNode) SortChildren() {
	sort.SliceStable(node.Children, func(leftIndex, rightIndex int) bool {
		leftGroup, leftName := sortKey(node.Children[leftIndex])
		rightGroup, rightName := sortKey(node.Children[rightIndex])
		if leftGroup != rightGroup {
			return leftGroup < rightGroup
		}
		return leftName < rightName
	})
}

// sortKey returns the ordering group and the lower-case tiebreak name.
// Groups: 0=README file, 1=regular file, 2=hidden file, 3=regular
// directory, 4=hidden directory. Symlinks sort with files.
func sortKey(node *FileSystemNode) (int, string) {
	loweredName := strings.ToLower(node.Name)
	if node.Kind != KindDirectory {
		if loweredName == "readme" || strings.HasPrefix(loweredName, "readme.") {
			return 0, loweredName
		}
		if strings.HasPrefix(loweredName, ".") {
			return 2, loweredName
		}
		return 1, loweredName
	}
	if strings.HasPrefix(loweredName, ".") {
		return 4, loweredName
	}
	return 3, loweredName
}

// SymlinkTargetName returns the base name of the symlink's target, or an
// empty string when the link cannot be read. The target itself is never
// followed.
func (node *FileSystemNode) SymlinkTargetName() string {
	targetPath, readLinkError := os.Readlink(node.AbsolutePath)
	if readLinkError != nil {
		return ""
	}
	return filepath.Base(targetPath)
}

// ContentBlock renders the node as a digest content block: a separator
// line, a kind-and-path header, another separator, the resolved content,
// and a trailing blank line.
func (node *FileSystemNode) ContentBlock() (string, error) {
	resolvedContent, contentError := node.Content()
	if contentError != nil {
		return "", contentError
	}

	header := node.Kind.String() + ": " + strings.ReplaceAll(node.RelativePath, string(os.PathSeparator), "/")
	if node.Kind == KindSymlink {
		header += " -> " + node.SymlinkTargetName()
	}

	blockParts := []string{separatorLine, header, separatorLine, resolvedContent}
	return strings.Join(blockParts, "\n") + "\n\n", nil
}
