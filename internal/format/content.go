package format

import (
	"errors"
	"runtime"
	"strings"

	"github.com/temirov/ingest/internal/fsnode"
)

const (
	// smallTreeThreshold selects the gather-and-join strategy.
	smallTreeThreshold = 10 * 1024 * 1024
	// mediumTreeThreshold selects the rolling-coalesce strategy.
	mediumTreeThreshold = 100 * 1024 * 1024
	// coalesceThreshold is the accumulated fragment size that triggers a
	// coalescing join in the medium tier.
	coalesceThreshold = 5 * 1024 * 1024
	// compactionInterval is the file count between buffer compactions in
	// the large tier.
	compactionInterval = 100

	blockJoiner = "\n"
)

// errStopVisit aborts a content walk early without reporting a failure.
var errStopVisit = errors.New("stop content visit")

// visitContentBlocks walks the tree depth-first in sorted child order,
// invoking visit once per non-directory node with its rendered content
// block. Each node's cache is cleared right after its block is handed over,
// so at most one file's content is live inside the walk at any time.
func visitContentBlocks(node *fsnode.FileSystemNode, visit func(block string) error) error {
	if node.Kind != fsnode.KindDirectory {
		block, blockError := node.ContentBlock()
		if blockError != nil {
			return blockError
		}
		node.ClearContentCache()
		return visit(block)
	}
	for _, child := range node.Children {
		if visitError := visitContentBlocks(child, visit); visitError != nil {
			return visitError
		}
	}
	return nil
}

// gatherContentString assembles every file block into one string with a
// strategy tiered by the tree's total size, bounding the number of live
// string fragments for large digests.
func gatherContentString(node *fsnode.FileSystemNode) (string, error) {
	if node.Size < smallTreeThreshold {
		return gatherSimple(node)
	}
	if node.Size < mediumTreeThreshold {
		return gatherCoalescing(node)
	}
	return gatherBuffered(node)
}

// gatherSimple collects every block and joins once. Suitable while the
// whole content comfortably fits in memory.
func gatherSimple(node *fsnode.FileSystemNode) (string, error) {
	var blocks []string
	visitError := visitContentBlocks(node, func(block string) error {
		blocks = append(blocks, block)
		return nil
	})
	if visitError != nil {
		return "", visitError
	}
	return strings.Join(blocks, blockJoiner), nil
}

// gatherCoalescing accumulates blocks and folds them into a single joined
// string whenever the accumulated size passes coalesceThreshold, keeping
// the live fragment count bounded.
func gatherCoalescing(node *fsnode.FileSystemNode) (string, error) {
	var fragments []string
	var accumulatedSize int

	visitError := visitContentBlocks(node, func(block string) error {
		fragments = append(fragments, block)
		accumulatedSize += len(block)
		if accumulatedSize >= coalesceThreshold {
			joined := strings.Join(fragments, blockJoiner)
			fragments = fragments[:0]
			fragments = append(fragments, joined)
			accumulatedSize = len(joined)
		}
		return nil
	})
	if visitError != nil {
		return "", visitError
	}
	return strings.Join(fragments, blockJoiner), nil
}

// gatherBuffered streams blocks into a single growable buffer, compacting
// it and forcing a collection pass every compactionInterval files to keep
// peak memory in check on very large digests.
func gatherBuffered(node *fsnode.FileSystemNode) (string, error) {
	var buffer strings.Builder
	fileIndex := 0

	visitError := visitContentBlocks(node, func(block string) error {
		buffer.WriteString(block)
		buffer.WriteString(blockJoiner)
		fileIndex++
		if fileIndex%compactionInterval == 0 {
			compacted := buffer.String()
			buffer = strings.Builder{}
			buffer.WriteString(compacted)
			runtime.GC()
		}
		return nil
	})
	if visitError != nil {
		return "", visitError
	}
	return buffer.String(), nil
}
