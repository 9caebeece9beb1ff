// Package traversal implements the bounded depth-first walker that builds a
// filesystem node tree under hard resource limits.
package traversal

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/ingest/internal/config"
	"github.com/temirov/ingest/internal/fsnode"
	"github.com/temirov/ingest/internal/patterns"
	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

const (
	// cacheEvictionInterval triggers sibling cache eviction after every
	// N-th file attached globally.
	cacheEvictionInterval = 100
	// cachedSiblingRetention is the number of most recently attached file
	// siblings whose cached content survives an eviction pass.
	cachedSiblingRetention = 10
)

// Traverser walks directories for one ingestion request. Limit violations
// and unreadable entries are diagnostics, not failures: the walk skips them
// and keeps going, so a truncated digest is still a valid digest.
type Traverser struct {
	Logger *zap.Logger
}

// NewTraverser constructs a Traverser. A nil logger is replaced with a
// no-op logger so diagnostics never panic.
func NewTraverser(logger *zap.Logger) *Traverser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Traverser{Logger: logger}
}

// ProcessNode expands the directory node depth-first, mutating node and
// stats in place. Children are filtered through the pattern sets, bounded
// by the global limits, and sorted deterministically once the directory has
// been fully scanned.
func (traverser *Traverser) ProcessNode(node *fsnode.FileSystemNode, query *types.IngestionQuery, stats *fsnode.FileSystemStats) {
	if traverser.limitExceeded(stats, node.Depth) {
		return
	}

	directoryEntries, readDirectoryError := os.ReadDir(node.AbsolutePath)
	if readDirectoryError != nil {
		traverser.Logger.Warn("skipping unreadable directory",
			zap.String("path", node.AbsolutePath),
			zap.Error(readDirectoryError))
		return
	}

	for _, directoryEntry := range directoryEntries {
		entryPath := filepath.Join(node.AbsolutePath, directoryEntry.Name())

		if len(query.IgnorePatterns) > 0 && patterns.ShouldExclude(entryPath, query.LocalPath, query.IgnorePatterns) {
			continue
		}

		// Include filtering applies to leaf entries only; directories are
		// always descended so nested matches can be found, and directories
		// that end up empty are discarded below. A symlink whose target is a
		// directory is admitted like a directory even though it stays a leaf.
		isLeafEntry := !directoryEntry.IsDir()
		if isLeafEntry && directoryEntry.Type()&os.ModeSymlink != 0 {
			if targetInfo, targetStatError := os.Stat(entryPath); targetStatError == nil && targetInfo.IsDir() {
				isLeafEntry = false
			}
		}
		if isLeafEntry && len(query.IncludePatterns) > 0 &&
			!patterns.ShouldInclude(entryPath, query.LocalPath, query.IncludePatterns) {
			continue
		}

		switch {
		case directoryEntry.Type()&os.ModeSymlink != 0:
			traverser.processSymlink(entryPath, node, query, stats)
		case directoryEntry.Type().IsRegular():
			traverser.processFile(entryPath, node, query, stats)
		case directoryEntry.IsDir():
			childDirectoryNode := &fsnode.FileSystemNode{
				Name:         directoryEntry.Name(),
				Kind:         fsnode.KindDirectory,
				RelativePath: utils.RelativePathOrSelf(entryPath, query.LocalPath),
				AbsolutePath: entryPath,
				Depth:        node.Depth + 1,
			}

			traverser.ProcessNode(childDirectoryNode, query, stats)

			if len(childDirectoryNode.Children) == 0 {
				continue
			}

			node.Children = append(node.Children, childDirectoryNode)
			node.Size += childDirectoryNode.Size
			node.FileCount += childDirectoryNode.FileCount
			node.DirCount += 1 + childDirectoryNode.DirCount
		default:
			traverser.Logger.Warn("skipping entry of unknown type",
				zap.String("path", entryPath))
		}
	}

	node.SortChildren()
}

// processSymlink records path as a leaf symlink node. The target is not
// dereferenced, so symlink cycles terminate by construction; the node
// counts as a file but contributes no size.
func (traverser *Traverser) processSymlink(path string, parentNode *fsnode.FileSystemNode, query *types.IngestionQuery, stats *fsnode.FileSystemStats) {
	symlinkNode := &fsnode.FileSystemNode{
		Name:         filepath.Base(path),
		Kind:         fsnode.KindSymlink,
		RelativePath: utils.RelativePathOrSelf(path, query.LocalPath),
		AbsolutePath: path,
		Depth:        parentNode.Depth + 1,
	}
	stats.TotalFiles++
	parentNode.Children = append(parentNode.Children, symlinkNode)
	parentNode.FileCount++
}

// processFile validates the file against every size and count limit before
// attaching it to the parent and folding its size into the aggregates.
func (traverser *Traverser) processFile(path string, parentNode *fsnode.FileSystemNode, query *types.IngestionQuery, stats *fsnode.FileSystemStats) {
	if stats.TotalFiles+1 > config.MaxFiles {
		traverser.Logger.Warn("maximum file limit reached",
			zap.Int("limit", config.MaxFiles))
		return
	}

	fileInfo, statError := os.Stat(path)
	if statError != nil {
		traverser.Logger.Warn("skipping unreadable file",
			zap.String("path", path),
			zap.Error(statError))
		return
	}
	fileSize := fileInfo.Size()

	if fileSize > query.MaxFileSize {
		traverser.Logger.Warn("skipping file over per-file size limit",
			zap.String("path", path),
			zap.String("size", utils.FormatFileSize(fileSize)))
		return
	}
	if stats.TotalSize+fileSize > config.MaxTotalSizeBytes {
		traverser.Logger.Warn("skipping file that would exceed total size limit",
			zap.String("path", path),
			zap.String("size", utils.FormatFileSize(fileSize)))
		return
	}
	if fileSize > config.MaxTotalSizeBytes/config.OversizedFileDivisor {
		traverser.Logger.Warn("skipping file too large for memory-efficient processing",
			zap.String("path", path),
			zap.String("size", utils.FormatFileSize(fileSize)))
		return
	}

	stats.TotalFiles++
	stats.TotalSize += fileSize

	fileNode := &fsnode.FileSystemNode{
		Name:         filepath.Base(path),
		Kind:         fsnode.KindFile,
		RelativePath: utils.RelativePathOrSelf(path, query.LocalPath),
		AbsolutePath: path,
		Size:         fileSize,
		FileCount:    1,
		Depth:        parentNode.Depth + 1,
	}

	parentNode.Children = append(parentNode.Children, fileNode)
	parentNode.Size += fileSize
	parentNode.FileCount++

	if stats.TotalFiles%cacheEvictionInterval == 0 {
		evictSiblingCaches(parentNode)
	}
}

// evictSiblingCaches clears cached content on all but the most recently
// attached file siblings, bounding peak memory during very large walks.
func evictSiblingCaches(parentNode *fsnode.FileSystemNode) {
	if len(parentNode.Children) <= cachedSiblingRetention {
		return
	}
	for _, sibling := range parentNode.Children[:len(parentNode.Children)-cachedSiblingRetention] {
		if sibling.Kind == fsnode.KindFile {
			sibling.ClearContentCache()
		}
	}
}

// limitExceeded reports whether any global traversal limit stops expansion
// at the given depth. Hitting a limit silently truncates the walk.
func (traverser *Traverser) limitExceeded(stats *fsnode.FileSystemStats, depth int) bool {
	if depth > config.MaxDirectoryDepth {
		traverser.Logger.Warn("maximum depth limit reached",
			zap.Int("limit", config.MaxDirectoryDepth))
		return true
	}
	if stats.TotalFiles >= config.MaxFiles {
		traverser.Logger.Warn("maximum file limit reached",
			zap.Int("limit", config.MaxFiles))
		return true
	}
	if stats.TotalSize >= config.MaxTotalSizeBytes {
		traverser.Logger.Warn("maximum total size limit reached",
			zap.String("limit", utils.FormatFileSize(config.MaxTotalSizeBytes)))
		return true
	}
	return false
}
