// Package ingest turns an already-acquired code repository or local
// directory into a single text digest: a summary, a visual directory tree,
// and the concatenated file contents, produced under hard resource limits.
//
// The package is the entry point wiring the bounded traversal engine and
// the content formatter together; remote resolution, cloning, and transport
// of the finished digest belong to the callers.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/ingest/internal/config"
	"github.com/temirov/ingest/internal/format"
	"github.com/temirov/ingest/internal/fsnode"
	"github.com/temirov/ingest/internal/tokenizer"
	"github.com/temirov/ingest/internal/traversal"
	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

var (
	// ErrPathNotFound indicates the requested root path does not exist.
	ErrPathNotFound = errors.New("path not found")
	// ErrNotAFile indicates blob-mode ingestion was requested for a path
	// that is not a regular file.
	ErrNotAFile = errors.New("path is not a file")
	// ErrEmptyContent indicates a single-file ingestion resolved to empty content.
	ErrEmptyContent = errors.New("file has no content")
)

// Digest is the result of one ingestion: three plain text strings the
// caller may print, store, or transmit.
type Digest struct {
	Summary string
	Tree    string
	Content string
}

// Engine runs ingestion requests. Engines are cheap and stateless between
// requests; every request gets its own tree and counters.
type Engine struct {
	logger       *zap.Logger
	tokenCounter tokenizer.Counter
}

// NewEngine constructs an Engine. Both the logger and the token counter are
// optional: a nil logger suppresses diagnostics, a nil counter disables
// token estimation.
func NewEngine(logger *zap.Logger, tokenCounter tokenizer.Counter) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger, tokenCounter: tokenCounter}
}

// IngestQuery runs one ingestion request and returns its digest.
//
// The root is the query's local path joined with the normalized subpath. A
// missing root is a hard failure; everything recoverable inside the walk is
// skipped with a diagnostic instead. Content caches are released before the
// digest is returned, so the tree holds only structural data afterwards.
func (engine *Engine) IngestQuery(query *types.IngestionQuery) (Digest, error) {
	if query.MaxFileSize <= 0 {
		query.MaxFileSize = config.DefaultMaxFileSize
	}

	rootPath := filepath.Join(query.LocalPath, query.EnsureSubpath())
	rootInfo, rootStatError := os.Stat(rootPath)
	if rootStatError != nil {
		return Digest{}, fmt.Errorf("%w: %s", ErrPathNotFound, query.DisplayName())
	}

	formatter := format.NewFormatter(engine.tokenCounter, engine.logger)

	if query.Type == types.IngestTypeBlob || isFilePath(query.LocalPath) {
		return engine.ingestSingleFile(rootPath, rootInfo, query, formatter)
	}

	rootNode := &fsnode.FileSystemNode{
		Name:         filepath.Base(rootPath),
		Kind:         fsnode.KindDirectory,
		RelativePath: utils.RelativePathOrSelf(rootPath, query.LocalPath),
		AbsolutePath: rootPath,
	}

	stats := &fsnode.FileSystemStats{}
	traverser := traversal.NewTraverser(engine.logger)
	traverser.ProcessNode(rootNode, query, stats)

	summary, tree, content, formatError := formatter.FormatNode(rootNode, query)
	if formatError != nil {
		return Digest{}, formatError
	}

	rootNode.ClearContentCache()

	return Digest{Summary: summary, Tree: tree, Content: content}, nil
}

// ingestSingleFile builds one file node directly, with no traversal.
func (engine *Engine) ingestSingleFile(rootPath string, rootInfo os.FileInfo, query *types.IngestionQuery, formatter *format.Formatter) (Digest, error) {
	if !rootInfo.Mode().IsRegular() {
		return Digest{}, fmt.Errorf("%w: %s", ErrNotAFile, rootPath)
	}

	fileNode := &fsnode.FileSystemNode{
		Name:         filepath.Base(rootPath),
		Kind:         fsnode.KindFile,
		RelativePath: utils.RelativePathOrSelf(rootPath, query.LocalPath),
		AbsolutePath: rootPath,
		Size:         rootInfo.Size(),
		FileCount:    1,
	}

	resolvedContent, contentError := fileNode.Content()
	if contentError != nil {
		return Digest{}, contentError
	}
	if resolvedContent == "" {
		return Digest{}, fmt.Errorf("%w: %s", ErrEmptyContent, fileNode.Name)
	}

	summary, tree, content, formatError := formatter.FormatNode(fileNode, query)
	if formatError != nil {
		return Digest{}, formatError
	}

	fileNode.ClearContentCache()

	return Digest{Summary: summary, Tree: tree, Content: content}, nil
}

// isFilePath reports whether path exists and is a regular file.
func isFilePath(path string) bool {
	info, statError := os.Stat(path)
	return statError == nil && info.Mode().IsRegular()
}
