// Package types defines cross-package data structures used by the ingest tool.
package types

import "strings"

const (
	// IngestTypeBlob requests single-file ingestion.
	IngestTypeBlob = "blob"
	// IngestTypeTree requests directory ingestion.
	IngestTypeTree = "tree"
)

// ValidatedPath is an absolute input path that already passed existence checks.
type ValidatedPath struct {
	AbsolutePath string
	IsDir        bool
}

// IngestionQuery carries everything the ingestion engine needs for one
// request: the resolved local root, routing fields, pattern sets, the
// per-file size cap, and display metadata used only for summary text.
// The engine treats the query as read-only apart from subpath routing.
type IngestionQuery struct {
	// Display metadata. UserName and RepoName are set for remote
	// repositories; Slug labels local directories.
	Host     string
	UserName string
	RepoName string
	Slug     string

	// Reference metadata surfaced in the summary header.
	Branch string
	Commit string
	Tag    string

	// LocalPath is the already-acquired repository root on disk.
	LocalPath string
	// Subpath selects a subtree or file below LocalPath, "/" for the root.
	Subpath string
	// Type is IngestTypeBlob, IngestTypeTree, or empty.
	Type string

	// MaxFileSize caps the size of any single ingested file in bytes.
	MaxFileSize int64

	// IgnorePatterns excludes matching paths; IncludePatterns, when
	// non-empty, restricts ingestion to matching paths.
	IgnorePatterns  []string
	IncludePatterns []string
}

// EnsureSubpath returns the query subpath normalized to forward slashes with
// surrounding separators trimmed. An empty or root subpath yields ".".
func (query *IngestionQuery) EnsureSubpath() string {
	trimmed := strings.Trim(strings.ReplaceAll(query.Subpath, "\\", "/"), "/")
	if trimmed == "" {
		return "."
	}
	return trimmed
}

// DisplayName returns the repository label for remote queries or the slug
// for local directories.
func (query *IngestionQuery) DisplayName() string {
	if query.UserName != "" {
		return query.UserName + "/" + query.RepoName
	}
	return query.Slug
}
