// Package config holds process-wide ingestion limits, default ignore
// patterns, and application configuration loading.
package config

// Traversal limits applied to every ingestion request. They are read-only
// after process start; per-request knobs live on the IngestionQuery.
const (
	// MaxDirectoryDepth is the maximum depth of nested directories visited
	// below the ingestion root (the root itself is depth zero).
	MaxDirectoryDepth = 20

	// MaxFiles is the maximum number of file and symlink nodes collected
	// during a single traversal.
	MaxFiles = 10_000

	// MaxTotalSizeBytes caps the aggregate size of all collected files.
	MaxTotalSizeBytes int64 = 500 * 1024 * 1024

	// DefaultMaxFileSize is the per-file size cap applied when the query
	// does not supply one.
	DefaultMaxFileSize int64 = 10 * 1024 * 1024

	// OversizedFileDivisor derives the secondary single-file ceiling from
	// MaxTotalSizeBytes: a file larger than MaxTotalSizeBytes/OversizedFileDivisor
	// is skipped regardless of the per-request cap.
	OversizedFileDivisor = 10
)
