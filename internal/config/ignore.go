package config

// DefaultIgnorePatterns lists the path patterns excluded from every ingestion
// unless an include set overrides them. The set covers version control
// metadata, dependency directories, build output, caches, lockfiles, and
// common binary media.
var DefaultIgnorePatterns = []string{
	// Version control
	".git",
	".hg",
	".svn",
	".bzr",
	// Python
	"*.pyc",
	"*.pyo",
	"*.pyd",
	"__pycache__",
	".pytest_cache",
	".mypy_cache",
	".ruff_cache",
	".tox",
	".nox",
	"venv",
	".venv",
	"*.egg-info",
	// JavaScript
	"node_modules",
	"bower_components",
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	".npm",
	".yarn",
	// Go
	"vendor",
	"bin",
	"go.sum",
	// Java / JVM
	"*.class",
	"*.jar",
	"*.war",
	".gradle",
	"build",
	"target",
	// Rust
	"Cargo.lock",
	// IDEs and editors
	".idea",
	".vscode",
	"*.swp",
	"*.swo",
	"*.iml",
	// OS artifacts
	".DS_Store",
	"Thumbs.db",
	// Build and cache output
	"dist",
	"*.o",
	"*.a",
	"*.so",
	"*.dylib",
	"*.dll",
	"*.exe",
	"*.min.js",
	"*.min.css",
	".cache",
	"coverage",
	// Binary media and archives
	"*.png",
	"*.jpg",
	"*.jpeg",
	"*.gif",
	"*.ico",
	"*.pdf",
	"*.zip",
	"*.tar",
	"*.gz",
	"*.7z",
	"*.mp3",
	"*.mp4",
	"*.mov",
	"*.ttf",
	"*.woff",
	"*.woff2",
	// Secrets
	"*.pem",
	"*.key",
	".env",
	".env.*",
}
