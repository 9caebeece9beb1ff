// Package format renders a completed filesystem node tree into the three
// digest strings: summary, directory structure, and concatenated file
// contents, with sample-based token estimation.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/ingest/internal/fsnode"
	"github.com/temirov/ingest/internal/tokenizer"
	"github.com/temirov/ingest/internal/types"
)

const (
	defaultBranchMain   = "main"
	defaultBranchMaster = "master"
	rootSubpath         = "/"

	treeHeader = "Directory structure:\n"

	summaryRepositoryFormat = "Repository: %s/%s"
	summaryDirectoryFormat  = "Directory: %s"
	summaryCommitFormat     = "Commit: %s"
	summaryBranchFormat     = "Branch: %s"
	summarySubpathFormat    = "Subpath: %s"
	summaryFilesFormat      = "Files analyzed: %d\n"
	summaryFileNameFormat   = "File: %s\n"
	summaryLinesFormat      = "Lines: %s\n"
	summaryTokensFormat     = "\nEstimated tokens: %s"
)

// Formatter renders digests for one ingestion request. A nil TokenCounter
// disables token estimation; a nil Logger suppresses diagnostics.
type Formatter struct {
	TokenCounter tokenizer.Counter
	Logger       *zap.Logger
}

// NewFormatter constructs a Formatter with safe defaults for nil fields.
func NewFormatter(tokenCounter tokenizer.Counter, logger *zap.Logger) *Formatter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Formatter{TokenCounter: tokenCounter, Logger: logger}
}

// FormatNode produces the (summary, tree, content) triple for a file or
// directory node. Directory trees are walked once for the token sample and
// once for the assembled content; each file's cache is released as soon as
// its block has been consumed.
func (formatter *Formatter) FormatNode(node *fsnode.FileSystemNode, query *types.IngestionQuery) (string, string, string, error) {
	isSingleFile := node.Kind == fsnode.KindFile
	summary := formatter.createSummaryPrefix(query, isSingleFile)

	switch node.Kind {
	case fsnode.KindDirectory:
		summary += fmt.Sprintf(summaryFilesFormat, node.FileCount)
	case fsnode.KindFile:
		lineTotal, lineCountError := node.LineCount()
		if lineCountError != nil {
			return "", "", "", lineCountError
		}
		summary += fmt.Sprintf(summaryFileNameFormat, node.Name)
		summary += fmt.Sprintf(summaryLinesFormat, groupThousands(lineTotal))
	}

	tree := treeHeader + renderTree(node, query)

	totalTokens := formatter.estimateTokens(node, tree)
	if tokenEstimate := FormatTokenCount(totalTokens); tokenEstimate != "" {
		summary += fmt.Sprintf(summaryTokensFormat, tokenEstimate)
	}

	content, contentError := gatherContentString(node)
	if contentError != nil {
		return "", "", "", contentError
	}

	return summary, tree, content, nil
}

// createSummaryPrefix builds the header naming the repository or directory,
// the commit or non-default branch, and the subpath when relevant.
func (formatter *Formatter) createSummaryPrefix(query *types.IngestionQuery, singleFile bool) string {
	var headerParts []string

	if query.UserName != "" {
		headerParts = append(headerParts, fmt.Sprintf(summaryRepositoryFormat, query.UserName, query.RepoName))
	} else {
		headerParts = append(headerParts, fmt.Sprintf(summaryDirectoryFormat, query.Slug))
	}

	if query.Commit != "" {
		headerParts = append(headerParts, fmt.Sprintf(summaryCommitFormat, query.Commit))
	} else if query.Branch != "" && query.Branch != defaultBranchMain && query.Branch != defaultBranchMaster {
		headerParts = append(headerParts, fmt.Sprintf(summaryBranchFormat, query.Branch))
	}

	if query.Subpath != "" && query.Subpath != rootSubpath && !singleFile {
		headerParts = append(headerParts, fmt.Sprintf(summarySubpathFormat, query.Subpath))
	}

	return strings.Join(headerParts, "\n") + "\n"
}

// countTokens returns the token count for text, or zero when estimation is
// disabled or the counter fails.
func (formatter *Formatter) countTokens(text string) int {
	if formatter.TokenCounter == nil {
		return 0
	}
	tokenTotal, countError := formatter.TokenCounter.CountString(text)
	if countError != nil {
		formatter.Logger.Warn("token estimation failed", zap.Error(countError))
		return 0
	}
	return tokenTotal
}

// groupThousands renders value with comma separators (12345 -> "12,345").
func groupThousands(value int) string {
	digits := strconv.Itoa(value)
	if len(digits) <= 3 {
		return digits
	}
	var grouped strings.Builder
	leading := len(digits) % 3
	if leading > 0 {
		grouped.WriteString(digits[:leading])
	}
	for offset := leading; offset < len(digits); offset += 3 {
		if grouped.Len() > 0 {
			grouped.WriteString(",")
		}
		grouped.WriteString(digits[offset : offset+3])
	}
	return grouped.String()
}
