package format

import (
	"fmt"
	"strconv"

	"github.com/temirov/ingest/internal/fsnode"
)

const (
	// tokenSampleLimit bounds the content sample used for extrapolation.
	tokenSampleLimit = 10_000

	millionTokens  = 1_000_000
	thousandTokens = 1_000
)

// estimateTokens approximates the digest's token count without tokenizing
// every file. The tree text is tokenized directly; the first yielded file
// block, truncated to tokenSampleLimit characters, establishes a
// tokens-per-byte rate that is extrapolated over the tree's total size.
func (formatter *Formatter) estimateTokens(node *fsnode.FileSystemNode, tree string) int {
	treeTokens := formatter.countTokens(tree)

	contentSample := firstContentBlock(node)
	if len(contentSample) > tokenSampleLimit {
		contentSample = contentSample[:tokenSampleLimit]
	}

	sampleTokens := formatter.countTokens(contentSample)
	if sampleTokens == 0 || len(contentSample) == 0 {
		return treeTokens
	}

	tokensPerByte := float64(sampleTokens) / float64(len(contentSample))
	estimatedContentTokens := int(float64(node.Size) * tokensPerByte)
	return treeTokens + estimatedContentTokens
}

// firstContentBlock returns the first file block a content walk would
// yield, or an empty string when the tree holds no files. The sampled
// node's cache is released immediately, exactly as the content walk does.
func firstContentBlock(node *fsnode.FileSystemNode) string {
	var sample string
	_ = visitContentBlocks(node, func(block string) error {
		sample = block
		return errStopVisit
	})
	return sample
}

// FormatTokenCount renders a human-readable token count: millions with an
// "M" suffix, thousands with "k", small values as plain integers, and zero
// as an empty string meaning "no estimate".
func FormatTokenCount(totalTokens int) string {
	switch {
	case totalTokens == 0:
		return ""
	case totalTokens >= millionTokens:
		return fmt.Sprintf("%.1fM", float64(totalTokens)/millionTokens)
	case totalTokens >= thousandTokens:
		return fmt.Sprintf("%.1fk", float64(totalTokens)/thousandTokens)
	default:
		return strconv.Itoa(totalTokens)
	}
}
