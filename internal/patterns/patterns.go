// Package patterns decides which filesystem paths participate in an
// ingestion. Matching is glob-style against the path relative to the
// traversal root: `*` and `**` match any run of characters including path
// separators, `?` matches a single character, and literal segments match
// exactly. This mirrors the matching behavior digests produced by the
// hosted service exhibit, where a bare `*.py` selects Python files at any
// depth while `dir/file.txt` names one path.
package patterns

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/temirov/ingest/internal/config"
	"github.com/temirov/ingest/internal/utils"
)

// patternAllowedCharacters lists the non-alphanumeric characters permitted in patterns.
const patternAllowedCharacters = "-_./+*@?"

// InvalidPatternError reports a pattern containing characters outside the allow-list.
type InvalidPatternError struct {
	Pattern string
}

// Error describes the offending pattern and the permitted character set.
func (invalidPattern *InvalidPatternError) Error() string {
	return fmt.Sprintf(
		"pattern %q contains invalid characters; only alphanumerics and %s are allowed",
		invalidPattern.Pattern, patternAllowedCharacters,
	)
}

var (
	compiledPatternsMutex sync.RWMutex
	compiledPatterns      = make(map[string]*regexp.Regexp)
)

// MatchesPattern reports whether relativePath matches a single glob pattern.
// Unparseable patterns never match.
func MatchesPattern(relativePath string, pattern string) bool {
	expression := compiledPattern(pattern)
	if expression == nil {
		return false
	}
	return expression.MatchString(relativePath)
}

// MatchesAnyPattern reports whether relativePath matches at least one pattern.
func MatchesAnyPattern(relativePath string, patternSet []string) bool {
	for _, pattern := range patternSet {
		if pattern == "" {
			continue
		}
		if MatchesPattern(relativePath, pattern) {
			return true
		}
	}
	return false
}

// ShouldExclude reports whether path, made relative to root, matches any
// ignore pattern.
func ShouldExclude(path string, root string, ignorePatterns []string) bool {
	relativePath := utils.RelativePathOrSelf(path, root)
	return MatchesAnyPattern(relativePath, ignorePatterns)
}

// ShouldInclude reports whether path, made relative to root, matches any
// include pattern. Callers invoke it only when an include set is configured;
// an absent set means everything not excluded is included.
func ShouldInclude(path string, root string, includePatterns []string) bool {
	relativePath := utils.RelativePathOrSelf(path, root)
	return MatchesAnyPattern(relativePath, includePatterns)
}

// ParsePatterns splits raw pattern input on commas and spaces, normalizes
// backslashes to forward slashes, validates each pattern against the
// character allow-list, and returns the deduplicated result.
func ParsePatterns(rawPatterns []string) ([]string, error) {
	var parsedPatterns []string
	for _, rawPattern := range rawPatterns {
		for _, fragment := range strings.FieldsFunc(rawPattern, func(character rune) bool {
			return character == ',' || character == ' '
		}) {
			normalizedPattern := strings.ReplaceAll(fragment, "\\", "/")
			if normalizedPattern == "" {
				continue
			}
			if !isValidPattern(normalizedPattern) {
				return nil, &InvalidPatternError{Pattern: normalizedPattern}
			}
			parsedPatterns = append(parsedPatterns, normalizedPattern)
		}
	}
	return utils.DeduplicatePatterns(parsedPatterns), nil
}

// ProcessPatterns combines the default ignore set with user exclude patterns
// and resolves include patterns. Include patterns are removed from the ignore
// set so an explicit include wins over a default exclusion.
func ProcessPatterns(excludePatterns []string, includePatterns []string) ([]string, []string, error) {
	parsedExcludes, excludeParseError := ParsePatterns(excludePatterns)
	if excludeParseError != nil {
		return nil, nil, excludeParseError
	}
	ignoreSet := append(append([]string{}, config.DefaultIgnorePatterns...), parsedExcludes...)
	ignoreSet = utils.DeduplicatePatterns(ignoreSet)

	parsedIncludes, includeParseError := ParsePatterns(includePatterns)
	if includeParseError != nil {
		return nil, nil, includeParseError
	}
	if len(parsedIncludes) == 0 {
		return ignoreSet, nil, nil
	}

	filteredIgnoreSet := make([]string, 0, len(ignoreSet))
	for _, ignorePattern := range ignoreSet {
		if !utils.ContainsString(parsedIncludes, ignorePattern) {
			filteredIgnoreSet = append(filteredIgnoreSet, ignorePattern)
		}
	}
	return filteredIgnoreSet, parsedIncludes, nil
}

func isValidPattern(pattern string) bool {
	for _, character := range pattern {
		if character >= 'a' && character <= 'z' {
			continue
		}
		if character >= 'A' && character <= 'Z' {
			continue
		}
		if character >= '0' && character <= '9' {
			continue
		}
		if strings.ContainsRune(patternAllowedCharacters, character) {
			continue
		}
		return false
	}
	return len(pattern) > 0
}

// compiledPattern returns the cached anchored expression for pattern,
// compiling and memoizing it on first use. Compilation failures are cached
// as nil so malformed patterns are reported once and never match.
func compiledPattern(pattern string) *regexp.Regexp {
	compiledPatternsMutex.RLock()
	expression, alreadyCompiled := compiledPatterns[pattern]
	compiledPatternsMutex.RUnlock()
	if alreadyCompiled {
		return expression
	}

	expression, compileError := regexp.Compile(translatePattern(pattern))
	if compileError != nil {
		expression = nil
	}

	compiledPatternsMutex.Lock()
	compiledPatterns[pattern] = expression
	compiledPatternsMutex.Unlock()
	return expression
}

// translatePattern converts a glob pattern into an anchored regular
// expression. Both `*` and `**` translate to a match over any characters,
// path separators included.
func translatePattern(pattern string) string {
	var expression strings.Builder
	expression.WriteString("^")
	for characterIndex := 0; characterIndex < len(pattern); characterIndex++ {
		switch character := pattern[characterIndex]; character {
		case '*':
			// Collapse `**` into a single any-run wildcard.
			if characterIndex+1 < len(pattern) && pattern[characterIndex+1] == '*' {
				characterIndex++
			}
			expression.WriteString(".*")
		case '?':
			expression.WriteString(".")
		default:
			expression.WriteString(regexp.QuoteMeta(string(character)))
		}
	}
	expression.WriteString("$")
	return expression.String()
}
