package service

import (
	"iter"
	"regexp"
	"strings"

	"snippetcorpus/internal/domain/valueobject"
)

// declarationStart matches a line that opens a function or type declaration.
//
//nolint:gochecknoglobals // compiled once
var declarationStart = regexp.MustCompile(
	`^\s*(function|def|fn|pub fn|class|impl|trait|module|interface|enum|struct)\s+\w+`,
)

// SnippetExtractor proposes candidate blocks from source text with a two-state line
// machine. It approximates declaration boundaries without parsing: a declaration line
// opens a block, and a blank line or a lone closing brace ends it. A declaration
// found inside a block flushes that block first, so nested declarations truncate
// their parent.
type SnippetExtractor struct{}

// NewSnippetExtractor creates a SnippetExtractor.
func NewSnippetExtractor() *SnippetExtractor {
	return &SnippetExtractor{}
}

// IsDeclarationStart reports whether line opens a new block.
func IsDeclarationStart(line string) bool {
	return declarationStart.MatchString(line)
}

// isBlockEnd reports whether line terminates the current block. The line itself is
// not part of the block.
func isBlockEnd(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || trimmed == "}"
}

// Extract lazily yields the candidate blocks of text, in file order.
func (e *SnippetExtractor) Extract(path, text string) iter.Seq[valueobject.CandidateBlock] {
	return func(yield func(valueobject.CandidateBlock) bool) {
		var (
			current []string
			start   int
			inBlock bool
			lineNo  int
		)

		flush := func() bool {
			if len(current) == 0 {
				return true
			}
			block := valueobject.CandidateBlock{
				Content:   strings.Join(current, "\n"),
				Path:      path,
				StartLine: start,
				EndLine:   start + len(current) - 1,
			}
			current = nil
			return yield(block)
		}

		for line := range strings.SplitSeq(text, "\n") {
			lineNo++

			switch {
			case IsDeclarationStart(line):
				if !flush() {
					return
				}
				current = []string{line}
				start = lineNo
				inBlock = true
			case !inBlock:
			case isBlockEnd(line):
				inBlock = false
				if !flush() {
					return
				}
			default:
				current = append(current, line)
			}
		}

		flush()
	}
}
