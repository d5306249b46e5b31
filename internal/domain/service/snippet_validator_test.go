package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"snippetcorpus/internal/domain/valueobject"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snippetOf builds content of exactly total characters from lines of at most width
// characters.
func snippetOf(total, width int) string {
	var lines []string
	remaining := total
	for remaining > 0 {
		n := min(width, remaining)
		if len(lines) > 0 {
			// account for the joining newline
			n = min(width, remaining-1)
			remaining--
		}
		lines = append(lines, strings.Repeat("x", n))
		remaining -= n
	}
	return strings.Join(lines, "\n")
}

func TestSnippetOf(t *testing.T) {
	for _, total := range []int{1, 50, 99, 100, 101, 300, 301} {
		assert.Len(t, snippetOf(total, 50), total)
	}
}

func TestSnippetValidator_Check(t *testing.T) {
	validator := NewSnippetValidator(DefaultValidationConfig())

	tests := []struct {
		name    string
		content string
		want    RejectionReason
	}{
		{"just below minimum", snippetOf(99, 50), RejectTooShort},
		{"minimum", snippetOf(100, 50), Accepted},
		{"maximum", snippetOf(300, 50), Accepted},
		{"just above maximum", snippetOf(301, 50), RejectTooLong},
		{"eleven lines", strings.Repeat("abcdefghij\n", 10) + "abcdefghij", Accepted},
		{"twelve lines", strings.Repeat("abcdefghij\n", 11) + "abcdefghij", RejectTooMany},
		{"line of 55", strings.Repeat("y", 55) + "\n" + strings.Repeat("z", 50), Accepted},
		{"line of 56", strings.Repeat("y", 56) + "\n" + strings.Repeat("z", 50), RejectWideLine},
		{"multibyte counts characters", strings.Repeat("é", 55) + "\n" + strings.Repeat("z", 50), Accepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validator.Check(tt.content))
			assert.Equal(t, tt.want == Accepted, validator.Check(tt.content) == Accepted)
		})
	}
}

func TestSnippetValidator_RulesApplyInOrder(t *testing.T) {
	validator := NewSnippetValidator(DefaultValidationConfig())

	// too long and too wide: length is checked first
	assert.Equal(t, RejectTooLong, validator.Check(strings.Repeat("w", 301)))
	// within length but a single wide line
	assert.Equal(t, RejectWideLine, validator.Check(strings.Repeat("w", 120)))
}

func TestSnippetValidator_CustomBounds(t *testing.T) {
	validator := NewSnippetValidator(ValidationConfig{MinLength: 3, MaxLength: 10, MaxLines: 2, MaxLineLength: 5})

	assert.Equal(t, Accepted, validator.Check("abc\nde"))
	assert.Equal(t, RejectTooShort, validator.Check("ab"))
	assert.Equal(t, RejectTooMany, validator.Check("a\nb\nc"))
	assert.Equal(t, RejectWideLine, validator.Check("abcdef"))
	assert.Equal(t, RejectTooLong, validator.Check("abcde\nabcde"))
}

func TestSnippetValidator_FilterUpholdsBounds(t *testing.T) {
	cfg := DefaultValidationConfig()
	validator := NewSnippetValidator(cfg)

	var source strings.Builder
	for i := range 40 {
		source.WriteString("fn item_" + strings.Repeat("a", i) + "() {\n")
		for j := 0; j < i%14; j++ {
			source.WriteString("    let value_" + strings.Repeat("b", (i*j)%60) + " = 1;\n")
		}
		source.WriteString("}\n\n")
	}

	rejected := map[RejectionReason]int{}
	blocks := NewSnippetExtractor().Extract("gen.rs", source.String())
	var accepted []valueobject.CandidateBlock
	for block := range validator.Filter(blocks, func(_ valueobject.CandidateBlock, r RejectionReason) { rejected[r]++ }) {
		accepted = append(accepted, block)
	}

	require.NotEmpty(t, accepted)
	require.NotEmpty(t, rejected)
	for _, block := range accepted {
		length := utf8.RuneCountInString(block.Content)
		assert.GreaterOrEqual(t, length, cfg.MinLength)
		assert.LessOrEqual(t, length, cfg.MaxLength)
		lines := strings.Split(block.Content, "\n")
		assert.LessOrEqual(t, len(lines), cfg.MaxLines)
		for _, line := range lines {
			assert.LessOrEqual(t, len([]rune(line)), cfg.MaxLineLength)
		}
	}
}
