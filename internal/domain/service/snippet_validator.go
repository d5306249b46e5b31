package service

import (
	"iter"
	"strings"
	"unicode/utf8"

	"snippetcorpus/internal/domain/valueobject"
)

// Default snippet shape bounds. A typing exercise stays short and every line must
// render without wrapping.
const (
	DefaultMinLength     = 100
	DefaultMaxLength     = 300
	DefaultMaxLines      = 11
	DefaultMaxLineLength = 55
)

// ValidationConfig holds the snippet shape bounds. Lengths count characters.
type ValidationConfig struct {
	MinLength     int `mapstructure:"min_length"`
	MaxLength     int `mapstructure:"max_length"`
	MaxLines      int `mapstructure:"max_lines"`
	MaxLineLength int `mapstructure:"max_line_length"`
}

// DefaultValidationConfig returns the production bounds.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MinLength:     DefaultMinLength,
		MaxLength:     DefaultMaxLength,
		MaxLines:      DefaultMaxLines,
		MaxLineLength: DefaultMaxLineLength,
	}
}

// RejectionReason names the first shape rule a snippet broke.
type RejectionReason string

const (
	Accepted       RejectionReason = ""
	RejectTooShort RejectionReason = "too_short"
	RejectTooLong  RejectionReason = "too_long"
	RejectTooMany  RejectionReason = "too_many_lines"
	RejectWideLine RejectionReason = "line_too_long"
)

// SnippetValidator accepts or rejects candidate blocks against fixed shape bounds.
type SnippetValidator struct {
	config ValidationConfig
}

// NewSnippetValidator creates a validator for the given bounds.
func NewSnippetValidator(config ValidationConfig) *SnippetValidator {
	return &SnippetValidator{config: config}
}

// Check applies the rules in order and returns the first one broken, or Accepted.
func (v *SnippetValidator) Check(content string) RejectionReason {
	length := utf8.RuneCountInString(content)
	if length < v.config.MinLength {
		return RejectTooShort
	}
	if length > v.config.MaxLength {
		return RejectTooLong
	}

	lines := strings.Split(content, "\n")
	if len(lines) > v.config.MaxLines {
		return RejectTooMany
	}
	for _, line := range lines {
		if utf8.RuneCountInString(line) > v.config.MaxLineLength {
			return RejectWideLine
		}
	}
	return Accepted
}

// Filter yields only the accepted blocks of seq. onReject, if set, observes each
// rejected block with its reason.
func (v *SnippetValidator) Filter(
	seq iter.Seq[valueobject.CandidateBlock],
	onReject func(valueobject.CandidateBlock, RejectionReason),
) iter.Seq[valueobject.CandidateBlock] {
	return func(yield func(valueobject.CandidateBlock) bool) {
		for block := range seq {
			reason := v.Check(block.Content)
			if reason != Accepted {
				if onReject != nil {
					onReject(block, reason)
				}
				continue
			}
			if !yield(block) {
				return
			}
		}
	}
}
