package valueobject

// CandidateBlock is a contiguous run of source lines proposed as a typing exercise,
// before validation. StartLine and EndLine are 1-based and inclusive.
type CandidateBlock struct {
	Content   string
	Path      string
	StartLine int
	EndLine   int
}

// Language classifies the block by its source file extension.
func (b CandidateBlock) Language() string {
	return LanguageFromPath(b.Path)
}
