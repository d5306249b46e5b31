package service

import (
	"slices"
	"strings"
	"testing"

	"snippetcorpus/internal/domain/valueobject"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractAll(e *SnippetExtractor, path, text string) []valueobject.CandidateBlock {
	return slices.Collect(e.Extract(path, text))
}

func contents(blocks []valueobject.CandidateBlock) []string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.Content)
	}
	return out
}

func TestSnippetExtractor_SplitsAtBlankLine(t *testing.T) {
	text := "function foo() {\n  return 1;\n}\n\nfunction bar() {...}"

	blocks := extractAll(NewSnippetExtractor(), "src/a.js", text)

	require.Len(t, blocks, 2)
	assert.Equal(t, "function foo() {\n  return 1;", blocks[0].Content)
	assert.Equal(t, "function bar() {...}", blocks[1].Content)
	for _, b := range blocks {
		assert.True(t, strings.HasPrefix(b.Content, "function "))
		assert.Equal(t, "src/a.js", b.Path)
	}
}

func TestSnippetExtractor_LineNumbers(t *testing.T) {
	text := "// header\nfn one() {\n    1\n}\nfn two() {\n    2\n    3\n"

	blocks := extractAll(NewSnippetExtractor(), "lib.rs", text)

	require.Len(t, blocks, 2)
	assert.Equal(t, 2, blocks[0].StartLine)
	assert.Equal(t, 3, blocks[0].EndLine)
	assert.Equal(t, 5, blocks[1].StartLine)
	assert.Equal(t, 7, blocks[1].EndLine)
}

func TestSnippetExtractor_NewDeclarationFlushesCurrentBlock(t *testing.T) {
	text := strings.Join([]string{
		"class Greeter:",
		"    greeting = 'hi'",
		"    def greet(self, name):",
		"        return self.greeting + name",
	}, "\n")

	blocks := extractAll(NewSnippetExtractor(), "greeter.py", text)

	assert.Equal(t, []string{
		"class Greeter:\n    greeting = 'hi'",
		"    def greet(self, name):\n        return self.greeting + name",
	}, contents(blocks))
}

func TestSnippetExtractor_IgnoresLinesOutsideBlocks(t *testing.T) {
	text := "package main\n\nimport \"fmt\"\n\nvar x = 1\n}\n"

	assert.Empty(t, extractAll(NewSnippetExtractor(), "main.go", text))
}

func TestSnippetExtractor_ClosingBraceWithWhitespaceEndsBlock(t *testing.T) {
	text := "impl Point {\n    fn x(&self) {}\n    }\n    after"

	blocks := extractAll(NewSnippetExtractor(), "p.rs", text)

	assert.Equal(t, []string{"impl Point {", "    fn x(&self) {}"}, contents(blocks))
}

func TestSnippetExtractor_BraceWithSuffixDoesNotEndBlock(t *testing.T) {
	text := "interface Shape {\n  area(): number;\n};\n  more\n"

	blocks := extractAll(NewSnippetExtractor(), "s.ts", text)

	assert.Equal(t, []string{"interface Shape {\n  area(): number;\n};\n  more"}, contents(blocks))
}

func TestSnippetExtractor_EndOfFileFlushes(t *testing.T) {
	blocks := extractAll(NewSnippetExtractor(), "e.rs", "enum Color {\n    Red,")

	assert.Equal(t, []string{"enum Color {\n    Red,"}, contents(blocks))
}

func TestSnippetExtractor_EmptyInput(t *testing.T) {
	assert.Empty(t, extractAll(NewSnippetExtractor(), "x.go", ""))
}

func TestSnippetExtractor_Deterministic(t *testing.T) {
	text := "struct A {\n  a: i32,\n}\n\nstruct B {\n  b: i32,\n}\ntrait C {\n  fn c();\n}"
	extractor := NewSnippetExtractor()

	first := extractAll(extractor, "a.rs", text)
	for range 5 {
		assert.Equal(t, first, extractAll(extractor, "a.rs", text))
	}
}

func TestSnippetExtractor_StopsWhenConsumerStops(t *testing.T) {
	text := "def a():\n    pass\n\ndef b():\n    pass\n\ndef c():\n    pass"

	var seen []string
	for block := range NewSnippetExtractor().Extract("m.py", text) {
		seen = append(seen, block.Content)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"def a():\n    pass", "def b():\n    pass"}, seen)
}

func TestIsDeclarationStart(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"function foo() {", true},
		{"def foo(x):", true},
		{"fn main() {", true},
		{"pub fn add(a: i32) -> i32 {", true},
		{"    class Inner {", true},
		{"impl Display for Point {", true},
		{"trait Shape {", true},
		{"module Util", true},
		{"interface Reader {", true},
		{"enum Color {", true},
		{"struct Point {", true},
		{"func main() {", false},
		{"fnord x", false},
		{"def (", false},
		{"// function foo", false},
		{"export function foo() {", false},
		{"pub struct Point {", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDeclarationStart(tt.line))
		})
	}
}
