// Package domain provides domain-specific error definitions and utilities.
package domain

import (
	"errors"
	"fmt"
)

// Corpus errors.
var (
	ErrNoChallenges       = errors.New("no challenges available")
	ErrInvalidProjectName = errors.New("invalid project name")
	ErrInvalidChallenge   = errors.New("invalid challenge")
)

// General domain errors.
var (
	ErrInvalidInput = errors.New("invalid input")
)

// NoChallengesError reports that neither the store nor the local repository pool
// produced any content. Language is empty when no filter was requested, so callers
// can tell "broaden the filter" apart from "wait for ingestion".
type NoChallengesError struct {
	Language string
}

func (e *NoChallengesError) Error() string {
	if e.Language != "" {
		return fmt.Sprintf("no challenges for language: %s", e.Language)
	}
	return ErrNoChallenges.Error()
}

// Is makes errors.Is(err, ErrNoChallenges) hold for every NoChallengesError.
func (e *NoChallengesError) Is(target error) bool {
	return target == ErrNoChallenges
}

// NewNoChallengesError builds the no-content error for an optional language filter.
func NewNoChallengesError(language string) error {
	return &NoChallengesError{Language: language}
}
