package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoChallengesError(t *testing.T) {
	withLanguage := NewNoChallengesError("rust")
	assert.EqualError(t, withLanguage, "no challenges for language: rust")
	assert.ErrorIs(t, withLanguage, ErrNoChallenges)

	withoutLanguage := NewNoChallengesError("")
	assert.EqualError(t, withoutLanguage, "no challenges available")
	assert.ErrorIs(t, withoutLanguage, ErrNoChallenges)

	wrapped := fmt.Errorf("get random: %w", withLanguage)
	var target *NoChallengesError
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "rust", target.Language)
}
