package api

import (
	"context"

	"snippetcorpus/internal/application/dto"
	"snippetcorpus/internal/domain/valueobject"

	"github.com/stretchr/testify/mock"
)

type mockChallengeService struct {
	mock.Mock
}

func (m *mockChallengeService) GetRandomChallenge(ctx context.Context, language string) (*dto.ChallengeResponse, error) {
	args := m.Called(ctx, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ChallengeResponse), args.Error(1)
}

func (m *mockChallengeService) ListLanguages(ctx context.Context) ([]valueobject.LanguageInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]valueobject.LanguageInfo), args.Error(1)
}

func (m *mockChallengeService) ImportChallenges(ctx context.Context, batch []dto.ChallengeImport) (*dto.UpsertReport, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UpsertReport), args.Error(1)
}

type mockHealthService struct {
	mock.Mock
}

func (m *mockHealthService) GetHealth(ctx context.Context) (*dto.HealthResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.HealthResponse), args.Error(1)
}
