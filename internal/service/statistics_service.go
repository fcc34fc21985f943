package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/prperemyshlev/mbti-quiz/internal/domain"
	"github.com/prperemyshlev/mbti-quiz/internal/dto"
	"github.com/prperemyshlev/mbti-quiz/internal/mbti"
	"github.com/prperemyshlev/mbti-quiz/internal/repository"
)

const (
	minAnswerScore = 0
	maxAnswerScore = 4
)

type statisticsService struct {
	repo      repository.StatisticsRepository
	logger    *zap.Logger
	submitted metric.Int64Counter
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(repo repository.StatisticsRepository, logger *zap.Logger) StatisticsService {
	submitted, err := otel.Meter(meterName).Int64Counter(
		"mbti.results.submitted",
		metric.WithDescription("Submitted test results by type"),
	)
	if err != nil {
		logger.Warn("failed to create submitted counter", zap.Error(err))
	}

	return &statisticsService{
		repo:      repo,
		logger:    logger,
		submitted: submitted,
	}
}

// Submit counts one result and returns the new number of completed tests
func (s *statisticsService) Submit(ctx context.Context, req *dto.SubmitResultRequest) (int64, error) {
	t, ok := mbti.ParseType(req.MBTIType)
	if !ok {
		return 0, newValidationError("mbtiType", "mbtiType must be one of 16 valid types")
	}
	if err := validateAnswers(req.Answers); err != nil {
		return 0, err
	}

	total, err := s.repo.Increment(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("failed to record result: %w", err)
	}

	if s.submitted != nil {
		s.submitted.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(t))))
	}

	return total, nil
}

// Statistics returns the current counts for all 16 types
func (s *statisticsService) Statistics(ctx context.Context) (*domain.Statistics, error) {
	stats, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load statistics: %w", err)
	}
	return stats, nil
}

// Score scores a complete answer sheet and looks up the share of its type
func (s *statisticsService) Score(ctx context.Context, answers []mbti.Answer) (*ScoreResult, error) {
	if err := validateAnswers(answers); err != nil {
		return nil, err
	}

	answers = mbti.NewAnswerSet(answers...).Slice()
	if !mbti.IsComplete(answers) {
		return nil, ErrIncompleteAnswers
	}

	result := mbti.Score(answers)

	stats, err := s.repo.Snapshot(ctx)
	if err != nil {
		// The score itself does not depend on statistics
		s.logger.Warn("statistics unavailable for percentage", zap.Error(err))
		return &ScoreResult{Result: result}, nil
	}

	return &ScoreResult{
		Result:     result,
		Percentage: mbti.Percentage(result.Type, stats.Counts),
	}, nil
}

func validateAnswers(answers []mbti.Answer) error {
	for _, a := range answers {
		if a.Score < minAnswerScore || a.Score > maxAnswerScore {
			return newValidationError("answers", fmt.Sprintf("score for question %d must be between %d and %d", a.QuestionID, minAnswerScore, maxAnswerScore))
		}
	}
	return nil
}
