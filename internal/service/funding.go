package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/model"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/repository"
)

// FundingService keeps the single funded-investment summary.
type FundingService struct {
	repo repository.FundingRepository
	now  func() time.Time
}

func NewFundingService(repo repository.FundingRepository) *FundingService {
	return &FundingService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Save replaces the current summary.
func (s *FundingService) Save(ctx context.Context, summary model.FundingSummary) error {
	summary.UpdatedAt = s.now()
	if err := s.repo.ReplaceFunding(ctx, &summary); err != nil {
		return fmt.Errorf("save funding summary: %w", err)
	}
	return nil
}

// Get returns the current summary or the zero state.
func (s *FundingService) Get(ctx context.Context) (model.FundingSummary, error) {
	summary, err := s.repo.GetFunding(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return model.DefaultFundingSummary(), nil
	}
	if err != nil {
		return model.FundingSummary{}, fmt.Errorf("load funding summary: %w", err)
	}
	return *summary, nil
}
