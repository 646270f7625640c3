package services

import (
	"context"
	"time"

	"github.com/billswap/backend/internal/apperr"
	"github.com/billswap/backend/internal/matching"
	"github.com/billswap/backend/internal/models"
	"github.com/billswap/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// candidatePoolLimit bounds how many active bills one ranking pass considers.
const candidatePoolLimit = 500

type MatchService struct {
	billRepo  *repositories.BillRepo
	trustRepo *repositories.TrustRepo
	log       *zap.Logger
}

func NewMatchService(
	billRepo *repositories.BillRepo,
	trustRepo *repositories.TrustRepo,
	log *zap.Logger,
) *MatchService {
	return &MatchService{
		billRepo:  billRepo,
		trustRepo: trustRepo,
		log:       log,
	}
}

// FindMatches ranks counterpart bills for one of the caller's active bills:
// tolerance bands narrow the pool first, then the engine scores what is left.
func (s *MatchService) FindMatches(ctx context.Context, userID, billID uuid.UUID) ([]matching.Match, error) {
	source, err := s.billRepo.GetByID(ctx, billID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "bill not found")
	}
	if source.UserID != userID {
		return nil, apperr.Unauthorized("only the bill owner can request matches")
	}
	if source.Status != models.BillStatusActive {
		return nil, apperr.InvalidState("bill in status %s cannot be matched", source.Status)
	}

	pool, err := s.candidatePool(ctx, userID)
	if err != nil {
		return nil, err
	}

	filtered := matching.FilterByTolerance(*source, pool)
	candidates, err := s.attachProfiles(ctx, filtered)
	if err != nil {
		return nil, err
	}
	return matching.Rank(*source, candidates, time.Now()), nil
}

// FindMatchesForUser ranks against every active bill the user holds and
// deduplicates across sources, for the browse feed.
func (s *MatchService) FindMatchesForUser(ctx context.Context, userID uuid.UUID) ([]matching.Match, error) {
	status := models.BillStatusActive
	sources, err := s.billRepo.List(ctx, repositories.BillFilter{
		UserID: &userID,
		Status: &status,
		Limit:  candidatePoolLimit,
	})
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, nil
	}

	pool, err := s.candidatePool(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Union of the per-source tolerance pools, deduped by bill id.
	seen := map[uuid.UUID]bool{}
	var filtered []models.Bill
	for _, src := range sources {
		for _, b := range matching.FilterByTolerance(src, pool) {
			if !seen[b.ID] {
				seen[b.ID] = true
				filtered = append(filtered, b)
			}
		}
	}

	candidates, err := s.attachProfiles(ctx, filtered)
	if err != nil {
		return nil, err
	}
	return matching.RankBulk(sources, candidates, time.Now()), nil
}

func (s *MatchService) candidatePool(ctx context.Context, excludeUser uuid.UUID) ([]models.Bill, error) {
	status := models.BillStatusActive
	return s.billRepo.List(ctx, repositories.BillFilter{
		ExcludeUser: &excludeUser,
		Status:      &status,
		Limit:       candidatePoolLimit,
	})
}

func (s *MatchService) attachProfiles(ctx context.Context, bills []models.Bill) ([]matching.Candidate, error) {
	ownerSet := map[uuid.UUID]bool{}
	var owners []uuid.UUID
	for _, b := range bills {
		if !ownerSet[b.UserID] {
			ownerSet[b.UserID] = true
			owners = append(owners, b.UserID)
		}
	}
	profiles, err := s.trustRepo.GetByUserIDs(ctx, owners)
	if err != nil {
		return nil, err
	}

	candidates := make([]matching.Candidate, 0, len(bills))
	for _, b := range bills {
		c := matching.Candidate{Bill: b}
		if p, ok := profiles[b.UserID]; ok {
			profile := p
			c.Profile = &profile
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
