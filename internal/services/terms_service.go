package services

import (
	"context"
	"time"

	"github.com/billswap/backend/internal/apperr"
	"github.com/billswap/backend/internal/config"
	"github.com/billswap/backend/internal/events"
	"github.com/billswap/backend/internal/models"
	"github.com/billswap/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TermsService struct {
	termsRepo  *repositories.TermsRepo
	swapRepo   *repositories.SwapRepo
	auditRepo  *repositories.AuditRepo
	chatClient *ChatClient
	publisher  events.Publisher
	cfg        *config.Config
	log        *zap.Logger
}

func NewTermsService(
	termsRepo *repositories.TermsRepo,
	swapRepo *repositories.SwapRepo,
	auditRepo *repositories.AuditRepo,
	chatClient *ChatClient,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *TermsService {
	return &TermsService{
		termsRepo:  termsRepo,
		swapRepo:   swapRepo,
		auditRepo:  auditRepo,
		chatClient: chatClient,
		publisher:  publisher,
		cfg:        cfg,
		log:        log,
	}
}

type ProposeTermsInput struct {
	InitiatorFeeMinor    int64
	CounterpartyFeeMinor int64
	ProofWindowHours     int
	FallbackPenalty      string
}

func (s *TermsService) validateInput(input ProposeTermsInput) error {
	if input.InitiatorFeeMinor < 0 || input.CounterpartyFeeMinor < 0 {
		return apperr.Validation("fees cannot be negative")
	}
	if input.ProofWindowHours <= 0 || input.ProofWindowHours > 24*14 {
		return apperr.Validation("proof window must be between 1 hour and 14 days")
	}
	if !models.IsValidPenaltyType(input.FallbackPenalty) {
		return apperr.Validation("unknown fallback penalty %q", input.FallbackPenalty)
	}
	return nil
}

// negotiableSwap loads the swap and checks the caller may negotiate on it.
func (s *TermsService) negotiableSwap(ctx context.Context, swapID, userID uuid.UUID) (*models.Swap, error) {
	swap, err := s.swapRepo.GetByID(ctx, swapID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "swap not found")
	}
	if !swap.IsParticipant(userID) {
		return nil, apperr.Unauthorized("not a participant of this swap")
	}
	if swap.Status != models.SwapStatusAcceptedPendingFee {
		return nil, apperr.InvalidState("terms can only be negotiated while fees are pending, swap is %s", swap.Status)
	}
	return swap, nil
}

// Propose creates the first terms version for a swap.
func (s *TermsService) Propose(ctx context.Context, swapID, userID uuid.UUID, input ProposeTermsInput) (*models.Terms, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	swap, err := s.negotiableSwap(ctx, swapID, userID)
	if err != nil {
		return nil, err
	}

	latest, err := s.termsRepo.GetLatest(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		return nil, apperr.Conflict("terms already exist for this swap, counter instead")
	}

	terms := &models.Terms{
		SwapID:               swap.ID,
		ProposerUserID:       userID,
		Version:              1,
		InitiatorFeeMinor:    input.InitiatorFeeMinor,
		CounterpartyFeeMinor: input.CounterpartyFeeMinor,
		ProofWindowHours:     input.ProofWindowHours,
		FallbackPenalty:      input.FallbackPenalty,
		Status:               models.TermsStatusProposed,
		ExpiresAt:            time.Now().Add(s.cfg.TermsExpiry),
	}
	if err := s.termsRepo.Create(ctx, terms); err != nil {
		return nil, apperr.Wrap(apperr.KindConflict, err, "concurrent terms proposal")
	}

	s.recordProposed(ctx, swap, terms, "terms_proposed")
	return terms, nil
}

// Counter supersedes the latest proposed version with a new one from the
// other participant. The old version flips to countered first; losing that
// race means someone else acted on it already.
func (s *TermsService) Counter(ctx context.Context, swapID, userID uuid.UUID, input ProposeTermsInput) (*models.Terms, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	swap, err := s.negotiableSwap(ctx, swapID, userID)
	if err != nil {
		return nil, err
	}

	latest, err := s.termsRepo.GetLatest(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, apperr.NotFound("no terms to counter")
	}
	if latest.ProposerUserID == userID {
		return nil, apperr.InvalidState("cannot counter your own proposal")
	}
	if !latest.IsActionable(time.Now()) {
		return nil, apperr.Expired("terms version %d is no longer actionable", latest.Version)
	}
	if !latest.CanCounter() {
		return nil, apperr.InvalidState("negotiation limit of %d versions reached", models.MaxTermsVersions)
	}

	ok, err := s.termsRepo.SetStatusIf(ctx, latest.ID, models.TermsStatusProposed, models.TermsStatusCountered)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflict("terms version %d was already acted on", latest.Version)
	}

	terms := &models.Terms{
		SwapID:               swap.ID,
		ProposerUserID:       userID,
		Version:              latest.Version + 1,
		InitiatorFeeMinor:    input.InitiatorFeeMinor,
		CounterpartyFeeMinor: input.CounterpartyFeeMinor,
		ProofWindowHours:     input.ProofWindowHours,
		FallbackPenalty:      input.FallbackPenalty,
		Status:               models.TermsStatusProposed,
		ExpiresAt:            time.Now().Add(s.cfg.TermsExpiry),
	}
	if err := s.termsRepo.Create(ctx, terms); err != nil {
		return nil, apperr.Wrap(apperr.KindConflict, err, "concurrent counter-proposal")
	}

	s.recordProposed(ctx, swap, terms, "terms_countered")
	return terms, nil
}

// Accept locks in a terms version. Only the non-proposer can accept, and the
// agreed fee split is written onto the swap.
func (s *TermsService) Accept(ctx context.Context, termsID, userID uuid.UUID) (*models.Terms, error) {
	terms, err := s.termsRepo.GetByID(ctx, termsID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "terms not found")
	}
	swap, err := s.negotiableSwap(ctx, terms.SwapID, userID)
	if err != nil {
		return nil, err
	}
	if terms.ProposerUserID == userID {
		return nil, apperr.InvalidState("cannot accept your own proposal")
	}
	if !terms.IsActionable(time.Now()) {
		return nil, apperr.Expired("terms version %d is no longer actionable", terms.Version)
	}

	ok, err := s.termsRepo.SetStatusIf(ctx, terms.ID, models.TermsStatusProposed, models.TermsStatusAccepted)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflict("terms version %d was already acted on", terms.Version)
	}
	terms.Status = models.TermsStatusAccepted

	if err := s.swapRepo.SetFees(ctx, swap.ID, terms.InitiatorFeeMinor, terms.CounterpartyFeeMinor); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Create(ctx, &models.AuditLog{
		ActorUserID: &userID,
		ActorType:   models.ActorUser,
		Action:      "terms_accepted",
		EntityType:  "swap",
		EntityID:    &swap.ID,
		Meta:        map[string]any{"terms_id": terms.ID.String(), "version": terms.Version},
	})
	_ = s.publisher.Publish(ctx, events.StreamSwap, events.TermsAccepted{
		SwapID:  swap.ID,
		TermsID: terms.ID,
		Version: terms.Version,
	})
	_ = s.chatClient.PostSystemMessage(ctx, swap.ID, "Terms agreed. Both sides can now confirm the swap fee.")

	return terms, nil
}

// Reject declines a terms version without countering. Negotiation can resume
// with a fresh counter while versions remain.
func (s *TermsService) Reject(ctx context.Context, termsID, userID uuid.UUID) (*models.Terms, error) {
	terms, err := s.termsRepo.GetByID(ctx, termsID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "terms not found")
	}
	swap, err := s.negotiableSwap(ctx, terms.SwapID, userID)
	if err != nil {
		return nil, err
	}
	if terms.ProposerUserID == userID {
		return nil, apperr.InvalidState("cannot reject your own proposal")
	}
	if !terms.IsActionable(time.Now()) {
		return nil, apperr.Expired("terms version %d is no longer actionable", terms.Version)
	}

	ok, err := s.termsRepo.SetStatusIf(ctx, terms.ID, models.TermsStatusProposed, models.TermsStatusRejected)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflict("terms version %d was already acted on", terms.Version)
	}
	terms.Status = models.TermsStatusRejected

	_ = s.auditRepo.Create(ctx, &models.AuditLog{
		ActorUserID: &userID,
		ActorType:   models.ActorUser,
		Action:      "terms_rejected",
		EntityType:  "swap",
		EntityID:    &swap.ID,
		Meta:        map[string]any{"terms_id": terms.ID.String(), "version": terms.Version},
	})
	return terms, nil
}

func (s *TermsService) ListForSwap(ctx context.Context, swapID, userID uuid.UUID) ([]models.Terms, error) {
	swap, err := s.swapRepo.GetByID(ctx, swapID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "swap not found")
	}
	if !swap.IsParticipant(userID) {
		return nil, apperr.Unauthorized("not a participant of this swap")
	}
	return s.termsRepo.ListBySwap(ctx, swapID)
}

// AcceptedForSwap returns the accepted version, or nil when nothing was
// agreed; callers fall back to platform defaults.
func (s *TermsService) AcceptedForSwap(ctx context.Context, swapID uuid.UUID) (*models.Terms, error) {
	all, err := s.termsRepo.ListBySwap(ctx, swapID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Status == models.TermsStatusAccepted {
			return &all[i], nil
		}
	}
	return nil, nil
}

// SweepExpired marks stale proposals expired. Intended for the background
// sweep loop.
func (s *TermsService) SweepExpired(ctx context.Context) (int, error) {
	swapIDs, err := s.termsRepo.ExpireStale(ctx, time.Now(), 100)
	if err != nil {
		return 0, err
	}
	for _, id := range swapIDs {
		swapID := id
		_ = s.auditRepo.Create(ctx, &models.AuditLog{
			ActorType:  models.ActorSystem,
			Action:     "terms_expired",
			EntityType: "swap",
			EntityID:   &swapID,
		})
	}
	return len(swapIDs), nil
}

func (s *TermsService) recordProposed(ctx context.Context, swap *models.Swap, terms *models.Terms, action string) {
	_ = s.auditRepo.Create(ctx, &models.AuditLog{
		ActorUserID: &terms.ProposerUserID,
		ActorType:   models.ActorUser,
		Action:      action,
		EntityType:  "swap",
		EntityID:    &swap.ID,
		Meta:        map[string]any{"terms_id": terms.ID.String(), "version": terms.Version},
	})
	_ = s.publisher.Publish(ctx, events.StreamSwap, events.TermsProposed{
		SwapID:   swap.ID,
		TermsID:  terms.ID,
		Proposer: terms.ProposerUserID,
		Version:  terms.Version,
	})
}
