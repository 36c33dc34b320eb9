package usecase

import (
	"context"
	"log/slog"

	"qnadonate/src/core/domain"
	"qnadonate/src/core/ports"
)

// DonationService records donations against answers.
type DonationService struct {
	store    ports.QAStore
	identity ports.IdentityProvider
	clock    ports.Clock
	log      *slog.Logger
}

func NewDonationService(store ports.QAStore, identity ports.IdentityProvider, clock ports.Clock, log *slog.Logger) *DonationService {
	return &DonationService{store: store, identity: identity, clock: clock, log: log}
}

// Donate rejects non-positive amounts before touching the store.
func (s *DonationService) Donate(ctx context.Context, answerID string, amount int64) (*domain.Donation, error) {
	donorID, err := s.identity.CallerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateDonationAmount(amount); err != nil {
		return nil, err
	}
	d, err := s.store.Donate(ctx, answerID, amount, donorID, s.clock.Now())
	if err != nil {
		reportStoreFault(s.log, "donate", err, "answer_id", answerID)
		return nil, err
	}
	s.log.Info("donation recorded",
		"donation_id", d.ID,
		"answer_id", answerID,
		"donor_id", donorID,
		"amount", amount,
	)
	return d, nil
}

// reportStoreFault logs internal consistency failures loudly. Caller errors
// such as not found are left to the transport layer.
func reportStoreFault(log *slog.Logger, op string, err error, args ...any) {
	if !domain.IsInvariantViolation(err) && !domain.IsDuplicateID(err) {
		return
	}
	log.Error("store consistency fault", append([]any{"op", op, "error", err}, args...)...)
}
