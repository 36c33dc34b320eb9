package usecase

import (
	"context"
	"log/slog"

	"qnadonate/src/core/domain"
	"qnadonate/src/core/ports"
)

// AnswerService handles answer flows.
type AnswerService struct {
	store    ports.QAStore
	identity ports.IdentityProvider
	clock    ports.Clock
	log      *slog.Logger
}

func NewAnswerService(store ports.QAStore, identity ports.IdentityProvider, clock ports.Clock, log *slog.Logger) *AnswerService {
	return &AnswerService{store: store, identity: identity, clock: clock, log: log}
}

func (s *AnswerService) Create(ctx context.Context, questionID, content string) (*domain.Answer, error) {
	callerID, err := s.identity.CallerID(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.store.CreateAnswer(ctx, questionID, content, callerID, s.clock.Now())
	if err != nil {
		reportStoreFault(s.log, "create answer", err, "question_id", questionID)
		return nil, err
	}
	s.log.Info("answer created", "answer_id", a.ID, "question_id", questionID, "creator_id", callerID)
	return a, nil
}

// Get returns nil, nil for an unknown answer.
func (s *AnswerService) Get(ctx context.Context, answerID string) (*domain.Answer, error) {
	return s.store.GetAnswer(ctx, answerID)
}

func (s *AnswerService) ListDonations(ctx context.Context, answerID string) ([]domain.Donation, error) {
	return s.store.ListDonationHistory(ctx, answerID)
}
