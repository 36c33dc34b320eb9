package usecase

import (
	"context"
	"log/slog"

	"qnadonate/src/core/domain"
	"qnadonate/src/core/ports"
)

// QuestionService handles question flows.
type QuestionService struct {
	store    ports.QAStore
	identity ports.IdentityProvider
	clock    ports.Clock
	log      *slog.Logger
}

func NewQuestionService(store ports.QAStore, identity ports.IdentityProvider, clock ports.Clock, log *slog.Logger) *QuestionService {
	return &QuestionService{store: store, identity: identity, clock: clock, log: log}
}

// Create stores a question authored by the caller. Title and content are
// not validated.
func (s *QuestionService) Create(ctx context.Context, title, content string) (*domain.Question, error) {
	callerID, err := s.identity.CallerID(ctx)
	if err != nil {
		return nil, err
	}
	q, err := s.store.CreateQuestion(ctx, title, content, callerID, s.clock.Now())
	if err != nil {
		reportStoreFault(s.log, "create question", err)
		return nil, err
	}
	s.log.Info("question created", "question_id", q.ID, "creator_id", callerID)
	return q, nil
}

func (s *QuestionService) List(ctx context.Context) ([]domain.Question, error) {
	return s.store.ListQuestions(ctx)
}

// Get returns nil, nil for an unknown question.
func (s *QuestionService) Get(ctx context.Context, questionID string) (*domain.Question, error) {
	return s.store.GetQuestion(ctx, questionID)
}

func (s *QuestionService) ListAnswers(ctx context.Context, questionID string) ([]domain.Answer, error) {
	return s.store.ListAnswersForQuestion(ctx, questionID)
}
