// Package ports defines interfaces (ports) that connect core domain to infrastructure.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern.
//
// Ports are defined here in the core layer, while implementations (adapters)
// live in src/infra. This ensures the core has no dependency on infrastructure.
package ports

import (
	"context"
	"time"

	"qnadonate/src/core/domain"
)

// Repository is the base interface for all repositories.
type Repository interface {
	// Health checks if the underlying storage is reachable.
	Health(ctx context.Context) error
}

// QAStore owns the question, answer and donation tables together with the
// answersOf and donationsOf index buckets.
//
// Every mutating method is a single transaction: either all of its writes
// (counter update, bucket creation, index insertion, row insertion) are
// committed, or none are.
type QAStore interface {
	Repository

	// CreateQuestion stores a new question with zero counters and an empty
	// answersOf bucket.
	CreateQuestion(ctx context.Context, title, content, callerID string, now time.Time) (*domain.Question, error)

	// CreateAnswer stores a new answer under questionID, increments the
	// question's TotalAnswer and creates an empty donationsOf bucket.
	CreateAnswer(ctx context.Context, questionID, content, callerID string, now time.Time) (*domain.Answer, error)

	// Donate records a donation against answerID and adds amount to the
	// answer's TotalAmountDonated.
	Donate(ctx context.Context, answerID string, amount int64, callerID string, now time.Time) (*domain.Donation, error)

	// ListQuestions returns every question in insertion order.
	ListQuestions(ctx context.Context) ([]domain.Question, error)

	// GetQuestion returns nil, nil when the question does not exist.
	GetQuestion(ctx context.Context, questionID string) (*domain.Question, error)

	// GetAnswer returns nil, nil when the answer does not exist.
	GetAnswer(ctx context.Context, answerID string) (*domain.Answer, error)

	// ListAnswersForQuestion fails with a not found error when the question
	// has no answersOf bucket.
	ListAnswersForQuestion(ctx context.Context, questionID string) ([]domain.Answer, error)

	// ListDonationHistory fails with a not found error when the answer has
	// no donationsOf bucket.
	ListDonationHistory(ctx context.Context, answerID string) ([]domain.Donation, error)
}
