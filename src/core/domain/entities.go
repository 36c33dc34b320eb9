package domain

import (
	"math"
	"time"
)

// Question is a question asked on the platform.
// TotalAnswer is maintained by the store and always equals the size of the
// question's answersOf bucket.
type Question struct {
	ID          string
	Title       string
	Content     string
	TotalVote   int
	TotalAnswer int
	CreatedAt   time.Time
	CreatorID   string
}

// Answer is an answer to a question.
// TotalAmountDonated always equals the sum of the amounts in its donationsOf bucket.
type Answer struct {
	ID                 string
	QuestionID         string
	Content            string
	TotalVote          int
	TotalAmountDonated int64
	CreatedAt          time.Time
	CreatorID          string
}

// Donation is an amount given to an answer by a donor.
type Donation struct {
	ID        string
	AnswerID  string
	DonorID   string
	CreatedAt time.Time
	Amount    int64
}

// NewQuestion builds a question with zeroed counters.
func NewQuestion(id, title, content, creatorID string, createdAt time.Time) Question {
	return Question{
		ID:        id,
		Title:     title,
		Content:   content,
		CreatedAt: createdAt,
		CreatorID: creatorID,
	}
}

// NewAnswer builds an answer with zeroed counters.
func NewAnswer(id, questionID, content, creatorID string, createdAt time.Time) Answer {
	return Answer{
		ID:         id,
		QuestionID: questionID,
		Content:    content,
		CreatedAt:  createdAt,
		CreatorID:  creatorID,
	}
}

// NewDonation builds a donation record.
func NewDonation(id, answerID, donorID string, amount int64, createdAt time.Time) Donation {
	return Donation{
		ID:        id,
		AnswerID:  answerID,
		DonorID:   donorID,
		CreatedAt: createdAt,
		Amount:    amount,
	}
}

// ValidateDonationAmount rejects zero and negative amounts.
func ValidateDonationAmount(amount int64) error {
	if amount <= 0 {
		return NewValidationError("amount", "must be a positive integer")
	}
	return nil
}

// ValidateDonationFits rejects an amount that would overflow the answer's
// running total.
func ValidateDonationFits(total, amount int64) error {
	if amount > math.MaxInt64-total {
		return NewValidationError("amount", "would overflow the answer's donated total")
	}
	return nil
}
