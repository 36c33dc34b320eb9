package dto

import (
	"time"

	"qnadonate/src/core/domain"
)

// CreateQuestionRequest is the payload for POST /v1/questions.
// Empty title and content are accepted.
type CreateQuestionRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreateAnswerRequest is the payload for POST /v1/answers. An empty or
// unknown question_id is reported by the store as not found.
type CreateAnswerRequest struct {
	QuestionID string `json:"question_id"`
	Content    string `json:"content"`
}

// DonateRequest is the payload for POST /v1/donations.
// Amount is checked by the donation service, not by binding, so that zero
// and negative values get the domain validation error.
type DonateRequest struct {
	AnswerID string `json:"answer_id"`
	Amount   *int64 `json:"amount" binding:"required"`
}

type QuestionResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	TotalVote   int       `json:"total_vote"`
	TotalAnswer int       `json:"total_answer"`
	CreatedAt   time.Time `json:"created_at"`
	CreatorID   string    `json:"creator_id"`
}

func (QuestionResponse) FromDomain(q *domain.Question) QuestionResponse {
	return QuestionResponse{
		ID:          q.ID,
		Title:       q.Title,
		Content:     q.Content,
		TotalVote:   q.TotalVote,
		TotalAnswer: q.TotalAnswer,
		CreatedAt:   q.CreatedAt,
		CreatorID:   q.CreatorID,
	}
}

type AnswerResponse struct {
	ID                 string    `json:"id"`
	QuestionID         string    `json:"question_id"`
	Content            string    `json:"content"`
	TotalVote          int       `json:"total_vote"`
	TotalAmountDonated int64     `json:"total_amount_donated"`
	CreatedAt          time.Time `json:"created_at"`
	CreatorID          string    `json:"creator_id"`
}

func (AnswerResponse) FromDomain(a *domain.Answer) AnswerResponse {
	return AnswerResponse{
		ID:                 a.ID,
		QuestionID:         a.QuestionID,
		Content:            a.Content,
		TotalVote:          a.TotalVote,
		TotalAmountDonated: a.TotalAmountDonated,
		CreatedAt:          a.CreatedAt,
		CreatorID:          a.CreatorID,
	}
}

type DonationResponse struct {
	ID        string    `json:"id"`
	AnswerID  string    `json:"answer_id"`
	DonorID   string    `json:"donor_id"`
	CreatedAt time.Time `json:"created_at"`
	Amount    int64     `json:"amount"`
}

func (DonationResponse) FromDomain(d *domain.Donation) DonationResponse {
	return DonationResponse{
		ID:        d.ID,
		AnswerID:  d.AnswerID,
		DonorID:   d.DonorID,
		CreatedAt: d.CreatedAt,
		Amount:    d.Amount,
	}
}

// Questions converts a list, never returning nil so the wire shape is [].
func Questions(qs []domain.Question) []QuestionResponse {
	out := make([]QuestionResponse, 0, len(qs))
	for i := range qs {
		out = append(out, QuestionResponse{}.FromDomain(&qs[i]))
	}
	return out
}

func Answers(as []domain.Answer) []AnswerResponse {
	out := make([]AnswerResponse, 0, len(as))
	for i := range as {
		out = append(out, AnswerResponse{}.FromDomain(&as[i]))
	}
	return out
}

func Donations(ds []domain.Donation) []DonationResponse {
	out := make([]DonationResponse, 0, len(ds))
	for i := range ds {
		out = append(out, DonationResponse{}.FromDomain(&ds[i]))
	}
	return out
}
