package domain

// Entity kinds used in error messages and duplicate id reports.
const (
	KindQuestion = "question"
	KindAnswer   = "answer"
	KindDonation = "donation"
)

// IndexKind names a secondary index whose buckets are keyed by a parent id.
type IndexKind string

const (
	// IndexAnswersOf maps a question id to the ids of its answers.
	IndexAnswersOf IndexKind = "question_answers"

	// IndexDonationsOf maps an answer id to the ids of its donations.
	IndexDonationsOf IndexKind = "answer_donations"
)
