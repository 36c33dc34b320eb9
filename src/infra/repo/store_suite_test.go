package repo

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qnadonate/src/core/domain"
	"qnadonate/src/core/ports"
	"qnadonate/src/infra/idgen"
)

var suiteNow = time.Date(2024, 3, 9, 14, 30, 0, 123_000_000, time.UTC)

// storeHarness wraps a fresh, empty store plus backend-specific hooks used
// to simulate corruption that the public API can never produce.
type storeHarness struct {
	store            ports.QAStore
	dropBucket       func(t *testing.T, kind domain.IndexKind, ownerID string)
	addDanglingEntry func(t *testing.T, kind domain.IndexKind, ownerID, memberID string)
}

type harnessFactory func(t *testing.T, ids ports.IDGenerator) storeHarness

// scriptedIDs returns the given ids in order, then "extra-N".
type scriptedIDs struct {
	ids []string
	n   int
}

func (s *scriptedIDs) GenerateID() string {
	s.n++
	if s.n <= len(s.ids) {
		return s.ids[s.n-1]
	}
	return fmt.Sprintf("extra-%d", s.n)
}

func runStoreSuite(t *testing.T, newHarness harnessFactory) {
	t.Run("Scenario", func(t *testing.T) { testScenario(t, newHarness) })
	t.Run("CreateQuestionAcceptsEmptyFields", func(t *testing.T) { testEmptyFields(t, newHarness) })
	t.Run("AbsentLookups", func(t *testing.T) { testAbsentLookups(t, newHarness) })
	t.Run("IdempotentReads", func(t *testing.T) { testIdempotentReads(t, newHarness) })
	t.Run("ListQuestionsInsertionOrder", func(t *testing.T) { testListQuestionsOrder(t, newHarness) })
	t.Run("CountersMatchIndices", func(t *testing.T) { testCountersMatchIndices(t, newHarness) })
	t.Run("NotFoundLeavesNoTrace", func(t *testing.T) { testNotFound(t, newHarness) })
	t.Run("RejectsNonPositiveAmount", func(t *testing.T) { testNonPositiveAmount(t, newHarness) })
	t.Run("DonationOverflowRejected", func(t *testing.T) { testDonationOverflow(t, newHarness) })
	t.Run("MissingBucketIsInvariantViolation", func(t *testing.T) { testMissingBucket(t, newHarness) })
	t.Run("DanglingEntriesAreSkipped", func(t *testing.T) { testDanglingEntries(t, newHarness) })
	t.Run("DuplicateQuestionID", func(t *testing.T) { testDuplicateQuestionID(t, newHarness) })
	t.Run("DuplicateAnswerIDRollsBack", func(t *testing.T) { testDuplicateAnswerID(t, newHarness) })
	t.Run("DuplicateDonationIDRollsBack", func(t *testing.T) { testDuplicateDonationID(t, newHarness) })
}

func testScenario(t *testing.T, newHarness harnessFactory) {
	ctx := context.Background()
	s := newHarness(t, idgen.UUID{}).store

	q, err := s.CreateQuestion(ctx, "T", "C", "alice", suiteNow)
	require.NoError(t, err)
	assert.Equal(t, 0, q.TotalAnswer)
	assert.Equal(t, 0, q.TotalVote)
	assert.Equal(t, "alice", q.CreatorID)
	assert.True(t, suiteNow.Equal(q.CreatedAt))

	a, err := s.CreateAnswer(ctx, q.ID, "A", "bob", suiteNow)
	require.NoError(t, err)
	assert.Equal(t, int64(0), a.TotalAmountDonated)
	assert.Equal(t, q.ID, a.QuestionID)

	got, err := s.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.TotalAnswer)

	d1, err := s.Donate(ctx, a.ID, 10, "carol", suiteNow)
	require.NoError(t, err)
	assert.Equal(t, "carol", d1.DonorID)
	assert.Equal(t, a.ID, d1.AnswerID)
	_, err = s.Donate(ctx, a.ID, 4, "dave", suiteNow)
	require.NoError(t, err)

	gotA, err := s.GetAnswer(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, gotA)
	assert.Equal(t, int64(14), gotA.TotalAmountDonated)

	history, err := s.ListDonationHistory(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = s.CreateQuestion(ctx, "T2", "C2", "alice", suiteNow)
	require.NoError(t, err)
	questions, err := s.ListQuestions(ctx)
	require.NoError(t, err)
	assert.Len(t, questions, 2)

	_, err = s.ListAnswersForQuestion(ctx, "no-such-question")
	assert.True(t, domain.IsNotFound(err))
}

func testEmptyFields(t *testing.T, newHarness harnessFactory) {
	ctx := context.Background()
	s := newHarness(t, idgen.UUID{}).store

	q, err := s.CreateQuestion(ctx, "", "", "alice", suiteNow)
	require.NoError(t, err)

	got, err := s.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Title)
	assert.Empty(t, got.Content)

	answers, err := s.ListAnswersForQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Empty(t, answers)
}

func testAbsentLookups(t *testing.T, newHarness harnessFactory) {
	ctx := context.Background()
	s := newHarness(t, idgen.UUID{}).store

	q, err := s.GetQuestion(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, q)

	a, err := s.GetAnswer(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, a)

	_, err = s.ListDonationHistory(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))

	questions, err := s.ListQuestions(ctx)
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func testIdempotentReads(t *testing.T, newHarness harnessFactory) {
	ctx := context.Background()
	s := newHarness(t, idgen.UUID{}).store

	q, err := s.CreateQuestion(ctx, "T", "C", "alice", suiteNow)
	require.NoError(t, err)
	a, err := s.CreateAnswer(ctx, q.ID, "A", "bob", suiteNow)
	require.NoError(t, err)

	q1, err := s.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	q2, err := s.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q1, q2)

	a1, err := s.GetAnswer(ctx, a.ID)
	require.NoError(t, err)
	a2, err := s.GetAnswer(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
	assert.Equal(t, *a, *a1)
}

func testListQuestionsOrder(t *testing.T, newHarness harnessFactory) {
	ctx := context.Background()
	s := newHarness(t, &scriptedIDs{ids: []string{"q-c", "q-a", "q-b"}}).store

	for _, title := range []string{"first", "second", "third"} {
		_, err := s.CreateQuestion(ctx, title, "", "alice", suiteNow)
		require.NoError(t, err)
	}

	questions, err := s.ListQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, questions, 3)
	assert.Equal(t, []string{"q-c", "q-a", "q-b"}, questionIDs(questions))
	assert.Equal(t, "first", questions[0].Title)
}

func testCountersMatchIndices(t *testing.T, newHarness harnessFactory) {
	ctx := context.Background()
	s := newHarness(t, idgen.NewULID()).store

	wantAnswers := make(map[string][]string)
	wantDonations := make(map[string][]string)
	wantTotals := make(map[string]int64)

	var qids []string
	for i := 0; i < 3; i++ {
		q, err := s.CreateQuestion(ctx, fmt.Sprintf("q%d", i), "", "alice", suiteNow)
		require.NoError(t, err)
		qids = append(qids, q.ID)
		wantAnswers[q.ID] = []string{}
	}

	for i := 0; i < 7; i++ {
		qid := qids[i%2] // the third question never gets answers
		a, err := s.CreateAnswer(ctx, qid, fmt.Sprintf("a%d", i), "bob", suiteNow)
		require.NoError(t, err)
		wantAnswers[qid] = append(wantAnswers[qid], a.ID)
		wantDonations[a.ID] = []string{}

		for j := 0; j < i%3; j++ {
			amount := int64(i*10 + j + 1)
			d, err := s.Donate(ctx, a.ID, amount, "carol", suiteNow)
			require.NoError(t, err)
			wantDonations[a.ID] = append(wantDonations[a.ID], d.ID)
			wantTotals[a.ID] += amount
		}
	}

	for _, qid := range qids {
		q, err := s.GetQuestion(ctx, qid)
		require.NoError(t, err)
		require.NotNil(t, q)
		assert.Equal(t, len(wantAnswers[qid]), q.TotalAnswer)

		answers, err := s.ListAnswersForQuestion(ctx, qid)
		require.NoError(t, err)
		assert.Equal(t, wantAnswers[qid], answerIDs(answers))

		for _, a := range answers {
			assert.Equal(t, wantTotals[a.ID], a.TotalAmountDonated)

			history, err := s.ListDonationHistory(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, wantDonations[a.ID], donationIDs(history))

			var sum int64
			for _, d := range history {
				sum += d.Amount
			}
			assert.Equal(t, a.TotalAmountDonated, sum)
		}
	}
}

func testNotFound(t *testing.T, newHarness harnessFactory) {
	ctx := context.Background()
	s := newHarness(t, idgen.UUID{}).store

	_, err := s.CreateAnswer(ctx, "missing", "A", "bob", suiteNow)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))

	_, err = s.Donate(ctx, "missing", 5, "carol", suiteNow)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))

	_, err = s.ListAnswersForQuestion(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))

	questions, err := s.ListQuestions(ctx)
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func testNonPositiveAmount(t *testing.T, newHarness harnessFactory) {
	ctx := context.Background()
	s := newHarness(t, idgen.UUID{}).store

	q, err := s.CreateQuestion(ctx, "T", "C", "alice", suiteNow)
	require.NoError(t, err)
	a, err := s.CreateAnswer(ctx, q.ID, "A", "bob", suiteNow)
	require.NoError(t, err)

	for _, amount := range []int64{0, -3} {
		_, err := s.Donate(ctx, a.ID, amount, "carol", suiteNow)
		require.Error(t, err)
		assert.True(t, domain.IsValidationError(err))
	}

	// validation runs before the answer lookup
	_, err = s.Donate(ctx, "missing", 0, "carol", suiteNow)
	assert.True(t, domain.IsValidationError(err))

	history, err := s.ListDonationHistory(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func testDonationOverflow(t *testing.T, newHarness harnessFactory) {
	ctx := context.Background()
	s := newHarness(t, idgen.UUID{}).store

	q, err := s.CreateQuestion(ctx, "T", "C", "alice", suiteNow)
	require.NoError(t, err)
	a, err := s.CreateAnswer(ctx, q.ID, "A", "bob", suiteNow)
	require.NoError(t, err)

	_, err = s.Donate(ctx, a.ID, math.MaxInt64-5, "carol", suiteNow)
	require.NoError(t, err)
	_, err = s.Donate(ctx, a.ID, 5, "carol", suiteNow)
	require.NoError(t, err)

	_, err = s.Donate(ctx, a.ID, 1, "dave", suiteNow)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))

	got, err := s.GetAnswer(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(math.MaxInt64), got.TotalAmountDonated)

	history, err := s.ListDonationHistory(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	answers, err := s.ListAnswersForQuestion(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, int64(math.MaxInt64), answers[0].TotalAmountDonated)
}

func testMissingBucket(t *testing.T, newHarness harnessFactory) {
	ctx := context.Background()
	h := newHarness(t, idgen.UUID{})
	s := h.store

	q, err := s.CreateQuestion(ctx, "T", "C", "alice", suiteNow)
	require.NoError(t, err)
	h.dropBucket(t, domain.IndexAnswersOf, q.ID)

	_, err = s.CreateAnswer(ctx, q.ID, "A", "bob", suiteNow)
	require.Error(t, err)
	assert.True(t, domain.IsInvariantViolation(err))

	got, err := s.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0, got.TotalAnswer, "failed call must not bump the counter")

	_, err = s.ListAnswersForQuestion(ctx, q.ID)
	assert.True(t, domain.IsNotFound(err))

	q2, err := s.CreateQuestion(ctx, "T2", "C2", "alice", suiteNow)
	require.NoError(t, err)
	a, err := s.CreateAnswer(ctx, q2.ID, "A", "bob", suiteNow)
	require.NoError(t, err)
	h.dropBucket(t, domain.IndexDonationsOf, a.ID)

	_, err = s.Donate(ctx, a.ID, 10, "carol", suiteNow)
	require.Error(t, err)
	assert.True(t, domain.IsInvariantViolation(err))

	gotA, err := s.GetAnswer(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, gotA)
	assert.Equal(t, int64(0), gotA.TotalAmountDonated)
}

func testDanglingEntries(t *testing.T, newHarness harnessFactory) {
	ctx := context.Background()
	h := newHarness(t, idgen.UUID{})
	s := h.store

	q, err := s.CreateQuestion(ctx, "T", "C", "alice", suiteNow)
	require.NoError(t, err)
	a, err := s.CreateAnswer(ctx, q.ID, "A", "bob", suiteNow)
	require.NoError(t, err)
	d, err := s.Donate(ctx, a.ID, 3, "carol", suiteNow)
	require.NoError(t, err)

	h.addDanglingEntry(t, domain.IndexAnswersOf, q.ID, "ghost-answer")
	h.addDanglingEntry(t, domain.IndexDonationsOf, a.ID, "ghost-donation")

	answers, err := s.ListAnswersForQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, answerIDs(answers))

	history, err := s.ListDonationHistory(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{d.ID}, donationIDs(history))
}

func testDuplicateQuestionID(t *testing.T, newHarness harnessFactory) {
	ctx := context.Background()
	s := newHarness(t, &scriptedIDs{ids: []string{"q-1", "q-1"}}).store

	_, err := s.CreateQuestion(ctx, "T", "C", "alice", suiteNow)
	require.NoError(t, err)

	_, err = s.CreateQuestion(ctx, "T2", "C2", "mallory", suiteNow)
	require.Error(t, err)
	assert.True(t, domain.IsDuplicateID(err))

	got, err := s.GetQuestion(ctx, "q-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "T", got.Title, "original row must not be overwritten")

	questions, err := s.ListQuestions(ctx)
	require.NoError(t, err)
	assert.Len(t, questions, 1)
}

func testDuplicateAnswerID(t *testing.T, newHarness harnessFactory) {
	ctx := context.Background()
	s := newHarness(t, &scriptedIDs{ids: []string{"q-1", "a-1", "a-1"}}).store

	_, err := s.CreateQuestion(ctx, "T", "C", "alice", suiteNow)
	require.NoError(t, err)
	_, err = s.CreateAnswer(ctx, "q-1", "A", "bob", suiteNow)
	require.NoError(t, err)

	_, err = s.CreateAnswer(ctx, "q-1", "again", "bob", suiteNow)
	require.Error(t, err)
	assert.True(t, domain.IsDuplicateID(err))

	q, err := s.GetQuestion(ctx, "q-1")
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, 1, q.TotalAnswer)

	answers, err := s.ListAnswersForQuestion(ctx, "q-1")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "A", answers[0].Content)
}

func testDuplicateDonationID(t *testing.T, newHarness harnessFactory) {
	ctx := context.Background()
	s := newHarness(t, &scriptedIDs{ids: []string{"q-1", "a-1", "d-1", "d-1"}}).store

	_, err := s.CreateQuestion(ctx, "T", "C", "alice", suiteNow)
	require.NoError(t, err)
	_, err = s.CreateAnswer(ctx, "q-1", "A", "bob", suiteNow)
	require.NoError(t, err)
	_, err = s.Donate(ctx, "a-1", 10, "carol", suiteNow)
	require.NoError(t, err)

	_, err = s.Donate(ctx, "a-1", 99, "carol", suiteNow)
	require.Error(t, err)
	assert.True(t, domain.IsDuplicateID(err))

	a, err := s.GetAnswer(ctx, "a-1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, int64(10), a.TotalAmountDonated)

	history, err := s.ListDonationHistory(ctx, "a-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, int64(10), history[0].Amount)
}

func questionIDs(qs []domain.Question) []string {
	ids := make([]string, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.ID)
	}
	return ids
}

func answerIDs(as []domain.Answer) []string {
	ids := make([]string, 0, len(as))
	for _, a := range as {
		ids = append(ids, a.ID)
	}
	return ids
}

func donationIDs(ds []domain.Donation) []string {
	ids := make([]string, 0, len(ds))
	for _, d := range ds {
		ids = append(ids, d.ID)
	}
	return ids
}
