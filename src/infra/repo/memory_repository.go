package repo

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"qnadonate/src/core/domain"
	"qnadonate/src/core/ports"
	"qnadonate/src/infra/logger"
)

// MemoryRepository implements QAStore in process memory.
//
// Mutations run through update, which hands the callback a memTx staging
// area over the committed state. Staged writes are applied only when the
// callback returns nil, so a failed call leaves no trace.
type MemoryRepository struct {
	mu    sync.RWMutex
	state memState
	ids   ports.IDGenerator
	log   *slog.Logger
}

var _ ports.QAStore = (*MemoryRepository)(nil)

type bucketKey struct {
	kind  domain.IndexKind
	owner string
}

// bucket is an insertion-ordered id set.
type bucket struct {
	order   []string
	members map[string]struct{}
}

func newBucket() *bucket {
	return &bucket{members: make(map[string]struct{})}
}

func (b *bucket) contains(id string) bool {
	_, ok := b.members[id]
	return ok
}

func (b *bucket) add(id string) {
	b.members[id] = struct{}{}
	b.order = append(b.order, id)
}

type memState struct {
	questions     map[string]domain.Question
	questionOrder []string
	answers       map[string]domain.Answer
	donations     map[string]domain.Donation
	buckets       map[bucketKey]*bucket
}

func newMemState() memState {
	return memState{
		questions: make(map[string]domain.Question),
		answers:   make(map[string]domain.Answer),
		donations: make(map[string]domain.Donation),
		buckets:   make(map[bucketKey]*bucket),
	}
}

// NewMemoryRepository constructs an empty in-memory store.
func NewMemoryRepository(ids ports.IDGenerator, log *slog.Logger) *MemoryRepository {
	return &MemoryRepository{
		state: newMemState(),
		ids:   ids,
		log:   logger.WithComponent(log, "memory_store"),
	}
}

func (r *MemoryRepository) Health(_ context.Context) error {
	return nil
}

// memTx stages writes on top of a committed memState.
type memTx struct {
	base *memState

	questions     map[string]domain.Question
	questionOrder []string
	answers       map[string]domain.Answer
	donations     map[string]domain.Donation
	newBuckets    map[bucketKey]struct{}
	added         map[bucketKey][]string
}

func newMemTx(base *memState) *memTx {
	return &memTx{
		base:       base,
		questions:  make(map[string]domain.Question),
		answers:    make(map[string]domain.Answer),
		donations:  make(map[string]domain.Donation),
		newBuckets: make(map[bucketKey]struct{}),
		added:      make(map[bucketKey][]string),
	}
}

func (tx *memTx) question(id string) (domain.Question, bool) {
	if q, ok := tx.questions[id]; ok {
		return q, true
	}
	q, ok := tx.base.questions[id]
	return q, ok
}

func (tx *memTx) answer(id string) (domain.Answer, bool) {
	if a, ok := tx.answers[id]; ok {
		return a, true
	}
	a, ok := tx.base.answers[id]
	return a, ok
}

func (tx *memTx) donationExists(id string) bool {
	if _, ok := tx.donations[id]; ok {
		return true
	}
	_, ok := tx.base.donations[id]
	return ok
}

func (tx *memTx) hasBucket(k bucketKey) bool {
	if _, ok := tx.newBuckets[k]; ok {
		return true
	}
	_, ok := tx.base.buckets[k]
	return ok
}

func (tx *memTx) createBucket(k bucketKey) error {
	if tx.hasBucket(k) {
		return domain.NewDuplicateIDError(string(k.kind), k.owner)
	}
	tx.newBuckets[k] = struct{}{}
	return nil
}

// addMember inserts id into an existing bucket. A member that is already
// present is a duplicate id fault.
func (tx *memTx) addMember(k bucketKey, id string) error {
	if !tx.hasBucket(k) {
		return domain.NewMissingBucketError(k.kind, k.owner)
	}
	if b, ok := tx.base.buckets[k]; ok && b.contains(id) {
		return domain.NewDuplicateIDError(string(k.kind), id)
	}
	for _, staged := range tx.added[k] {
		if staged == id {
			return domain.NewDuplicateIDError(string(k.kind), id)
		}
	}
	tx.added[k] = append(tx.added[k], id)
	return nil
}

func (tx *memTx) putQuestion(q domain.Question, isNew bool) {
	if isNew {
		tx.questionOrder = append(tx.questionOrder, q.ID)
	}
	tx.questions[q.ID] = q
}

func (tx *memTx) commit() {
	s := tx.base
	for id, q := range tx.questions {
		s.questions[id] = q
	}
	s.questionOrder = append(s.questionOrder, tx.questionOrder...)
	for id, a := range tx.answers {
		s.answers[id] = a
	}
	for id, d := range tx.donations {
		s.donations[id] = d
	}
	for k := range tx.newBuckets {
		s.buckets[k] = newBucket()
	}
	for k, ids := range tx.added {
		b := s.buckets[k]
		for _, id := range ids {
			b.add(id)
		}
	}
}

// update runs fn against a staging area and commits it only if fn succeeds.
func (r *MemoryRepository) update(fn func(tx *memTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := newMemTx(&r.state)
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// Mutations

func (r *MemoryRepository) CreateQuestion(_ context.Context, title, content, callerID string, now time.Time) (*domain.Question, error) {
	var out domain.Question
	err := r.update(func(tx *memTx) error {
		id := r.ids.GenerateID()
		if _, exists := tx.question(id); exists {
			return domain.NewDuplicateIDError(domain.KindQuestion, id)
		}
		if err := tx.createBucket(bucketKey{domain.IndexAnswersOf, id}); err != nil {
			return err
		}
		out = domain.NewQuestion(id, title, content, callerID, now)
		tx.putQuestion(out, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MemoryRepository) CreateAnswer(_ context.Context, questionID, content, callerID string, now time.Time) (*domain.Answer, error) {
	var out domain.Answer
	err := r.update(func(tx *memTx) error {
		q, ok := tx.question(questionID)
		if !ok {
			return domain.NewNotFoundError(domain.KindQuestion, questionID)
		}
		answersOf := bucketKey{domain.IndexAnswersOf, questionID}
		if !tx.hasBucket(answersOf) {
			return domain.NewMissingBucketError(domain.IndexAnswersOf, questionID)
		}

		q.TotalAnswer++
		tx.putQuestion(q, false)

		id := r.ids.GenerateID()
		if _, exists := tx.answer(id); exists {
			return domain.NewDuplicateIDError(domain.KindAnswer, id)
		}
		if err := tx.createBucket(bucketKey{domain.IndexDonationsOf, id}); err != nil {
			return err
		}
		if err := tx.addMember(answersOf, id); err != nil {
			return err
		}
		out = domain.NewAnswer(id, questionID, content, callerID, now)
		tx.answers[id] = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MemoryRepository) Donate(_ context.Context, answerID string, amount int64, callerID string, now time.Time) (*domain.Donation, error) {
	if err := domain.ValidateDonationAmount(amount); err != nil {
		return nil, err
	}

	var out domain.Donation
	err := r.update(func(tx *memTx) error {
		a, ok := tx.answer(answerID)
		if !ok {
			return domain.NewNotFoundError(domain.KindAnswer, answerID)
		}
		donationsOf := bucketKey{domain.IndexDonationsOf, answerID}
		if !tx.hasBucket(donationsOf) {
			return domain.NewMissingBucketError(domain.IndexDonationsOf, answerID)
		}

		if err := domain.ValidateDonationFits(a.TotalAmountDonated, amount); err != nil {
			return err
		}

		id := r.ids.GenerateID()
		if err := tx.addMember(donationsOf, id); err != nil {
			return err
		}
		if tx.donationExists(id) {
			return domain.NewDuplicateIDError(domain.KindDonation, id)
		}

		a.TotalAmountDonated += amount
		tx.answers[a.ID] = a

		out = domain.NewDonation(id, answerID, callerID, amount, now)
		tx.donations[id] = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Reads

func (r *MemoryRepository) ListQuestions(_ context.Context) ([]domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Question, 0, len(r.state.questionOrder))
	for _, id := range r.state.questionOrder {
		out = append(out, r.state.questions[id])
	}
	return out, nil
}

func (r *MemoryRepository) GetQuestion(_ context.Context, questionID string) (*domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.state.questions[questionID]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (r *MemoryRepository) GetAnswer(_ context.Context, answerID string) (*domain.Answer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.state.answers[answerID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *MemoryRepository) ListAnswersForQuestion(_ context.Context, questionID string) ([]domain.Answer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.state.buckets[bucketKey{domain.IndexAnswersOf, questionID}]
	if !ok {
		return nil, domain.NewNotFoundError(domain.KindQuestion, questionID)
	}
	out := make([]domain.Answer, 0, len(b.order))
	for _, id := range b.order {
		a, ok := r.state.answers[id]
		if !ok {
			logDanglingEntry(r.log, domain.IndexAnswersOf, questionID, id)
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *MemoryRepository) ListDonationHistory(_ context.Context, answerID string) ([]domain.Donation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.state.buckets[bucketKey{domain.IndexDonationsOf, answerID}]
	if !ok {
		return nil, domain.NewNotFoundError(domain.KindAnswer, answerID)
	}
	out := make([]domain.Donation, 0, len(b.order))
	for _, id := range b.order {
		d, ok := r.state.donations[id]
		if !ok {
			logDanglingEntry(r.log, domain.IndexDonationsOf, answerID, id)
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
