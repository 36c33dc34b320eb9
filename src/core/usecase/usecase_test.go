package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qnadonate/src/core/domain"
	"qnadonate/src/core/ports"
	"qnadonate/src/core/usecase"
	"qnadonate/src/infra/clock"
	"qnadonate/src/infra/config"
	"qnadonate/src/infra/identity"
	"qnadonate/src/infra/idgen"
	"qnadonate/src/infra/logger"
	"qnadonate/src/infra/repo"
)

var fixedAt = time.Date(2024, 3, 9, 14, 30, 15, 0, time.UTC)

type services struct {
	questions *usecase.QuestionService
	answers   *usecase.AnswerService
	donations *usecase.DonationService
}

func newServices(t *testing.T, c ports.Clock) services {
	t.Helper()
	log := logger.Discard()
	store := repo.NewMemoryRepository(idgen.NewSequence("id"), log)
	ids := identity.ContextProvider{}
	return services{
		questions: usecase.NewQuestionService(store, ids, c, log),
		answers:   usecase.NewAnswerService(store, ids, c, log),
		donations: usecase.NewDonationService(store, ids, c, log),
	}
}

func as(caller string) context.Context {
	return identity.WithCaller(context.Background(), caller)
}

func TestServices_AskAnswerDonate(t *testing.T) {
	svc := newServices(t, clock.Fixed{At: fixedAt})

	q, err := svc.questions.Create(as("alice"), "Why?", "Because.")
	require.NoError(t, err)
	assert.Equal(t, "alice", q.CreatorID)
	assert.Equal(t, fixedAt, q.CreatedAt)

	a, err := svc.answers.Create(as("bob"), q.ID, "Just so.")
	require.NoError(t, err)
	assert.Equal(t, "bob", a.CreatorID)

	d, err := svc.donations.Donate(as("carol"), a.ID, 25)
	require.NoError(t, err)
	assert.Equal(t, "carol", d.DonorID)
	assert.Equal(t, int64(25), d.Amount)

	gotQ, err := svc.questions.Get(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotQ.TotalAnswer)

	gotA, err := svc.answers.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), gotA.TotalAmountDonated)

	history, err := svc.answers.ListDonations(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, d.ID, history[0].ID)

	answers, err := svc.questions.ListAnswers(context.Background(), q.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)

	all, err := svc.questions.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestServices_TruncatingClock(t *testing.T) {
	svc := newServices(t, clock.DayTruncating{Base: clock.Fixed{At: fixedAt}})

	q, err := svc.questions.Create(as("alice"), "t", "c")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), q.CreatedAt)
}

func TestServices_RequireCaller(t *testing.T) {
	svc := newServices(t, clock.Fixed{At: fixedAt})
	ctx := context.Background()

	_, err := svc.questions.Create(ctx, "t", "c")
	assert.True(t, domain.IsUnauthorized(err))

	_, err = svc.answers.Create(ctx, "id-1", "c")
	assert.True(t, domain.IsUnauthorized(err))

	_, err = svc.donations.Donate(ctx, "id-1", 5)
	assert.True(t, domain.IsUnauthorized(err))

	all, err := svc.questions.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDonationService_RejectsNonPositiveAmount(t *testing.T) {
	svc := newServices(t, clock.Fixed{At: fixedAt})
	q, err := svc.questions.Create(as("alice"), "t", "c")
	require.NoError(t, err)
	a, err := svc.answers.Create(as("bob"), q.ID, "c")
	require.NoError(t, err)

	for _, amount := range []int64{0, -10} {
		_, err := svc.donations.Donate(as("carol"), a.ID, amount)
		assert.True(t, domain.IsValidationError(err), "amount %d", amount)
	}

	history, err := svc.answers.ListDonations(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestServices_UnknownParent(t *testing.T) {
	svc := newServices(t, clock.Fixed{At: fixedAt})

	_, err := svc.answers.Create(as("bob"), "nope", "c")
	assert.True(t, domain.IsNotFound(err))

	_, err = svc.donations.Donate(as("carol"), "nope", 5)
	assert.True(t, domain.IsNotFound(err))
}

// faultyStore fails every mutation with the configured error.
type faultyStore struct {
	ports.QAStore
	err error
}

func (s faultyStore) CreateQuestion(context.Context, string, string, string, time.Time) (*domain.Question, error) {
	return nil, s.err
}

func (s faultyStore) Health(context.Context) error {
	return s.err
}

func TestQuestionService_LogsConsistencyFaults(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(config.LogConfig{Level: "info", Format: "plain"}, &buf)
	store := faultyStore{err: domain.NewDuplicateIDError(domain.KindQuestion, "q-1")}
	svc := usecase.NewQuestionService(store, identity.ContextProvider{}, clock.Fixed{At: fixedAt}, log)

	_, err := svc.Create(as("alice"), "t", "c")
	require.Error(t, err)
	assert.True(t, domain.IsDuplicateID(err))
	assert.Contains(t, buf.String(), "store consistency fault op=create question")
}

func TestQuestionService_DoesNotLogCallerErrors(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(config.LogConfig{Level: "info", Format: "plain"}, &buf)
	store := faultyStore{err: domain.NewNotFoundError(domain.KindQuestion, "q-1")}
	svc := usecase.NewQuestionService(store, identity.ContextProvider{}, clock.Fixed{At: fixedAt}, log)

	_, err := svc.Create(as("alice"), "t", "c")
	require.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestHealthService(t *testing.T) {
	log := logger.Discard()

	ok := usecase.NewHealthService(repo.NewMemoryRepository(idgen.NewSequence("id"), log), log).Check(context.Background())
	assert.Equal(t, "ok", ok.Status)
	assert.Equal(t, "healthy", ok.Components["store"].Status)

	bad := usecase.NewHealthService(faultyStore{err: errors.New("connection refused")}, log).Check(context.Background())
	assert.Equal(t, "degraded", bad.Status)
	assert.Equal(t, "unhealthy", bad.Components["store"].Status)
	assert.Equal(t, "connection refused", bad.Components["store"].Message)
}
