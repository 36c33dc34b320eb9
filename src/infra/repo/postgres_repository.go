package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"qnadonate/src/core/domain"
	"qnadonate/src/core/ports"
	"qnadonate/src/infra/db"
	"qnadonate/src/infra/logger"
)

// PostgresRepository implements QAStore using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
	ids  ports.IDGenerator
	log  *slog.Logger
}

var _ ports.QAStore = (*PostgresRepository)(nil)

// NewPostgresRepository constructs a repository backed by Postgres.
func NewPostgresRepository(pg *db.Postgres, ids ports.IDGenerator, log *slog.Logger) *PostgresRepository {
	return &PostgresRepository{
		pool: pg.Pool,
		ids:  ids,
		log:  logger.WithComponent(log, "postgres_store"),
	}
}

func (r *PostgresRepository) Health(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

const (
	questionColumns = `id, title, content, total_vote, total_answer, created_at, creator_id`
	answerColumns   = `id, question_id, content, total_vote, total_amount_donated, created_at, creator_id`
	donationColumns = `id, answer_id, donor_id, created_at, amount`
)

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var q domain.Question
	err := row.Scan(&q.ID, &q.Title, &q.Content, &q.TotalVote, &q.TotalAnswer, &q.CreatedAt, &q.CreatorID)
	q.CreatedAt = q.CreatedAt.UTC()
	return q, err
}

func scanAnswer(row pgx.Row) (domain.Answer, error) {
	var a domain.Answer
	err := row.Scan(&a.ID, &a.QuestionID, &a.Content, &a.TotalVote, &a.TotalAmountDonated, &a.CreatedAt, &a.CreatorID)
	a.CreatedAt = a.CreatedAt.UTC()
	return a, err
}

func scanDonation(row pgx.Row) (domain.Donation, error) {
	var d domain.Donation
	err := row.Scan(&d.ID, &d.AnswerID, &d.DonorID, &d.CreatedAt, &d.Amount)
	d.CreatedAt = d.CreatedAt.UTC()
	return d, err
}

// Index buckets

func (r *PostgresRepository) createBucketTx(ctx context.Context, tx pgx.Tx, kind domain.IndexKind, ownerID string) error {
	const q = `INSERT INTO index_buckets (kind, owner_id) VALUES ($1, $2)`
	if _, err := tx.Exec(ctx, q, string(kind), ownerID); err != nil {
		if isUniqueViolation(err) {
			return domain.NewDuplicateIDError(string(kind), ownerID)
		}
		return fmt.Errorf("create %s bucket: %w", kind, err)
	}
	return nil
}

func (r *PostgresRepository) bucketExists(ctx context.Context, q pgxQuerier, kind domain.IndexKind, ownerID string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM index_buckets WHERE kind = $1 AND owner_id = $2)`,
		string(kind), ownerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup %s bucket: %w", kind, err)
	}
	return exists, nil
}

func (r *PostgresRepository) addMemberTx(ctx context.Context, tx pgx.Tx, kind domain.IndexKind, ownerID, memberID string) error {
	const q = `INSERT INTO index_entries (kind, owner_id, member_id) VALUES ($1, $2, $3)`
	if _, err := tx.Exec(ctx, q, string(kind), ownerID, memberID); err != nil {
		if isUniqueViolation(err) {
			return domain.NewDuplicateIDError(string(kind), memberID)
		}
		return fmt.Errorf("insert %s entry: %w", kind, err)
	}
	return nil
}

// pgxQuerier is satisfied by both the pool and a transaction.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Mutations

func (r *PostgresRepository) CreateQuestion(ctx context.Context, title, content, callerID string, now time.Time) (*domain.Question, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	q := domain.NewQuestion(r.ids.GenerateID(), title, content, callerID, now)

	const insertQ = `
		INSERT INTO questions (id, title, content, total_vote, total_answer, created_at, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.Exec(ctx, insertQ, q.ID, q.Title, q.Content, q.TotalVote, q.TotalAnswer, q.CreatedAt, q.CreatorID); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.NewDuplicateIDError(domain.KindQuestion, q.ID)
		}
		return nil, fmt.Errorf("insert question: %w", err)
	}
	if err := r.createBucketTx(ctx, tx, domain.IndexAnswersOf, q.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *PostgresRepository) CreateAnswer(ctx context.Context, questionID, content, callerID string, now time.Time) (*domain.Answer, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Lock the question row so concurrent answers serialize on its counter
	const lockQ = `SELECT total_answer FROM questions WHERE id = $1 FOR UPDATE`
	var totalAnswer int
	if err := tx.QueryRow(ctx, lockQ, questionID).Scan(&totalAnswer); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError(domain.KindQuestion, questionID)
		}
		return nil, fmt.Errorf("lock question: %w", err)
	}
	ok, err := r.bucketExists(ctx, tx, domain.IndexAnswersOf, questionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewMissingBucketError(domain.IndexAnswersOf, questionID)
	}

	if _, err := tx.Exec(ctx, `UPDATE questions SET total_answer = total_answer + 1 WHERE id = $1`, questionID); err != nil {
		return nil, fmt.Errorf("increment total_answer: %w", err)
	}

	a := domain.NewAnswer(r.ids.GenerateID(), questionID, content, callerID, now)

	const insertQ = `
		INSERT INTO answers (id, question_id, content, total_vote, total_amount_donated, created_at, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.Exec(ctx, insertQ, a.ID, a.QuestionID, a.Content, a.TotalVote, a.TotalAmountDonated, a.CreatedAt, a.CreatorID); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.NewDuplicateIDError(domain.KindAnswer, a.ID)
		}
		return nil, fmt.Errorf("insert answer: %w", err)
	}
	if err := r.createBucketTx(ctx, tx, domain.IndexDonationsOf, a.ID); err != nil {
		return nil, err
	}
	if err := r.addMemberTx(ctx, tx, domain.IndexAnswersOf, questionID, a.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PostgresRepository) Donate(ctx context.Context, answerID string, amount int64, callerID string, now time.Time) (*domain.Donation, error) {
	if err := domain.ValidateDonationAmount(amount); err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const lockQ = `SELECT total_amount_donated FROM answers WHERE id = $1 FOR UPDATE`
	var total int64
	if err := tx.QueryRow(ctx, lockQ, answerID).Scan(&total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError(domain.KindAnswer, answerID)
		}
		return nil, fmt.Errorf("lock answer: %w", err)
	}
	ok, err := r.bucketExists(ctx, tx, domain.IndexDonationsOf, answerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewMissingBucketError(domain.IndexDonationsOf, answerID)
	}
	if err := domain.ValidateDonationFits(total, amount); err != nil {
		return nil, err
	}

	d := domain.NewDonation(r.ids.GenerateID(), answerID, callerID, amount, now)
	if err := r.addMemberTx(ctx, tx, domain.IndexDonationsOf, answerID, d.ID); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE answers SET total_amount_donated = total_amount_donated + $2 WHERE id = $1`,
		answerID, amount,
	); err != nil {
		return nil, fmt.Errorf("increment total_amount_donated: %w", err)
	}

	const insertQ = `
		INSERT INTO donations (id, answer_id, donor_id, created_at, amount)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.Exec(ctx, insertQ, d.ID, d.AnswerID, d.DonorID, d.CreatedAt, d.Amount); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.NewDuplicateIDError(domain.KindDonation, d.ID)
		}
		return nil, fmt.Errorf("insert donation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &d, nil
}

// Reads

func (r *PostgresRepository) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []domain.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *PostgresRepository) GetQuestion(ctx context.Context, questionID string) (*domain.Question, error) {
	q, err := scanQuestion(r.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, questionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (r *PostgresRepository) GetAnswer(ctx context.Context, answerID string) (*domain.Answer, error) {
	a, err := scanAnswer(r.pool.QueryRow(ctx, `SELECT `+answerColumns+` FROM answers WHERE id = $1`, answerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// bucketMembers lists a bucket's members in insertion order, paired with
// whether a backing row exists in table.
func (r *PostgresRepository) bucketMembers(ctx context.Context, q pgxQuerier, kind domain.IndexKind, ownerID, table string) ([]string, map[string]bool, error) {
	rows, err := q.Query(ctx, `
		SELECT e.member_id, t.id IS NOT NULL
		FROM index_entries e
		LEFT JOIN `+table+` t ON t.id = e.member_id
		WHERE e.kind = $1 AND e.owner_id = $2
		ORDER BY e.seq
	`, string(kind), ownerID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var ids []string
	backed := make(map[string]bool)
	for rows.Next() {
		var id string
		var ok bool
		if err := rows.Scan(&id, &ok); err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
		backed[id] = ok
	}
	return ids, backed, rows.Err()
}

func (r *PostgresRepository) ListAnswersForQuestion(ctx context.Context, questionID string) ([]domain.Answer, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ok, err := r.bucketExists(ctx, tx, domain.IndexAnswersOf, questionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewNotFoundError(domain.KindQuestion, questionID)
	}

	ids, backed, err := r.bucketMembers(ctx, tx, domain.IndexAnswersOf, questionID, "answers")
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+answerColumns+`
		FROM answers
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]domain.Answer, len(ids))
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		byID[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	answers := make([]domain.Answer, 0, len(ids))
	for _, id := range ids {
		if !backed[id] {
			logDanglingEntry(r.log, domain.IndexAnswersOf, questionID, id)
			continue
		}
		answers = append(answers, byID[id])
	}
	return answers, nil
}

func (r *PostgresRepository) ListDonationHistory(ctx context.Context, answerID string) ([]domain.Donation, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ok, err := r.bucketExists(ctx, tx, domain.IndexDonationsOf, answerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewNotFoundError(domain.KindAnswer, answerID)
	}

	ids, backed, err := r.bucketMembers(ctx, tx, domain.IndexDonationsOf, answerID, "donations")
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+donationColumns+`
		FROM donations
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]domain.Donation, len(ids))
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		byID[d.ID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	donations := make([]domain.Donation, 0, len(ids))
	for _, id := range ids {
		if !backed[id] {
			logDanglingEntry(r.log, domain.IndexDonationsOf, answerID, id)
			continue
		}
		donations = append(donations, byID[id])
	}
	return donations, nil
}
