package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"

	"qnadonate/src/core/domain"
	"qnadonate/src/core/ports"
	"qnadonate/src/infra/db"
	"qnadonate/src/infra/logger"
)

// SQLiteRepository implements QAStore on a SQLite file.
// The handle is limited to one connection, so transactions never interleave.
type SQLiteRepository struct {
	db  *sql.DB
	ids ports.IDGenerator
	log *slog.Logger
}

var _ ports.QAStore = (*SQLiteRepository)(nil)

// NewSQLiteRepository constructs a repository on an opened, migrated database.
func NewSQLiteRepository(lite *db.SQLite, ids ports.IDGenerator, log *slog.Logger) *SQLiteRepository {
	return &SQLiteRepository{
		db:  lite.DB,
		ids: ids,
		log: logger.WithComponent(log, "sqlite_store"),
	}
}

func (r *SQLiteRepository) Health(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func isSQLiteUniqueViolation(err error) bool {
	var e sqlite3.Error
	if errors.As(err, &e) {
		return e.ExtendedCode == sqlite3.ErrConstraintUnique || e.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

type sqlQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteQuestion(row sqlScanner) (domain.Question, error) {
	var q domain.Question
	err := row.Scan(&q.ID, &q.Title, &q.Content, &q.TotalVote, &q.TotalAnswer, &q.CreatedAt, &q.CreatorID)
	q.CreatedAt = q.CreatedAt.UTC()
	return q, err
}

func scanSQLiteAnswer(row sqlScanner) (domain.Answer, error) {
	var a domain.Answer
	err := row.Scan(&a.ID, &a.QuestionID, &a.Content, &a.TotalVote, &a.TotalAmountDonated, &a.CreatedAt, &a.CreatorID)
	a.CreatedAt = a.CreatedAt.UTC()
	return a, err
}

func scanSQLiteDonation(row sqlScanner) (domain.Donation, error) {
	var d domain.Donation
	err := row.Scan(&d.ID, &d.AnswerID, &d.DonorID, &d.CreatedAt, &d.Amount)
	d.CreatedAt = d.CreatedAt.UTC()
	return d, err
}

// withTx runs fn inside a transaction and commits only if fn succeeds.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Index buckets

func (r *SQLiteRepository) createBucket(ctx context.Context, tx *sql.Tx, kind domain.IndexKind, ownerID string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO index_buckets (kind, owner_id) VALUES (?, ?)`, string(kind), ownerID)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return domain.NewDuplicateIDError(string(kind), ownerID)
		}
		return fmt.Errorf("create %s bucket: %w", kind, err)
	}
	return nil
}

func (r *SQLiteRepository) bucketExists(ctx context.Context, q sqlQuerier, kind domain.IndexKind, ownerID string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM index_buckets WHERE kind = ? AND owner_id = ?)`,
		string(kind), ownerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup %s bucket: %w", kind, err)
	}
	return exists, nil
}

func (r *SQLiteRepository) addMember(ctx context.Context, tx *sql.Tx, kind domain.IndexKind, ownerID, memberID string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO index_entries (kind, owner_id, member_id) VALUES (?, ?, ?)`,
		string(kind), ownerID, memberID,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return domain.NewDuplicateIDError(string(kind), memberID)
		}
		return fmt.Errorf("insert %s entry: %w", kind, err)
	}
	return nil
}

func (r *SQLiteRepository) bucketMembers(ctx context.Context, q sqlQuerier, kind domain.IndexKind, ownerID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT member_id FROM index_entries WHERE kind = ? AND owner_id = ? ORDER BY seq`,
		string(kind), ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Mutations

func (r *SQLiteRepository) CreateQuestion(ctx context.Context, title, content, callerID string, now time.Time) (*domain.Question, error) {
	q := domain.NewQuestion(r.ids.GenerateID(), title, content, callerID, now)

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO questions (id, title, content, total_vote, total_answer, created_at, creator_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, q.ID, q.Title, q.Content, q.TotalVote, q.TotalAnswer, q.CreatedAt, q.CreatorID)
		if err != nil {
			if isSQLiteUniqueViolation(err) {
				return domain.NewDuplicateIDError(domain.KindQuestion, q.ID)
			}
			return fmt.Errorf("insert question: %w", err)
		}
		return r.createBucket(ctx, tx, domain.IndexAnswersOf, q.ID)
	})
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *SQLiteRepository) CreateAnswer(ctx context.Context, questionID, content, callerID string, now time.Time) (*domain.Answer, error) {
	var a domain.Answer
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM questions WHERE id = ?)`, questionID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("lookup question: %w", err)
		}
		if !exists {
			return domain.NewNotFoundError(domain.KindQuestion, questionID)
		}
		ok, err := r.bucketExists(ctx, tx, domain.IndexAnswersOf, questionID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NewMissingBucketError(domain.IndexAnswersOf, questionID)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE questions SET total_answer = total_answer + 1 WHERE id = ?`, questionID,
		); err != nil {
			return fmt.Errorf("increment total_answer: %w", err)
		}

		a = domain.NewAnswer(r.ids.GenerateID(), questionID, content, callerID, now)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO answers (id, question_id, content, total_vote, total_amount_donated, created_at, creator_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, a.ID, a.QuestionID, a.Content, a.TotalVote, a.TotalAmountDonated, a.CreatedAt, a.CreatorID); err != nil {
			if isSQLiteUniqueViolation(err) {
				return domain.NewDuplicateIDError(domain.KindAnswer, a.ID)
			}
			return fmt.Errorf("insert answer: %w", err)
		}
		if err := r.createBucket(ctx, tx, domain.IndexDonationsOf, a.ID); err != nil {
			return err
		}
		return r.addMember(ctx, tx, domain.IndexAnswersOf, questionID, a.ID)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *SQLiteRepository) Donate(ctx context.Context, answerID string, amount int64, callerID string, now time.Time) (*domain.Donation, error) {
	if err := domain.ValidateDonationAmount(amount); err != nil {
		return nil, err
	}

	var d domain.Donation
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var total int64
		err := tx.QueryRowContext(ctx,
			`SELECT total_amount_donated FROM answers WHERE id = ?`, answerID,
		).Scan(&total)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewNotFoundError(domain.KindAnswer, answerID)
		}
		if err != nil {
			return fmt.Errorf("lookup answer: %w", err)
		}
		ok, err := r.bucketExists(ctx, tx, domain.IndexDonationsOf, answerID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NewMissingBucketError(domain.IndexDonationsOf, answerID)
		}
		if err := domain.ValidateDonationFits(total, amount); err != nil {
			return err
		}

		d = domain.NewDonation(r.ids.GenerateID(), answerID, callerID, amount, now)
		if err := r.addMember(ctx, tx, domain.IndexDonationsOf, answerID, d.ID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE answers SET total_amount_donated = total_amount_donated + ? WHERE id = ?`,
			amount, answerID,
		); err != nil {
			return fmt.Errorf("increment total_amount_donated: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO donations (id, answer_id, donor_id, created_at, amount)
			VALUES (?, ?, ?, ?, ?)
		`, d.ID, d.AnswerID, d.DonorID, d.CreatedAt, d.Amount); err != nil {
			if isSQLiteUniqueViolation(err) {
				return domain.NewDuplicateIDError(domain.KindDonation, d.ID)
			}
			return fmt.Errorf("insert donation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Reads

func (r *SQLiteRepository) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []domain.Question{}
	for rows.Next() {
		q, err := scanSQLiteQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *SQLiteRepository) GetQuestion(ctx context.Context, questionID string) (*domain.Question, error) {
	q, err := scanSQLiteQuestion(r.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, questionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (r *SQLiteRepository) GetAnswer(ctx context.Context, answerID string) (*domain.Answer, error) {
	a, err := scanSQLiteAnswer(r.db.QueryRowContext(ctx, `SELECT `+answerColumns+` FROM answers WHERE id = ?`, answerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *SQLiteRepository) ListAnswersForQuestion(ctx context.Context, questionID string) ([]domain.Answer, error) {
	var answers []domain.Answer
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := r.bucketExists(ctx, tx, domain.IndexAnswersOf, questionID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NewNotFoundError(domain.KindQuestion, questionID)
		}
		ids, err := r.bucketMembers(ctx, tx, domain.IndexAnswersOf, questionID)
		if err != nil {
			return err
		}

		answers = make([]domain.Answer, 0, len(ids))
		for _, id := range ids {
			a, err := scanSQLiteAnswer(tx.QueryRowContext(ctx, `SELECT `+answerColumns+` FROM answers WHERE id = ?`, id))
			if errors.Is(err, sql.ErrNoRows) {
				logDanglingEntry(r.log, domain.IndexAnswersOf, questionID, id)
				continue
			}
			if err != nil {
				return err
			}
			answers = append(answers, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *SQLiteRepository) ListDonationHistory(ctx context.Context, answerID string) ([]domain.Donation, error) {
	var donations []domain.Donation
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := r.bucketExists(ctx, tx, domain.IndexDonationsOf, answerID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NewNotFoundError(domain.KindAnswer, answerID)
		}
		ids, err := r.bucketMembers(ctx, tx, domain.IndexDonationsOf, answerID)
		if err != nil {
			return err
		}

		donations = make([]domain.Donation, 0, len(ids))
		for _, id := range ids {
			d, err := scanSQLiteDonation(tx.QueryRowContext(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = ?`, id))
			if errors.Is(err, sql.ErrNoRows) {
				logDanglingEntry(r.log, domain.IndexDonationsOf, answerID, id)
				continue
			}
			if err != nil {
				return err
			}
			donations = append(donations, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return donations, nil
}
