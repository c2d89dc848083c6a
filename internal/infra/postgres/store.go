// Package postgres persists the authoring data as JSONB documents. It backs
// self-hosted deployments that run without the platform API.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizdesk/internal/app"
	"quizdesk/internal/domain"
)

// Store implements app.Store on a pgx pool. Each subject and quiz row keeps
// the document in a data column; owner_id and subject_id are lifted out so
// list and cascade queries stay plain SQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ app.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) ListSubjects(ctx context.Context, ownerID string) ([]domain.Subject, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM authoring_subjects WHERE owner_id=$1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	subjects := []domain.Subject{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		var subject domain.Subject
		if err := json.Unmarshal(raw, &subject); err != nil {
			return nil, fmt.Errorf("unmarshal subject: %w", err)
		}
		subjects = append(subjects, subject)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

func (s *Store) CreateSubject(ctx context.Context, ownerID string, form domain.SubjectForm) (domain.Subject, error) {
	subject := domain.Subject{
		ID:          uuid.NewString(),
		Title:       form.Title,
		Description: form.Description,
		Icon:        domain.NormalizeIcon(form.Icon),
	}
	raw, err := json.Marshal(subject)
	if err != nil {
		return domain.Subject{}, fmt.Errorf("marshal subject: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO authoring_subjects (id, owner_id, data) VALUES ($1, $2, $3)`,
		subject.ID, ownerID, raw)
	if err != nil {
		return domain.Subject{}, fmt.Errorf("insert subject: %w", err)
	}
	return subject, nil
}

func (s *Store) UpdateSubject(ctx context.Context, id string, form domain.SubjectForm) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx,
		`SELECT data FROM authoring_subjects WHERE id=$1 FOR UPDATE`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrSubjectNotFound
	}
	if err != nil {
		return fmt.Errorf("load subject: %w", err)
	}

	var subject domain.Subject
	if err := json.Unmarshal(raw, &subject); err != nil {
		return fmt.Errorf("unmarshal subject: %w", err)
	}
	subject.Title = form.Title
	subject.Description = form.Description
	subject.Icon = domain.NormalizeIcon(form.Icon)

	raw, err = json.Marshal(subject)
	if err != nil {
		return fmt.Errorf("marshal subject: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE authoring_subjects SET data=$2, updated_at=now() WHERE id=$1`, id, raw); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return tx.Commit(ctx)
}

// DeleteSubject removes the subject and uncategorizes its quizzes in one
// transaction. Quizzes are never deleted with their subject.
func (s *Store) DeleteSubject(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM authoring_subjects WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubjectNotFound
	}
	if _, err := tx.Exec(ctx,
		`UPDATE authoring_quizzes
		 SET subject_id=NULL, data = data - 'subjectId', updated_at=now()
		 WHERE subject_id=$1`, id); err != nil {
		return fmt.Errorf("uncategorize quizzes: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *Store) ListQuizzes(ctx context.Context, ownerID string) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM authoring_quizzes WHERE owner_id=$1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := []domain.Quiz{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err != nil {
			return nil, fmt.Errorf("unmarshal quiz: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

func (s *Store) CreateQuiz(ctx context.Context, ownerID string, quiz domain.Quiz) (domain.Quiz, error) {
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	raw, err := json.Marshal(quiz)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("marshal quiz: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO authoring_quizzes (id, owner_id, subject_id, data)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		quiz.ID, ownerID, nullable(quiz.SubjectID), raw)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Quiz{}, fmt.Errorf("quiz %q already exists", quiz.ID)
	}
	return quiz, nil
}

func (s *Store) UpdateQuiz(ctx context.Context, id string, quiz domain.Quiz) error {
	quiz.ID = id
	raw, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE authoring_quizzes SET data=$2, subject_id=$3, updated_at=now() WHERE id=$1`,
		id, raw, nullable(quiz.SubjectID))
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *Store) DeleteQuiz(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM authoring_quizzes WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

// ImportQuizzes upserts the whole batch in one transaction so a failed row
// never leaves a half-applied import behind.
func (s *Store) ImportQuizzes(ctx context.Context, ownerID string, quizzes []domain.Quiz) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range quizzes {
		if quizzes[i].ID == "" {
			quizzes[i].ID = uuid.NewString()
		}
		raw, err := json.Marshal(quizzes[i])
		if err != nil {
			return "", fmt.Errorf("marshal quiz: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO authoring_quizzes (id, owner_id, subject_id, data)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO UPDATE
			 SET owner_id=EXCLUDED.owner_id, subject_id=EXCLUDED.subject_id,
			     data=EXCLUDED.data, updated_at=now()`,
			quizzes[i].ID, ownerID, nullable(quizzes[i].SubjectID), raw); err != nil {
			return "", fmt.Errorf("upsert quiz: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return fmt.Sprintf("imported %d quizzes", len(quizzes)), nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
