package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"quizdesk/internal/domain"
)

// Store is an in-memory implementation of app.Store, used by tests and as
// the demo backend when neither the platform API nor a database is
// configured. The subject-delete cascade matches the platform server:
// quizzes are kept and merely uncategorized.
type Store struct {
	mu       sync.RWMutex
	subjects []ownedSubject
	quizzes  []ownedQuiz
	newID    func() string
}

type ownedSubject struct {
	ownerID string
	subject domain.Subject
}

type ownedQuiz struct {
	ownerID string
	quiz    domain.Quiz
}

func NewStore() *Store {
	return &Store{newID: uuid.NewString}
}

func (s *Store) ListSubjects(_ context.Context, ownerID string) ([]domain.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Subject, 0, len(s.subjects))
	for _, row := range s.subjects {
		if row.ownerID == ownerID {
			out = append(out, row.subject)
		}
	}
	return out, nil
}

func (s *Store) CreateSubject(_ context.Context, ownerID string, form domain.SubjectForm) (domain.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subject := domain.Subject{
		ID:          s.newID(),
		Title:       form.Title,
		Description: form.Description,
		Icon:        domain.NormalizeIcon(form.Icon),
	}
	s.subjects = append(s.subjects, ownedSubject{ownerID: ownerID, subject: subject})
	return subject, nil
}

func (s *Store) UpdateSubject(_ context.Context, id string, form domain.SubjectForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.subjects {
		if s.subjects[i].subject.ID == id {
			s.subjects[i].subject.Title = form.Title
			s.subjects[i].subject.Description = form.Description
			s.subjects[i].subject.Icon = domain.NormalizeIcon(form.Icon)
			return nil
		}
	}
	return domain.ErrSubjectNotFound
}

func (s *Store) DeleteSubject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i := range s.subjects {
		if s.subjects[i].subject.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return domain.ErrSubjectNotFound
	}
	s.subjects = append(s.subjects[:idx], s.subjects[idx+1:]...)
	for i := range s.quizzes {
		if s.quizzes[i].quiz.SubjectID == id {
			s.quizzes[i].quiz.SubjectID = ""
		}
	}
	return nil
}

func (s *Store) ListQuizzes(_ context.Context, ownerID string) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, row := range s.quizzes {
		if row.ownerID == ownerID {
			out = append(out, row.quiz.Clone())
		}
	}
	return out, nil
}

func (s *Store) CreateQuiz(_ context.Context, ownerID string, quiz domain.Quiz) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quiz.ID == "" {
		quiz.ID = s.newID()
	} else if s.indexOfQuizLocked(quiz.ID) != -1 {
		return domain.Quiz{}, fmt.Errorf("quiz %q already exists", quiz.ID)
	}
	stored := quiz.Clone()
	s.quizzes = append(s.quizzes, ownedQuiz{ownerID: ownerID, quiz: stored})
	return stored.Clone(), nil
}

func (s *Store) UpdateQuiz(_ context.Context, id string, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOfQuizLocked(id)
	if idx == -1 {
		return domain.ErrQuizNotFound
	}
	quiz.ID = id
	s.quizzes[idx].quiz = quiz.Clone()
	return nil
}

func (s *Store) DeleteQuiz(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOfQuizLocked(id)
	if idx == -1 {
		return domain.ErrQuizNotFound
	}
	s.quizzes = append(s.quizzes[:idx], s.quizzes[idx+1:]...)
	return nil
}

// ImportQuizzes upserts the batch in order: items with a known id replace
// the stored quiz, the rest are appended with fresh ids.
func (s *Store) ImportQuizzes(_ context.Context, ownerID string, quizzes []domain.Quiz) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, quiz := range quizzes {
		if quiz.ID == "" {
			quiz.ID = s.newID()
		}
		if idx := s.indexOfQuizLocked(quiz.ID); idx != -1 {
			s.quizzes[idx].quiz = quiz.Clone()
			continue
		}
		s.quizzes = append(s.quizzes, ownedQuiz{ownerID: ownerID, quiz: quiz.Clone()})
	}
	return fmt.Sprintf("imported %d quizzes", len(quizzes)), nil
}

func (s *Store) indexOfQuizLocked(id string) int {
	for i := range s.quizzes {
		if s.quizzes[i].quiz.ID == id {
			return i
		}
	}
	return -1
}
