package editor

import (
	"strings"
	"time"

	"quizdesk/internal/domain"
)

// QuizDraft is the working copy of a quiz being composed or edited. A draft
// belongs to a single editing session and is not safe for concurrent use.
type QuizDraft struct {
	quiz domain.Quiz
	now  func() time.Time
}

// NewQuizDraft starts a draft for a brand-new quiz, pre-populated with the
// stack the author is currently looking at (empty means uncategorized).
func NewQuizDraft(subjectID string) *QuizDraft {
	return newQuizDraftWithClock(domain.NewQuiz(subjectID), time.Now)
}

// EditQuizDraft starts a draft over an existing quiz. The draft works on a
// deep copy so an abandoned edit leaves the original untouched.
func EditQuizDraft(quiz domain.Quiz) *QuizDraft {
	return newQuizDraftWithClock(quiz.Clone(), time.Now)
}

// NewQuizDraftWithClock is test-only for deterministic question ids.
func NewQuizDraftWithClock(quiz domain.Quiz, now func() time.Time) *QuizDraft {
	return newQuizDraftWithClock(quiz.Clone(), now)
}

func newQuizDraftWithClock(quiz domain.Quiz, now func() time.Time) *QuizDraft {
	if quiz.Questions == nil {
		quiz.Questions = []domain.Question{}
	}
	return &QuizDraft{quiz: quiz, now: now}
}

// Quiz returns a deep copy of the current draft state, ready to be saved.
func (d *QuizDraft) Quiz() domain.Quiz { return d.quiz.Clone() }

func (d *QuizDraft) SetTitle(title string)                 { d.quiz.Title = title }
func (d *QuizDraft) SetDescription(description string)     { d.quiz.Description = description }
func (d *QuizDraft) SetCategory(category string)           { d.quiz.Category = category }
func (d *QuizDraft) SetSubject(subjectID string)           { d.quiz.SubjectID = subjectID }
func (d *QuizDraft) SetDifficulty(diff domain.Difficulty)  { d.quiz.Difficulty = diff }
func (d *QuizDraft) SetTimeLimit(minutes int)              { d.quiz.TimeLimit = minutes }
func (d *QuizDraft) SetPassingScore(percent int)           { d.quiz.PassingScore = percent }
func (d *QuizDraft) SetCoinsReward(coins int)              { d.quiz.CoinsReward = coins }
func (d *QuizDraft) SetXPReward(xp int)                    { d.quiz.XPReward = xp }
func (d *QuizDraft) SetReviewMode(on bool)                 { d.quiz.ReviewMode = on }
func (d *QuizDraft) SetTournamentOnly(on bool)             { d.quiz.TournamentOnly = on }

// EditQuestion opens a question draft over an existing question of the quiz.
func (d *QuizDraft) EditQuestion(id int64) (*QuestionDraft, error) {
	q, ok := d.quiz.QuestionByID(id)
	if !ok {
		return nil, domain.ErrQuestionNotFound
	}
	return &QuestionDraft{q: q}, nil
}

// CommitQuestion validates the drafted question and inserts it into the
// quiz, or replaces the quiz's question with the same id. First-time commits
// receive a timestamp-derived id that is unique within the quiz.
func (d *QuizDraft) CommitQuestion(qd *QuestionDraft) (domain.Question, error) {
	q := qd.q.Clone()
	if strings.TrimSpace(q.Text) == "" {
		return domain.Question{}, domain.ErrEmptyQuestionText
	}
	if q.ID == 0 {
		q.ID = d.nextQuestionID()
	}
	qd.q.ID = q.ID // a re-committed draft updates instead of duplicating
	for i := range d.quiz.Questions {
		if d.quiz.Questions[i].ID == q.ID {
			d.quiz.Questions[i] = q
			return q.Clone(), nil
		}
	}
	d.quiz.Questions = append(d.quiz.Questions, q)
	return q.Clone(), nil
}

// RemoveQuestion deletes a question from the draft by id.
func (d *QuizDraft) RemoveQuestion(id int64) error {
	for i := range d.quiz.Questions {
		if d.quiz.Questions[i].ID == id {
			d.quiz.Questions = append(d.quiz.Questions[:i], d.quiz.Questions[i+1:]...)
			return nil
		}
	}
	return domain.ErrQuestionNotFound
}

// MoveQuestion shifts a question to a new position. Question order is the
// order solvers see.
func (d *QuizDraft) MoveQuestion(id int64, to int) error {
	from := -1
	for i := range d.quiz.Questions {
		if d.quiz.Questions[i].ID == id {
			from = i
			break
		}
	}
	if from == -1 {
		return domain.ErrQuestionNotFound
	}
	if to < 0 {
		to = 0
	}
	if to >= len(d.quiz.Questions) {
		to = len(d.quiz.Questions) - 1
	}
	q := d.quiz.Questions[from]
	d.quiz.Questions = append(d.quiz.Questions[:from], d.quiz.Questions[from+1:]...)
	rest := append([]domain.Question{}, d.quiz.Questions[to:]...)
	d.quiz.Questions = append(append(d.quiz.Questions[:to], q), rest...)
	return nil
}

// nextQuestionID derives an id from the clock and bumps it past any id the
// quiz already holds, so two commits in the same millisecond stay distinct.
func (d *QuizDraft) nextQuestionID() int64 {
	id := d.now().UnixMilli()
	for d.hasQuestionID(id) {
		id++
	}
	return id
}

func (d *QuizDraft) hasQuestionID(id int64) bool {
	for i := range d.quiz.Questions {
		if d.quiz.Questions[i].ID == id {
			return true
		}
	}
	return false
}
