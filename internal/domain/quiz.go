package domain

import "encoding/json"

// Difficulty grades a quiz for discovery and reward scaling.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Quiz is the authoring aggregate: metadata plus the ordered question list.
// An empty ID marks a quiz that has never been saved; the empty SubjectID
// means the quiz is uncategorized.
type Quiz struct {
	ID             string     `json:"id,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"category,omitempty"`
	SubjectID      string     `json:"subjectId,omitempty"`
	Difficulty     Difficulty `json:"difficulty"`
	TimeLimit      int        `json:"timeLimit"` // minutes, 0 means unlimited
	PassingScore   int        `json:"passingScore"`
	CoinsReward    int        `json:"coinsReward"`
	XPReward       int        `json:"xpReward"`
	ReviewMode     bool       `json:"reviewMode"`
	TournamentOnly bool       `json:"isTournamentOnly"`
	Questions      []Question `json:"questions"`
}

// NewQuiz returns an empty quiz seeded with authoring defaults. subjectID
// may be empty for an uncategorized quiz.
func NewQuiz(subjectID string) Quiz {
	return Quiz{
		SubjectID:    subjectID,
		Difficulty:   DifficultyEasy,
		TimeLimit:    10,
		PassingScore: 70,
		CoinsReward:  50,
		XPReward:     100,
		Questions:    []Question{},
	}
}

// UnmarshalJSON decodes a quiz tolerantly: unknown difficulties fall back to
// easy and a missing question list becomes an empty one.
func (q *Quiz) UnmarshalJSON(data []byte) error {
	type alias Quiz
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*q = Quiz(a)
	switch q.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		q.Difficulty = DifficultyEasy
	}
	if q.Questions == nil {
		q.Questions = []Question{}
	}
	return nil
}

// Clone returns a deep copy of the quiz, detaching questions and payloads.
func (q Quiz) Clone() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, qu := range q.Questions {
		out.Questions[i] = qu.Clone()
	}
	return out
}

// QuestionByID finds a question by its id; ok is false when absent or id is 0.
func (q Quiz) QuestionByID(id int64) (Question, bool) {
	if id == 0 {
		return Question{}, false
	}
	for _, qu := range q.Questions {
		if qu.ID == id {
			return qu.Clone(), true
		}
	}
	return Question{}, false
}

// Subject groups quizzes into a themed stack.
type Subject struct {
	ID          string `json:"_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// SubjectForm carries the author-editable subject fields.
type SubjectForm struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// DefaultSubjectIcon is used when a stored icon key is not in the registry.
const DefaultSubjectIcon = "folder"

var subjectIcons = map[string]struct{}{
	"folder":     {},
	"book":       {},
	"code":       {},
	"flask":      {},
	"globe":      {},
	"calculator": {},
	"music":      {},
	"palette":    {},
	"atom":       {},
	"trophy":     {},
}

// NormalizeIcon maps unrecognized icon keys to the default icon.
func NormalizeIcon(key string) string {
	if _, ok := subjectIcons[key]; ok {
		return key
	}
	return DefaultSubjectIcon
}
