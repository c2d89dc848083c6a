package editor

import "quizdesk/internal/domain"

// QuestionDraft is the working copy of a single question inside the editor.
// Payload setters on the wrong variant are no-ops, mirroring form controls
// that are simply not rendered for other kinds.
type QuestionDraft struct {
	q domain.Question
}

// StartQuestion opens a draft for a new question of the given kind.
func StartQuestion(kind domain.QuestionKind) *QuestionDraft {
	return &QuestionDraft{q: domain.NewQuestion(kind)}
}

// Question returns a copy of the draft question.
func (qd *QuestionDraft) Question() domain.Question { return qd.q.Clone() }

// SetKind switches the question variant, replacing the payload wholesale
// while preserving the kind-independent fields. Switching away from a kind
// discards that payload.
func (qd *QuestionDraft) SetKind(kind domain.QuestionKind) {
	if kind == qd.q.Kind {
		return
	}
	next := domain.NewQuestion(kind)
	next.ID = qd.q.ID
	next.Text = qd.q.Text
	next.ImageURL = qd.q.ImageURL
	next.Points = qd.q.Points
	next.Explanation = qd.q.Explanation
	qd.q = next
}

func (qd *QuestionDraft) SetText(text string)        { qd.q.Text = text }
func (qd *QuestionDraft) SetImageURL(url string)     { qd.q.ImageURL = url }
func (qd *QuestionDraft) SetPoints(points int)       { qd.q.Points = points }
func (qd *QuestionDraft) SetExplanation(text string) { qd.q.Explanation = text }

// SetOption replaces one option text and re-runs the combination-answer
// heuristic: shuffling switches off automatically when any option refers to
// other options, and is never switched back on automatically.
func (qd *QuestionDraft) SetOption(index int, text string) {
	c := qd.q.Choice
	if c == nil || index < 0 || index >= len(c.Options) {
		return
	}
	c.Options[index] = text
	qd.applyShuffleHeuristic()
}

// AddOption appends an empty option slot.
func (qd *QuestionDraft) AddOption() {
	if c := qd.q.Choice; c != nil {
		c.Options = append(c.Options, "")
	}
}

// RemoveOption drops an option and keeps the correct-answer index in range.
func (qd *QuestionDraft) RemoveOption(index int) {
	c := qd.q.Choice
	if c == nil || index < 0 || index >= len(c.Options) {
		return
	}
	c.Options = append(c.Options[:index], c.Options[index+1:]...)
	if c.CorrectAnswer >= len(c.Options) {
		c.CorrectAnswer = 0
	}
	qd.applyShuffleHeuristic()
}

// SetCorrectAnswer marks the option at index as the right one.
func (qd *QuestionDraft) SetCorrectAnswer(index int) {
	c := qd.q.Choice
	if c == nil || index < 0 || index >= len(c.Options) {
		return
	}
	c.CorrectAnswer = index
}

// SetShuffle is the author's manual override; the heuristic never undoes it
// until the next option edit matches again.
func (qd *QuestionDraft) SetShuffle(on bool) {
	if c := qd.q.Choice; c != nil {
		c.ShuffleOptions = on
	}
}

func (qd *QuestionDraft) applyShuffleHeuristic() {
	c := qd.q.Choice
	if c == nil || !c.ShuffleOptions {
		return
	}
	if domain.HasCombinationAnswer(c.Options) {
		c.ShuffleOptions = false
	}
}

// SetLanguage changes the compiler question's primary language. The seeded
// placeholder reference and an untouched starter snippet follow the new
// language's comment syntax; authored code is never overwritten. The new
// language always joins the allowed set.
func (qd *QuestionDraft) SetLanguage(lang domain.Language) {
	c := qd.q.Compiler
	if c == nil || lang == c.Language {
		return
	}
	prev := c.Language
	c.Language = lang
	if domain.IsReferencePlaceholder(c.ReferenceCode) {
		c.ReferenceCode = domain.ReferencePlaceholder(lang)
	}
	if c.InitialCode == domain.InitialCodeFor(prev) {
		c.InitialCode = domain.InitialCodeFor(lang)
	}
	for _, allowed := range c.AllowedLanguages {
		if allowed == lang {
			return
		}
	}
	c.AllowedLanguages = append(c.AllowedLanguages, lang)
}

// SetAllowedLanguages replaces the languages a solver may answer in.
func (qd *QuestionDraft) SetAllowedLanguages(langs []domain.Language) {
	if c := qd.q.Compiler; c != nil {
		c.AllowedLanguages = append([]domain.Language(nil), langs...)
	}
}

func (qd *QuestionDraft) SetInitialCode(code string) {
	if c := qd.q.Compiler; c != nil {
		c.InitialCode = code
	}
}

func (qd *QuestionDraft) SetReferenceCode(code string) {
	if c := qd.q.Compiler; c != nil {
		c.ReferenceCode = code
	}
}

func (qd *QuestionDraft) SetBlockReference(xml string) {
	if b := qd.q.Block; b != nil {
		b.ReferenceXML = xml
	}
}

func (qd *QuestionDraft) SetBlockInitial(xml string) {
	if b := qd.q.Block; b != nil {
		b.InitialXML = xml
	}
}

func (qd *QuestionDraft) SetBlockToolbox(xml string) {
	if b := qd.q.Block; b != nil {
		b.Toolbox = xml
	}
}
