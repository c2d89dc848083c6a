package transfer

import (
	"encoding/json"
	"io"

	"quizdesk/internal/domain"
)

// WriteQuiz pretty-prints a quiz as importable JSON. Valid in-memory quizzes
// always serialize; an error here means the writer failed.
func WriteQuiz(w io.Writer, quiz domain.Quiz) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(quiz)
}

// WriteSubject pretty-prints a subject template.
func WriteSubject(w io.Writer, subject domain.Subject) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(subject)
}

// SampleQuiz is the template authors download to learn the import format.
// It carries one question of each kind and passes validation as-is.
func SampleQuiz() domain.Quiz {
	mc := domain.NewQuestion(domain.KindMultipleChoice)
	mc.ID = 1
	mc.Text = "Which planet is known as the Red Planet?"
	mc.Choice.Options = []string{"Venus", "Mars", "Jupiter", "Mercury"}
	mc.Choice.CorrectAnswer = 1
	mc.Explanation = "Iron oxide dust gives Mars its color."

	blk := domain.NewQuestion(domain.KindBlock)
	blk.ID = 2
	blk.Text = "Assemble a loop that prints the numbers 1 to 5"
	blk.Block.ReferenceXML = `<xml><block type="controls_repeat_ext"><value name="TIMES"><block type="math_number"><field name="NUM">5</field></block></value></block></xml>`
	blk.Block.InitialXML = "<xml></xml>"
	blk.Block.Toolbox = `<xml><category name="Loops"><block type="controls_repeat_ext"/></category></xml>`

	comp := domain.NewQuestion(domain.KindCompiler)
	comp.ID = 3
	comp.Text = "Return the sum of two integers"
	comp.Compiler.Language = domain.LangPython
	comp.Compiler.InitialCode = domain.InitialCodeFor(domain.LangPython)
	comp.Compiler.ReferenceCode = "def solution(a, b):\n    return a + b\n"

	quiz := domain.NewQuiz("")
	quiz.Title = "Sample Quiz"
	quiz.Description = "A starter template showing every supported question type"
	quiz.Category = "general"
	quiz.Questions = []domain.Question{mc, blk, comp}
	return quiz
}

// SampleSubject is the stack template companion to SampleQuiz.
func SampleSubject() domain.Subject {
	return domain.Subject{
		Title:       "Sample Subject",
		Description: "Group related quizzes into a stack like this one",
		Icon:        "book",
	}
}
