package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz does not exist in the backing store.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSubjectNotFound indicates the subject does not exist in the backing store.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrQuestionNotFound indicates a question id is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrEmptyQuestionText rejects committing a question without a prompt.
	ErrEmptyQuestionText = errors.New("question text is required")
	// ErrNothingImported signals that no selected file yielded a quiz.
	ErrNothingImported = errors.New("no quizzes could be parsed from the selected files")
)
