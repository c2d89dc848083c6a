package transfer

import (
	"context"
	"encoding/json"
	"os"

	"golang.org/x/sync/errgroup"

	"quizdesk/internal/domain"
)

// FileBatch is the outcome of parsing a set of selected files: the quizzes
// gathered in file-selection order plus the number of files that failed.
type FileBatch struct {
	Quizzes []domain.Quiz
	Failed  int
}

// ReadFiles reads and JSON-parses every path concurrently. A file may hold a
// single quiz object or an array of them; arrays are flattened into the
// batch. A file that cannot be read or parsed only increments Failed and
// never aborts the rest of the batch. Results keep file-selection order no
// matter which reads finish first.
func ReadFiles(ctx context.Context, paths []string) (FileBatch, error) {
	parsed := make([][]domain.Quiz, len(paths))
	failed := make([]bool, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				failed[i] = true
				return nil
			}
			quizzes, err := DecodeQuizzes(data)
			if err != nil {
				failed[i] = true
				return nil
			}
			parsed[i] = quizzes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return FileBatch{}, err
	}

	var batch FileBatch
	for i := range paths {
		if failed[i] {
			batch.Failed++
			continue
		}
		batch.Quizzes = append(batch.Quizzes, parsed[i]...)
	}
	return batch, nil
}

// DecodeQuizzes accepts either a single quiz object or an array of quizzes.
func DecodeQuizzes(data []byte) ([]domain.Quiz, error) {
	var list []domain.Quiz
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var one domain.Quiz
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, err
	}
	return []domain.Quiz{one}, nil
}
