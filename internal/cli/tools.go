package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"quizdesk/internal/app"
	"quizdesk/internal/config"
	"quizdesk/internal/domain"
	"quizdesk/internal/transfer"
)

// NewImportCmd parses quiz JSON files and submits the successes in one batch,
// the same pipeline the server runs for an import request.
func NewImportCmd(configPath *string) *cobra.Command {
	var subjectID string
	var uncategorized bool
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import quiz JSON files in one batch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			store, cleanup, err := buildStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			manager := app.NewManager(store, ownerID(cfg))
			if err := manager.Load(cmd.Context()); err != nil {
				return err
			}
			switch {
			case subjectID != "":
				manager.SelectStack(subjectID)
			case uncategorized:
				manager.SelectUncategorized()
			}

			events, cancel := manager.Subscribe()
			defer cancel()
			err = manager.ImportFiles(cmd.Context(), args)
			printNotifications(events)
			return err
		},
	}
	cmd.Flags().StringVar(&subjectID, "subject", "", "claim every imported quiz for this stack")
	cmd.Flags().BoolVar(&uncategorized, "uncategorized", false, "strip stack assignments from imported quizzes")
	return cmd
}

// NewExportCmd writes one quiz as importable JSON.
func NewExportCmd(configPath *string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <quiz-id>",
		Short: "Export one quiz as importable JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			store, cleanup, err := buildStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			manager := app.NewManager(store, ownerID(cfg))
			if err := manager.Load(cmd.Context()); err != nil {
				return err
			}

			w := io.Writer(os.Stdout)
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return manager.ExportQuiz(args[0], w)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write to a file instead of stdout")
	return cmd
}

// NewSampleCmd writes a template file: a quiz demonstrating every question
// kind, or a subject stack.
func NewSampleCmd() *cobra.Command {
	var out string
	var kind string
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a template quiz or subject file",
		RunE: func(cmd *cobra.Command, args []string) error {
			write := func(w io.Writer) error {
				return transfer.WriteQuiz(w, transfer.SampleQuiz())
			}
			switch kind {
			case "quiz":
			case "subject":
				write = func(w io.Writer) error {
					return transfer.WriteSubject(w, transfer.SampleSubject())
				}
			default:
				return fmt.Errorf("unknown sample kind %q", kind)
			}
			if out == "" {
				out = "sample-" + kind + ".json"
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := write(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			log.Printf("wrote sample %s to %s", kind, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "quiz", "template kind: quiz or subject")
	cmd.Flags().StringVar(&out, "out", "", "output path (default sample-<kind>.json)")
	return cmd
}

// NewValidateCmd checks quiz JSON files against the pre-save rules without
// touching any store.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [files...]",
		Short: "Validate quiz JSON files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := false
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				quizzes, err := transfer.DecodeQuizzes(data)
				if err != nil {
					failed = true
					log.Printf("%s: %v", path, err)
					continue
				}
				for _, quiz := range quizzes {
					if err := domain.ValidateQuiz(quiz); err != nil {
						failed = true
						log.Printf("%s: %q: %v", path, quiz.Title, err)
						continue
					}
					log.Printf("%s: %q ok", path, quiz.Title)
				}
			}
			if failed {
				return errors.New("validation failed")
			}
			return nil
		},
	}
}

func printNotifications(events <-chan app.Event) {
	for {
		select {
		case ev := <-events:
			if ev.Kind == app.EventNotification {
				log.Printf("%s", ev.Notification.Message)
			}
		default:
			return
		}
	}
}
