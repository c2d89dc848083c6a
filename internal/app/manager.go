package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizdesk/internal/domain"
	"quizdesk/internal/editor"
	"quizdesk/internal/transfer"
)

// Store is the persistence collaborator behind the manager: the remote
// platform API in production, a local workspace database or an in-memory
// store otherwise. Implementations own id assignment for subjects; quiz ids
// provided by the caller are kept.
type Store interface {
	ListSubjects(ctx context.Context, ownerID string) ([]domain.Subject, error)
	CreateSubject(ctx context.Context, ownerID string, form domain.SubjectForm) (domain.Subject, error)
	UpdateSubject(ctx context.Context, id string, form domain.SubjectForm) error
	DeleteSubject(ctx context.Context, id string) error
	ListQuizzes(ctx context.Context, ownerID string) ([]domain.Quiz, error)
	CreateQuiz(ctx context.Context, ownerID string, quiz domain.Quiz) (domain.Quiz, error)
	UpdateQuiz(ctx context.Context, id string, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, id string) error
	ImportQuizzes(ctx context.Context, ownerID string, quizzes []domain.Quiz) (string, error)
}

// Manager is the authoring orchestrator. It owns the authoritative local
// subject and quiz lists, mediates every persistence call, runs the view
// state machine and publishes state snapshots and notifications to
// subscribers. Local state changes only after the store call succeeded.
type Manager struct {
	store   Store
	ownerID string
	now     func() time.Time
	newID   func() string

	mu          sync.RWMutex
	quizzes     []domain.Quiz
	subjects    []domain.Subject
	view        View
	filter      *Filter
	search      string
	editorOpen  bool
	subscribers map[chan Event]struct{}
}

// NewManager wires a manager for one author against a store.
func NewManager(store Store, ownerID string) *Manager {
	return newManager(store, ownerID, time.Now, uuid.NewString)
}

// NewManagerWithClock is test-only for deterministic timestamps and ids.
func NewManagerWithClock(store Store, ownerID string, now func() time.Time, newID func() string) *Manager {
	return newManager(store, ownerID, now, newID)
}

func newManager(store Store, ownerID string, now func() time.Time, newID func() string) *Manager {
	return &Manager{
		store:       store,
		ownerID:     ownerID,
		now:         now,
		newID:       newID,
		view:        ViewStacks,
		quizzes:     []domain.Quiz{},
		subjects:    []domain.Subject{},
		subscribers: make(map[chan Event]struct{}),
	}
}

// Load fetches the subject and quiz lists from the store. It runs once on
// startup and again for every explicit refresh request.
func (m *Manager) Load(ctx context.Context) error {
	subjects, err := m.store.ListSubjects(ctx, m.ownerID)
	if err != nil {
		log.Printf("load subjects: %v", err)
		m.notify(NoticeError, "Failed to load subjects")
		return err
	}
	quizzes, err := m.store.ListQuizzes(ctx, m.ownerID)
	if err != nil {
		log.Printf("load quizzes: %v", err)
		m.notify(NoticeError, "Failed to load quizzes")
		return err
	}
	m.applyLocked(func() {
		m.subjects = subjects
		m.quizzes = quizzes
	})
	return nil
}

// Subscribe returns a channel of state and notification events plus a cancel
// function the caller must invoke to avoid leaks. The first event is always
// the current state.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	ch <- Event{Kind: EventState, State: &snap}

	cancel := func() {
		m.mu.Lock()
		if _, ok := m.subscribers[ch]; ok {
			delete(m.subscribers, ch)
			close(ch)
		}
		m.mu.Unlock()
	}
	return ch, cancel
}

// Snapshot returns a copy of the current screen state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// SelectStack switches to the quiz list filtered to one stack. An empty id
// selects the uncategorized bucket.
func (m *Manager) SelectStack(subjectID string) {
	m.applyLocked(func() {
		m.view = ViewList
		if subjectID == "" {
			m.filter = &Filter{Uncategorized: true}
		} else {
			m.filter = &Filter{SubjectID: subjectID}
		}
	})
}

// SelectUncategorized switches to the list of quizzes without a stack.
func (m *Manager) SelectUncategorized() {
	m.applyLocked(func() {
		m.view = ViewList
		m.filter = &Filter{Uncategorized: true}
	})
}

// BackToStacks returns to the stack overview and clears the stack filter.
// Search text survives navigation.
func (m *Manager) BackToStacks() {
	m.applyLocked(func() {
		m.view = ViewStacks
		m.filter = nil
	})
}

// SetSearch updates the case-insensitive title/description search, which
// composes with the stack filter.
func (m *Manager) SetSearch(query string) {
	m.applyLocked(func() { m.search = query })
}

// OpenEditor starts a quiz draft over the editor overlay: a deep copy of the
// stored quiz when id names one, otherwise a new quiz pre-assigned to the
// currently selected stack.
func (m *Manager) OpenEditor(quizID string) (*editor.QuizDraft, error) {
	m.mu.Lock()
	var draft *editor.QuizDraft
	if quizID == "" {
		subjectID := ""
		if m.filter != nil {
			subjectID = m.filter.SubjectID
		}
		draft = editor.NewQuizDraft(subjectID)
	} else {
		idx := m.indexOfQuizLocked(quizID)
		if idx == -1 {
			m.mu.Unlock()
			return nil, domain.ErrQuizNotFound
		}
		draft = editor.EditQuizDraft(m.quizzes[idx])
	}
	m.editorOpen = true
	m.publishStateLocked()
	m.mu.Unlock()
	return draft, nil
}

// CloseEditor discards the editor overlay without saving.
func (m *Manager) CloseEditor() {
	m.applyLocked(func() { m.editorOpen = false })
}

// SaveQuiz validates and persists a quiz, merges the result into the local
// list and refreshes from the store. An empty id means create with a freshly
// minted id; an id already in the local list means update; an unknown id is
// created as-is. On any failure local state and the open editor are left
// untouched so the author can retry.
func (m *Manager) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	if err := domain.ValidateQuiz(quiz); err != nil {
		m.notify(NoticeError, firstValidationMessage(err))
		return err
	}

	m.mu.RLock()
	exists := m.indexOfQuizLocked(quiz.ID) != -1
	m.mu.RUnlock()

	if exists {
		if err := m.store.UpdateQuiz(ctx, quiz.ID, quiz); err != nil {
			log.Printf("update quiz %s: %v", quiz.ID, err)
			m.notify(NoticeError, "Failed to update quiz")
			return err
		}
		m.applyLocked(func() {
			if idx := m.indexOfQuizLocked(quiz.ID); idx != -1 {
				m.quizzes[idx] = quiz.Clone()
			}
			m.editorOpen = false
		})
		m.refreshQuizzes(ctx)
		m.notify(NoticeSuccess, "Quiz updated")
		return nil
	}

	if quiz.ID == "" {
		quiz.ID = m.newID()
	}
	created, err := m.store.CreateQuiz(ctx, m.ownerID, quiz)
	if err != nil {
		log.Printf("create quiz: %v", err)
		m.notify(NoticeError, "Failed to create quiz")
		return err
	}
	m.applyLocked(func() {
		m.quizzes = append(m.quizzes, created.Clone())
		m.editorOpen = false
	})
	m.refreshQuizzes(ctx)
	m.notify(NoticeSuccess, "Quiz created")
	return nil
}

// DeleteQuiz removes a quiz remotely, then locally, then refreshes.
func (m *Manager) DeleteQuiz(ctx context.Context, id string) error {
	if err := m.store.DeleteQuiz(ctx, id); err != nil {
		log.Printf("delete quiz %s: %v", id, err)
		m.notify(NoticeError, "Failed to delete quiz")
		return err
	}
	m.applyLocked(func() {
		if idx := m.indexOfQuizLocked(id); idx != -1 {
			m.quizzes = append(m.quizzes[:idx], m.quizzes[idx+1:]...)
		}
	})
	m.refreshQuizzes(ctx)
	m.notify(NoticeSuccess, "Quiz deleted")
	return nil
}

// CreateSubject persists a new stack and appends it locally.
func (m *Manager) CreateSubject(ctx context.Context, form domain.SubjectForm) error {
	if strings.TrimSpace(form.Title) == "" {
		verr := domain.ValidationError{Field: "title", Message: "Subject title is required"}
		m.notify(NoticeError, verr.Message)
		return verr
	}
	form.Icon = domain.NormalizeIcon(form.Icon)
	created, err := m.store.CreateSubject(ctx, m.ownerID, form)
	if err != nil {
		log.Printf("create subject: %v", err)
		m.notify(NoticeError, "Failed to create subject")
		return err
	}
	m.applyLocked(func() { m.subjects = append(m.subjects, created) })
	m.refreshSubjects(ctx)
	m.notify(NoticeSuccess, "Subject created")
	return nil
}

// UpdateSubject persists changed stack fields and patches the local entry.
func (m *Manager) UpdateSubject(ctx context.Context, id string, form domain.SubjectForm) error {
	if strings.TrimSpace(form.Title) == "" {
		verr := domain.ValidationError{Field: "title", Message: "Subject title is required"}
		m.notify(NoticeError, verr.Message)
		return verr
	}
	form.Icon = domain.NormalizeIcon(form.Icon)
	if err := m.store.UpdateSubject(ctx, id, form); err != nil {
		log.Printf("update subject %s: %v", id, err)
		m.notify(NoticeError, "Failed to update subject")
		return err
	}
	m.applyLocked(func() {
		for i := range m.subjects {
			if m.subjects[i].ID == id {
				m.subjects[i].Title = form.Title
				m.subjects[i].Description = form.Description
				m.subjects[i].Icon = form.Icon
				break
			}
		}
	})
	m.refreshSubjects(ctx)
	m.notify(NoticeSuccess, "Subject updated")
	return nil
}

// DeleteSubject deletes a stack and uncategorizes its quizzes locally,
// mirroring the server-side cascade. Quizzes themselves are never deleted.
// When the author was filtered to that stack the view falls back to stacks.
func (m *Manager) DeleteSubject(ctx context.Context, id string) error {
	if err := m.store.DeleteSubject(ctx, id); err != nil {
		log.Printf("delete subject %s: %v", id, err)
		m.notify(NoticeError, "Failed to delete subject")
		return err
	}
	m.applyLocked(func() {
		for i := range m.subjects {
			if m.subjects[i].ID == id {
				m.subjects = append(m.subjects[:i], m.subjects[i+1:]...)
				break
			}
		}
		for i := range m.quizzes {
			if m.quizzes[i].SubjectID == id {
				m.quizzes[i].SubjectID = ""
			}
		}
		if m.filter != nil && m.filter.SubjectID == id {
			m.filter = nil
			m.view = ViewStacks
		}
	})
	m.refreshSubjects(ctx)
	m.refreshQuizzes(ctx)
	m.notify(NoticeSuccess, "Subject deleted")
	return nil
}

// ImportFiles runs the multi-file import pipeline: concurrent parse, stack
// override, one bulk store call, a single outcome notification and a final
// refresh. When nothing parses the store is never called.
func (m *Manager) ImportFiles(ctx context.Context, paths []string) error {
	batch, err := transfer.ReadFiles(ctx, paths)
	if err != nil {
		log.Printf("import read: %v", err)
		m.notify(NoticeError, "Failed to read import files")
		return err
	}
	if len(batch.Quizzes) == 0 {
		m.notify(NoticeError, "No quizzes could be imported from the selected files")
		return domain.ErrNothingImported
	}

	m.mu.RLock()
	filter := m.filter
	m.mu.RUnlock()
	if filter != nil {
		// Importing inside a stack claims every item for that stack; the
		// uncategorized bucket claims them by clearing the subject.
		for i := range batch.Quizzes {
			batch.Quizzes[i].SubjectID = filter.SubjectID
		}
	}

	message, err := m.store.ImportQuizzes(ctx, m.ownerID, batch.Quizzes)
	if err != nil {
		log.Printf("import quizzes: %v", err)
		m.notify(NoticeError, "Failed to import quizzes")
		return err
	}
	if batch.Failed > 0 {
		m.notify(NoticeWarning, fmt.Sprintf("%s (%d file(s) could not be parsed)", message, batch.Failed))
	} else {
		m.notify(NoticeSuccess, message)
	}
	m.refreshQuizzes(ctx)
	return nil
}

// ExportQuiz streams one locally cached quiz as importable JSON.
func (m *Manager) ExportQuiz(id string, w io.Writer) error {
	m.mu.RLock()
	idx := m.indexOfQuizLocked(id)
	var quiz domain.Quiz
	if idx != -1 {
		quiz = m.quizzes[idx].Clone()
	}
	m.mu.RUnlock()
	if idx == -1 {
		return domain.ErrQuizNotFound
	}
	return transfer.WriteQuiz(w, quiz)
}

// refreshQuizzes replaces the local quiz list with store truth. A failed
// refresh keeps the already-applied local change; the primary action has
// already notified the author.
func (m *Manager) refreshQuizzes(ctx context.Context) {
	quizzes, err := m.store.ListQuizzes(ctx, m.ownerID)
	if err != nil {
		log.Printf("refresh quizzes: %v", err)
		return
	}
	m.applyLocked(func() { m.quizzes = quizzes })
}

func (m *Manager) refreshSubjects(ctx context.Context) {
	subjects, err := m.store.ListSubjects(ctx, m.ownerID)
	if err != nil {
		log.Printf("refresh subjects: %v", err)
		return
	}
	m.applyLocked(func() { m.subjects = subjects })
}

// applyLocked runs a state mutation under the write lock and publishes the
// resulting snapshot to subscribers before unlocking.
func (m *Manager) applyLocked(fn func()) {
	m.mu.Lock()
	fn()
	m.publishStateLocked()
	m.mu.Unlock()
}

func (m *Manager) publishStateLocked() {
	snap := m.snapshotLocked()
	m.broadcastLocked(Event{Kind: EventState, State: &snap})
}

func (m *Manager) notify(kind NotificationKind, message string) {
	n := Notification{Kind: kind, Message: message, DisplayMs: displayMs(kind)}
	m.mu.Lock()
	m.broadcastLocked(Event{Kind: EventNotification, Notification: &n})
	m.mu.Unlock()
}

// broadcastLocked delivers an event to every subscriber, replacing a stale
// pending event rather than blocking on a slow consumer.
func (m *Manager) broadcastLocked(ev Event) {
	for ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{
		View:          m.view,
		Search:        m.search,
		EditorOpen:    m.editorOpen,
		Subjects:      append([]domain.Subject(nil), m.subjects...),
		Quizzes:       []domain.Quiz{},
		SubjectCounts: make(map[string]int, len(m.subjects)),
		TotalCount:    len(m.quizzes),
		UpdatedAt:     m.now(),
	}
	if m.filter != nil {
		f := *m.filter
		snap.Filter = &f
	}
	for i := range m.quizzes {
		q := &m.quizzes[i]
		if q.SubjectID == "" {
			snap.UncategorizedCount++
		} else {
			snap.SubjectCounts[q.SubjectID]++
		}
		if m.visibleLocked(q) {
			snap.Quizzes = append(snap.Quizzes, q.Clone())
		}
	}
	return snap
}

// visibleLocked applies the stack filter and search text to one quiz.
func (m *Manager) visibleLocked(q *domain.Quiz) bool {
	if m.filter != nil {
		if m.filter.Uncategorized {
			if q.SubjectID != "" {
				return false
			}
		} else if q.SubjectID != m.filter.SubjectID {
			return false
		}
	}
	if m.search == "" {
		return true
	}
	needle := strings.ToLower(m.search)
	return strings.Contains(strings.ToLower(q.Title), needle) ||
		strings.Contains(strings.ToLower(q.Description), needle)
}

func (m *Manager) indexOfQuizLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range m.quizzes {
		if m.quizzes[i].ID == id {
			return i
		}
	}
	return -1
}

func firstValidationMessage(err error) string {
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Message
	}
	return "Quiz is not ready to save"
}

func displayMs(kind NotificationKind) int {
	if kind == NoticeSuccess {
		return 3000
	}
	return 5000
}
