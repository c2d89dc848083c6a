package app

import (
	"time"

	"quizdesk/internal/domain"
)

// View names the screen the author is on.
type View string

const (
	// ViewStacks is the subject-card overview.
	ViewStacks View = "stacks"
	// ViewList is the quiz list, usually filtered to one stack.
	ViewList View = "list"
)

// Filter narrows the quiz list to a single stack. Uncategorized selects the
// quizzes that have no subject; otherwise SubjectID names the stack.
type Filter struct {
	SubjectID     string `json:"subjectId,omitempty"`
	Uncategorized bool   `json:"uncategorized,omitempty"`
}

// NotificationKind classifies a transient banner.
type NotificationKind string

const (
	NoticeSuccess NotificationKind = "success"
	NoticeError   NotificationKind = "error"
	NoticeWarning NotificationKind = "warning"
)

// Notification is a transient user-facing banner. DisplayMs hints how long a
// client should keep it on screen before auto-dismissing.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	DisplayMs int              `json:"displayMs"`
}

// EventKind discriminates the subscription payload.
type EventKind string

const (
	EventState        EventKind = "state"
	EventNotification EventKind = "notification"
)

// Event is what subscribers receive: a fresh state snapshot after every
// change, or a notification banner.
type Event struct {
	Kind         EventKind     `json:"kind"`
	State        *Snapshot     `json:"state,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

// Snapshot is a copy of everything a client needs to render the author's
// current screen. Quizzes honors the stack filter and search text; the
// counts cover the full list so stack cards can show their sizes.
type Snapshot struct {
	View               View             `json:"view"`
	Filter             *Filter          `json:"filter,omitempty"`
	Search             string           `json:"search,omitempty"`
	EditorOpen         bool             `json:"editorOpen"`
	Subjects           []domain.Subject `json:"subjects"`
	Quizzes            []domain.Quiz    `json:"quizzes"`
	SubjectCounts      map[string]int   `json:"subjectCounts"`
	UncategorizedCount int              `json:"uncategorizedCount"`
	TotalCount         int              `json:"totalCount"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}
