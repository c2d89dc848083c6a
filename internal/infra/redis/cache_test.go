package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizdesk/internal/app"
	"quizdesk/internal/domain"
	"quizdesk/internal/infra/memory"
)

func TestListQuizzesCachesUntilExpiry(t *testing.T) {
	mr, cache, inner := newCache(t, time.Minute)
	ctx := context.Background()

	if _, err := cache.CreateQuiz(ctx, "owner-1", titledQuiz("Cached")); err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	quizzes, err := cache.ListQuizzes(ctx, "owner-1")
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if len(quizzes) != 1 || quizzes[0].Title != "Cached" {
		t.Fatalf("unexpected quizzes: %+v", quizzes)
	}
	if inner.listQuizCalls != 1 {
		t.Fatalf("expected one inner list, got %d", inner.listQuizCalls)
	}

	// Second call should hit Redis, inner not incremented.
	if _, err := cache.ListQuizzes(ctx, "owner-1"); err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if inner.listQuizCalls != 1 {
		t.Fatalf("expected cache hit, inner calls=%d", inner.listQuizCalls)
	}

	// Jitter keeps the TTL within 110% of the configured minute.
	mr.FastForward(2 * time.Minute)
	if _, err := cache.ListQuizzes(ctx, "owner-1"); err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if inner.listQuizCalls != 2 {
		t.Fatalf("expected expiry to reload, inner calls=%d", inner.listQuizCalls)
	}
}

func TestWritesDropTheCachedList(t *testing.T) {
	_, cache, inner := newCache(t, time.Minute)
	ctx := context.Background()

	if _, err := cache.ListQuizzes(ctx, "owner-1"); err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if _, err := cache.CreateQuiz(ctx, "owner-1", titledQuiz("Fresh")); err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	quizzes, err := cache.ListQuizzes(ctx, "owner-1")
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if inner.listQuizCalls != 2 {
		t.Fatalf("expected the write to invalidate, inner calls=%d", inner.listQuizCalls)
	}
	if len(quizzes) != 1 || quizzes[0].Title != "Fresh" {
		t.Fatalf("expected the new quiz visible, got %+v", quizzes)
	}
}

func TestDeleteSubjectDropsBothLists(t *testing.T) {
	_, cache, inner := newCache(t, time.Minute)
	ctx := context.Background()

	subject, err := cache.CreateSubject(ctx, "owner-1", domain.SubjectForm{Title: "Chemistry"})
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}
	quiz := titledQuiz("Acids")
	quiz.SubjectID = subject.ID
	if _, err := cache.CreateQuiz(ctx, "owner-1", quiz); err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	// Warm both caches.
	if _, err := cache.ListSubjects(ctx, "owner-1"); err != nil {
		t.Fatalf("list subjects: %v", err)
	}
	if _, err := cache.ListQuizzes(ctx, "owner-1"); err != nil {
		t.Fatalf("list quizzes: %v", err)
	}

	if err := cache.DeleteSubject(ctx, subject.ID); err != nil {
		t.Fatalf("delete subject: %v", err)
	}

	subjects, err := cache.ListSubjects(ctx, "owner-1")
	if err != nil {
		t.Fatalf("list subjects: %v", err)
	}
	quizzes, err := cache.ListQuizzes(ctx, "owner-1")
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if inner.listSubjectCalls != 2 || inner.listQuizCalls != 2 {
		t.Fatalf("expected both lists reloaded, got %d subject / %d quiz calls",
			inner.listSubjectCalls, inner.listQuizCalls)
	}
	if len(subjects) != 0 {
		t.Fatalf("expected the subject gone, got %+v", subjects)
	}
	if len(quizzes) != 1 || quizzes[0].SubjectID != "" {
		t.Fatalf("expected the cascade visible through the cache, got %+v", quizzes)
	}
}

func TestCorruptBlobFallsBackToInner(t *testing.T) {
	mr, cache, inner := newCache(t, time.Minute)
	ctx := context.Background()

	if _, err := cache.CreateQuiz(ctx, "owner-1", titledQuiz("Real")); err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if err := mr.Set("author:owner-1:quizzes", "{not json"); err != nil {
		t.Fatalf("seed redis: %v", err)
	}

	quizzes, err := cache.ListQuizzes(ctx, "owner-1")
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if inner.listQuizCalls != 1 || len(quizzes) != 1 {
		t.Fatalf("expected the corrupt blob treated as a miss, calls=%d quizzes=%+v",
			inner.listQuizCalls, quizzes)
	}
}

func TestOtherOwnersBypassRedis(t *testing.T) {
	_, cache, inner := newCache(t, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := cache.ListQuizzes(ctx, "someone-else"); err != nil {
			t.Fatalf("list quizzes: %v", err)
		}
	}
	if inner.listQuizCalls != 2 {
		t.Fatalf("expected every foreign-owner list to reach the inner store, got %d", inner.listQuizCalls)
	}
}

func newCache(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *Cache, *countingStore) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inner := &countingStore{Store: memory.NewStore()}
	return mr, NewCache(client, inner, "owner-1", ttl), inner
}

func titledQuiz(title string) domain.Quiz {
	quiz := domain.NewQuiz("")
	quiz.Title = title
	quiz.Description = "cached quiz"
	return quiz
}

type countingStore struct {
	app.Store
	listQuizCalls    int
	listSubjectCalls int
}

func (s *countingStore) ListQuizzes(ctx context.Context, ownerID string) ([]domain.Quiz, error) {
	s.listQuizCalls++
	return s.Store.ListQuizzes(ctx, ownerID)
}

func (s *countingStore) ListSubjects(ctx context.Context, ownerID string) ([]domain.Subject, error) {
	s.listSubjectCalls++
	return s.Store.ListSubjects(ctx, ownerID)
}
