// Package redis caches the authoring lists in Redis in front of a slower
// store implementation.
package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizdesk/internal/app"
	"quizdesk/internal/domain"
)

// Cache decorates another app.Store, keeping the owner's subject and quiz
// lists as JSON blobs in Redis. A miss collapses concurrent loads onto one
// inner call and fills the cache with a jittered TTL; every write goes to the
// inner store first and then drops the affected lists. The cache is scoped to
// the one author this process serves: keys derive from the owner given at
// construction, and lists requested for any other owner bypass Redis.
type Cache struct {
	client  *redis.Client
	inner   app.Store
	ownerID string
	ttl     time.Duration
	sf      singleflight.Group
}

var _ app.Store = (*Cache)(nil)

func NewCache(client *redis.Client, inner app.Store, ownerID string, ttl time.Duration) *Cache {
	return &Cache{
		client:  client,
		inner:   inner,
		ownerID: ownerID,
		ttl:     ttl,
	}
}

func (c *Cache) ListSubjects(ctx context.Context, ownerID string) ([]domain.Subject, error) {
	if ownerID != c.ownerID {
		return c.inner.ListSubjects(ctx, ownerID)
	}
	key := c.subjectsKey()
	if subjects, ok := readList[domain.Subject](ctx, c.client, key); ok {
		return subjects, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if subjects, ok := readList[domain.Subject](ctx, c.client, key); ok {
			return subjects, nil
		}
		subjects, err := c.inner.ListSubjects(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		c.fill(ctx, key, subjects)
		return subjects, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Subject), nil
}

func (c *Cache) ListQuizzes(ctx context.Context, ownerID string) ([]domain.Quiz, error) {
	if ownerID != c.ownerID {
		return c.inner.ListQuizzes(ctx, ownerID)
	}
	key := c.quizzesKey()
	if quizzes, ok := readList[domain.Quiz](ctx, c.client, key); ok {
		return quizzes, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if quizzes, ok := readList[domain.Quiz](ctx, c.client, key); ok {
			return quizzes, nil
		}
		quizzes, err := c.inner.ListQuizzes(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		c.fill(ctx, key, quizzes)
		return quizzes, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Quiz), nil
}

func (c *Cache) CreateSubject(ctx context.Context, ownerID string, form domain.SubjectForm) (domain.Subject, error) {
	created, err := c.inner.CreateSubject(ctx, ownerID, form)
	if err != nil {
		return domain.Subject{}, err
	}
	c.drop(ctx, c.subjectsKey())
	return created, nil
}

func (c *Cache) UpdateSubject(ctx context.Context, id string, form domain.SubjectForm) error {
	if err := c.inner.UpdateSubject(ctx, id, form); err != nil {
		return err
	}
	c.drop(ctx, c.subjectsKey())
	return nil
}

// DeleteSubject drops both lists: the cascade uncategorizes quizzes, so the
// cached quiz list is stale too.
func (c *Cache) DeleteSubject(ctx context.Context, id string) error {
	if err := c.inner.DeleteSubject(ctx, id); err != nil {
		return err
	}
	c.drop(ctx, c.subjectsKey(), c.quizzesKey())
	return nil
}

func (c *Cache) CreateQuiz(ctx context.Context, ownerID string, quiz domain.Quiz) (domain.Quiz, error) {
	created, err := c.inner.CreateQuiz(ctx, ownerID, quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	c.drop(ctx, c.quizzesKey())
	return created, nil
}

func (c *Cache) UpdateQuiz(ctx context.Context, id string, quiz domain.Quiz) error {
	if err := c.inner.UpdateQuiz(ctx, id, quiz); err != nil {
		return err
	}
	c.drop(ctx, c.quizzesKey())
	return nil
}

func (c *Cache) DeleteQuiz(ctx context.Context, id string) error {
	if err := c.inner.DeleteQuiz(ctx, id); err != nil {
		return err
	}
	c.drop(ctx, c.quizzesKey())
	return nil
}

func (c *Cache) ImportQuizzes(ctx context.Context, ownerID string, quizzes []domain.Quiz) (string, error) {
	message, err := c.inner.ImportQuizzes(ctx, ownerID, quizzes)
	if err != nil {
		return "", err
	}
	c.drop(ctx, c.quizzesKey())
	return message, nil
}

func (c *Cache) subjectsKey() string {
	return "author:" + c.ownerID + ":subjects"
}

func (c *Cache) quizzesKey() string {
	return "author:" + c.ownerID + ":quizzes"
}

// readList treats any Redis error or undecodable blob as a miss.
func readList[T any](ctx context.Context, client *redis.Client, key string) ([]T, bool) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var list []T
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, false
	}
	if list == nil {
		list = []T{}
	}
	return list, true
}

// fill is best-effort: a failed cache write just means the next read misses.
func (c *Cache) fill(ctx context.Context, key string, list any) {
	data, err := json.Marshal(list)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
}

func (c *Cache) drop(ctx context.Context, keys ...string) {
	_ = c.client.Del(ctx, keys...).Err()
}

// ttlWithJitter spreads expirations up to 10% past the configured TTL so the
// two lists do not stampede the inner store together.
func (c *Cache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
