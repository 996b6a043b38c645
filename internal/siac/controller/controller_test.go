package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/siacdev/siac/internal/siac/cache"
	"github.com/siacdev/siac/internal/siac/db"
	"github.com/siacdev/siac/internal/siac/events"
	"github.com/siacdev/siac/internal/siac/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// recordProducer captures produced events for assertions.
type recordProducer struct {
	mu     sync.Mutex
	events []events.EventType
}

func (p *recordProducer) Produce(eventType events.EventType, _ string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *recordProducer) has(eventType events.EventType) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e == eventType {
			return true
		}
	}
	return false
}

// waitFor polls until the producer has seen the event type. Events are
// emitted on their own goroutines after writes complete.
func (p *recordProducer) waitFor(t *testing.T, eventType events.EventType) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.has(eventType) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("event %s never produced", eventType)
}

const testUserID = "user-123"

func newTestEnv(t *testing.T) (*Services, *recordProducer) {
	t.Helper()
	repo, err := db.NewRepository(&db.Config{})
	require.NoError(t, err, "failed to open test repository")
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, repo.CreateUser(context.Background(), &models.User{
		ID:    testUserID,
		Email: "admin.root@siac.com",
	}))

	producer := &recordProducer{}
	logger := zaptest.NewLogger(t)
	store := cache.New("", "", time.Minute, logger)
	return NewServices(repo, producer, store, logger), producer
}
