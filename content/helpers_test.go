package content

import (
	"fmt"
	"sync"
	"time"
)

// stepClock advances by one second on every read so created_at values are
// strictly increasing.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2025, 2, 14, 20, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// sequentialIDs hands out predictable UUIDs.
type sequentialIDs struct {
	mu sync.Mutex
	n  int
}

func (g *sequentialIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", g.n)
}

func ptr[T any](v T) *T { return &v }
