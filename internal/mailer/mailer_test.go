package mailer

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakySink fails the first n sends, then delivers.
type flakySink struct {
	mu        sync.Mutex
	failures  int
	attempts  int
	delivered []Message
}

func (s *flakySink) Send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.attempts <= s.failures {
		return errors.New("smtp unavailable")
	}
	s.delivered = append(s.delivered, msg)
	return nil
}

func (s *flakySink) stats() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts, len(s.delivered)
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := NewRecordingSink()
	d := NewDispatcher(sink, 0, 0)
	defer d.Close()

	d.Enqueue(Message{To: []string{"a@example.com"}, Subject: "first"})
	d.Enqueue(Message{To: []string{"b@example.com"}, Subject: "second"})
	d.Flush()

	messages := sink.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Subject)
	assert.Equal(t, "second", messages[1].Subject)
}

func TestDispatcherRetriesUntilSuccess(t *testing.T) {
	sink := &flakySink{failures: 2}
	d := NewDispatcher(sink, 5, time.Millisecond)
	defer d.Close()

	d.Enqueue(Message{To: []string{"a@example.com"}, Subject: "retry me"})
	d.Flush()

	attempts, delivered := sink.stats()
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 1, delivered)
}

func TestDispatcherDropsAfterMaxRetries(t *testing.T) {
	sink := &flakySink{failures: 1000}
	d := NewDispatcher(sink, 2, time.Millisecond)
	defer d.Close()

	d.Enqueue(Message{To: []string{"a@example.com"}, Subject: "doomed"})
	d.Flush()

	attempts, delivered := sink.stats()
	assert.Equal(t, 3, attempts, "one initial attempt plus two retries")
	assert.Equal(t, 0, delivered)
}

func TestEnqueueSkipsEmptyRecipients(t *testing.T) {
	sink := NewRecordingSink()
	d := NewDispatcher(sink, 0, 0)
	defer d.Close()

	d.Enqueue(Message{Subject: "nobody home"})
	d.Flush()

	assert.Empty(t, sink.Messages())
}
