package mailer

import "sync"

// RecordingSink captures messages instead of delivering them. Tests
// assert against Messages() the way an outbox would be inspected.
type RecordingSink struct {
	mu       sync.Mutex
	messages []Message
}

func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (s *RecordingSink) Send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *RecordingSink) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}
