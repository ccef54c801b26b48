// Package mailer delivers notification emails asynchronously. Actual
// transport is behind the Sink interface; the application treats mail
// as a fire-and-forget side effect and never blocks a request on it.
package mailer

import (
	"log"
	"sync"
	"time"
)

type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sink is the delivery backend. Send may be called from the dispatcher
// goroutine and must be safe for concurrent use.
type Sink interface {
	Send(msg Message) error
}

// LogSink writes messages to the process log instead of a real
// transport. Used when no SMTP relay is configured.
type LogSink struct{}

func (LogSink) Send(msg Message) error {
	log.Printf("mail to=%v subject=%q", msg.To, msg.Subject)
	return nil
}

// Dispatcher queues messages and delivers them on a background
// goroutine, retrying failures up to maxRetries times with a fixed
// delay between attempts.
type Dispatcher struct {
	sink       Sink
	queue      chan Message
	maxRetries int
	retryDelay time.Duration

	pending sync.WaitGroup
	done    chan struct{}
}

func NewDispatcher(sink Sink, maxRetries int, retryDelay time.Duration) *Dispatcher {
	d := &Dispatcher{
		sink:       sink,
		queue:      make(chan Message, 256),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		done:       make(chan struct{}),
	}
	go d.run()
	return d
}

// Enqueue submits a message for delivery. It never blocks the caller
// beyond the channel buffer and never reports delivery errors back.
func (d *Dispatcher) Enqueue(msg Message) {
	if len(msg.To) == 0 {
		return
	}
	d.pending.Add(1)
	select {
	case d.queue <- msg:
	case <-d.done:
		d.pending.Done()
	}
}

// Flush blocks until every enqueued message has been delivered or
// dropped after exhausting retries.
func (d *Dispatcher) Flush() {
	d.pending.Wait()
}

// Close stops accepting messages and waits for in-flight deliveries.
func (d *Dispatcher) Close() {
	close(d.done)
	d.pending.Wait()
}

func (d *Dispatcher) run() {
	for {
		select {
		case msg := <-d.queue:
			d.deliver(msg)
			d.pending.Done()
		case <-d.done:
			// Drain whatever was queued before Close.
			for {
				select {
				case msg := <-d.queue:
					d.deliver(msg)
					d.pending.Done()
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(msg Message) {
	var err error
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(d.retryDelay)
		}
		if err = d.sink.Send(msg); err == nil {
			return
		}
	}
	log.Printf("mail dropped after %d retries: subject=%q err=%v", d.maxRetries, msg.Subject, err)
}
