package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wildforest/ticketsync/pkg/logger"
)

// ErrVerification is returned when the server state does not match what the
// run wrote.
var ErrVerification = errors.New("seed verification failed")

// Run executes the complete seed: health check, creates, one note, one status
// change and a final verification through the list endpoint.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	log := logger.Named("seed")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting ticket seed",
		logger.String("baseURL", config.BaseURL),
		logger.Int("extra", config.Extra),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
	)

	client, err := NewClient(config.BaseURL, config.Timeout)
	if err != nil {
		return stats, err
	}

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Open the session and learn the vocabulary
	vocab, err := client.Vocabulary(ctx)
	if err != nil {
		return stats, fmt.Errorf("vocabulary: %w", err)
	}
	before, err := client.List(ctx, nil, nil)
	if err != nil {
		return stats, fmt.Errorf("initial list: %w", err)
	}

	// Step 3: Create tickets concurrently
	var tickets []Ticket
	if !config.SkipDemo {
		tickets = append(tickets, DemoTickets(vocab)...)
	}
	tickets = append(tickets, Generate(config.Extra, config.Prefix, vocab)...)
	created := submit(ctx, client, config, tickets, stats, log)

	if len(created) == 0 {
		return stats, fmt.Errorf("%w: no ticket was created", ErrVerification)
	}

	// Step 4: Append a note and complete one ticket
	target := created[0]
	if err := client.AppendNote(ctx, target.TicketID, config.Note); err != nil {
		return stats, fmt.Errorf("append note to %s: %w", target.TicketID, err)
	}
	completed := vocab.Canonical("completed")
	if err := client.UpdateStatus(ctx, target.TicketID, completed); err != nil {
		return stats, fmt.Errorf("complete %s: %w", target.TicketID, err)
	}

	// Step 5: Verify
	if err := verify(ctx, client, before, created, target.TicketID, completed, config.Note, stats); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	log.Info(ctx, "seed completed",
		logger.Int("submitted", stats.Submitted),
		logger.Int("created", stats.Created),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Int("listed", stats.Listed),
		logger.String("verifiedTicket", stats.VerifiedID),
		logger.Duration("duration", stats.Duration),
	)
	return stats, nil
}

// submit posts tickets with a bounded worker pool and returns those the server
// accepted, in submission order.
func submit(ctx context.Context, client *Client, config *Config, tickets []Ticket, stats *Stats, log logger.Logger) []Ticket {
	var (
		created   int64
		duplicate int64
		failed    int64
		mu        sync.Mutex
		accepted  = make([]bool, len(tickets))
	)

	workers := max(config.Workers, 1)
	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				err := client.Create(ctx, tickets[i])
				switch {
				case err == nil:
					atomic.AddInt64(&created, 1)
					mu.Lock()
					accepted[i] = true
					mu.Unlock()
				case isDuplicate(err):
					atomic.AddInt64(&duplicate, 1)
				default:
					atomic.AddInt64(&failed, 1)
					log.Warn(ctx, "create failed", logger.String("ticket_id", tickets[i].TicketID), logger.Error(err))
				}
				if config.Verbose {
					log.Info(ctx, "submitted", logger.String("ticket_id", tickets[i].TicketID), logger.Bool("ok", err == nil))
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range tickets {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	stats.Submitted = len(tickets)
	stats.Created = int(created)
	stats.Duplicate = int(duplicate)
	stats.Failed = int(failed)

	out := make([]Ticket, 0, created)
	for i, ok := range accepted {
		if ok {
			out = append(out, tickets[i])
		}
	}
	return out
}

// verify checks that every created ticket is listed, the status change shows
// up under its filter and the note was appended with a timestamp.
func verify(ctx context.Context, client *Client, before Listing, created []Ticket, id, status, note string, stats *Stats) error {
	all, err := client.List(ctx, nil, nil)
	if err != nil {
		return fmt.Errorf("final list: %w", err)
	}
	stats.Listed = all.Total

	listed := make(map[string]Ticket, len(all.Tickets))
	for _, t := range all.Tickets {
		listed[t.TicketID] = t
	}
	for _, t := range created {
		if _, ok := listed[t.TicketID]; !ok {
			return fmt.Errorf("%w: %s missing from list", ErrVerification, t.TicketID)
		}
	}
	if all.Total < before.Total+len(created) {
		return fmt.Errorf("%w: expected at least %d tickets, got %d", ErrVerification, before.Total+len(created), all.Total)
	}

	done, err := client.List(ctx, []string{status}, nil)
	if err != nil {
		return fmt.Errorf("filtered list: %w", err)
	}
	var got *Ticket
	for i := range done.Tickets {
		if done.Tickets[i].TicketID == id {
			got = &done.Tickets[i]
		}
	}
	if got == nil {
		return fmt.Errorf("%w: %s not listed as %s", ErrVerification, id, status)
	}
	lines := strings.Split(got.Notes, "\n")
	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, "[") || !strings.HasSuffix(last, "] "+strings.TrimSpace(note)) {
		return fmt.Errorf("%w: %s notes end with %q", ErrVerification, id, last)
	}

	stats.Verified = true
	stats.VerifiedID = id
	return nil
}
