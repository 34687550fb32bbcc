package reminder

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"gitlab.com/yelinaung/contract-bot/internal/calendar"
	"gitlab.com/yelinaung/contract-bot/internal/logger"
	"gitlab.com/yelinaung/contract-bot/internal/models"
)

// ReminderTimeout is the maximum time a single reminder pass can take.
const ReminderTimeout = 2 * time.Minute

// SubscriptionStore persists which chats want reminders.
// *repository.ReminderSubscriptionRepository satisfies it.
type SubscriptionStore interface {
	Subscribe(ctx context.Context, chatID, userID int64) error
	Unsubscribe(ctx context.Context, chatID int64) error
	List(ctx context.Context) ([]models.ReminderSubscription, error)
}

// Runner performs one reminder pass. *Dispatcher satisfies it.
type Runner interface {
	Dispatch(ctx context.Context, sub models.ReminderSubscription, today time.Time) (int, error)
}

// JobName is the identity of a chat's reminder task.
func JobName(chatID int64) string {
	return fmt.Sprintf("alerts-%d", chatID)
}

// NextRun returns the first hour:minute wall-clock time in loc strictly after now.
func NextRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	n := now.In(loc)
	next := time.Date(n.Year(), n.Month(), n.Day(), hour, minute, 0, 0, loc)
	if !next.After(n) {
		next = time.Date(n.Year(), n.Month(), n.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

type task struct {
	sub    models.ReminderSubscription
	cancel context.CancelFunc
}

// Scheduler keeps at most one daily reminder task per chat.
type Scheduler struct {
	subs   SubscriptionStore
	runner Runner
	hour   int
	minute int
	loc    *time.Location

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	mu    sync.Mutex
	tasks map[string]*task
	base  context.Context
	stop  context.CancelFunc
	wg    sync.WaitGroup
}

// NewScheduler creates a Scheduler that fires at hour:minute in loc.
func NewScheduler(subs SubscriptionStore, runner Runner, hour, minute int, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	base, stop := context.WithCancel(context.Background())
	return &Scheduler{
		subs:   subs,
		runner: runner,
		hour:   hour,
		minute: minute,
		loc:    loc,
		now:    time.Now,
		after:  time.After,
		tasks:  make(map[string]*task),
		base:   base,
		stop:   stop,
	}
}

// IsActive reports whether chatID has a reminder task.
func (s *Scheduler) IsActive(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[JobName(chatID)]
	return ok
}

// Activate subscribes chatID and starts its task. It is a no-op reporting
// already=true when the chat is active.
func (s *Scheduler) Activate(ctx context.Context, chatID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[JobName(chatID)]; ok {
		return true, nil
	}
	if err := s.subs.Subscribe(ctx, chatID, userID); err != nil {
		return false, fmt.Errorf("failed to persist reminder subscription: %w", err)
	}

	s.arm(models.ReminderSubscription{ChatID: chatID, UserID: userID, CreatedAt: s.now()})
	logger.Log.Info().Str("chat_hash", logger.HashChatID(chatID)).Msg("Reminders activated")
	return false, nil
}

// Deactivate stops exactly the task of chatID. It reports removed=false
// when the chat had none.
func (s *Scheduler) Deactivate(ctx context.Context, chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := JobName(chatID)
	t, ok := s.tasks[name]
	if !ok {
		return false, nil
	}
	if err := s.subs.Unsubscribe(ctx, chatID); err != nil {
		return false, fmt.Errorf("failed to remove reminder subscription: %w", err)
	}

	t.cancel()
	delete(s.tasks, name)
	logger.Log.Info().Str("chat_hash", logger.HashChatID(chatID)).Msg("Reminders deactivated")
	return true, nil
}

// Restore re-arms every persisted subscription and returns how many were armed.
func (s *Scheduler) Restore(ctx context.Context) (int, error) {
	subs, err := s.subs.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load reminder subscriptions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	armed := 0
	for _, sub := range subs {
		if _, ok := s.tasks[JobName(sub.ChatID)]; ok {
			continue
		}
		s.arm(sub)
		armed++
	}
	logger.Log.Info().Int("count", armed).Msg("Reminder subscriptions restored")
	return armed, nil
}

// Jobs lists the names of the running tasks in order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Close stops every task and waits for running passes to return.
func (s *Scheduler) Close() {
	s.stop()
	s.wg.Wait()

	s.mu.Lock()
	clear(s.tasks)
	s.mu.Unlock()
}

// arm must be called with s.mu held.
func (s *Scheduler) arm(sub models.ReminderSubscription) {
	ctx, cancel := context.WithCancel(s.base)
	s.tasks[JobName(sub.ChatID)] = &task{sub: sub, cancel: cancel}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx, sub)
	}()
}

func (s *Scheduler) run(ctx context.Context, sub models.ReminderSubscription) {
	for {
		now := s.now()
		next := NextRun(now, s.hour, s.minute, s.loc)

		select {
		case <-ctx.Done():
			return
		case <-s.after(next.Sub(now)):
			s.fire(ctx, sub)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, sub models.ReminderSubscription) {
	fireCtx, cancel := context.WithTimeout(ctx, ReminderTimeout)
	defer cancel()

	today := calendar.Today(s.now(), s.loc)
	sent, err := s.runner.Dispatch(fireCtx, sub, today)
	if err != nil {
		logger.Log.Warn().Err(err).
			Str("chat_hash", logger.HashChatID(sub.ChatID)).
			Int("sent", sent).
			Msg("Reminder pass failed")
		return
	}
	logger.Log.Debug().
		Str("chat_hash", logger.HashChatID(sub.ChatID)).
		Int("sent", sent).
		Msg("Reminder pass finished")
}
