// Package reminder sends the daily cancellation reminders and keeps one
// scheduled reminder task per subscribed chat.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"gitlab.com/yelinaung/contract-bot/internal/calendar"
	"gitlab.com/yelinaung/contract-bot/internal/logger"
	"gitlab.com/yelinaung/contract-bot/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "gitlab.com/yelinaung/contract-bot/internal/reminder"

// DefaultWindowDays is how close a cancellation deadline must be to trigger a reminder.
const DefaultWindowDays = 14

// ContractSource loads the contracts a reminder pass looks at.
// *repository.ContractRepository satisfies it.
type ContractSource interface {
	ListAllDetails(ctx context.Context) ([]models.ContractDetail, error)
	ListAlertingForUser(ctx context.Context, userID int64) ([]models.ContractDetail, error)
}

// Sender delivers a reminder text (HTML) to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// DispatcherOptions configures a Dispatcher. Nil providers fall back to the otel globals.
type DispatcherOptions struct {
	WindowDays int
	// OwnerOnly limits a chat's reminders to its subscriber's own contracts
	// with the reminder flag set. Otherwise every contract is considered.
	OwnerOnly      bool
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Dispatcher runs one reminder pass for one subscription.
type Dispatcher struct {
	source    ContractSource
	sender    Sender
	window    int
	ownerOnly bool
	tracer    trace.Tracer
	sent      metric.Int64Counter
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(source ContractSource, sender Sender, opts DispatcherOptions) *Dispatcher {
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := opts.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	sent, err := mp.Meter(instrumentationName).Int64Counter(
		"reminders.sent",
		metric.WithDescription("Reminder messages delivered"),
	)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to create reminder counter")
		sent = noop.Int64Counter{}
	}

	return &Dispatcher{
		source:    source,
		sender:    sender,
		window:    opts.WindowDays,
		ownerOnly: opts.OwnerOnly,
		tracer:    tp.Tracer(instrumentationName),
		sent:      sent,
	}
}

// Dispatch sends one message per contract whose next cancellation date is at
// most the window away from today, overdue ones included. Repeat reminders
// on later days are intended.
func (d *Dispatcher) Dispatch(ctx context.Context, sub models.ReminderSubscription, today time.Time) (int, error) {
	ctx, span := d.tracer.Start(ctx, "reminder.dispatch")
	defer span.End()

	span.SetAttributes(
		attribute.String("reminder.chat_hash", logger.HashChatID(sub.ChatID)),
		attribute.Bool("reminder.owner_only", d.ownerOnly),
	)

	var (
		contracts []models.ContractDetail
		err       error
	)
	if d.ownerOnly {
		contracts, err = d.source.ListAlertingForUser(ctx, sub.UserID)
	} else {
		contracts, err = d.source.ListAllDetails(ctx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load contracts")
		return 0, fmt.Errorf("failed to load contracts for reminders: %w", err)
	}

	var (
		sent int
		errs []error
	)
	for _, c := range contracts {
		days := calendar.DaysUntil(c.NextCancellationDate, today)
		if days > d.window {
			continue
		}
		if err := d.sender.Send(ctx, sub.ChatID, Message(c, days)); err != nil {
			errs = append(errs, fmt.Errorf("failed to send reminder for contract %d: %w", c.ID, err))
			continue
		}
		sent++
	}

	d.sent.Add(ctx, int64(sent))
	span.SetAttributes(
		attribute.Int("reminder.checked", len(contracts)),
		attribute.Int("reminder.sent", sent),
	)

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "some reminders failed")
		return sent, err
	}
	return sent, nil
}

// Message renders the reminder for one contract.
func Message(c models.ContractDetail, days int) string {
	name := fmt.Sprintf("<b>%s</b> with %s", html.EscapeString(c.TypeName), html.EscapeString(c.ContractorName))

	var body string
	switch {
	case days < 0:
		body = fmt.Sprintf("The cancellation deadline of your contract %s passed %d day(s) ago. It renews by %d month(s).",
			name, -days, c.RenewalPeriodMonths)
	case days == 0:
		body = fmt.Sprintf("Your contract %s renews automatically by %d month(s) unless you cancel today.",
			name, c.RenewalPeriodMonths)
	default:
		body = fmt.Sprintf("Your contract %s renews automatically in %d day(s) by %d month(s).",
			name, days, c.RenewalPeriodMonths)
	}
	return "⏰ <b>Reminder</b>\n" + body + "\nDon't forget to cancel if you no longer need it!"
}
