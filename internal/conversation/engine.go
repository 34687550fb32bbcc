// Package conversation implements the guided contract dialogue as a
// transport-free state machine. The Telegram adapter turns updates into
// Events, calls Engine.Handle and renders the returned Reply.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gitlab.com/yelinaung/contract-bot/internal/logger"
	"gitlab.com/yelinaung/contract-bot/internal/models"
)

// DefaultStorageTimeout bounds each step when Options leaves it unset.
const DefaultStorageTimeout = 10 * time.Second

// Store is the storage surface the dialogue needs.
type Store interface {
	IsAllowed(ctx context.Context, userID int64) (bool, error)

	Categories(ctx context.Context) ([]models.Category, error)
	CategoriesWithContracts(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	Types(ctx context.Context, categoryID int) ([]models.ContractType, error)
	CreateType(ctx context.Context, categoryID int, name string) (*models.ContractType, error)

	Beneficiaries(ctx context.Context) ([]models.Beneficiary, error)
	Contractors(ctx context.Context) ([]models.Contractor, error)
	PaymentPeriods(ctx context.Context) ([]models.PaymentPeriod, error)
	BankAccounts(ctx context.Context) ([]models.BankAccount, error)

	CreateContract(ctx context.Context, c *models.Contract) error
	ContractsByType(ctx context.Context, typeID int) ([]models.ContractSummary, error)
	ContractDetail(ctx context.Context, id int) (*models.ContractDetail, error)
	DeleteContract(ctx context.Context, id int) error
	SetAlerting(ctx context.Context, id int, enabled bool) error
}

// Alerts controls the per-chat daily reminder.
type Alerts interface {
	IsActive(chatID int64) bool
	// Activate reports already=true when the chat had an active reminder.
	Activate(ctx context.Context, chatID, userID int64) (already bool, err error)
	// Deactivate reports removed=false when there was nothing to remove.
	Deactivate(ctx context.Context, chatID int64) (removed bool, err error)
}

// Options tunes an Engine.
type Options struct {
	StorageTimeout time.Duration
	// Location decides what "today" is when counting days to a deadline.
	Location *time.Location
	// ReminderHour and ReminderMinute are only shown to the user.
	ReminderHour   int
	ReminderMinute int
}

// Engine drives sessions through the dialogue.
type Engine struct {
	store  Store
	alerts Alerts
	opts   Options
	now    func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(store Store, alerts Alerts, opts Options) *Engine {
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = DefaultStorageTimeout
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Engine{
		store:  store,
		alerts: alerts,
		opts:   opts,
		now:    time.Now,
	}
}

// Handle applies one event to sess and returns the reply to send. It never
// fails: storage errors end the dialogue with a generic message and
// validation errors re-prompt the current step.
func (e *Engine) Handle(ctx context.Context, sess *Session, ev Event) Reply {
	ctx, cancel := context.WithTimeout(ctx, e.opts.StorageTimeout)
	defer cancel()

	from := sess.State
	reply, err := e.dispatch(ctx, sess, ev)

	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNoContracts):
		logger.Log.Debug().
			Err(err).
			Str("chat_hash", logger.HashChatID(ev.ChatID)).
			Stringer("state", from).
			Msg("Re-prompting step")
	case errors.Is(err, ErrNotAuthorized):
		logger.Log.Warn().
			Str("user_hash", logger.HashUserID(ev.UserID)).
			Msg("Blocked user not on allow-list")
		sess.finish()
		reply = Reply{Text: msgNotAuthorized}
	default:
		logger.Log.Error().
			Err(err).
			Str("chat_hash", logger.HashChatID(ev.ChatID)).
			Stringer("state", from).
			Msg("Conversation step failed")
		sess.finish()
		reply = Reply{Text: msgSomethingWrong}
	}

	logger.Log.Debug().
		Str("chat_hash", logger.HashChatID(ev.ChatID)).
		Stringer("kind", ev.Kind).
		Stringer("from", from).
		Stringer("to", sess.State).
		Bool("done", sess.Done()).
		Msg("Conversation step")

	return reply
}

func (e *Engine) dispatch(ctx context.Context, sess *Session, ev Event) (Reply, error) {
	if ev.Kind == EventCommand {
		if commandName(ev.Payload) == "cancel" {
			sess.finish()
			return Reply{Text: msgGoodbye}, nil
		}
		return e.start(ctx, sess, ev)
	}

	if sess.State == StateIdle {
		return e.start(ctx, sess, ev)
	}

	if wantText := sess.State.expectsText(); wantText != (ev.Kind == EventText) {
		if wantText {
			return Reply{Text: msgTypeAnswer}, fmt.Errorf("%w: button in %s", ErrInvalidInput, sess.State)
		}
		return Reply{Text: msgUseButtons}, fmt.Errorf("%w: text in %s", ErrInvalidInput, sess.State)
	}

	switch sess.State {
	case StateChoose:
		return e.choose(ctx, sess, ev)
	case StateAlertsMenu:
		return e.alertsChoice(ctx, sess, ev)
	case StateNewCategory:
		return e.pickNewCategory(ctx, sess, ev)
	case StateNewCategoryName:
		return e.nameCategory(ctx, sess, ev)
	case StateNewType:
		return e.pickNewType(ctx, sess, ev)
	case StateNewTypeName:
		return e.nameType(ctx, sess, ev)
	case StateBeneficiary:
		return e.pickBeneficiary(ctx, sess, ev)
	case StateContractor:
		return e.pickContractor(ctx, sess, ev)
	case StateFee:
		return e.enterFee(ctx, sess, ev)
	case StatePaymentPeriod:
		return e.pickPaymentPeriod(ctx, sess, ev)
	case StateBankAccount:
		return e.pickBankAccount(ctx, sess, ev)
	case StateNoticePeriod:
		return e.enterNoticePeriod(ctx, sess, ev)
	case StateRenewalPeriod:
		return e.enterRenewalPeriod(ctx, sess, ev)
	case StateStartDate:
		return e.enterStartDate(ctx, sess, ev)
	case StateEndDate:
		return e.enterEndDate(ctx, sess, ev)
	case StateAlertToggle:
		return e.toggleAlert(ctx, sess, ev)
	case StateViewCategory:
		return e.pickViewCategory(ctx, sess, ev)
	case StateViewType:
		return e.pickViewType(ctx, sess, ev)
	case StateContractList:
		return e.pickContract(ctx, sess, ev)
	case StateContractDetail:
		return e.contractAction(ctx, sess, ev)
	case StateDeleteConfirm:
		return e.confirmDelete(ctx, sess, ev)
	default:
		return Reply{}, fmt.Errorf("unhandled state %s", sess.State)
	}
}

// commandName turns "/start@SomeBot arg" into "start".
func commandName(payload string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(payload), " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(strings.TrimPrefix(name, "/"))
}

func (e *Engine) today() time.Time {
	return e.now().In(e.opts.Location)
}
