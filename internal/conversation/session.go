package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/contract-bot/internal/calendar"
	"gitlab.com/yelinaung/contract-bot/internal/models"
)

// Session is the per-chat accumulator of one dialogue. Each field is set by
// exactly one step and is nil until then. Sessions are never persisted.
type Session struct {
	State  State
	UserID int64

	CategoryID      *int
	TypeID          *int
	BeneficiaryID   *int
	ContractorID    *int
	Fee             *decimal.Decimal
	PaymentPeriodID *int
	BankAccountID   *int
	NoticeMonths    *int
	RenewalMonths   *int
	StartDate       *time.Time
	EndDate         *time.Time

	// ContractID is the contract just created or the one being viewed.
	ContractID *int

	// offered holds the row buttons of the last reply.
	offered map[string]struct{}
	done    bool
}

// NewSession returns an idle session.
func NewSession() *Session {
	return &Session{}
}

// Done reports whether the dialogue has ended.
func (s *Session) Done() bool {
	return s.done
}

// Reset discards everything collected so far and returns to idle.
func (s *Session) Reset() {
	*s = Session{}
}

func (s *Session) finish() {
	s.Reset()
	s.done = true
}

// Draft assembles the contract collected so far. The next cancellation date
// is derived from the end date and the notice period.
func (s *Session) Draft() (*models.Contract, error) {
	var missing []string
	check := func(ok bool, name string) {
		if !ok {
			missing = append(missing, name)
		}
	}
	check(s.TypeID != nil, "type")
	check(s.BeneficiaryID != nil, "beneficiary")
	check(s.ContractorID != nil, "contractor")
	check(s.Fee != nil, "fee")
	check(s.PaymentPeriodID != nil, "payment period")
	check(s.BankAccountID != nil, "bank account")
	check(s.NoticeMonths != nil, "notice period")
	check(s.RenewalMonths != nil, "renewal period")
	check(s.StartDate != nil, "start date")
	check(s.EndDate != nil, "end date")
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteDraft, strings.Join(missing, ", "))
	}

	return &models.Contract{
		UserID:               s.UserID,
		TypeID:               *s.TypeID,
		BeneficiaryID:        *s.BeneficiaryID,
		ContractorID:         *s.ContractorID,
		Fee:                  *s.Fee,
		PaymentPeriodID:      *s.PaymentPeriodID,
		BankAccountID:        *s.BankAccountID,
		NoticePeriodMonths:   *s.NoticeMonths,
		RenewalPeriodMonths:  *s.RenewalMonths,
		StartDate:            *s.StartDate,
		EndDate:              *s.EndDate,
		NextCancellationDate: calendar.NextCancellationDate(*s.EndDate, *s.NoticeMonths),
	}, nil
}

// accept returns the row ID behind a button of the given kind. Only row
// buttons of the last reply are accepted; a stale keyboard re-prompts.
func (s *Session) accept(kind, payload string) (int, error) {
	if _, ok := s.offered[payload]; !ok {
		return 0, invalidInput(kind, payload)
	}
	raw, ok := strings.CutPrefix(payload, kind+":")
	if !ok {
		return 0, invalidInput(kind, payload)
	}
	return parseID(raw)
}

func ptr[T any](v T) *T {
	return &v
}
