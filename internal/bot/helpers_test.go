package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"gitlab.com/yelinaung/contract-bot/internal/bot/mocks"
	"gitlab.com/yelinaung/contract-bot/internal/config"
	"gitlab.com/yelinaung/contract-bot/internal/conversation"
	"gitlab.com/yelinaung/contract-bot/internal/models"
	"gitlab.com/yelinaung/contract-bot/internal/reminder"
)

// testConfig returns a configuration suitable for handler tests.
func testConfig() *config.Config {
	return &config.Config{
		TelegramBotToken:   "test-token",
		DatabaseURL:        "test-url",
		StorageTimeout:     5 * time.Second,
		ReminderHour:       9,
		ReminderMinute:     20,
		ReminderTimezone:   "UTC",
		ReminderWindowDays: reminder.DefaultWindowDays,
	}
}

// setupTestBot creates a Bot over store without a Telegram client.
func setupTestBot(t *testing.T, store conversation.Store) (*Bot, *mocks.MockBot) {
	t.Helper()

	mockBot := mocks.NewMockBot()
	cfg := testConfig()
	b := &Bot{
		cfg:           cfg,
		sessions:      newSessionStore(),
		messageSender: mockBot,
	}

	dispatcher := reminder.NewDispatcher(stubContracts{}, b, reminder.DispatcherOptions{})
	b.scheduler = reminder.NewScheduler(newMemSubscriptions(), dispatcher, cfg.ReminderHour, cfg.ReminderMinute, time.UTC)
	t.Cleanup(b.scheduler.Close)

	b.engine = conversation.NewEngine(store, b.scheduler, conversation.Options{
		StorageTimeout: cfg.StorageTimeout,
		Location:       time.UTC,
		ReminderHour:   cfg.ReminderHour,
		ReminderMinute: cfg.ReminderMinute,
	})

	return b, mockBot
}

// stubStore is an in-memory conversation.Store with just enough data to
// drive the first dialogue steps.
type stubStore struct {
	allowed    map[int64]bool
	categories []models.Category
	err        error
}

func newStubStore(allowed ...int64) *stubStore {
	s := &stubStore{
		allowed: make(map[int64]bool),
		categories: []models.Category{
			{ID: 1, Name: "Insurance"},
			{ID: 2, Name: "Media"},
			{ID: 3, Name: "Mobile"},
		},
	}
	for _, id := range allowed {
		s.allowed[id] = true
	}
	return s
}

func (s *stubStore) IsAllowed(_ context.Context, userID int64) (bool, error) {
	return s.allowed[userID], nil
}

func (s *stubStore) Categories(context.Context) ([]models.Category, error) {
	return s.categories, s.err
}

func (s *stubStore) CategoriesWithContracts(context.Context) ([]models.Category, error) {
	return nil, s.err
}

func (s *stubStore) CreateCategory(_ context.Context, name string) (*models.Category, error) {
	return &models.Category{ID: 99, Name: name}, s.err
}

func (s *stubStore) Types(context.Context, int) ([]models.ContractType, error) {
	return nil, s.err
}

func (s *stubStore) CreateType(_ context.Context, categoryID int, name string) (*models.ContractType, error) {
	return &models.ContractType{ID: 99, Name: name, CategoryID: categoryID}, s.err
}

func (s *stubStore) Beneficiaries(context.Context) ([]models.Beneficiary, error) {
	return nil, s.err
}

func (s *stubStore) Contractors(context.Context) ([]models.Contractor, error) {
	return nil, s.err
}

func (s *stubStore) PaymentPeriods(context.Context) ([]models.PaymentPeriod, error) {
	return nil, s.err
}

func (s *stubStore) BankAccounts(context.Context) ([]models.BankAccount, error) {
	return nil, s.err
}

func (s *stubStore) CreateContract(context.Context, *models.Contract) error {
	return s.err
}

func (s *stubStore) ContractsByType(context.Context, int) ([]models.ContractSummary, error) {
	return nil, s.err
}

func (s *stubStore) ContractDetail(context.Context, int) (*models.ContractDetail, error) {
	return nil, s.err
}

func (s *stubStore) DeleteContract(context.Context, int) error {
	return s.err
}

func (s *stubStore) SetAlerting(context.Context, int, bool) error {
	return s.err
}

type stubContracts struct{}

func (stubContracts) ListAllDetails(context.Context) ([]models.ContractDetail, error) {
	return nil, nil
}

func (stubContracts) ListAlertingForUser(context.Context, int64) ([]models.ContractDetail, error) {
	return nil, nil
}

type memSubscriptions struct {
	mu   sync.Mutex
	subs map[int64]models.ReminderSubscription
}

func newMemSubscriptions() *memSubscriptions {
	return &memSubscriptions{subs: make(map[int64]models.ReminderSubscription)}
}

func (m *memSubscriptions) Subscribe(_ context.Context, chatID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[chatID]; !ok {
		m.subs[chatID] = models.ReminderSubscription{ChatID: chatID, UserID: userID}
	}
	return nil
}

func (m *memSubscriptions) Unsubscribe(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, chatID)
	return nil
}

func (m *memSubscriptions) List(context.Context) ([]models.ReminderSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ReminderSubscription, 0, len(m.subs))
	for _, s := range m.subs {
		out = append(out, s)
	}
	return out, nil
}
