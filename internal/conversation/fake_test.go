package conversation

import (
	"context"
	"errors"

	"gitlab.com/yelinaung/contract-bot/internal/models"
)

var errBoom = errors.New("boom")

// fakeStore is an in-memory Store. failOn names a method that returns errBoom.
type fakeStore struct {
	allowed       map[int64]bool
	categories    []models.Category
	types         []models.ContractType
	beneficiaries []models.Beneficiary
	contractors   []models.Contractor
	periods       []models.PaymentPeriod
	accounts      []models.BankAccount
	contracts     map[int]*models.Contract
	nextID        int

	failOn string
	// block makes every call wait for the context to expire.
	block bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		allowed:       map[int64]bool{42: true},
		categories:    []models.Category{{ID: 1, Name: "Media"}, {ID: 2, Name: "Insurance"}},
		types:         []models.ContractType{{ID: 10, Name: "Streaming", CategoryID: 1}, {ID: 11, Name: "Newspaper", CategoryID: 1}, {ID: 20, Name: "Liability", CategoryID: 2}},
		beneficiaries: []models.Beneficiary{{ID: 100, Name: "Alex"}},
		contractors:   []models.Contractor{{ID: 200, Name: "Netflix"}},
		periods:       []models.PaymentPeriod{{ID: 300, Name: "monthly"}},
		accounts:      []models.BankAccount{{ID: 400, IBAN: "DE89370400440532013000"}},
		contracts:     map[int]*models.Contract{},
		nextID:        1,
	}
}

func (s *fakeStore) fail(ctx context.Context, method string) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if s.failOn == method {
		return errBoom
	}
	return nil
}

func (s *fakeStore) IsAllowed(ctx context.Context, userID int64) (bool, error) {
	if err := s.fail(ctx, "IsAllowed"); err != nil {
		return false, err
	}
	return s.allowed[userID], nil
}

func (s *fakeStore) Categories(ctx context.Context) ([]models.Category, error) {
	if err := s.fail(ctx, "Categories"); err != nil {
		return nil, err
	}
	return s.categories, nil
}

func (s *fakeStore) CategoriesWithContracts(ctx context.Context) ([]models.Category, error) {
	if err := s.fail(ctx, "CategoriesWithContracts"); err != nil {
		return nil, err
	}
	var out []models.Category
	for _, cat := range s.categories {
		for _, c := range s.contracts {
			if s.typeByID(c.TypeID).CategoryID == cat.ID {
				out = append(out, cat)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeStore) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	if err := s.fail(ctx, "CreateCategory"); err != nil {
		return nil, err
	}
	cat := models.Category{ID: len(s.categories) + 1, Name: name}
	s.categories = append(s.categories, cat)
	return &cat, nil
}

func (s *fakeStore) Types(ctx context.Context, categoryID int) ([]models.ContractType, error) {
	if err := s.fail(ctx, "Types"); err != nil {
		return nil, err
	}
	var out []models.ContractType
	for _, t := range s.types {
		if t.CategoryID == categoryID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateType(ctx context.Context, categoryID int, name string) (*models.ContractType, error) {
	if err := s.fail(ctx, "CreateType"); err != nil {
		return nil, err
	}
	t := models.ContractType{ID: 1000 + len(s.types), Name: name, CategoryID: categoryID}
	s.types = append(s.types, t)
	return &t, nil
}

func (s *fakeStore) Beneficiaries(ctx context.Context) ([]models.Beneficiary, error) {
	return s.beneficiaries, s.fail(ctx, "Beneficiaries")
}

func (s *fakeStore) Contractors(ctx context.Context) ([]models.Contractor, error) {
	return s.contractors, s.fail(ctx, "Contractors")
}

func (s *fakeStore) PaymentPeriods(ctx context.Context) ([]models.PaymentPeriod, error) {
	return s.periods, s.fail(ctx, "PaymentPeriods")
}

func (s *fakeStore) BankAccounts(ctx context.Context) ([]models.BankAccount, error) {
	return s.accounts, s.fail(ctx, "BankAccounts")
}

func (s *fakeStore) CreateContract(ctx context.Context, c *models.Contract) error {
	if err := s.fail(ctx, "CreateContract"); err != nil {
		return err
	}
	c.ID = s.nextID
	c.IsActive = true
	s.nextID++
	stored := *c
	s.contracts[c.ID] = &stored
	return nil
}

func (s *fakeStore) ContractsByType(ctx context.Context, typeID int) ([]models.ContractSummary, error) {
	if err := s.fail(ctx, "ContractsByType"); err != nil {
		return nil, err
	}
	var out []models.ContractSummary
	for _, c := range s.contracts {
		if c.TypeID == typeID {
			out = append(out, models.ContractSummary{
				ID:             c.ID,
				TypeName:       s.typeByID(c.TypeID).Name,
				ContractorName: "Netflix",
			})
		}
	}
	return out, nil
}

func (s *fakeStore) ContractDetail(ctx context.Context, id int) (*models.ContractDetail, error) {
	if err := s.fail(ctx, "ContractDetail"); err != nil {
		return nil, err
	}
	c, ok := s.contracts[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &models.ContractDetail{
		Contract:          *c,
		CategoryName:      "Media",
		TypeName:          s.typeByID(c.TypeID).Name,
		BeneficiaryName:   "Alex",
		ContractorName:    "Netflix",
		PaymentPeriodName: "monthly",
		IBAN:              "DE89370400440532013000",
	}, nil
}

func (s *fakeStore) DeleteContract(ctx context.Context, id int) error {
	if err := s.fail(ctx, "DeleteContract"); err != nil {
		return err
	}
	delete(s.contracts, id)
	return nil
}

func (s *fakeStore) SetAlerting(ctx context.Context, id int, enabled bool) error {
	if err := s.fail(ctx, "SetAlerting"); err != nil {
		return err
	}
	s.contracts[id].AlertActive = enabled
	return nil
}

func (s *fakeStore) typeByID(id int) models.ContractType {
	for _, t := range s.types {
		if t.ID == id {
			return t
		}
	}
	return models.ContractType{}
}

type fakeAlerts struct {
	active map[int64]bool
	err    error
}

func newFakeAlerts() *fakeAlerts {
	return &fakeAlerts{active: map[int64]bool{}}
}

func (a *fakeAlerts) IsActive(chatID int64) bool {
	return a.active[chatID]
}

func (a *fakeAlerts) Activate(_ context.Context, chatID, _ int64) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	already := a.active[chatID]
	a.active[chatID] = true
	return already, nil
}

func (a *fakeAlerts) Deactivate(_ context.Context, chatID int64) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	removed := a.active[chatID]
	delete(a.active, chatID)
	return removed, nil
}
