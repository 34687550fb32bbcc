package bot

import (
	"context"

	"gitlab.com/yelinaung/contract-bot/internal/conversation"
	"gitlab.com/yelinaung/contract-bot/internal/database"
	"gitlab.com/yelinaung/contract-bot/internal/models"
	"gitlab.com/yelinaung/contract-bot/internal/repository"
)

// contractStore backs the dialogue with the Postgres repositories.
type contractStore struct {
	users      *repository.UserRepository
	categories *repository.CategoryRepository
	reference  *repository.ReferenceRepository
	contracts  *repository.ContractRepository
}

var _ conversation.Store = (*contractStore)(nil)

func newContractStore(db database.PGXDB) *contractStore {
	return &contractStore{
		users:      repository.NewUserRepository(db),
		categories: repository.NewCategoryRepository(db),
		reference:  repository.NewReferenceRepository(db),
		contracts:  repository.NewContractRepository(db),
	}
}

func (s *contractStore) IsAllowed(ctx context.Context, userID int64) (bool, error) {
	return s.users.IsAllowed(ctx, userID)
}

func (s *contractStore) Categories(ctx context.Context) ([]models.Category, error) {
	return s.categories.GetAll(ctx)
}

func (s *contractStore) CategoriesWithContracts(ctx context.Context) ([]models.Category, error) {
	return s.categories.GetWithActiveContracts(ctx)
}

func (s *contractStore) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	return s.categories.Create(ctx, name)
}

func (s *contractStore) Types(ctx context.Context, categoryID int) ([]models.ContractType, error) {
	return s.categories.GetTypes(ctx, categoryID)
}

func (s *contractStore) CreateType(ctx context.Context, categoryID int, name string) (*models.ContractType, error) {
	return s.categories.CreateType(ctx, categoryID, name)
}

func (s *contractStore) Beneficiaries(ctx context.Context) ([]models.Beneficiary, error) {
	return s.reference.Beneficiaries(ctx)
}

func (s *contractStore) Contractors(ctx context.Context) ([]models.Contractor, error) {
	return s.reference.Contractors(ctx)
}

func (s *contractStore) PaymentPeriods(ctx context.Context) ([]models.PaymentPeriod, error) {
	return s.reference.PaymentPeriods(ctx)
}

func (s *contractStore) BankAccounts(ctx context.Context) ([]models.BankAccount, error) {
	return s.reference.BankAccounts(ctx)
}

func (s *contractStore) CreateContract(ctx context.Context, c *models.Contract) error {
	return s.contracts.Create(ctx, c)
}

func (s *contractStore) ContractsByType(ctx context.Context, typeID int) ([]models.ContractSummary, error) {
	return s.contracts.ListByType(ctx, typeID)
}

func (s *contractStore) ContractDetail(ctx context.Context, id int) (*models.ContractDetail, error) {
	return s.contracts.GetDetail(ctx, id)
}

func (s *contractStore) DeleteContract(ctx context.Context, id int) error {
	return s.contracts.Delete(ctx, id)
}

func (s *contractStore) SetAlerting(ctx context.Context, id int, enabled bool) error {
	return s.contracts.SetAlerting(ctx, id, enabled)
}
