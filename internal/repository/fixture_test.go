package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/contract-bot/internal/calendar"
	"gitlab.com/yelinaung/contract-bot/internal/database"
	"gitlab.com/yelinaung/contract-bot/internal/models"
)

// fixture holds one row of every lookup table a contract references.
type fixture struct {
	category      *models.Category
	contractType  *models.ContractType
	beneficiaryID int
	contractorID  int
	periodID      int
	accountID     int
}

func newFixture(t *testing.T, db database.PGXDB) fixture {
	t.Helper()
	ctx := context.Background()

	cats := NewCategoryRepository(db)
	refs := NewReferenceRepository(db)

	cat, err := cats.Create(ctx, "Fixture Media")
	require.NoError(t, err)
	ct, err := cats.CreateType(ctx, cat.ID, "Streaming")
	require.NoError(t, err)

	beneficiaryID, err := refs.AddBeneficiary(ctx, "Alex")
	require.NoError(t, err)
	contractorID, err := refs.AddContractor(ctx, "Netflix")
	require.NoError(t, err)
	accountID, err := refs.AddBankAccount(ctx, "DE89370400440532013000")
	require.NoError(t, err)

	periods, err := refs.PaymentPeriods(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, periods)

	return fixture{
		category:      cat,
		contractType:  ct,
		beneficiaryID: beneficiaryID,
		contractorID:  contractorID,
		periodID:      periods[0].ID,
		accountID:     accountID,
	}
}

func (f fixture) contract(userID int64, fee string, end time.Time, notice, renewal int) *models.Contract {
	return &models.Contract{
		UserID:               userID,
		TypeID:               f.contractType.ID,
		BeneficiaryID:        f.beneficiaryID,
		ContractorID:         f.contractorID,
		Fee:                  decimal.RequireFromString(fee),
		PaymentPeriodID:      f.periodID,
		BankAccountID:        f.accountID,
		NoticePeriodMonths:   notice,
		RenewalPeriodMonths:  renewal,
		StartDate:            calendar.AddMonths(end, -renewal),
		EndDate:              end,
		NextCancellationDate: calendar.NextCancellationDate(end, notice),
	}
}
