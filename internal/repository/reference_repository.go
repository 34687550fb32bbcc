package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/contract-bot/internal/database"
	"gitlab.com/yelinaung/contract-bot/internal/models"
)

// ReferenceRepository reads the lookup tables offered during the dialogue.
// Rows are seeded at startup from SEED_BENEFICIARIES, SEED_CONTRACTORS and
// SEED_BANK_ACCOUNTS or added by the operator directly in the database.
type ReferenceRepository struct {
	db database.PGXDB
}

// NewReferenceRepository creates a new ReferenceRepository.
func NewReferenceRepository(db database.PGXDB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

type idName struct {
	ID   int
	Name string
}

func (r *ReferenceRepository) list(ctx context.Context, what, query string) ([]idName, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	defer rows.Close()

	var out []idName
	for rows.Next() {
		var v idName
		if err := rows.Scan(&v.ID, &v.Name); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", what, err)
	}
	return out, nil
}

// Beneficiaries lists all beneficiaries.
func (r *ReferenceRepository) Beneficiaries(ctx context.Context) ([]models.Beneficiary, error) {
	rows, err := r.list(ctx, "beneficiaries", `SELECT id, name FROM contract_beneficiaries ORDER BY id`)
	if err != nil {
		return nil, err
	}
	out := make([]models.Beneficiary, len(rows))
	for i, v := range rows {
		out[i] = models.Beneficiary{ID: v.ID, Name: v.Name}
	}
	return out, nil
}

// Contractors lists all contractors ordered by name.
func (r *ReferenceRepository) Contractors(ctx context.Context) ([]models.Contractor, error) {
	rows, err := r.list(ctx, "contractors", `SELECT id, name FROM contractors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	out := make([]models.Contractor, len(rows))
	for i, v := range rows {
		out[i] = models.Contractor{ID: v.ID, Name: v.Name}
	}
	return out, nil
}

// PaymentPeriods lists all payment periods.
func (r *ReferenceRepository) PaymentPeriods(ctx context.Context) ([]models.PaymentPeriod, error) {
	rows, err := r.list(ctx, "payment periods", `SELECT id, name FROM payment_periods ORDER BY id`)
	if err != nil {
		return nil, err
	}
	out := make([]models.PaymentPeriod, len(rows))
	for i, v := range rows {
		out[i] = models.PaymentPeriod{ID: v.ID, Name: v.Name}
	}
	return out, nil
}

// BankAccounts lists all bank accounts.
func (r *ReferenceRepository) BankAccounts(ctx context.Context) ([]models.BankAccount, error) {
	rows, err := r.list(ctx, "bank accounts", `SELECT id, iban FROM bankaccounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	out := make([]models.BankAccount, len(rows))
	for i, v := range rows {
		out[i] = models.BankAccount{ID: v.ID, IBAN: v.Name}
	}
	return out, nil
}

// ensure returns the ID of the row whose column equals value, inserting it
// when missing.
func (r *ReferenceRepository) ensure(ctx context.Context, what, table, column, value string) (int, error) {
	query := fmt.Sprintf(`
		WITH existing AS (
			SELECT id FROM %[1]s WHERE %[2]s = $1::text ORDER BY id LIMIT 1
		), inserted AS (
			INSERT INTO %[1]s (%[2]s)
			SELECT $1::text WHERE NOT EXISTS (SELECT 1 FROM existing)
			RETURNING id
		)
		SELECT id FROM existing
		UNION ALL
		SELECT id FROM inserted
	`, table, column)

	var id int
	if err := r.db.QueryRow(ctx, query, value).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to add %s: %w", what, err)
	}
	return id, nil
}

// AddBeneficiary returns the ID of the named beneficiary, inserting it if missing.
func (r *ReferenceRepository) AddBeneficiary(ctx context.Context, name string) (int, error) {
	return r.ensure(ctx, "beneficiary", "contract_beneficiaries", "name", name)
}

// AddContractor returns the ID of the named contractor, inserting it if missing.
func (r *ReferenceRepository) AddContractor(ctx context.Context, name string) (int, error) {
	return r.ensure(ctx, "contractor", "contractors", "name", name)
}

// AddBankAccount returns the ID of the account with the given IBAN, inserting it if missing.
func (r *ReferenceRepository) AddBankAccount(ctx context.Context, iban string) (int, error) {
	return r.ensure(ctx, "bank account", "bankaccounts", "iban", iban)
}

// Seed adds the configured lookup rows that are not there yet.
func (r *ReferenceRepository) Seed(ctx context.Context, beneficiaries, contractors, ibans []string) error {
	for _, set := range []struct {
		values []string
		add    func(context.Context, string) (int, error)
	}{
		{beneficiaries, r.AddBeneficiary},
		{contractors, r.AddContractor},
		{ibans, r.AddBankAccount},
	} {
		for _, v := range set.values {
			if _, err := set.add(ctx, v); err != nil {
				return err
			}
		}
	}
	return nil
}
