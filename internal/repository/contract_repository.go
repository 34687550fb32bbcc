package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/contract-bot/internal/database"
	"gitlab.com/yelinaung/contract-bot/internal/models"
)

// ContractRepository handles contract database operations.
type ContractRepository struct {
	db database.PGXDB
}

// NewContractRepository creates a new ContractRepository.
func NewContractRepository(db database.PGXDB) *ContractRepository {
	return &ContractRepository{db: db}
}

const contractColumns = `
	c.contract_id, c.user_id, c.contract_type, c.contract_beneficiary_1, c.contractor,
	c.contract_fee, c.contract_payment_period, c.bankaccount, c.notice_period_months,
	c.contract_renewal_period_months, c.contract_start, c.contract_end,
	c.contract_next_cancellation_date, c.is_active, c.alert_active, c.created_at`

const detailSelect = `
	SELECT ` + contractColumns + `,
	       cat.name, t.name, b.name, ctr.name, p.name, a.iban
	FROM contracts c
	JOIN contract_types t ON t.id = c.contract_type
	JOIN contract_categories cat ON cat.id = t.category_id
	JOIN contract_beneficiaries b ON b.id = c.contract_beneficiary_1
	JOIN contractors ctr ON ctr.id = c.contractor
	JOIN payment_periods p ON p.id = c.contract_payment_period
	JOIN bankaccounts a ON a.id = c.bankaccount`

func contractDest(c *models.Contract) []any {
	return []any{
		&c.ID, &c.UserID, &c.TypeID, &c.BeneficiaryID, &c.ContractorID,
		&c.Fee, &c.PaymentPeriodID, &c.BankAccountID, &c.NoticePeriodMonths,
		&c.RenewalPeriodMonths, &c.StartDate, &c.EndDate,
		&c.NextCancellationDate, &c.IsActive, &c.AlertActive, &c.CreatedAt,
	}
}

func scanDetail(row pgx.Row) (*models.ContractDetail, error) {
	var d models.ContractDetail
	dest := append(contractDest(&d.Contract),
		&d.CategoryName, &d.TypeName, &d.BeneficiaryName,
		&d.ContractorName, &d.PaymentPeriodName, &d.IBAN)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new contract and fills in its ID and defaults.
func (r *ContractRepository) Create(ctx context.Context, c *models.Contract) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO contracts (
			user_id, contract_type, contract_beneficiary_1, contractor, contract_fee,
			contract_payment_period, bankaccount, notice_period_months,
			contract_start, contract_end, contract_next_cancellation_date,
			contract_renewal_period_months
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING contract_id, is_active, alert_active, created_at
	`, c.UserID, c.TypeID, c.BeneficiaryID, c.ContractorID, c.Fee,
		c.PaymentPeriodID, c.BankAccountID, c.NoticePeriodMonths,
		c.StartDate, c.EndDate, c.NextCancellationDate,
		c.RenewalPeriodMonths,
	).Scan(&c.ID, &c.IsActive, &c.AlertActive, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

// GetByID retrieves a bare contract row.
func (r *ContractRepository) GetByID(ctx context.Context, id int) (*models.Contract, error) {
	var c models.Contract
	err := r.db.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts c WHERE c.contract_id = $1`, id).
		Scan(contractDest(&c)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", notFound(err))
	}
	return &c, nil
}

// GetDetail retrieves a contract with all referenced names.
func (r *ContractRepository) GetDetail(ctx context.Context, id int) (*models.ContractDetail, error) {
	d, err := scanDetail(r.db.QueryRow(ctx, detailSelect+` WHERE c.contract_id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get contract detail: %w", notFound(err))
	}
	return d, nil
}

// ListByType lists active contracts of one type.
func (r *ContractRepository) ListByType(ctx context.Context, typeID int) ([]models.ContractSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.contract_id, t.name, ctr.name
		FROM contracts c
		JOIN contract_types t ON t.id = c.contract_type
		JOIN contractors ctr ON ctr.id = c.contractor
		WHERE c.contract_type = $1 AND c.is_active
		ORDER BY ctr.name, c.contract_id
	`, typeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts by type: %w", err)
	}
	defer rows.Close()

	var out []models.ContractSummary
	for rows.Next() {
		var s models.ContractSummary
		if err := rows.Scan(&s.ID, &s.TypeName, &s.ContractorName); err != nil {
			return nil, fmt.Errorf("failed to scan contract summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contracts: %w", err)
	}
	return out, nil
}

// ListActive lists every active contract.
func (r *ContractRepository) ListActive(ctx context.Context) ([]models.Contract, error) {
	rows, err := r.db.Query(ctx, `SELECT `+contractColumns+` FROM contracts c WHERE c.is_active ORDER BY c.contract_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active contracts: %w", err)
	}
	defer rows.Close()

	var out []models.Contract
	for rows.Next() {
		var c models.Contract
		if err := rows.Scan(contractDest(&c)...); err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contracts: %w", err)
	}
	return out, nil
}

// ListAllDetails lists every contract regardless of owner.
func (r *ContractRepository) ListAllDetails(ctx context.Context) ([]models.ContractDetail, error) {
	return r.listDetails(ctx, detailSelect+` ORDER BY c.contract_next_cancellation_date, c.contract_id`)
}

// ListAlertingForUser lists a user's contracts that have reminders enabled.
func (r *ContractRepository) ListAlertingForUser(ctx context.Context, userID int64) ([]models.ContractDetail, error) {
	return r.listDetails(ctx, detailSelect+`
		WHERE c.user_id = $1 AND c.alert_active AND c.is_active
		ORDER BY c.contract_next_cancellation_date, c.contract_id`, userID)
}

func (r *ContractRepository) listDetails(ctx context.Context, query string, args ...any) ([]models.ContractDetail, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contract details: %w", err)
	}
	defer rows.Close()

	var out []models.ContractDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract detail: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contract details: %w", err)
	}
	return out, nil
}

// UpdateDates stores a rolled-forward end date and cancellation deadline.
func (r *ContractRepository) UpdateDates(ctx context.Context, id int, end, nextCancellation time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE contracts
		SET contract_end = $2, contract_next_cancellation_date = $3
		WHERE contract_id = $1
	`, id, end, nextCancellation)
	if err != nil {
		return fmt.Errorf("failed to update contract dates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update contract dates: %w", ErrNotFound)
	}
	return nil
}

// SetAlerting switches the reminder flag of a contract.
func (r *ContractRepository) SetAlerting(ctx context.Context, id int, enabled bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE contracts SET alert_active = $2 WHERE contract_id = $1`, id, enabled)
	if err != nil {
		return fmt.Errorf("failed to set alerting status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to set alerting status: %w", ErrNotFound)
	}
	return nil
}

// Delete removes a contract by ID.
func (r *ContractRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM contracts WHERE contract_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete contract: %w", ErrNotFound)
	}
	return nil
}
