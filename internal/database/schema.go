package database

import (
	"context"
	"fmt"
)

// EnsureSchema creates any missing tables. It is idempotent and never alters
// existing tables.
func EnsureSchema(ctx context.Context, db PGXDB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS contract_categories (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS contract_types (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			category_id INTEGER NOT NULL REFERENCES contract_categories(id),
			UNIQUE (category_id, name)
		)`,

		`CREATE TABLE IF NOT EXISTS contract_beneficiaries (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS contractors (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS payment_periods (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS bankaccounts (
			id SERIAL PRIMARY KEY,
			iban TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS contracts (
			contract_id SERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			contract_type INTEGER NOT NULL REFERENCES contract_types(id),
			contract_beneficiary_1 INTEGER NOT NULL REFERENCES contract_beneficiaries(id),
			contractor INTEGER NOT NULL REFERENCES contractors(id),
			contract_fee NUMERIC(12, 2) NOT NULL,
			contract_payment_period INTEGER NOT NULL REFERENCES payment_periods(id),
			bankaccount INTEGER NOT NULL REFERENCES bankaccounts(id),
			notice_period_months INTEGER NOT NULL,
			contract_start DATE NOT NULL,
			contract_end DATE NOT NULL,
			contract_next_cancellation_date DATE NOT NULL,
			contract_renewal_period_months INTEGER NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			alert_active BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_contracts_type ON contracts(contract_type)`,
		`CREATE INDEX IF NOT EXISTS idx_contracts_user_id ON contracts(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_contracts_next_cancellation ON contracts(contract_next_cancellation_date)`,

		`CREATE TABLE IF NOT EXISTS reminder_subscriptions (
			chat_id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for i, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d failed: %w", i+1, err)
		}
	}

	return nil
}

// DefaultPaymentPeriods are inserted by SeedPaymentPeriods.
var DefaultPaymentPeriods = []string{
	"monthly",
	"quarterly",
	"half-yearly",
	"yearly",
}

// SeedPaymentPeriods inserts the default payment periods.
func SeedPaymentPeriods(ctx context.Context, db PGXDB) error {
	for _, name := range DefaultPaymentPeriods {
		_, err := db.Exec(ctx, `
			INSERT INTO payment_periods (name) VALUES ($1)
			ON CONFLICT (name) DO NOTHING
		`, name)
		if err != nil {
			return fmt.Errorf("failed to seed payment period %s: %w", name, err)
		}
	}
	return nil
}
