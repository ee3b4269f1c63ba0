package db

import (
	"context"
	"fmt"
)

// Schema is idempotent: every statement is IF NOT EXISTS so Migrate can run on
// every startup.
const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id BIGINT PRIMARY KEY,
	user_id VARCHAR(64) NOT NULL,
	amount NUMERIC(20, 2) NOT NULL,
	payment_method VARCHAR(50) NOT NULL DEFAULT '',
	description VARCHAR(255) NOT NULL DEFAULT '',
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status);
CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id);

CREATE TABLE IF NOT EXISTS archived_transactions (
	id BIGSERIAL PRIMARY KEY,
	original_transaction_id BIGINT NOT NULL UNIQUE,
	user_id VARCHAR(64) NOT NULL,
	amount NUMERIC(20, 2) NOT NULL,
	payment_method VARCHAR(50) NOT NULL DEFAULT '',
	description VARCHAR(255) NOT NULL DEFAULT '',
	status VARCHAR(20) NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL,
	archived_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS wallets (
	user_id VARCHAR(64) PRIMARY KEY,
	balance NUMERIC(20, 2) NOT NULL DEFAULT 0.00,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
	CONSTRAINT wallets_positive_balance CHECK (balance >= 0)
);

CREATE TABLE IF NOT EXISTS wallet_events (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id VARCHAR(64) NOT NULL,
	event_type VARCHAR(50) NOT NULL,
	amount NUMERIC(20, 2) NOT NULL,
	balance_before NUMERIC(20, 2) NOT NULL,
	balance_after NUMERIC(20, 2) NOT NULL,
	metadata JSONB,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_wallet_events_user ON wallet_events(user_id, created_at);

CREATE TABLE IF NOT EXISTS platform_wallet (
	id INT PRIMARY KEY,
	balance NUMERIC(20, 2) NOT NULL DEFAULT 0.00,
	updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
	CONSTRAINT platform_positive_balance CHECK (balance >= 0)
);

CREATE TABLE IF NOT EXISTS instructor_earnings (
	instructor_id VARCHAR(64) PRIMARY KEY,
	total_earning NUMERIC(20, 2) NOT NULL DEFAULT 0.00,
	total_withdrawn NUMERIC(20, 2) NOT NULL DEFAULT 0.00,
	updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
	CONSTRAINT earnings_withdrawn_bound CHECK (total_withdrawn <= total_earning)
);

CREATE TABLE IF NOT EXISTS payout_requests (
	id UUID PRIMARY KEY,
	instructor_id VARCHAR(64) NOT NULL,
	transaction_id BIGINT NOT NULL UNIQUE,
	amount NUMERIC(20, 2) NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	reason TEXT,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
	processed_at TIMESTAMP WITH TIME ZONE
);

CREATE INDEX IF NOT EXISTS idx_payout_requests_status ON payout_requests(status, created_at);
CREATE INDEX IF NOT EXISTS idx_payout_requests_instructor ON payout_requests(instructor_id);

CREATE TABLE IF NOT EXISTS settlements (
	order_id VARCHAR(64) PRIMARY KEY,
	user_id VARCHAR(64) NOT NULL,
	amount NUMERIC(20, 2) NOT NULL,
	transaction_id BIGINT NOT NULL,
	settled_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS outbox_events (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	aggregate_id VARCHAR(255) NOT NULL,
	event_type VARCHAR(100) NOT NULL,
	topic VARCHAR(100) NOT NULL,
	payload JSONB NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	attempts INT NOT NULL DEFAULT 0,
	last_error TEXT,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
	published_at TIMESTAMP WITH TIME ZONE
);

CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox_events(status, created_at);
CREATE INDEX IF NOT EXISTS idx_outbox_aggregate ON outbox_events(aggregate_id);
`

// Migrate applies the schema and seeds the platform wallet singleton. The
// platform wallet must exist before any settlement runs; a missing row at
// read time is a configuration error, not a business error.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	seed := `INSERT INTO platform_wallet (id, balance) VALUES (1, 0.00) ON CONFLICT (id) DO NOTHING`
	if _, err := d.ExecContext(ctx, seed); err != nil {
		return fmt.Errorf("failed to seed platform wallet: %w", err)
	}

	d.logger.Info("Database schema is up to date")
	return nil
}
