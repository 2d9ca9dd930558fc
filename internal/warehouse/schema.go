//-------------------------------------------------------------------------
//
// rampgen
//
// Copyright (c) 2025 - 2026, Rampworks, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

// Schema SQL for the analytical warehouse. Tables are append-only; the
// loader never updates rows in place.
const createSchemaSQL = `
-- Users: exchange account holders, loaded once at bootstrap
CREATE TABLE IF NOT EXISTS users (
    user_id             UUID PRIMARY KEY,
    email               VARCHAR(100) NOT NULL,
    signup_date         TIMESTAMPTZ NOT NULL,
    country             CHAR(2) NOT NULL,
    kyc_status          VARCHAR(10) NOT NULL,
    account_tier        VARCHAR(15) NOT NULL,
    account_balance_usd NUMERIC(14,2) NOT NULL DEFAULT 0,
    is_active           BOOLEAN NOT NULL,
    created_at          TIMESTAMPTZ NOT NULL
);

-- Deposits: incoming fiat and crypto transfers
CREATE TABLE IF NOT EXISTS deposits (
    deposit_id               UUID PRIMARY KEY,
    user_id                  UUID NOT NULL,
    timestamp                TIMESTAMPTZ NOT NULL,
    deposit_type             VARCHAR(10) NOT NULL,
    currency                 VARCHAR(20) NOT NULL,
    amount                   NUMERIC(20,8) NOT NULL,
    payment_method           VARCHAR(20) NOT NULL,
    status                   VARCHAR(10) NOT NULL,
    blockchain_confirmations INTEGER,
    created_at               TIMESTAMPTZ NOT NULL
);

-- Withdrawals: outgoing fiat and crypto transfers
CREATE TABLE IF NOT EXISTS withdrawals (
    withdrawal_id    UUID PRIMARY KEY,
    user_id          UUID NOT NULL,
    timestamp        TIMESTAMPTZ NOT NULL,
    withdrawal_type  VARCHAR(10) NOT NULL,
    currency         VARCHAR(20) NOT NULL,
    amount           NUMERIC(20,8) NOT NULL,
    fee              NUMERIC(20,8) NOT NULL,
    destination_type VARCHAR(20) NOT NULL,
    tx_hash          CHAR(64),
    status           VARCHAR(10) NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL
);

-- Orders: order-book entries; filled orders are the source of trades
CREATE TABLE IF NOT EXISTS orders (
    order_id       UUID PRIMARY KEY,
    user_id        UUID NOT NULL,
    timestamp      TIMESTAMPTZ NOT NULL,
    trading_pair   VARCHAR(30) NOT NULL,
    side           VARCHAR(4) NOT NULL,
    order_type     VARCHAR(6) NOT NULL,
    base_currency  VARCHAR(20) NOT NULL,
    quote_currency VARCHAR(20) NOT NULL,
    base_amount    NUMERIC(20,8) NOT NULL,
    filled_amount  NUMERIC(20,8) NOT NULL DEFAULT 0,
    limit_price    NUMERIC(20,2),
    status         VARCHAR(20) NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL
);

-- Trades: executions derived from filled and partially filled orders
CREATE TABLE IF NOT EXISTS trades (
    trade_id       UUID PRIMARY KEY,
    order_id       UUID NOT NULL,
    user_id        UUID NOT NULL,
    timestamp      TIMESTAMPTZ NOT NULL,
    trading_pair   VARCHAR(30) NOT NULL,
    side           VARCHAR(4) NOT NULL,
    base_currency  VARCHAR(20) NOT NULL,
    quote_currency VARCHAR(20) NOT NULL,
    base_amount    NUMERIC(20,8) NOT NULL,
    quote_amount   NUMERIC(20,8) NOT NULL,
    price          NUMERIC(20,2) NOT NULL,
    fee_amount     NUMERIC(20,8) NOT NULL,
    fee_currency   VARCHAR(20) NOT NULL,
    order_type     VARCHAR(6) NOT NULL,
    is_maker       BOOLEAN NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL
);

-- Ramp Transactions: fiat-to-crypto on-ramp purchases
CREATE TABLE IF NOT EXISTS ramp_transactions (
    transaction_id UUID PRIMARY KEY,
    user_id        UUID NOT NULL,
    timestamp      TIMESTAMPTZ NOT NULL,
    fiat_currency  CHAR(3) NOT NULL,
    fiat_amount    NUMERIC(14,2) NOT NULL,
    crypto_token   VARCHAR(20) NOT NULL,
    crypto_amount  NUMERIC(20,8) NOT NULL,
    payment_method VARCHAR(20) NOT NULL,
    country        CHAR(2) NOT NULL,
    status         VARCHAR(10) NOT NULL,
    fee_usd        NUMERIC(14,2) NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL
);

-- Indexes for the analytical access paths
CREATE INDEX IF NOT EXISTS idx_deposits_user_id ON deposits(user_id);
CREATE INDEX IF NOT EXISTS idx_deposits_timestamp ON deposits(timestamp);
CREATE INDEX IF NOT EXISTS idx_withdrawals_user_id ON withdrawals(user_id);
CREATE INDEX IF NOT EXISTS idx_withdrawals_timestamp ON withdrawals(timestamp);
CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_timestamp ON orders(timestamp);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_trades_order_id ON trades(order_id);
CREATE INDEX IF NOT EXISTS idx_trades_user_id ON trades(user_id);
CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trades(timestamp);
CREATE INDEX IF NOT EXISTS idx_ramp_user_id ON ramp_transactions(user_id);
CREATE INDEX IF NOT EXISTS idx_ramp_timestamp ON ramp_transactions(timestamp);
`

// Drop schema SQL
const dropSchemaSQL = `
DROP TABLE IF EXISTS ramp_transactions CASCADE;
DROP TABLE IF EXISTS trades CASCADE;
DROP TABLE IF EXISTS orders CASCADE;
DROP TABLE IF EXISTS withdrawals CASCADE;
DROP TABLE IF EXISTS deposits CASCADE;
DROP TABLE IF EXISTS users CASCADE;
`
