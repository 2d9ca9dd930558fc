//-------------------------------------------------------------------------
//
// rampgen
//
// Copyright (c) 2025 - 2026, Rampworks, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package generate synthesizes the exchange dataset: users, deposits,
// withdrawals, orders, ramp transactions, and the trades derived from
// filled orders. Generators are pure functions of their inputs and an
// injected faker; they perform no I/O.
package generate

import "time"

// Table names in the warehouse.
const (
	TableUsers       = "users"
	TableDeposits    = "deposits"
	TableWithdrawals = "withdrawals"
	TableOrders      = "orders"
	TableTrades      = "trades"
	TableRamp        = "ramp_transactions"
)

// Column lists, in warehouse order. Each entity's Row method must stay
// aligned with its column list.
var (
	UserColumns = []string{
		"user_id", "email", "signup_date", "country", "kyc_status",
		"account_tier", "account_balance_usd", "is_active", "created_at",
	}

	DepositColumns = []string{
		"deposit_id", "user_id", "timestamp", "deposit_type", "currency",
		"amount", "payment_method", "status", "blockchain_confirmations",
		"created_at",
	}

	WithdrawalColumns = []string{
		"withdrawal_id", "user_id", "timestamp", "withdrawal_type",
		"currency", "amount", "fee", "destination_type", "tx_hash",
		"status", "created_at",
	}

	OrderColumns = []string{
		"order_id", "user_id", "timestamp", "trading_pair", "side",
		"order_type", "base_currency", "quote_currency", "base_amount",
		"filled_amount", "limit_price", "status", "created_at",
	}

	TradeColumns = []string{
		"trade_id", "order_id", "user_id", "timestamp", "trading_pair",
		"side", "base_currency", "quote_currency", "base_amount",
		"quote_amount", "price", "fee_amount", "fee_currency",
		"order_type", "is_maker", "created_at",
	}

	RampColumns = []string{
		"transaction_id", "user_id", "timestamp", "fiat_currency",
		"fiat_amount", "crypto_token", "crypto_amount", "payment_method",
		"country", "status", "fee_usd", "created_at",
	}
)

// User is an exchange account holder. Users are created once by the
// bootstrap operation and never mutated afterwards.
type User struct {
	UserID      string
	Email       string
	SignupDate  time.Time
	Country     string
	KYCStatus   string
	AccountTier string
	BalanceUSD  float64
	IsActive    bool
	CreatedAt   time.Time
}

// Row returns the user's values in UserColumns order.
func (u User) Row() []any {
	return []any{
		u.UserID, u.Email, u.SignupDate, u.Country, u.KYCStatus,
		u.AccountTier, u.BalanceUSD, u.IsActive, u.CreatedAt,
	}
}

// Deposit is an incoming fiat or crypto transfer.
type Deposit struct {
	DepositID     string
	UserID        string
	Timestamp     time.Time
	Type          string
	Currency      string
	Amount        float64
	PaymentMethod string
	Status        string
	// Confirmations is nil for fiat deposits.
	Confirmations *int
	CreatedAt     time.Time
}

// Row returns the deposit's values in DepositColumns order.
func (d Deposit) Row() []any {
	return []any{
		d.DepositID, d.UserID, d.Timestamp, d.Type, d.Currency,
		d.Amount, d.PaymentMethod, d.Status, d.Confirmations, d.CreatedAt,
	}
}

// Withdrawal is an outgoing fiat or crypto transfer.
type Withdrawal struct {
	WithdrawalID    string
	UserID          string
	Timestamp       time.Time
	Type            string
	Currency        string
	Amount          float64
	Fee             float64
	DestinationType string
	// TxHash is nil for fiat withdrawals and for crypto withdrawals not
	// yet broadcast.
	TxHash    *string
	Status    string
	CreatedAt time.Time
}

// Row returns the withdrawal's values in WithdrawalColumns order.
func (w Withdrawal) Row() []any {
	return []any{
		w.WithdrawalID, w.UserID, w.Timestamp, w.Type, w.Currency,
		w.Amount, w.Fee, w.DestinationType, w.TxHash, w.Status, w.CreatedAt,
	}
}

// Order is an order-book entry. Orders with status filled or
// partially_filled are the sole source of trades.
type Order struct {
	OrderID       string
	UserID        string
	Timestamp     time.Time
	TradingPair   string
	Side          string
	OrderType     string
	BaseCurrency  string
	QuoteCurrency string
	BaseAmount    float64
	FilledAmount  float64
	// LimitPrice is nil iff the order is a market order.
	LimitPrice *float64
	Status     string
	CreatedAt  time.Time
}

// Row returns the order's values in OrderColumns order.
func (o Order) Row() []any {
	return []any{
		o.OrderID, o.UserID, o.Timestamp, o.TradingPair, o.Side,
		o.OrderType, o.BaseCurrency, o.QuoteCurrency, o.BaseAmount,
		o.FilledAmount, o.LimitPrice, o.Status, o.CreatedAt,
	}
}

// Trade is an execution derived from a filled or partially filled
// order. Every trade references the order it descends from.
type Trade struct {
	TradeID       string
	OrderID       string
	UserID        string
	Timestamp     time.Time
	TradingPair   string
	Side          string
	BaseCurrency  string
	QuoteCurrency string
	BaseAmount    float64
	QuoteAmount   float64
	Price         float64
	FeeAmount     float64
	FeeCurrency   string
	OrderType     string
	IsMaker       bool
	CreatedAt     time.Time
}

// Row returns the trade's values in TradeColumns order.
func (t Trade) Row() []any {
	return []any{
		t.TradeID, t.OrderID, t.UserID, t.Timestamp, t.TradingPair,
		t.Side, t.BaseCurrency, t.QuoteCurrency, t.BaseAmount,
		t.QuoteAmount, t.Price, t.FeeAmount, t.FeeCurrency,
		t.OrderType, t.IsMaker, t.CreatedAt,
	}
}

// RampTransaction is a fiat-to-crypto on-ramp purchase.
type RampTransaction struct {
	TransactionID string
	UserID        string
	Timestamp     time.Time
	FiatCurrency  string
	FiatAmount    float64
	CryptoToken   string
	CryptoAmount  float64
	PaymentMethod string
	Country       string
	Status        string
	FeeUSD        float64
	CreatedAt     time.Time
}

// Row returns the transaction's values in RampColumns order.
func (r RampTransaction) Row() []any {
	return []any{
		r.TransactionID, r.UserID, r.Timestamp, r.FiatCurrency,
		r.FiatAmount, r.CryptoToken, r.CryptoAmount, r.PaymentMethod,
		r.Country, r.Status, r.FeeUSD, r.CreatedAt,
	}
}

// UserRows converts users to warehouse rows.
func UserRows(users []User) [][]any {
	rows := make([][]any, len(users))
	for i, u := range users {
		rows[i] = u.Row()
	}
	return rows
}

// DepositRows converts deposits to warehouse rows.
func DepositRows(deposits []Deposit) [][]any {
	rows := make([][]any, len(deposits))
	for i, d := range deposits {
		rows[i] = d.Row()
	}
	return rows
}

// WithdrawalRows converts withdrawals to warehouse rows.
func WithdrawalRows(withdrawals []Withdrawal) [][]any {
	rows := make([][]any, len(withdrawals))
	for i, w := range withdrawals {
		rows[i] = w.Row()
	}
	return rows
}

// OrderRows converts orders to warehouse rows.
func OrderRows(orders []Order) [][]any {
	rows := make([][]any, len(orders))
	for i, o := range orders {
		rows[i] = o.Row()
	}
	return rows
}

// TradeRows converts trades to warehouse rows.
func TradeRows(trades []Trade) [][]any {
	rows := make([][]any, len(trades))
	for i, t := range trades {
		rows[i] = t.Row()
	}
	return rows
}

// RampRows converts ramp transactions to warehouse rows.
func RampRows(txns []RampTransaction) [][]any {
	rows := make([][]any, len(txns))
	for i, r := range txns {
		rows[i] = r.Row()
	}
	return rows
}
