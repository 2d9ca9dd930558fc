//-------------------------------------------------------------------------
//
// rampgen
//
// Copyright (c) 2025 - 2026, Rampworks, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package generate

import (
	"errors"
	"math"
	"time"

	"github.com/rampworks/rampgen/internal/datagen"
	"github.com/rampworks/rampgen/internal/market"
)

// ErrEmptyUserPool is returned when a dependent-entity generator is
// called without any user ids to reference. No transactional entity may
// be generated before the user bootstrap has run.
var ErrEmptyUserPool = errors.New(
	"user pool is empty: run 'rampgen bootstrap' to load users before generating batches")

// Fee schedule. These rates are part of the dataset's contract; tests
// assert them.
const (
	rampFeeRate           = 0.015  // platform fee on ramp purchases
	cryptoWithdrawalRate  = 0.005  // percentage fee on crypto withdrawals
	fiatWithdrawalFeeUSD  = 10.0   // flat fee on fiat withdrawals
	makerFeeRate          = 0.0025 // trade fee when providing liquidity
	takerFeeRate          = 0.0040 // trade fee when taking liquidity
	userSignupWindowDays  = 730
	secondsPerDay         = 86400
	partialFillFloor      = 0.1
	partialFillCeil       = 0.9
	limitPriceSpread      = 0.05 // limit orders priced market +/- 5%
	fallbackTokenPriceUSD = 1000 // used when a pair side has no quote
)

// Categorical distributions. Weights are percentages; tests assert
// empirical convergence.
var (
	kycStatuses   = []string{"verified", "pending", "rejected"}
	kycWeights    = []int{70, 20, 10}
	accountTiers  = []string{"basic", "intermediate", "pro"}
	tierWeights   = []int{60, 30, 10}
	activeWeights = []int{90, 10} // active / inactive

	depositStatuses = []string{"completed", "pending", "failed"}
	depositWeights  = []int{90, 7, 3}

	withdrawalStatuses = []string{"completed", "pending", "failed", "rejected"}
	withdrawalWeights  = []int{85, 10, 3, 2}

	orderStatuses = []string{"filled", "open", "cancelled", "partially_filled", "expired"}
	orderWeights  = []int{40, 30, 20, 8, 2}

	rampStatuses = []string{"completed", "failed", "pending"}
	rampWeights  = []int{85, 10, 5}

	orderSides = []string{"buy", "sell"}
	orderTypes = []string{"limit", "market"}

	fiatDepositMethods      = []string{"bank_transfer", "wire", "ach_transfer", "sepa"}
	fiatDestinationTypes    = []string{"bank_account", "card"}
	cryptoDepositMethod     = "blockchain"
	cryptoDestinationType   = "wallet_address"
	txHashPresentWeights    = []int{85, 15}
	fiatDepositShareWeights = []int{70, 30} // fiat / crypto deposits
	cryptoWithdrawalShare   = []int{60, 40} // crypto / fiat withdrawals
)

// Config carries the currency universe the generators draw from.
type Config struct {
	// Fiat lists supported fiat currency codes.
	Fiat []string

	// Crypto lists supported token identifiers.
	Crypto []string

	// PaymentMethods lists ramp payment methods.
	PaymentMethods []string
}

// Generator produces one day's worth of rows for each table. All
// randomness flows through the injected faker, so a seeded faker yields
// a reproducible dataset.
type Generator struct {
	faker *datagen.Faker
	cfg   Config
}

// NewGenerator creates a Generator drawing randomness from faker.
func NewGenerator(faker *datagen.Faker, cfg Config) *Generator {
	return &Generator{faker: faker, cfg: cfg}
}

// Users synthesizes the one-time user population. Signup dates fall
// within the two years preceding now.
func (g *Generator) Users(count int, now time.Time) []User {
	windowStart := now.AddDate(0, 0, -userSignupWindowDays)

	users := make([]User, 0, count)
	for i := 0; i < count; i++ {
		signup := g.faker.Date(windowStart, now)

		// Most users start with an empty balance; some deposit immediately.
		balance := 0.0
		if g.faker.Int(1, 10) > 7 {
			balance = round2(g.faker.Float64(100, 10000))
		}

		users = append(users, User{
			UserID:      g.faker.UUID(),
			Email:       g.faker.Email(),
			SignupDate:  signup,
			Country:     g.faker.CountryCode(),
			KYCStatus:   datagen.ChooseWeighted(g.faker, kycStatuses, kycWeights),
			AccountTier: datagen.ChooseWeighted(g.faker, accountTiers, tierWeights),
			BalanceUSD:  balance,
			IsActive:    datagen.ChooseWeighted(g.faker, []bool{true, false}, activeWeights),
			CreatedAt:   signup,
		})
	}
	return users
}

// Deposits synthesizes count deposits for the given day, each
// referencing a user id drawn from the pool.
func (g *Generator) Deposits(count int, day time.Time, userIDs []string) ([]Deposit, error) {
	if len(userIDs) == 0 {
		return nil, ErrEmptyUserPool
	}

	deposits := make([]Deposit, 0, count)
	for i := 0; i < count; i++ {
		ts := g.timestampIn(day)
		d := Deposit{
			DepositID: g.faker.UUID(),
			UserID:    datagen.Choose(g.faker, userIDs),
			Timestamp: ts,
			Status:    datagen.ChooseWeighted(g.faker, depositStatuses, depositWeights),
			CreatedAt: ts,
		}

		isFiat := datagen.ChooseWeighted(g.faker, []bool{true, false}, fiatDepositShareWeights)
		if isFiat {
			d.Type = "fiat"
			d.Currency = datagen.Choose(g.faker, g.cfg.Fiat)
			d.Amount = round2(g.faker.Float64(50, 10000))
			d.PaymentMethod = datagen.Choose(g.faker, fiatDepositMethods)
		} else {
			d.Type = "crypto"
			d.Currency = datagen.Choose(g.faker, g.cfg.Crypto)
			d.Amount = round8(g.faker.Float64(0.001, 10))
			d.PaymentMethod = cryptoDepositMethod
			conf := g.faker.Int(1, 20)
			d.Confirmations = &conf
		}

		deposits = append(deposits, d)
	}
	return deposits, nil
}

// Withdrawals synthesizes count withdrawals for the given day. Crypto
// withdrawals charge 0.5% of the amount; fiat withdrawals a flat $10.
func (g *Generator) Withdrawals(count int, day time.Time, userIDs []string) ([]Withdrawal, error) {
	if len(userIDs) == 0 {
		return nil, ErrEmptyUserPool
	}

	withdrawals := make([]Withdrawal, 0, count)
	for i := 0; i < count; i++ {
		ts := g.timestampIn(day)
		w := Withdrawal{
			WithdrawalID: g.faker.UUID(),
			UserID:       datagen.Choose(g.faker, userIDs),
			Timestamp:    ts,
			Status:       datagen.ChooseWeighted(g.faker, withdrawalStatuses, withdrawalWeights),
			CreatedAt:    ts,
		}

		isCrypto := datagen.ChooseWeighted(g.faker, []bool{true, false}, cryptoWithdrawalShare)
		if isCrypto {
			w.Type = "crypto"
			w.Currency = datagen.Choose(g.faker, g.cfg.Crypto)
			w.Amount = round8(g.faker.Float64(0.001, 5))
			w.Fee = CryptoWithdrawalFee(w.Amount)
			w.DestinationType = cryptoDestinationType
			if datagen.ChooseWeighted(g.faker, []bool{true, false}, txHashPresentWeights) {
				hash := g.faker.HexString(64)
				w.TxHash = &hash
			}
		} else {
			w.Type = "fiat"
			w.Currency = datagen.Choose(g.faker, g.cfg.Fiat)
			w.Amount = round2(g.faker.Float64(100, 50000))
			w.Fee = FiatWithdrawalFee()
			w.DestinationType = datagen.Choose(g.faker, fiatDestinationTypes)
		}

		withdrawals = append(withdrawals, w)
	}
	return withdrawals, nil
}

// Orders synthesizes count order-book entries for the given day. Limit
// orders carry a price within 5% of the token's market price; market
// orders carry no limit price. Filled amounts follow the status:
// the full base amount when filled, a 10-90% slice when partially
// filled, zero otherwise.
func (g *Generator) Orders(count int, day time.Time, userIDs []string, snap market.Snapshot) ([]Order, error) {
	if len(userIDs) == 0 {
		return nil, ErrEmptyUserPool
	}

	quotePool := make([]string, 0, len(g.cfg.Fiat)+len(g.cfg.Crypto))
	quotePool = append(quotePool, g.cfg.Fiat...)
	quotePool = append(quotePool, g.cfg.Crypto...)

	orders := make([]Order, 0, count)
	for i := 0; i < count; i++ {
		ts := g.timestampIn(day)
		base := datagen.Choose(g.faker, g.cfg.Crypto)
		quote := datagen.Choose(g.faker, quotePool)
		for quote == base {
			quote = datagen.Choose(g.faker, quotePool)
		}

		orderType := datagen.Choose(g.faker, orderTypes)
		baseAmount := round8(g.faker.Float64(0.01, 50))

		var limitPrice *float64
		if orderType == "limit" {
			basePrice, ok := snap.CryptoPrices[base]
			if !ok {
				basePrice = fallbackTokenPriceUSD
			}
			p := round2(basePrice * g.faker.Float64(1-limitPriceSpread, 1+limitPriceSpread))
			limitPrice = &p
		}

		status := datagen.ChooseWeighted(g.faker, orderStatuses, orderWeights)
		var filled float64
		switch status {
		case "filled":
			filled = baseAmount
		case "partially_filled":
			filled = round8(baseAmount * g.faker.Float64(partialFillFloor, partialFillCeil))
		}

		orders = append(orders, Order{
			OrderID:       g.faker.UUID(),
			UserID:        datagen.Choose(g.faker, userIDs),
			Timestamp:     ts,
			TradingPair:   base + "/" + quote,
			Side:          datagen.Choose(g.faker, orderSides),
			OrderType:     orderType,
			BaseCurrency:  base,
			QuoteCurrency: quote,
			BaseAmount:    baseAmount,
			FilledAmount:  filled,
			LimitPrice:    limitPrice,
			Status:        status,
			CreatedAt:     ts,
		})
	}
	return orders, nil
}

// RampTransactions synthesizes count fiat-to-crypto purchases for the
// given day, applying the two-step conversion: fiat to USD via the FX
// rate, platform fee deducted, remainder converted at the token price.
func (g *Generator) RampTransactions(count int, day time.Time, userIDs []string, snap market.Snapshot) ([]RampTransaction, error) {
	if len(userIDs) == 0 {
		return nil, ErrEmptyUserPool
	}

	txns := make([]RampTransaction, 0, count)
	for i := 0; i < count; i++ {
		ts := g.timestampIn(day)
		fiatCurrency := datagen.Choose(g.faker, g.cfg.Fiat)
		fiatAmount := round2(g.faker.Float64(20, 5000))
		token := datagen.Choose(g.faker, g.cfg.Crypto)

		conv := ConvertRamp(fiatAmount, fiatCurrency, token, snap)

		txns = append(txns, RampTransaction{
			TransactionID: g.faker.UUID(),
			UserID:        datagen.Choose(g.faker, userIDs),
			Timestamp:     ts,
			FiatCurrency:  fiatCurrency,
			FiatAmount:    fiatAmount,
			CryptoToken:   token,
			CryptoAmount:  conv.CryptoAmount,
			PaymentMethod: datagen.Choose(g.faker, g.cfg.PaymentMethods),
			Country:       g.faker.CountryCode(),
			Status:        datagen.ChooseWeighted(g.faker, rampStatuses, rampWeights),
			FeeUSD:        conv.FeeUSD,
			CreatedAt:     ts,
		})
	}
	return txns, nil
}

// RampConversion is the result of the two-step currency conversion.
type RampConversion struct {
	// USDAmount is the gross USD value of the fiat payment.
	USDAmount float64

	// CryptoAmount is the token quantity purchased after fees, rounded to
	// 8 decimal places. Zero when the token has no positive price.
	CryptoAmount float64

	// FeeUSD is the platform fee, rounded to 2 decimal places.
	FeeUSD float64
}

// ConvertRamp applies the platform's conversion arithmetic:
// usd = fiat / fx_rate (rate defaults to 1.0 when unknown),
// net = usd * (1 - fee), crypto = net / token_price.
func ConvertRamp(fiatAmount float64, fiatCurrency, token string, snap market.Snapshot) RampConversion {
	rate, ok := snap.FXRates[fiatCurrency]
	if !ok || rate == 0 {
		rate = 1.0
	}
	usd := fiatAmount / rate
	net := usd * (1 - rampFeeRate)

	crypto := 0.0
	if price := snap.CryptoPrices[token]; price > 0 {
		crypto = round8(net / price)
	}

	return RampConversion{
		USDAmount:    usd,
		CryptoAmount: crypto,
		FeeUSD:       round2(usd * rampFeeRate),
	}
}

// CryptoWithdrawalFee returns the 0.5% fee on a crypto withdrawal.
func CryptoWithdrawalFee(amount float64) float64 {
	return round8(amount * cryptoWithdrawalRate)
}

// FiatWithdrawalFee returns the flat fee on a fiat withdrawal.
func FiatWithdrawalFee() float64 {
	return fiatWithdrawalFeeUSD
}

// timestampIn draws a uniform instant within the given calendar day.
// Every row of a batch lands inside that single day, which is what makes
// one commit correspond to exactly one day of data.
func (g *Generator) timestampIn(day time.Time) time.Time {
	y, m, d := day.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration(g.faker.Int(0, secondsPerDay-1)) * time.Second)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}
