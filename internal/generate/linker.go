//-------------------------------------------------------------------------
//
// rampgen
//
// Copyright (c) 2025 - 2026, Rampworks, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package generate

// DeriveTrades derives trades strictly from orders: one trade per order
// whose status is filled or partially_filled, nothing else. Identity
// fields are copied verbatim from the order, the traded amount is the
// order's filled amount, and the execution price is the order's limit
// price when it has one; market orders get an independently drawn
// price. An input with no qualifying orders yields an empty slice.
func (g *Generator) DeriveTrades(orders []Order) []Trade {
	trades := make([]Trade, 0, len(orders))

	for _, order := range orders {
		if order.Status != "filled" && order.Status != "partially_filled" {
			continue
		}

		price := g.drawMarketPrice()
		if order.LimitPrice != nil {
			price = *order.LimitPrice
		}

		baseAmount := order.FilledAmount
		quoteAmount := round8(baseAmount * price)

		isMaker := g.faker.Bool()
		feeRate := takerFeeRate
		if isMaker {
			feeRate = makerFeeRate
		}

		trades = append(trades, Trade{
			TradeID:       g.faker.UUID(),
			OrderID:       order.OrderID,
			UserID:        order.UserID,
			Timestamp:     order.Timestamp,
			TradingPair:   order.TradingPair,
			Side:          order.Side,
			BaseCurrency:  order.BaseCurrency,
			QuoteCurrency: order.QuoteCurrency,
			BaseAmount:    baseAmount,
			QuoteAmount:   quoteAmount,
			Price:         price,
			FeeAmount:     round8(quoteAmount * feeRate),
			FeeCurrency:   order.QuoteCurrency,
			OrderType:     order.OrderType,
			IsMaker:       isMaker,
			CreatedAt:     order.CreatedAt,
		})
	}

	return trades
}

// drawMarketPrice produces a stand-in execution price for market
// orders. The draw is unconstrained on purpose: prices only need to be
// internally traceable, not economically realistic.
func (g *Generator) drawMarketPrice() float64 {
	return round2(g.faker.Float64(1000, 100000))
}
