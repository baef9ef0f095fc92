package biz

import (
	"testing"

	"xinyuan_tech/billing-service/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatProductPrices_KeepsLatestPerInterval(t *testing.T) {
	prices := []*StripePrice{
		{ID: "price_month_old", UnitAmount: 900, RecurringInterval: constants.IntervalMonth, Created: 100},
		{ID: "price_month_new", UnitAmount: 1000, RecurringInterval: constants.IntervalMonth, Created: 200},
		{ID: "price_year_old", UnitAmount: 9000, RecurringInterval: constants.IntervalYear, Created: 50},
		{ID: "price_year_new", UnitAmount: 10000, RecurringInterval: constants.IntervalYear, Created: 300},
	}

	result := FormatProductPrices(prices)

	require.Len(t, result, 2)
	assert.Equal(t, "price_month_new", result[0].StripePriceID)
	assert.Equal(t, "price_year_new", result[1].StripePriceID)
}

func TestFormatProductPrices_DiscardsInvalidPrices(t *testing.T) {
	prices := []*StripePrice{
		// 一次性价格, 没有计费区间
		{ID: "price_one_time", UnitAmount: 500, RecurringInterval: "", Created: 400},
		// 金额为空的价格
		{ID: "price_no_amount", UnitAmount: 0, RecurringInterval: constants.IntervalMonth, Created: 500},
		{ID: "price_valid", UnitAmount: 1000, RecurringInterval: constants.IntervalMonth, Created: 100},
	}

	result := FormatProductPrices(prices)

	require.Len(t, result, 1)
	assert.Equal(t, "price_valid", result[0].StripePriceID)
}

func TestFormatProductPrices_InvalidNewerDoesNotShadowValidOlder(t *testing.T) {
	prices := []*StripePrice{
		{ID: "price_valid", UnitAmount: 1000, RecurringInterval: constants.IntervalMonth, Created: 100},
		{ID: "price_no_amount", UnitAmount: 0, RecurringInterval: constants.IntervalMonth, Created: 999},
	}

	result := FormatProductPrices(prices)

	require.Len(t, result, 1)
	assert.Equal(t, "price_valid", result[0].StripePriceID)
}

func TestFormatProductPrices_SortsByUnitAmountAscending(t *testing.T) {
	prices := []*StripePrice{
		{ID: "price_year", UnitAmount: 10000, RecurringInterval: constants.IntervalYear, Created: 1},
		{ID: "price_week", UnitAmount: 300, RecurringInterval: "week", Created: 1},
		{ID: "price_month", UnitAmount: 1000, RecurringInterval: constants.IntervalMonth, Created: 1},
	}

	result := FormatProductPrices(prices)

	require.Len(t, result, 3)
	for i := 1; i < len(result); i++ {
		assert.LessOrEqual(t, result[i-1].UnitAmount, result[i].UnitAmount)
	}
}

func TestFormatProductPrices_AtMostOnePerInterval(t *testing.T) {
	prices := []*StripePrice{
		{ID: "a", UnitAmount: 100, RecurringInterval: constants.IntervalMonth, Created: 1},
		{ID: "b", UnitAmount: 200, RecurringInterval: constants.IntervalMonth, Created: 2},
		{ID: "c", UnitAmount: 300, RecurringInterval: constants.IntervalMonth, Created: 3},
	}

	result := FormatProductPrices(prices)

	require.Len(t, result, 1)
	assert.Equal(t, "c", result[0].StripePriceID)
}

func TestFormatProductPrices_Empty(t *testing.T) {
	assert.Empty(t, FormatProductPrices(nil))
	assert.Empty(t, FormatProductPrices([]*StripePrice{}))
}
