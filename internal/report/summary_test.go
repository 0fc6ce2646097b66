package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tally/internal/core"
)

func TestSummarize(t *testing.T) {
	recs := []core.Record{
		{Amount: core.Money{Cents: 300000}, Kind: core.KindIncome, Category: "工资", Date: core.NewDate(2024, time.January, 10)},
		{Amount: core.Money{Cents: 10000}, Kind: core.KindExpense, Category: "食品", Date: core.NewDate(2024, time.January, 15)},
	}

	s := Summarize(recs)

	assert.Equal(t, int64(300000), s.TotalIncome.Cents)
	assert.Equal(t, int64(10000), s.TotalExpense.Cents)
	assert.Equal(t, int64(290000), s.Balance.Cents)

	// Each category tracks both sides, including the zero one.
	assert.Equal(t, int64(300000), s.ByCategory["工资"].Income.Cents)
	assert.Equal(t, int64(0), s.ByCategory["工资"].Expense.Cents)
	assert.Equal(t, int64(0), s.ByCategory["食品"].Income.Cents)
	assert.Equal(t, int64(10000), s.ByCategory["食品"].Expense.Cents)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)

	assert.True(t, s.TotalIncome.IsZero())
	assert.True(t, s.TotalExpense.IsZero())
	assert.True(t, s.Balance.IsZero())
	assert.NotNil(t, s.ByCategory)
	assert.Empty(t, s.ByCategory)
}

func TestSummarizeNegativeBalance(t *testing.T) {
	recs := []core.Record{
		{Amount: core.Money{Cents: 5000}, Kind: core.KindIncome, Category: "gift"},
		{Amount: core.Money{Cents: 8000}, Kind: core.KindExpense, Category: "rent"},
	}

	s := Summarize(recs)
	assert.Equal(t, int64(-3000), s.Balance.Cents)
}

func TestSummarizeSharedCategory(t *testing.T) {
	// The same category can appear on both sides.
	recs := []core.Record{
		{Amount: core.Money{Cents: 2000}, Kind: core.KindIncome, Category: "trading"},
		{Amount: core.Money{Cents: 1500}, Kind: core.KindExpense, Category: "trading"},
		{Amount: core.Money{Cents: 500}, Kind: core.KindExpense, Category: "trading"},
	}

	s := Summarize(recs)
	assert.Equal(t, int64(2000), s.ByCategory["trading"].Income.Cents)
	assert.Equal(t, int64(2000), s.ByCategory["trading"].Expense.Cents)
	assert.Len(t, s.ByCategory, 1)
}

func TestSummarizeExactCents(t *testing.T) {
	// Amounts that would drift under float64 stay exact in cents.
	recs := make([]core.Record, 0, 100)
	for i := 0; i < 100; i++ {
		recs = append(recs, core.Record{Amount: core.Money{Cents: 10}, Kind: core.KindExpense, Category: "micro"})
	}

	s := Summarize(recs)
	assert.Equal(t, int64(1000), s.TotalExpense.Cents)
	assert.Equal(t, "10.00", s.TotalExpense.String())
}
