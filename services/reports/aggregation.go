package main

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const dayLayout = "2006-01-02"

// AggregateByDay agrupa as vendas por dia do calendário em loc, ordena do dia mais antigo
// para o mais recente e mantém apenas os últimos windowSize dias.
// Não altera sales; a mesma entrada sempre produz a mesma saída.
func AggregateByDay(sales []Sale, windowSize int, loc *time.Location) []DailySummary {
	if windowSize <= 0 || len(sales) == 0 {
		return []DailySummary{}
	}
	if loc == nil {
		loc = time.UTC
	}

	index := make(map[string]int)
	days := make([]DailySummary, 0)
	for _, sale := range sales {
		date := sale.Timestamp.In(loc).Format(dayLayout)
		i, ok := index[date]
		if !ok {
			i = len(days)
			index[date] = i
			days = append(days, DailySummary{Date: date, TotalAmount: decimal.Zero})
		}
		days[i].TotalAmount = days[i].TotalAmount.Add(sale.TotalAmount)
		days[i].TransactionCount++
	}

	// YYYY-MM-DD ordena lexicograficamente na ordem do calendário
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	if len(days) > windowSize {
		days = days[len(days)-windowSize:]
	}
	return days
}

// TotalValue soma o valor de todos os dias
func TotalValue(days []DailySummary) decimal.Decimal {
	total := decimal.Zero
	for _, day := range days {
		total = total.Add(day.TotalAmount)
	}
	return total
}

// AverageDaily é a média do valor por dia, arredondada em centavos; zero quando não há dias
func AverageDaily(days []DailySummary) decimal.Decimal {
	if len(days) == 0 {
		return decimal.Zero
	}
	return TotalValue(days).DivRound(decimal.NewFromInt(int64(len(days))), 2)
}
