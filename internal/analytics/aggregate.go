// Package analytics превращает произвольный список транзакций в независимые проекции для графиков.
// Все функции чистые: вход не мутируется, одинаковый вход даёт одинаковый результат.
package analytics

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
)

// Aggregate строит полный снимок аналитики.
func Aggregate(txs []domain.Transaction, cfg BucketConfig) domain.AnalyticsSnapshot {
	classes := ClassDistribution(txs)
	legit, fraud := classes[0].Count, classes[1].Count

	return domain.AnalyticsSnapshot{
		SummaryStats:         Summarize(txs),
		LegitimateCount:      legit,
		FraudulentCount:      fraud,
		FraudulentPercentage: percentage(fraud, len(txs)),
		StepDistribution:     StepDistribution(txs),
		ClassDistribution:    classes,
		BalanceDistribution:  BucketDistribution(txs, cfg.BalanceEdges, func(t domain.Transaction) float64 { return t.OldBalanceOrg }),
		AmountDistribution:   BucketDistribution(txs, cfg.AmountEdges, func(t domain.Transaction) float64 { return t.Amount }),
	}
}

// StepDistribution группирует по step за один линейный проход (мапа по ключу группировки),
// затем сортирует по возрастанию шага. Дубликатов ключей быть не может.
func StepDistribution(txs []domain.Transaction) []domain.StepPoint {
	byStep := make(map[int]*domain.StepPoint)
	for _, t := range txs {
		p, ok := byStep[t.Step]
		if !ok {
			p = &domain.StepPoint{Step: t.Step}
			byStep[t.Step] = p
		}
		if t.IsFraudulent() {
			p.Fraudulent++
		} else {
			p.Legitimate++
		}
	}

	points := make([]domain.StepPoint, 0, len(byStep))
	for _, p := range byStep {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Step < points[j].Step })
	return points
}

// ClassDistribution всегда возвращает ровно два сектора: Legitimate, затем Fraudulent.
func ClassDistribution(txs []domain.Transaction) []domain.ClassSlice {
	var legit, fraud int
	for _, t := range txs {
		if t.IsFraudulent() {
			fraud++
		} else {
			legit++
		}
	}
	return []domain.ClassSlice{
		{Label: domain.LabelLegitimate, Count: legit, Color: domain.ColorLegitimate},
		{Label: domain.LabelFraudulent, Count: fraud, Color: domain.ColorFraudulent},
	}
}

// BucketDistribution раскладывает числовое поле по диапазонам с разбивкой по классам.
// Пустые диапазоны тоже попадают в результат, чтобы оси графика не прыгали между обновлениями.
func BucketDistribution(txs []domain.Transaction, edges []float64, field func(domain.Transaction) float64) []domain.BucketPoint {
	labels := bucketLabels(edges)
	points := make([]domain.BucketPoint, len(labels))
	for i, l := range labels {
		points[i].RangeLabel = l
	}

	for _, t := range txs {
		p := &points[bucketIndex(edges, field(t))]
		p.Count++
		if t.IsFraudulent() {
			p.Fraudulent++
		} else {
			p.Legitimate++
		}
	}
	return points
}

// Summarize считает итоговые суммы в decimal, чтобы тысячи float-сложений не накапливали ошибку.
func Summarize(txs []domain.Transaction) domain.SummaryStats {
	stats := domain.SummaryStats{TotalTransactions: len(txs)}
	if len(txs) == 0 {
		return stats
	}

	total, fraud := decimal.Zero, decimal.Zero
	stats.MinAmount, stats.MaxAmount = txs[0].Amount, txs[0].Amount
	for _, t := range txs {
		amount := decimal.NewFromFloat(t.Amount)
		total = total.Add(amount)
		if t.IsFraudulent() {
			fraud = fraud.Add(amount)
		}
		stats.MinAmount = min(stats.MinAmount, t.Amount)
		stats.MaxAmount = max(stats.MaxAmount, t.Amount)
	}

	stats.TotalAmount, _ = total.Float64()
	stats.FraudAmount, _ = fraud.Float64()
	stats.AvgAmount, _ = total.Div(decimal.NewFromInt(int64(len(txs)))).Round(2).Float64()
	return stats
}

// percentage округляет до двух знаков; 0 для пустой выборки.
func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	p, _ := decimal.NewFromInt(int64(part) * 100).Div(decimal.NewFromInt(int64(total))).Round(2).Float64()
	return p
}
