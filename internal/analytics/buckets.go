package analytics

import (
	"math"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Гранулярность совпадает с округлением бэкенда: баланс до 100 000, сумма до 100
const (
	DefaultBalanceWidth = 100000
	DefaultAmountWidth  = 100
	DefaultBucketCount  = 10
)

// BucketConfig задаёт границы диапазонов. Границы строго возрастают:
// e0 < e1 < ... < ek дают корзины [ei, ei+1) и открытый хвост [ek, +inf).
type BucketConfig struct {
	BalanceEdges []float64
	AmountEdges  []float64
}

// DefaultBucketConfig — равномерные сетки с шагом бэкенда.
func DefaultBucketConfig() BucketConfig {
	return BucketConfig{
		BalanceEdges: UniformEdges(DefaultBalanceWidth, DefaultBucketCount),
		AmountEdges:  UniformEdges(DefaultAmountWidth, DefaultBucketCount),
	}
}

// UniformEdges строит n границ от нуля с шагом width.
func UniformEdges(width float64, n int) []float64 {
	if width <= 0 || n <= 0 {
		return nil
	}
	edges := make([]float64, n)
	for i := range edges {
		edges[i] = float64(i) * width
	}
	return edges
}

// bucketIndex находит корзину за O(log k). Значения ниже e0 попадают в первую корзину.
func bucketIndex(edges []float64, v float64) int {
	i := sort.Search(len(edges), func(i int) bool { return edges[i] > v }) - 1
	if i < 0 {
		return 0
	}
	return i
}

var printer = message.NewPrinter(language.English)

func bucketLabels(edges []float64) []string {
	if len(edges) == 0 {
		return []string{"all"}
	}
	labels := make([]string, len(edges))
	for i := range edges {
		if i == len(edges)-1 {
			labels[i] = formatEdge(edges[i]) + "+"
			continue
		}
		labels[i] = formatEdge(edges[i]) + " - " + formatEdge(edges[i+1])
	}
	return labels
}

// formatEdge: 100000 -> "100,000", 12.5 -> "12.50"
func formatEdge(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.2f", v)
}
