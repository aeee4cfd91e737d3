package features

import (
	"sort"
	"time"

	"github.com/chrisdamba/reviewclf/internal/models"
)

type historyKey struct {
	product string
	order   string
}

type ratingEvent struct {
	at    time.Time
	order string
	score int
}

// productHistory computes, for every (product, order) pair, the mean review
// score the product received on orders purchased strictly earlier. Pairs
// with no earlier rating are absent. Neutral reviews count toward history.
func productHistory(orders []models.Order, itemsByOrder map[string][]models.OrderItem, reviews map[string]models.Review) map[historyKey]float64 {
	events := make(map[string][]ratingEvent)
	for i := range orders {
		order := &orders[i]
		review, ok := reviews[order.ID]
		if !ok || review.Score < 1 || review.Score > 5 || order.PurchasedAt.IsZero() {
			continue
		}
		seen := make(map[string]struct{})
		for _, it := range itemsByOrder[order.ID] {
			if _, dup := seen[it.ProductID]; dup {
				continue
			}
			seen[it.ProductID] = struct{}{}
			events[it.ProductID] = append(events[it.ProductID], ratingEvent{
				at:    order.PurchasedAt,
				order: order.ID,
				score: review.Score,
			})
		}
	}

	means := make(map[historyKey]float64)
	for product, list := range events {
		sort.Slice(list, func(i, j int) bool {
			if !list[i].at.Equal(list[j].at) {
				return list[i].at.Before(list[j].at)
			}
			return list[i].order < list[j].order
		})

		var sum, count int
		for start := 0; start < len(list); {
			end := start
			for end < len(list) && list[end].at.Equal(list[start].at) {
				end++
			}
			// orders placed at the same instant do not see each other
			if count > 0 {
				mean := float64(sum) / float64(count)
				for _, e := range list[start:end] {
					means[historyKey{product: product, order: e.order}] = mean
				}
			}
			for _, e := range list[start:end] {
				sum += e.score
				count++
			}
			start = end
		}
	}
	return means
}
