package tips

import (
	"strconv"
	"strings"

	"github.com/dukerupert/groceryhub/internal/grocery"
)

// FormatItemList renders aggregated items the way the tips prompt expects:
// comma-joined "name (quantity unit)", with tasks as just their name.
func FormatItemList(aggregated []grocery.AggregatedItem) string {
	parts := make([]string, 0, len(aggregated))
	for _, item := range aggregated {
		if item.Category == grocery.CategoryTasks {
			parts = append(parts, item.Name)
			continue
		}
		qty := strconv.FormatFloat(item.TotalQuantity, 'f', -1, 64)
		if item.Unit == "" {
			parts = append(parts, item.Name+" ("+qty+")")
			continue
		}
		parts = append(parts, item.Name+" ("+qty+" "+item.Unit+")")
	}
	return strings.Join(parts, ", ")
}
