package tips

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dukerupert/groceryhub/internal/grocery"
)

// ParsedItem is an item suggested by ParseItems. It is not stored until the
// client confirms it.
type ParsedItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Category string  `json:"category"`
}

var parsedItemsSchema = map[string]any{
	"type": "ARRAY",
	"items": map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"name":     map[string]any{"type": "STRING"},
			"quantity": map[string]any{"type": "NUMBER"},
			"unit":     map[string]any{"type": "STRING"},
			"category": map[string]any{"type": "STRING"},
		},
		"required": []string{"name", "quantity", "unit", "category"},
	},
}

// ParseItems turns free text such as "2kg onions, milk and call mom" into
// items. Categories outside the given set become CategoryTasks; a missing
// quantity becomes 1 and a missing unit "pcs".
func (a *Advisor) ParseItems(ctx context.Context, text string, categories []string) ([]ParsedItem, error) {
	if !a.Configured() {
		return nil, ErrNotConfigured
	}
	prompt := fmt.Sprintf(`Parse the following grocery list into a JSON array of objects with "name" (string), "quantity" (number), "unit" (string) and "category" (string).
Use only these categories: %s. If no category fits, use "%s".
If quantity or unit is missing, make a reasonable guess (for example quantity 1, unit 'pcs'). Capitalize item names.
Text to parse:

%s`, strings.Join(categories, ", "), grocery.CategoryTasks, text)

	raw, err := a.generate(ctx, generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   parsedItemsSchema,
		},
	})
	if err != nil {
		return nil, err
	}

	var items []ParsedItem
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &items); err != nil {
		return nil, fmt.Errorf("decode parsed items: %w", err)
	}
	return normalize(items, categories), nil
}

func normalize(items []ParsedItem, categories []string) []ParsedItem {
	out := make([]ParsedItem, 0, len(items))
	for _, item := range items {
		item.Name = capitalize(strings.TrimSpace(item.Name))
		if item.Name == "" {
			continue
		}
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		item.Unit = strings.TrimSpace(item.Unit)
		if item.Unit == "" {
			item.Unit = "pcs"
		}
		if !slices.Contains(categories, item.Category) {
			item.Category = grocery.CategoryTasks
		}
		out = append(out, item)
	}
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
