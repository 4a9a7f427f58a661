package grocery

import "strings"

// Classify guesses a catalog category for a free-text item name.
// Matching is case-insensitive: an exact catalog item first, then the first
// keyword contained in the name. Unknown names fall back to CategoryOther.
func Classify(itemName string) string {
	name := strings.ToLower(strings.TrimSpace(itemName))
	if name == "" {
		return CategoryOther
	}

	if cat, ok := exactMatch[name]; ok {
		return cat
	}

	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}

	return CategoryOther
}

var exactMatch = buildExactMatch()

func buildExactMatch() map[string]string {
	m := make(map[string]string)
	for _, c := range Catalog {
		for _, item := range c.Items {
			m[strings.ToLower(item)] = c.Name
		}
	}
	// Common spellings that are not catalog entries.
	for name, cat := range map[string]string{
		"eggs":     "Dairy & Eggs",
		"egg":      "Dairy & Eggs",
		"onions":   "Vegetables",
		"tomatoes": "Vegetables",
		"potatoes": "Vegetables",
		"carrots":  "Vegetables",
		"apples":   "Fruits",
		"bananas":  "Fruits",
		"mangoes":  "Fruits",
		"oranges":  "Fruits",
		"rice":     "Grains & Flour",
		"atta":     "Grains & Flour",
		"dal":      "Lentils & Pulses",
		"curd":     "Dairy & Eggs",
		"paneer":   "Dairy & Eggs",
	} {
		m[name] = cat
	}
	return m
}

type substringEntry struct {
	keyword  string
	category string
}

// Ordered with longer/more-specific keywords first for deterministic priority.
var substringMatches = []substringEntry{
	// Multi-word phrases that would otherwise hit a shorter keyword below.
	{"peanut butter", "Snacks & Packaged Food"},
	{"coconut milk", "Snacks & Packaged Food"},
	{"chili powder", "Spices & Seasoning"},
	{"coriander powder", "Spices & Seasoning"},
	{"dish soap", "Household & Cleaning"},
	{"hand soap", "Personal Care"},
	{"body wash", "Personal Care"},
	{"paper towel", "Household & Cleaning"},
	{"toilet paper", "Household & Cleaning"},
	{"trash bag", "Household & Cleaning"},
	{"garbage bag", "Household & Cleaning"},
	{"olive oil", "Oils & Fats"},
	{"sweet potato", "Vegetables"},
	{"bell pepper", "Vegetables"},
	{"green chili", "Vegetables"},
	{"ground beef", "Meat & Poultry"},
	{"minced", "Meat & Poultry"},
	{"steak", "Meat & Poultry"},
	{"watermelon", "Fruits"},

	{"chicken", "Meat & Poultry"},
	{"mutton", "Meat & Poultry"},
	{"lamb", "Meat & Poultry"},
	{"beef", "Meat & Poultry"},
	{"fish", "Meat & Poultry"},
	{"prawn", "Meat & Poultry"},
	{"shrimp", "Meat & Poultry"},
	{"keema", "Meat & Poultry"},

	{"lentil", "Lentils & Pulses"},
	{"chickpea", "Lentils & Pulses"},
	{"chana", "Lentils & Pulses"},
	{"rajma", "Lentils & Pulses"},
	{"moong", "Lentils & Pulses"},
	{"masoor", "Lentils & Pulses"},
	{"bean", "Lentils & Pulses"},
	{" dal", "Lentils & Pulses"},

	{"rice", "Grains & Flour"},
	{"flour", "Grains & Flour"},
	{"semolina", "Grains & Flour"},
	{"sooji", "Grains & Flour"},
	{"bread", "Grains & Flour"},
	{"oats", "Grains & Flour"},
	{"pasta", "Grains & Flour"},

	{"masala", "Spices & Seasoning"},
	{"turmeric", "Spices & Seasoning"},
	{"cumin", "Spices & Seasoning"},
	{"spice", "Spices & Seasoning"},
	{"seasoning", "Spices & Seasoning"},
	{"salt", "Spices & Seasoning"},
	{"pepper", "Spices & Seasoning"},

	{"oil", "Oils & Fats"},
	{"ghee", "Dairy & Eggs"},
	{"yogurt", "Dairy & Eggs"},
	{"cheese", "Dairy & Eggs"},
	{"butter", "Dairy & Eggs"},
	{"cream", "Dairy & Eggs"},
	{"milk", "Dairy & Eggs"},
	{"egg", "Dairy & Eggs"},

	{"onion", "Vegetables"},
	{"tomato", "Vegetables"},
	{"potato", "Vegetables"},
	{"garlic", "Vegetables"},
	{"ginger", "Vegetables"},
	{"spinach", "Vegetables"},
	{"cucumber", "Vegetables"},
	{"carrot", "Vegetables"},
	{"cabbage", "Vegetables"},
	{"cauliflower", "Vegetables"},
	{"lettuce", "Vegetables"},

	{"juice", "Beverages"},
	{"coffee", "Beverages"},
	{"tea", "Beverages"},
	{"soda", "Beverages"},
	{"water", "Beverages"},

	{"banana", "Fruits"},
	{"apple", "Fruits"},
	{"mango", "Fruits"},
	{"orange", "Fruits"},
	{"grape", "Fruits"},
	{"melon", "Fruits"},
	{"berr", "Fruits"},
	{"fruit", "Fruits"},

	{"biscuit", "Snacks & Packaged Food"},
	{"cookie", "Snacks & Packaged Food"},
	{"chip", "Snacks & Packaged Food"},
	{"noodle", "Snacks & Packaged Food"},
	{"ketchup", "Snacks & Packaged Food"},
	{"sauce", "Snacks & Packaged Food"},
	{"snack", "Snacks & Packaged Food"},

	{"detergent", "Household & Cleaning"},
	{"laundry", "Household & Cleaning"},
	{"cleaner", "Household & Cleaning"},
	{"sponge", "Household & Cleaning"},
	{"bleach", "Household & Cleaning"},

	{"shampoo", "Personal Care"},
	{"conditioner", "Personal Care"},
	{"toothpaste", "Personal Care"},
	{"toothbrush", "Personal Care"},
	{"deodorant", "Personal Care"},
	{"lotion", "Personal Care"},
	{"razor", "Personal Care"},
	{"soap", "Personal Care"},

	{"pay ", CategoryTasks},
	{"call ", CategoryTasks},
	{"schedule", CategoryTasks},
	{"appointment", CategoryTasks},
	{"plan ", CategoryTasks},
	{"book ", CategoryTasks},
}
