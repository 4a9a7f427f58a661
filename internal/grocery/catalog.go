package grocery

// Reserved category names.
const (
	CategoryTasks = "Other Tasks"
	CategoryOther = "Other"
)

// CatalogCategory is one section of the predefined pick list.
type CatalogCategory struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// Catalog is the predefined pick list offered when adding items, in
// display order. CategoryTasks is last.
var Catalog = []CatalogCategory{
	{"Meat & Poultry", []string{"Chicken", "Beef", "Mutton", "Fish", "Prawns", "Minced Meat"}},
	{"Lentils & Pulses", []string{"Red Lentils (Masoor)", "Yellow Lentils (Moong)", "Split Chickpeas (Chana Dal)", "Chickpeas (Kabuli Chana)", "Kidney Beans (Rajma)"}},
	{"Grains & Flour", []string{"Basmati Rice", "Whole Wheat Flour (Atta)", "All-Purpose Flour (Maida)", "Semolina (Sooji)", "Bread"}},
	{"Vegetables", []string{"Onion", "Tomato", "Potato", "Garlic", "Ginger", "Coriander", "Mint", "Spinach", "Cucumber", "Carrot", "Bell Pepper"}},
	{"Fruits", []string{"Banana", "Apple", "Mango", "Orange", "Grapes", "Watermelon"}},
	{"Dairy & Eggs", []string{"Milk", "Yogurt", "Cheese", "Butter", "Ghee", "Eggs"}},
	{"Spices & Seasoning", []string{"Salt", "Turmeric Powder", "Red Chili Powder", "Cumin Seeds", "Coriander Powder", "Garam Masala"}},
	{"Oils & Fats", []string{"Sunflower Oil", "Mustard Oil", "Olive Oil"}},
	{"Snacks & Packaged Food", []string{"Biscuits", "Chips", "Noodles", "Ketchup"}},
	{"Beverages", []string{"Tea", "Coffee", "Juice"}},
	{"Household & Cleaning", []string{"Dish Soap", "Laundry Detergent", "Trash Bags", "Paper Towels"}},
	{"Personal Care", []string{"Shampoo", "Soap", "Toothpaste", "Deodorant"}},
	{CategoryTasks, []string{"Pay Bills", "Call Family", "Schedule Appointment", "Plan Weekend"}},
}

// CategoryNames returns the catalog category names in display order.
func CategoryNames() []string {
	names := make([]string, len(Catalog))
	for i, c := range Catalog {
		names[i] = c.Name
	}
	return names
}
