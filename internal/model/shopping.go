package model

// CartLine is one ingredient line of one recipe in a user's cart, flattened
// to the (name, unit) pair the shopping list groups by.
type CartLine struct {
	RecipeID        string
	IngredientName  string
	MeasurementUnit string
	Amount          int
}

// ShoppingItem is one aggregated row of a shopping list.
type ShoppingItem struct {
	IngredientName  string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	TotalAmount     int    `json:"amount"`
}
