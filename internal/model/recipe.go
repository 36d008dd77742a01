package model

import "time"

// Recipe is the stored recipe row.
type Recipe struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"-"`
	Name        string    `json:"name"`
	Text        string    `json:"text"`
	Image       string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
	PublishedAt time.Time `json:"published_at"`
}

// IngredientLine is one (ingredient, amount) pair of a recipe write.
type IngredientLine struct {
	IngredientID string `json:"id"`
	Amount       int    `json:"amount"`
}

// RecipeIngredient is an ingredient line joined with its ingredient.
type RecipeIngredient struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeWrite is the nested write applied by create and update: the recipe
// row together with its complete tag set and ingredient lines.
type RecipeWrite struct {
	Recipe      Recipe
	TagIDs      []string
	Ingredients []IngredientLine
}

// RecipeDetail is the full read projection of a recipe for one viewer.
type RecipeDetail struct {
	ID          string             `json:"id"`
	Tags        []Tag              `json:"tags"`
	Author      UserProfile        `json:"author"`
	Ingredients []RecipeIngredient `json:"ingredients"`
	IsFavorited bool               `json:"is_favorited"`
	IsInCart    bool               `json:"is_in_shopping_cart"`
	Name        string             `json:"name"`
	Image       string             `json:"image"`
	Text        string             `json:"text"`
	CookingTime int                `json:"cooking_time"`
	PublishedAt time.Time          `json:"published_at"`
}

// RecipeShort is the compact projection returned by favorite/cart toggles
// and embedded in author profiles.
type RecipeShort struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// Short projects r to a RecipeShort.
func (r *Recipe) Short() RecipeShort {
	return RecipeShort{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.Image,
		CookingTime: r.CookingTime,
	}
}
