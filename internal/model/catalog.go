package model

// Ingredient is immutable reference data; (Name, MeasurementUnit) is unique.
type Ingredient struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// Tag is immutable reference data. Color is a "#RRGGBB" hex string.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}
