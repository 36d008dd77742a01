// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account. Email is unique case-insensitively; the
// store keeps it lower-cased.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"-"`
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

// UserProfile is a User as seen by the acting user.
type UserProfile struct {
	User
	IsSubscribed bool `json:"is_subscribed"`
}

// AuthorProfile is the subscription projection of an author: their profile
// plus a capped list of their recipes and the total count.
type AuthorProfile struct {
	UserProfile
	Recipes      []RecipeShort `json:"recipes"`
	RecipesCount int           `json:"recipes_count"`
}
