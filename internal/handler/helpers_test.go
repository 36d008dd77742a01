package handler_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/handler"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository/sqlite"
	"github.com/sakif/foodgram/internal/service"
)

// fixture wires the real services over an in-memory database and seeds two
// users, two tags and three ingredients.
type fixture struct {
	db      *sqlite.DB
	recipes *handler.RecipeHandler
	users   *handler.UserHandler
	catalog *handler.CatalogHandler

	alice, bob            model.User
	breakfast, dinner     model.Tag
	flour, sugar, sugarKG model.Ingredient
}

var testDate = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	userSvc := service.NewUserService(db, db, logger)
	recipeSvc := service.NewRecipeService(db, db, db, logger)
	relationSvc := service.NewRelationService(db, db, db, logger)
	shoppingSvc := service.NewShoppingService(db, logger)
	catalogSvc := service.NewCatalogService(db, logger)

	pager := handler.Pager{DefaultLimit: 6, MaxLimit: 100}
	f := &fixture{
		db:      db,
		recipes: handler.NewRecipeHandler(recipeSvc, relationSvc, shoppingSvc, userSvc, pager, logger),
		users:   handler.NewUserHandler(userSvc, relationSvc, pager, logger),
		catalog: handler.NewCatalogHandler(catalogSvc, logger),
	}
	f.recipes.Clock = func() time.Time { return testDate }

	ctx := context.Background()
	mkUser := func(username, first, last string) model.User {
		u, err := userSvc.Create(ctx, service.UserInput{
			Email:     username + "@example.com",
			Username:  username,
			FirstName: first,
			LastName:  last,
		})
		require.NoError(t, err)
		return *u
	}
	f.alice = mkUser("alice", "Alice", "Liddell")
	f.bob = mkUser("bob", "Bob", "Builder")

	mkTag := func(name, slug string) model.Tag {
		tag := model.Tag{Name: name, Slug: slug, Color: "#E26C2D"}
		require.NoError(t, db.CreateTag(ctx, &tag))
		return tag
	}
	f.breakfast = mkTag("Breakfast", "breakfast")
	f.dinner = mkTag("Dinner", "dinner")

	mkIngredient := func(name, unit string) model.Ingredient {
		ing := model.Ingredient{Name: name, MeasurementUnit: unit}
		require.NoError(t, db.CreateIngredient(ctx, &ing))
		return ing
	}
	f.flour = mkIngredient("flour", "g")
	f.sugar = mkIngredient("sugar", "g")
	f.sugarKG = mkIngredient("sugar", "kg")

	return f
}

// request builds a request as userID ("" for anonymous). pathID, when set,
// is the {id} path value the router would have extracted.
func request(method, target, userID, pathID, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if pathID != "" {
		req.SetPathValue("id", pathID)
	}
	if userID != "" {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	return req
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

// recipeBody renders a create/update body.
func recipeBody(t *testing.T, name string, cookingTime int, tags []string, lines ...model.IngredientLine) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"name":         name,
		"text":         "Mix and bake.",
		"image":        "recipes/images/" + strings.ToLower(name) + ".png",
		"cooking_time": cookingTime,
		"tags":         tags,
		"ingredients":  lines,
	})
	require.NoError(t, err)
	return string(b)
}

// createRecipe posts a recipe by author and returns its detail.
func (f *fixture) createRecipe(t *testing.T, author model.User, name string, tags []string, lines ...model.IngredientLine) model.RecipeDetail {
	t.Helper()
	rr := serve(f.recipes.HandleCreate, request(http.MethodPost, "/api/recipes", author.ID, "", recipeBody(t, name, 10, tags, lines...)))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[model.RecipeDetail](t, rr)
}

func line(ing model.Ingredient, amount int) model.IngredientLine {
	return model.IngredientLine{IngredientID: ing.ID, Amount: amount}
}
