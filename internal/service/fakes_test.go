package service

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/filter"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// fakeStore is an in-memory implementation of every repository interface.
// It enforces the same uniqueness rules as the sqlite store so the services
// see the same errors, and it counts calls so tests can assert that a
// request never reached storage.
type fakeStore struct {
	mu sync.Mutex

	nextID      int
	users       map[string]model.User
	tags        map[string]model.Tag
	ingredients map[string]model.Ingredient
	recipes     map[string]model.Recipe
	order       []string // recipe ids, oldest first
	recipeTags  map[string][]string
	recipeLines map[string][]model.IngredientLine
	members     map[model.RelationKind]map[[2]string]bool

	calls int
	// viewer is the acting user membership flags are computed for when
	// ListRecipes evaluates a predicate in memory.
	viewer string
	// failNext makes the next call return this error.
	failNext error
}

var (
	_ repository.UserRepository       = (*fakeStore)(nil)
	_ repository.CatalogRepository    = (*fakeStore)(nil)
	_ repository.RecipeRepository     = (*fakeStore)(nil)
	_ repository.MembershipRepository = (*fakeStore)(nil)
	_ repository.ShoppingRepository   = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[string]model.User{},
		tags:        map[string]model.Tag{},
		ingredients: map[string]model.Ingredient{},
		recipes:     map[string]model.Recipe{},
		recipeTags:  map[string][]string{},
		recipeLines: map[string][]model.IngredientLine{},
		members: map[model.RelationKind]map[[2]string]bool{
			model.RelationFavorite:     {},
			model.RelationCart:         {},
			model.RelationSubscription: {},
		},
	}
}

// fail records a call and returns the injected failure, if any. Callers
// hold f.mu.
func (f *fakeStore) fail() error {
	f.calls++
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	for _, existing := range f.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return apperror.AlreadyExists("a user with this email or username already exists")
		}
	}
	u.ID = f.id("user")
	f.users[u.ID] = *u
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

func (f *fakeStore) ListUsers(_ context.Context, opts repository.ListOptions) ([]model.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, 0, err
	}
	all := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		all = append(all, u)
	}
	slices.SortFunc(all, func(a, b model.User) int { return cmp.Compare(a.Username, b.Username) })
	return page(all, opts), len(all), nil
}

func (f *fakeStore) CreateTag(_ context.Context, t *model.Tag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	for _, existing := range f.tags {
		if existing.Slug == t.Slug || existing.Name == t.Name {
			return apperror.AlreadyExists("tag already exists")
		}
	}
	t.ID = f.id("tag")
	f.tags[t.ID] = *t
	return nil
}

func (f *fakeStore) GetTag(_ context.Context, id string) (*model.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	t, ok := f.tags[id]
	if !ok {
		return nil, apperror.NotFound("tag", id)
	}
	return &t, nil
}

func (f *fakeStore) ListTags(context.Context) ([]model.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	out := make([]model.Tag, 0, len(f.tags))
	for _, t := range f.tags {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) CreateIngredient(_ context.Context, ing *model.Ingredient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	for _, existing := range f.ingredients {
		if existing.Name == ing.Name && existing.MeasurementUnit == ing.MeasurementUnit {
			return apperror.AlreadyExists("ingredient already exists")
		}
	}
	ing.ID = f.id("ing")
	f.ingredients[ing.ID] = *ing
	return nil
}

func (f *fakeStore) GetIngredient(_ context.Context, id string) (*model.Ingredient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	ing, ok := f.ingredients[id]
	if !ok {
		return nil, apperror.NotFound("ingredient", id)
	}
	return &ing, nil
}

func (f *fakeStore) SearchIngredients(_ context.Context, prefix string) ([]model.Ingredient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	var out []model.Ingredient
	for _, ing := range f.ingredients {
		if len(ing.Name) >= len(prefix) && ing.Name[:len(prefix)] == prefix {
			out = append(out, ing)
		}
	}
	return out, nil
}

func (f *fakeStore) checkRefs(w *model.RecipeWrite) error {
	for _, id := range w.TagIDs {
		if _, ok := f.tags[id]; !ok {
			return apperror.ValidationFailed("tags", fmt.Sprintf("tag %s does not exist", id))
		}
	}
	for _, l := range w.Ingredients {
		if _, ok := f.ingredients[l.IngredientID]; !ok {
			return apperror.ValidationFailed("ingredients", fmt.Sprintf("ingredient %s does not exist", l.IngredientID))
		}
	}
	return nil
}

func (f *fakeStore) CreateRecipe(_ context.Context, w *model.RecipeWrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	if err := f.checkRefs(w); err != nil {
		return err
	}
	w.Recipe.ID = f.id("recipe")
	f.recipes[w.Recipe.ID] = w.Recipe
	f.order = append(f.order, w.Recipe.ID)
	f.recipeTags[w.Recipe.ID] = slices.Clone(w.TagIDs)
	f.recipeLines[w.Recipe.ID] = slices.Clone(w.Ingredients)
	return nil
}

func (f *fakeStore) UpdateRecipe(_ context.Context, w *model.RecipeWrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	existing, ok := f.recipes[w.Recipe.ID]
	if !ok {
		return apperror.NotFound("recipe", w.Recipe.ID)
	}
	if err := f.checkRefs(w); err != nil {
		return err
	}
	w.Recipe.AuthorID = existing.AuthorID
	w.Recipe.PublishedAt = existing.PublishedAt
	f.recipes[w.Recipe.ID] = w.Recipe
	if w.TagIDs != nil {
		f.recipeTags[w.Recipe.ID] = slices.Clone(w.TagIDs)
	}
	if w.Ingredients != nil {
		f.recipeLines[w.Recipe.ID] = slices.Clone(w.Ingredients)
	}
	return nil
}

func (f *fakeStore) GetRecipe(_ context.Context, id string) (*model.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	r, ok := f.recipes[id]
	if !ok {
		return nil, apperror.NotFound("recipe", id)
	}
	return &r, nil
}

func (f *fakeStore) DeleteRecipe(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	if _, ok := f.recipes[id]; !ok {
		return apperror.NotFound("recipe", id)
	}
	delete(f.recipes, id)
	delete(f.recipeTags, id)
	delete(f.recipeLines, id)
	f.order = slices.DeleteFunc(f.order, func(s string) bool { return s == id })
	for _, kind := range []model.RelationKind{model.RelationFavorite, model.RelationCart} {
		for pair := range f.members[kind] {
			if pair[1] == id {
				delete(f.members[kind], pair)
			}
		}
	}
	return nil
}

// subject builds the filter view of a recipe for userID.
func (f *fakeStore) subject(r model.Recipe, userID string) filter.Subject {
	s := filter.Subject{
		AuthorID:  r.AuthorID,
		InCart:    f.members[model.RelationCart][[2]string{userID, r.ID}],
		Favorited: f.members[model.RelationFavorite][[2]string{userID, r.ID}],
	}
	for _, tagID := range f.recipeTags[r.ID] {
		s.TagSlugs = append(s.TagSlugs, f.tags[tagID].Slug)
	}
	return s
}

// ListRecipes evaluates p in memory with Match.
func (f *fakeStore) ListRecipes(_ context.Context, p filter.Predicate, opts repository.ListOptions) ([]model.Recipe, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, 0, err
	}
	var matched []model.Recipe
	for i := len(f.order) - 1; i >= 0; i-- {
		r := f.recipes[f.order[i]]
		if p.Match(f.subject(r, f.viewer)) {
			matched = append(matched, r)
		}
	}
	return page(matched, opts), len(matched), nil
}

func (f *fakeStore) RecipeTags(_ context.Context, ids []string) (map[string][]model.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	out := map[string][]model.Tag{}
	for _, id := range ids {
		for _, tagID := range f.recipeTags[id] {
			out[id] = append(out[id], f.tags[tagID])
		}
	}
	return out, nil
}

func (f *fakeStore) RecipeIngredients(_ context.Context, id string) ([]model.RecipeIngredient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	out := []model.RecipeIngredient{}
	for _, l := range f.recipeLines[id] {
		ing := f.ingredients[l.IngredientID]
		out = append(out, model.RecipeIngredient{ID: ing.ID, Name: ing.Name, MeasurementUnit: ing.MeasurementUnit, Amount: l.Amount})
	}
	return out, nil
}

func (f *fakeStore) RecipesByAuthor(_ context.Context, authorID string, limit int) ([]model.RecipeShort, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, 0, err
	}
	var all []model.RecipeShort
	for i := len(f.order) - 1; i >= 0; i-- {
		r := f.recipes[f.order[i]]
		if r.AuthorID == authorID {
			all = append(all, r.Short())
		}
	}
	total := len(all)
	if limit >= 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (f *fakeStore) AddMembership(_ context.Context, kind model.RelationKind, userID, targetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	if kind == model.RelationSubscription && userID == targetID {
		return apperror.SelfReference("you can not subscribe to yourself")
	}
	pair := [2]string{userID, targetID}
	if f.members[kind][pair] {
		return apperror.AlreadyExists("already " + kind.String())
	}
	f.members[kind][pair] = true
	return nil
}

func (f *fakeStore) RemoveMembership(_ context.Context, kind model.RelationKind, userID, targetID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return false, err
	}
	pair := [2]string{userID, targetID}
	if !f.members[kind][pair] {
		return false, nil
	}
	delete(f.members[kind], pair)
	return true, nil
}

func (f *fakeStore) MembershipSet(_ context.Context, kind model.RelationKind, userID string, ids []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	out := map[string]bool{}
	for _, id := range ids {
		if f.members[kind][[2]string{userID, id}] {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeStore) ListSubscribedAuthors(_ context.Context, userID string, opts repository.ListOptions) ([]model.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, 0, err
	}
	var authors []model.User
	for pair := range f.members[model.RelationSubscription] {
		if pair[0] == userID {
			authors = append(authors, f.users[pair[1]])
		}
	}
	slices.SortFunc(authors, func(a, b model.User) int { return cmp.Compare(a.Username, b.Username) })
	return page(authors, opts), len(authors), nil
}

func (f *fakeStore) CartSize(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return 0, err
	}
	n := 0
	for pair := range f.members[model.RelationCart] {
		if pair[0] == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CartLines(_ context.Context, userID string) ([]model.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	var out []model.CartLine
	for pair := range f.members[model.RelationCart] {
		if pair[0] != userID {
			continue
		}
		for _, l := range f.recipeLines[pair[1]] {
			ing := f.ingredients[l.IngredientID]
			out = append(out, model.CartLine{
				RecipeID:        pair[1],
				IngredientName:  ing.Name,
				MeasurementUnit: ing.MeasurementUnit,
				Amount:          l.Amount,
			})
		}
	}
	return out, nil
}

func page[T any](all []T, opts repository.ListOptions) []T {
	if opts.Offset >= len(all) {
		return []T{}
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return all
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *fakeStore) seedUser(t *testing.T, username string) model.User {
	t.Helper()
	u := &model.User{Email: username + "@example.com", Username: username, FirstName: username, LastName: "Test"}
	if err := f.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return *u
}

func (f *fakeStore) seedTag(t *testing.T, slug string) model.Tag {
	t.Helper()
	tag := &model.Tag{Name: slug, Slug: slug, Color: "#E26C2D"}
	if err := f.CreateTag(context.Background(), tag); err != nil {
		t.Fatalf("seeding tag: %v", err)
	}
	return *tag
}

func (f *fakeStore) seedIngredient(t *testing.T, name, unit string) model.Ingredient {
	t.Helper()
	ing := &model.Ingredient{Name: name, MeasurementUnit: unit}
	if err := f.CreateIngredient(context.Background(), ing); err != nil {
		t.Fatalf("seeding ingredient: %v", err)
	}
	return *ing
}

func (f *fakeStore) seedRecipe(t *testing.T, author model.User, name string, tags []model.Tag, lines ...model.IngredientLine) model.Recipe {
	t.Helper()
	w := &model.RecipeWrite{
		Recipe:      model.Recipe{AuthorID: author.ID, Name: name, Text: "text", Image: name + ".png", CookingTime: 10},
		Ingredients: lines,
	}
	for _, tag := range tags {
		w.TagIDs = append(w.TagIDs, tag.ID)
	}
	if err := f.CreateRecipe(context.Background(), w); err != nil {
		t.Fatalf("seeding recipe: %v", err)
	}
	return w.Recipe
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
