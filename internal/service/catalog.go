package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
	"github.com/sakif/foodgram/internal/validation"
)

// TagInput and IngredientInput are the shapes of catalog imports.
type TagInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Slug  string `json:"slug" validate:"required,max=200,slug"`
	Color string `json:"color" validate:"required,hexcolor"`
}

type IngredientInput struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=200"`
}

// ImportReport counts the outcome of a bulk import.
type ImportReport struct {
	Created int
	Skipped int
}

// CatalogService serves the tag and ingredient reference data.
type CatalogService struct {
	repo   repository.CatalogRepository
	logger *slog.Logger
}

func NewCatalogService(repo repository.CatalogRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

func (s *CatalogService) ListTags(ctx context.Context) ([]model.Tag, error) {
	return s.repo.ListTags(ctx)
}

func (s *CatalogService) GetTag(ctx context.Context, id string) (*model.Tag, error) {
	return s.repo.GetTag(ctx, id)
}

// SearchIngredients returns ingredients whose name starts with prefix,
// ignoring case.
func (s *CatalogService) SearchIngredients(ctx context.Context, prefix string) ([]model.Ingredient, error) {
	return s.repo.SearchIngredients(ctx, strings.TrimSpace(prefix))
}

func (s *CatalogService) GetIngredient(ctx context.Context, id string) (*model.Ingredient, error) {
	return s.repo.GetIngredient(ctx, id)
}

// ImportTags validates and stores tags. Tags that already exist are
// skipped; any other failure stops the import.
func (s *CatalogService) ImportTags(ctx context.Context, in []TagInput) (ImportReport, error) {
	var report ImportReport
	for i := range in {
		t := in[i]
		t.Name = strings.TrimSpace(t.Name)
		t.Slug = strings.TrimSpace(t.Slug)
		t.Color = strings.ToUpper(strings.TrimSpace(t.Color))
		if err := validation.Struct(&t); err != nil {
			return report, fmt.Errorf("tag #%d: %w", i+1, err)
		}

		err := s.repo.CreateTag(ctx, &model.Tag{Name: t.Name, Slug: t.Slug, Color: t.Color})
		if skipped, err := countImport(&report, err); err != nil {
			return report, fmt.Errorf("tag %q: %w", t.Slug, err)
		} else if skipped {
			s.logger.Debug("tag already exists", slog.String("slug", t.Slug))
		}
	}
	s.logger.Info("tags imported", slog.Int("created", report.Created), slog.Int("skipped", report.Skipped))
	return report, nil
}

// ImportIngredients validates and stores ingredients, skipping (name, unit)
// pairs that already exist.
func (s *CatalogService) ImportIngredients(ctx context.Context, in []IngredientInput) (ImportReport, error) {
	var report ImportReport
	for i := range in {
		ing := in[i]
		ing.Name = strings.TrimSpace(ing.Name)
		ing.MeasurementUnit = strings.TrimSpace(ing.MeasurementUnit)
		if err := validation.Struct(&ing); err != nil {
			return report, fmt.Errorf("ingredient #%d: %w", i+1, err)
		}

		err := s.repo.CreateIngredient(ctx, &model.Ingredient{Name: ing.Name, MeasurementUnit: ing.MeasurementUnit})
		if _, err := countImport(&report, err); err != nil {
			return report, fmt.Errorf("ingredient %q: %w", ing.Name, err)
		}
	}
	s.logger.Info("ingredients imported", slog.Int("created", report.Created), slog.Int("skipped", report.Skipped))
	return report, nil
}

func countImport(report *ImportReport, err error) (skipped bool, _ error) {
	switch {
	case err == nil:
		report.Created++
		return false, nil
	case errors.Is(err, apperror.ErrAlreadyExists):
		report.Skipped++
		return true, nil
	}
	return false, err
}
