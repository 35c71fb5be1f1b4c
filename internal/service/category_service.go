package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/internal/dto"
	"github.com/yosuketsuboi/kakeibo-app/internal/models"
	"github.com/yosuketsuboi/kakeibo-app/internal/repository"
)

var ErrCategoryNotFound = errors.New("category not found")

// defaultCategories seeds every new household.
var defaultCategories = []struct {
	name  string
	color string
}{
	{"食費", "#ef4444"},
	{"日用品", "#3b82f6"},
	{"交通費", "#f59e0b"},
	{"外食", "#f97316"},
	{"趣味", "#8b5cf6"},
	{"医療", "#10b981"},
	{"衣類", "#ec4899"},
	{"その他", "#94a3b8"},
}

type CategoryService struct {
	categoryRepo *repository.CategoryRepository
	logger       *zap.Logger
}

func NewCategoryService(categoryRepo *repository.CategoryRepository, logger *zap.Logger) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// SeedDefaults creates the standard category set for a new household.
func (s *CategoryService) SeedDefaults(ctx context.Context, householdID uuid.UUID) error {
	now := time.Now()
	categories := make([]*models.Category, len(defaultCategories))
	for i, d := range defaultCategories {
		categories[i] = &models.Category{
			ID:          uuid.New(),
			HouseholdID: householdID,
			Name:        d.name,
			Color:       d.color,
			SortOrder:   i,
			CreatedAt:   now,
		}
	}
	return s.categoryRepo.CreateBatch(ctx, categories)
}

func (s *CategoryService) List(ctx context.Context, householdID uuid.UUID) ([]dto.CategoryResponse, error) {
	categories, err := s.categoryRepo.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CategoryResponse, len(categories))
	for i, c := range categories {
		responses[i] = toCategoryResponse(&c)
	}
	return responses, nil
}

func (s *CategoryService) Create(ctx context.Context, householdID uuid.UUID, req *dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	color := req.Color
	if color == "" {
		color = models.DefaultCategoryColor
	}

	category := &models.Category{
		ID:          uuid.New(),
		HouseholdID: householdID,
		Name:        req.Name,
		Color:       color,
		SortOrder:   req.SortOrder,
		CreatedAt:   time.Now(),
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *CategoryService) Update(ctx context.Context, householdID, categoryID uuid.UUID, req *dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	category, err := s.load(ctx, householdID, categoryID)
	if err != nil {
		return nil, err
	}

	category.Name = req.Name
	if req.Color != "" {
		category.Color = req.Color
	}
	category.SortOrder = req.SortOrder

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	resp := toCategoryResponse(category)
	return &resp, nil
}

// Delete removes the category. Items and expenses that referenced it
// become uncategorized through the schema's ON DELETE SET NULL.
func (s *CategoryService) Delete(ctx context.Context, householdID, categoryID uuid.UUID) error {
	if _, err := s.load(ctx, householdID, categoryID); err != nil {
		return err
	}
	return s.categoryRepo.Delete(ctx, categoryID)
}

func (s *CategoryService) load(ctx context.Context, householdID, categoryID uuid.UUID) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		return nil, ErrCategoryNotFound
	}
	if category.HouseholdID != householdID {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

func toCategoryResponse(c *models.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Color:     c.Color,
		SortOrder: c.SortOrder,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}
