package app

import (
	"context"
	"errors"
	"strings"

	"quiz-competition-service/internal/domain"
)

// CatalogService serves departments and randomized question sets.
type CatalogService struct {
	departments DepartmentRepository
	selector    *Selector
}

func NewCatalogService(departments DepartmentRepository, selector *Selector) *CatalogService {
	return &CatalogService{departments: departments, selector: selector}
}

func (s *CatalogService) Departments(ctx context.Context) ([]domain.Department, error) {
	return s.departments.ListDepartments(ctx)
}

// Questions draws a question set. A named department that does not exist, or
// has no departmental questions, yields an empty set.
func (s *CatalogService) Questions(ctx context.Context, department string, numDept, numGen int) ([]domain.Question, error) {
	department = strings.TrimSpace(department)
	if department == "" {
		return s.selector.Select(ctx, nil, numDept, numGen)
	}
	d, err := s.departments.GetDepartmentByName(ctx, department)
	if errors.Is(err, domain.ErrDepartmentNotFound) {
		return []domain.Question{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.selector.Select(ctx, &d, numDept, numGen)
}
