package services

import (
	"context"

	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/query"
)

type CategoryService struct {
	base
}

func NewCategoryService(api FinanceAPI, q *query.Client, opts ...Option) *CategoryService {
	return &CategoryService{base: newBase(api, q, log.ComponentQuery, opts)}
}

func (s *CategoryService) List(ctx context.Context) (query.Result[[]core.Category], error) {
	return query.Fetch(ctx, s.q, query.Options{Key: CategoriesKey, StaleTime: CategoriesStaleTime}, s.api.ListCategories)
}

// ListByType returns the categories usable for entries of type t.
func (s *CategoryService) ListByType(ctx context.Context, t core.EntryType) ([]core.Category, error) {
	res, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return core.CategoriesOfType(res.Data, t), nil
}

func (s *CategoryService) Create(ctx context.Context, req core.CategoryRequest) (core.Category, error) {
	if err := req.Validate(); err != nil {
		return core.Category{}, err
	}
	cat, err := query.Mutate(ctx, s.q, query.Mutation[core.Category]{
		Name:     "create_category",
		Strategy: query.PatchInPlace,
		Target:   CategoriesKey,
		Patch: func(created core.Category) error {
			_, err := query.UpdateData(s.q, CategoriesKey, func(old []core.Category) []core.Category {
				return append(old, created)
			})
			return err
		},
	}, func(ctx context.Context) (core.Category, error) {
		return s.api.CreateCategory(ctx, req)
	})
	if err != nil {
		return core.Category{}, err
	}
	s.audit.LogMutation(ctx, EntityCategory, cat.ID, log.OpCreate)
	publish(ctx, s.notifier, s.logger, EntityCategory, log.OpCreate, cat.ID)
	return cat, nil
}

// Delete removes the category from the cached list and drops every cached
// transaction list, since those may embed the category.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	_, err := query.Mutate(ctx, s.q, query.Mutation[struct{}]{
		Name:     "delete_category",
		Strategy: query.PatchInPlace,
		Target:   CategoriesKey,
		Patch: func(struct{}) error {
			_, err := query.UpdateData(s.q, CategoriesKey, func(old []core.Category) []core.Category {
				out := make([]core.Category, 0, len(old))
				for _, c := range old {
					if c.ID != id {
						out = append(out, c)
					}
				}
				return out
			})
			return err
		},
		Cascade: []query.Key{TransactionsKey},
	}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.api.DeleteCategory(ctx, id)
	})
	if err != nil {
		return err
	}
	s.audit.LogMutation(ctx, EntityCategory, id, log.OpDelete)
	publish(ctx, s.notifier, s.logger, EntityCategory, log.OpDelete, id)
	return nil
}
