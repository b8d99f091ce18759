package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"lighthouse_audit_service/internal/domain"
)

// listResponse loads one page and the unpaged total concurrently and shapes
// the page items.
func listResponse[T, R any](
	ctx context.Context,
	req domain.ListRequest,
	items func(ctx context.Context) ([]T, error),
	total func(ctx context.Context) (int, error),
	shape func(T) R,
) (*domain.ListResponse[R], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		rows  []T
		count int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = items(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = total(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	shaped := make([]R, len(rows))
	for i, row := range rows {
		shaped[i] = shape(row)
	}

	return &domain.ListResponse[R]{
		Items:  shaped,
		Total:  count,
		Limit:  req.Limit,
		Offset: req.Offset,
	}, nil
}
