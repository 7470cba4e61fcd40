package keyset

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// boundaries answers hasPrevious and hasNext exactly: one existence query
// before the first record of the page and one after the last, both under the
// page filter. The queries are independent and run concurrently.
func (p *Pager[T]) boundaries(ctx context.Context, pl plan, first, last *Anchor) (hasPrevious, hasNext bool, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var existsErr error
		hasPrevious, existsErr = p.exists(gctx, pl, first, false)
		return existsErr
	})
	g.Go(func() error {
		var existsErr error
		hasNext, existsErr = p.exists(gctx, pl, last, true)
		return existsErr
	})

	if err = g.Wait(); err != nil {
		return false, false, err
	}

	return hasPrevious, hasNext, nil
}

func (p *Pager[T]) exists(ctx context.Context, pl plan, anchor *Anchor, wantAfter bool) (bool, error) {
	side := lo.Ternary(wantAfter, "next", "previous")

	ok, err := p.store.Exists(ctx, Query{
		Where:    pl.where,
		Relative: relativeCondition(pl.sortColumn, pl.idColumn, pl.sort.Dir, anchor, wantAfter),
		Limit:    1,
		Fields:   []string{pl.idColumn},
	})
	if err != nil {
		return false, fmt.Errorf("cannot check %s boundary: %w", side, err)
	}

	p.log.WithFields(logrus.Fields{"side": side, "exists": ok}).Debug("boundary checked")

	return ok, nil
}
