package pagination

import (
	"context"
	"errors"
	"fmt"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// ErrPaginationAborted wraps every error that stops a paging run. Pages
// delivered before the failure are not rolled back.
var ErrPaginationAborted = errors.New("pagination aborted")

// PageResult is one fetched page: the number of resources it holds, the
// typed payload and the link to the following page ("" on the last page).
type PageResult[T any] struct {
	Count   int
	Payload T
	Next    string
}

// ClampPageSize bounds a requested page size to [1, MaxPageSize], using
// DefaultPageSize for non-positive values.
func ClampPageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

func aborted(page int, err error) error {
	return fmt.Errorf("%w: page %d: %w", ErrPaginationAborted, page, err)
}

// Paginate fetches the first page, hands it to onPage, then follows the link
// returned by nextLinkOf until it is empty. Each page is delivered before
// the next one is requested. Any error from fetching, link extraction or
// onPage stops the run.
func Paginate[P any](
	ctx context.Context,
	fetchFirst func(ctx context.Context) (P, error),
	fetchNext func(ctx context.Context, url string) (P, error),
	nextLinkOf func(page P) (string, error),
	onPage func(page P) error,
) error {
	page, err := fetchFirst(ctx)
	if err != nil {
		return aborted(1, err)
	}
	for n := 1; ; n++ {
		if err := onPage(page); err != nil {
			return aborted(n, err)
		}
		next, err := nextLinkOf(page)
		if err != nil {
			return aborted(n, err)
		}
		if next == "" {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return aborted(n+1, err)
		}
		if page, err = fetchNext(ctx, next); err != nil {
			return aborted(n+1, err)
		}
	}
}

// DownloadAll folds every page into an accumulator, starting from initial.
// fetch receives "" for the first page and the previous page's Next link
// afterwards. A page holding fewer than pageSize resources ends the run even
// if it carries a next link.
func DownloadAll[T, A any](
	ctx context.Context,
	pageSize int,
	fetch func(ctx context.Context, next string) (PageResult[T], error),
	initial A,
	fold func(acc A, payload T) A,
) (A, error) {
	acc := initial
	next := ""
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return acc, aborted(n, err)
		}
		page, err := fetch(ctx, next)
		if err != nil {
			return acc, aborted(n, err)
		}
		acc = fold(acc, page.Payload)
		if page.Next == "" || page.Count < pageSize {
			return acc, nil
		}
		next = page.Next
	}
}
