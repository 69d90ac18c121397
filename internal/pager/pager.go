// Package pager walks offset and cursor paginated listings one page at a time.
package pager

import (
	"context"
	"iter"

	"github.com/papers-cli/papers/pkg/papers"
)

// Fetcher retrieves the page at state. In cursor mode it reports the
// provider's next cursor through Next, leaving Next nil when the provider sent
// none. In offset mode Next is ignored and recomputed.
type Fetcher[T any] func(ctx context.Context, state papers.PageState) (*papers.PagedResult[T], error)

// FetchPage fetches one page and sets its continuation.
func FetchPage[T any](ctx context.Context, fetch Fetcher[T], state papers.PageState) (*papers.PagedResult[T], error) {
	if err := validateState(state); err != nil {
		return nil, err
	}

	result, err := fetch(ctx, state)
	if err != nil {
		return nil, err
	}

	if result == nil {
		result = &papers.PagedResult[T]{}
	}

	switch state.Mode {
	case papers.CursorMode:
		if result.Next == nil || result.Next.Cursor == "" {
			result.Next = nil
		} else {
			next := papers.CursorPage(result.Next.Cursor, state.PerPage)
			result.Next = &next
		}
	default:
		result.Next = nextOffset(state, result)
	}

	return result, nil
}

// nextOffset ends the listing on a short page or once the reported total is
// covered, counting the items skipped by the starting offset.
func nextOffset[T any](state papers.PageState, result *papers.PagedResult[T]) *papers.PageState {
	if len(result.Items) == 0 || len(result.Items) < state.PerPage {
		return nil
	}

	if result.TotalResults != nil && state.Offset+state.Page*state.PerPage >= *result.TotalResults {
		return nil
	}

	next := papers.OffsetPage(state.Page+1, state.PerPage)
	next.Offset = state.Offset

	return &next
}

func validateState(state papers.PageState) error {
	if state.PerPage < 1 {
		return papers.NewInvalidParams("per_page must be positive, got %d", state.PerPage)
	}

	switch state.Mode {
	case papers.CursorMode:
		if state.Cursor == "" {
			return papers.NewInvalidParams("cursor must not be empty")
		}
	case papers.OffsetMode:
		if state.Page < 1 {
			return papers.NewInvalidParams("page must be positive, got %d", state.Page)
		}

		if state.Offset < 0 {
			return papers.NewInvalidParams("offset must not be negative, got %d", state.Offset)
		}
	default:
		return papers.NewInvalidParams("unknown page mode %d", state.Mode)
	}

	return nil
}

// Pages returns a lazy sequence of pages starting at start. Each step issues
// exactly one fetch, and only when the consumer asks for it. A cursor the
// provider already handed out ends the sequence with a ProtocolViolation.
func Pages[T any](ctx context.Context, fetch Fetcher[T], start papers.PageState) iter.Seq2[*papers.PagedResult[T], error] {
	return func(yield func(*papers.PagedResult[T], error) bool) {
		state := start
		seen := map[string]struct{}{}

		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)

				return
			}

			if state.Mode == papers.CursorMode {
				seen[state.Cursor] = struct{}{}
			}

			page, err := FetchPage(ctx, fetch, state)
			if err != nil {
				yield(nil, err)

				return
			}

			if !yield(page, nil) {
				return
			}

			if page.Next == nil {
				return
			}

			if page.Next.Mode == papers.CursorMode {
				if _, dup := seen[page.Next.Cursor]; dup {
					yield(nil, &papers.Error{
						Kind:    papers.KindProtocolViolation,
						Message: "provider repeated cursor " + page.Next.Cursor,
					})

					return
				}
			} else if page.Next.Page <= state.Page {
				yield(nil, &papers.Error{Kind: papers.KindProtocolViolation, Message: "offset did not advance"})

				return
			}

			state = *page.Next
		}
	}
}

// Items flattens Pages into a sequence of items. Items already yielded stay
// valid when a later page fails.
func Items[T any](ctx context.Context, fetch Fetcher[T], start papers.PageState) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for page, err := range Pages(ctx, fetch, start) {
			if err != nil {
				var zero T
				yield(zero, err)

				return
			}

			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

// Collect drains seq, stopping after limit items when limit is positive.
func Collect[T any](seq iter.Seq2[T, error], limit int) ([]T, error) {
	var out []T

	for item, err := range seq {
		if err != nil {
			return out, err
		}

		out = append(out, item)

		if limit > 0 && len(out) >= limit {
			break
		}
	}

	return out, nil
}
