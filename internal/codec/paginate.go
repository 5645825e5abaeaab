package codec

import "github.com/TaughtMe/LernBox/internal/domain"

// DefaultPageCapacity is the encoded length a page should stay under
// to remain reliably scannable. Chosen empirically; configurable at
// the call sites.
const DefaultPageCapacity = 2500

// Paginate splits an ordered item list into pages whose encoded batch
// payload stays within capacity. Items are never split across pages
// and never dropped; pages preserve the original order. A single item
// whose minimal encoding alone exceeds capacity is forced onto its
// own page rather than lost.
//
// Each tentative append re-encodes the whole page, because the
// compression ratio is not additive. Quadratic in page size, which
// the small per-page counts implied by the capacity keep cheap.
func Paginate(items []domain.CardContent, capacity int) ([][]domain.CardContent, error) {
	if len(items) == 0 {
		return nil, ErrEmptyBatch
	}
	if capacity <= 0 {
		capacity = DefaultPageCapacity
	}

	var pages [][]domain.CardContent
	var current []domain.CardContent

	for _, item := range items {
		trial := append(append([]domain.CardContent{}, current...), item)
		encoded, err := EncodeBatch(trial)
		if err != nil {
			return nil, err
		}

		if len(encoded) <= capacity {
			current = trial
			continue
		}

		if len(current) == 0 {
			// The item alone exceeds capacity. Emit it as its own
			// oversized page; losing data would be worse than an
			// unreliable code.
			pages = append(pages, []domain.CardContent{item})
			continue
		}

		pages = append(pages, current)
		current = []domain.CardContent{item}
	}

	if len(current) > 0 {
		pages = append(pages, current)
	}
	return pages, nil
}

// PaginateEncoded paginates and encodes each page, returning the
// payload text per page in order.
func PaginateEncoded(items []domain.CardContent, capacity int) ([]string, error) {
	pages, err := Paginate(items, capacity)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(pages))
	for i, page := range pages {
		encoded, err := EncodeBatch(page)
		if err != nil {
			return nil, err
		}
		out[i] = encoded
	}
	return out, nil
}
