package domain

import "fmt"

// ListRequest pages a listing. A nil Limit means no bound, a nil Offset
// starts at the first row.
type ListRequest struct {
	Limit  *int `json:"limit,omitempty"`
	Offset *int `json:"offset,omitempty"`
}

// ListResponse is one page of items plus the unpaged total.
type ListResponse[T any] struct {
	Items  []T  `json:"items"`
	Total  int  `json:"total"`
	Limit  *int `json:"limit,omitempty"`
	Offset *int `json:"offset,omitempty"`
}

// Page builds a ListRequest with both bounds set.
func Page(limit, offset int) ListRequest {
	return ListRequest{Limit: &limit, Offset: &offset}
}

func (r ListRequest) Validate() error {
	if r.Limit != nil && *r.Limit < 0 {
		return fmt.Errorf("%w: limit must be a non-negative number", ErrInvalidRequest)
	}
	if r.Offset != nil && *r.Offset < 0 {
		return fmt.Errorf("%w: offset must be a non-negative number", ErrInvalidRequest)
	}
	return nil
}
