package domain

import "errors"

var (
	// ErrInvalidRequest marks client errors such as a missing URL or bad paging values.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound marks lookups that matched no audit or website.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyCompleted is returned when a terminal audit is transitioned again.
	ErrAlreadyCompleted = errors.New("audit already completed")
	// ErrEmptyWebsite is returned when a website is built without audits.
	ErrEmptyWebsite = errors.New("website should not be constructed with no audits")
)
