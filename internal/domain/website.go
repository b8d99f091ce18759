package domain

import "fmt"

// Website groups the audits of one URL, most recent first.
type Website struct {
	URL    string
	Audits []Audit
}

// WebsiteBody is the JSON representation of a website.
type WebsiteBody struct {
	URL       string          `json:"url"`
	LastAudit AuditListItem   `json:"lastAudit"`
	Audits    []AuditListItem `json:"audits"`
}

// NewWebsite builds a website. The audits are expected in descending creation
// order; the order is not checked.
func NewWebsite(url string, audits []Audit) (*Website, error) {
	if len(audits) == 0 {
		return nil, fmt.Errorf("website %q: %w", url, ErrEmptyWebsite)
	}
	return &Website{URL: url, Audits: audits}, nil
}

func (w *Website) LastAudit() *Audit {
	return &w.Audits[0]
}

func (w *Website) Body() WebsiteBody {
	items := make([]AuditListItem, len(w.Audits))
	for i := range w.Audits {
		items[i] = w.Audits[i].ListItem()
	}
	return WebsiteBody{
		URL:       w.URL,
		LastAudit: items[0],
		Audits:    items,
	}
}
