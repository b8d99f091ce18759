package service

import (
	"context"

	"lighthouse_audit_service/internal/domain"
)

// WebsiteService serves the read-only website projection. websiteReq pages
// the websites, auditReq pages the audits listed for each website.
type WebsiteService struct {
	websites WebsiteStore
}

func NewWebsiteService(websites WebsiteStore) *WebsiteService {
	return &WebsiteService{websites: websites}
}

func (s *WebsiteService) GetWebsites(ctx context.Context, websiteReq, auditReq domain.ListRequest) (*domain.ListResponse[domain.WebsiteBody], error) {
	if err := auditReq.Validate(); err != nil {
		return nil, err
	}
	return listResponse(ctx, websiteReq,
		func(ctx context.Context) ([]domain.Website, error) {
			return s.websites.List(ctx, websiteReq, auditReq)
		},
		s.websites.Total,
		func(w domain.Website) domain.WebsiteBody { return w.Body() },
	)
}

func (s *WebsiteService) GetWebsiteByURL(ctx context.Context, url string, websiteReq, auditReq domain.ListRequest) (*domain.Website, error) {
	if err := validatePages(websiteReq, auditReq); err != nil {
		return nil, err
	}
	return s.websites.GetByURL(ctx, url, websiteReq, auditReq)
}

func (s *WebsiteService) GetWebsiteByAuditID(ctx context.Context, auditID string, websiteReq, auditReq domain.ListRequest) (*domain.Website, error) {
	if err := validatePages(websiteReq, auditReq); err != nil {
		return nil, err
	}
	return s.websites.GetByAuditID(ctx, auditID, websiteReq, auditReq)
}

func validatePages(reqs ...domain.ListRequest) error {
	for _, req := range reqs {
		if err := req.Validate(); err != nil {
			return err
		}
	}
	return nil
}
