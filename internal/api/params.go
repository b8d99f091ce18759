package api

import (
	"fmt"
	"net/url"
	"strconv"

	"lighthouse_audit_service/internal/domain"
)

const (
	defaultLimit  = 25
	defaultOffset = 0

	auditParamPrefix = "audit-"
)

// listRequestFromQuery reads limit and offset, defaulting to 25 and 0.
func listRequestFromQuery(q url.Values) (domain.ListRequest, error) {
	return parseListRequest(q, "", domain.Page(defaultLimit, defaultOffset))
}

// auditListRequestFromQuery reads audit-limit and audit-offset. Absent
// values leave the audit sub-list unbounded.
func auditListRequestFromQuery(q url.Values) (domain.ListRequest, error) {
	return parseListRequest(q, auditParamPrefix, domain.ListRequest{})
}

func parseListRequest(q url.Values, prefix string, defaults domain.ListRequest) (domain.ListRequest, error) {
	req := defaults

	limit, err := intParam(q, prefix+"limit")
	if err != nil {
		return domain.ListRequest{}, err
	}
	if limit != nil {
		req.Limit = limit
	}

	offset, err := intParam(q, prefix+"offset")
	if err != nil {
		return domain.ListRequest{}, err
	}
	if offset != nil {
		req.Offset = offset
	}

	return req, nil
}

func intParam(q url.Values, name string) (*int, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidRequest, name)
	}
	return &v, nil
}

// bothListRequests reads the website page and the audit sub-list page.
func bothListRequests(q url.Values) (domain.ListRequest, domain.ListRequest, error) {
	websiteReq, err := listRequestFromQuery(q)
	if err != nil {
		return domain.ListRequest{}, domain.ListRequest{}, err
	}
	auditReq, err := auditListRequestFromQuery(q)
	if err != nil {
		return domain.ListRequest{}, domain.ListRequest{}, err
	}
	return websiteReq, auditReq, nil
}
