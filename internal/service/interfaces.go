package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"lighthouse_audit_service/internal/domain"
)

type AuditStore interface {
	Persist(ctx context.Context, audit *domain.Audit) error
	GetByID(ctx context.Context, id string) (*domain.Audit, error)
	List(ctx context.Context, req domain.ListRequest) ([]domain.Audit, error)
	Count(ctx context.Context) (int, error)
	DeleteByID(ctx context.Context, id string) (*domain.Audit, error)
}

type WebsiteStore interface {
	GetByURL(ctx context.Context, url string, websiteReq, auditReq domain.ListRequest) (*domain.Website, error)
	GetByAuditID(ctx context.Context, auditID string, websiteReq, auditReq domain.ListRequest) (*domain.Website, error)
	List(ctx context.Context, websiteReq, auditReq domain.ListRequest) ([]domain.Website, error)
	Total(ctx context.Context) (int, error)
}

// Waiter blocks until the target URL answers or the timeout elapses.
type Waiter interface {
	WaitUntilUp(ctx context.Context, url string, timeout time.Duration) error
}

type BrowserLauncher interface {
	Launch(ctx context.Context, opts domain.BrowserOptions) (Browser, error)
}

type Browser interface {
	Port() int
	Close() error
}

// Auditor runs Lighthouse against url through the browser listening on port.
type Auditor interface {
	Run(ctx context.Context, url string, port int, config map[string]any) (domain.Report, error)
}

type Publisher interface {
	Publish(ctx context.Context, audit *domain.Audit) error
	Close() error
}
