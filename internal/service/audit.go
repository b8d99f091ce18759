package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lighthouse_audit_service/internal/config"
	"lighthouse_audit_service/internal/domain"
	"lighthouse_audit_service/internal/metrics"
)

type AuditService struct {
	audits    AuditStore
	waiter    Waiter
	launcher  BrowserLauncher
	auditor   Auditor
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	config    config.AuditConfig

	// slots bounds concurrent background pipelines; nil means unbounded.
	slots   chan struct{}
	pending sync.WaitGroup
}

func NewAuditService(
	audits AuditStore,
	waiter Waiter,
	launcher BrowserLauncher,
	auditor Auditor,
	publisher Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg config.AuditConfig,
) *AuditService {
	s := &AuditService{
		audits:    audits,
		waiter:    waiter,
		launcher:  launcher,
		auditor:   auditor,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		config:    cfg,
	}
	if cfg.MaxConcurrent > 0 {
		s.slots = make(chan struct{}, cfg.MaxConcurrent)
	}
	return s
}

// TriggerAudit validates url, stores a RUNNING audit and starts the pipeline.
// With AwaitAuditCompleted the returned audit is terminal, otherwise it is the
// RUNNING snapshot and the pipeline continues in the background.
func (s *AuditService) TriggerAudit(ctx context.Context, url string, opts domain.AuditOptions) (*domain.Audit, error) {
	audit, err := domain.NewAudit(url)
	if err != nil {
		return nil, err
	}

	if err := s.audits.Persist(ctx, audit); err != nil {
		return nil, fmt.Errorf("persist audit: %w", err)
	}
	s.metrics.AuditsTriggered.Inc()

	logger := s.logger.With("audit_id", audit.ID, "url", audit.URL)
	logger.Info("audit triggered", "await", opts.AwaitAuditCompleted)

	// The pipeline outlives the request: deleting or disconnecting never
	// cancels a triggered audit.
	runCtx := context.WithoutCancel(ctx)

	if opts.AwaitAuditCompleted {
		s.run(runCtx, audit, opts, logger)
		snapshot := *audit
		return &snapshot, nil
	}

	snapshot := *audit
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if s.slots != nil {
			s.slots <- struct{}{}
			defer func() { <-s.slots }()
		}
		s.run(runCtx, audit, opts, logger)
	}()

	return &snapshot, nil
}

// Wait blocks until every background audit has finished.
func (s *AuditService) Wait() {
	s.pending.Wait()
}

func (s *AuditService) run(ctx context.Context, audit *domain.Audit, opts domain.AuditOptions, logger *slog.Logger) {
	start := time.Now()
	s.metrics.AuditsRunning.Inc()
	defer s.metrics.AuditsRunning.Dec()

	report, err := s.execute(ctx, audit.URL, opts, logger)
	if err != nil {
		logger.Error("audit failed", "error", err)
		err = audit.MarkFailed()
	} else {
		err = audit.MarkSucceeded(report)
	}
	if err != nil {
		logger.Error("complete audit", "error", err)
		return
	}

	duration := time.Since(start)
	s.metrics.AuditsFinished.WithLabelValues(string(audit.Status())).Inc()
	s.metrics.AuditDuration.Observe(duration.Seconds())

	if err := s.audits.Persist(ctx, audit); err != nil {
		s.metrics.StageFailures.WithLabelValues(metrics.StagePersist).Inc()
		logger.Error("persist completed audit", "status", audit.Status(), "error", err)
		return
	}

	logger.Info("audit finished", "status", audit.Status(), "duration", duration)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, audit); err != nil {
			s.metrics.StageFailures.WithLabelValues(metrics.StagePublish).Inc()
			logger.Warn("publish audit", "error", err)
		}
	}
}

// execute waits for the target, launches the browser and runs Lighthouse.
// The first failing stage ends the pipeline.
func (s *AuditService) execute(ctx context.Context, url string, opts domain.AuditOptions, logger *slog.Logger) (domain.Report, error) {
	upTimeout := s.config.UpTimeout
	if opts.UpTimeout > 0 {
		upTimeout = time.Duration(opts.UpTimeout) * time.Millisecond
	}

	if err := s.waiter.WaitUntilUp(ctx, url, upTimeout); err != nil {
		s.metrics.StageFailures.WithLabelValues(metrics.StageLiveness).Inc()
		return nil, fmt.Errorf("wait for %s: %w", url, err)
	}

	browserOpts := s.browserOptions(opts)
	logger.Debug("launching browser", "port", browserOpts.Port, "args", browserOpts.Args)

	browser, err := s.launcher.Launch(ctx, browserOpts)
	if err != nil {
		s.metrics.StageFailures.WithLabelValues(metrics.StageBrowser).Inc()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			logger.Warn("close browser", "error", err)
		}
	}()

	report, err := s.auditor.Run(ctx, url, browser.Port(), lighthouseConfig(opts.LighthouseConfig))
	if err != nil {
		s.metrics.StageFailures.WithLabelValues(metrics.StageLighthouse).Inc()
		return nil, fmt.Errorf("run lighthouse: %w", err)
	}
	if len(report) == 0 {
		s.metrics.StageFailures.WithLabelValues(metrics.StageLighthouse).Inc()
		return nil, errors.New("run lighthouse: no report produced")
	}

	return report, nil
}

func (s *AuditService) GetAudit(ctx context.Context, id string) (*domain.Audit, error) {
	return s.audits.GetByID(ctx, id)
}

func (s *AuditService) GetAudits(ctx context.Context, req domain.ListRequest) (*domain.ListResponse[domain.AuditListItem], error) {
	return listResponse(ctx, req,
		func(ctx context.Context) ([]domain.Audit, error) { return s.audits.List(ctx, req) },
		s.audits.Count,
		func(a domain.Audit) domain.AuditListItem { return a.ListItem() },
	)
}

// DeleteAudit removes the stored audit. A pipeline still running for it is
// not stopped and will write the row back when it finishes.
func (s *AuditService) DeleteAudit(ctx context.Context, id string) (*domain.Audit, error) {
	audit, err := s.audits.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("audit deleted", "audit_id", id)
	return audit, nil
}
