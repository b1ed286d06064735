// Package leads turns completed intakes into stored, forwarded quotations.
package leads

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"saave-bot/internal/metrics"
	"saave-bot/internal/quote"
	"saave-bot/internal/storage"
	"saave-bot/pkg/crm"
)

type Store interface {
	SaveLead(ctx context.Context, lead storage.Lead) (int64, error)
	MarkCRMResult(ctx context.Context, reference, status string) (bool, error)
}

type Submitter interface {
	Submit(ctx context.Context, payload any) (*crm.Receipt, error)
}

// Request is one completed intake.
type Request struct {
	Contact         quote.Contact
	Responses       quote.Responses
	AdditionalRooms int
	ChatID          int64
	Source          string
}

type Result struct {
	Record *quote.Record
	LeadID int64
	// Stored is false when the quotation was produced but the lead could
	// not be written; the caller still shows the quotation.
	Stored bool
}

type Service struct {
	quoter     *quote.Quoter
	store      Store
	crm        Submitter
	crmTimeout time.Duration
	metrics    *metrics.Metrics
	logger     *zap.Logger

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// NewService wires the pipeline. crm may be nil, in which case leads are
// stored with the "disabled" CRM status.
func NewService(q *quote.Quoter, store Store, crm Submitter, crmTimeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		quoter:     q,
		store:      store,
		crm:        crm,
		crmTimeout: crmTimeout,
		metrics:    m,
		logger:     logger,
	}
}

func (s *Service) Quoter() *quote.Quoter { return s.quoter }

// Create quotes the request, stores the lead and forwards the payload to the
// CRM in the background. Only invalid answers are returned as errors.
func (s *Service) Create(ctx context.Context, req Request) (*Result, error) {
	rec, err := s.quoter.Quote(req.Contact, req.Responses, req.AdditionalRooms)
	if err != nil {
		s.metrics.QuotesFailed.WithLabelValues(req.Source, "invalid_input").Inc()
		return nil, err
	}
	s.metrics.ObserveQuote(req.Source, rec.Scheme, rec.Area.Total)

	logger := s.logger.With(
		zap.String("reference", rec.ID),
		zap.Int64("chat_id", req.ChatID),
		zap.String("source", req.Source),
	)
	logger.Info("Quotation generated",
		zap.Float64("area_total", rec.Area.Total),
		zap.Float64("total", rec.Cost.Total))

	res := &Result{Record: rec}

	lead, err := storage.NewLead(rec, req.Responses, req.ChatID, req.Source)
	if err != nil {
		s.metrics.QuotesFailed.WithLabelValues(req.Source, "encode").Inc()
		logger.Error("Failed to build lead", zap.Error(err))
		return res, nil
	}
	if s.crm == nil {
		lead.CRMStatus = storage.CRMDisabled
	}

	id, err := s.store.SaveLead(ctx, lead)
	if err != nil {
		s.metrics.QuotesFailed.WithLabelValues(req.Source, "storage").Inc()
		logger.Error("Failed to save lead", zap.Error(err))
		return res, nil
	}
	res.LeadID = id
	res.Stored = true

	if s.crm != nil {
		s.mu.Lock()
		if s.closing {
			s.mu.Unlock()
			logger.Warn("Shutting down, CRM submission left pending")
			return res, nil
		}
		s.wg.Add(1)
		s.mu.Unlock()

		go func() {
			defer s.wg.Done()
			s.forward(rec, logger)
		}()
	}
	return res, nil
}

func (s *Service) forward(rec *quote.Record, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), s.crmTimeout)
	defer cancel()

	status := storage.CRMSent
	receipt, err := s.crm.Submit(ctx, rec.Payload)
	if err != nil {
		status = storage.CRMFailed
		logger.Error("CRM submission failed", zap.Error(err))
	} else {
		logger.Info("Quotation sent to CRM",
			zap.String("crm_id", receipt.ID),
			zap.String("document_url", receipt.DocumentURL))
	}
	s.metrics.CRMSubmissions.WithLabelValues(status).Inc()

	updCtx, updCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer updCancel()
	updated, err := s.store.MarkCRMResult(updCtx, rec.ID, status)
	if err != nil {
		logger.Error("Failed to update CRM status", zap.Error(err))
		return
	}
	if !updated {
		logger.Debug("CRM status already advanced, keeping it", zap.String("result", status))
	}
}

// Wait blocks until every background CRM submission has finished or ctx is
// done. Quotations created after Wait is called are stored but not
// forwarded.
func (s *Service) Wait(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for CRM submissions: %w", ctx.Err())
	}
}
