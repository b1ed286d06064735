// Package httpapi exposes the quotation engine over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"saave-bot/internal/intake"
	"saave-bot/internal/leads"
	"saave-bot/internal/metrics"
	"saave-bot/internal/quote"
	"saave-bot/internal/storage"
)

type LeadStore interface {
	GetLeadByReference(ctx context.Context, reference string) (*storage.Lead, error)
	UpdateCRMStatus(ctx context.Context, reference, status string) error
}

// Notifier delivers CRM events back to the client's chat.
type Notifier interface {
	NotifyDocument(ctx context.Context, chatID int64, reference, url string) error
}

// Pinger is a dependency checked by /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	leads   *leads.Service
	store   LeadStore
	checks  map[string]Pinger
	metrics *metrics.Metrics
	logger  *zap.Logger

	webhookToken string
	notifier     Notifier
}

func NewServer(svc *leads.Service, store LeadStore, checks map[string]Pinger, m *metrics.Metrics, logger *zap.Logger) *Server {
	return &Server{
		leads:   svc,
		store:   store,
		checks:  checks,
		metrics: m,
		logger:  logger,
	}
}

// WithCRMEvents enables POST /api/crm/events, authenticated with a bearer
// token.
func (s *Server) WithCRMEvents(token string, notifier Notifier) *Server {
	s.webhookToken = token
	s.notifier = notifier
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)
		r.Post("/quotes", s.handleCreateQuote)
		r.Get("/quotes/{reference}", s.handleGetQuote)
		if s.webhookToken != "" {
			r.Post("/crm/events", s.handleCRMEvent)
		}
	})
	return r
}

// observe logs every request and records its duration by route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.metrics.HTTPDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).Observe(elapsed.Seconds())
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	result := make(map[string]string, len(s.checks))
	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			result[name] = err.Error()
			continue
		}
		result[name] = "ok"
	}
	writeJSON(w, status, result)
}

type catalogResponse struct {
	Scheme  string         `json:"scheme"`
	Catalog *quote.Catalog `json:"catalog"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	q := s.leads.Quoter()
	writeJSON(w, http.StatusOK, catalogResponse{Scheme: q.Scheme().Name, Catalog: q.Catalog()})
}

type createQuoteRequest struct {
	Contact         quote.Contact   `json:"contact"`
	Responses       quote.Responses `json:"responses"`
	AdditionalRooms int             `json:"additional_rooms"`
}

type createQuoteResponse struct {
	Reference string              `json:"referencia"`
	Stored    bool                `json:"stored"`
	Area      quote.AreaBreakdown `json:"area"`
	Cost      quote.CostBreakdown `json:"cost"`
	Text      string              `json:"text"`
	Payload   quote.Payload       `json:"payload"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *Server) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	var req createQuoteRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	if field, msg := validateContact(req.Contact); field != "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: msg, Field: field})
		return
	}
	if maxRooms := s.leads.Quoter().Catalog().MaxAdditionalRooms(); req.AdditionalRooms < 0 || req.AdditionalRooms > maxRooms {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: fmt.Sprintf("must be between 0 and %d", maxRooms),
			Field: "additional_rooms",
		})
		return
	}
	req.Contact.Phone = intake.NormalizePhone(req.Contact.Phone)

	res, err := s.leads.Create(r.Context(), leads.Request{
		Contact:         req.Contact,
		Responses:       req.Responses,
		AdditionalRooms: req.AdditionalRooms,
		Source:          storage.SourceAPI,
	})
	if err != nil {
		var ie *quote.InputError
		if errors.As(err, &ie) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: ie.Reason, Field: ie.Field})
			return
		}
		if errors.Is(err, quote.ErrInvalidInput) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}
		s.logger.Error("Failed to create quotation", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	rec := res.Record
	writeJSON(w, http.StatusCreated, createQuoteResponse{
		Reference: rec.ID,
		Stored:    res.Stored,
		Area:      rec.Area,
		Cost:      rec.Cost,
		Text:      rec.Text,
		Payload:   rec.Payload,
	})
}

type leadResponse struct {
	Reference string          `json:"referencia"`
	Source    string          `json:"source"`
	Scheme    string          `json:"scheme"`
	TotalArea float64         `json:"area_total"`
	Total     float64         `json:"total"`
	CRMStatus string          `json:"crm_status"`
	CreatedAt time.Time       `json:"created_at"`
	Responses json.RawMessage `json:"responses"`
	Payload   json.RawMessage `json:"payload"`
}

func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "reference")

	lead, err := s.store.GetLeadByReference(r.Context(), ref)
	if errors.Is(err, storage.ErrLeadNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "quotation not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to load quotation", zap.String("reference", ref), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, leadResponse{
		Reference: lead.Reference,
		Source:    lead.Source,
		Scheme:    lead.Scheme,
		TotalArea: lead.TotalArea,
		Total:     lead.Total,
		CRMStatus: lead.CRMStatus,
		CreatedAt: lead.CreatedAt,
		Responses: lead.Responses,
		Payload:   lead.Payload,
	})
}

func validateContact(c quote.Contact) (field, msg string) {
	switch {
	case !intake.IsValidName(c.Name):
		return "contact.name", "name is required"
	case !intake.IsValidPhone(c.Phone):
		return "contact.phone", "phone must have 7 to 15 digits"
	case !intake.IsValidEmail(c.Email):
		return "contact.email", "email is not valid"
	}
	return "", ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
