package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"saave-bot/internal/config"
	"saave-bot/internal/quote"
)

// Lead sources.
const (
	SourceTelegram = "telegram"
	SourceAPI      = "api"
)

// CRM delivery states.
const (
	CRMPending  = "pending"
	CRMSent     = "sent"
	CRMFailed   = "failed"
	CRMDisabled = "disabled"
	// CRMDocumentReady is set when the CRM reports the rendered document.
	CRMDocumentReady = "document_ready"
)

var ErrLeadNotFound = errors.New("lead not found")

type PostgresStorage struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Lead is a stored quotation together with the answers that produced it.
type Lead struct {
	ID                int64           `db:"id"`
	Reference         string          `db:"reference"`
	ChatID            int64           `db:"chat_id"`
	Source            string          `db:"source"`
	Scheme            string          `db:"scheme"`
	Name              string          `db:"name"`
	Phone             string          `db:"phone"`
	Email             string          `db:"email"`
	Lot               string          `db:"lot"`
	TotalArea         float64         `db:"total_area"`
	DesignTotal       float64         `db:"design_total"`
	ConstructionTotal float64         `db:"construction_total"`
	Total             float64         `db:"total"`
	Responses         json.RawMessage `db:"responses"`
	Payload           json.RawMessage `db:"payload"`
	QuotationText     string          `db:"quotation_text"`
	CRMStatus         string          `db:"crm_status"`
	CreatedAt         time.Time       `db:"created_at"`
}

// NewLead flattens a quotation record into a storable lead.
func NewLead(rec *quote.Record, responses quote.Responses, chatID int64, source string) (Lead, error) {
	answers, err := json.Marshal(responses)
	if err != nil {
		return Lead{}, fmt.Errorf("marshal responses: %w", err)
	}
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return Lead{}, fmt.Errorf("marshal payload: %w", err)
	}

	return Lead{
		Reference:         rec.ID,
		ChatID:            chatID,
		Source:            source,
		Scheme:            rec.Scheme,
		Name:              rec.Contact.Name,
		Phone:             rec.Contact.Phone,
		Email:             rec.Contact.Email,
		Lot:               responses.Lot,
		TotalArea:         rec.Area.Total,
		DesignTotal:       rec.Cost.DesignTotal,
		ConstructionTotal: rec.Cost.ConstructionTotal,
		Total:             rec.Cost.Total,
		Responses:         answers,
		Payload:           payload,
		QuotationText:     rec.Text,
		CRMStatus:         CRMPending,
		CreatedAt:         rec.CreatedAt,
	}, nil
}

func NewPostgresStorage(ctx context.Context, cfg config.DBConfig, logger *zap.Logger) (*PostgresStorage, error) {
	const operation = "storage.NewPostgresStorage"

	var db *sqlx.DB
	var err error

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to PostgreSQL...", zap.String("host", cfg.Host), zap.String("db", cfg.Name))

	err = backoff.RetryNotify(
		func() error {
			db, err = sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}

			if err = db.PingContext(ctx); err != nil {
				db.Close()
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, duration time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)

	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("Successfully connected to PostgreSQL")
	return NewWithDB(db, logger), nil
}

// NewWithDB wraps an open connection.
func NewWithDB(db *sqlx.DB, logger *zap.Logger) *PostgresStorage {
	return &PostgresStorage{db: db, logger: logger}
}

func (s *PostgresStorage) DB() *sql.DB {
	return s.db.DB
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStorage) SaveLead(ctx context.Context, lead Lead) (int64, error) {
	const query = `
        INSERT INTO leads (
            reference, chat_id, source, scheme, name, phone, email, lot,
            total_area, design_total, construction_total, total,
            responses, payload, quotation_text, crm_status, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
        RETURNING id
    `

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		lead.Reference,
		lead.ChatID,
		lead.Source,
		lead.Scheme,
		lead.Name,
		lead.Phone,
		lead.Email,
		lead.Lot,
		lead.TotalArea,
		lead.DesignTotal,
		lead.ConstructionTotal,
		lead.Total,
		lead.Responses,
		lead.Payload,
		lead.QuotationText,
		lead.CRMStatus,
		lead.CreatedAt,
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to save lead: %w", err)
	}
	return id, nil
}

const leadColumns = `id, reference, chat_id, source, scheme, name, phone, email, lot,
        total_area, design_total, construction_total, total,
        responses, payload, quotation_text, crm_status, created_at`

func (s *PostgresStorage) GetLeadByReference(ctx context.Context, reference string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE reference = $1`

	var lead Lead
	err := s.db.GetContext(ctx, &lead, query, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return &lead, nil
}

// ListRecentLeads returns up to limit leads, newest first.
func (s *PostgresStorage) ListRecentLeads(ctx context.Context, limit int) ([]Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads ORDER BY created_at DESC LIMIT $1`

	var leads []Lead
	if err := s.db.SelectContext(ctx, &leads, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

func (s *PostgresStorage) UpdateCRMStatus(ctx context.Context, reference, status string) error {
	const query = `UPDATE leads SET crm_status = $1 WHERE reference = $2`

	res, err := s.db.ExecContext(ctx, query, status, reference)
	if err != nil {
		return fmt.Errorf("failed to update crm status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update crm status: %w", err)
	}
	if n == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// MarkCRMResult records the outcome of the submission while the lead is
// still pending. It reports false when a CRM event already moved the lead on.
func (s *PostgresStorage) MarkCRMResult(ctx context.Context, reference, status string) (bool, error) {
	const query = `UPDATE leads SET crm_status = $1 WHERE reference = $2 AND crm_status = $3`

	res, err := s.db.ExecContext(ctx, query, status, reference, CRMPending)
	if err != nil {
		return false, fmt.Errorf("failed to mark crm result: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark crm result: %w", err)
	}
	return n > 0, nil
}

type LeadStatistics struct {
	TotalLeads  int            `db:"total_leads"`
	TotalAmount float64        `db:"total_amount"`
	TodayLeads  int            `db:"today_leads"`
	WeekLeads   int            `db:"week_leads"`
	MonthLeads  int            `db:"month_leads"`
	AverageArea float64        `db:"average_area"`
	BySchemes   map[string]int `db:"-"`
}

func (s *PostgresStorage) GetLeadStatistics(ctx context.Context) (*LeadStatistics, error) {
	stats := &LeadStatistics{BySchemes: make(map[string]int)}

	err := s.db.GetContext(ctx, stats, `
        SELECT
            COUNT(*) AS total_leads,
            COALESCE(SUM(total), 0) AS total_amount,
            COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE) AS today_leads,
            COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE - INTERVAL '7 days') AS week_leads,
            COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE - INTERVAL '30 days') AS month_leads,
            COALESCE(AVG(total_area), 0) AS average_area
        FROM leads
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to get lead totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT scheme, COUNT(*) FROM leads GROUP BY scheme`)
	if err != nil {
		return nil, fmt.Errorf("failed to get scheme counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var scheme string
		var count int
		if err := rows.Scan(&scheme, &count); err != nil {
			return nil, fmt.Errorf("failed to scan scheme count: %w", err)
		}
		stats.BySchemes[scheme] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scheme counts: %w", err)
	}

	return stats, nil
}
