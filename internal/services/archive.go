package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"utm-bknd/internal/models"
)

// FlightAuditRecord is the append-only Postgres row written for every
// admission decision, accepted or rejected. The in-memory registry stays
// authoritative; this table exists purely for audit.
type FlightAuditRecord struct {
	bun.BaseModel `bun:"table:app.flight_audit,alias:fla"`

	ID           int64           `bun:"id,pk,autoincrement" json:"id"`
	FlightID     string          `bun:"flight_id,notnull" json:"flight_id"`
	FlightNumber string          `bun:"flight_number,notnull" json:"flight_number"`
	Status       string          `bun:"status,notnull" json:"status"`
	MaxAltitude  float64         `bun:"max_altitude_meters" json:"max_altitude_meters"`
	WindowStart  time.Time       `bun:"window_start,notnull" json:"window_start"`
	WindowEnd    time.Time       `bun:"window_end,notnull" json:"window_end"`
	Geometry     json.RawMessage `bun:"geometry,type:jsonb" json:"geometry"`
	Report       json.RawMessage `bun:"report,type:jsonb" json:"report"`
	CreatedAt    time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// ArchiveService persists admission decisions.
type ArchiveService struct {
	db *bun.DB
}

// NewArchiveService creates a new archive service.
func NewArchiveService(db *bun.DB) *ArchiveService {
	return &ArchiveService{db: db}
}

// Init creates the audit table when it does not exist yet.
func (s *ArchiveService) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*FlightAuditRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create flight_audit table: %w", err)
	}
	return nil
}

// Record appends one decision row.
func (s *ArchiveService) Record(ctx context.Context, plan models.FlightPlan) error {
	geometry, err := marshalGeometry(plan)
	if err != nil {
		return err
	}
	report, err := json.Marshal(plan.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	rec := &FlightAuditRecord{
		FlightID:     plan.ID,
		FlightNumber: plan.FlightNumber,
		Status:       string(plan.Status),
		MaxAltitude:  plan.MaxAltitudeMeters,
		WindowStart:  plan.Window.Start,
		WindowEnd:    plan.Window.End,
		Geometry:     geometry,
		Report:       report,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(rec).Exec(ctx); err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

func marshalGeometry(plan models.FlightPlan) (json.RawMessage, error) {
	payload := map[string]any{}
	if plan.Area != nil {
		payload["operation_area"] = plan.Area
	} else {
		payload["waypoints"] = plan.Waypoints
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal geometry: %w", err)
	}
	return raw, nil
}
