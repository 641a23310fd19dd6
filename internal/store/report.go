package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/land-risk-service/internal/domain"
)

// Report is a user-owned snapshot of one complete evaluation, frozen at
// creation time. Re-running the engines later may differ if the parcel's
// indices change; the report preserves what the user actually saw.
type Report struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	ParcelID string `json:"parcel_id"`

	LocationName   string  `json:"location_name"`
	Coordinates    string  `json:"coordinates"`
	LandArea       float64 `json:"land_area"`
	ZoningCategory string  `json:"zoning_category"`
	DataSource     string  `json:"data_source"`

	RiskScore       float64                  `json:"risk_score"`
	Classification  string                   `json:"classification"`
	DominantFactor  string                   `json:"dominant_factor"`
	FactorBreakdown []domain.FactorBreakdown `json:"factor_breakdown"`

	ConfidenceScore   float64 `json:"confidence_score"`
	CompletenessScore float64 `json:"completeness_score"`
	ConsistencyScore  float64 `json:"consistency_score"`
	RecencyScore      float64 `json:"recency_score"`
	LowIntegrity      bool    `json:"low_integrity"`

	Summary           string   `json:"summary"`
	KeyObservations   []string `json:"key_observations"`
	RecommendedAction string   `json:"recommended_action"`
	Limitations       string   `json:"limitations"`

	CreatedAt time.Time `json:"created_at"`
}

const reportColumns = `id, user_id, parcel_id, location_name, coordinates, land_area, zoning_category, data_source,
	risk_score, classification, dominant_factor, factor_breakdown,
	confidence_score, completeness_score, consistency_score, recency_score, low_integrity,
	summary, key_observations, recommended_action, limitations, created_at`

// CreateReport inserts a report, assigning id and created_at where unset.
func (s *Store) CreateReport(ctx context.Context, r *Report) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.clock.Now().UTC()
	}

	breakdown, err := json.Marshal(r.FactorBreakdown)
	if err != nil {
		return fmt.Errorf("serialize factor breakdown: %w", err)
	}
	observations, err := json.Marshal(r.KeyObservations)
	if err != nil {
		return fmt.Errorf("serialize observations: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO reports (`+reportColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.ParcelID, r.LocationName, r.Coordinates, r.LandArea, r.ZoningCategory, r.DataSource,
		r.RiskScore, r.Classification, r.DominantFactor, string(breakdown),
		r.ConfidenceScore, r.CompletenessScore, r.ConsistencyScore, r.RecencyScore, boolToInt(r.LowIntegrity),
		r.Summary, string(observations), r.RecommendedAction, r.Limitations, formatTime(r.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// ListReports returns a user's reports, newest first.
func (s *Store) ListReports(ctx context.Context, userID string) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// GetReport returns one report, enforcing ownership: a report belonging to a
// different user is indistinguishable from a missing one.
func (s *Store) GetReport(ctx context.Context, id, userID string) (*Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = ? AND user_id = ?`, id, userID)

	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return r, nil
}

func scanReport(sc scanner) (*Report, error) {
	var (
		r            Report
		breakdown    string
		observations string
		lowIntegrity int
		createdAt    string
	)

	err := sc.Scan(
		&r.ID, &r.UserID, &r.ParcelID, &r.LocationName, &r.Coordinates, &r.LandArea, &r.ZoningCategory, &r.DataSource,
		&r.RiskScore, &r.Classification, &r.DominantFactor, &breakdown,
		&r.ConfidenceScore, &r.CompletenessScore, &r.ConsistencyScore, &r.RecencyScore, &lowIntegrity,
		&r.Summary, &observations, &r.RecommendedAction, &r.Limitations, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(breakdown), &r.FactorBreakdown); err != nil {
		return nil, fmt.Errorf("parse factor breakdown: %w", err)
	}
	if err := json.Unmarshal([]byte(observations), &r.KeyObservations); err != nil {
		return nil, fmt.Errorf("parse observations: %w", err)
	}
	r.LowIntegrity = lowIntegrity != 0
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &r, nil
}
