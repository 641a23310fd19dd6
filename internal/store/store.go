// Package store persists parcel snapshots and reports in SQLite.
//
// Parcel rows double as the geospatial cache: shared rows (no user id) are
// written once per aggregation and matched by a coordinate tolerance box plus
// a freshness window. User-owned rows are copy-on-write clones of shared rows
// and live outside the cache expiry.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"

	"github.com/couchcryptid/land-risk-service/internal/domain"
)

// ErrNotFound is returned when a parcel or report does not exist (or is not
// visible to the requesting user).
var ErrNotFound = errors.New("not found")

// degreesPerKm converts the cache tolerance from kilometers to coordinate
// degrees. A fixed approximation: it ignores latitude-dependent longitude
// compression, and the resulting region is a square box, not a radius. This
// behavior is load-bearing; do not replace it with a geodesic search.
const degreesPerKm = 1.0 / 111.0

// cacheFreshness is the shared-row freshness window for tolerance-box lookups.
const cacheFreshness = 24 * time.Hour

// timeLayout is the canonical stored timestamp format. UTC RFC3339 strings
// compare lexicographically, which the freshness predicates rely on.
const timeLayout = time.RFC3339

const schema = `
CREATE TABLE IF NOT EXISTS parcels (
	id TEXT PRIMARY KEY,
	location_name TEXT NOT NULL,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	land_area REAL NOT NULL,
	zoning_category TEXT NOT NULL,
	soil_index REAL NOT NULL,
	flood_index REAL NOT NULL,
	environmental_index REAL NOT NULL,
	zoning_index REAL NOT NULL,
	topography_index REAL NOT NULL,
	data_completeness REAL NOT NULL,
	model_consistency REAL NOT NULL,
	data_recency REAL NOT NULL,
	data_source_label TEXT NOT NULL,
	is_offline_mode INTEGER NOT NULL,
	api_cache_timestamp TEXT NOT NULL,
	last_updated TEXT NOT NULL,
	user_id TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_parcels_coords ON parcels(latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_parcels_user ON parcels(user_id);

CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	parcel_id TEXT NOT NULL,
	location_name TEXT NOT NULL,
	coordinates TEXT NOT NULL,
	land_area REAL NOT NULL,
	zoning_category TEXT NOT NULL,
	data_source TEXT NOT NULL,
	risk_score REAL NOT NULL,
	classification TEXT NOT NULL,
	dominant_factor TEXT NOT NULL,
	factor_breakdown TEXT NOT NULL,
	confidence_score REAL NOT NULL,
	completeness_score REAL NOT NULL,
	consistency_score REAL NOT NULL,
	recency_score REAL NOT NULL,
	low_integrity INTEGER NOT NULL,
	summary TEXT NOT NULL,
	key_observations TEXT NOT NULL,
	recommended_action TEXT NOT NULL,
	limitations TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_user ON reports(user_id);
`

// Store is the SQLite-backed persistence layer.
type Store struct {
	db     *sql.DB
	clock  clockwork.Clock
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, clock: clockwork.NewRealClock(), logger: logger}, nil
}

// SetClock swaps the time source. Pass nil to reset to real time.
func (s *Store) SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	s.clock = c
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const parcelColumns = `id, location_name, latitude, longitude, land_area, zoning_category,
	soil_index, flood_index, environmental_index, zoning_index, topography_index,
	data_completeness, model_consistency, data_recency,
	data_source_label, is_offline_mode, api_cache_timestamp, last_updated, user_id, created_at`

// Create inserts a parcel snapshot, assigning an id and timestamps where unset.
func (s *Store) Create(ctx context.Context, p *domain.ParcelSnapshot) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.clock.Now().UTC()
	if p.CacheTimestamp.IsZero() {
		p.CacheTimestamp = now
	}
	if p.LastUpdated.IsZero() {
		p.LastUpdated = now
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO parcels (`+parcelColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.LocationName, p.Latitude, p.Longitude, p.LandArea, p.ZoningCategory,
		p.Indices.Soil, p.Indices.Flood, p.Indices.Environmental, p.Indices.Zoning, p.Indices.Topography,
		p.Quality.Completeness, p.Quality.Consistency, p.Quality.Recency,
		p.DataSourceLabel, boolToInt(p.OfflineMode),
		formatTime(p.CacheTimestamp), formatTime(p.LastUpdated),
		nullIfEmpty(p.UserID), formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert parcel: %w", err)
	}
	return nil
}

// FindCached returns the most recently cached parcel whose coordinates fall
// inside the tolerance box around (lat, lng) and whose cache timestamp is
// within the last 24 hours, or ErrNotFound.
func (s *Store) FindCached(ctx context.Context, lat, lng, toleranceKm float64) (*domain.ParcelSnapshot, error) {
	tolerance := toleranceKm * degreesPerKm
	cutoff := s.clock.Now().UTC().Add(-cacheFreshness)

	row := s.db.QueryRowContext(ctx, `SELECT `+parcelColumns+` FROM parcels
		WHERE latitude BETWEEN ? AND ?
		  AND longitude BETWEEN ? AND ?
		  AND api_cache_timestamp >= ?
		ORDER BY api_cache_timestamp DESC
		LIMIT 1`,
		lat-tolerance, lat+tolerance,
		lng-tolerance, lng+tolerance,
		formatTime(cutoff),
	)

	p, err := scanParcel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find cached parcel: %w", err)
	}
	return p, nil
}

// FindByID returns a single parcel or ErrNotFound.
func (s *Store) FindByID(ctx context.Context, id string) (*domain.ParcelSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+parcelColumns+` FROM parcels WHERE id = ?`, id)
	p, err := scanParcel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find parcel: %w", err)
	}
	return p, nil
}

// FindAll returns every stored parcel, newest first.
func (s *Store) FindAll(ctx context.Context) ([]domain.ParcelSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+parcelColumns+` FROM parcels ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list parcels: %w", err)
	}
	defer rows.Close()

	var parcels []domain.ParcelSnapshot
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan parcel: %w", err)
		}
		parcels = append(parcels, *p)
	}
	return parcels, rows.Err()
}

// ListByUser returns a user's owned parcels, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]domain.ParcelSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+parcelColumns+` FROM parcels WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user parcels: %w", err)
	}
	defer rows.Close()

	var parcels []domain.ParcelSnapshot
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan parcel: %w", err)
		}
		parcels = append(parcels, *p)
	}
	return parcels, rows.Err()
}

// FindNearest scans every stored parcel and returns the one closest to
// (lat, lng) by Euclidean distance in degree space, plus that distance.
// Unlike FindCached this applies no freshness filter, and its distance notion
// is a plain degree norm, not a tolerance box. Returns ErrNotFound when the
// store is empty.
func (s *Store) FindNearest(ctx context.Context, lat, lng float64) (*domain.ParcelSnapshot, float64, error) {
	parcels, err := s.FindAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	if len(parcels) == 0 {
		return nil, 0, ErrNotFound
	}

	nearest := 0
	minDist := math.Inf(1)
	for i, p := range parcels {
		dist := math.Sqrt(math.Pow(p.Latitude-lat, 2) + math.Pow(p.Longitude-lng, 2))
		if dist < minDist {
			minDist = dist
			nearest = i
		}
	}
	return &parcels[nearest], minDist, nil
}

// CloneForUser creates a user-owned copy of an existing parcel with fresh
// timestamps. The source row is left untouched; the copy diverges
// independently from then on.
func (s *Store) CloneForUser(ctx context.Context, parcelID, userID string) (*domain.ParcelSnapshot, error) {
	src, err := s.FindByID(ctx, parcelID)
	if err != nil {
		return nil, err
	}

	clone := *src
	clone.ID = uuid.NewString()
	clone.UserID = userID
	now := s.clock.Now().UTC()
	clone.CacheTimestamp = now
	clone.LastUpdated = now
	clone.CreatedAt = now

	if err := s.Create(ctx, &clone); err != nil {
		return nil, err
	}
	return &clone, nil
}

// Update rewrites a parcel's mutable fields and bumps last_updated.
func (s *Store) Update(ctx context.Context, p *domain.ParcelSnapshot) error {
	p.LastUpdated = s.clock.Now().UTC()

	res, err := s.db.ExecContext(ctx, `UPDATE parcels SET
		location_name = ?, land_area = ?, zoning_category = ?,
		soil_index = ?, flood_index = ?, environmental_index = ?, zoning_index = ?, topography_index = ?,
		data_completeness = ?, model_consistency = ?, data_recency = ?,
		data_source_label = ?, is_offline_mode = ?, api_cache_timestamp = ?, last_updated = ?
		WHERE id = ?`,
		p.LocationName, p.LandArea, p.ZoningCategory,
		p.Indices.Soil, p.Indices.Flood, p.Indices.Environmental, p.Indices.Zoning, p.Indices.Topography,
		p.Quality.Completeness, p.Quality.Consistency, p.Quality.Recency,
		p.DataSourceLabel, boolToInt(p.OfflineMode), formatTime(p.CacheTimestamp), formatTime(p.LastUpdated),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update parcel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a parcel row.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM parcels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete parcel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeExpired removes shared cache rows older than maxAge. User-owned rows
// are never purged.
func (s *Store) PurgeExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := s.clock.Now().UTC().Add(-maxAge)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM parcels WHERE user_id IS NULL AND api_cache_timestamp < ?`,
		formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("purge expired parcels: %w", err)
	}
	return res.RowsAffected()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanParcel(sc scanner) (*domain.ParcelSnapshot, error) {
	var (
		p           domain.ParcelSnapshot
		offline     int
		cacheTS     string
		lastUpdated string
		createdAt   string
		userID      sql.NullString
	)

	err := sc.Scan(
		&p.ID, &p.LocationName, &p.Latitude, &p.Longitude, &p.LandArea, &p.ZoningCategory,
		&p.Indices.Soil, &p.Indices.Flood, &p.Indices.Environmental, &p.Indices.Zoning, &p.Indices.Topography,
		&p.Quality.Completeness, &p.Quality.Consistency, &p.Quality.Recency,
		&p.DataSourceLabel, &offline, &cacheTS, &lastUpdated, &userID, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	p.OfflineMode = offline != 0
	p.UserID = userID.String
	if p.CacheTimestamp, err = parseTime(cacheTS); err != nil {
		return nil, err
	}
	if p.LastUpdated, err = parseTime(lastUpdated); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
