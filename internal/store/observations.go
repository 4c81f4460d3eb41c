// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/shadowscore/internal/metrics"
	"github.com/tomtom215/shadowscore/internal/threat"
)

// Radio types accepted for observations.
const (
	RadioWiFi      = "wifi"
	RadioBluetooth = "bluetooth"
	RadioBLE       = "ble"
	RadioCellular  = "cellular"
)

// MaxObservationBatch caps a single ingest call.
const MaxObservationBatch = 10000

// Observation is a single sighting of a wireless device.
type Observation struct {
	BSSID      string    `json:"bssid" validate:"required,max=64"`
	RadioType  string    `json:"radio_type,omitempty" validate:"omitempty,oneof=wifi bluetooth ble cellular"`
	SSID       string    `json:"ssid,omitempty" validate:"max=64"`
	SignalDBm  *float64  `json:"signal_dbm,omitempty" validate:"omitempty,gte=-150,lte=50"`
	Latitude   *float64  `json:"latitude,omitempty" validate:"required_with=Longitude,omitempty,latitude"`
	Longitude  *float64  `json:"longitude,omitempty" validate:"required_with=Latitude,omitempty,longitude"`
	ObservedAt time.Time `json:"observed_at" validate:"required"`
}

// NormalizeBSSID canonicalizes a device identifier for storage and lookup.
func NormalizeBSSID(bssid string) string {
	return strings.ToLower(strings.TrimSpace(bssid))
}

// InsertObservations stores a batch of observations in one transaction.
func (s *DuckDBStore) InsertObservations(ctx context.Context, obs []Observation) (n int, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "observations", time.Since(start), err) }()

	if len(obs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (bssid, radio_type, ssid, signal_dbm, latitude, longitude, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range obs {
		o := &obs[i]
		radio := o.RadioType
		if radio == "" {
			radio = RadioWiFi
		}
		if _, err = stmt.ExecContext(ctx,
			NormalizeBSSID(o.BSSID), radio, nullString(o.SSID),
			o.SignalDBm, o.Latitude, o.Longitude, o.ObservedAt.UTC(),
		); err != nil {
			return 0, fmt.Errorf("failed to insert observation %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit observations: %w", err)
	}
	metrics.ObservationsIngested.Add(float64(len(obs)))
	return len(obs), nil
}

// CandidateDevices returns up to limit distinct device identifiers in ascending order.
func (s *DuckDBStore) CandidateDevices(ctx context.Context, limit int) ([]string, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT bssid FROM observations ORDER BY bssid ASC LIMIT ?`, limit)
	if err != nil {
		metrics.RecordDBQuery("select", "observations", time.Since(start), err)
		return nil, fmt.Errorf("failed to query candidate devices: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, min(limit, 1024))
	for rows.Next() {
		var bssid string
		if err := rows.Scan(&bssid); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		out = append(out, bssid)
	}
	err = rows.Err()
	metrics.RecordDBQuery("select", "observations", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}
	return out, nil
}

// DeviceStats aggregates the observations of one device. It returns nil, nil when the
// device has no observations.
func (s *DuckDBStore) DeviceStats(ctx context.Context, bssid string) (*threat.DeviceStats, error) {
	start := time.Now()
	cte, args := s.statsCTE("bssid = ?", NormalizeBSSID(bssid))

	query := cte + `
		SELECT bssid, observation_count, unique_days, unique_locations, max_signal,
			min_lat, max_lat, min_lon, max_lon, min_home_km, max_home_km
		FROM stats
	`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordDBQuery("aggregate", "observations", time.Since(start), err)
		return nil, fmt.Errorf("failed to aggregate device stats: %w", err)
	}
	defer rows.Close()

	var stats *threat.DeviceStats
	if rows.Next() {
		var agg statsRow
		if err := rows.Scan(
			&agg.bssid, &agg.observations, &agg.days, &agg.locations, &agg.maxSignal,
			&agg.minLat, &agg.maxLat, &agg.minLon, &agg.maxLon, &agg.minHome, &agg.maxHome,
		); err != nil {
			return nil, fmt.Errorf("failed to scan device stats: %w", err)
		}
		stats = agg.toStats()
	}
	err = rows.Err()
	metrics.RecordDBQuery("aggregate", "observations", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate device stats: %w", err)
	}
	return stats, nil
}

// statsCTE builds a "stats" common table expression aggregating observations that match
// filter. Locations are distinct coordinates rounded to three decimals (about 110 m).
func (s *DuckDBStore) statsCTE(filter string, filterArgs ...any) (string, []any) {
	homeExpr := "CAST(NULL AS DOUBLE)"
	var args []any
	if s.home != nil {
		homeExpr = "CASE WHEN latitude IS NULL OR longitude IS NULL THEN NULL ELSE " + haversineSQL + " END"
		args = append(args, s.home.Latitude, s.home.Latitude, s.home.Longitude)
	}
	args = append(args, filterArgs...)

	cte := `
		WITH located AS (
			SELECT bssid, signal_dbm, latitude, longitude, observed_at,
				` + homeExpr + ` AS home_km
			FROM observations
			WHERE ` + filter + `
		), stats AS (
			SELECT
				bssid,
				COUNT(*) AS observation_count,
				COUNT(DISTINCT CAST(observed_at AS DATE)) AS unique_days,
				COUNT(DISTINCT CASE
					WHEN latitude IS NOT NULL AND longitude IS NOT NULL
					THEN CAST(ROUND(latitude, 3) AS VARCHAR) || ',' || CAST(ROUND(longitude, 3) AS VARCHAR)
				END) AS unique_locations,
				MAX(signal_dbm) AS max_signal,
				MIN(latitude) AS min_lat,
				MAX(latitude) AS max_lat,
				MIN(longitude) AS min_lon,
				MAX(longitude) AS max_lon,
				MIN(home_km) AS min_home_km,
				MAX(home_km) AS max_home_km
			FROM located
			GROUP BY bssid
		)`
	return cte, args
}

type statsRow struct {
	bssid        string
	observations int64
	days         int64
	locations    int64
	maxSignal    sql.NullFloat64
	minLat       sql.NullFloat64
	maxLat       sql.NullFloat64
	minLon       sql.NullFloat64
	maxLon       sql.NullFloat64
	minHome      sql.NullFloat64
	maxHome      sql.NullFloat64
}

func (r *statsRow) toStats() *threat.DeviceStats {
	st := &threat.DeviceStats{
		BSSID:                 r.bssid,
		ObservationCount:      r.observations,
		UniqueDays:            r.days,
		UniqueLocations:       r.locations,
		MaxSignal:             nullFloat(r.maxSignal),
		DistanceFromHomeKm:    nullFloat(r.minHome),
		MaxDistanceFromHomeKm: nullFloat(r.maxHome),
	}
	// Bounding-box diagonal; see threat.DeviceStats.MaxDistanceKm.
	if r.minLat.Valid && r.maxLat.Valid && r.minLon.Valid && r.maxLon.Valid {
		d := HaversineKm(
			GeoPoint{Latitude: r.minLat.Float64, Longitude: r.minLon.Float64},
			GeoPoint{Latitude: r.maxLat.Float64, Longitude: r.maxLon.Float64},
		)
		st.MaxDistanceKm = &d
	}
	return st
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
