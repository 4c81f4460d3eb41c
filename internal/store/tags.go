// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/shadowscore/internal/metrics"
	"github.com/tomtom215/shadowscore/internal/threat"
)

// DeviceTag is a human label attached to a device.
type DeviceTag struct {
	BSSID    string     `json:"bssid"`
	Tag      threat.Tag `json:"tag"`
	Notes    string     `json:"notes,omitempty"`
	TaggedAt time.Time  `json:"tagged_at"`
}

// TagCounts summarizes the labels usable for training.
type TagCounts struct {
	Threat        int64 `json:"threat"`
	FalsePositive int64 `json:"false_positive"`
	Investigate   int64 `json:"investigate"`
	Total         int64 `json:"total"`
}

// SetTag creates or replaces the tag of a device.
func (s *DuckDBStore) SetTag(ctx context.Context, tag *DeviceTag) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert", "device_tags", time.Since(start), err) }()

	if !tag.Tag.Valid() {
		return fmt.Errorf("invalid tag %q", tag.Tag)
	}
	taggedAt := tag.TaggedAt
	if taggedAt.IsZero() {
		taggedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO device_tags (bssid, tag, notes, tagged_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (bssid) DO UPDATE SET
			tag = EXCLUDED.tag,
			notes = EXCLUDED.notes,
			tagged_at = EXCLUDED.tagged_at
	`, NormalizeBSSID(tag.BSSID), string(tag.Tag), nullString(tag.Notes), taggedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to set tag for %s: %w", tag.BSSID, err)
	}
	return nil
}

// GetTag returns the tag of a device, or nil if it is untagged.
func (s *DuckDBStore) GetTag(ctx context.Context, bssid string) (*DeviceTag, error) {
	var (
		t     DeviceTag
		tag   string
		notes sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT bssid, tag, notes, tagged_at FROM device_tags WHERE bssid = ?`,
		NormalizeBSSID(bssid),
	).Scan(&t.BSSID, &tag, &notes, &t.TaggedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag for %s: %w", bssid, err)
	}
	t.Tag = threat.Tag(tag)
	t.Notes = notes.String
	t.TaggedAt = t.TaggedAt.UTC()
	return &t, nil
}

// DeleteTag removes the tag of a device. It reports whether a tag existed.
func (s *DuckDBStore) DeleteTag(ctx context.Context, bssid string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM device_tags WHERE bssid = ?`, NormalizeBSSID(bssid))
	if err != nil {
		return false, fmt.Errorf("failed to delete tag for %s: %w", bssid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// TagCounts counts tagged devices per label.
func (s *DuckDBStore) TagCounts(ctx context.Context) (TagCounts, error) {
	var c TagCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE tag = ?),
			COUNT(*) FILTER (WHERE tag = ?),
			COUNT(*) FILTER (WHERE tag = ?)
		FROM device_tags
	`, string(threat.TagThreat), string(threat.TagFalsePositive), string(threat.TagInvestigate),
	).Scan(&c.Threat, &c.FalsePositive, &c.Investigate)
	if err != nil {
		return TagCounts{}, fmt.Errorf("failed to count tags: %w", err)
	}
	c.Total = c.Threat + c.FalsePositive
	return c, nil
}

// LabeledStats returns the aggregate stats of every device tagged THREAT or
// FALSE_POSITIVE, ordered by identifier. Tagged devices without observations are
// included with zero counts.
func (s *DuckDBStore) LabeledStats(ctx context.Context) ([]threat.TaggedStats, error) {
	start := time.Now()
	threatTag, safeTag := string(threat.TagThreat), string(threat.TagFalsePositive)

	cte, args := s.statsCTE("bssid IN (SELECT bssid FROM device_tags WHERE tag IN (?, ?))", threatTag, safeTag)
	query := cte + `
		SELECT t.bssid, t.tag,
			COALESCE(s.observation_count, 0), COALESCE(s.unique_days, 0), COALESCE(s.unique_locations, 0),
			s.max_signal, s.min_lat, s.max_lat, s.min_lon, s.max_lon, s.min_home_km, s.max_home_km
		FROM device_tags t
		LEFT JOIN stats s ON s.bssid = t.bssid
		WHERE t.tag IN (?, ?)
		ORDER BY t.bssid ASC
	`
	args = append(args, threatTag, safeTag)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordDBQuery("aggregate", "device_tags", time.Since(start), err)
		return nil, fmt.Errorf("failed to query labeled stats: %w", err)
	}
	defer rows.Close()

	var out []threat.TaggedStats
	for rows.Next() {
		var (
			agg statsRow
			tag string
		)
		if err := rows.Scan(
			&agg.bssid, &tag, &agg.observations, &agg.days, &agg.locations, &agg.maxSignal,
			&agg.minLat, &agg.maxLat, &agg.minLon, &agg.maxLon, &agg.minHome, &agg.maxHome,
		); err != nil {
			return nil, fmt.Errorf("failed to scan labeled stats: %w", err)
		}
		out = append(out, threat.TaggedStats{Stats: *agg.toStats(), Tag: threat.Tag(tag)})
	}
	err = rows.Err()
	metrics.RecordDBQuery("aggregate", "device_tags", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate labeled stats: %w", err)
	}
	return out, nil
}
