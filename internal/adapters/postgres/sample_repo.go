package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
)

// SampleRepo implements ports.SampleRepository.
type SampleRepo struct {
	db *DB
}

func NewSampleRepo(db *DB) *SampleRepo {
	return &SampleRepo{db: db}
}

const insertSampleSQL = `
	INSERT INTO travel_samples (
		id, route, route_name,
		src_lat, src_lon, dst_lat, dst_lon,
		total_seconds, total_length_meters, is_toll, toll_price, alert_count, sampled_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (id) DO NOTHING`

func sampleArgs(s *domain.TravelSample) []any {
	return []any{
		s.ID, s.Route, s.RouteName,
		s.Src.Latitude, s.Src.Longitude, s.Dst.Latitude, s.Dst.Longitude,
		s.TotalSeconds, s.TotalLengthMeters, s.IsToll, s.TollPrice, s.AlertCount, s.SampledAt,
	}
}

// Insert stores s. Re-inserting an existing ID is a no-op so redelivered
// messages are harmless.
func (r *SampleRepo) Insert(ctx context.Context, s *domain.TravelSample) error {
	_, err := r.db.Pool.Exec(ctx, insertSampleSQL, sampleArgs(s)...)
	return err
}

func (r *SampleRepo) InsertBatch(ctx context.Context, samples []domain.TravelSample) error {
	if len(samples) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range samples {
		batch.Queue(insertSampleSQL, sampleArgs(&samples[i])...)
	}
	return r.db.Pool.SendBatch(ctx, batch).Close()
}

const selectSampleCols = `
	id, route, route_name,
	src_lat, src_lon, dst_lat, dst_lon,
	total_seconds, total_length_meters, is_toll, toll_price, alert_count, sampled_at`

func (r *SampleRepo) ListByRoute(ctx context.Context, route string, since time.Time, limit, offset int) ([]domain.TravelSample, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+selectSampleCols+`
		FROM travel_samples
		WHERE route = $1 AND sampled_at >= $2
		ORDER BY sampled_at DESC
		LIMIT $3 OFFSET $4
	`, route, since, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanSamples(rows)
}

func (r *SampleRepo) CountByRoute(ctx context.Context, route string, since time.Time) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM travel_samples WHERE route = $1 AND sampled_at >= $2`,
		route, since,
	).Scan(&n)
	return n, err
}

// Latest returns the newest sample of every route.
func (r *SampleRepo) Latest(ctx context.Context) ([]domain.TravelSample, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT DISTINCT ON (route) `+selectSampleCols+`
		FROM travel_samples
		ORDER BY route, sampled_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return scanSamples(rows)
}

func scanSamples(rows pgx.Rows) ([]domain.TravelSample, error) {
	defer rows.Close()

	samples := []domain.TravelSample{}
	for rows.Next() {
		var s domain.TravelSample
		if err := rows.Scan(
			&s.ID, &s.Route, &s.RouteName,
			&s.Src.Latitude, &s.Src.Longitude, &s.Dst.Latitude, &s.Dst.Longitude,
			&s.TotalSeconds, &s.TotalLengthMeters, &s.IsToll, &s.TollPrice, &s.AlertCount, &s.SampledAt,
		); err != nil {
			return nil, err
		}
		s.SampledAt = s.SampledAt.UTC()
		samples = append(samples, s)
	}
	return samples, rows.Err()
}
