package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/plansmith/takeoff/internal/model"
	"github.com/plansmith/takeoff/internal/reconcile"
	"github.com/plansmith/takeoff/internal/station"
)

// PostgresStore implements Store against Postgres with the pg_trgm and
// pgvector extensions.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func NewPostgresStore(ctx context.Context, url string, log *zap.Logger) (*PostgresStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostgresStore{pool: pool, log: log}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// BuildSchema creates extensions, tables, and indices if missing. Individual
// statement failures are logged and skipped: an extension may already exist
// or require privileges the app role lacks.
func (s *PostgresStore) BuildSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS components (
			id BIGSERIAL PRIMARY KEY,
			project_id TEXT NOT NULL,
			name TEXT NOT NULL,
			name_norm TEXT NOT NULL,
			size TEXT NOT NULL DEFAULT '',
			size_norm TEXT NOT NULL DEFAULT '',
			quantity INT NOT NULL DEFAULT 1,
			station TEXT NOT NULL DEFAULT '',
			station_norm TEXT NOT NULL DEFAULT '',
			sheet_number TEXT NOT NULL DEFAULT '',
			source_context TEXT NOT NULL DEFAULT 'unknown',
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
		// The identity key is enforced here; the in-process
		// check-then-insert is best-effort only.
		`CREATE UNIQUE INDEX IF NOT EXISTS components_identity
			ON components (project_id, name_norm, size_norm, station_norm)`,
		`CREATE INDEX IF NOT EXISTS components_name_trgm
			ON components USING gin (name gin_trgm_ops)`,
		`CREATE TABLE IF NOT EXISTS termination_points (
			id BIGSERIAL PRIMARY KEY,
			project_id TEXT NOT NULL,
			utility_name TEXT NOT NULL,
			type TEXT NOT NULL,
			station TEXT NOT NULL,
			station_numeric DOUBLE PRECISION NOT NULL,
			sheet_number TEXT NOT NULL DEFAULT '',
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS crossings (
			id BIGSERIAL PRIMARY KEY,
			project_id TEXT NOT NULL,
			crossing_utility_code TEXT NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			station TEXT NOT NULL DEFAULT '',
			elevation TEXT NOT NULL DEFAULT '',
			is_existing BOOLEAN NOT NULL DEFAULT FALSE,
			is_proposed BOOLEAN NOT NULL DEFAULT FALSE,
			size TEXT NOT NULL DEFAULT '',
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			sheet_number TEXT NOT NULL DEFAULT '',
			sheet_type TEXT NOT NULL DEFAULT '',
			system_name TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			stations TEXT[] NOT NULL DEFAULT '{}',
			embedding vector(1536),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS chunks_project ON chunks (project_id)`,
		`CREATE TABLE IF NOT EXISTS sheet_images (
			project_id TEXT NOT NULL,
			sheet_number TEXT NOT NULL,
			sheet_type TEXT NOT NULL DEFAULT '',
			mime_type TEXT NOT NULL,
			data BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (project_id, sheet_number)
		)`,
		`CREATE OR REPLACE VIEW project_summaries AS
			SELECT project_id,
				COUNT(DISTINCT sheet_number) AS sheet_count,
				COUNT(*) AS chunk_count
			FROM chunks GROUP BY project_id`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			s.log.Warn("schema statement failed", zap.Error(err))
		}
	}
	return nil
}

func (s *PostgresStore) SearchComponents(ctx context.Context, projectID, name string) ([]model.ExtractedComponent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, size, quantity, station, sheet_number, source_context, confidence
		FROM components
		WHERE project_id = $1 AND (name ILIKE '%' || $2 || '%' OR similarity(name, $2) > 0.3)
		ORDER BY similarity(name, $2) DESC
		LIMIT 200`, projectID, name)
	if err != nil {
		return nil, fmt.Errorf("component search failed: %w", err)
	}
	return scanComponents(rows)
}

func (s *PostgresStore) AllComponents(ctx context.Context, projectID, systemName string) ([]model.ExtractedComponent, error) {
	query := `
		SELECT name, size, quantity, station, sheet_number, source_context, confidence
		FROM components WHERE project_id = $1`
	args := []interface{}{projectID}
	if systemName != "" {
		query += ` AND name ILIKE '%' || $2 || '%'`
		args = append(args, systemName)
	}
	query += ` ORDER BY station_norm, name_norm`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("component fetch failed: %w", err)
	}
	return scanComponents(rows)
}

func (s *PostgresStore) UpsertComponent(ctx context.Context, projectID string, c model.ExtractedComponent) error {
	nameNorm := strings.Join(strings.Fields(strings.ToLower(c.Name)), " ")
	_, err := s.pool.Exec(ctx, `
		INSERT INTO components
			(project_id, name, name_norm, size, size_norm, quantity, station, station_norm, sheet_number, source_context, confidence)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (project_id, name_norm, size_norm, station_norm)
		DO UPDATE SET
			quantity = EXCLUDED.quantity,
			sheet_number = EXCLUDED.sheet_number,
			source_context = EXCLUDED.source_context,
			confidence = EXCLUDED.confidence
		WHERE EXCLUDED.confidence > components.confidence`,
		projectID, c.Name, nameNorm, c.Size, reconcile.NormalizeSize(c.Size),
		c.Quantity, c.Station, station.Normalize(c.Station), c.SheetNumber,
		string(c.SourceContext), c.Confidence)
	if err != nil {
		return fmt.Errorf("component upsert failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) TerminationPoints(ctx context.Context, projectID, utilityName string) ([]model.TerminationPoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT utility_name, type, station, station_numeric, sheet_number, confidence
		FROM termination_points
		WHERE project_id = $1 AND ($2 = '' OR utility_name ILIKE $2)
		ORDER BY station_numeric`, projectID, utilityName)
	if err != nil {
		return nil, fmt.Errorf("termination fetch failed: %w", err)
	}
	defer rows.Close()

	var out []model.TerminationPoint
	for rows.Next() {
		var p model.TerminationPoint
		var typ string
		if err := rows.Scan(&p.UtilityName, &typ, &p.Station, &p.StationNumeric, &p.SheetNumber, &p.Confidence); err != nil {
			return nil, err
		}
		p.Type = model.TerminationType(typ)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveTerminationPoint(ctx context.Context, projectID string, p model.TerminationPoint) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO termination_points
			(project_id, utility_name, type, station, station_numeric, sheet_number, confidence)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		projectID, p.UtilityName, string(p.Type), p.Station, p.StationNumeric, p.SheetNumber, p.Confidence)
	if err != nil {
		return fmt.Errorf("termination insert failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) Crossings(ctx context.Context, projectID, utilityName string) ([]model.UtilityCrossing, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT crossing_utility_code, full_name, station, elevation, is_existing, is_proposed, size, confidence
		FROM crossings
		WHERE project_id = $1 AND ($2 = '' OR full_name ILIKE '%' || $2 || '%')
		ORDER BY station`, projectID, utilityName)
	if err != nil {
		return nil, fmt.Errorf("crossing fetch failed: %w", err)
	}
	defer rows.Close()

	var out []model.UtilityCrossing
	for rows.Next() {
		var c model.UtilityCrossing
		if err := rows.Scan(&c.CrossingUtilityCode, &c.FullName, &c.Station, &c.Elevation,
			&c.IsExisting, &c.IsProposed, &c.Size, &c.Confidence); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveCrossing(ctx context.Context, projectID string, c model.UtilityCrossing) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO crossings
			(project_id, crossing_utility_code, full_name, station, elevation, is_existing, is_proposed, size, confidence)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		projectID, c.CrossingUtilityCode, c.FullName, c.Station, c.Elevation,
		c.IsExisting, c.IsProposed, c.Size, c.Confidence)
	if err != nil {
		return fmt.Errorf("crossing insert failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) ProjectSummary(ctx context.Context, projectID string) (*model.ProjectSummary, error) {
	summary := &model.ProjectSummary{ProjectID: projectID}

	err := s.pool.QueryRow(ctx,
		`SELECT sheet_count FROM project_summaries WHERE project_id = $1`, projectID).
		Scan(&summary.SheetCount)
	if err == pgx.ErrNoRows {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("summary fetch failed: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM components WHERE project_id = $1`, projectID).
		Scan(&summary.ComponentCount)
	if err != nil {
		return nil, fmt.Errorf("summary fetch failed: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT system_name FROM chunks
		WHERE project_id = $1 AND system_name <> '' ORDER BY system_name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("summary fetch failed: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		summary.SystemNames = append(summary.SystemNames, name)
	}
	return summary, rows.Err()
}

func (s *PostgresStore) NearestChunks(ctx context.Context, projectID string, embedding []float32, limit int, sheetNumber string, sheetTypes []string) ([]model.Chunk, error) {
	query := `
		SELECT id, sheet_number, sheet_type, content, stations,
			1 - (embedding <=> $2) AS similarity
		FROM chunks
		WHERE project_id = $1 AND embedding IS NOT NULL`
	args := []interface{}{projectID, vectorLiteral(embedding)}
	if sheetNumber != "" {
		args = append(args, sheetNumber)
		query += fmt.Sprintf(` AND sheet_number = $%d`, len(args))
	}
	if len(sheetTypes) > 0 {
		args = append(args, sheetTypes)
		query += fmt.Sprintf(` AND sheet_type = ANY($%d)`, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY embedding <=> $2 LIMIT $%d`, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	var out []model.Chunk
	for rows.Next() {
		c := model.Chunk{ProjectID: projectID}
		if err := rows.Scan(&c.ID, &c.SheetNumber, &c.SheetType, &c.Content, &c.Stations, &c.Similarity); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ChunksBySystem(ctx context.Context, projectID, systemName string) ([]model.Chunk, error) {
	query := `
		SELECT id, sheet_number, sheet_type, content, stations, 0::float8
		FROM chunks WHERE project_id = $1`
	args := []interface{}{projectID}
	if systemName != "" {
		args = append(args, systemName)
		query += ` AND (system_name ILIKE $2 OR content ILIKE '%' || $2 || '%')`
	}
	query += ` ORDER BY sheet_number`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("chunk fetch failed: %w", err)
	}
	defer rows.Close()

	var out []model.Chunk
	for rows.Next() {
		c := model.Chunk{ProjectID: projectID}
		if err := rows.Scan(&c.ID, &c.SheetNumber, &c.SheetType, &c.Content, &c.Stations, &c.Similarity); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SystemMentionCounts(ctx context.Context, projectID string) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT system_name, COUNT(*)
		FROM chunks
		WHERE project_id = $1 AND system_name <> ''
		GROUP BY system_name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("mention count failed: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

func (s *PostgresStore) SaveSheetImage(ctx context.Context, img model.SheetImage) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sheet_images (project_id, sheet_number, sheet_type, mime_type, data)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (project_id, sheet_number)
		DO UPDATE SET sheet_type = EXCLUDED.sheet_type,
			mime_type = EXCLUDED.mime_type,
			data = EXCLUDED.data`,
		img.ProjectID, img.SheetNumber, img.SheetType, img.MimeType, img.Data)
	if err != nil {
		return fmt.Errorf("sheet image upsert failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) Sheets(ctx context.Context, projectID string, sheetTypes []string, limit int) ([]model.SheetImage, error) {
	query := `
		SELECT sheet_number, sheet_type, mime_type, data
		FROM sheet_images WHERE project_id = $1`
	args := []interface{}{projectID}
	if len(sheetTypes) > 0 {
		args = append(args, sheetTypes)
		query += fmt.Sprintf(` AND sheet_type = ANY($%d)`, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY sheet_number LIMIT $%d`, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sheet image fetch failed: %w", err)
	}
	defer rows.Close()

	var out []model.SheetImage
	for rows.Next() {
		img := model.SheetImage{ProjectID: projectID}
		if err := rows.Scan(&img.SheetNumber, &img.SheetType, &img.MimeType, &img.Data); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

func scanComponents(rows pgx.Rows) ([]model.ExtractedComponent, error) {
	defer rows.Close()
	var out []model.ExtractedComponent
	for rows.Next() {
		var c model.ExtractedComponent
		var source string
		if err := rows.Scan(&c.Name, &c.Size, &c.Quantity, &c.Station, &c.SheetNumber, &source, &c.Confidence); err != nil {
			return nil, err
		}
		c.SourceContext = model.SourceContext(source)
		out = append(out, c)
	}
	return out, rows.Err()
}

// vectorLiteral renders a pgvector input literal ("[0.1,0.2]").
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
