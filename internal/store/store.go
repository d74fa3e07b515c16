// Package store is the read/write adapter for the structured datastore: a
// relational store with trigram name search and a vector-similarity
// extension. The router only reads; ingestion writes.
package store

import (
	"context"
	"errors"

	"github.com/plansmith/takeoff/internal/model"
)

// ErrNoData marks an empty read result. Routing steps treat it as "no result
// for this step", never as a fatal error.
var ErrNoData = errors.New("no data found")

// Store is the collaborator handle injected into the router and the
// ingestion pipeline. Implementations must be safe for concurrent use.
type Store interface {
	// SearchComponents runs a fuzzy trigram search over component names,
	// scoped to a project.
	SearchComponents(ctx context.Context, projectID, name string) ([]model.ExtractedComponent, error)

	// AllComponents returns every stored component for a project, optionally
	// narrowed to one system. Used for complete-data retrieval; never sampled.
	AllComponents(ctx context.Context, projectID, systemName string) ([]model.ExtractedComponent, error)

	// UpsertComponent inserts a component or, on identity-key collision,
	// keeps whichever record has the higher confidence.
	UpsertComponent(ctx context.Context, projectID string, c model.ExtractedComponent) error

	// TerminationPoints returns stored BEGIN/END markers for a utility.
	TerminationPoints(ctx context.Context, projectID, utilityName string) ([]model.TerminationPoint, error)

	SaveTerminationPoint(ctx context.Context, projectID string, p model.TerminationPoint) error

	// Crossings returns stored utility crossings, optionally by utility.
	Crossings(ctx context.Context, projectID, utilityName string) ([]model.UtilityCrossing, error)

	SaveCrossing(ctx context.Context, projectID string, c model.UtilityCrossing) error

	// ProjectSummary reads the pre-aggregated per-project summary view.
	ProjectSummary(ctx context.Context, projectID string) (*model.ProjectSummary, error)

	// NearestChunks runs vector nearest-neighbor search over embedded
	// document chunks, optionally narrowed by sheet number or sheet types.
	NearestChunks(ctx context.Context, projectID string, embedding []float32, limit int, sheetNumber string, sheetTypes []string) ([]model.Chunk, error)

	// ChunksBySystem returns all chunks mentioning a system name.
	ChunksBySystem(ctx context.Context, projectID, systemName string) ([]model.Chunk, error)

	// SystemMentionCounts counts system-name mentions across a project's
	// chunks, used for dominant-system auto-detection.
	SystemMentionCounts(ctx context.Context, projectID string) (map[string]int, error)

	// SaveSheetImage persists a rasterized sheet so visual analysis can
	// revisit it later. Re-ingesting a sheet replaces the stored image.
	SaveSheetImage(ctx context.Context, img model.SheetImage) error

	// Sheets returns stored sheet images, optionally narrowed to sheet
	// types, bounded by limit.
	Sheets(ctx context.Context, projectID string, sheetTypes []string, limit int) ([]model.SheetImage, error)

	Close()
}
