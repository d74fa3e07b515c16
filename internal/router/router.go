// Package router is the retrieval decision engine: given a classified
// question it decides which data sources to consult, in what order, how to
// merge their answers, and what confidence and provenance to report.
package router

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/plansmith/takeoff/internal/classify"
	"github.com/plansmith/takeoff/internal/config"
	"github.com/plansmith/takeoff/internal/llm"
	"github.com/plansmith/takeoff/internal/model"
	"github.com/plansmith/takeoff/internal/reconcile"
	"github.com/plansmith/takeoff/internal/store"
	"github.com/plansmith/takeoff/internal/vision"
)

// dominantShare is the mention share above which a system name is assumed
// when the query names none.
const dominantShare = 0.8

// notFoundContext is the terminal answer when every step comes up empty.
const notFoundContext = "No matching data was found in the project's drawings."

// SheetProvider hands the router rasterized sheets for on-demand visual
// analysis. Rasterization itself is an external concern.
type SheetProvider interface {
	Sheets(ctx context.Context, projectID string, sheetTypes []string, limit int) ([]model.SheetImage, error)
}

// Options are per-query knobs from the public entry point.
type Options struct {
	MaxResults    int
	MinConfidence float64
}

// Router orchestrates the collaborators. All handles are injected at
// construction so tests can substitute fakes.
type Router struct {
	Store    store.Store
	Embedder llm.EmbedderClient
	Analyzer *vision.Analyzer
	Sheets   SheetProvider
	Engine   *reconcile.Engine

	cfg config.RouterConfig
	log *zap.Logger
}

func New(st store.Store, embedder llm.EmbedderClient, analyzer *vision.Analyzer, sheets SheetProvider, cfg config.RouterConfig, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	if cfg.MaxVisualSheets <= 0 {
		cfg.MaxVisualSheets = 6
	}
	return &Router{
		Store:    st,
		Embedder: embedder,
		Analyzer: analyzer,
		Sheets:   sheets,
		Engine:   reconcile.NewEngine(log),
		cfg:      cfg,
		log:      log,
	}
}

// Route answers one question. Steps in the priority chain run sequentially
// and short-circuit on first success; a collaborator failure at any step is
// logged and treated as "no result for this step", never aborting the chain.
func (r *Router) Route(ctx context.Context, query, projectID string, opts Options) (result model.RoutingResult) {
	start := time.Now()
	if opts.MaxResults <= 0 {
		opts.MaxResults = r.cfg.MaxResults
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = r.cfg.MinConfidence
	}

	c := classify.Classify(query)
	result = model.RoutingResult{Classification: c}

	// Even a malformed downstream state must yield a degraded result, not
	// a panic escaping to the caller.
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("routing panicked", zap.Any("panic", rec), zap.String("query", query))
			result.Method = model.MethodNotFound
			result.Context = notFoundContext
			result.Confidence = 0
			result.Cautions = append(result.Cautions, "internal error while routing; answer unavailable")
		}
		result.TimingMs = time.Since(start).Milliseconds()
	}()

	// Step 1: pre-aggregated project summary.
	if c.Type == model.QueryProjectSummary {
		if done := r.trySummary(ctx, projectID, &result); done {
			return result
		}
	}

	// Step 2: direct structured lookup for quantitative queries, plus the
	// crossing table for crossing queries. Highest-priority data source.
	var partial *model.ReconcileResult
	if c.NeedsDirectLookup {
		if done := r.tryDirect(ctx, query, projectID, c, &result, &partial); done {
			return result
		}
	}

	// Step 3: complete-data retrieval across a named (or dominant) system.
	if c.NeedsCompleteData {
		if done := r.tryCompleteData(ctx, projectID, c, &result); done {
			return result
		}
	}

	// Step 4: vector similarity search, merged with any partial direct data.
	if c.NeedsVectorSearch || !c.NeedsVisualAnalysis {
		if done := r.tryVector(ctx, query, projectID, c, opts, partial, &result); done {
			return result
		}
	}

	// Step 5: on-demand visual analysis. Most expensive path; reached only
	// when mandated by the query type or when everything else failed.
	if c.NeedsVisualAnalysis {
		if done := r.tryVisual(ctx, projectID, c, &result); done {
			return result
		}
	}

	result.Method = model.MethodNotFound
	result.Context = notFoundContext
	result.Confidence = 0
	return result
}

func (r *Router) trySummary(ctx context.Context, projectID string, result *model.RoutingResult) bool {
	summary, err := r.Store.ProjectSummary(ctx, projectID)
	if err != nil {
		r.stepFailed(result, "project_summary", err)
		return false
	}
	if summary == nil {
		r.stepEmpty(result, "project_summary")
		return false
	}
	result.Sources = append(result.Sources, model.ProvenanceRef{Step: "project_summary", Attempted: true, HasData: true})
	result.Method = model.MethodDirectOnly
	result.Context = buildSummaryContext(summary)
	result.Confidence = result.Classification.Confidence
	return true
}

func (r *Router) tryDirect(ctx context.Context, query, projectID string, c model.QueryClassification, result *model.RoutingResult, partial **model.ReconcileResult) bool {
	if c.Type == model.QueryCrossing {
		crossings, err := r.Store.Crossings(ctx, projectID, c.SystemName)
		if err != nil {
			r.stepFailed(result, "direct_lookup", err)
			return false
		}
		if len(crossings) == 0 {
			r.stepEmpty(result, "direct_lookup")
			return false
		}
		result.Sources = append(result.Sources, model.ProvenanceRef{Step: "direct_lookup", Attempted: true, HasData: true})
		result.Method = model.MethodDirectOnly
		result.Context = buildCrossingContext(crossings)
		result.Confidence = c.Confidence
		return true
	}

	if c.IsAggregation && wantsLength(query) {
		return r.tryLength(ctx, projectID, c, result)
	}

	if c.ItemName == "" {
		r.stepEmpty(result, "direct_lookup")
		return false
	}

	records, err := r.Store.SearchComponents(ctx, projectID, c.ItemName)
	if err != nil {
		r.stepFailed(result, "direct_lookup", err)
		return false
	}

	filters := reconcile.Filters{ItemName: c.ItemName, Size: c.SizeFilter}
	var rec model.ReconcileResult
	if c.IsAggregation {
		rec = r.Engine.Sum(records, filters)
	} else {
		rec = r.Engine.Reconcile(records, filters)
	}
	if rec.TotalCount == 0 {
		r.stepEmpty(result, "direct_lookup")
		return false
	}

	result.Sources = append(result.Sources, model.ProvenanceRef{Step: "direct_lookup", Attempted: true, HasData: true})
	// Keep the direct data so a later vector step merges rather than
	// silently substituting a lower-priority answer.
	*partial = &rec

	if c.Intent == model.IntentQuantitative {
		result.Method = model.MethodDirectOnly
		result.Context = buildComponentContext(rec, filters)
		result.Confidence = c.Confidence
		return true
	}
	return false
}

// tryLength resolves a run length with the fixed source priority:
// termination pairs beat stored aggregates beat index-derived values.
func (r *Router) tryLength(ctx context.Context, projectID string, c model.QueryClassification, result *model.RoutingResult) bool {
	points, err := r.Store.TerminationPoints(ctx, projectID, c.SystemName)
	if err != nil {
		r.stepFailed(result, "direct_lookup", err)
		points = nil
	}
	lengths, warnings := r.Engine.PairTerminations(points)

	var fromTerminations *model.LengthResult
	if len(lengths) > 0 {
		fromTerminations = &lengths[0]
	}
	fromAggregate, fromIndex := r.storedLengths(ctx, projectID, c.SystemName, result)

	resolved := reconcile.ResolveLength(fromTerminations, fromAggregate, fromIndex)
	if resolved == nil {
		if len(warnings) > 0 {
			result.Cautions = append(result.Cautions, warnings...)
		}
		r.stepEmpty(result, "direct_lookup")
		return false
	}

	result.Sources = append(result.Sources, model.ProvenanceRef{
		Step: "direct_lookup", Attempted: true, HasData: true, Detail: string(resolved.Source),
	})
	result.Method = model.MethodDirectOnly
	result.Context = buildLengthContext(*resolved, c.SystemName)
	result.Confidence = resolved.Confidence
	if resolved.Warning != "" {
		result.Cautions = append(result.Cautions, resolved.Warning)
	}
	result.Cautions = append(result.Cautions, warnings...)
	return true
}

// storedLengths derives aggregate and index-sourced length candidates from
// stored pipe records.
func (r *Router) storedLengths(ctx context.Context, projectID, systemName string, result *model.RoutingResult) (*model.LengthResult, *model.LengthResult) {
	records, err := r.Store.AllComponents(ctx, projectID, systemName)
	if err != nil {
		r.log.Warn("stored length lookup failed", zap.Error(err))
		return nil, nil
	}

	var aggregate, index *model.LengthResult
	for _, rec := range records {
		if !reconcile.MatchesCategory(rec.Name, "pipe") {
			continue
		}
		target := &aggregate
		if rec.SourceContext == model.SourceIndex {
			target = &index
		}
		if *target == nil {
			*target = &model.LengthResult{UtilityName: systemName, Confidence: rec.Confidence}
		}
		(*target).LengthLF += float64(rec.Quantity)
		if rec.Confidence < (*target).Confidence {
			(*target).Confidence = rec.Confidence
		}
	}
	return aggregate, index
}

func (r *Router) tryCompleteData(ctx context.Context, projectID string, c model.QueryClassification, result *model.RoutingResult) bool {
	systemName := c.SystemName
	if systemName == "" {
		systemName = r.detectDominantSystem(ctx, projectID)
	}

	chunks, err := r.Store.ChunksBySystem(ctx, projectID, systemName)
	if err != nil {
		r.stepFailed(result, "complete_data", err)
		return false
	}
	if len(chunks) == 0 {
		r.stepEmpty(result, "complete_data")
		return false
	}

	detail := systemName
	if detail == "" {
		detail = "all systems"
	}
	result.Sources = append(result.Sources, model.ProvenanceRef{Step: "complete_data", Attempted: true, HasData: true, Detail: detail})
	result.Method = model.MethodCompleteData
	result.Context = buildChunkContext(chunks, 0)
	result.Confidence = c.Confidence
	return true
}

// detectDominantSystem picks the system holding more than dominantShare of
// all system-name mentions in the project's chunks, else leaves the search
// unscoped.
func (r *Router) detectDominantSystem(ctx context.Context, projectID string) string {
	counts, err := r.Store.SystemMentionCounts(ctx, projectID)
	if err != nil {
		r.log.Warn("system mention count failed", zap.Error(err))
		return ""
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return ""
	}
	for name, n := range counts {
		if float64(n)/float64(total) > dominantShare {
			r.log.Info("auto-detected dominant system",
				zap.String("system", name), zap.Int("mentions", n), zap.Int("total", total))
			return name
		}
	}
	return ""
}

func (r *Router) tryVector(ctx context.Context, query, projectID string, c model.QueryClassification, opts Options, partial *model.ReconcileResult, result *model.RoutingResult) bool {
	if r.Embedder == nil {
		r.stepEmpty(result, "vector_search")
		return r.directFallback(c, partial, result)
	}
	embedding, err := r.Embedder.Embed(ctx, query)
	if err != nil {
		r.stepFailed(result, "vector_search", err)
		return r.directFallback(c, partial, result)
	}

	chunks, err := r.Store.NearestChunks(ctx, projectID, embedding, opts.MaxResults, c.SheetNumber, preferredSheetTypes(c))
	if err != nil {
		r.stepFailed(result, "vector_search", err)
		return r.directFallback(c, partial, result)
	}

	kept := chunks[:0:0]
	for _, ch := range chunks {
		if ch.Similarity >= opts.MinConfidence {
			kept = append(kept, ch)
		}
	}
	if len(kept) == 0 {
		r.stepEmpty(result, "vector_search")
		return r.directFallback(c, partial, result)
	}

	result.Sources = append(result.Sources, model.ProvenanceRef{Step: "vector_search", Attempted: true, HasData: true})

	var parts []string
	if partial != nil {
		parts = append(parts, buildComponentContext(*partial, reconcile.Filters{ItemName: c.ItemName, Size: c.SizeFilter}))
	}
	parts = append(parts, buildChunkContext(kept, opts.MaxResults))
	result.Context = strings.Join(parts, "\n\n")

	if partial != nil {
		result.Method = model.MethodHybrid
		result.Confidence = c.Confidence
	} else {
		result.Method = model.MethodVectorOnly
		result.Confidence = c.Confidence * 0.85
		result.Cautions = append(result.Cautions,
			"answer derived from similarity search only; no direct structured match was found")
	}
	return true
}

// directFallback serves already-found direct-lookup data when the vector
// step cannot contribute. Data from the highest-priority source is never
// dropped because a lower-priority step failed.
func (r *Router) directFallback(c model.QueryClassification, partial *model.ReconcileResult, result *model.RoutingResult) bool {
	if partial == nil {
		return false
	}
	result.Method = model.MethodDirectOnly
	result.Context = buildComponentContext(*partial, reconcile.Filters{ItemName: c.ItemName, Size: c.SizeFilter})
	result.Confidence = c.Confidence
	result.Cautions = append(result.Cautions,
		"similarity search contributed no results; answer uses structured drawing data only")
	return true
}

func (r *Router) tryVisual(ctx context.Context, projectID string, c model.QueryClassification, result *model.RoutingResult) bool {
	if r.Analyzer == nil || r.Sheets == nil {
		r.stepEmpty(result, "visual_analysis")
		return false
	}

	sheets, err := r.Sheets.Sheets(ctx, projectID, []string{"plan_profile"}, r.cfg.MaxVisualSheets)
	if err != nil {
		r.stepFailed(result, "visual_analysis", err)
		return false
	}

	var crossings []model.UtilityCrossing
	for _, sheet := range sheets {
		if ctx.Err() != nil {
			r.stepFailed(result, "visual_analysis", ctx.Err())
			return false
		}
		found, _, err := r.Analyzer.DetectCrossings(ctx, sheet, c.SystemName)
		if err != nil {
			r.log.Warn("visual analysis failed for sheet, skipping",
				zap.String("sheet", sheet.SheetNumber), zap.Error(err))
			continue
		}
		crossings = append(crossings, found...)
	}
	if len(crossings) == 0 {
		r.stepEmpty(result, "visual_analysis")
		return false
	}

	result.Sources = append(result.Sources, model.ProvenanceRef{Step: "visual_analysis", Attempted: true, HasData: true})
	result.Method = model.MethodVisualAnalysis
	result.Context = buildCrossingContext(crossings)
	result.Confidence = averageCrossingConfidence(crossings)
	result.Cautions = append(result.Cautions,
		"result produced by on-demand visual analysis of a bounded sheet set; sheets outside the set were not inspected")
	return true
}

func (r *Router) stepFailed(result *model.RoutingResult, step string, err error) {
	r.log.Warn("routing step failed, falling through",
		zap.String("step", step), zap.Error(err))
	result.Sources = append(result.Sources, model.ProvenanceRef{
		Step: step, Attempted: true, HasData: false, Detail: err.Error(),
	})
}

func (r *Router) stepEmpty(result *model.RoutingResult, step string) {
	result.Sources = append(result.Sources, model.ProvenanceRef{Step: step, Attempted: true, HasData: false})
}

func wantsLength(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(q, "length") || strings.Contains(q, "linear feet") || strings.Contains(q, " lf")
}

func preferredSheetTypes(c model.QueryClassification) []string {
	switch c.Type {
	case model.QueryDetail:
		return []string{"detail"}
	case model.QuerySpecification:
		return []string{"general_notes", "detail"}
	case model.QueryLocation:
		return []string{"plan_profile"}
	}
	return nil
}

func averageCrossingConfidence(crossings []model.UtilityCrossing) float64 {
	if len(crossings) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range crossings {
		sum += c.Confidence
	}
	return sum / float64(len(crossings))
}
