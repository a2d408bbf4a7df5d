package search

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/merge"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/schema"
)

// RawHit is one result row read back off any stage's cursor, independent of
// which stage produced it.
type RawHit struct {
	Path  string
	Text  string
	Score float64
}

// runner executes one aggregation pipeline against a named collection and
// decodes it into RawHits. The production implementation (mongoRunner)
// wraps *mongo.Collection.Aggregate; tests substitute a fake that returns
// canned results per call, so the cascade-selection logic here is
// verifiable without a live server or a wire-level mock.
type runner interface {
	run(ctx context.Context, collection string, pipeline []bson.D) ([]RawHit, error)
}

// Request describes one query against one searchable collection.
type Request struct {
	Collection     string
	Query          string
	QueryVector    []float32
	Automated      bool
	MaxResults     int
	NumCandidates  int
	VectorIndex    string
	TextIndex      string
	EmbeddingField string
	TextField      string
	Filter         bson.M   // pushed into the vector stage's filter clause
	DocIDFilter    []string // KB pre-filter: restrict to these ids; nil means unrestricted
	FilterField    string   // field name the DocIDFilter is matched against (e.g. "docId")
	Method         merge.Method
	Source         string // value copied onto every resulting merge.Hit.Source
}

// Dispatcher selects the strongest pipeline the detected capabilities allow
// and executes it, cascading to a weaker fallback whenever a stage errors
// (an unsupported stage on an older server surfaces as a runtime error,
// never a capability we'd otherwise have pre-checked away).
type Dispatcher struct {
	caps schema.Capabilities
	run  runner
}

// New constructs a Dispatcher bound to a database and the capabilities
// already detected for it.
func New(db *mongo.Database, caps schema.Capabilities) *Dispatcher {
	return &Dispatcher{caps: caps, run: mongoRunner{db: db}}
}

// ErrEmptyPreFilterSet signals that a KB metadata pre-filter resolved to no
// candidate ids, so the caller should short-circuit without querying.
var ErrEmptyPreFilterSet = errors.New("search: pre-filter set is empty")

// Search runs req through the cascade and returns normalized-but-not-yet-
// merged hits tagged with req.Method/req.Source for the caller to fold into
// a larger cross-collection merge.
func (d *Dispatcher) Search(ctx context.Context, req Request) ([]merge.Hit, error) {
	if req.DocIDFilter != nil && len(req.DocIDFilter) == 0 {
		return nil, ErrEmptyPreFilterSet
	}
	if len(req.DocIDFilter) > 10000 {
		req.DocIDFilter = req.DocIDFilter[:10000]
	}

	hasVector := req.Automated || len(req.QueryVector) > 0
	hasText := req.Query != ""

	if hasVector && hasText && (d.caps.ScoreFusion || d.caps.RankFusion) {
		if hits, err := d.runFusion(ctx, req); err == nil {
			return hits, nil
		}
	}
	if hasVector && hasText && d.caps.VectorSearch && d.caps.TextSearch {
		if hits, err := d.runHybrid(ctx, req); err == nil {
			return hits, nil
		}
	}
	if hasVector && d.caps.VectorSearch {
		if hits, err := d.runVectorOnly(ctx, req); err == nil {
			return hits, nil
		}
	}
	if hasText && d.caps.TextSearch {
		if hits, err := d.runTokenizedText(ctx, req); err == nil {
			return hits, nil
		}
	}
	if hasText {
		return d.runSubstring(ctx, req)
	}
	return nil, nil
}

func (d *Dispatcher) preFilterStages(req Request) []Stage {
	if req.DocIDFilter == nil {
		return nil
	}
	return []Stage{MatchInStage{Field: req.FilterField, Values: req.DocIDFilter}}
}

func (d *Dispatcher) vectorStage(req Request) VectorSearchStage {
	return VectorSearchStage{
		Index:         req.VectorIndex,
		Path:          req.EmbeddingField,
		QueryVector:   req.QueryVector,
		QueryText:     req.Query,
		Automated:     req.Automated,
		NumCandidates: req.NumCandidates,
		Limit:         req.MaxResults,
		Filter:        req.Filter,
	}
}

func (d *Dispatcher) textStage(req Request) TextSearchStage {
	return TextSearchStage{Index: req.TextIndex, Path: req.TextField, Query: req.Query}
}

func (d *Dispatcher) runFusion(ctx context.Context, req Request) ([]merge.Hit, error) {
	method := FusionScore
	if !d.caps.ScoreFusion && d.caps.RankFusion {
		method = FusionRank
	}
	vectorSub := append(Pipeline(d.preFilterStages(req)...), Pipeline(d.vectorStage(req))...)
	textSub := append(Pipeline(d.preFilterStages(req)...), Pipeline(d.textStage(req))...)

	pipeline := []bson.D{
		FusionStage{Method: method, Vector: vectorSub, Text: textSub}.bson(),
		LimitStage{N: req.MaxResults}.bson(),
		ProjectExcludeStage{Fields: []string{req.EmbeddingField}}.bson(),
	}
	raw, err := d.run.run(ctx, req.Collection, pipeline)
	if err != nil {
		return nil, err
	}
	return toHits(raw, merge.MethodHybrid, req.Source), nil
}

func (d *Dispatcher) runHybrid(ctx context.Context, req Request) ([]merge.Hit, error) {
	vectorHits, err := d.runVectorOnly(ctx, req)
	if err != nil {
		return nil, err
	}
	textHits, err := d.runTokenizedText(ctx, req)
	if err != nil {
		return nil, err
	}
	fused := merge.RRF(vectorHits, textHits)
	for i := range fused {
		fused[i].Source = req.Source
	}
	return fused, nil
}

func (d *Dispatcher) runVectorOnly(ctx context.Context, req Request) ([]merge.Hit, error) {
	stages := append(d.preFilterStages(req), d.vectorStage(req), LimitStage{N: req.MaxResults}, ProjectExcludeStage{Fields: []string{req.EmbeddingField}})
	raw, err := d.run.run(ctx, req.Collection, Pipeline(stages...))
	if err != nil {
		return nil, err
	}
	return toHits(raw, merge.MethodVector, req.Source), nil
}

func (d *Dispatcher) runTokenizedText(ctx context.Context, req Request) ([]merge.Hit, error) {
	query := merge.BuildFullTextQuery(req.Query)
	if query == "" {
		return nil, nil
	}
	textStage := d.textStage(req)
	textStage.Query = query
	stages := append(d.preFilterStages(req), textStage, LimitStage{N: req.MaxResults}, ProjectExcludeStage{Fields: []string{req.EmbeddingField}})
	raw, err := d.run.run(ctx, req.Collection, Pipeline(stages...))
	if err != nil {
		return nil, err
	}
	return toHits(raw, merge.MethodText, req.Source), nil
}

func (d *Dispatcher) runSubstring(ctx context.Context, req Request) ([]merge.Hit, error) {
	stages := append(d.preFilterStages(req), TextIndexMatchStage{Query: req.Query}, TextScoreSortStage{}, LimitStage{N: req.MaxResults}, TextScoreProjectStage{ExcludeFields: []string{req.EmbeddingField}})
	raw, err := d.run.run(ctx, req.Collection, Pipeline(stages...))
	if err != nil {
		return nil, err
	}
	return toHits(raw, merge.MethodText, req.Source), nil
}

func toHits(raw []RawHit, method merge.Method, source string) []merge.Hit {
	out := make([]merge.Hit, len(raw))
	for i, r := range raw {
		out[i] = merge.Hit{Path: r.Path, Snippet: r.Text, RawScore: r.Score, Method: method, Source: source}
	}
	return merge.Normalize(out)
}

