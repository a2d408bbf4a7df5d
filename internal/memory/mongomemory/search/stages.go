// Package search implements the capability-adaptive query dispatcher (C5):
// it selects the strongest available aggregation pipeline for a query and
// cascades to weaker fallbacks when a stage fails or the server lacks it.
package search

import (
	"go.mongodb.org/mongo-driver/bson"
)

// Stage is a single aggregation pipeline stage expressed as a tagged
// variant, never as a bare map[string]any: each concrete stage type owns
// its own serialization so an unsupported combination is a compile error,
// not a silent malformed document at query time.
type Stage interface {
	bson() bson.D
}

// Pipeline renders a sequence of stages into a mongo.Pipeline-compatible
// slice of bson.D.
func Pipeline(stages ...Stage) []bson.D {
	out := make([]bson.D, 0, len(stages))
	for _, s := range stages {
		out = append(out, s.bson())
	}
	return out
}

// VectorSearchStage is `$vectorSearch` in managed mode (queryVector) or
// automated mode (query.text over a server-side embedded field).
type VectorSearchStage struct {
	Index         string
	Path          string
	QueryVector   []float32 // managed mode
	QueryText     string    // automated mode
	Automated     bool
	NumCandidates int
	Limit         int
	Filter        bson.M
}

func (s VectorSearchStage) bson() bson.D {
	inner := bson.D{
		{Key: "index", Value: s.Index},
		{Key: "path", Value: s.Path},
		{Key: "limit", Value: s.Limit},
	}
	if s.Automated {
		inner = append(inner, bson.E{Key: "query", Value: bson.D{{Key: "text", Value: s.QueryText}}})
	} else {
		inner = append(inner,
			bson.E{Key: "queryVector", Value: s.QueryVector},
			bson.E{Key: "numCandidates", Value: s.NumCandidates},
		)
	}
	if len(s.Filter) > 0 {
		inner = append(inner, bson.E{Key: "filter", Value: s.Filter})
	}
	return bson.D{{Key: "$vectorSearch", Value: inner}}
}

// TextSearchStage is a `$search` compound-must query over one text field.
type TextSearchStage struct {
	Index string
	Path  string
	Query string
}

func (s TextSearchStage) bson() bson.D {
	return bson.D{{Key: "$search", Value: bson.D{
		{Key: "index", Value: s.Index},
		{Key: "compound", Value: bson.D{
			{Key: "must", Value: bson.A{
				bson.D{{Key: "text", Value: bson.D{
					{Key: "query", Value: s.Query},
					{Key: "path", Value: s.Path},
				}}},
			}},
		}},
	}}}
}

// FusionMethod names the server-side fusion stage, when present.
type FusionMethod string

const (
	FusionScore FusionMethod = "$scoreFusion"
	FusionRank  FusionMethod = "$rankFusion"
)

// FusionStage wraps a vector sub-pipeline and a text sub-pipeline behind a
// single server-side `$scoreFusion`/`$rankFusion` stage.
type FusionStage struct {
	Method FusionMethod
	Vector []bson.D
	Text   []bson.D
}

func (s FusionStage) bson() bson.D {
	return bson.D{{Key: string(s.Method), Value: bson.D{
		{Key: "input", Value: bson.D{
			{Key: "pipelines", Value: bson.D{
				{Key: "vector", Value: s.Vector},
				{Key: "text", Value: s.Text},
			}},
		}},
	}}}
}

// TextIndexMatchStage is the last-resort `$text` substring match.
type TextIndexMatchStage struct {
	Query string
}

func (s TextIndexMatchStage) bson() bson.D {
	return bson.D{{Key: "$match", Value: bson.D{
		{Key: "$text", Value: bson.D{{Key: "$search", Value: s.Query}}},
	}}}
}

// TextScoreSortStage sorts by the `$text` relevance metadata.
type TextScoreSortStage struct{}

func (s TextScoreSortStage) bson() bson.D {
	return bson.D{{Key: "$sort", Value: bson.D{{Key: "score", Value: bson.D{{Key: "$meta", Value: "textScore"}}}}}}
}

// TextScoreProjectStage carries the `$meta: textScore` field through so the
// merger can read it.
type TextScoreProjectStage struct {
	ExcludeFields []string
}

func (s TextScoreProjectStage) bson() bson.D {
	d := bson.D{{Key: "score", Value: bson.D{{Key: "$meta", Value: "textScore"}}}}
	for _, f := range s.ExcludeFields {
		d = append(d, bson.E{Key: f, Value: 0})
	}
	return bson.D{{Key: "$project", Value: d}}
}

// LimitStage is `$limit`.
type LimitStage struct{ N int }

func (s LimitStage) bson() bson.D {
	return bson.D{{Key: "$limit", Value: s.N}}
}

// MatchInStage is `$match` on a field against an `$in` set, used to push
// down source/path/tags/category/agentId filters and the KB docId
// pre-filter set.
type MatchInStage struct {
	Field  string
	Values []string
}

func (s MatchInStage) bson() bson.D {
	return bson.D{{Key: "$match", Value: bson.D{{Key: s.Field, Value: bson.D{{Key: "$in", Value: s.Values}}}}}}
}

// ProjectExcludeStage is an inclusion-style projection that always excludes
// the embedding field: every pipeline must carry one, so bandwidth doesn't
// include raw vectors in results.
type ProjectExcludeStage struct {
	Fields []string
}

func (s ProjectExcludeStage) bson() bson.D {
	d := bson.D{{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}}}
	for _, f := range s.Fields {
		d = append(d, bson.E{Key: f, Value: 0})
	}
	return bson.D{{Key: "$project", Value: d}}
}
