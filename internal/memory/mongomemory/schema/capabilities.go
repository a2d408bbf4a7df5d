package schema

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Capabilities are the four server features probed at startup. Detection is
// permanent for the process lifetime once negative; a negative probe on a
// fusion stage is the only thing that proves absence, since any other
// runtime error still means the server recognized (and attempted) the stage.
type Capabilities struct {
	VectorSearch bool
	TextSearch   bool
	ScoreFusion  bool
	RankFusion   bool
}

// DetectCapabilities probes every searchable collection. A positive result
// on any one collection's listSearchIndexes call sets VectorSearch/TextSearch
// true; only a clean sweep of failures across all collections sets it false
// (an unresolved ambiguity in the source this core is modeled on — see the
// design notes' open questions).
func (m *Manager) DetectCapabilities(ctx context.Context) Capabilities {
	var caps Capabilities
	for _, coll := range Searchable {
		if m.probeListSearchIndexes(ctx, coll) {
			caps.VectorSearch = true
			caps.TextSearch = true
		}
	}
	caps.ScoreFusion = m.probeFusionStage(ctx, "$scoreFusion")
	caps.RankFusion = m.probeFusionStage(ctx, "$rankFusion")
	return caps
}

func (m *Manager) probeListSearchIndexes(ctx context.Context, collection string) bool {
	cmd := bson.D{
		{Key: "aggregate", Value: m.Name(collection)},
		{Key: "pipeline", Value: bson.A{bson.M{"$listSearchIndexes": bson.M{}}}},
		{Key: "cursor", Value: bson.M{}},
	}
	err := m.db.RunCommand(ctx, cmd).Err()
	return err == nil
}

// probeFusionStage runs the named fusion stage against a trivially empty
// sub-pipeline set. Only an "unrecognized pipeline stage" error proves the
// stage is absent; any other error (bad sub-pipeline shape, empty
// collection, auth) still means the server parsed and attempted the stage.
func (m *Manager) probeFusionStage(ctx context.Context, stage string) bool {
	cmd := bson.D{
		{Key: "aggregate", Value: m.Name(CollChunks)},
		{Key: "pipeline", Value: bson.A{
			bson.M{stage: bson.M{
				"input": bson.M{
					"pipelines": bson.M{
						"a": bson.A{bson.M{"$limit": 0}},
					},
				},
			}},
		}},
		{Key: "cursor", Value: bson.M{}},
	}
	err := m.db.RunCommand(ctx, cmd).Err()
	if err == nil {
		return true
	}
	return !isUnrecognizedStage(err, stage)
}

func isUnrecognizedStage(err error, stage string) bool {
	cmdErr, ok := asCommandError(err)
	if !ok {
		return false
	}
	if cmdErr.Code == 40324 || cmdErr.Code == 168 {
		return true
	}
	return strings.Contains(strings.ToLower(cmdErr.Message), "unrecognized pipeline stage") &&
		strings.Contains(cmdErr.Message, stage)
}
