package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// Pure-logic tests — no server round-trip needed.

func TestAssertIndexBudgetUnboundedProfile(t *testing.T) {
	err := AssertIndexBudget("standalone", []string{CollChunks, CollKBChunks, CollStructured})
	require.NoError(t, err)
}

func TestAssertIndexBudgetExceeded(t *testing.T) {
	err := AssertIndexBudget("atlas-m0", []string{CollChunks, CollKBChunks, CollStructured})
	var budgetErr *ErrIndexBudgetExceeded
	require.ErrorAs(t, err, &budgetErr)
	assert.Equal(t, "atlas-m0", budgetErr.Profile)
	assert.Equal(t, 6, budgetErr.Planned)
}

func TestAssertIndexBudgetWithinLimit(t *testing.T) {
	err := AssertIndexBudget("atlas-m0", []string{CollChunks})
	require.NoError(t, err)
}

func TestPlanSearchIndexesDegradesUnderBudget(t *testing.T) {
	provision, skipped := PlanSearchIndexes("atlas-m0")
	assert.Len(t, provision, 1)
	assert.Len(t, skipped, len(Searchable)-1)
}

func TestPlanSearchIndexesUnboundedProfile(t *testing.T) {
	provision, skipped := PlanSearchIndexes("standalone")
	assert.ElementsMatch(t, Searchable, provision)
	assert.Empty(t, skipped)
}

func TestValidatorForKnownCollections(t *testing.T) {
	for _, coll := range []string{CollChunks, CollKBDocuments, CollKBChunks, CollStructured} {
		assert.NotNil(t, validatorFor(coll), "expected a validator for %s", coll)
	}
}

func TestValidatorForUnknownCollection(t *testing.T) {
	assert.Nil(t, validatorFor(CollEmbedCache))
	assert.Nil(t, validatorFor(CollMeta))
}

func TestNamePrefixesCollection(t *testing.T) {
	mgr := New(nil, "agent7_")
	assert.Equal(t, "agent7_chunks", mgr.Name(CollChunks))
}

func TestNameWithEmptyPrefix(t *testing.T) {
	mgr := New(nil, "")
	assert.Equal(t, CollChunks, mgr.Name(CollChunks))
}

// mtest-backed tests exercise the manager against mongo-driver's own mock
// deployment, the same way syncengine's tests do: responses are queued in
// the order the manager is expected to issue commands.

func TestEnsureCollectionsSkipsExisting(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("all present", func(mt *mtest.T) {
		mgr := New(mt.DB, "")

		var names bson.A
		for _, coll := range AllCollections {
			names = append(names, coll)
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.$cmd.listCollections", mtest.FirstBatch,
			bson.D{{Key: "name", Value: "chunks"}},
			bson.D{{Key: "name", Value: "files"}},
			bson.D{{Key: "name", Value: "embedding_cache"}},
			bson.D{{Key: "name", Value: "meta"}},
			bson.D{{Key: "name", Value: "knowledge_base"}},
			bson.D{{Key: "name", Value: "kb_chunks"}},
			bson.D{{Key: "name", Value: "structured_mem"}},
		))

		err := mgr.EnsureCollections(context.Background())
		require.NoError(t, err)
	})
}

func TestEnsureCollectionsTreatsNamespaceExistsAsIdempotent(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("race with a concurrent creator", func(mt *mtest.T) {
		mgr := New(mt.DB, "")

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.$cmd.listCollections", mtest.FirstBatch))
		for range AllCollections {
			mt.AddMockResponses(bson.D{
				{Key: "ok", Value: 0},
				{Key: "errmsg", Value: "Collection already exists"},
				{Key: "code", Value: 48},
				{Key: "codeName", Value: "NamespaceExists"},
			})
		}

		err := mgr.EnsureCollections(context.Background())
		require.NoError(t, err)
	})
}

func TestDetectCapabilitiesAllAbsent(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("no search or fusion support", func(mt *mtest.T) {
		mgr := New(mt.DB, "")

		for range Searchable {
			mt.AddMockResponses(bson.D{
				{Key: "ok", Value: 0},
				{Key: "errmsg", Value: "unrecognized pipeline stage name: '$listSearchIndexes'"},
				{Key: "code", Value: 40324},
			})
		}
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 0},
			{Key: "errmsg", Value: "unrecognized pipeline stage name: '$scoreFusion'"},
			{Key: "code", Value: 40324},
		})
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 0},
			{Key: "errmsg", Value: "unrecognized pipeline stage name: '$rankFusion'"},
			{Key: "code", Value: 40324},
		})

		caps := mgr.DetectCapabilities(context.Background())
		assert.False(t, caps.VectorSearch)
		assert.False(t, caps.TextSearch)
		assert.False(t, caps.ScoreFusion)
		assert.False(t, caps.RankFusion)
	})
}

func TestDetectCapabilitiesVectorSearchPresent(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("one collection reports search indexes", func(mt *mtest.T) {
		mgr := New(mt.DB, "")

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.chunks", mtest.FirstBatch,
			bson.D{{Key: "name", Value: "vector_index"}}))
		for range Searchable[1:] {
			mt.AddMockResponses(bson.D{
				{Key: "ok", Value: 0},
				{Key: "errmsg", Value: "unrecognized pipeline stage name: '$listSearchIndexes'"},
				{Key: "code", Value: 40324},
			})
		}
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 0},
			{Key: "errmsg", Value: "unrecognized pipeline stage name: '$scoreFusion'"},
			{Key: "code", Value: 40324},
		})
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 0},
			{Key: "errmsg", Value: "unrecognized pipeline stage name: '$rankFusion'"},
			{Key: "code", Value: 40324},
		})

		caps := mgr.DetectCapabilities(context.Background())
		assert.True(t, caps.VectorSearch)
		assert.True(t, caps.TextSearch)
		assert.False(t, caps.ScoreFusion)
		assert.False(t, caps.RankFusion)
	})
}

func TestCheckKBOrphansReportsMissingDocs(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("dangling docId", func(mt *mtest.T) {
		mgr := New(mt.DB, "")

		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "values", Value: bson.A{"doc-1", "doc-2"}},
		})
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.knowledge_base", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "doc-1"}}))

		report, err := mgr.CheckKBOrphans(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Count)
		assert.Equal(t, []string{"doc-2"}, report.MissingIDs)
	})
}

func TestCheckKBOrphansNoReferences(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("nothing referenced", func(mt *mtest.T) {
		mgr := New(mt.DB, "")

		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "values", Value: bson.A{}},
		})

		report, err := mgr.CheckKBOrphans(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, report.Count)
	})
}
