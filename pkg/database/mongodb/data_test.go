package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-facade/pkg/anchor/adapter"
)

func setupTestCollection(t *testing.T) (*Adapter, *Collection) {
	uri := os.Getenv("REDB_FACADE_TEST_MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	a := New()
	_, err := a.Connect(context.Background(), uri, ConnectOptions{
		Driver: DriverOptions{
			AppName:                "facade-test",
			ServerSelectionTimeout: 2 * time.Second,
			VerifyConnection:       true,
		},
	})
	if err != nil {
		t.Skipf("Skipping test - could not reach MongoDB: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	_, err = a.SelectDatabase("facade_test", ScopeOptions{})
	require.NoError(t, err)
	coll, err := a.SelectCollection("people", ScopeOptions{ReadPreference: "primary"})
	require.NoError(t, err)

	// Clear the collection
	_, err = coll.DeleteMany(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	return a, coll
}

func seedPeople(t *testing.T, coll *Collection) {
	t.Helper()
	people := []map[string]interface{}{
		{"name": "ada", "age": int64(36), "tags": []interface{}{"math"}},
		{"name": "bo", "age": int64(22), "address": map[string]interface{}{"city": "Oslo"}},
		{"name": "cy", "age": int64(51)},
	}
	for _, p := range people {
		id, err := coll.InsertOne(context.Background(), p)
		require.NoError(t, err)
		hex, ok := id.(string)
		require.True(t, ok, "ObjectID should be returned as hex")
		assert.Len(t, hex, 24)
	}
}

func TestInsertAndFindSorted(t *testing.T) {
	_, coll := setupTestCollection(t)
	seedPeople(t, coll)
	ctx := context.Background()

	cur, err := coll.Find(ctx, nil, FindOptions{
		Limit: 2,
		Sort:  []SortField{{Field: "age", Descending: true}},
	})
	require.NoError(t, err)

	docs, err := cur.All(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "cy", docs[0]["name"])
	assert.Equal(t, "ada", docs[1]["name"])
	assert.EqualValues(t, 51, docs[0]["age"])
	assert.IsType(t, "", docs[0]["_id"])
	assert.Equal(t, []interface{}{"math"}, docs[1]["tags"])

	// All closes the cursor
	err = cur.Close(ctx)
	assert.True(t, adapter.IsInvalidState(err))
}

func TestFindWithCursor(t *testing.T) {
	_, coll := setupTestCollection(t)
	seedPeople(t, coll)
	ctx := context.Background()

	cur, err := coll.Find(ctx, map[string]interface{}{"name": "bo"}, FindOptions{})
	require.NoError(t, err)

	doc, err := cur.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, map[string]interface{}{"city": "Oslo"}, doc["address"])

	doc, err = cur.Next(ctx)
	require.NoError(t, err)
	assert.Nil(t, doc)

	require.NoError(t, cur.Close(ctx))
	_, err = cur.Next(ctx)
	assert.True(t, adapter.IsInvalidState(err))
}

func TestFindSkip(t *testing.T) {
	_, coll := setupTestCollection(t)
	seedPeople(t, coll)
	ctx := context.Background()

	cur, err := coll.Find(ctx, nil, FindOptions{Skip: 1, Sort: []SortField{{Field: "age"}}})
	require.NoError(t, err)
	docs, err := cur.All(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "ada", docs[0]["name"])
}

func TestCountAndDelete(t *testing.T) {
	_, coll := setupTestCollection(t)
	seedPeople(t, coll)
	ctx := context.Background()

	n, err := coll.CountDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = coll.CountDocuments(ctx, map[string]interface{}{
		"age": map[string]interface{}{"$gte": 30},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	deleted, err := coll.DeleteMany(ctx, map[string]interface{}{"name": "bo"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = coll.DeleteMany(ctx, map[string]interface{}{"name": "bo"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	n, err = coll.CountDocuments(ctx, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCollectionFromConfig(t *testing.T) {
	a, _ := setupTestCollection(t)
	uri := os.Getenv("REDB_FACADE_TEST_MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	require.NoError(t, a.Close())

	_, err := a.ConnectWithConfig(context.Background(), adapter.ConnectionConfig{
		ConnectionType: "mongodb",
		URI:            uri,
		DatabaseName:   "facade_test",
		Options:        map[string]interface{}{"collection": "people", "timeout": "2s"},
	})
	require.NoError(t, err)

	coll, err := a.SelectedCollection()
	require.NoError(t, err)
	assert.Equal(t, "people", coll.Name())
	assert.Equal(t, "facade_test", coll.Database())
}
