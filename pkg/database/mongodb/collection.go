package mongodb

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
)

// Database is a selected database.
type Database struct {
	name   string
	db     *mongo.Database
	handle *adapter.SessionHandle
}

// Name returns the database name.
func (d *Database) Name() string { return d.name }

// Collection returns a collection of this database.
func (d *Database) Collection(name string, opts ScopeOptions) (*Collection, error) {
	if err := checkHandle(d.handle, "collection"); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, adapter.NewConfigurationError(dbcapabilities.MongoDB, "collection", "name must not be empty")
	}
	rp, err := opts.readPref()
	if err != nil {
		return nil, err
	}
	collOpts := options.Collection()
	if rp != nil {
		collOpts.SetReadPreference(rp)
	}
	return &Collection{
		name:           name,
		database:       d.name,
		readPreference: opts.ReadPreference,
		coll:           d.db.Collection(name, collOpts),
		handle:         d.handle,
	}, nil
}

// Collection is a selected collection.
type Collection struct {
	name           string
	database       string
	readPreference string
	coll           *mongo.Collection
	handle         *adapter.SessionHandle
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Database returns the name of the database the collection belongs to.
func (c *Collection) Database() string { return c.database }

// ReadPreference returns the read preference the collection was selected with.
func (c *Collection) ReadPreference() string { return c.readPreference }

// FindOptions limit and order a Find.
type FindOptions struct {
	Limit int64
	Skip  int64
	// Sort fields in priority order
	Sort []SortField
}

// SortField orders results by one field.
type SortField struct {
	Field      string
	Descending bool
}

// InsertOne inserts doc and returns its _id. ObjectIDs are returned as hex strings.
func (c *Collection) InsertOne(ctx context.Context, doc map[string]interface{}) (interface{}, error) {
	if err := checkHandle(c.handle, "insert one"); err != nil {
		return nil, err
	}
	res, err := c.coll.InsertOne(ctx, toBSONDoc(doc))
	if err != nil {
		return nil, adapter.NewDatabaseError(dbcapabilities.MongoDB, "insert one", err).WithContext("collection", c.name)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		return oid.Hex(), nil
	}
	return res.InsertedID, nil
}

// Find returns a cursor over documents matching filter.
func (c *Collection) Find(ctx context.Context, filter map[string]interface{}, opts FindOptions) (*Cursor, error) {
	if err := checkHandle(c.handle, "find"); err != nil {
		return nil, err
	}
	findOpts := options.Find()
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if len(opts.Sort) > 0 {
		findOpts.SetSort(sortDoc(opts.Sort))
	}

	cur, err := c.coll.Find(ctx, toBSONDoc(filter), findOpts)
	if err != nil {
		return nil, adapter.NewDatabaseError(dbcapabilities.MongoDB, "find", err).WithContext("collection", c.name)
	}
	return &Cursor{cur: cur, handle: c.handle}, nil
}

// CountDocuments counts documents matching filter.
func (c *Collection) CountDocuments(ctx context.Context, filter map[string]interface{}) (int64, error) {
	if err := checkHandle(c.handle, "count documents"); err != nil {
		return 0, err
	}
	n, err := c.coll.CountDocuments(ctx, toBSONDoc(filter))
	if err != nil {
		return 0, adapter.NewDatabaseError(dbcapabilities.MongoDB, "count documents", err).WithContext("collection", c.name)
	}
	return n, nil
}

// DeleteMany deletes documents matching filter and returns how many were removed.
func (c *Collection) DeleteMany(ctx context.Context, filter map[string]interface{}) (int64, error) {
	if err := checkHandle(c.handle, "delete many"); err != nil {
		return 0, err
	}
	res, err := c.coll.DeleteMany(ctx, toBSONDoc(filter))
	if err != nil {
		return 0, adapter.NewDatabaseError(dbcapabilities.MongoDB, "delete many", err).WithContext("collection", c.name)
	}
	return res.DeletedCount, nil
}

// Cursor iterates a server-side result set. It must be released with Close.
type Cursor struct {
	cur    *mongo.Cursor
	handle *adapter.SessionHandle
	closed bool
}

// checkHandle rejects work on scopes that outlived the adapter's client.
func checkHandle(h *adapter.SessionHandle, op string) error {
	if h == nil || !h.IsValid() {
		return adapter.NewNotConnectedError(dbcapabilities.MongoDB, op)
	}
	return nil
}

// Next decodes the next document, or returns nil when the cursor is exhausted.
func (c *Cursor) Next(ctx context.Context) (map[string]interface{}, error) {
	if c == nil || c.closed {
		return nil, adapter.NewInvalidStateError(dbcapabilities.MongoDB, "cursor next", "cursor is nil or closed")
	}
	if err := checkHandle(c.handle, "cursor next"); err != nil {
		return nil, err
	}
	if !c.cur.Next(ctx) {
		if err := c.cur.Err(); err != nil {
			return nil, adapter.NewDatabaseError(dbcapabilities.MongoDB, "cursor next", err)
		}
		return nil, nil
	}
	var doc bson.M
	if err := c.cur.Decode(&doc); err != nil {
		return nil, adapter.NewDatabaseError(dbcapabilities.MongoDB, "cursor decode", err)
	}
	return convertDocument(doc), nil
}

// All decodes every remaining document and closes the cursor.
func (c *Cursor) All(ctx context.Context) ([]map[string]interface{}, error) {
	if c == nil || c.closed {
		return nil, adapter.NewInvalidStateError(dbcapabilities.MongoDB, "cursor all", "cursor is nil or closed")
	}
	if err := checkHandle(c.handle, "cursor all"); err != nil {
		return nil, err
	}
	var docs []bson.M
	err := c.cur.All(ctx, &docs)
	c.closed = true
	if err != nil {
		return nil, adapter.NewDatabaseError(dbcapabilities.MongoDB, "cursor all", err)
	}
	result := make([]map[string]interface{}, len(docs))
	for i, doc := range docs {
		result[i] = convertDocument(doc)
	}
	return result, nil
}

// Close releases the server cursor. Closing twice is an error.
func (c *Cursor) Close(ctx context.Context) error {
	if c == nil || c.closed {
		return adapter.NewInvalidStateError(dbcapabilities.MongoDB, "cursor close", "cursor is nil or already closed")
	}
	c.closed = true
	if err := checkHandle(c.handle, "cursor close"); err != nil {
		// the server released the cursor with the client
		return nil
	}
	if err := c.cur.Close(ctx); err != nil {
		return adapter.NewDatabaseError(dbcapabilities.MongoDB, "cursor close", err)
	}
	return nil
}

func sortDoc(fields []SortField) bson.D {
	doc := make(bson.D, 0, len(fields))
	for _, f := range fields {
		order := 1
		if f.Descending {
			order = -1
		}
		doc = append(doc, bson.E{Key: f.Field, Value: order})
	}
	return doc
}

// toBSONDoc converts a map to bson.D with keys in sorted order.
func toBSONDoc(m map[string]interface{}) bson.D {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := make(bson.D, 0, len(m))
	for _, k := range keys {
		doc = append(doc, bson.E{Key: k, Value: toBSONValue(m[k])})
	}
	return doc
}

func toBSONValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return toBSONDoc(val)
	case []interface{}:
		arr := make(bson.A, len(val))
		for i, item := range val {
			arr[i] = toBSONValue(item)
		}
		return arr
	default:
		return v
	}
}

// convertDocument turns a decoded document into plain Go values.
func convertDocument(doc bson.M) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = fromBSONValue(v)
	}
	return out
}

func fromBSONValue(v interface{}) interface{} {
	switch val := v.(type) {
	case bson.ObjectID:
		return val.Hex()
	case bson.DateTime:
		return val.Time().UTC()
	case bson.Decimal128:
		return val.String()
	case bson.D:
		nested := make(map[string]interface{}, len(val))
		for _, elem := range val {
			nested[elem.Key] = fromBSONValue(elem.Value)
		}
		return nested
	case bson.M:
		return convertDocument(val)
	case bson.A:
		arr := make([]interface{}, len(val))
		for i, item := range val {
			arr[i] = fromBSONValue(item)
		}
		return arr
	default:
		return v
	}
}
