package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore maps paths onto Mongo documents: the first segment names the collection, the
// second the document _id, and the rest a dotted field path inside the document. A user is
// therefore one document, and deleting it removes every child collection with it.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore wraps an already connected database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

type mongoPath struct {
	collection string
	id         string
	field      []string
}

func (p mongoPath) dotted() string {
	return strings.Join(p.field, ".")
}

func parseMongoPath(path string) (mongoPath, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return mongoPath{}, err
	}
	p := mongoPath{collection: segs[0]}
	if len(segs) > 1 {
		p.id = segs[1]
	}
	if len(segs) > 2 {
		p.field = segs[2:]
	}
	return p, nil
}

// EnsureIndexes creates the unique lookups used for sign-up. The indexes are partial so users
// without a phone number do not collide with each other.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	col := s.db.Collection("users")
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "profile.email", Value: 1}},
			Options: options.Index().
				SetName("uniq_profile_email").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"profile.email": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "profile.phone", Value: 1}},
			Options: options.Index().
				SetName("uniq_profile_phone").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"profile.phone": bson.M{"$gt": ""}}),
		},
	}
	for _, m := range models {
		if _, err := col.Indexes().CreateOne(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, path string) (any, error) {
	p, err := parseMongoPath(path)
	if err != nil {
		return nil, err
	}
	col := s.db.Collection(p.collection)

	if p.id == "" {
		cur, err := col.Find(ctx, bson.M{})
		if err != nil {
			return nil, err
		}
		defer cur.Close(ctx)
		out, err := collectDocs(ctx, cur)
		if err != nil {
			return nil, err
		}
		if len(out) == 0 {
			return nil, ErrNotFound
		}
		return out, nil
	}

	opts := options.FindOne()
	if len(p.field) > 0 {
		opts.SetProjection(bson.M{p.dotted(): 1})
	}
	var doc bson.M
	err = col.FindOne(ctx, bson.M{"_id": p.id}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	delete(doc, "_id")

	node, ok := lookup(normalize(doc).(map[string]any), p.field)
	if !ok || isEmptyValue(node) {
		return nil, ErrNotFound
	}
	return node, nil
}

func (s *MongoStore) Set(ctx context.Context, path string, value any) error {
	p, err := parseMongoPath(path)
	if err != nil {
		return err
	}
	if p.id == "" {
		return fmt.Errorf("%w: cannot overwrite collection %q", ErrInvalidPath, p.collection)
	}
	v, err := Encode(value)
	if err != nil {
		return err
	}
	if isEmptyValue(v) {
		return s.Delete(ctx, path)
	}
	col := s.db.Collection(p.collection)

	if len(p.field) == 0 {
		doc, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: document %q must be an object", ErrInvalidPath, path)
		}
		doc["_id"] = p.id
		_, err = col.ReplaceOne(ctx, bson.M{"_id": p.id}, doc, options.Replace().SetUpsert(true))
		return mapWriteError(err)
	}

	_, err = col.UpdateOne(ctx, bson.M{"_id": p.id},
		bson.M{"$set": bson.M{p.dotted(): v}},
		options.Update().SetUpsert(true))
	return mapWriteError(err)
}

func (s *MongoStore) Update(ctx context.Context, path string, fields map[string]any) error {
	p, err := parseMongoPath(path)
	if err != nil {
		return err
	}
	if p.id == "" {
		return fmt.Errorf("%w: cannot update collection %q", ErrInvalidPath, p.collection)
	}
	if err := validateFields(fields); err != nil {
		return err
	}

	update, err := buildUpdate(p, fields)
	if err != nil {
		return err
	}
	if len(update) == 0 {
		return nil
	}
	_, err = s.db.Collection(p.collection).UpdateOne(ctx, bson.M{"_id": p.id}, update, options.Update().SetUpsert(true))
	return mapWriteError(err)
}

// buildUpdate turns path-relative fields into one update document. Slash-separated keys
// become dotted paths below p; null or empty values are unset.
func buildUpdate(p mongoPath, fields map[string]any) (bson.M, error) {
	set := bson.M{}
	unset := bson.M{}
	for k, raw := range fields {
		key := strings.ReplaceAll(k, "/", ".")
		if len(p.field) > 0 {
			key = p.dotted() + "." + key
		}
		v, err := Encode(raw)
		if err != nil {
			return nil, err
		}
		if isEmptyValue(v) {
			unset[key] = ""
			continue
		}
		set[key] = v
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update, nil
}

func (s *MongoStore) Delete(ctx context.Context, path string) error {
	p, err := parseMongoPath(path)
	if err != nil {
		return err
	}
	if p.id == "" {
		return fmt.Errorf("%w: refusing to delete collection %q", ErrInvalidPath, p.collection)
	}
	col := s.db.Collection(p.collection)
	if len(p.field) == 0 {
		_, err = col.DeleteOne(ctx, bson.M{"_id": p.id})
		return err
	}
	_, err = col.UpdateOne(ctx, bson.M{"_id": p.id}, bson.M{"$unset": bson.M{p.dotted(): ""}})
	return err
}

func (s *MongoStore) FindByField(ctx context.Context, collectionPath, fieldPath string, value any) (map[string]any, error) {
	p, err := parseMongoPath(collectionPath)
	if err != nil {
		return nil, err
	}
	fieldSegs, err := SplitPath(fieldPath)
	if err != nil {
		return nil, err
	}
	want, err := Encode(value)
	if err != nil {
		return nil, err
	}

	// Nested collections live inside one document; filter them client side.
	if p.id != "" {
		node, err := s.Get(ctx, collectionPath)
		if errors.Is(err, ErrNotFound) {
			return map[string]any{}, nil
		}
		if err != nil {
			return nil, err
		}
		return matchChildren(node, fieldSegs, want)
	}

	cur, err := s.db.Collection(p.collection).Find(ctx, bson.M{strings.Join(fieldSegs, "."): want})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	return collectDocs(ctx, cur)
}

func collectDocs(ctx context.Context, cur *mongo.Cursor) (map[string]any, error) {
	out := map[string]any{}
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		id := fmt.Sprint(doc["_id"])
		delete(doc, "_id")
		out[id] = normalize(doc)
	}
	return out, cur.Err()
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// normalize turns driver types into the plain tree the rest of the code expects.
func normalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339)
	case primitive.ObjectID:
		return t.Hex()
	case int32:
		return int64(t)
	default:
		return v
	}
}
