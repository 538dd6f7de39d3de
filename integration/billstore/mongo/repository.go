package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/billforge/core/bill"
)

// DefaultCollection stores every bill type.
const DefaultCollection = "bills"

type billDoc struct {
	ID         bson.ObjectID  `bson:"_id,omitempty"`
	UserID     string         `bson:"userId"`
	Type       bill.Type      `bson:"billType"`
	Name       string         `bson:"name"`
	TemplateID string         `bson:"template,omitempty"`
	Fuel       *bill.Fuel     `bson:"fuel,omitempty"`
	Rent       *bill.Rent     `bson:"rent,omitempty"`
	Data       map[string]any `bson:"data,omitempty"`
	CreatedAt  time.Time      `bson:"createdAt"`
	UpdatedAt  time.Time      `bson:"updatedAt"`
}

func toDoc(b bill.Bill) billDoc {
	return billDoc{
		UserID:     b.UserID,
		Type:       b.Type,
		Name:       b.Name,
		TemplateID: b.TemplateID,
		Fuel:       b.Fuel,
		Rent:       b.Rent,
		Data:       b.Data,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func (d billDoc) toBill() bill.Bill {
	return bill.Bill{
		ID:         d.ID.Hex(),
		UserID:     d.UserID,
		Type:       d.Type,
		Name:       d.Name,
		TemplateID: d.TemplateID,
		Fuel:       d.Fuel,
		Rent:       d.Rent,
		Data:       normalize(d.Data),
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}
}

// Repository implements bill.Repository.
type Repository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// New returns a repository over db's bills collection.
func New(db *mongo.Database, collection string) *Repository {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Repository{coll: db.Collection(collection), now: time.Now}
}

// EnsureIndexes creates the owner listing index.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create bills index: %w", err)
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, b bill.Bill) (bill.Bill, error) {
	ts := r.now().UTC().Truncate(time.Millisecond)
	doc := toDoc(b)
	doc.ID = bson.NewObjectID()
	doc.CreatedAt = ts
	doc.UpdatedAt = ts

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return bill.Bill{}, fmt.Errorf("insert bill: %w", err)
	}
	return doc.toBill(), nil
}

func (r *Repository) Get(ctx context.Context, userID, id string) (bill.Bill, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bill.Bill{}, bill.ErrNotFound
	}

	var doc billDoc
	err = r.coll.FindOne(ctx, ownerFilter(userID, oid)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return bill.Bill{}, bill.ErrNotFound
		}
		return bill.Bill{}, fmt.Errorf("find bill: %w", err)
	}
	return doc.toBill(), nil
}

func (r *Repository) List(ctx context.Context, userID string, f bill.ListFilter) ([]bill.Bill, error) {
	filter := bson.D{{Key: "userId", Value: userID}}
	if f.Type != "" {
		filter = append(filter, bson.E{Key: "billType", Value: f.Type})
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find bills: %w", err)
	}

	var docs []billDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode bills: %w", err)
	}

	out := make([]bill.Bill, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toBill())
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, b bill.Bill) (bill.Bill, error) {
	oid, err := bson.ObjectIDFromHex(b.ID)
	if err != nil {
		return bill.Bill{}, bill.ErrNotFound
	}

	doc := toDoc(b)
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "billType", Value: doc.Type},
			{Key: "name", Value: doc.Name},
			{Key: "template", Value: doc.TemplateID},
			{Key: "fuel", Value: doc.Fuel},
			{Key: "rent", Value: doc.Rent},
			{Key: "data", Value: doc.Data},
			{Key: "updatedAt", Value: r.now().UTC().Truncate(time.Millisecond)},
		}},
	}

	var updated billDoc
	err = r.coll.FindOneAndUpdate(ctx, ownerFilter(b.UserID, oid), update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return bill.Bill{}, bill.ErrNotFound
		}
		return bill.Bill{}, fmt.Errorf("update bill: %w", err)
	}
	return updated.toBill(), nil
}

func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bill.ErrNotFound
	}

	res, err := r.coll.DeleteOne(ctx, ownerFilter(userID, oid))
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if res.DeletedCount == 0 {
		return bill.ErrNotFound
	}
	return nil
}

func ownerFilter(userID string, id bson.ObjectID) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "userId", Value: userID}}
}

// normalize turns nested BSON documents and arrays decoded into a generic
// map back into plain maps and slices.
func normalize(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	case bson.M:
		return normalize(t)
	case map[string]any:
		return normalize(t)
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}
