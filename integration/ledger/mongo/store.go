package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/billforge/core/quota"
)

// DefaultCollection holds the account records.
const DefaultCollection = "users"

const (
	fieldCount     = "credits.weeklyBillsGenerated"
	fieldResetDate = "credits.lastResetDate"
)

type userDoc struct {
	Credits *creditsDoc `bson:"credits"`
}

type creditsDoc struct {
	Count     *int64     `bson:"weeklyBillsGenerated"`
	ResetDate *time.Time `bson:"lastResetDate"`
}

// Store implements quota.ConditionalStore on a users collection.
type Store struct {
	coll *mongo.Collection
}

// New returns a store over db's users collection.
func New(db *mongo.Database, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{coll: db.Collection(collection)}
}

// userID maps an account key to the document id. Hex strings of ObjectID
// length become ObjectIDs, anything else is used verbatim.
func userID(key string) any {
	if oid, err := bson.ObjectIDFromHex(key); err == nil {
		return oid
	}
	return key
}

func (s *Store) Load(ctx context.Context, key string) (quota.Entry, error) {
	if key == "" {
		return quota.Entry{}, quota.ErrUnknownIdentity
	}

	raw, err := s.coll.FindOne(ctx,
		bson.D{{Key: "_id", Value: userID(key)}},
		options.FindOne().SetProjection(bson.D{{Key: "credits", Value: 1}}),
	).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return quota.Entry{}, quota.ErrUnknownIdentity
		}
		return quota.Entry{}, fmt.Errorf("find user: %w", err)
	}

	var doc userDoc
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return quota.Entry{}, errors.Join(quota.ErrMalformedEntry, err)
	}
	if doc.Credits == nil {
		return quota.Entry{}, quota.ErrEntryNotFound
	}

	c := doc.Credits
	if c.Count == nil || c.ResetDate == nil || *c.Count < 0 {
		return quota.Entry{}, quota.ErrMalformedEntry
	}
	return quota.Entry{Count: int(*c.Count), WindowStart: c.ResetDate.UTC()}, nil
}

func (s *Store) Save(ctx context.Context, key string, e quota.Entry) error {
	if key == "" {
		return quota.ErrUnknownIdentity
	}

	res, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: userID(key)}}, setEntry(e))
	if err != nil {
		return fmt.Errorf("update user credits: %w", err)
	}
	if res.MatchedCount == 0 {
		return quota.ErrUnknownIdentity
	}
	return nil
}

// CompareAndSwap updates the credits only if they still hold the expected
// values, or are absent when expected is nil.
func (s *Store) CompareAndSwap(ctx context.Context, key string, expected *quota.Entry, next quota.Entry) (bool, error) {
	if key == "" {
		return false, quota.ErrUnknownIdentity
	}

	id := userID(key)
	filter := bson.D{{Key: "_id", Value: id}}
	if expected == nil {
		filter = append(filter, bson.E{Key: fieldCount, Value: bson.D{{Key: "$exists", Value: false}}})
	} else {
		filter = append(filter,
			bson.E{Key: fieldCount, Value: int64(expected.Count)},
			bson.E{Key: fieldResetDate, Value: expected.WindowStart.UTC()},
		)
	}

	res, err := s.coll.UpdateOne(ctx, filter, setEntry(next))
	if err != nil {
		return false, fmt.Errorf("swap user credits: %w", err)
	}
	if res.MatchedCount == 1 {
		return true, nil
	}

	n, err := s.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count user: %w", err)
	}
	if n == 0 {
		return false, quota.ErrUnknownIdentity
	}
	return false, nil
}

func setEntry(e quota.Entry) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: fieldCount, Value: int64(e.Count)},
		{Key: fieldResetDate, Value: e.WindowStart.UTC()},
	}}}
}
