package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// trashBin implements the soft-delete lifecycle shared by notes and todos:
// active rows have no deleted_at, trashed rows do, and only trashed rows can be purged.
type trashBin struct {
	collection *mongo.Collection
	notFound   error
}

var (
	activeFilter  = bson.M{"deleted_at": nil}
	trashedFilter = bson.M{"deleted_at": bson.M{"$ne": nil}}
)

func (t trashBin) with(id string, state bson.M) bson.M {
	f := bson.M{"_id": id}
	for k, v := range state {
		f[k] = v
	}
	return f
}

func (t trashBin) get(ctx context.Context, id string, out interface{}) error {
	err := t.collection.FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return WrapNotFound(err, t.notFound)
		}
		return fmt.Errorf("error querying %s: %w", t.collection.Name(), err)
	}
	return nil
}

func (t trashBin) list(ctx context.Context, filter bson.M, sort bson.D, out interface{}) error {
	cursor, err := t.collection.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return fmt.Errorf("error listing %s: %w", t.collection.Name(), err)
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("error decoding %s: %w", t.collection.Name(), err)
	}
	return nil
}

// update applies update to the row only while it matches state
func (t trashBin) update(ctx context.Context, id string, state bson.M, update bson.M, out interface{}) error {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := t.collection.FindOneAndUpdate(ctx, t.with(id, state), update, opts).Decode(out)
	if err == mongo.ErrNoDocuments {
		// exists but in the other state
		var probe bson.M
		if gerr := t.get(ctx, id, &probe); gerr != nil {
			return gerr
		}
		return fmt.Errorf("%s %s: %w", t.collection.Name(), id, ErrStatusTransitionStale)
	}
	if err != nil {
		return fmt.Errorf("error updating %s: %w", t.collection.Name(), err)
	}
	return nil
}

func (t trashBin) trash(ctx context.Context, id string, at time.Time, out interface{}) error {
	return t.update(ctx, id, activeFilter, bson.M{"$set": bson.M{"deleted_at": at, "updated_at": at}}, out)
}

func (t trashBin) restore(ctx context.Context, id string, at time.Time, out interface{}) error {
	return t.update(ctx, id, trashedFilter, bson.M{
		"$unset": bson.M{"deleted_at": ""},
		"$set":   bson.M{"updated_at": at},
	}, out)
}

// purge hard-deletes a trashed row and decodes it into out
func (t trashBin) purge(ctx context.Context, id string, out interface{}) error {
	err := t.collection.FindOneAndDelete(ctx, t.with(id, trashedFilter)).Decode(out)
	if err == mongo.ErrNoDocuments {
		var probe bson.M
		if gerr := t.get(ctx, id, &probe); gerr != nil {
			return gerr
		}
		return fmt.Errorf("%s %s must be in trash before purge: %w", t.collection.Name(), id, ErrStatusTransitionStale)
	}
	if err != nil {
		return fmt.Errorf("error purging %s: %w", t.collection.Name(), err)
	}
	return nil
}
