package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/pkg/mongodb"
)

// MongoNoteRepository handles notes with a trash/restore lifecycle
type MongoNoteRepository struct {
	bin trashBin
}

func NewMongoNoteRepository(client *mongodb.Client) *MongoNoteRepository {
	return &MongoNoteRepository{bin: trashBin{collection: client.Collection(models.TableNotes), notFound: ErrNoteNotFound}}
}

func (r *MongoNoteRepository) Create(ctx context.Context, note *models.Note) error {
	if _, err := r.bin.collection.InsertOne(ctx, note); err != nil {
		return fmt.Errorf("error creating note: %w", err)
	}
	return nil
}

func (r *MongoNoteRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	var note models.Note
	if err := r.bin.get(ctx, id, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// List returns active notes, pinned first then most recently updated
func (r *MongoNoteRepository) List(ctx context.Context) ([]models.Note, error) {
	notes := []models.Note{}
	sort := bson.D{{Key: "pinned", Value: -1}, {Key: "updated_at", Value: -1}}
	if err := r.bin.list(ctx, activeFilter, sort, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// ListTrash returns trashed notes, most recently deleted first
func (r *MongoNoteRepository) ListTrash(ctx context.Context) ([]models.Note, error) {
	notes := []models.Note{}
	if err := r.bin.list(ctx, trashedFilter, bson.D{{Key: "deleted_at", Value: -1}}, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// Update applies field changes to an active note
func (r *MongoNoteRepository) Update(ctx context.Context, id string, u models.NoteUpdate, at time.Time) (*models.Note, error) {
	set := bson.M{"updated_at": at}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Content != nil {
		set["content"] = *u.Content
	}
	if u.Tags != nil {
		set["tags"] = *u.Tags
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.Pinned != nil {
		set["pinned"] = *u.Pinned
	}
	var note models.Note
	if err := r.bin.update(ctx, id, activeFilter, bson.M{"$set": set}, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *MongoNoteRepository) Trash(ctx context.Context, id string, at time.Time) (*models.Note, error) {
	var note models.Note
	if err := r.bin.trash(ctx, id, at, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *MongoNoteRepository) Restore(ctx context.Context, id string, at time.Time) (*models.Note, error) {
	var note models.Note
	if err := r.bin.restore(ctx, id, at, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *MongoNoteRepository) Purge(ctx context.Context, id string) (*models.Note, error) {
	var note models.Note
	if err := r.bin.purge(ctx, id, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// MongoTodoRepository handles todos with a trash/restore lifecycle
type MongoTodoRepository struct {
	bin trashBin
}

func NewMongoTodoRepository(client *mongodb.Client) *MongoTodoRepository {
	return &MongoTodoRepository{bin: trashBin{collection: client.Collection(models.TableTodos), notFound: ErrTodoNotFound}}
}

func (r *MongoTodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	if _, err := r.bin.collection.InsertOne(ctx, todo); err != nil {
		return fmt.Errorf("error creating todo: %w", err)
	}
	return nil
}

func (r *MongoTodoRepository) GetByID(ctx context.Context, id string) (*models.Todo, error) {
	var todo models.Todo
	if err := r.bin.get(ctx, id, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// List returns active todos, open ones first by due date
func (r *MongoTodoRepository) List(ctx context.Context) ([]models.Todo, error) {
	todos := []models.Todo{}
	sort := bson.D{{Key: "completed", Value: 1}, {Key: "due_date", Value: 1}, {Key: "created_at", Value: -1}}
	if err := r.bin.list(ctx, activeFilter, sort, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

func (r *MongoTodoRepository) ListTrash(ctx context.Context) ([]models.Todo, error) {
	todos := []models.Todo{}
	if err := r.bin.list(ctx, trashedFilter, bson.D{{Key: "deleted_at", Value: -1}}, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

func (r *MongoTodoRepository) Update(ctx context.Context, id string, u models.TodoUpdate, at time.Time) (*models.Todo, error) {
	set := bson.M{"updated_at": at}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.DueDate != nil {
		set["due_date"] = *u.DueDate
	}
	if u.Priority != nil {
		set["priority"] = *u.Priority
	}
	if u.AssignedTo != nil {
		set["assigned_to"] = *u.AssignedTo
	}
	var todo models.Todo
	if err := r.bin.update(ctx, id, activeFilter, bson.M{"$set": set}, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// SetCompleted marks an active todo done or open
func (r *MongoTodoRepository) SetCompleted(ctx context.Context, id string, completed bool, at time.Time) (*models.Todo, error) {
	update := bson.M{"$set": bson.M{"completed": true, "completed_at": at, "updated_at": at}}
	if !completed {
		update = bson.M{
			"$set":   bson.M{"completed": false, "updated_at": at},
			"$unset": bson.M{"completed_at": ""},
		}
	}
	var todo models.Todo
	if err := r.bin.update(ctx, id, activeFilter, update, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (r *MongoTodoRepository) Trash(ctx context.Context, id string, at time.Time) (*models.Todo, error) {
	var todo models.Todo
	if err := r.bin.trash(ctx, id, at, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (r *MongoTodoRepository) Restore(ctx context.Context, id string, at time.Time) (*models.Todo, error) {
	var todo models.Todo
	if err := r.bin.restore(ctx, id, at, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (r *MongoTodoRepository) Purge(ctx context.Context, id string) (*models.Todo, error) {
	var todo models.Todo
	if err := r.bin.purge(ctx, id, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}
