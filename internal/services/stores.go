package services

import (
	"context"
	"io"
	"time"

	"github.com/shreyas/kumbhmela-leads/internal/models"
)

// Storage interfaces implemented by the Mongo repositories. Services depend
// on these so flows can run against in-memory stores in tests.

type LeadStore interface {
	Create(ctx context.Context, row *models.LeadRow) error
	CreateMany(ctx context.Context, rows []models.LeadRow) error
	GetByID(ctx context.Context, id string) (*models.LeadRow, error)
	List(ctx context.Context) ([]models.LeadRow, error)
	SetFields(ctx context.Context, id string, fields map[string]interface{}) (*models.LeadRow, error)
	SetFollowUp(ctx context.Context, id string, next *time.Time, outcome, action string) (*models.LeadRow, error)
	MarkConverted(ctx context.Context, id, conversionType string, at time.Time) (*models.LeadRow, error)
}

type LeadStatusStore interface {
	Create(ctx context.Context, def *models.LeadStatusDef) error
	List(ctx context.Context) ([]models.LeadStatusDef, error)
	Exists(ctx context.Context, name string) (bool, error)
}

type ActivityStore interface {
	Create(ctx context.Context, row *models.ActivityRow) error
	GetByID(ctx context.Context, id string) (*models.ActivityRow, error)
	ListByLead(ctx context.Context, leadID string) ([]models.ActivityRow, error)
	List(ctx context.Context, limit int) ([]models.ActivityRow, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]models.ActivityRow, error)
	Hide(ctx context.Context, id, memberID string) (*models.ActivityRow, error)
	Unhide(ctx context.Context, id, memberID string) (*models.ActivityRow, error)
	SetUpdate(ctx context.Context, id, text string) (*models.ActivityRow, error)
}

type InventoryStore interface {
	Create(ctx context.Context, item *models.InventoryItem) error
	GetByID(ctx context.Context, id string) (*models.InventoryItem, error)
	List(ctx context.Context) ([]models.InventoryItem, error)
	Replace(ctx context.Context, item *models.InventoryItem, expectedAvailable int) error
	Decrement(ctx context.Context, id string, qty int, exhaustedStatus string) (*models.InventoryItem, error)
	Restore(ctx context.Context, id string, qty int) (*models.InventoryItem, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, status string) ([]models.Order, error)
	Transition(ctx context.Context, id, from, to, actor string, at time.Time) (*models.Order, error)
}

type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, inventoryItemID string) ([]models.Booking, error)
	Cancel(ctx context.Context, id string, at time.Time) (*models.Booking, error)
}

type NoteStore interface {
	Create(ctx context.Context, note *models.Note) error
	GetByID(ctx context.Context, id string) (*models.Note, error)
	List(ctx context.Context) ([]models.Note, error)
	ListTrash(ctx context.Context) ([]models.Note, error)
	Update(ctx context.Context, id string, u models.NoteUpdate, at time.Time) (*models.Note, error)
	Trash(ctx context.Context, id string, at time.Time) (*models.Note, error)
	Restore(ctx context.Context, id string, at time.Time) (*models.Note, error)
	Purge(ctx context.Context, id string) (*models.Note, error)
}

type TodoStore interface {
	Create(ctx context.Context, todo *models.Todo) error
	GetByID(ctx context.Context, id string) (*models.Todo, error)
	List(ctx context.Context) ([]models.Todo, error)
	ListTrash(ctx context.Context) ([]models.Todo, error)
	Update(ctx context.Context, id string, u models.TodoUpdate, at time.Time) (*models.Todo, error)
	SetCompleted(ctx context.Context, id string, completed bool, at time.Time) (*models.Todo, error)
	Trash(ctx context.Context, id string, at time.Time) (*models.Todo, error)
	Restore(ctx context.Context, id string, at time.Time) (*models.Todo, error)
	Purge(ctx context.Context, id string) (*models.Todo, error)
}

type ProjectionStore interface {
	UpsertTarget(ctx context.Context, t *models.ProjectionTarget) (*models.ProjectionTarget, error)
	ListTargets(ctx context.Context, month string) ([]models.ProjectionTarget, error)
	CreateEntry(ctx context.Context, e *models.ProjectionEntry) error
	ListEntries(ctx context.Context, month string) ([]models.ProjectionEntry, error)
}

type TeamMemberStore interface {
	GetByID(ctx context.Context, id string) (*models.TeamMember, error)
	GetByEmail(ctx context.Context, email string) (*models.TeamMember, error)
	Create(ctx context.Context, member *models.TeamMember) error
	List(ctx context.Context, activeOnly bool) ([]models.TeamMember, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Revoke(ctx context.Context, id string, at time.Time) error
}

type PermissionStore interface {
	GetByRole(ctx context.Context, role string) (*models.FeaturePermission, error)
	List(ctx context.Context) ([]models.FeaturePermission, error)
	Upsert(ctx context.Context, perm *models.FeaturePermission) error
}

type ProfileStore interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	SetColumns(ctx context.Context, userID, view string, visible []string, at time.Time) (*models.Profile, error)
}

type LookupStore interface {
	ListZones(ctx context.Context) ([]models.Zone, error)
	CreateZone(ctx context.Context, z *models.Zone) error
	ListSectors(ctx context.Context, zoneID string) ([]models.Sector, error)
	CreateSector(ctx context.Context, s *models.Sector) error
}

type FileStore interface {
	Upload(ctx context.Context, a *models.Attachment, content io.Reader) error
	Open(ctx context.Context, id string) (*models.Attachment, io.ReadCloser, error)
	ListByEntity(ctx context.Context, entity, entityID string) ([]models.Attachment, error)
}

// Notifier publishes row-level change events.
type Notifier interface {
	Inserted(table string, row interface{})
	Updated(table string, row, old interface{})
	Deleted(table string, old interface{})
}
