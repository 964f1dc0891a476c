package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/repositories"
)

func missing(domainErr error) error {
	return repositories.WrapNotFound(repositories.ErrNotFound, domainErr)
}

var testNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func testDeps(n Notifier) Deps {
	return Deps{Notifier: n, Now: func() time.Time { return testNow }}
}

var rep = models.Principal{UserID: "rep-1", Name: "Ravi", Role: models.RoleSalesRep, SessionID: "sess-1"}

type recordedChange struct {
	kind  models.ChangeType
	table string
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []recordedChange
}

func (n *recordingNotifier) add(kind models.ChangeType, table string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, recordedChange{kind: kind, table: table})
}

func (n *recordingNotifier) Inserted(table string, row interface{}) { n.add(models.ChangeInsert, table) }
func (n *recordingNotifier) Updated(table string, row, old interface{}) { n.add(models.ChangeUpdate, table) }
func (n *recordingNotifier) Deleted(table string, old interface{}) { n.add(models.ChangeDelete, table) }

func (n *recordingNotifier) count(kind models.ChangeType, table string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, ch := range n.changes {
		if ch.kind == kind && ch.table == table {
			c++
		}
	}
	return c
}

// leads

type memLeadStore struct {
	mu   sync.Mutex
	rows map[string]models.LeadRow
	seq  []string
	fail error
	sets int

	// afterGet runs once, unlocked, after the next GetByID read
	afterGet func()
}

func newMemLeadStore() *memLeadStore {
	return &memLeadStore{rows: map[string]models.LeadRow{}}
}

func (s *memLeadStore) Create(ctx context.Context, row *models.LeadRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.rows[row.ID] = *row
	s.seq = append(s.seq, row.ID)
	return nil
}

func (s *memLeadStore) CreateMany(ctx context.Context, rows []models.LeadRow) error {
	for i := range rows {
		if err := s.Create(ctx, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *memLeadStore) GetByID(ctx context.Context, id string) (*models.LeadRow, error) {
	s.mu.Lock()
	row, ok := s.rows[id]
	hook := s.afterGet
	s.afterGet = nil
	s.mu.Unlock()
	if !ok {
		return nil, missing(repositories.ErrLeadNotFound)
	}
	if hook != nil {
		hook()
	}
	return &row, nil
}

func (s *memLeadStore) List(ctx context.Context) ([]models.LeadRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.LeadRow, 0, len(s.seq))
	for i := len(s.seq) - 1; i >= 0; i-- {
		out = append(out, s.rows[s.seq[i]])
	}
	return out, nil
}

func (s *memLeadStore) SetFields(ctx context.Context, id string, fields map[string]interface{}) (*models.LeadRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, missing(repositories.ErrLeadNotFound)
	}
	for k, v := range fields {
		switch k {
		case "client_name":
			row.ClientName = v.(string)
		case "location":
			row.Location = v.(string)
		case "contact_person":
			row.ContactPerson = v.(string)
		case "phone":
			row.Phone = v.(string)
		case "email":
			row.Email = v.(string)
		case "budget":
			row.Budget = v.(*string)
		case "lead_reference":
			row.LeadReference = v.(*string)
		case "lead_source":
			row.LeadSource = v.(*string)
		case "requirement":
			row.Requirement = v.(map[string]interface{})
		case "status":
			row.Status = v.(string)
		case "remarks":
			row.Remarks = v.(*string)
		case "assigned_to":
			row.AssignedTo = v.(*string)
		case "updated_at":
			row.UpdatedAt = v.(time.Time)
		default:
			return nil, fmt.Errorf("unexpected lead field %q", k)
		}
	}
	s.rows[id] = row
	s.sets++
	return &row, nil
}

func (s *memLeadStore) SetFollowUp(ctx context.Context, id string, next *time.Time, outcome, action string) (*models.LeadRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, missing(repositories.ErrLeadNotFound)
	}
	row.NextFollowUp = next
	row.FollowUpOutcome = &outcome
	row.NextAction = &action
	s.rows[id] = row
	return &row, nil
}

func (s *memLeadStore) MarkConverted(ctx context.Context, id, conversionType string, at time.Time) (*models.LeadRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, missing(repositories.ErrLeadNotFound)
	}
	switch conversionType {
	case models.ConversionOrder:
		row.ConvertedToOrder = true
		row.Status = models.StatusOngoingOrder
	case models.ConversionBooking:
		row.ConvertedToBooking = true
	}
	row.ConversionType = &conversionType
	row.ConversionDate = &at
	s.rows[id] = row
	return &row, nil
}

type memStatusStore struct {
	defs []models.LeadStatusDef
}

func (s *memStatusStore) Create(ctx context.Context, def *models.LeadStatusDef) error {
	for _, d := range s.defs {
		if d.Name == def.Name {
			return repositories.ErrDuplicateKey
		}
	}
	s.defs = append(s.defs, *def)
	return nil
}

func (s *memStatusStore) List(ctx context.Context) ([]models.LeadStatusDef, error) {
	return append([]models.LeadStatusDef(nil), s.defs...), nil
}

func (s *memStatusStore) Exists(ctx context.Context, name string) (bool, error) {
	for _, d := range s.defs {
		if d.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// activities

type memActivityStore struct {
	mu       sync.Mutex
	rows     []models.ActivityRow
	windowed int
}

func (s *memActivityStore) find(id string) int {
	for i, r := range s.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *memActivityStore) Create(ctx context.Context, row *models.ActivityRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, *row)
	return nil
}

func (s *memActivityStore) GetByID(ctx context.Context, id string) (*models.ActivityRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(id)
	if i < 0 {
		return nil, missing(repositories.ErrActivityNotFound)
	}
	row := s.rows[i]
	return &row, nil
}

func (s *memActivityStore) ListByLead(ctx context.Context, leadID string) ([]models.ActivityRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ActivityRow{}
	for _, r := range s.rows {
		if r.LeadID == leadID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memActivityStore) List(ctx context.Context, limit int) ([]models.ActivityRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.ActivityRow(nil), s.rows...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memActivityStore) ListBetween(ctx context.Context, from, to time.Time) ([]models.ActivityRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windowed++
	out := []models.ActivityRow{}
	for _, r := range s.rows {
		when := r.CreatedAt
		if r.StartTime != nil {
			when = *r.StartTime
		}
		if !when.Before(from) && when.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memActivityStore) modify(id string, fn func(r *models.ActivityRow)) (*models.ActivityRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(id)
	if i < 0 {
		return nil, missing(repositories.ErrActivityNotFound)
	}
	fn(&s.rows[i])
	row := s.rows[i]
	return &row, nil
}

func (s *memActivityStore) Hide(ctx context.Context, id, memberID string) (*models.ActivityRow, error) {
	return s.modify(id, func(r *models.ActivityRow) {
		for _, m := range r.HiddenFor {
			if m == memberID {
				return
			}
		}
		r.HiddenFor = append(r.HiddenFor, memberID)
	})
}

func (s *memActivityStore) Unhide(ctx context.Context, id, memberID string) (*models.ActivityRow, error) {
	return s.modify(id, func(r *models.ActivityRow) {
		kept := r.HiddenFor[:0]
		for _, m := range r.HiddenFor {
			if m != memberID {
				kept = append(kept, m)
			}
		}
		r.HiddenFor = kept
	})
}

func (s *memActivityStore) SetUpdate(ctx context.Context, id, text string) (*models.ActivityRow, error) {
	return s.modify(id, func(r *models.ActivityRow) { r.Update = &text })
}

// inventory, orders, bookings

type memInventoryStore struct {
	mu    sync.Mutex
	items map[string]models.InventoryItem
}

func newMemInventoryStore(items ...models.InventoryItem) *memInventoryStore {
	s := &memInventoryStore{items: map[string]models.InventoryItem{}}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func (s *memInventoryStore) Create(ctx context.Context, item *models.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = *item
	return nil
}

func (s *memInventoryStore) GetByID(ctx context.Context, id string) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, missing(repositories.ErrInventoryNotFound)
	}
	return &it, nil
}

func (s *memInventoryStore) List(ctx context.Context) ([]models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.InventoryItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memInventoryStore) Replace(ctx context.Context, item *models.InventoryItem, expectedAvailable int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[item.ID]
	if !ok {
		return missing(repositories.ErrInventoryNotFound)
	}
	if cur.AvailableQuantity != expectedAvailable {
		return fmt.Errorf("inventory item %s: %w", item.ID, repositories.ErrStatusTransitionStale)
	}
	s.items[item.ID] = *item
	return nil
}

func (s *memInventoryStore) Decrement(ctx context.Context, id string, qty int, exhaustedStatus string) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, missing(repositories.ErrInventoryNotFound)
	}
	if it.AvailableQuantity < qty {
		return nil, fmt.Errorf("inventory item %s: %w", id, repositories.ErrInsufficientStock)
	}
	it.AvailableQuantity -= qty
	if it.AvailableQuantity == 0 {
		it.Status = exhaustedStatus
	}
	s.items[id] = it
	return &it, nil
}

func (s *memInventoryStore) Restore(ctx context.Context, id string, qty int) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, missing(repositories.ErrInventoryNotFound)
	}
	it.AvailableQuantity += qty
	if it.AvailableQuantity > it.Quantity {
		it.AvailableQuantity = it.Quantity
	}
	if it.AvailableQuantity > 0 && (it.Status == models.InventorySold || it.Status == models.InventoryBooked) {
		it.Status = models.InventoryAvailable
	}
	s.items[id] = it
	return &it, nil
}

func (s *memInventoryStore) available(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id].AvailableQuantity
}

type memOrderStore struct {
	mu     sync.Mutex
	orders map[string]models.Order
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: map[string]models.Order{}}
}

func (s *memOrderStore) Create(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = *order
	return nil
}

func (s *memOrderStore) GetByID(ctx context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, missing(repositories.ErrOrderNotFound)
	}
	return &o, nil
}

func (s *memOrderStore) List(ctx context.Context, status string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Order{}
	for _, o := range s.orders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *memOrderStore) Transition(ctx context.Context, id, from, to, actor string, at time.Time) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, missing(repositories.ErrOrderNotFound)
	}
	if o.Status != from {
		return nil, fmt.Errorf("order %s is not %s: %w", id, from, repositories.ErrStatusTransitionStale)
	}
	o.Status = to
	o.UpdatedAt = at
	switch to {
	case models.OrderApproved:
		o.ApprovedBy, o.ApprovedAt = actor, &at
	case models.OrderRejected:
		o.RejectedBy, o.RejectedAt = actor, &at
	case models.OrderPending:
		o.ApprovedBy, o.ApprovedAt = "", nil
	}
	s.orders[id] = o
	return &o, nil
}

type memBookingStore struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
	fail     error
}

func newMemBookingStore() *memBookingStore {
	return &memBookingStore{bookings: map[string]models.Booking{}}
}

func (s *memBookingStore) Create(ctx context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.bookings[b.ID] = *b
	return nil
}

func (s *memBookingStore) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, missing(repositories.ErrBookingNotFound)
	}
	return &b, nil
}

func (s *memBookingStore) List(ctx context.Context, inventoryItemID string) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Booking{}
	for _, b := range s.bookings {
		if inventoryItemID == "" || b.InventoryItemID == inventoryItemID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memBookingStore) Cancel(ctx context.Context, id string, at time.Time) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, missing(repositories.ErrBookingNotFound)
	}
	if b.Status != models.BookingConfirmed {
		return nil, fmt.Errorf("booking %s is not confirmed: %w", id, repositories.ErrStatusTransitionStale)
	}
	b.Status = models.BookingCancelled
	b.UpdatedAt = at
	s.bookings[id] = b
	return &b, nil
}

// members, sessions, permissions

type memMemberStore struct {
	mu      sync.Mutex
	members map[string]models.TeamMember
}

func newMemMemberStore() *memMemberStore {
	return &memMemberStore{members: map[string]models.TeamMember{}}
}

func (s *memMemberStore) GetByID(ctx context.Context, id string) (*models.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return nil, missing(repositories.ErrTeamMemberNotFound)
	}
	return &m, nil
}

func (s *memMemberStore) GetByEmail(ctx context.Context, email string) (*models.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.Email == email {
			return &m, nil
		}
	}
	return nil, missing(repositories.ErrTeamMemberNotFound)
}

func (s *memMemberStore) Create(ctx context.Context, m *models.TeamMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.members {
		if existing.Email == m.Email {
			return repositories.ErrDuplicateKey
		}
	}
	s.members[m.ID] = *m
	return nil
}

func (s *memMemberStore) List(ctx context.Context, activeOnly bool) ([]models.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.TeamMember{}
	for _, m := range s.members {
		if !activeOnly || m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memMemberStore) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.members[id]
	m.LastLoginAt = &at
	s.members[id] = m
	return nil
}

func (s *memMemberStore) setActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.members[id]
	m.IsActive = active
	s.members[id] = m
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[string]models.Session{}}
}

func (s *memSessionStore) Create(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

func (s *memSessionStore) GetByID(ctx context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, missing(repositories.ErrSessionNotFound)
	}
	return &sess, nil
}

func (s *memSessionStore) Revoke(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return missing(repositories.ErrSessionNotFound)
	}
	sess.IsRevoked = true
	sess.RevokedAt = &at
	s.sessions[id] = sess
	return nil
}

type memPermissionStore struct {
	perms map[string]models.FeaturePermission
	reads int
}

func newMemPermissionStore() *memPermissionStore {
	return &memPermissionStore{perms: map[string]models.FeaturePermission{}}
}

func (s *memPermissionStore) GetByRole(ctx context.Context, role string) (*models.FeaturePermission, error) {
	s.reads++
	p, ok := s.perms[role]
	if !ok {
		return nil, missing(repositories.ErrFeaturePermsNotFound)
	}
	return &p, nil
}

func (s *memPermissionStore) List(ctx context.Context) ([]models.FeaturePermission, error) {
	out := []models.FeaturePermission{}
	for _, p := range s.perms {
		out = append(out, p)
	}
	return out, nil
}

func (s *memPermissionStore) Upsert(ctx context.Context, perm *models.FeaturePermission) error {
	s.perms[perm.Role] = *perm
	return nil
}

// notes and todos follow the trash contract of the Mongo repositories:
// edits need an active row, restore and purge need a trashed one.

func stale(table, id string) error {
	return fmt.Errorf("%s %s: %w", table, id, repositories.ErrStatusTransitionStale)
}

type memNoteStore struct {
	notes map[string]models.Note
}

func newMemNoteStore() *memNoteStore {
	return &memNoteStore{notes: map[string]models.Note{}}
}

func (s *memNoteStore) Create(ctx context.Context, note *models.Note) error {
	s.notes[note.ID] = *note
	return nil
}

func (s *memNoteStore) GetByID(ctx context.Context, id string) (*models.Note, error) {
	n, ok := s.notes[id]
	if !ok {
		return nil, missing(repositories.ErrNoteNotFound)
	}
	return &n, nil
}

func (s *memNoteStore) list(trashed bool) []models.Note {
	out := []models.Note{}
	for _, n := range s.notes {
		if (n.DeletedAt != nil) == trashed {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memNoteStore) List(ctx context.Context) ([]models.Note, error) { return s.list(false), nil }

func (s *memNoteStore) ListTrash(ctx context.Context) ([]models.Note, error) { return s.list(true), nil }

func (s *memNoteStore) modify(id string, trashed bool, fn func(n *models.Note)) (*models.Note, error) {
	n, ok := s.notes[id]
	if !ok {
		return nil, missing(repositories.ErrNoteNotFound)
	}
	if (n.DeletedAt != nil) != trashed {
		return nil, stale(models.TableNotes, id)
	}
	fn(&n)
	s.notes[id] = n
	return &n, nil
}

func (s *memNoteStore) Update(ctx context.Context, id string, u models.NoteUpdate, at time.Time) (*models.Note, error) {
	return s.modify(id, false, func(n *models.Note) {
		if u.Title != nil {
			n.Title = *u.Title
		}
		if u.Content != nil {
			n.Content = *u.Content
		}
		if u.Tags != nil {
			n.Tags = *u.Tags
		}
		if u.Category != nil {
			n.Category = *u.Category
		}
		if u.Pinned != nil {
			n.Pinned = *u.Pinned
		}
		n.UpdatedAt = at
	})
}

func (s *memNoteStore) Trash(ctx context.Context, id string, at time.Time) (*models.Note, error) {
	return s.modify(id, false, func(n *models.Note) { n.DeletedAt = &at; n.UpdatedAt = at })
}

func (s *memNoteStore) Restore(ctx context.Context, id string, at time.Time) (*models.Note, error) {
	return s.modify(id, true, func(n *models.Note) { n.DeletedAt = nil; n.UpdatedAt = at })
}

func (s *memNoteStore) Purge(ctx context.Context, id string) (*models.Note, error) {
	n, err := s.modify(id, true, func(*models.Note) {})
	if err != nil {
		return nil, err
	}
	delete(s.notes, id)
	return n, nil
}

type memTodoStore struct {
	todos map[string]models.Todo
}

func newMemTodoStore() *memTodoStore {
	return &memTodoStore{todos: map[string]models.Todo{}}
}

func (s *memTodoStore) Create(ctx context.Context, todo *models.Todo) error {
	s.todos[todo.ID] = *todo
	return nil
}

func (s *memTodoStore) GetByID(ctx context.Context, id string) (*models.Todo, error) {
	t, ok := s.todos[id]
	if !ok {
		return nil, missing(repositories.ErrTodoNotFound)
	}
	return &t, nil
}

func (s *memTodoStore) list(trashed bool) []models.Todo {
	out := []models.Todo{}
	for _, t := range s.todos {
		if (t.DeletedAt != nil) == trashed {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memTodoStore) List(ctx context.Context) ([]models.Todo, error) { return s.list(false), nil }

func (s *memTodoStore) ListTrash(ctx context.Context) ([]models.Todo, error) { return s.list(true), nil }

func (s *memTodoStore) modify(id string, trashed bool, fn func(t *models.Todo)) (*models.Todo, error) {
	t, ok := s.todos[id]
	if !ok {
		return nil, missing(repositories.ErrTodoNotFound)
	}
	if (t.DeletedAt != nil) != trashed {
		return nil, stale(models.TableTodos, id)
	}
	fn(&t)
	s.todos[id] = t
	return &t, nil
}

func (s *memTodoStore) Update(ctx context.Context, id string, u models.TodoUpdate, at time.Time) (*models.Todo, error) {
	return s.modify(id, false, func(t *models.Todo) {
		if u.Title != nil {
			t.Title = *u.Title
		}
		if u.Description != nil {
			t.Description = *u.Description
		}
		if u.DueDate != nil {
			t.DueDate = u.DueDate
		}
		if u.Priority != nil {
			t.Priority = *u.Priority
		}
		if u.AssignedTo != nil {
			t.AssignedTo = *u.AssignedTo
		}
		t.UpdatedAt = at
	})
}

func (s *memTodoStore) SetCompleted(ctx context.Context, id string, completed bool, at time.Time) (*models.Todo, error) {
	return s.modify(id, false, func(t *models.Todo) {
		t.Completed = completed
		t.CompletedAt = nil
		if completed {
			t.CompletedAt = &at
		}
		t.UpdatedAt = at
	})
}

func (s *memTodoStore) Trash(ctx context.Context, id string, at time.Time) (*models.Todo, error) {
	return s.modify(id, false, func(t *models.Todo) { t.DeletedAt = &at; t.UpdatedAt = at })
}

func (s *memTodoStore) Restore(ctx context.Context, id string, at time.Time) (*models.Todo, error) {
	return s.modify(id, true, func(t *models.Todo) { t.DeletedAt = nil; t.UpdatedAt = at })
}

func (s *memTodoStore) Purge(ctx context.Context, id string) (*models.Todo, error) {
	t, err := s.modify(id, true, func(*models.Todo) {})
	if err != nil {
		return nil, err
	}
	delete(s.todos, id)
	return t, nil
}

// lookups and profiles

type memLookupStore struct {
	zones       []models.Zone
	sectors     []models.Sector
	zoneListing int
}

func (s *memLookupStore) ListZones(ctx context.Context) ([]models.Zone, error) {
	s.zoneListing++
	return append([]models.Zone{}, s.zones...), nil
}

func (s *memLookupStore) CreateZone(ctx context.Context, z *models.Zone) error {
	s.zones = append(s.zones, *z)
	return nil
}

func (s *memLookupStore) ListSectors(ctx context.Context, zoneID string) ([]models.Sector, error) {
	out := []models.Sector{}
	for _, sec := range s.sectors {
		if zoneID == "" || sec.ZoneID == zoneID {
			out = append(out, sec)
		}
	}
	return out, nil
}

func (s *memLookupStore) CreateSector(ctx context.Context, sec *models.Sector) error {
	s.sectors = append(s.sectors, *sec)
	return nil
}

type memProfileStore struct {
	profiles map[string]models.Profile
}

func newMemProfileStore() *memProfileStore {
	return &memProfileStore{profiles: map[string]models.Profile{}}
}

func (s *memProfileStore) Get(ctx context.Context, userID string) (*models.Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return models.DefaultProfile(userID), nil
	}
	return &p, nil
}

func (s *memProfileStore) SetColumns(ctx context.Context, userID, view string, visible []string, at time.Time) (*models.Profile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.Columns[view] = visible
	p.UpdatedAt = at
	s.profiles[userID] = *p
	return p, nil
}
