// Package memstore is an in-memory implementation of the store interfaces.
// It backs handler and router tests and local runs without MongoDB.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/dentaheal/internal/models"
	"github.com/harentsoaR/dentaheal/internal/store"
)

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrInvalidID
	}
	return oid, nil
}

type Users struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
	// Err, when set, is returned by every call.
	Err error
}

func NewUsers(seed ...models.User) *Users {
	u := &Users{users: make(map[primitive.ObjectID]models.User)}
	for _, user := range seed {
		if user.ID.IsZero() {
			user.ID = primitive.NewObjectID()
		}
		u.users[user.ID] = user
	}
	return u
}

func (u *Users) FindByID(_ context.Context, id string) (*models.User, error) {
	if u.Err != nil {
		return nil, u.Err
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	user, ok := u.users[oid]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (u *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u.Err != nil {
		return nil, u.Err
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	for _, user := range u.users {
		if strings.EqualFold(user.Email, email) {
			found := user
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (u *Users) Create(_ context.Context, user *models.User) error {
	if u.Err != nil {
		return u.Err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, existing := range u.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return store.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	u.users[user.ID] = *user
	return nil
}

func (u *Users) List(context.Context) ([]models.User, error) {
	if u.Err != nil {
		return nil, u.Err
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]models.User, 0, len(u.users))
	for _, user := range u.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (u *Users) UpdateProfile(_ context.Context, id, fullName, phone string) error {
	return u.update(id, func(user *models.User) {
		if fullName != "" {
			user.FullName = fullName
		}
		if phone != "" {
			user.Phone = phone
		}
	})
}

func (u *Users) SetActive(_ context.Context, id string, active bool) error {
	return u.update(id, func(user *models.User) { user.Active = active })
}

func (u *Users) SetRole(_ context.Context, id, role string) error {
	return u.update(id, func(user *models.User) { user.Role = role })
}

func (u *Users) SetPasswordHash(_ context.Context, id, hash string) error {
	return u.update(id, func(user *models.User) { user.PasswordHash = hash })
}

func (u *Users) update(id string, fn func(*models.User)) error {
	if u.Err != nil {
		return u.Err
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[oid]
	if !ok {
		return store.ErrNotFound
	}
	fn(&user)
	user.UpdatedAt = time.Now().UTC()
	u.users[oid] = user
	return nil
}

type Settings struct {
	mu      sync.Mutex
	current *models.ClinicSettings
	Err     error
}

func NewSettings(initial *models.ClinicSettings) *Settings {
	return &Settings{current: initial}
}

func (s *Settings) Get(context.Context) (*models.ClinicSettings, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, store.ErrNotFound
	}
	cp := *s.current
	return &cp, nil
}

func (s *Settings) Replace(_ context.Context, next *models.ClinicSettings) (*models.ClinicSettings, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := &models.ClinicSettings{}
	if s.current != nil {
		cp := *s.current
		prev = &cp
	}
	cp := *next
	s.current = &cp
	return prev, nil
}

type Appointments struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]models.Appointment
	Err   error
}

func NewAppointments(seed ...models.Appointment) *Appointments {
	a := &Appointments{items: make(map[primitive.ObjectID]models.Appointment)}
	for _, apt := range seed {
		if apt.ID.IsZero() {
			apt.ID = primitive.NewObjectID()
		}
		a.items[apt.ID] = apt
	}
	return a
}

func (a *Appointments) Create(_ context.Context, apt *models.Appointment) error {
	if a.Err != nil {
		return a.Err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if apt.ID.IsZero() {
		apt.ID = primitive.NewObjectID()
	}
	a.items[apt.ID] = *apt
	return nil
}

func (a *Appointments) FindByID(_ context.Context, id string) (*models.Appointment, error) {
	if a.Err != nil {
		return nil, a.Err
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	apt, ok := a.items[oid]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &apt, nil
}

func (a *Appointments) List(_ context.Context, f models.AppointmentFilter) ([]models.Appointment, error) {
	if a.Err != nil {
		return nil, a.Err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]models.Appointment, 0)
	for _, apt := range a.items {
		if f.PatientID != nil && apt.PatientID != *f.PatientID {
			continue
		}
		if !f.From.IsZero() && apt.StartTime.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && apt.StartTime.After(f.To) {
			continue
		}
		if f.Status != "" && apt.Status != f.Status {
			continue
		}
		out = append(out, apt)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.NewestLast {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out, nil
}

func (a *Appointments) Update(_ context.Context, id string, u models.AppointmentUpdate) error {
	return a.update(id, func(apt *models.Appointment) {
		if u.StartTime != nil {
			apt.StartTime = *u.StartTime
		}
		if u.EndTime != nil {
			apt.EndTime = *u.EndTime
		}
		if u.Service != nil {
			apt.Service = *u.Service
		}
		if u.Status != nil {
			apt.Status = *u.Status
		}
	})
}

func (a *Appointments) SetStatus(_ context.Context, id, status string) error {
	return a.update(id, func(apt *models.Appointment) { apt.Status = status })
}

func (a *Appointments) update(id string, fn func(*models.Appointment)) error {
	if a.Err != nil {
		return a.Err
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	apt, ok := a.items[oid]
	if !ok {
		return store.ErrNotFound
	}
	fn(&apt)
	a.items[oid] = apt
	return nil
}

// AuditLogs keeps entries in insertion order.
type AuditLogs struct {
	mu      sync.Mutex
	entries []models.AuditEntry
	Err     error
}

func NewAuditLogs() *AuditLogs { return &AuditLogs{} }

func (l *AuditLogs) Insert(_ context.Context, entry *models.AuditEntry) error {
	if l.Err != nil {
		return l.Err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	l.entries = append(l.entries, *entry)
	return nil
}

func (l *AuditLogs) List(_ context.Context, f models.AuditFilter) ([]models.AuditEntry, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.AuditEntry, 0)
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.EntityType != "" && e.EntityType != f.EntityType {
			continue
		}
		if f.EntityID != "" && e.EntityID != f.EntityID {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && int64(len(out)) >= f.Limit {
			break
		}
	}
	return out, nil
}

// Ping makes the in-memory backend usable as a readiness dependency.
type Ping struct{ Err error }

func (p Ping) Ping(context.Context) error { return p.Err }

// Entries returns a copy of everything inserted so far, oldest first.
func (l *AuditLogs) Entries() []models.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
