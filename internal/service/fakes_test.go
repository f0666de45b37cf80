package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/natours/api/internal/model"
	"github.com/natours/api/internal/pipeline"
	"github.com/natours/api/internal/query"
	ctxutil "github.com/natours/api/pkg/context"
	"gorm.io/gorm"
)

// fakeUsers is an in-memory user table. Inactive users are invisible, like
// the soft-delete filter in the real store.
type fakeUsers struct {
	mu     sync.Mutex
	byID   map[uint]*model.User
	nextID uint
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[uint]*model.User{}, nextID: 1}
}

func (f *fakeUsers) add(u model.User) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = f.nextID
	f.nextID++
	f.byID[u.ID] = &u
	out := u
	return &out
}

func (f *fakeUsers) find(match func(*model.User) bool) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Active && match(u) {
			out := *u
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) raw(id uint) model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byID[id]
}

func (f *fakeUsers) Get(_ context.Context, id uint, _ ...pipeline.Scope) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.ID == id })
}

func (f *fakeUsers) List(_ context.Context, _ query.Descriptor, _ ...pipeline.Scope) ([]model.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.User{}
	for _, u := range f.byID {
		if u.Active {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeUsers) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = f.nextID
	f.nextID++
	stored := *user
	f.byID[user.ID] = &stored
	return nil
}

func (f *fakeUsers) update(id uint, apply func(*model.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok || !u.Active {
		return gorm.ErrRecordNotFound
	}
	apply(u)
	u.Version++
	return nil
}

func (f *fakeUsers) Update(ctx context.Context, id uint, changes map[string]interface{}, _ ...pipeline.Scope) (*model.User, error) {
	err := f.update(id, func(u *model.User) {
		if v, ok := changes["name"].(string); ok {
			u.Name = v
		}
		if v, ok := changes["email"].(string); ok {
			u.Email = v
		}
		if v, ok := changes["role"].(string); ok {
			u.Role = model.Role(v)
		}
	})
	if err != nil {
		return nil, err
	}
	return f.Get(ctx, id)
}

func (f *fakeUsers) Delete(_ context.Context, id uint, _ ...pipeline.Scope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; !ok || !u.Active {
		return gorm.ErrRecordNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUsers) Deactivate(_ context.Context, id uint) error {
	return f.update(id, func(u *model.User) { u.Active = false })
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return f.find(func(u *model.User) bool { return u.Email == email })
}

func (f *fakeUsers) GetByResetToken(_ context.Context, tokenHash string, now time.Time) (*model.User, error) {
	return f.find(func(u *model.User) bool {
		return u.PasswordResetToken != nil && *u.PasswordResetToken == tokenHash &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now)
	})
}

func (f *fakeUsers) SetResetToken(_ context.Context, id uint, tokenHash *string, expiresAt *time.Time) error {
	return f.update(id, func(u *model.User) {
		u.PasswordResetToken = tokenHash
		u.PasswordResetExpires = expiresAt
	})
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uint, hashedPassword string, changedAt time.Time) error {
	return f.update(id, func(u *model.User) {
		u.Password = hashedPassword
		u.PasswordChangedAt = &changedAt
		u.ClearResetToken()
	})
}

func (f *fakeUsers) RedeemResetToken(_ context.Context, id uint, tokenHash string, now time.Time, hashedPassword string, changedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok || !u.Active || u.PasswordResetToken == nil || *u.PasswordResetToken != tokenHash ||
		u.PasswordResetExpires == nil || !u.PasswordResetExpires.After(now) {
		return gorm.ErrRecordNotFound
	}
	u.Password = hashedPassword
	u.PasswordChangedAt = &changedAt
	u.ClearResetToken()
	u.Version++
	return nil
}

type sentMail struct {
	kind string
	to   string
	url  string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendWelcome(_ context.Context, to, _, url string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{kind: "welcome", to: to, url: url})
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, _, url string, _ time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{kind: "reset", to: to, url: url})
	return nil
}

// fakeTours records what TourService and ReviewService ask of the store.
type fakeTours struct {
	tours     map[uint]*model.Tour
	nextID    uint
	changes   map[string]interface{}
	guides    []uint
	replaced  bool
	stats     []model.TourStats
	schedules []model.Tour
	refreshed []uint
	guideErr  error
	lists     int
	gets      int
}

func newFakeTours(tours ...model.Tour) *fakeTours {
	f := &fakeTours{tours: map[uint]*model.Tour{}, nextID: 1}
	for i := range tours {
		t := tours[i]
		if t.ID == 0 {
			t.ID = f.nextID
		}
		if t.ID >= f.nextID {
			f.nextID = t.ID + 1
		}
		f.tours[t.ID] = &t
	}
	return f
}

func (f *fakeTours) List(_ context.Context, _ query.Descriptor, _ ...pipeline.Scope) ([]model.Tour, int64, error) {
	f.lists++
	out := []model.Tour{}
	for _, t := range f.tours {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeTours) Get(_ context.Context, id uint, _ ...pipeline.Scope) (*model.Tour, error) {
	f.gets++
	t, ok := f.tours[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *t
	return &out, nil
}

func (f *fakeTours) Create(_ context.Context, tour *model.Tour) error {
	tour.ID = f.nextID
	f.nextID++
	stored := *tour
	f.tours[tour.ID] = &stored
	return nil
}

func (f *fakeTours) Update(ctx context.Context, id uint, changes map[string]interface{}, _ ...pipeline.Scope) (*model.Tour, error) {
	return f.UpdateTour(ctx, id, changes, nil)
}

// UpdateTour applies the write as one unit; a failing guide list leaves the
// tour untouched, like the transaction in the real store.
func (f *fakeTours) UpdateTour(_ context.Context, id uint, changes map[string]interface{}, guideIDs *[]uint) (*model.Tour, error) {
	t, ok := f.tours[id]
	if !ok || t.SecretTour {
		return nil, gorm.ErrRecordNotFound
	}
	if guideIDs != nil && f.guideErr != nil {
		return nil, f.guideErr
	}
	f.changes = changes
	if v, ok := changes["name"].(string); ok {
		t.Name = v
	}
	if v, ok := changes["slug"].(string); ok {
		t.Slug = v
	}
	if v, ok := changes["price"].(float64); ok {
		t.Price = v
	}
	if v, ok := changes["secret_tour"].(bool); ok {
		t.SecretTour = v
	}
	if guideIDs != nil {
		f.replaced = true
		f.guides = *guideIDs
	}
	out := *t
	return &out, nil
}

func (f *fakeTours) Delete(_ context.Context, id uint, _ ...pipeline.Scope) error {
	if _, ok := f.tours[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.tours, id)
	return nil
}

func (f *fakeTours) Stats(_ context.Context, _ float64) ([]model.TourStats, error) {
	return append([]model.TourStats(nil), f.stats...), nil
}

func (f *fakeTours) Schedules(_ context.Context) ([]model.Tour, error) {
	return f.schedules, nil
}

func (f *fakeTours) RefreshRatings(_ context.Context, tourID uint) error {
	f.refreshed = append(f.refreshed, tourID)
	return nil
}

// withUser returns a request context carrying user as the identity.
func withUser(user *model.User) context.Context {
	return ctxutil.WithRequestContext(context.Background(), &ctxutil.RequestContext{
		RequestID: "test-request",
		User:      user,
	})
}
