package service

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"propertyhub_backend/internal/model"
	"propertyhub_backend/internal/testutils"
	"propertyhub_backend/pkg/storage"
)

type fixture struct {
	db        *gorm.DB
	root      string
	store     *storage.Local
	cleanup   *CleanupService
	cache     *memoryCache
	props     *PropertyService
	media     *MediaService
	stats     *StatsService
	owner     model.User
	other     model.User
	admin     model.User
	amenities []model.Amenity
}

// memoryCache is an in-process ResultCache.
type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) GetJSON(_ context.Context, key string, dst interface{}) bool {
	data, ok := m.entries[key]
	return ok && json.Unmarshal(data, dst) == nil
}

func (m *memoryCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) {
	if data, err := json.Marshal(value); err == nil {
		m.entries[key] = data
	}
}

func (m *memoryCache) DeletePrefix(_ context.Context, prefix string) {
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
}

// cached reports whether any entry starting with prefix is stored.
func (m *memoryCache) cached(prefix string) bool {
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutils.SetupDB(t)
	root := t.TempDir()
	store := storage.NewLocal(root, "/uploads", false)
	c := newMemoryCache()
	cleanup := NewCleanupService(db, store, quietLogger(), 3, 50)

	f := &fixture{
		db:      db,
		root:    root,
		store:   store,
		cleanup: cleanup,
		cache:   c,
		props:   NewPropertyService(db, store, cleanup, c, quietLogger(), model.PropertyStatusDraft),
		media:   NewMediaService(db, store, cleanup, c, quietLogger()),
		stats:   NewStatsService(db, c, quietLogger()),
		owner:   testutils.CreateUser(t, db, "owner@example.com", model.RoleUser),
		other:   testutils.CreateUser(t, db, "other@example.com", model.RoleUser),
		admin:   testutils.CreateUser(t, db, "admin@example.com", model.RoleAdmin),
	}

	for _, name := range []string{"Parking", "Lift", "Gym"} {
		a := model.Amenity{Name: name}
		if err := db.Create(&a).Error; err != nil {
			t.Fatalf("create amenity: %v", err)
		}
		f.amenities = append(f.amenities, a)
	}
	return f
}

func bg() context.Context {
	return context.Background()
}

func ptr[T any](v T) *T {
	return &v
}

func baseInput(title string) PropertyInput {
	return PropertyInput{
		Title:        ptr(title),
		Description:  ptr("A bright home close to the market"),
		PropertyType: ptr(model.PropertyTypeApartment),
		ListingType:  ptr(model.ListingTypeSale),
		Price:        ptr(250000.0),
		Bedroom:      ptr(2),
		Bathroom:     ptr(1),
	}
}

func publishedInput(title, city string) PropertyInput {
	in := baseInput(title)
	in.Status = ptr(model.PropertyStatusPublished)
	in.Location = &LocationInput{City: city, Locality: "Central"}
	return in
}

func images(t *testing.T, n int) []*multipart.FileHeader {
	t.Helper()
	files := make([]*multipart.FileHeader, n)
	for i := range files {
		files[i] = testutils.FileHeader(t, "images", "photo.png", testutils.PNG(t))
	}
	return files
}

func (f *fixture) as(u model.User) Actor {
	return Actor{ID: u.ID, Admin: u.Role == model.RoleAdmin}
}

func (f *fixture) create(t *testing.T, in PropertyInput, uploads Uploads) *model.Property {
	t.Helper()
	p, err := f.props.CreateProperty(bg(), f.as(f.owner), in, uploads)
	if err != nil {
		t.Fatalf("CreateProperty: %v", err)
	}
	return p
}

// feature marks a listing featured the way an admin would.
func (f *fixture) feature(t *testing.T, id uint) *model.Property {
	t.Helper()
	p, err := f.props.UpdateProperty(bg(), id, f.as(f.admin), PropertyInput{IsFeatured: ptr(true)}, Uploads{})
	if err != nil {
		t.Fatalf("feature property %d: %v", id, err)
	}
	return p
}

// storedFiles counts the regular files under the upload root.
func (f *fixture) storedFiles(t *testing.T) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk upload root: %v", err)
	}
	return n
}

func (f *fixture) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(m).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", m, err)
	}
	return n
}

func rawJSON(s string) json.RawMessage {
	return json.RawMessage(s)
}

func requireCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	e, ok := AsError(err)
	if !ok || e.Code != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}
