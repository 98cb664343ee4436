package services

import (
	"context"
	"database/sql"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/productkeeper/internal/common"
	"github.com/dmitrijs2005/productkeeper/internal/dbx"
	"github.com/dmitrijs2005/productkeeper/internal/server/models"
	productsrepo "github.com/dmitrijs2005/productkeeper/internal/server/repositories/products"
	sessionsrepo "github.com/dmitrijs2005/productkeeper/internal/server/repositories/sessions"
	usersrepo "github.com/dmitrijs2005/productkeeper/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type fakeUsersRepo struct {
	byEmail   map[string]*models.User
	created   *models.User
	createErr error
	getErr    error
	existsErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = "u-new"
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	f.created = u
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.byEmail[email]
	return ok, nil
}

type fakeSessionsRepo struct {
	rows      map[string]*models.Session
	createErr error
	findErr   error
	delErr    error
	finds     int
}

func (f *fakeSessionsRepo) Create(ctx context.Context, s *models.Session) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.rows == nil {
		f.rows = map[string]*models.Session{}
	}
	f.rows[s.ID] = s
	return nil
}

func (f *fakeSessionsRepo) Find(ctx context.Context, id string) (*models.Session, error) {
	f.finds++
	if f.findErr != nil {
		return nil, f.findErr
	}
	if s, ok := f.rows[id]; ok {
		return s, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeSessionsRepo) Delete(ctx context.Context, id string) error {
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.rows, id)
	return nil
}

type fakeProductsRepo struct {
	items     []*models.Product
	createErr error
	listErr   error
	getErr    error
	delErr    error
	deleted   []string
}

func (f *fakeProductsRepo) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	p.ID = "11111111-1111-1111-1111-111111111111"
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.items = append(f.items, p)
	return p, nil
}

func (f *fakeProductsRepo) List(ctx context.Context) ([]*models.Product, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]*models.Product{}, f.items...), nil
}

func (f *fakeProductsRepo) GetByID(ctx context.Context, id string) (*models.Product, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, p := range f.items {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeProductsRepo) Delete(ctx context.Context, id string) error {
	if f.delErr != nil {
		return f.delErr
	}
	for i, p := range f.items {
		if p.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return common.ErrorNotFound
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	s *fakeSessionsRepo
	p *fakeProductsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: &fakeUsersRepo{byEmail: map[string]*models.User{}}, s: &fakeSessionsRepo{rows: map[string]*models.Session{}}, p: &fakeProductsRepo{}}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Sessions(db dbx.DBTX) sessionsrepo.Repository { return m.s }
func (m *fakeRepoManager) Products(db dbx.DBTX) productsrepo.Repository { return m.p }

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]string
	saveErr error
	delErr  error
	urlErr  error
	deleted []string
}

func newFakeStorage() *fakeStorage { return &fakeStorage{objects: map[string]string{}} }

func (f *fakeStorage) Save(ctx context.Context, key, contentType string, r io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = contentType + ":" + string(b)
	return nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) URL(ctx context.Context, key string) (string, error) {
	if f.urlErr != nil {
		return "", f.urlErr
	}
	return "http://images/" + key, nil
}

type fakeCache struct {
	entries   map[string]string
	revoked   map[string]bool
	getErr    error
	setErr    error
	revokeErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}, revoked: map[string]bool{}}
}

func (f *fakeCache) Get(ctx context.Context, id string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.entries[id]
	return v, ok && !f.revoked[id], nil
}

func (f *fakeCache) Set(ctx context.Context, id, uid string, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[id] = uid
	return nil
}

func (f *fakeCache) Revoke(ctx context.Context, id string, ttl time.Duration) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	delete(f.entries, id)
	f.revoked[id] = true
	return nil
}

// findHookSessions runs afterFind once a row has been read, to interleave a
// concurrent call between the read and the cache write-back.
type findHookSessions struct {
	*fakeSessionsRepo
	afterFind func()
}

func (f *findHookSessions) Find(ctx context.Context, id string) (*models.Session, error) {
	s, err := f.fakeSessionsRepo.Find(ctx, id)
	if f.afterFind != nil {
		hook := f.afterFind
		f.afterFind = nil
		hook()
	}
	return s, err
}

type hookedRepoManager struct {
	*fakeRepoManager
	sessions *findHookSessions
}

func (m *hookedRepoManager) Sessions(db dbx.DBTX) sessionsrepo.Repository { return m.sessions }
