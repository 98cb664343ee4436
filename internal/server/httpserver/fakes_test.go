package httpserver

import (
	"context"
	"fmt"
	"mime/multipart"
	"sync"
	"time"

	"github.com/dmitrijs2005/productkeeper/internal/common"
	"github.com/dmitrijs2005/productkeeper/internal/server/auth"
	"github.com/dmitrijs2005/productkeeper/internal/server/models"
	"github.com/dmitrijs2005/productkeeper/internal/server/services"
	"github.com/dmitrijs2005/productkeeper/internal/server/validation"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type fakeUsers struct {
	mu        sync.Mutex
	seq       int
	users     map[string]*models.User
	passwords map[string]string
	tokens    map[string]auth.Identity

	registerErr error
	loginErr    error
	logoutErr   error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users:     make(map[string]*models.User),
		passwords: make(map[string]string),
		tokens:    make(map[string]auth.Identity),
	}
}

func (f *fakeUsers) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.registerErr != nil {
		return nil, f.registerErr
	}
	errs := &validation.Errors{}
	if req.Email == "" {
		errs.Add("email", "The email field is required.")
	}
	if _, ok := f.users[req.Email]; ok {
		errs.Add("email", "The email has already been taken.")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	f.seq++
	u := &models.User{
		ID:           fmt.Sprintf("user-%d", f.seq),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: "hash:" + req.Password,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.users[req.Email] = u
	f.passwords[req.Email] = req.Password
	return u, nil
}

func (f *fakeUsers) Login(ctx context.Context, req models.LoginRequest) (*services.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.loginErr != nil {
		return nil, f.loginErr
	}
	u, ok := f.users[req.Email]
	if !ok || f.passwords[req.Email] != req.Password {
		return nil, common.ErrorUnauthorized
	}

	f.seq++
	token := fmt.Sprintf("token-%d", f.seq)
	expires := time.Now().Add(time.Hour)
	f.tokens[token] = auth.Identity{UserID: u.ID, SessionID: fmt.Sprintf("session-%d", f.seq), ExpiresAt: expires}
	return &services.LoginResult{User: u, Token: token, ExpiresAt: expires}, nil
}

func (f *fakeUsers) Logout(ctx context.Context, id auth.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.logoutErr != nil {
		return f.logoutErr
	}
	for tok, ident := range f.tokens {
		if ident.SessionID == id.SessionID {
			delete(f.tokens, tok)
		}
	}
	return nil
}

func (f *fakeUsers) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, ok := f.tokens[token]
	if !ok {
		return auth.Identity{}, common.ErrTokenRevoked
	}
	return id, nil
}

func (f *fakeUsers) CurrentUser(ctx context.Context, id auth.Identity) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.ID == id.UserID {
			return u, nil
		}
	}
	return nil, common.ErrorUnauthorized
}

type fakeProducts struct {
	mu    sync.Mutex
	seq   int
	items []models.PublicProduct

	listErr   error
	createErr error
	deleteErr error
}

func (f *fakeProducts) Create(ctx context.Context, id auth.Identity, req models.CreateProductRequest, image *multipart.FileHeader) (models.PublicProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	errs := &validation.Errors{}
	if req.Name == "" {
		errs.Add("name", "The name field is required.")
	}
	validation.Image(errs, "image", image, validation.DefaultMaxImageSize)
	if err := errs.Err(); err != nil {
		return models.PublicProduct{}, err
	}
	if f.createErr != nil {
		return models.PublicProduct{}, f.createErr
	}

	f.seq++
	p := models.PublicProduct{
		ID:          fmt.Sprintf("product-%d", f.seq),
		Name:        req.Name,
		UserID:      id.UserID,
		Description: req.Description,
		Price:       req.Price,
		Image:       "products/" + image.Filename,
	}
	f.items = append(f.items, p)
	return p, nil
}

func (f *fakeProducts) List(ctx context.Context) ([]models.PublicProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.PublicProduct, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeProducts) Delete(ctx context.Context, id auth.Identity, productID string) (models.PublicProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return models.PublicProduct{}, f.deleteErr
	}
	for i, p := range f.items {
		if p.ID == productID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return p, nil
		}
	}
	return models.PublicProduct{}, common.ErrorNotFound
}

func (f *fakeProducts) Update(ctx context.Context, id auth.Identity, productID string) error {
	return common.ErrorNotImplemented
}
