package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/productkeeper/internal/common"
	"github.com/dmitrijs2005/productkeeper/internal/netx"
)

type Client interface {
	Register(ctx context.Context, in RegisterInput) (*User, error)
	Login(ctx context.Context, email string, password []byte) (*Session, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*User, error)
	ListProducts(ctx context.Context) ([]Product, error)
	CreateProduct(ctx context.Context, in ProductInput, imageName string, image io.Reader) (*Product, error)
	DeleteProduct(ctx context.Context, id string) (*Product, error)
}

type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) setToken(t string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = t
}

type errorEnvelope struct {
	Status  string              `json:"status"`
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

// do sends one request and decodes a 2xx body into out. Non-2xx responses
// are returned as *APIError.
func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, authed bool, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if authed {
		token := c.Token()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env errorEnvelope
		if err := json.Unmarshal(data, &env); err != nil || env.Message == "" {
			return &APIError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return &APIError{Code: resp.StatusCode, Message: env.Message, Detail: env.Error, Fields: env.Errors}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in any, authed bool, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, authed, out)
}

func (c *HTTPClient) Register(ctx context.Context, in RegisterInput) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/register", in, false, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login authenticates and keeps the returned token for later calls.
func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) (*Session, error) {
	in := map[string]string{"email": email, "password": string(password)}

	var out Session
	if err := c.doJSON(ctx, http.MethodPost, "/login", in, false, &out); err != nil {
		return nil, err
	}
	c.setToken(out.Token)
	return &out, nil
}

// Logout revokes the current token. The local token is dropped even when
// the server call fails.
func (c *HTTPClient) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/logout", nil, true, nil)
	c.setToken("")
	return err
}

func (c *HTTPClient) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.doJSON(ctx, http.MethodGet, "/user", nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListProducts(ctx context.Context) ([]Product, error) {
	var out struct {
		Products []Product `json:"products"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/products", nil, true, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (c *HTTPClient) CreateProduct(ctx context.Context, in ProductInput, imageName string, image io.Reader) (*Product, error) {
	body, contentType, err := netx.MultipartBody(map[string]string{
		"name":        in.Name,
		"description": in.Description,
		"price":       in.Price,
	}, "image", imageName, image)
	if err != nil {
		return nil, fmt.Errorf("encode form: %w", err)
	}

	var out struct {
		Product Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodPost, "/create-product", body, contentType, true, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

func (c *HTTPClient) DeleteProduct(ctx context.Context, id string) (*Product, error) {
	var out struct {
		Product Product `json:"product"`
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, true, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}
