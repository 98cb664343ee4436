package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return NewHTTPClient(ts.URL+"/", 5*time.Second)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRegister(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/register", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var in RegisterInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "ada@example.com", in.Email)
		assert.Equal(t, "Secret1", in.Password)

		writeJSON(w, http.StatusCreated, map[string]any{
			"status": "success", "code": 201, "message": "User created successfully",
			"user": map[string]any{"id": "u1", "email": in.Email, "firstname": in.FirstName},
		})
	})

	u, err := c.Register(context.Background(), RegisterInput{FirstName: "Ada", LastName: "L", Email: "ada@example.com", Password: "Secret1"})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "Ada", u.FirstName)
}

func TestRegister_ValidationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status": "error", "code": 400, "message": "Validation failed",
			"errors": map[string][]string{"password": {"The password format is invalid."}, "email": {"The email has already been taken."}},
		})
	})

	_, err := c.Register(context.Background(), RegisterInput{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Code)
	assert.Equal(t, "400 Validation failed; email: The email has already been taken.; password: The password format is invalid.", apiErr.Error())
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestLogin_KeepsTokenForAuthedCalls(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			writeJSON(w, http.StatusOK, map[string]any{
				"status": "success", "code": 200, "message": "User signed in successfully",
				"user":  map[string]any{"id": "u1", "email": "ada@example.com"},
				"token": "tok", "token_type": "Bearer", "expires_at": time.Now().Add(time.Hour),
			})
		case "/user":
			if r.Header.Get("Authorization") != "Bearer tok" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"status": "error", "code": 401, "message": "Unauthenticated."})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"id": "u1", "email": "ada@example.com"})
		default:
			http.NotFound(w, r)
		}
	})

	s, err := c.Login(context.Background(), "ada@example.com", []byte("Secret1"))
	require.NoError(t, err)
	assert.Equal(t, "tok", s.Token)
	assert.Equal(t, "Bearer", s.TokenType)
	assert.Equal(t, "tok", c.Token())

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"status": "error", "code": 401, "message": "Invalid credentials"})
	})

	_, err := c.Login(context.Background(), "ada@example.com", []byte("bad"))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, c.Token())
}

func TestAuthedCallWithoutLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	})

	_, err := c.ListProducts(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestLogout_DropsToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/logout", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"status": "error", "code": 500, "message": "User sign out failed", "error": "boom"})
	})
	c.setToken("tok")

	err := c.Logout(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "500 User sign out failed: boom", apiErr.Error())
	assert.Empty(t, c.Token())
}

func TestListProducts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success", "code": 200, "message": "Products fetched successfully",
			"products": []map[string]any{{"id": "p1", "name": "Mug", "price": "9.50"}},
		})
	})
	c.setToken("tok")

	list, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Mug", list[0].Name)
	assert.Equal(t, "9.50", list[0].Price)
}

func TestCreateProduct_SendsMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/create-product", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Mug", r.FormValue("name"))
		assert.Equal(t, "9.50", r.FormValue("price"))

		f, fh, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "mug.png", fh.Filename)
		assert.Equal(t, "png", string(b))

		writeJSON(w, http.StatusCreated, map[string]any{
			"status": "success", "code": 201, "message": "Product created successfully",
			"product": map[string]any{"id": "p1", "name": "Mug", "user_id": "u1"},
		})
	})
	c.setToken("tok")

	p, err := c.CreateProduct(context.Background(), ProductInput{Name: "Mug", Description: "Blue", Price: "9.50"}, "mug.png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "u1", p.UserID)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/products/p%201", r.URL.EscapedPath())
		writeJSON(w, http.StatusNotFound, map[string]any{"status": "error", "code": 404, "message": "Product not found"})
	})
	c.setToken("tok")

	_, err := c.DeleteProduct(context.Background(), "p 1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
}

func TestNonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := c.Register(context.Background(), RegisterInput{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "502 Bad Gateway", apiErr.Error())
}

func TestUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()
	c := NewHTTPClient(ts.URL, time.Second)

	_, err := c.Register(context.Background(), RegisterInput{})
	assert.ErrorIs(t, err, ErrUnavailable)
}
