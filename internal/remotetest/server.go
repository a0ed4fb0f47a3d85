// Package remotetest hosts an in-process stand-in for the remote
// catalog/auth service, used by client tests.
package remotetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/catalog"
)

// SigningSecret signs the fixture tokens. Tests that want to inspect token
// claims parse with the same secret.
const SigningSecret = "storefront-test-secret"

// Server wraps an httptest.Server speaking the remote service's contract.
type Server struct {
	*httptest.Server

	// Credentials accepted by /auth/login.
	Users map[string]string
	// Fixture catalog served by the product routes.
	Products []catalog.Product
}

// New starts a fixture server with a small default catalog and one account
// (admin/admin). Callers own the returned server and must Close it.
func New() *Server {
	s := &Server{
		Users:    map[string]string{"admin": "admin"},
		Products: DefaultProducts(),
	}

	r := chi.NewRouter()
	r.Get("/products", s.handleProducts)
	r.Get("/products/categories", s.handleCategories)
	r.Get("/products/category/{category}", s.handleProductsByCategory)
	r.Get("/products/{id}", s.handleProductByID)
	r.Post("/auth/login", s.handleLogin)

	s.Server = httptest.NewServer(r)
	return s
}

// DefaultProducts returns the fixture catalog: stable ids, two categories.
func DefaultProducts() []catalog.Product {
	return []catalog.Product{
		{
			ID:          1,
			Title:       "Fjallraven Backpack",
			Price:       decimal.RequireFromString("109.95"),
			Description: "Fits 15 inch laptops",
			Category:    "men's clothing",
			Image:       "https://img.example/backpack.jpg",
			Rating:      &catalog.Rating{Rate: 3.9, Count: 120},
		},
		{
			ID:          2,
			Title:       "Slim Fit T-Shirt",
			Price:       decimal.RequireFromString("22.30"),
			Description: "Slim-fitting style",
			Category:    "men's clothing",
			Image:       "https://img.example/tshirt.jpg",
			Rating:      &catalog.Rating{Rate: 4.1, Count: 259},
		},
		{
			ID:          3,
			Title:       "Gold Plated Earrings",
			Price:       decimal.RequireFromString("10.00"),
			Description: "Rose gold plated",
			Category:    "jewelery",
			Image:       "https://img.example/earrings.jpg",
		},
	}
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Products)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	seen := map[string]bool{}
	categories := []string{}
	for _, p := range s.Products {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleProductsByCategory(w http.ResponseWriter, r *http.Request) {
	category, err := url.PathUnescape(chi.URLParam(r, "category"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad category"})
		return
	}
	matched := []catalog.Product{}
	for _, p := range s.Products {
		if p.Category == category {
			matched = append(matched, p)
		}
	}
	writeJSON(w, http.StatusOK, matched)
}

func (s *Server) handleProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad id"})
		return
	}
	for _, p := range s.Products {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "product not found"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad payload"})
		return
	}
	password, ok := s.Users[creds.Username]
	if !ok || password != creds.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
		return
	}

	claims := jwt.RegisteredClaims{
		Subject:   creds.Username,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(SigningSecret))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "signing token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
