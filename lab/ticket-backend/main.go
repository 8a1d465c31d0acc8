// ticket-backend is a toy in-memory ticketing API for local development.
// It serves responses alternating between the two historical field shapes
// (snake_case and camelCase) so client normalization gets exercised, and
// issues short-lived access tokens so the refresh path gets exercised too.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	demoEmail    = "door@housepass.test"
	demoPassword = "letmein"
)

type server struct {
	mu            sync.Mutex
	accessTokens  map[string]time.Time
	refreshTokens map[string]bool
	orders        map[string]*order
	checkins      []map[string]any
	requests      int
	tokenTTL      time.Duration
}

type order struct {
	ID            int
	OrderNumber   string
	EventID       string
	EventTitle    string
	CustomerName  string
	CustomerEmail string
	Status        string
	Quantity      int
	TotalCents    int64
	CheckedIn     bool
	CheckedInAt   *time.Time
}

func main() {
	port := getenv("PORT", "3001")
	ttl := 30 * time.Second
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			ttl = d
		}
	}

	s := &server{
		accessTokens:  map[string]time.Time{},
		refreshTokens: map[string]bool{},
		orders:        seedOrders(),
		tokenTTL:      ttl,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/auth/me", s.authed(s.handleMe))
	mux.HandleFunc("GET /api/admin/events", s.authed(s.handleEvents))
	mux.HandleFunc("GET /api/admin/orders", s.authed(s.handleOrders))
	mux.HandleFunc("GET /api/admin/stats", s.authed(s.handleStats))
	mux.HandleFunc("GET /api/admin/gallery", s.authed(s.handleGallery))
	mux.HandleFunc("GET /api/admin/checkins", s.authed(s.handleCheckins))
	mux.HandleFunc("GET /api/checkin/verify/", s.authed(s.handleVerify))
	mux.HandleFunc("POST /api/checkin", s.authed(s.handleCheckin))

	log.Printf("ticket-backend on :%s (demo login %s / %s, token ttl %s)", port, demoEmail, demoPassword, ttl)
	log.Fatal(http.ListenAndServe(":"+port, mux))
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Email != demoEmail || body.Password != demoPassword {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid email or password"})
		return
	}

	s.mu.Lock()
	access, refresh := newToken(), newToken()
	s.accessTokens[access] = time.Now().Add(s.tokenTTL)
	s.refreshTokens[refresh] = true
	snake := s.flipShape()
	s.mu.Unlock()

	user := userPayload(snake)
	if snake {
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": access, "refresh_token": refresh, "user": user,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken": access, "refreshToken": refresh, "user": user,
	})
}

func (s *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Snake string `json:"refresh_token"`
		Camel string `json:"refreshToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	token := body.Snake
	if token == "" {
		token = body.Camel
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.refreshTokens[token] {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Refresh token invalid"})
		return
	}
	// Rotate: the old refresh token dies with each use.
	delete(s.refreshTokens, token)
	access, refresh := newToken(), newToken()
	s.accessTokens[access] = time.Now().Add(s.tokenTTL)
	s.refreshTokens[refresh] = true

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": access, "refresh_token": refresh, "user": userPayload(true),
	})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delete(s.accessTokens, bearer(r))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "bye"})
}

func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userPayload(s.flip()))
}

func (s *server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.flip() {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "name": "Warehouse Sessions", "location": "Pier 9",
				"starts_at": "2026-09-12T20:00:00Z", "status": "published",
				"ticket_tiers": []map[string]any{
					{"id": 1, "name": "GA", "price_cents": 4500, "inventory": 300, "sold_count": 122},
					{"id": 2, "name": "VIP", "price_cents": 9500, "inventory": 40, "sold_count": 18},
				}},
		})
		return
	}
	writeJSON(w, http.StatusOK, []map[string]any{
		{"id": "1", "title": "Warehouse Sessions", "venue": "Pier 9",
			"startsAt": "2026-09-12T20:00:00Z", "status": "published",
			"tiers": []map[string]any{
				{"id": "1", "name": "GA", "priceCents": 4500, "quantity": 300, "sold": 122},
				{"id": "2", "name": "VIP", "priceCents": 9500, "quantity": 40, "sold": 18},
			}},
	})
}

func (s *server) handleOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	search := strings.ToLower(r.URL.Query().Get("search"))

	s.mu.Lock()
	snake := s.flipShape()
	var out []map[string]any
	for _, o := range s.orders {
		if status != "" && o.Status != status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(o.CustomerName), search) &&
			!strings.Contains(strings.ToLower(o.CustomerEmail), search) {
			continue
		}
		out = append(out, orderPayload(o, snake))
	}
	s.mu.Unlock()

	if out == nil {
		out = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleVerify(w http.ResponseWriter, r *http.Request) {
	number := strings.TrimPrefix(r.URL.Path, "/api/checkin/verify/")

	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[number]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Order not found"})
		return
	}
	if o.Status != "paid" {
		writeJSON(w, http.StatusConflict, map[string]any{"message": "Order is " + o.Status + ", not paid"})
		return
	}
	writeJSON(w, http.StatusOK, orderPayload(o, s.flipShape()))
}

func (s *server) handleCheckin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderNumber string `json:"orderNumber"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[body.OrderNumber]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Order not found"})
		return
	}
	if o.CheckedIn {
		writeJSON(w, http.StatusConflict, map[string]any{"message": "Order already checked in"})
		return
	}
	now := time.Now().UTC()
	o.CheckedIn = true
	o.CheckedInAt = &now
	s.checkins = append([]map[string]any{{
		"order_number": o.OrderNumber, "customer_name": o.CustomerName,
		"event_title": o.EventTitle, "checked_in_at": now.Format(time.RFC3339),
	}}, s.checkins...)
	writeJSON(w, http.StatusOK, orderPayload(o, s.flipShape()))
}

func (s *server) handleCheckins(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkins == nil {
		writeJSON(w, http.StatusOK, []map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, s.checkins)
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	checkedIn := 0
	var revenue int64
	for _, o := range s.orders {
		if o.CheckedIn {
			checkedIn++
		}
		if o.Status == "paid" {
			revenue += o.TotalCents
		}
	}
	if s.flipShape() {
		writeJSON(w, http.StatusOK, map[string]any{
			"total_events": 1, "total_orders": len(s.orders),
			"total_checkins": checkedIn, "total_revenue_cents": revenue,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalEvents": 1, "totalOrders": len(s.orders),
		"totalCheckins": checkedIn, "totalRevenueCents": revenue,
	})
}

func (s *server) handleGallery(w http.ResponseWriter, r *http.Request) {
	if s.flip() {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "caption": "Doors open", "image_url": "https://cdn.housepass.test/a.jpg", "position": 1},
		})
		return
	}
	writeJSON(w, http.StatusOK, []map[string]any{
		{"id": "1", "title": "Doors open", "imageUrl": "https://cdn.housepass.test/a.jpg", "sortOrder": 1},
	})
}

// authed rejects requests without a live access token, the way the real
// backend does: plain 401 with a JSON message.
func (s *server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		expiry, ok := s.accessTokens[bearer(r)]
		s.mu.Unlock()
		if !ok || time.Now().After(expiry) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Access token expired"})
			return
		}
		next(w, r)
	}
}

// flipShape alternates between the two historical response shapes.
// Callers must hold the lock.
func (s *server) flipShape() bool {
	s.requests++
	return s.requests%2 == 1
}

func (s *server) flip() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flipShape()
}

func userPayload(snake bool) map[string]any {
	if snake {
		return map[string]any{"id": 7, "email": demoEmail, "full_name": "Door Staff", "user_role": "staff"}
	}
	return map[string]any{"id": "7", "email": demoEmail, "name": "Door Staff", "role": "staff"}
}

func orderPayload(o *order, snake bool) map[string]any {
	if snake {
		p := map[string]any{
			"id": o.ID, "order_number": o.OrderNumber, "event_id": o.EventID,
			"event_title": o.EventTitle, "customer_name": o.CustomerName,
			"customer_email": o.CustomerEmail, "status": o.Status,
			"quantity": o.Quantity, "total_cents": o.TotalCents, "checked_in": o.CheckedIn,
		}
		if o.CheckedInAt != nil {
			p["checked_in_at"] = o.CheckedInAt.Format(time.RFC3339)
		}
		return p
	}
	p := map[string]any{
		"id": o.ID, "orderNumber": o.OrderNumber, "eventId": o.EventID,
		"eventTitle": o.EventTitle, "customerName": o.CustomerName,
		"customerEmail": o.CustomerEmail, "status": o.Status,
		"quantity": o.Quantity, "totalCents": o.TotalCents, "checkedIn": o.CheckedIn,
	}
	if o.CheckedInAt != nil {
		p["checkedInAt"] = o.CheckedInAt.Format(time.RFC3339)
	}
	return p
}

func seedOrders() map[string]*order {
	return map[string]*order{
		"HP-ABC123": {ID: 1, OrderNumber: "HP-ABC123", EventID: "1", EventTitle: "Warehouse Sessions",
			CustomerName: "John Reyes", CustomerEmail: "john@example.com",
			Status: "paid", Quantity: 2, TotalCents: 9000},
		"HP-DEF456": {ID: 2, OrderNumber: "HP-DEF456", EventID: "1", EventTitle: "Warehouse Sessions",
			CustomerName: "Dana Cole", CustomerEmail: "dana@example.com",
			Status: "paid", Quantity: 1, TotalCents: 4500},
		"HP-GHI789": {ID: 3, OrderNumber: "HP-GHI789", EventID: "1", EventTitle: "Warehouse Sessions",
			CustomerName: "Sam Ortiz", CustomerEmail: "sam@example.com",
			Status: "pending", Quantity: 1, TotalCents: 4500},
	}
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
