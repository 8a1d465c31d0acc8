package orders

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housepass/internal/transport"
)

type staticSession struct{ token string }

func (s staticSession) AccessToken() string { return s.token }
func (s staticSession) Refresh(ctx context.Context) (string, error) {
	return s.token, nil
}
func (s staticSession) Logout(ctx context.Context) {}

func TestListBuildsQueryStringAndPassesRecordsThrough(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/api/admin/orders", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id": 1, "order_number": "HP-AAA111", "customer_name": "John Reyes", "status": "paid", "total_cents": 4500},
			{"id": 2, "orderNumber": "HP-BBB222", "customerName": "Johnny Cale", "status": "paid", "totalCents": 9000}
		]`))
	}))
	defer srv.Close()

	svc := NewService(transport.NewClient(srv.URL, staticSession{token: "at-1"}))

	got, err := svc.List(context.Background(), Filter{Status: "paid", Search: "john"})
	require.NoError(t, err)

	assert.Equal(t, "search=john&status=paid", gotQuery)
	require.Len(t, got, 2)
	assert.Equal(t, "HP-AAA111", got[0].OrderNumber)
	assert.Equal(t, "John Reyes", got[0].CustomerName)
	assert.Equal(t, int64(4500), got[0].TotalCents)
	assert.Equal(t, "HP-BBB222", got[1].OrderNumber)
	assert.Equal(t, "Johnny Cale", got[1].CustomerName)
	assert.Equal(t, int64(9000), got[1].TotalCents)
}

func TestListOmitsEmptyFilter(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	svc := NewService(transport.NewClient(srv.URL, staticSession{token: "at-1"}))

	_, err := svc.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, "/api/admin/orders", gotURL)
}

func TestUpdateStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/admin/orders/9/status", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": 9, "status": "refunded"}`))
	}))
	defer srv.Close()

	svc := NewService(transport.NewClient(srv.URL, staticSession{token: "at-1"}))

	got, err := svc.UpdateStatus(context.Background(), "9", "refunded")
	require.NoError(t, err)
	assert.Equal(t, "refunded", got.Status)
}

func TestResendEmail(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/admin/orders/9/resend-email", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	svc := NewService(transport.NewClient(srv.URL, staticSession{token: "at-1"}))
	require.NoError(t, svc.ResendEmail(context.Background(), "9"))
	assert.True(t, called)
}
