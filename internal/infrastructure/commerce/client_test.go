package commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutsassistent/caferico-ralph-sub000/internal/domain"
)

func draft() domain.OrderDraft {
	return domain.OrderDraft{
		Customer: domain.CustomerDetails{
			FirstName:  "Ada",
			LastName:   "Vries",
			Email:      "ada@example.com",
			Street:     "Keizersgracht 1",
			PostalCode: "1015 CN",
			City:       "Amsterdam",
			Country:    "NL",
		},
		Items: []domain.CartItem{
			{ID: "prod_casa_blend", Name: "Casa Blend", Quantity: 2, Grind: "espresso", Weight: "250g"},
			{ID: "prod_gift_box", Name: "Gift Box", Quantity: 1},
		},
		PaymentID:   "tr_abc",
		AmountCents: 4200,
		Currency:    "EUR",
		Locale:      "nl",
	}
}

func TestCreateOrder(t *testing.T) {
	var received map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"number": "1042"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test_key", time.Second)

	number, err := c.CreateOrder(context.Background(), draft())
	require.NoError(t, err)
	assert.Equal(t, "1042", number)

	assert.Equal(t, true, received["paid"], "order is created already paid")
	assert.Equal(t, float64(4200), received["total"])

	meta := received["metadata"].(map[string]any)
	assert.Equal(t, "tr_abc", meta["payment_id"], "payment id is tagged for audit lookups")

	lines := received["lines"].([]any)
	require.Len(t, lines, 2)

	first := lines[0].(map[string]any)
	lineMeta := first["metadata"].(map[string]any)
	assert.Equal(t, "espresso", lineMeta["grind"])
	assert.Equal(t, "250g", lineMeta["weight"])

	second := lines[1].(map[string]any)
	_, hasMeta := second["metadata"]
	assert.False(t, hasMeta, "lines without variants carry no metadata")
}

func TestCreateOrderSendsCustomerID(t *testing.T) {
	var received map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"number": "1043"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test_key", time.Second)

	d := draft()
	d.CustomerID = "cust_9"

	_, err := c.CreateOrder(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "cust_9", received["customer_id"])
}

func TestCreateOrderErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusInternalServerError, domain.ErrBackendUnavailable},
		{http.StatusServiceUnavailable, domain.ErrBackendUnavailable},
		{http.StatusUnprocessableEntity, domain.ErrBackendRejected},
		{http.StatusBadRequest, domain.ErrBackendRejected},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		c := NewClient(srv.URL, "test_key", time.Second)

		_, err := c.CreateOrder(context.Background(), draft())
		assert.ErrorIs(t, err, tc.want, "backend status %d", tc.status)

		srv.Close()
	}
}

func TestCreateOrderTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, "test_key", time.Second)

	_, err := c.CreateOrder(context.Background(), draft())
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}

func TestGetProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/products/casa-blend", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "prod_casa_blend", "slug": "casa-blend", "name": "Casa Blend", "price": 6.50}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test_key", time.Second)

	product, err := c.GetProduct(context.Background(), "casa-blend")
	require.NoError(t, err)
	assert.Equal(t, int64(650), product.PriceCents)
	assert.Equal(t, "Casa Blend", product.Name)
}

func TestGetProductNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test_key", time.Second)

	_, err := c.GetProduct(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestFindCustomer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "ada@example.com", r.URL.Query().Get("email"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [{"id": "cust_9"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test_key", time.Second)

	id, err := c.FindCustomer(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cust_9", id)
}

func TestFindCustomerUnknownEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test_key", time.Second)

	id, err := c.FindCustomer(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestToCentsRoundsHalfUp(t *testing.T) {
	cases := map[float64]int64{
		6.50:  650,
		12.99: 1299,
		0.01:  1,
		29.00: 2900,
	}

	for price, want := range cases {
		assert.Equal(t, want, toCents(price), "price %v", price)
	}
}
