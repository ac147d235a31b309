package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/imrishuroy/dishflow/internal/chain"
	"github.com/imrishuroy/dishflow/internal/events"
	"github.com/imrishuroy/dishflow/internal/ids"
	"github.com/imrishuroy/dishflow/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingPublisher struct {
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	r.events = append(r.events, ev)
	return nil
}

type fixture struct {
	router *gin.Engine
	orders *store.Collection[*Order]
	events *recordingPublisher
}

func newFixture(t *testing.T, seed ...*Order) *fixture {
	t.Helper()

	records := store.NewCollection[*Order]("orders")
	require.NoError(t, records.Load(seed))

	pub := &recordingPublisher{}
	p := NewPipeline(Config{
		Records: records,
		IDs:     ids.Sequence("order-"),
		Events:  pub,
		Logger:  zap.NewNop(),
	})

	r := gin.New()
	r.Use(chain.ReportErrors(zap.NewNop()))
	p.Register(r)

	return &fixture{router: r, orders: records, events: pub}
}

func seedOrder(id, status string) *Order {
	return &Order{
		ID:           id,
		DeliverTo:    "308 Negra Arroyo Lane, Albuquerque, NM",
		MobileNumber: "(505) 143-3369",
		Status:       status,
		Dishes: []LineItem{{
			ID:       "d351db2b49b69679504652ea1cf38241",
			Name:     "Dolcelatte and chickpea spaghetti",
			Price:    price(19),
			Quantity: 2,
		}},
	}
}

func price(v float64) *float64 { return &v }

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out.Error
}

func responseOrder(t *testing.T, w *httptest.ResponseRecorder) Order {
	t.Helper()
	var out struct {
		Data Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out.Data
}

func body(fields map[string]any) string {
	b, _ := json.Marshal(map[string]any{"data": fields})
	return string(b)
}

func validFields() map[string]any {
	return map[string]any{
		"deliverTo":    "Rick Sanchez, Garage, Seattle",
		"mobileNumber": "(202) 555-0119",
		"dishes": []any{
			map[string]any{"id": "90c3d873684bf381dfab29034b5bba73", "name": "Falafel and tahini bagel", "price": 6, "quantity": 1},
		},
	}
}

func TestList(t *testing.T) {
	f := newFixture(t, seedOrder("a", StatusPending), seedOrder("b", StatusDelivered))

	w := f.do(t, http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Data []Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Data, 2)
	assert.Equal(t, "a", out.Data[0].ID)
	assert.Equal(t, "b", out.Data[1].ID)
}

func TestCreate_DefaultsToPending(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/orders", body(validFields()))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	got := responseOrder(t, w)
	assert.Equal(t, "order-1", got.ID)
	assert.Equal(t, StatusPending, got.Status)
	require.Len(t, got.Dishes, 1)
	assert.Equal(t, 1, got.Dishes[0].Quantity)
	require.NotNil(t, got.Dishes[0].Price)
	assert.Equal(t, 6.0, *got.Dishes[0].Price)
	assert.Equal(t, 1, f.orders.Len())

	require.Len(t, f.events.events, 1)
	assert.Equal(t, events.OrderCreated, f.events.events[0].Type)
	assert.Equal(t, "order-1", f.events.events[0].EntityID)
}

func TestCreate_KeepsGivenStatus(t *testing.T) {
	f := newFixture(t)
	fields := validFields()
	fields["status"] = StatusPreparing

	w := f.do(t, http.MethodPost, "/orders", body(fields))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, StatusPreparing, responseOrder(t, w).Status)
}

func TestCreate_KeepsLineItemPriceAsSent(t *testing.T) {
	f := newFixture(t)
	fields := validFields()
	fields["dishes"] = []any{
		map[string]any{"id": "a", "price": 8.5, "quantity": 1},
		map[string]any{"id": "b", "price": 0, "quantity": 2},
		map[string]any{"id": "c", "quantity": 3},
	}

	w := f.do(t, http.MethodPost, "/orders", body(fields))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"price":8.5`)
	assert.Contains(t, w.Body.String(), `"price":0`)

	got, ok := f.orders.Find("order-1")
	require.True(t, ok)
	require.Len(t, got.Dishes, 3)
	assert.Equal(t, price(8.5), got.Dishes[0].Price)
	assert.Equal(t, price(0), got.Dishes[1].Price)
	assert.Nil(t, got.Dishes[2].Price)
}

func TestCreate_MissingField(t *testing.T) {
	for _, field := range []string{"deliverTo", "mobileNumber", "dishes"} {
		t.Run(field, func(t *testing.T) {
			f := newFixture(t)
			fields := validFields()
			delete(fields, field)

			w := f.do(t, http.MethodPost, "/orders", body(fields))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Must include a "+field, errorMessage(t, w))
			assert.Equal(t, 0, f.orders.Len())
		})
	}
}

func TestCreate_InvalidDishes(t *testing.T) {
	tests := []struct {
		name   string
		dishes any
	}{
		{"empty array", []any{}},
		{"string", "pasta"},
		{"object", map[string]any{"quantity": 1}},
		{"number", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			fields := validFields()
			fields["dishes"] = tt.dishes

			w := f.do(t, http.MethodPost, "/orders", body(fields))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "dishes must be a non-empty array", errorMessage(t, w))
		})
	}
}

func TestCreate_InvalidQuantityNamesIndex(t *testing.T) {
	tests := []struct {
		name   string
		dishes []any
		want   string
	}{
		{
			name:   "zero",
			dishes: []any{map[string]any{"quantity": 0}},
			want:   "Dish 0 must have a quantity that is an integer greater than 0",
		},
		{
			name:   "negative second",
			dishes: []any{map[string]any{"quantity": 1}, map[string]any{"quantity": -2}},
			want:   "Dish 1 must have a quantity that is an integer greater than 0",
		},
		{
			name:   "fraction",
			dishes: []any{map[string]any{"quantity": 1}, map[string]any{"quantity": 1}, map[string]any{"quantity": 1.5}},
			want:   "Dish 2 must have a quantity that is an integer greater than 0",
		},
		{
			name:   "string",
			dishes: []any{map[string]any{"quantity": "2"}},
			want:   "Dish 0 must have a quantity that is an integer greater than 0",
		},
		{
			name:   "missing",
			dishes: []any{map[string]any{"id": "x"}},
			want:   "Dish 0 must have a quantity that is an integer greater than 0",
		},
		{
			name:   "too large",
			dishes: []any{map[string]any{"quantity": 1}, map[string]any{"quantity": 1e20}},
			want:   "Dish 1 must have a quantity that is an integer greater than 0",
		},
		{
			name:   "first bad entry wins",
			dishes: []any{map[string]any{"quantity": 2}, map[string]any{"quantity": 0}, map[string]any{"quantity": -1}},
			want:   "Dish 1 must have a quantity that is an integer greater than 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			fields := validFields()
			fields["dishes"] = tt.dishes

			w := f.do(t, http.MethodPost, "/orders", body(fields))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, errorMessage(t, w))
			assert.Equal(t, 0, f.orders.Len())
		})
	}
}

func TestRead(t *testing.T) {
	f := newFixture(t, seedOrder("5", StatusPending))

	w := f.do(t, http.MethodGet, "/orders/5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, *seedOrder("5", StatusPending), responseOrder(t, w))

	w = f.do(t, http.MethodGet, "/orders/6", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Order does not exist: 6", errorMessage(t, w))
}

func TestUpdate_InPlace(t *testing.T) {
	f := newFixture(t, seedOrder("5", StatusPending))
	fields := validFields()
	fields["id"] = "5"
	fields["status"] = StatusOutForDelivery

	w := f.do(t, http.MethodPut, "/orders/5", body(fields))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := responseOrder(t, w)
	assert.Equal(t, "5", got.ID)
	assert.Equal(t, StatusOutForDelivery, got.Status)
	assert.Equal(t, "Rick Sanchez, Garage, Seattle", got.DeliverTo)

	stored, ok := f.orders.Find("5")
	require.True(t, ok)
	assert.Equal(t, StatusOutForDelivery, stored.Status)
	assert.Equal(t, "(202) 555-0119", stored.MobileNumber)
	assert.Equal(t, "90c3d873684bf381dfab29034b5bba73", stored.Dishes[0].ID)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, events.OrderUpdated, f.events.events[0].Type)
}

func TestUpdate_DeliveredIsImmutable(t *testing.T) {
	for _, status := range []string{StatusPending, StatusPreparing, StatusDelivered} {
		t.Run(status, func(t *testing.T) {
			f := newFixture(t, seedOrder("5", StatusDelivered))
			fields := validFields()
			fields["status"] = status

			w := f.do(t, http.MethodPut, "/orders/5", body(fields))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "A delivered order cannot be changed.", errorMessage(t, w))

			stored, _ := f.orders.Find("5")
			assert.Equal(t, *seedOrder("5", StatusDelivered), *stored)
			assert.Empty(t, f.events.events)
		})
	}
}

func TestUpdate_InvalidStatus(t *testing.T) {
	for name, status := range map[string]any{
		"missing": nil,
		"unknown": "cancelled",
		"case":    "Pending",
		"number":  1,
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, seedOrder("5", StatusPending))
			fields := validFields()
			if status != nil {
				fields["status"] = status
			}

			w := f.do(t, http.MethodPut, "/orders/5", body(fields))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Order must have a valid status.", errorMessage(t, w))
		})
	}
}

func TestUpdate_InvalidStatusBeforeDelivered(t *testing.T) {
	f := newFixture(t, seedOrder("5", StatusDelivered))
	fields := validFields()
	fields["status"] = "lost"

	w := f.do(t, http.MethodPut, "/orders/5", body(fields))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Order must have a valid status.", errorMessage(t, w))
}

func TestUpdate_IDMismatch(t *testing.T) {
	f := newFixture(t, seedOrder("5", StatusPending))
	fields := validFields()
	fields["id"] = "7"
	fields["status"] = StatusPending

	w := f.do(t, http.MethodPut, "/orders/5", body(fields))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Order id does not match route id. Order: 7, Route: 5", errorMessage(t, w))
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPut, "/orders/5", body(map[string]any{}))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Order does not exist: 5", errorMessage(t, w))
}

func TestUpdate_DishesCheckedBeforeStatus(t *testing.T) {
	f := newFixture(t, seedOrder("5", StatusDelivered))
	fields := validFields()
	fields["dishes"] = []any{map[string]any{"quantity": 0}}

	w := f.do(t, http.MethodPut, "/orders/5", body(fields))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Dish 0 must have a quantity that is an integer greater than 0", errorMessage(t, w))
}

func TestDelete_Pending(t *testing.T) {
	f := newFixture(t, seedOrder("5", StatusPending))

	w := f.do(t, http.MethodDelete, "/orders/5", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, 0, f.orders.Len())

	require.Len(t, f.events.events, 1)
	assert.Equal(t, events.OrderDeleted, f.events.events[0].Type)
}

func TestDelete_NotPending(t *testing.T) {
	for _, status := range []string{StatusPreparing, StatusOutForDelivery, StatusDelivered} {
		t.Run(status, func(t *testing.T) {
			f := newFixture(t, seedOrder("5", status))

			w := f.do(t, http.MethodDelete, "/orders/5", "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "An order cannot be deleted unless it is pending.", errorMessage(t, w))

			w = f.do(t, http.MethodGet, "/orders", "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), `"id":"5"`)
		})
	}
}

func TestDelete_NotFound(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodDelete, "/orders/5", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Order does not exist: 5", errorMessage(t, w))
}

func TestChainOrder(t *testing.T) {
	p := NewPipeline(Config{Records: store.NewCollection[*Order]("orders")})

	assert.Empty(t, p.list.Kinds())
	assert.Equal(t, []chain.Kind{
		chain.KindFieldPresence, chain.KindFieldPresence, chain.KindFieldPresence,
		chain.KindQuantityValid,
	}, p.create.Kinds())
	assert.Equal(t, []chain.Kind{chain.KindExists}, p.read.Kinds())
	assert.Equal(t, []chain.Kind{
		chain.KindExists,
		chain.KindFieldPresence, chain.KindFieldPresence, chain.KindFieldPresence,
		chain.KindQuantityValid,
		chain.KindIDMatch,
		chain.KindStatusValid,
		chain.KindDeliveredImmutable,
	}, p.update.Kinds())
	assert.Equal(t, []chain.Kind{chain.KindExists, chain.KindPendingOnly}, p.remove.Kinds())
}
