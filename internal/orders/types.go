package orders

import "sync"

// Order statuses
const (
	StatusPending        = "pending"
	StatusPreparing      = "preparing"
	StatusOutForDelivery = "out-for-delivery"
	StatusDelivered      = "delivered"
)

// statusRule is the validator rule for a known status.
const statusRule = "required,oneof=pending preparing out-for-delivery delivered"

// Order is a delivery order.
type Order struct {
	ID           string     `json:"id" dynamodbav:"id" validate:"required"`
	DeliverTo    string     `json:"deliverTo" dynamodbav:"deliverTo" validate:"required"`
	MobileNumber string     `json:"mobileNumber" dynamodbav:"mobileNumber" validate:"required"`
	Status       string     `json:"status" dynamodbav:"status" validate:"required,oneof=pending preparing out-for-delivery delivered"`
	Dishes       []LineItem `json:"dishes" dynamodbav:"dishes" validate:"required,min=1,dive"`
}

// RecordID returns the order id.
func (o *Order) RecordID() string { return o.ID }

// LineItem is one ordered dish: a reference to the dish (ID), the snapshot
// of the dish the client sent along, and the quantity. The snapshot price is
// stored as sent; nil means the client left it out.
type LineItem struct {
	ID          string   `json:"id,omitempty" dynamodbav:"id,omitempty"`
	Name        string   `json:"name,omitempty" dynamodbav:"name,omitempty"`
	Description string   `json:"description,omitempty" dynamodbav:"description,omitempty"`
	ImageURL    string   `json:"image_url,omitempty" dynamodbav:"image_url,omitempty"`
	Price       *float64 `json:"price,omitempty" dynamodbav:"price,omitempty"`
	Quantity    int      `json:"quantity" dynamodbav:"quantity" validate:"gt=0"`
}

// Records is the order collection. The lock must be held around every
// other call.
type Records interface {
	sync.Locker
	All() []*Order
	Find(id string) (*Order, bool)
	Append(o *Order) error
	Remove(id string) bool
}

// orderData is the client-writable part of an order.
type orderData struct {
	DeliverTo    string         `json:"deliverTo"`
	MobileNumber string         `json:"mobileNumber"`
	Status       string         `json:"status"`
	Dishes       []lineItemData `json:"dishes"`
}

// lineItemData decodes numbers as floats so 2.0 is accepted like 2.
type lineItemData struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Price       *float64 `json:"price"`
	Quantity    float64  `json:"quantity"`
}

func (d orderData) lineItems() []LineItem {
	out := make([]LineItem, len(d.Dishes))
	for i, it := range d.Dishes {
		out[i] = LineItem{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			ImageURL:    it.ImageURL,
			Price:       it.Price,
			Quantity:    int(it.Quantity),
		}
	}
	return out
}
