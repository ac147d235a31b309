package dishes

import "sync"

// Dish is a menu entry.
type Dish struct {
	ID          string `json:"id" dynamodbav:"id" validate:"required"`
	Name        string `json:"name" dynamodbav:"name" validate:"required"`
	Description string `json:"description" dynamodbav:"description" validate:"required"`
	Price       int    `json:"price" dynamodbav:"price" validate:"gt=0"` // whole currency units
	ImageURL    string `json:"image_url" dynamodbav:"image_url" validate:"required"`
}

// RecordID returns the dish id.
func (d *Dish) RecordID() string { return d.ID }

// Records is the dish collection. The lock must be held around every other
// call.
type Records interface {
	sync.Locker
	All() []*Dish
	Find(id string) (*Dish, bool)
	Append(d *Dish) error
	Remove(id string) bool
}

// dishData is the client-writable part of a dish. Price is decoded as a
// float so that 8.0 is accepted like 8; the price guard has already checked
// it is a whole number.
type dishData struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
}
