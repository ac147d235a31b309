// Package seed loads the records the store starts with.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"os"

	"github.com/go-faster/errors"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/dishflow/internal/dishes"
	"github.com/imrishuroy/dishflow/internal/orders"
	"github.com/imrishuroy/dishflow/internal/validation"
)

//go:embed data/seed.json
var embedded []byte

// Sources
const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourceDynamoDB = "dynamodb"
)

// Data is the initial content of both collections.
type Data struct {
	Dishes []*dishes.Dish  `json:"dishes"`
	Orders []*orders.Order `json:"orders"`
}

// Loader produces seed data.
type Loader interface {
	Load(ctx context.Context) (*Data, error)
}

// Embedded loads the fixtures compiled into the binary.
type Embedded struct{}

// Load implements Loader.
func (Embedded) Load(context.Context) (*Data, error) {
	return Decode(embedded)
}

// File loads fixtures from a JSON file.
type File struct {
	Path string
}

// Load implements Loader.
func (f File) Load(context.Context) (*Data, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errors.Wrap(err, "read seed file")
	}
	return Decode(b)
}

// Decode parses seed JSON.
func Decode(b []byte) (*Data, error) {
	var d Data
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, errors.Wrap(err, "decode seed")
	}
	return &d, nil
}

// Validate checks every record against its struct rules and rejects
// duplicate ids within a collection.
func Validate(v *validatorv10.Validate, d *Data) error {
	if v == nil {
		v = validation.New()
	}

	seen := map[string]struct{}{}
	for i, dish := range d.Dishes {
		if dish == nil {
			return errors.Errorf("dish %d: null record", i)
		}
		if err := v.Struct(dish); err != nil {
			return errors.Errorf("dish %d (%s): %s", i, dish.ID, validation.Describe(err))
		}
		if _, dup := seen[dish.ID]; dup {
			return errors.Errorf("dish %d: duplicate id %s", i, dish.ID)
		}
		seen[dish.ID] = struct{}{}
	}

	seen = map[string]struct{}{}
	for i, o := range d.Orders {
		if o == nil {
			return errors.Errorf("order %d: null record", i)
		}
		if err := v.Struct(o); err != nil {
			return errors.Errorf("order %d (%s): %s", i, o.ID, validation.Describe(err))
		}
		if _, dup := seen[o.ID]; dup {
			return errors.Errorf("order %d: duplicate id %s", i, o.ID)
		}
		seen[o.ID] = struct{}{}
	}

	return nil
}

// Load runs l and validates the result.
func Load(ctx context.Context, l Loader, v *validatorv10.Validate) (*Data, error) {
	d, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := Validate(v, d); err != nil {
		return nil, errors.Wrap(err, "validate seed")
	}
	return d, nil
}
