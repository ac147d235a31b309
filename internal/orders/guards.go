package orders

import (
	"net/http"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/dishflow/internal/chain"
)

// dishesValid requires a non-empty dishes array whose entries all carry a
// positive integer quantity. The first bad entry is reported by its index.
type dishesValid struct{}

func (dishesValid) Kind() chain.Kind { return chain.KindQuantityValid }

func (dishesValid) Check(c *chain.Context[state]) error {
	list, ok := c.Payload.Value("dishes").([]any)
	if !ok || len(list) == 0 {
		return chain.Fail(chain.CodeInvalidDishes, http.StatusBadRequest, "dishes must be a non-empty array")
	}
	for i, entry := range list {
		item, _ := entry.(map[string]any)
		if item == nil || !chain.PositiveInteger(item["quantity"]) {
			return chain.Fail(chain.CodeInvalidQuantity, http.StatusBadRequest,
				"Dish %d must have a quantity that is an integer greater than 0", i)
		}
	}
	return nil
}

// statusValid requires one of the known statuses.
type statusValid struct {
	validate *validatorv10.Validate
}

func (statusValid) Kind() chain.Kind { return chain.KindStatusValid }

func (g statusValid) Check(c *chain.Context[state]) error {
	status, _ := c.Payload.Value("status").(string)
	if err := g.validate.Var(status, statusRule); err != nil {
		return chain.Fail(chain.CodeInvalidStatus, http.StatusBadRequest, "Order must have a valid status.")
	}
	return nil
}

// deliveredImmutable rejects any change to a delivered order, whatever the
// requested status.
type deliveredImmutable struct{}

func (deliveredImmutable) Kind() chain.Kind { return chain.KindDeliveredImmutable }

func (deliveredImmutable) Check(c *chain.Context[state]) error {
	if c.State.order.Status == StatusDelivered {
		return chain.Fail(chain.CodeImmutableDelivered, http.StatusBadRequest, "A delivered order cannot be changed.")
	}
	return nil
}

// pendingOnly allows deletion of pending orders only.
type pendingOnly struct{}

func (pendingOnly) Kind() chain.Kind { return chain.KindPendingOnly }

func (pendingOnly) Check(c *chain.Context[state]) error {
	if c.State.order.Status != StatusPending {
		return chain.Fail(chain.CodeDeleteNotPending, http.StatusBadRequest, "An order cannot be deleted unless it is pending.")
	}
	return nil
}
