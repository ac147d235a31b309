// Package orders serves the /orders resource.
package orders

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/dishflow/internal/chain"
	"github.com/imrishuroy/dishflow/internal/events"
	"github.com/imrishuroy/dishflow/internal/httpx"
	"github.com/imrishuroy/dishflow/internal/ids"
	"github.com/imrishuroy/dishflow/internal/validation"
)

const (
	entity  = "Order"
	idParam = "orderId"
)

type state struct {
	order *Order
}

// Config groups dependencies for the order pipeline.
type Config struct {
	Records  Records
	IDs      ids.Generator
	Events   events.Publisher
	Validate *validatorv10.Validate
	Logger   *zap.Logger
}

// Pipeline holds the order chains.
type Pipeline struct {
	records Records
	ids     ids.Generator
	events  events.Publisher
	lg      *zap.Logger

	list, create, read, update, remove *chain.Chain[state]
}

// NewPipeline assembles the order chains.
func NewPipeline(cfg Config) *Pipeline {
	p := &Pipeline{
		records: cfg.Records,
		ids:     cfg.IDs,
		events:  cfg.Events,
		lg:      cfg.Logger,
	}
	if p.ids == nil {
		p.ids = ids.UUID{}
	}
	if p.events == nil {
		p.events = events.Nop{}
	}
	if p.lg == nil {
		p.lg = zap.NewNop()
	}
	v := cfg.Validate
	if v == nil {
		v = validation.New()
	}

	exists := chain.Exists[state, *Order](entity, idParam, p.records, func(s *state, o *Order) { s.order = o })

	p.list = chain.New("orders.list", p.records, p.listOrders)
	p.create = chain.New("orders.create", p.records, p.createOrder,
		chain.FieldPresence[state]("deliverTo"),
		chain.FieldPresence[state]("mobileNumber"),
		chain.FieldPresence[state]("dishes"),
		dishesValid{},
	)
	p.read = chain.New("orders.read", p.records, p.readOrder, exists)
	p.update = chain.New("orders.update", p.records, p.updateOrder,
		exists,
		chain.FieldPresence[state]("deliverTo"),
		chain.FieldPresence[state]("mobileNumber"),
		chain.FieldPresence[state]("dishes"),
		dishesValid{},
		chain.IDMatch[state](entity, idParam),
		statusValid{validate: v},
		deliveredImmutable{},
	)
	p.remove = chain.New("orders.delete", p.records, p.deleteOrder, exists, pendingOnly{})

	return p
}

// Register mounts the order routes.
func (p *Pipeline) Register(r gin.IRouter) {
	g := r.Group("/orders")
	g.GET("", p.list.Handlers()...)
	g.POST("", p.create.Handlers()...)
	g.GET("/:"+idParam, p.read.Handlers()...)
	g.PUT("/:"+idParam, p.update.Handlers()...)
	g.DELETE("/:"+idParam, p.remove.Handlers()...)
}

func (p *Pipeline) listOrders(c *chain.Context[state]) error {
	c.JSON(http.StatusOK, gin.H{"data": p.records.All()})
	return nil
}

func (p *Pipeline) createOrder(c *chain.Context[state]) error {
	var in orderData
	if err := c.Decode(&in); err != nil {
		return err
	}

	o := &Order{
		ID:           p.ids.NewID(),
		DeliverTo:    in.DeliverTo,
		MobileNumber: in.MobileNumber,
		Status:       in.Status,
		Dishes:       in.lineItems(),
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	if err := p.records.Append(o); err != nil {
		return errors.Wrap(err, "append order")
	}

	p.publish(c, events.OrderCreated, o.ID, o)
	c.JSON(http.StatusCreated, gin.H{"data": o})
	return nil
}

func (p *Pipeline) readOrder(c *chain.Context[state]) error {
	c.JSON(http.StatusOK, gin.H{"data": c.State.order})
	return nil
}

func (p *Pipeline) updateOrder(c *chain.Context[state]) error {
	var in orderData
	if err := c.Decode(&in); err != nil {
		return err
	}

	o := c.State.order
	o.DeliverTo = in.DeliverTo
	o.MobileNumber = in.MobileNumber
	o.Status = in.Status
	o.Dishes = in.lineItems()

	p.publish(c, events.OrderUpdated, o.ID, o)
	c.JSON(http.StatusOK, gin.H{"data": o})
	return nil
}

func (p *Pipeline) deleteOrder(c *chain.Context[state]) error {
	o := c.State.order
	p.records.Remove(o.ID)

	p.publish(c, events.OrderDeleted, o.ID, o)
	c.Status(http.StatusNoContent)
	return nil
}

func (p *Pipeline) publish(c *chain.Context[state], typ events.Type, id string, o *Order) {
	ev, err := events.New(typ, id, httpx.RequestIDFrom(c.Context), o)
	if err == nil {
		err = p.events.Publish(c.Request.Context(), ev)
	}
	if err != nil {
		p.lg.Warn("Publish event failed",
			zap.String("type", string(typ)),
			zap.String("order_id", id),
			zap.Error(err),
		)
	}
}
