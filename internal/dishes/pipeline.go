// Package dishes serves the /dishes resource.
package dishes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/imrishuroy/dishflow/internal/chain"
	"github.com/imrishuroy/dishflow/internal/events"
	"github.com/imrishuroy/dishflow/internal/httpx"
	"github.com/imrishuroy/dishflow/internal/ids"
)

const (
	entity  = "Dish"
	idParam = "dishId"
)

// state is what dish guards hand to later steps.
type state struct {
	dish *Dish
}

// Config groups dependencies for the dish pipeline.
type Config struct {
	Records Records
	IDs     ids.Generator
	Events  events.Publisher
	Logger  *zap.Logger
}

// Pipeline holds the dish chains.
type Pipeline struct {
	records Records
	ids     ids.Generator
	events  events.Publisher
	lg      *zap.Logger

	list, create, read, update, remove *chain.Chain[state]
}

// NewPipeline assembles the dish chains. IDs, Events and Logger default to a
// UUID generator, no events and a no-op logger.
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

	exists := chain.Exists[state, *Dish](entity, idParam, p.records, func(s *state, d *Dish) { s.dish = d })
	fields := []chain.Guard[state]{
		chain.FieldPresence[state]("name"),
		chain.FieldPresence[state]("description"),
		chain.FieldPresence[state]("price"),
		chain.FieldPresence[state]("image_url"),
	}

	p.list = chain.New("dishes.list", p.records, p.listDishes)
	p.create = chain.New("dishes.create", p.records, p.createDish,
		append(fields, priceValid{})...)
	p.read = chain.New("dishes.read", p.records, p.readDish, exists)
	p.update = chain.New("dishes.update", p.records, p.updateDish,
		concat([]chain.Guard[state]{exists}, fields, []chain.Guard[state]{
			priceValid{},
			chain.IDMatch[state](entity, idParam),
		})...)
	p.remove = chain.New("dishes.delete", p.records, p.deleteDish, exists)

	return p
}

// Register mounts the dish routes.
func (p *Pipeline) Register(r gin.IRouter) {
	g := r.Group("/dishes")
	g.GET("", p.list.Handlers()...)
	g.POST("", p.create.Handlers()...)
	g.GET("/:"+idParam, p.read.Handlers()...)
	g.PUT("/:"+idParam, p.update.Handlers()...)
	g.DELETE("/:"+idParam, p.remove.Handlers()...)
}

func concat(parts ...[]chain.Guard[state]) []chain.Guard[state] {
	var out []chain.Guard[state]
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

type priceValid struct{}

func (priceValid) Kind() chain.Kind { return chain.KindPriceValid }

func (priceValid) Check(c *chain.Context[state]) error {
	if chain.PositiveInteger(c.Payload.Value("price")) {
		return nil
	}
	return chain.Fail(chain.CodeInvalidPrice, http.StatusBadRequest,
		"Dish must have a price that is an integer greater than 0")
}

func (p *Pipeline) listDishes(c *chain.Context[state]) error {
	c.JSON(http.StatusOK, gin.H{"data": p.records.All()})
	return nil
}

func (p *Pipeline) createDish(c *chain.Context[state]) error {
	var in dishData
	if err := c.Decode(&in); err != nil {
		return err
	}

	d := &Dish{
		ID:          p.ids.NewID(),
		Name:        in.Name,
		Description: in.Description,
		Price:       int(in.Price),
		ImageURL:    in.ImageURL,
	}
	if err := p.records.Append(d); err != nil {
		return errors.Wrap(err, "append dish")
	}

	p.publish(c, events.DishCreated, d.ID, d)
	c.JSON(http.StatusCreated, gin.H{"data": d})
	return nil
}

func (p *Pipeline) readDish(c *chain.Context[state]) error {
	c.JSON(http.StatusOK, gin.H{"data": c.State.dish})
	return nil
}

func (p *Pipeline) updateDish(c *chain.Context[state]) error {
	var in dishData
	if err := c.Decode(&in); err != nil {
		return err
	}

	d := c.State.dish
	d.Name = in.Name
	d.Description = in.Description
	d.Price = int(in.Price)
	d.ImageURL = in.ImageURL

	p.publish(c, events.DishUpdated, d.ID, d)
	c.JSON(http.StatusOK, gin.H{"data": d})
	return nil
}

func (p *Pipeline) deleteDish(c *chain.Context[state]) error {
	d := c.State.dish
	p.records.Remove(d.ID)

	p.publish(c, events.DishDeleted, d.ID, d)
	c.Status(http.StatusNoContent)
	return nil
}

func (p *Pipeline) publish(c *chain.Context[state], typ events.Type, id string, d *Dish) {
	ev, err := events.New(typ, id, httpx.RequestIDFrom(c.Context), d)
	if err == nil {
		err = p.events.Publish(c.Request.Context(), ev)
	}
	if err != nil {
		p.lg.Warn("Publish event failed",
			zap.String("type", string(typ)),
			zap.String("dish_id", id),
			zap.Error(err),
		)
	}
}
