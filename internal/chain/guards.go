package chain

import "net/http"

type fieldPresence[S any] struct {
	field string
}

// FieldPresence fails with 400 when the payload field is absent or falsy.
func FieldPresence[S any](field string) Guard[S] {
	return fieldPresence[S]{field: field}
}

func (fieldPresence[S]) Kind() Kind { return KindFieldPresence }

func (g fieldPresence[S]) Check(c *Context[S]) error {
	if c.Payload.Has(g.field) {
		return nil
	}
	return Fail(CodeMissingField, http.StatusBadRequest, "Must include a %s", g.field)
}

// Finder looks a record up by id.
type Finder[T any] interface {
	Find(id string) (T, bool)
}

type exists[S, T any] struct {
	entity  string
	param   string
	records Finder[T]
	attach  func(*S, T)
}

// Exists fails with 404 when no record matches the route parameter, and
// attaches the record to the chain state otherwise.
func Exists[S, T any](entity, param string, records Finder[T], attach func(*S, T)) Guard[S] {
	return exists[S, T]{
		entity:  entity,
		param:   param,
		records: records,
		attach:  attach,
	}
}

func (exists[S, T]) Kind() Kind { return KindExists }

func (g exists[S, T]) Check(c *Context[S]) error {
	id := c.Param(g.param)
	rec, ok := g.records.Find(id)
	if !ok {
		return Fail(CodeNotFound, http.StatusNotFound, "%s does not exist: %s", g.entity, id)
	}
	g.attach(&c.State, rec)
	return nil
}

type idMatch[S any] struct {
	entity string
	param  string
}

// IDMatch fails with 400 when the payload carries an id different from the
// route parameter. A missing or empty payload id passes.
func IDMatch[S any](entity, param string) Guard[S] {
	return idMatch[S]{entity: entity, param: param}
}

func (idMatch[S]) Kind() Kind { return KindIDMatch }

func (g idMatch[S]) Check(c *Context[S]) error {
	routeID := c.Param(g.param)
	bodyID := c.Payload.Value("id")
	c.BodyID = bodyID

	if !Truthy(bodyID) {
		return nil
	}
	if s, ok := bodyID.(string); ok && s == routeID {
		return nil
	}
	return Fail(CodeIDMismatch, http.StatusBadRequest,
		"%s id does not match route id. %s: %v, Route: %s", g.entity, g.entity, bodyID, routeID)
}
