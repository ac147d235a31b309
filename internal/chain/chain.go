// Package chain runs ordered guard chains in front of a single terminal
// handler.
//
// A chain compiles into a gin handler list. The first handler takes the chain
// lock, decodes the request envelope and stores a Context in the gin context;
// every guard then runs as its own gin handler. A guard aborts by returning an
// error, which is recorded with c.Error and stops the gin chain, so nothing
// after it runs. ReportErrors turns the recorded error into the response.
package chain

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const contextKey = "chain.context"

var tracer = otel.Tracer("github.com/imrishuroy/dishflow/internal/chain")

// Kind tags a guard variant.
type Kind int

// Guard kinds
const (
	KindFieldPresence Kind = iota + 1
	KindPriceValid
	KindQuantityValid
	KindExists
	KindIDMatch
	KindStatusValid
	KindDeliveredImmutable
	KindPendingOnly
)

var kindNames = map[Kind]string{
	KindFieldPresence:      "field-presence",
	KindPriceValid:         "price-valid",
	KindQuantityValid:      "quantity-valid",
	KindExists:             "exists",
	KindIDMatch:            "id-match",
	KindStatusValid:        "status-valid",
	KindDeliveredImmutable: "delivered-immutable",
	KindPendingOnly:        "pending-only",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Context is the per-request state shared by every step of a chain.
type Context[S any] struct {
	*gin.Context

	// Payload is the request's data object; empty when the body has none.
	Payload Payload
	// BodyID is the id carried in the payload, written by the id-match guard.
	BodyID any
	// State holds values attached by guards for later steps.
	State S

	data json.RawMessage
}

// Decode unmarshals the request's data object into out.
func (c *Context[S]) Decode(out any) error {
	if len(c.data) == 0 {
		return Fail(CodeMalformedBody, http.StatusBadRequest, "Request body must include a data object")
	}
	if err := json.Unmarshal(c.data, out); err != nil {
		return Fail(CodeMalformedBody, http.StatusBadRequest, "Invalid data: %v", err)
	}
	return nil
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *Context[S]) readBody() error {
	raw, err := c.GetRawData()
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Fail(CodeMalformedBody, http.StatusBadRequest, "Request body must be a JSON object")
	}
	c.data = env.Data
	if len(env.Data) > 0 {
		// data that is not an object leaves the payload empty; presence
		// guards report it.
		var p Payload
		if err := json.Unmarshal(env.Data, &p); err == nil {
			c.Payload = p
		}
	}
	return nil
}

// Guard is a chain step that either passes or aborts the chain.
type Guard[S any] interface {
	Kind() Kind
	Check(c *Context[S]) error
}

// Handler is the terminal step of a chain.
type Handler[S any] func(c *Context[S]) error

// Chain is an ordered list of guards followed by one terminal handler.
type Chain[S any] struct {
	name     string
	lock     sync.Locker
	guards   []Guard[S]
	terminal Handler[S]
}

// New builds a chain. The lock, when not nil, is held from the first guard
// until the terminal handler has written its response.
func New[S any](name string, lock sync.Locker, terminal Handler[S], guards ...Guard[S]) *Chain[S] {
	return &Chain[S]{
		name:     name,
		lock:     lock,
		guards:   guards,
		terminal: terminal,
	}
}

// Kinds returns the guard kinds in declaration order.
func (ch *Chain[S]) Kinds() []Kind {
	out := make([]Kind, len(ch.guards))
	for i, g := range ch.guards {
		out[i] = g.Kind()
	}
	return out
}

// Handlers compiles the chain into gin handlers.
func (ch *Chain[S]) Handlers() []gin.HandlerFunc {
	hs := make([]gin.HandlerFunc, 0, len(ch.guards)+2)
	hs = append(hs, ch.begin)
	for _, g := range ch.guards {
		hs = append(hs, ch.step(g.Kind().String(), g.Check))
	}
	hs = append(hs, ch.step("handler", ch.terminal))
	return hs
}

func (ch *Chain[S]) begin(c *gin.Context) {
	if ch.lock != nil {
		ch.lock.Lock()
		defer ch.lock.Unlock()
	}

	cc := &Context[S]{Context: c}
	if err := cc.readBody(); err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.Set(contextKey, cc)
	c.Next()
}

func (ch *Chain[S]) step(name string, fn func(*Context[S]) error) gin.HandlerFunc {
	spanName := ch.name + "/" + name
	return func(c *gin.Context) {
		cc := c.MustGet(contextKey).(*Context[S])

		_, span := tracer.Start(c.Request.Context(), spanName)
		defer span.End()

		if err := fn(cc); err != nil {
			span.SetStatus(codes.Error, err.Error())
			_ = c.Error(err)
			c.Abort()
		}
	}
}
