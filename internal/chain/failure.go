package chain

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
)

// Code classifies a chain failure. It is used for metrics and logs; clients
// only ever see the failure message.
type Code string

// Failure codes
const (
	CodeMalformedBody      Code = "malformed_body"
	CodeMissingField       Code = "missing_field"
	CodeInvalidPrice       Code = "invalid_price"
	CodeInvalidDishes      Code = "invalid_dishes"
	CodeInvalidQuantity    Code = "invalid_quantity"
	CodeNotFound           Code = "not_found"
	CodeIDMismatch         Code = "id_mismatch"
	CodeInvalidStatus      Code = "invalid_status"
	CodeImmutableDelivered Code = "immutable_delivered"
	CodeDeleteNotPending   Code = "delete_not_pending"
)

// Failure aborts a chain. Status and Message are sent to the client as is.
type Failure struct {
	Code    Code
	Status  int
	Message string
}

// Fail builds a Failure with a formatted message.
func Fail(code Code, status int, format string, args ...any) *Failure {
	return &Failure{
		Code:    code,
		Status:  status,
		Message: fmt.Sprintf(format, args...),
	}
}

func (f *Failure) Error() string {
	return f.Message
}

// FailureFrom returns the failure that aborted the request's chain, if any.
func FailureFrom(c *gin.Context) (*Failure, bool) {
	last := c.Errors.Last()
	if last == nil {
		return nil, false
	}
	var f *Failure
	if errors.As(last.Err, &f) {
		return f, true
	}
	return nil, false
}
