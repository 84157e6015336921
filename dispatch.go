package gridcalc

import (
	"fmt"

	"go.uber.org/zap"
)

// Well-known operation keys for the cipher subsystem bridge.
const (
	OpEncode = "cipher.encode"
	OpDecode = "cipher.decode"
)

// OperationHandler performs one external operation synchronously. A
// returned error becomes a generic error value in the requesting cell.
type OperationHandler func(input string) (Primitive, error)

// DispatchAdapter routes operation requests from formulas to handlers
// registered by other subsystems. The adapter never fails the caller: an
// unknown operation yields the #CIPHER? value, a handler error or panic a
// generic error value. At most one handler may be bound per operation.
type DispatchAdapter struct {
	handlers map[string]OperationHandler
	log      *zap.SugaredLogger
}

// NewDispatchAdapter creates an adapter with no handlers bound.
func NewDispatchAdapter(log *zap.SugaredLogger) *DispatchAdapter {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &DispatchAdapter{
		handlers: make(map[string]OperationHandler),
		log:      log,
	}
}

// RegisterHandler binds a handler to an operation key. Rebinding an
// existing key fails with AlreadyExists.
func (d *DispatchAdapter) RegisterHandler(operation string, handler OperationHandler) error {
	if handler == nil {
		return NewEngineError(InvalidArgument, "handler must not be nil")
	}
	if _, exists := d.handlers[operation]; exists {
		return NewEngineError(AlreadyExists, fmt.Sprintf("handler already registered for operation: %s", operation))
	}
	d.handlers[operation] = handler
	return nil
}

// Operations returns the bound operation keys, unordered.
func (d *DispatchAdapter) Operations() []string {
	ops := make([]string, 0, len(d.handlers))
	for op := range d.handlers {
		ops = append(ops, op)
	}
	return ops
}

// Request performs one operation and returns its result as a cell value.
// Never panics; handler faults are logged and reported as error values.
func (d *DispatchAdapter) Request(operation, input string) (result Primitive) {
	handler, exists := d.handlers[operation]
	if !exists {
		return NewCellError(ErrorCodeCipher, fmt.Sprintf("no handler for operation: %s", operation))
	}

	defer func() {
		if r := recover(); r != nil {
			d.log.Warnf("handler for operation %s panicked: %v", operation, r)
			result = NewCellError(ErrorCodeOther, fmt.Sprintf("operation %s failed", operation))
		}
	}()

	value, err := handler(input)
	if err != nil {
		d.log.Debugf("handler for operation %s returned error: %v", operation, err)
		return NewCellError(ErrorCodeOther, fmt.Sprintf("operation %s failed: %v", operation, err))
	}
	return normalizeResult(value)
}
