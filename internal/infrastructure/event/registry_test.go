package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry(t *testing.T) {
	t.Run("typed then wildcard order", func(t *testing.T) {
		r := NewHandlerRegistry()
		typed := newRecordingHandler()
		all := newRecordingHandler()
		r.Register(all)
		r.Register(typed, "PaymentRefunded")

		got := r.Handlers("PaymentRefunded")
		assert.Len(t, got, 2)
		assert.Same(t, typed, got[0])
		assert.Same(t, all, got[1])

		assert.Len(t, r.Handlers("OrderCreated"), 1)
	})

	t.Run("duplicate registration ignored", func(t *testing.T) {
		r := NewHandlerRegistry()
		h := newRecordingHandler()
		r.Register(h, "OrderCreated", "OrderCreated")
		r.Register(h, "OrderCreated")
		r.Register(h)
		r.Register(h)

		assert.Len(t, r.Handlers("OrderCreated"), 2, "once typed and once wildcard")
		assert.Equal(t, 1, r.Len())
	})

	t.Run("unregister removes everywhere", func(t *testing.T) {
		r := NewHandlerRegistry()
		h := newRecordingHandler()
		other := newRecordingHandler()
		r.Register(h, "OrderCreated", "ShipmentDelivered")
		r.Register(h)
		r.Register(other, "OrderCreated")

		r.Unregister(h)

		assert.Equal(t, 1, r.Len())
		assert.Empty(t, r.Handlers("ShipmentDelivered"))
		assert.Len(t, r.Handlers("OrderCreated"), 1)
	})
}
