package kafka

import (
	"errors"
	"fmt"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
)

func TestInstanceGroup(t *testing.T) {
	a := InstanceGroup("kumbhmela-leads", "a1")
	b := InstanceGroup("kumbhmela-leads", "b2")

	assert.Equal(t, "kumbhmela-leads-a1", a)
	assert.NotEqual(t, a, b, "instances must not share a group")
	assert.Equal(t, "kumbhmela-leads", InstanceGroup("kumbhmela-leads", ""))
}

func TestReadErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		timeout bool
		fatal   bool
	}{
		{"timeout", kafka.NewError(kafka.ErrTimedOut, "timed out", false), true, false},
		{"transport", kafka.NewError(kafka.ErrTransport, "broker down", false), false, false},
		{"wrapped transient", fmt.Errorf("read: %w", kafka.NewError(kafka.ErrAllBrokersDown, "all brokers down", false)), false, false},
		{"fatal", kafka.NewError(kafka.ErrFatal, "fenced", true), false, true},
		{"foreign", errors.New("consumer closed"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.timeout, isTimeout(tt.err))
			assert.Equal(t, tt.fatal, isFatal(tt.err))
		})
	}
}
