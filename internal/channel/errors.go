package channel

import (
	"errors"
	"fmt"
)

// ErrUnknownChannel is returned by factories for names they do not serve.
var ErrUnknownChannel = errors.New("unknown channel")

// RecordTypeError reports a record whose type does not match its channel.
type RecordTypeError struct {
	Channel string
	Index   int
	Record  any
}

func (e *RecordTypeError) Error() string {
	return fmt.Sprintf("channel %s: record %d has unexpected type %T", e.Channel, e.Index, e.Record)
}
