package output

import (
	"github.com/tyemirov/sitelens/internal/services/stream"
)

// StreamRenderer consumes analysis events and writes the final report on Flush.
type StreamRenderer interface {
	Handle(event stream.Event) error
	Flush() error
}
