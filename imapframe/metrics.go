package imapframe

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/apple/swift-nio-imap-sub005/imapwire"
)

var (
	metricFrame = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imapcodec_framer_frames_total",
			Help: "Frames produced, per kind.",
		},
		[]string{"kind"},
	)
	metricContinuation = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imapcodec_framer_continuations_total",
			Help: "Continuation requests owed for synchronizing literals.",
		},
	)
	metricStreamedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imapcodec_framer_streamed_bytes_total",
			Help: "Literal payload bytes passed through as chunks instead of being buffered.",
		},
	)
	metricError = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imapcodec_framer_errors_total",
			Help: "Fatal framing errors, per kind.",
		},
		[]string{"kind"},
	)
)

func errorLabel(err error) string {
	switch {
	case errors.Is(err, imapwire.ErrLineTooLong):
		return "linetoolong"
	case errors.Is(err, imapwire.ErrBadLiteral):
		return "badliteral"
	}
	return "other"
}
