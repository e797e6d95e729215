package imapparse

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/apple/swift-nio-imap-sub005/imapwire"
)

var (
	metricCommand = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imapcodec_commands_total",
			Help: "Parsed commands, per canonical name.",
		},
		[]string{"name"},
	)
	metricCommandErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imapcodec_command_errors_total",
			Help: "Command parse errors, per kind.",
		},
		[]string{"kind"},
	)
	metricUntagged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imapcodec_untagged_total",
			Help: "Parsed untagged responses, per word.",
		},
		[]string{"word"},
	)
	metricResponseErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imapcodec_response_errors_total",
			Help: "Response parse errors, per kind.",
		},
		[]string{"kind"},
	)
)

func errorLabel(err error) string {
	var syntaxErr *imapwire.SyntaxError
	switch {
	case errors.Is(err, imapwire.ErrLineTooLong):
		return "linetoolong"
	case errors.Is(err, imapwire.ErrBadLiteral):
		return "badliteral"
	case errors.Is(err, imapwire.ErrTooDeep):
		return "toodeep"
	case errors.As(err, &syntaxErr):
		return "syntax"
	}
	return "other"
}
