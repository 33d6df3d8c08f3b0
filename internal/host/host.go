// Package host runs a Handler either as a long-lived webhook listener or as
// an AWS Lambda function.
package host

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/AlexYaroshenko/scryfallbot/internal/errs"
)

// Handler processes one raw inbound event.
type Handler func(ctx context.Context, event json.RawMessage) (json.RawMessage, error)

// Host delivers events to a Handler until ctx is done or the platform stops.
type Host interface {
	Serve(ctx context.Context, h Handler) error
}

// LambdaEnv is set by the AWS Lambda runtime.
const LambdaEnv = "LAMBDA_TASK_ROOT"

// Detect picks Lambda when running inside AWS Lambda and srv otherwise.
func Detect(lookup func(string) (string, bool), srv *Server) Host {
	if v, ok := lookup(LambdaEnv); ok && v != "" {
		return new(Lambda)
	}
	return srv
}

// StatusFor maps a handler error to an HTTP status: malformed input is the
// caller's fault, anything else is ours.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errs.KindOf(err) == errs.KindDecode:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
