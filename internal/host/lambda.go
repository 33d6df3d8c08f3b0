package host

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/AlexYaroshenko/scryfallbot/internal/errs"
)

// Lambda hands each invocation to the Handler through the AWS Lambda
// runtime. Serve does not return while the runtime is alive.
type Lambda struct{}

// Serve registers h with the runtime.
func (Lambda) Serve(ctx context.Context, h Handler) error {
	lambda.StartWithOptions(
		Invoke(h),
		lambda.WithContext(ctx),
		lambda.WithEnableSIGTERM(func() {
			slog.InfoContext(ctx, "Lambda runtime shutting down")
		}),
	)
	return nil
}

type eventProbe struct {
	HTTPMethod *string `json:"httpMethod"`
}

// Invoke adapts h to a Lambda handler. The event is either a raw update
// (direct invocation) or an API Gateway proxy request whose body is the
// update; proxy requests get a proxy response with the same status mapping
// as Server.
func Invoke(h Handler) func(ctx context.Context, event json.RawMessage) (any, error) {
	return func(ctx context.Context, event json.RawMessage) (any, error) {
		var probe eventProbe
		if json.Unmarshal(event, &probe) != nil || probe.HTTPMethod == nil {
			return h(ctx, event)
		}

		var req events.APIGatewayProxyRequest
		if err := json.Unmarshal(event, &req); err != nil {
			return proxyError(ctx, errs.Decode("host.Invoke", err)), nil
		}
		body := []byte(req.Body)
		if req.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(req.Body)
			if err != nil {
				return proxyError(ctx, errs.Decode("host.Invoke", err)), nil
			}
			body = decoded
		}
		out, err := h(ctx, body)
		if err != nil {
			return proxyError(ctx, err), nil
		}
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       string(out),
		}, nil
	}
}

func proxyError(ctx context.Context, err error) events.APIGatewayProxyResponse {
	status := StatusFor(err)
	slog.ErrorContext(
		ctx,
		"Handler failed",
		"status", status,
		"err", err,
	)
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		Body:       errs.Public(err),
	}
}
