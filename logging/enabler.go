package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/cloudharbor/s3front/requestctx"
)

type ForceEnabler interface {
	IsForceEnabled(context.Context, slog.Level) bool
}

//By default we do not force logging to be enabled.
type neverForce struct{}

func (f neverForce) IsForceEnabled(_ context.Context, _ slog.Level) bool {
	return false
}

//Force log records for requests whose RequestId starts with a chosen prefix.
//A requester can set such an ID via the X-Request-ID header to get verbose
//logging for just their requests.
type forceForRequestIdPrefix struct {
	Prefix string
}

func (f forceForRequestIdPrefix) IsForceEnabled(ctx context.Context, _ slog.Level) bool {
	reqCtx, ok := requestctx.FromContext(ctx)
	if ok {
		return strings.HasPrefix(reqCtx.RequestID, f.Prefix)
	}
	return false
}

func NewForceForRequestIdPrefix(prefix string) *forceForRequestIdPrefix {
	return &forceForRequestIdPrefix{
		Prefix: prefix,
	}
}

const forceLoggingPrefixEnvVar = "FORCE_LOGGING_FOR_REQUEST_ID_PREFIX"

//The strategy used when no explicit ForceEnabler was passed. An operator can
//set FORCE_LOGGING_FOR_REQUEST_ID_PREFIX and hand out request ids with that
//prefix to get verbose logging for chosen requests without a restart at a
//lower overall log level.
func getDefaultForceEnableLoggingStrategy() ForceEnabler {
	prefix, ok := os.LookupEnv(forceLoggingPrefixEnvVar)
	if ok && prefix != "" {
		return NewForceForRequestIdPrefix(prefix)
	}
	return neverForce{}
}
