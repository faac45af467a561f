package ec2

import (
	"errors"
	"net"
	"regexp"
	"slices"
	"strings"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/imamik/shepherd/internal/provider"
)

var (
	quotedPattern     = regexp.MustCompile(`['"]([^'"]+)['"]`)
	instanceIDPattern = regexp.MustCompile(`i-[0-9a-f]+`)
)

// dryRunError carries the notice of a DryRunOperation reply.
type dryRunError struct {
	msg string
}

func (e *dryRunError) Error() string { return e.msg }

// classify maps an SDK error to the provider taxonomy and reports whether
// the call may be retried. requested bounds which ids a not-found reply
// may blame.
func classify(err error, requested []string) (error, bool) {
	if err == nil {
		return nil, false
	}
	if _, ok := provider.KindOf(err); ok {
		return err, false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "DryRunOperation":
			return &dryRunError{msg: apiErr.ErrorMessage()}, false
		case "UnauthorizedOperation", "AuthFailure", "Blocked":
			return provider.Wrap(provider.KindAuth, err, "Permission denied"), false
		case "InvalidInstanceID.NotFound", "InvalidInstanceID.Malformed":
			ids := offendingIDs(apiErr.ErrorMessage(), requested)
			if len(ids) == 0 {
				return provider.Wrap(provider.KindInstance, err, apiErr.ErrorMessage()), false
			}
			return provider.Missing(ids, apiErr.ErrorMessage()), false
		case "RequestLimitExceeded", "Throttling", "ThrottlingException":
			return provider.Wrap(provider.KindInstance, err, "request throttled"), true
		default:
			return provider.Wrap(provider.KindInstance, err, apiErr.ErrorMessage()), false
		}
	}

	var sendErr *smithyhttp.RequestSendError
	if errors.As(err, &sendErr) {
		return provider.Wrap(provider.KindNetwork, err, "timeout or connection error"), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return provider.Wrap(provider.KindNetwork, err, "timeout or connection error"), true
	}

	return provider.Wrap(provider.KindInstance, err, "ec2 request failed"), false
}

// offendingIDs picks the requested ids named by a not-found message, in
// request order. Quoted tokens may hold a comma separated list. A message
// naming none of them blames the request only when it has a single id.
func offendingIDs(msg string, requested []string) []string {
	var named []string
	for _, m := range quotedPattern.FindAllStringSubmatch(msg, -1) {
		for _, tok := range strings.Split(m[1], ",") {
			named = append(named, strings.TrimSpace(tok))
		}
	}
	named = append(named, instanceIDPattern.FindAllString(msg, -1)...)

	var ids []string
	for _, id := range requested {
		if slices.Contains(named, id) && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 && len(requested) == 1 {
		return slices.Clone(requested)
	}
	return ids
}
