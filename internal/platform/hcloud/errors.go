package hcloud

import (
	"errors"
	"net"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/shepherd/internal/provider"
)

// isRetryable checks if an error is transient. Locked resources occur
// while another action runs on the server.
func isRetryable(err error) bool {
	return isHCloudErrorCode(err,
		hcloud.ErrorCodeLocked,           // Item is locked (action running)
		hcloud.ErrorCodeConflict,         // Resource changed during request
		hcloud.ErrorCodeRateLimitExceeded,
		hcloud.ErrorCodeResourceUnavailable,
	)
}

// isHCloudErrorCode checks if the error is an hcloud API error with one of the given codes.
func isHCloudErrorCode(err error, codes ...hcloud.ErrorCode) bool {
	if err == nil {
		return false
	}

	var hcloudErr hcloud.Error
	if errors.As(err, &hcloudErr) {
		for _, code := range codes {
			if hcloudErr.Code == code {
				return true
			}
		}
	}
	return false
}

// IsNotFound checks if an error indicates a resource was not found.
func IsNotFound(err error) bool {
	return isHCloudErrorCode(err, hcloud.ErrorCodeNotFound)
}

// classify maps an API error to the provider taxonomy and reports
// whether the request may be retried.
func classify(err error, ids []string) (error, bool) {
	if err == nil {
		return nil, false
	}
	if _, ok := provider.KindOf(err); ok {
		return err, false
	}

	switch {
	case isHCloudErrorCode(err, hcloud.ErrorCodeUnauthorized, hcloud.ErrorCodeForbidden):
		return provider.Wrap(provider.KindAuth, err, "Permission denied"), false
	case IsNotFound(err):
		return provider.Missing(ids, ""), false
	case isRetryable(err):
		return provider.Wrap(provider.KindInstance, err, "hcloud request failed"), true
	}

	var hcloudErr hcloud.Error
	if errors.As(err, &hcloudErr) {
		return provider.Wrap(provider.KindInstance, err, ""), false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return provider.Wrap(provider.KindNetwork, err, "timeout or connection error"), true
	}
	return provider.Wrap(provider.KindInstance, err, "hcloud request failed"), false
}
