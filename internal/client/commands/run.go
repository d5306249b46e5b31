package commands

import (
	"context"
	"errors"
	"net"
	"net/http"

	"snippetcorpus/internal/client"

	"github.com/spf13/cobra"
)

// Error codes of failed commands.
const (
	errCodeInvalidConfig   = "INVALID_CONFIG"
	errCodeInvalidArgument = "INVALID_ARGUMENT"
	errCodeConnectionError = "CONNECTION_ERROR"
	errCodeTimeoutError    = "TIMEOUT_ERROR"
	errCodeServerError     = "SERVER_ERROR"
	errCodeAPIError        = "API_ERROR"
)

// call builds a client from the global flags, runs fn and writes its result or error as
// a JSON envelope. Failures are reported in the envelope, so the command itself succeeds.
func call(cmd *cobra.Command, fn func(context.Context, *client.Client) (interface{}, error)) error {
	apiURL, _ := cmd.Flags().GetString(flagAPIURL)
	timeout, _ := cmd.Flags().GetDuration(flagTimeout)

	c, err := client.NewClient(&client.Config{APIURL: apiURL, Timeout: timeout})
	if err != nil {
		return client.WriteError(cmd.OutOrStdout(), errCodeInvalidConfig, err.Error(), nil)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	result, err := fn(ctx, c)
	if err != nil {
		return client.WriteError(cmd.OutOrStdout(), errorCode(err), err.Error(), nil)
	}
	return client.WriteSuccess(cmd.OutOrStdout(), result)
}

// errorCode classifies a failed call. API errors keep the server's code.
func errorCode(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code != "":
			return apiErr.Code
		case apiErr.StatusCode >= http.StatusInternalServerError:
			return errCodeServerError
		default:
			return errCodeAPIError
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errCodeTimeoutError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return errCodeTimeoutError
		}
		return errCodeConnectionError
	}
	return errCodeAPIError
}
