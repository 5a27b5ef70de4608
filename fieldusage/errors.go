package fieldusage

import (
	"errors"
	"fmt"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/tidwall/gjson"
	"io"
	"strings"
)

// type Kind is a class of error raised by this package and its callers. Kinds form a small tree
// so that, for example, errors.Is(err, ErrConfiguration) also matches ErrMissingArgument.
type Kind struct {
	msg    string
	parent *Kind
}

func (k *Kind) Error() string {
	return k.msg
}

// Is reports whether target is one of k's ancestors. errors.Is handles the k == target case itself.
func (k *Kind) Is(target error) bool {

	for p := k.parent; p != nil; p = p.parent {

		if p == target {
			return true
		}
	}

	return false
}

var (
	// ErrFieldUsage is the parent of every error kind defined here.
	ErrFieldUsage = &Kind{msg: "field usage error"}
	// ErrClient is raised when the Elasticsearch client and/or connection is the source of the problem.
	ErrClient = &Kind{msg: "client error", parent: ErrFieldUsage}
	// ErrConfiguration is raised for invalid or inconsistent settings.
	ErrConfiguration = &Kind{msg: "configuration error", parent: ErrFieldUsage}
	// ErrMissingArgument is raised when a required argument or parameter is missing.
	ErrMissingArgument = &Kind{msg: "missing argument", parent: ErrConfiguration}
	// ErrResultNotExpected is raised when an API response is not, or does not contain, the expected result.
	ErrResultNotExpected = &Kind{msg: "result not expected", parent: ErrClient}
	// ErrTimeout is raised when a task ran out of time.
	ErrTimeout = &Kind{msg: "timeout", parent: ErrFieldUsage}
	// ErrValueMismatch is raised when a received value does not match what was expected.
	ErrValueMismatch = &Kind{msg: "value mismatch", parent: ErrConfiguration}
	// ErrFatal signals that the program should halt.
	ErrFatal = &Kind{msg: "fatal error", parent: ErrFieldUsage}
)

// type ResponseError is the decoded body of an Elasticsearch error response.
type ResponseError struct {
	StatusCode int
	Type       string
	Reason     string
	RootCause  []string
	Body       string
}

func (e *ResponseError) Error() string {

	if e.Type == "" {
		return fmt.Sprintf("elasticsearch error (status=%d): %s", e.StatusCode, e.Body)
	}

	msg := fmt.Sprintf("elasticsearch error (status=%d, type=%s): %s", e.StatusCode, e.Type, e.Reason)

	if len(e.RootCause) > 0 {
		msg = fmt.Sprintf("%s; root cause: %s", msg, strings.Join(e.RootCause, "; "))
	}

	return msg
}

// NewResponseError returns a new *ResponseError constructed from an error response body. If the
// body cannot be parsed the raw body is kept instead.
func NewResponseError(status int, body []byte) *ResponseError {

	e := &ResponseError{
		StatusCode: status,
		Body:       strings.TrimSpace(string(body)),
	}

	if !gjson.ValidBytes(body) {
		return e
	}

	err_rsp := gjson.GetBytes(body, "error")

	switch {
	case err_rsp.IsObject():
		e.Type = err_rsp.Get("type").String()
		e.Reason = err_rsp.Get("reason").String()

		for _, rc := range err_rsp.Get("root_cause").Array() {
			e.RootCause = append(e.RootCause, fmt.Sprintf("%s: %s", rc.Get("type").String(), rc.Get("reason").String()))
		}

	case err_rsp.Type == gjson.String:
		e.Type = "error"
		e.Reason = err_rsp.String()
	}

	return e
}

// CheckResponse returns nil for successful responses. Otherwise it consumes the response body and
// returns an ErrResultNotExpected error wrapping the decoded *ResponseError.
func CheckResponse(res *esapi.Response) error {

	if !res.IsError() {
		return nil
	}

	body, err := io.ReadAll(res.Body)

	if err != nil {
		return fmt.Errorf("%w: failed to read error response (status=%d): %w", ErrResultNotExpected, res.StatusCode, err)
	}

	return fmt.Errorf("%w: %w", ErrResultNotExpected, NewResponseError(res.StatusCode, body))
}

// Process exit codes for each class of error.
const (
	EXIT_OK            int = 0
	EXIT_FATAL         int = 1
	EXIT_CONFIGURATION int = 2
	EXIT_RESULT        int = 3
	EXIT_CLIENT        int = 5
)

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {

	switch {
	case err == nil:
		return EXIT_OK
	case errors.Is(err, ErrConfiguration):
		return EXIT_CONFIGURATION
	case errors.Is(err, ErrResultNotExpected):
		return EXIT_RESULT
	case errors.Is(err, ErrClient):
		return EXIT_CLIENT
	default:
		return EXIT_FATAL
	}
}
