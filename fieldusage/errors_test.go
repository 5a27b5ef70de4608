package fieldusage

import (
	"errors"
	"fmt"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestErrorHierarchy(t *testing.T) {

	cases := []struct {
		Err     error
		Parents []error
		Not     []error
	}{
		{ErrMissingArgument, []error{ErrConfiguration, ErrFieldUsage}, []error{ErrClient}},
		{ErrValueMismatch, []error{ErrConfiguration, ErrFieldUsage}, []error{ErrMissingArgument}},
		{ErrResultNotExpected, []error{ErrClient, ErrFieldUsage}, []error{ErrConfiguration}},
		{ErrTimeout, []error{ErrFieldUsage}, []error{ErrClient, ErrConfiguration}},
		{ErrFatal, []error{ErrFieldUsage}, []error{ErrClient}},
	}

	for _, c := range cases {
		t.Run(c.Err.Error(), func(t *testing.T) {

			wrapped := fmt.Errorf("oh no: %w", c.Err)

			assert.True(t, errors.Is(wrapped, c.Err))

			for _, p := range c.Parents {
				assert.True(t, errors.Is(wrapped, p), "expected %v to be a %v", c.Err, p)
			}

			for _, n := range c.Not {
				assert.False(t, errors.Is(wrapped, n), "did not expect %v to be a %v", c.Err, n)
			}
		})
	}
}

func TestNewResponseError(t *testing.T) {

	body := `{"error":{"root_cause":[{"type":"index_not_found_exception","reason":"no such index [x]"}],"type":"index_not_found_exception","reason":"no such index [x]"},"status":404}`

	e := NewResponseError(404, []byte(body))
	assert.Equal(t, "index_not_found_exception", e.Type)
	assert.Equal(t, "no such index [x]", e.Reason)
	assert.Equal(t, []string{"index_not_found_exception: no such index [x]"}, e.RootCause)
	assert.Contains(t, e.Error(), "status=404")

	e = NewResponseError(400, []byte(`{"error":"Incorrect HTTP method"}`))
	assert.Equal(t, "Incorrect HTTP method", e.Reason)

	e = NewResponseError(502, []byte("Bad Gateway"))
	assert.Empty(t, e.Type)
	assert.Equal(t, "elasticsearch error (status=502): Bad Gateway", e.Error())
}

func TestExitCode(t *testing.T) {

	cases := []struct {
		Err      error
		Expected int
	}{
		{nil, EXIT_OK},
		{errors.New("boom"), EXIT_FATAL},
		{ErrFatal, EXIT_FATAL},
		{fmt.Errorf("bad: %w", ErrMissingArgument), EXIT_CONFIGURATION},
		{fmt.Errorf("bad: %w", ErrValueMismatch), EXIT_CONFIGURATION},
		{fmt.Errorf("%w: %w", ErrFatal, ErrResultNotExpected), EXIT_RESULT},
		{fmt.Errorf("down: %w", ErrClient), EXIT_CLIENT},
		{ErrTimeout, EXIT_FATAL},
	}

	for _, c := range cases {
		assert.Equal(t, c.Expected, ExitCode(c.Err), "error %v", c.Err)
	}
}
