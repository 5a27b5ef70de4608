package prompt

import (
	"bufio"
	"bytes"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func newTestPrompter(input string) (*Prompter, *bytes.Buffer) {

	var out bytes.Buffer

	p := &Prompter{
		In:  bufio.NewReader(strings.NewReader(input)),
		Out: &out,
	}

	return p, &out
}

func TestString(t *testing.T) {

	p, out := newTestPrompter("\ncatalog\n")

	v, err := p.String("Index name", "myindex")
	require.NoError(t, err)
	assert.Equal(t, "myindex", v)

	v, err = p.String("Index name", "myindex")
	require.NoError(t, err)
	assert.Equal(t, "catalog", v)

	assert.Equal(t, "Index name [myindex]: Index name [myindex]: ", out.String())

	_, err = p.String("Index name", "myindex")
	assert.ErrorIs(t, err, fieldusage.ErrMissingArgument)
}

func TestPasswordConfirm(t *testing.T) {

	p, out := newTestPrompter("\nsecret\nsecreT\nsecret\nsecret\n")

	v, err := p.Password("Password", true)
	require.NoError(t, err)
	assert.Equal(t, "secret", v)

	assert.Contains(t, out.String(), "Error: The two entered values do not match.")
}

func TestPasswordSecretReader(t *testing.T) {

	answers := []string{"s3cret"}

	p, _ := newTestPrompter("")

	p.ReadSecret = func() (string, error) {
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}

	v, err := p.Password("Password", false)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)
}

func TestPasswordEOF(t *testing.T) {

	p, _ := newTestPrompter("")

	_, err := p.Password("Password", true)
	assert.ErrorIs(t, err, fieldusage.ErrMissingArgument)
}
