package fieldusage

import (
	"context"
	"fmt"
	es "github.com/elastic/go-elasticsearch/v7"
	"github.com/tidwall/gjson"
	"io"
	"sort"
)

// CatIndexNames returns the sorted names of every index matching pattern, using the cat indices API.
func CatIndexNames(ctx context.Context, es_client *es.Client, pattern string) ([]string, error) {

	rsp, err := es_client.Cat.Indices(
		es_client.Cat.Indices.WithIndex(pattern),
		es_client.Cat.Indices.WithH("index"),
		es_client.Cat.Indices.WithFormat("json"),
		es_client.Cat.Indices.WithContext(ctx),
	)

	if err != nil {
		return nil, fmt.Errorf("%w: unable to list indices: %w", ErrResultNotExpected, err)
	}

	defer rsp.Body.Close()

	err = CheckResponse(rsp)

	if err != nil {
		return nil, fmt.Errorf("unable to list indices: %w", err)
	}

	body, err := io.ReadAll(rsp.Body)

	if err != nil {
		return nil, fmt.Errorf("%w: failed to read cat indices response: %w", ErrResultNotExpected, err)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: cat indices response is not valid JSON", ErrResultNotExpected)
	}

	names := make([]string, 0)

	for _, r := range gjson.GetBytes(body, "#.index").Array() {
		names = append(names, r.String())
	}

	sort.Strings(names)
	return names, nil
}
