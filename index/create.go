package index

import (
	"context"
	"fmt"
	es "github.com/elastic/go-elasticsearch/v7"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"github.com/tidwall/sjson"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CREATE_TIMEOUT is how long index creation waits for shards to become active.
const CREATE_TIMEOUT time.Duration = 30 * time.Second

const catMappings string = `{
  "properties": {
    "health": {"type": "keyword"},
    "index": {"type": "keyword"},
    "uuid": {"type": "keyword"},
    "pri": {"type": "short"},
    "rep": {"type": "short"},
    "docs_count": {"type": "long"},
    "store_size": {"type": "long"},
    "pri_store_size": {"type": "long"},
    "@timestamp": {"type": "date"}
  }
}`

// CatIndexBody returns the settings and mappings used to create a catalog index with 'shards' primary shards.
func CatIndexBody(shards int) ([]byte, error) {

	body := []byte(`{}`)

	body, err := sjson.SetBytes(body, "settings.number_of_shards", shards)

	if err != nil {
		return nil, err
	}

	return sjson.SetRawBytes(body, "mappings", []byte(catMappings))
}

// CreateCatIndex creates the catalog index 'name' unless it already exists.
func CreateCatIndex(ctx context.Context, es_client *es.Client, name string, shards int) error {

	body, err := CatIndexBody(shards)

	if err != nil {
		return fmt.Errorf("Failed to derive index body, %w", err)
	}

	rsp, err := es_client.Indices.Create(
		name,
		es_client.Indices.Create.WithBody(strings.NewReader(string(body))),
		es_client.Indices.Create.WithWaitForActiveShards(strconv.Itoa(shards)),
		es_client.Indices.Create.WithTimeout(CREATE_TIMEOUT),
		es_client.Indices.Create.WithContext(ctx),
	)

	if err != nil {
		return fmt.Errorf("%w: failed to create index %s, %w", fieldusage.ErrClient, name, err)
	}

	defer rsp.Body.Close()

	// 400 is resource_already_exists_exception (amongst other things)
	if rsp.StatusCode == http.StatusBadRequest {
		return nil
	}

	err = fieldusage.CheckResponse(rsp)

	if err != nil {
		return fmt.Errorf("failed to create index %s, %w", name, err)
	}

	return nil
}
