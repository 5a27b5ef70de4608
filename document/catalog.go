package document

import (
	"context"
	"fmt"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"strings"
)

// PARTIAL_PREFIX is the name prefix of partially mounted searchable snapshot indices.
const PARTIAL_PREFIX string = "partial-"

// CatColumns are the `_cat/indices` columns stored for each index, in the order they are requested.
var CatColumns = []string{
	"health",
	"index",
	"uuid",
	"pri",
	"rep",
	"docs.count",
	"store.size",
	"pri.store.size",
	"creation.date.string",
}

// CatRenames maps `_cat/indices` column names to the field names they are indexed as. Dotted column
// names would otherwise be indexed as object fields.
var CatRenames = [][2]string{
	{"docs.count", "docs_count"},
	{"store.size", "store_size"},
	{"pri.store.size", "pri_store_size"},
	{"creation.date.string", "@timestamp"},
}

var pathReplacer = strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "@", `\@`, "#", `\#`)

// EscapePath escapes a literal JSON key for use as a gjson or sjson path.
func EscapePath(key string) string {
	return pathReplacer.Replace(key)
}

// ExcludePartialIndices returns false for catalog documents whose index name starts with PARTIAL_PREFIX.
func ExcludePartialIndices(ctx context.Context, body []byte) (bool, error) {

	idx_rsp := gjson.GetBytes(body, "index")

	if !idx_rsp.Exists() {
		return false, fmt.Errorf("Catalog document is missing index property")
	}

	if strings.HasPrefix(idx_rsp.String(), PARTIAL_PREFIX) {
		return false, nil
	}

	return true, nil
}

// RenameCatFields renames the dotted `_cat/indices` columns in body according to CatRenames.
func RenameCatFields(ctx context.Context, body []byte) ([]byte, error) {

	for _, r := range CatRenames {

		from := EscapePath(r[0])
		to := EscapePath(r[1])

		rsp := gjson.GetBytes(body, from)

		if !rsp.Exists() {
			return nil, fmt.Errorf("Catalog document is missing %s property", r[0])
		}

		var err error

		body, err = sjson.SetRawBytes(body, to, []byte(rsp.Raw))

		if err != nil {
			return nil, fmt.Errorf("Failed to set %s property, %w", r[1], err)
		}

		body, err = sjson.DeleteBytes(body, from)

		if err != nil {
			return nil, fmt.Errorf("Failed to remove %s property, %w", r[0], err)
		}
	}

	return body, nil
}

// UUIDDocumentID uses the index UUID of a catalog document as its document ID, so that ingesting the same
// catalog twice updates rather than duplicates documents.
func UUIDDocumentID(ctx context.Context, body []byte) (string, error) {

	uuid_rsp := gjson.GetBytes(body, "uuid")

	if !uuid_rsp.Exists() || uuid_rsp.String() == "" {
		return "", fmt.Errorf("Catalog document is missing uuid property")
	}

	return uuid_rsp.String(), nil
}

// AutoDocumentID leaves the document ID for Elasticsearch to assign.
func AutoDocumentID(ctx context.Context, body []byte) (string, error) {
	return "", nil
}
