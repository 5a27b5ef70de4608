// package document provides methods for filtering and updating a single `_cat/indices` catalog document for indexing in Elasticsearch.
package document

import (
	"context"
)

// type PrepareDocumentFunc is a common method signature for updating a catalog document for indexing in Elasticsearch.
type PrepareDocumentFunc func(context.Context, []byte) ([]byte, error)

// type FilterDocumentFunc is a common method signature for deciding whether a catalog document should be indexed at all.
type FilterDocumentFunc func(context.Context, []byte) (bool, error)

// type DocumentIDFunc is a common method signature for deriving the Elasticsearch document ID of a catalog document. An empty
// ID means that Elasticsearch will assign one.
type DocumentIDFunc func(context.Context, []byte) (string, error)
