package index

import (
	"context"
	"fmt"
	es "github.com/elastic/go-elasticsearch/v7"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/document"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"github.com/tidwall/gjson"
	"github.com/whosonfirst/go-whosonfirst-iterate/v2/iterator"
	"io"
	"sort"
	"sync"
)

// type CatSource is an interface for reading `_cat/indices` catalog documents.
type CatSource interface {
	// Documents returns every catalog document as raw JSON.
	Documents(context.Context) ([][]byte, error)
}

var _ CatSource = (*ClusterSource)(nil)
var _ CatSource = (*IteratorSource)(nil)

// type ClusterSource reads catalog documents from the `_cat/indices` API of a live cluster.
type ClusterSource struct {
	Client *es.Client
}

func (s *ClusterSource) Documents(ctx context.Context) ([][]byte, error) {

	rsp, err := s.Client.Cat.Indices(
		s.Client.Cat.Indices.WithBytes("b"),
		s.Client.Cat.Indices.WithFormat("json"),
		s.Client.Cat.Indices.WithH(document.CatColumns...),
		s.Client.Cat.Indices.WithContext(ctx),
	)

	if err != nil {
		return nil, fmt.Errorf("%w: failed to list indices, %w", fieldusage.ErrResultNotExpected, err)
	}

	defer rsp.Body.Close()

	err = fieldusage.CheckResponse(rsp)

	if err != nil {
		return nil, fmt.Errorf("failed to list indices, %w", err)
	}

	body, err := io.ReadAll(rsp.Body)

	if err != nil {
		return nil, fmt.Errorf("%w: failed to read cat indices response, %w", fieldusage.ErrResultNotExpected, err)
	}

	return splitCatArray(body, "_cat/indices")
}

// type IteratorSource reads catalog documents from JSON files (each one a `_cat/indices?format=json` response)
// using a whosonfirst/go-whosonfirst-iterate/v2 emitter.
type IteratorSource struct {
	// IteratorURI is a valid `whosonfirst/go-whosonfirst-iterate/v2` URI string.
	IteratorURI string
	// IteratorPaths are one or more valid `whosonfirst/go-whosonfirst-iterate/v2` paths to iterate over
	IteratorPaths []string
}

// Documents returns the catalog documents of every file, ordered by file path and then by position in the file.
func (s *IteratorSource) Documents(ctx context.Context) ([][]byte, error) {

	mu := new(sync.Mutex)
	by_path := make(map[string][][]byte)

	iter_cb := func(ctx context.Context, path string, fh io.ReadSeeker, args ...interface{}) error {

		body, err := io.ReadAll(fh)

		if err != nil {
			return fmt.Errorf("Failed to read %s, %w", path, err)
		}

		docs, err := splitCatArray(body, path)

		if err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()

		by_path[path] = append(by_path[path], docs...)
		return nil
	}

	iter, err := iterator.NewIterator(ctx, s.IteratorURI, iter_cb)

	if err != nil {
		return nil, fmt.Errorf("%w: failed to create iterator, %w", fieldusage.ErrConfiguration, err)
	}

	err = iter.IterateURIs(ctx, s.IteratorPaths...)

	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(by_path))

	for path := range by_path {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	docs := make([][]byte, 0)

	for _, path := range paths {
		docs = append(docs, by_path[path]...)
	}

	return docs, nil
}

func splitCatArray(body []byte, label string) ([][]byte, error) {

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", fieldusage.ErrResultNotExpected, label)
	}

	root := gjson.ParseBytes(body)

	if !root.IsArray() {
		return nil, fmt.Errorf("%w: %s is not a JSON array", fieldusage.ErrResultNotExpected, label)
	}

	docs := make([][]byte, 0)

	for _, r := range root.Array() {

		if !r.IsObject() {
			return nil, fmt.Errorf("%w: %s contains a non-object element", fieldusage.ErrResultNotExpected, label)
		}

		docs = append(docs, []byte(r.Raw))
	}

	return docs, nil
}
