package index

import (
	"bytes"
	"context"
	"fmt"
	"github.com/dustin/go-humanize"
	es "github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esutil"
	"github.com/schollz/progressbar/v3"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/document"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"io"
	"os"
	"sync/atomic"
	"time"
)

// type RunCatIndexerOptions contains runtime configurations for ingesting catalog documents
type RunCatIndexerOptions struct {
	// Client is the `es.Client` used to create the index and bulk index documents
	Client *es.Client
	// Index is the name of the index to ingest documents in to
	Index string
	// Shards is the number of primary shards used if the index needs to be created
	Shards int
	// Source is the `CatSource` catalog documents are read from
	Source CatSource
	// FilterFuncs are zero or more `document.FilterDocumentFunc` used to skip documents; all of them must return true for a document to be indexed
	FilterFuncs []document.FilterDocumentFunc
	// PrepareFuncs are one or more `document.PrepareDocumentFunc` used to transform a document before indexing
	PrepareFuncs []document.PrepareDocumentFunc
	// DocumentID is the `document.DocumentIDFunc` used to derive document IDs
	DocumentID document.DocumentIDFunc
	// Logger is the `zap.Logger` used to report indexing failures
	Logger *zap.Logger
	// Writer is where progress and the final summary are written. Default is os.Stdout.
	Writer io.Writer
}

// type Stats reports the outcome of a catalog ingest.
type Stats struct {
	// Indexed is the number of documents indexed successfully
	Indexed uint64 `json:"indexed"`
	// Failed is the number of documents Elasticsearch rejected
	Failed uint64 `json:"failed"`
	// Total is the number of documents sent to Elasticsearch
	Total int `json:"total"`
	// StoreSize is the sum of the store sizes (in bytes) of every catalog document
	StoreSize uint64 `json:"store_size"`
}

type preparedDocument struct {
	id   string
	body []byte
}

// prepareDocuments applies 'opts' filter and prepare functions to every document in 'docs'.
func prepareDocuments(ctx context.Context, opts *RunCatIndexerOptions, docs [][]byte) ([]preparedDocument, error) {

	prepared := make([]preparedDocument, 0, len(docs))

	for _, body := range docs {

		keep := true

		for _, f := range opts.FilterFuncs {

			ok, err := f(ctx, body)

			if err != nil {
				return nil, err
			}

			if !ok {
				keep = false
				break
			}
		}

		if !keep {
			continue
		}

		// START OF manipulate body here...

		for _, f := range opts.PrepareFuncs {

			new_body, err := f(ctx, body)

			if err != nil {
				return nil, err
			}

			body = new_body
		}

		// END OF manipulate body here...

		id_func := opts.DocumentID

		if id_func == nil {
			id_func = document.AutoDocumentID
		}

		doc_id, err := id_func(ctx, body)

		if err != nil {
			return nil, err
		}

		prepared = append(prepared, preparedDocument{id: doc_id, body: body})
	}

	return prepared, nil
}

// type ingestProgress counts the outcome of every scheduled document. Each outcome, including a
// document that could not be scheduled, advances the progress bar exactly once.
type ingestProgress struct {
	indexed uint64
	failed  uint64
	advance func()
}

func (p *ingestProgress) markIndexed() {
	atomic.AddUint64(&p.indexed, 1)
	p.advance()
}

func (p *ingestProgress) markFailed() {
	atomic.AddUint64(&p.failed, 1)
	p.advance()
}

func (p *ingestProgress) Indexed() uint64 {
	return atomic.LoadUint64(&p.indexed)
}

func (p *ingestProgress) Failed() uint64 {
	return atomic.LoadUint64(&p.failed)
}

// RunCatIndexer will ingest catalog documents with configuration details defined in 'opts'. Documents that
// Elasticsearch rejects are counted and logged but do not stop the ingest.
func RunCatIndexer(ctx context.Context, opts *RunCatIndexerOptions) (*Stats, error) {

	logger := opts.Logger

	if logger == nil {
		logger = zap.NewNop()
	}

	wr := opts.Writer

	if wr == nil {
		wr = os.Stdout
	}

	shards := opts.Shards

	if shards < 1 {
		shards = 1
	}

	docs, err := opts.Source.Documents(ctx)

	if err != nil {
		return nil, err
	}

	prepared, err := prepareDocuments(ctx, opts, docs)

	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Total: len(prepared),
	}

	for _, d := range prepared {
		stats.StoreSize += gjson.GetBytes(d.body, "store_size").Uint()
	}

	fmt.Fprintf(wr, "Creating index '%s'\n", opts.Index)

	err = CreateCatIndex(ctx, opts.Client, opts.Index, shards)

	if err != nil {
		return nil, err
	}

	// https://github.com/elastic/go-elasticsearch/blob/master/_examples/bulk/indexer.go

	bi_cfg := esutil.BulkIndexerConfig{
		Index:         opts.Index,
		Client:        opts.Client,
		NumWorkers:    1,
		FlushInterval: 30 * time.Second,
		OnError: func(ctx context.Context, err error) {
			logger.Error("Bulk indexer error", zap.Error(err))
		},
	}

	bi, err := esutil.NewBulkIndexer(bi_cfg)

	if err != nil {
		return nil, fmt.Errorf("Failed to create bulk indexer, %w", err)
	}

	bar := progressbar.NewOptions(len(prepared),
		progressbar.OptionSetWriter(wr),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)

	progress := &ingestProgress{
		advance: func() { bar.Add(1) },
	}

	t1 := time.Now()

	for _, d := range prepared {

		bulk_item := esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: d.id,
			Body:       bytes.NewReader(d.body),

			OnSuccess: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem) {
				progress.markIndexed()
			},

			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {

				progress.markFailed()

				if err != nil {
					logger.Error("Failed to index document", zap.String("id", item.DocumentID), zap.Error(err))
				} else {
					logger.Error("Failed to index document", zap.String("id", item.DocumentID), zap.String("type", res.Error.Type), zap.String("reason", res.Error.Reason))
				}
			},
		}

		err = bi.Add(ctx, bulk_item)

		if err != nil {
			progress.markFailed()
			logger.Error("Failed to schedule document", zap.String("id", d.id), zap.Error(err))
		}
	}

	err = bi.Close(ctx)

	if err != nil {
		return nil, fmt.Errorf("Failed to close bulk indexer, %w", err)
	}

	bar.Finish()
	fmt.Fprintln(wr)

	stats.Indexed = progress.Indexed()
	stats.Failed = progress.Failed()

	logger.Debug("Catalog ingest complete", zap.Duration("duration", time.Since(t1)), zap.String("store_size", humanize.Bytes(stats.StoreSize)))

	fmt.Fprintf(wr, "Indexed %d/%d documents\n", stats.Indexed, stats.Total)
	fmt.Fprintf(wr, "Total store size of catalogued indices: %s\n", humanize.Bytes(stats.StoreSize))

	return stats, nil
}
