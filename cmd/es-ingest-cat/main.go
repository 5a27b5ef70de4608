// es-ingest-cat ingests the `_cat/indices` catalog of an Elasticsearch cluster in to an index on that same
// cluster, using each index UUID as the document ID.
package main

import (
	"context"
	"fmt"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/index"
	"log"
	"os"
)

func main() {

	ctx := context.Background()

	fs, err := index.NewCatIndexerFlagSet(ctx, index.LiveVariant)

	if err != nil {
		log.Fatalf("Failed to create new flagset, %v", err)
	}

	err = index.ParseFlagSet(fs)

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(fieldusage.ExitCode(err))
	}

	os.Exit(index.RunCatIndexerTool(ctx, fs, index.LiveVariant, os.Stderr))
}
