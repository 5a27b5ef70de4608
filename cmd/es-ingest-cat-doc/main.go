// es-ingest-cat-doc ingests `_cat/indices?format=json` output saved to one or more files in to an Elasticsearch
// index, letting Elasticsearch assign document IDs.
package main

import (
	_ "github.com/whosonfirst/go-whosonfirst-iterate-git/v2"
)

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

	fs, err := index.NewCatIndexerFlagSet(ctx, index.DocVariant)

	if err != nil {
		log.Fatalf("Failed to create new flagset, %v", err)
	}

	err = index.ParseFlagSet(fs)

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(fieldusage.ExitCode(err))
	}

	os.Exit(index.RunCatIndexerTool(ctx, fs, index.DocVariant, os.Stderr))
}
