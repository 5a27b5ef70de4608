// es-fieldusage reports which fields of one or more Elasticsearch indices have been accessed by
// queries and aggregations, using the field usage stats API.
package main

import (
	"context"
	"fmt"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"os"
)

const VERSION string = "0.1.0"

func main() {

	ctx := context.Background()

	root := NewRootCmd()

	err := root.ExecuteContext(ctx)

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(fieldusage.ExitCode(err))
	}
}
