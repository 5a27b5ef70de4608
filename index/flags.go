package index

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/client"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/document"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/logging"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/prompt"
	"github.com/sfomuseum/go-flags/flagset"
	"github.com/sfomuseum/go-flags/lookup"
	"github.com/whosonfirst/go-whosonfirst-iterate/v2/emitter"
	"go.uber.org/zap"
	"io"
	"strings"
)

const FLAG_INDEX string = "index"
const FLAG_ES_URL string = "es_url"
const FLAG_USERNAME string = "username"
const FLAG_PASSWORD string = "password"
const FLAG_EXCLUDE_PARTIAL string = "exclude_partial"
const FLAG_ITERATOR_URI string = "iterator-uri"
const FLAG_SHARDS string = "shards"
const FLAG_LOGLEVEL string = "loglevel"

// ENV_PREFIX is the prefix of environment variables that may be used to set any flag, for example
// ES_INGEST_PASSWORD for -password.
const ENV_PREFIX string = "ES_INGEST"

// type Variant describes one of the catalog ingest tools.
type Variant struct {
	// Name is the name of the tool.
	Name string
	// FromFiles is true if catalog documents are read from JSON files rather than a live cluster.
	FromFiles bool
	// AllowExcludePartial is true if the tool supports the -exclude_partial flag.
	AllowExcludePartial bool
	// UseUUID is true if documents are indexed using their index UUID as document ID.
	UseUUID bool
}

// LiveVariant ingests `_cat/indices` from the target cluster itself.
var LiveVariant = Variant{
	Name:                "es-ingest-cat",
	AllowExcludePartial: true,
	UseUUID:             true,
}

// FileVariant ingests `_cat/indices` output saved to one or more JSON files.
var FileVariant = Variant{
	Name:                "es-ingest-cat-file",
	FromFiles:           true,
	AllowExcludePartial: true,
	UseUUID:             true,
}

// DocVariant ingests `_cat/indices` output saved to one or more JSON files, letting Elasticsearch assign document IDs.
var DocVariant = Variant{
	Name:      "es-ingest-cat-doc",
	FromFiles: true,
}

// NewCatIndexerFlagSet creates a new `flag.FlagSet` instance with command-line flags required by the catalog ingest tool 'v'.
func NewCatIndexerFlagSet(ctx context.Context, v Variant) (*flag.FlagSet, error) {

	fs := flagset.NewFlagSet(v.Name)

	fs.String(FLAG_INDEX, "myindex", "The name of the Elasticsearch index to ingest catalog documents in to.")
	fs.String(FLAG_ES_URL, client.DEFAULT_HOST, "A fully-qualified Elasticsearch endpoint.")
	fs.String(FLAG_USERNAME, "elastic", "The Elasticsearch username.")
	fs.String(FLAG_PASSWORD, "", "The Elasticsearch password. If empty, and running in a terminal, you will be prompted for it.")
	fs.Int(FLAG_SHARDS, 1, "The number of primary shards of the index, if it needs to be created.")
	fs.String(FLAG_LOGLEVEL, logging.LEVEL_INFO, fmt.Sprintf("The log level. Valid options are: %s", strings.Join(logging.Levels, ", ")))

	if v.AllowExcludePartial {
		fs.Bool(FLAG_EXCLUDE_PARTIAL, false, fmt.Sprintf("Exclude indices starting with '%s'", document.PARTIAL_PREFIX))
	}

	if v.FromFiles {
		valid_schemes := strings.Join(emitter.Schemes(), ",")
		iterator_desc := fmt.Sprintf("A valid whosonfirst/go-whosonfirst-iterate/v2 URI. Supported emitter URI schemes are: %s", valid_schemes)
		fs.String(FLAG_ITERATOR_URI, "file://", iterator_desc)
	}

	return fs, nil
}

// ParseFlagSet assigns flag values from ENV_PREFIX environment variables and then from the command line, so
// that command line values win.
func ParseFlagSet(fs *flag.FlagSet) error {

	err := flagset.SetFlagsFromEnvVars(fs, ENV_PREFIX)

	if err != nil {
		return fmt.Errorf("%w: failed to assign flags from environment variables, %w", fieldusage.ErrConfiguration, err)
	}

	flagset.Parse(fs)
	return nil
}

// LoggerFromFlagSet returns a new `*zap.Logger` derived from the values in 'fs'.
func LoggerFromFlagSet(fs *flag.FlagSet) (*zap.Logger, error) {

	level, err := lookup.StringVar(fs, FLAG_LOGLEVEL)

	if err != nil {
		return nil, err
	}

	cfg := logging.Config{
		Level:     level,
		Format:    logging.FORMAT_DEFAULT,
		Blacklist: []string{client.TRANSPORT_LOGGER},
	}

	return logging.New(cfg)
}

// RunCatIndexerOptionsFromFlagSet returns a `RunCatIndexerOptions` instance derived from the values in 'fs'. If 'p' is not nil
// it is used to ask for the values of any connection flags that were not set explicitly.
func RunCatIndexerOptionsFromFlagSet(ctx context.Context, fs *flag.FlagSet, v Variant, p *prompt.Prompter, logger *zap.Logger) (*RunCatIndexerOptions, error) {

	set := make(map[string]bool)

	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	index_name, err := lookup.StringVar(fs, FLAG_INDEX)

	if err != nil {
		return nil, err
	}

	es_url, err := lookup.StringVar(fs, FLAG_ES_URL)

	if err != nil {
		return nil, err
	}

	username, err := lookup.StringVar(fs, FLAG_USERNAME)

	if err != nil {
		return nil, err
	}

	password, err := lookup.StringVar(fs, FLAG_PASSWORD)

	if err != nil {
		return nil, err
	}

	shards, err := lookup.IntVar(fs, FLAG_SHARDS)

	if err != nil {
		return nil, err
	}

	if p != nil {

		if !set[FLAG_INDEX] {

			index_name, err = p.String("Index", index_name)

			if err != nil {
				return nil, err
			}
		}

		if !set[FLAG_ES_URL] {

			es_url, err = p.String("Es url", es_url)

			if err != nil {
				return nil, err
			}
		}

		if !set[FLAG_USERNAME] {

			username, err = p.String("Username", username)

			if err != nil {
				return nil, err
			}
		}

		if password == "" {

			password, err = p.Password("Password", true)

			if err != nil {
				return nil, err
			}
		}
	}

	if password == "" {
		return nil, fmt.Errorf("%w: -%s is required", fieldusage.ErrMissingArgument, FLAG_PASSWORD)
	}

	if shards < 1 {
		return nil, fmt.Errorf("%w: -%s must be greater than zero", fieldusage.ErrConfiguration, FLAG_SHARDS)
	}

	settings := client.DefaultSettings()
	settings.Hosts = []string{es_url}
	settings.Username = username
	settings.Password = password

	es_client, err := client.New(settings, logger)

	if err != nil {
		return nil, err
	}

	filter_funcs := make([]document.FilterDocumentFunc, 0)

	if v.AllowExcludePartial {

		exclude_partial, err := lookup.BoolVar(fs, FLAG_EXCLUDE_PARTIAL)

		if err != nil {
			return nil, err
		}

		if exclude_partial {
			filter_funcs = append(filter_funcs, document.ExcludePartialIndices)
		}
	}

	var source CatSource

	if v.FromFiles {

		iterator_uri, err := lookup.StringVar(fs, FLAG_ITERATOR_URI)

		if err != nil {
			return nil, err
		}

		paths := fs.Args()

		if len(paths) == 0 {
			return nil, fmt.Errorf("%w: one or more catalog files are required", fieldusage.ErrMissingArgument)
		}

		source = &IteratorSource{
			IteratorURI:   iterator_uri,
			IteratorPaths: paths,
		}

	} else {

		source = &ClusterSource{
			Client: es_client,
		}
	}

	id_func := document.AutoDocumentID

	if v.UseUUID {
		id_func = document.UUIDDocumentID
	}

	opts := &RunCatIndexerOptions{
		Client:       es_client,
		Index:        index_name,
		Shards:       shards,
		Source:       source,
		FilterFuncs:  filter_funcs,
		PrepareFuncs: []document.PrepareDocumentFunc{document.RenameCatFields},
		DocumentID:   id_func,
		Logger:       logger,
	}

	return opts, nil
}

// RunCatIndexerWithFlagSet will ingest catalog documents with configuration details defined in 'fs'.
func RunCatIndexerWithFlagSet(ctx context.Context, fs *flag.FlagSet, v Variant, logger *zap.Logger) (*Stats, error) {

	var p *prompt.Prompter

	if prompt.IsInteractive() {
		p = prompt.New()
	}

	opts, err := RunCatIndexerOptionsFromFlagSet(ctx, fs, v, p, logger)

	if err != nil {
		return nil, err
	}

	return RunCatIndexer(ctx, opts)
}

// RunCatIndexerTool runs a complete ingest for the already parsed 'fs', writing any error to 'wr', and
// returns the process exit code. The logger is flushed before it returns so that callers may safely
// pass the result to os.Exit.
func RunCatIndexerTool(ctx context.Context, fs *flag.FlagSet, v Variant, wr io.Writer) int {

	logger, err := LoggerFromFlagSet(fs)

	if err != nil {
		fmt.Fprintln(wr, err)
		return fieldusage.ExitCode(err)
	}

	defer logger.Sync()

	stats, err := RunCatIndexerWithFlagSet(ctx, fs, v, logger)

	if err != nil {
		logger.Error("Failed to ingest catalog", zap.Error(err))
		fmt.Fprintln(wr, err)
		return fieldusage.ExitCode(err)
	}

	enc_stats, err := json.Marshal(stats)

	if err != nil {
		fmt.Fprintf(wr, "Failed to marshal stats, %v\n", err)
		return fieldusage.EXIT_FATAL
	}

	logger.Debug(string(enc_stats))
	return fieldusage.EXIT_OK
}
