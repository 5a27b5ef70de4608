package main

import (
	"context"
	"fmt"
	es "github.com/elastic/go-elasticsearch/v7"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/client"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/config"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"strings"
)

const EPILOG string = "Learn more at https://github.com/sfomuseum/go-elasticsearch-fieldusage"

// hiddenFlags are only listed by the show-all-options command.
var hiddenFlags = []string{
	"bearer_auth",
	"opaque_id",
	"http_compress",
	"no-http_compress",
	"ssl_assert_hostname",
	"ssl_assert_fingerprint",
	"ssl_version",
	"master-only",
	"no-master-only",
	"skip_version_test",
	"no-skip_version_test",
}

// type globalOptions are the connection and logging options shared by every command.
type globalOptions struct {
	config                 string
	hosts                  []string
	cloud_id               string
	api_token              string
	id                     string
	api_key                string
	username               string
	password               string
	bearer_auth            string
	opaque_id              string
	request_timeout        float64
	http_compress          bool
	verify_certs           bool
	ca_certs               string
	client_cert            string
	client_key             string
	ssl_assert_hostname    string
	ssl_assert_fingerprint string
	ssl_version            string
	master_only            bool
	skip_version_test      bool
	loglevel               string
	logfile                string
	logformat              string
}

// type session is what a command needs to talk to the cluster.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	client *es.Client
}

func (o *globalOptions) addFlags(fs *pflag.FlagSet) {

	fs.StringVar(&o.config, "config", "", "Path to configuration file.")
	fs.StringSliceVar(&o.hosts, "hosts", nil, "Elasticsearch URL to connect to. May be repeated.")
	fs.StringVar(&o.cloud_id, "cloud_id", "", "Elastic Cloud instance id")
	fs.StringVar(&o.api_token, "api_token", "", "The base64 encoded API Key token")
	fs.StringVar(&o.id, "id", "", "API Key \"id\" value")
	fs.StringVar(&o.api_key, "api_key", "", "API Key \"api_key\" value")
	fs.StringVar(&o.username, "username", "", "Elasticsearch username")
	fs.StringVar(&o.password, "password", "", "Elasticsearch password")
	fs.StringVar(&o.bearer_auth, "bearer_auth", "", "Bearer authentication token")
	fs.StringVar(&o.opaque_id, "opaque_id", "", "X-Opaque-Id HTTP header value")
	fs.Float64Var(&o.request_timeout, "request_timeout", client.DEFAULT_REQUEST_TIMEOUT.Seconds(), "Request timeout in seconds")
	addToggle(fs, &o.http_compress, "http_compress", "no-http_compress", false, "Enable HTTP compression")
	addToggle(fs, &o.verify_certs, "verify_certs", "no-verify_certs", true, "Verify SSL/TLS certificate(s)")
	fs.StringVar(&o.ca_certs, "ca_certs", "", "Path to CA certificate file or directory")
	fs.StringVar(&o.client_cert, "client_cert", "", "Path to client certificate file")
	fs.StringVar(&o.client_key, "client_key", "", "Path to client key file")
	fs.StringVar(&o.ssl_assert_hostname, "ssl_assert_hostname", "", "Hostname or IP address to verify on the node's certificate.")
	fs.StringVar(&o.ssl_assert_fingerprint, "ssl_assert_fingerprint", "", "SHA-256 fingerprint of the node's certificate.")
	fs.StringVar(&o.ssl_version, "ssl_version", "", "Minimum acceptable TLS/SSL version")
	addToggle(fs, &o.master_only, "master-only", "no-master-only", false, "Only run if the single host provided is the elected master")
	addToggle(fs, &o.skip_version_test, "skip_version_test", "no-skip_version_test", false, "Elasticsearch version compatibility check")
	fs.StringVar(&o.loglevel, "loglevel", logging.LEVEL_INFO, fmt.Sprintf("Log level. Valid options are: %s", strings.Join(logging.Levels, ", ")))
	fs.StringVar(&o.logfile, "logfile", "", "Log file")
	fs.StringVar(&o.logformat, "logformat", logging.FORMAT_DEFAULT, fmt.Sprintf("Log output format. Valid options are: %s", strings.Join(logging.Formats, ", ")))

	for _, name := range hiddenFlags {
		fs.MarkHidden(name)
	}
}

// overlay returns a *config.Config containing only the values set explicitly on the command line.
func (o *globalOptions) overlay(fs *pflag.FlagSet) *config.Config {

	cfg := &config.Config{}

	cl := &cfg.Elasticsearch.Client
	other := &cfg.Elasticsearch.OtherSettings
	lg := &cfg.Logging

	if fs.Changed("hosts") {
		cl.Hosts = config.StringList(o.hosts)
	}

	strings_by_flag := map[string]struct {
		dst **string
		src *string
	}{
		"cloud_id":               {&cl.CloudID, &o.cloud_id},
		"bearer_auth":            {&cl.BearerAuth, &o.bearer_auth},
		"opaque_id":              {&cl.OpaqueID, &o.opaque_id},
		"ca_certs":               {&cl.CACerts, &o.ca_certs},
		"client_cert":            {&cl.ClientCert, &o.client_cert},
		"client_key":             {&cl.ClientKey, &o.client_key},
		"ssl_assert_hostname":    {&cl.SSLAssertHostname, &o.ssl_assert_hostname},
		"ssl_assert_fingerprint": {&cl.SSLAssertFingerprint, &o.ssl_assert_fingerprint},
		"ssl_version":            {&cl.SSLVersion, &o.ssl_version},
		"username":               {&other.Username, &o.username},
		"password":               {&other.Password, &o.password},
		"id":                     {&other.APIKey.ID, &o.id},
		"api_key":                {&other.APIKey.APIKey, &o.api_key},
		"api_token":              {&other.APIKey.Token, &o.api_token},
		"loglevel":               {&lg.LogLevel, &o.loglevel},
		"logfile":                {&lg.LogFile, &o.logfile},
		"logformat":              {&lg.LogFormat, &o.logformat},
	}

	for name, v := range strings_by_flag {

		if fs.Changed(name) {
			*v.dst = v.src
		}
	}

	if fs.Changed("request_timeout") {
		cl.RequestTimeout = &o.request_timeout
	}

	if toggleChanged(fs, "http_compress", "no-http_compress") {
		cl.HTTPCompress = &o.http_compress
	}

	if toggleChanged(fs, "verify_certs", "no-verify_certs") {
		cl.VerifyCerts = &o.verify_certs
	}

	if toggleChanged(fs, "master-only", "no-master-only") {
		other.MasterOnly = &o.master_only
	}

	if toggleChanged(fs, "skip_version_test", "no-skip_version_test") {
		other.SkipVersionTest = &o.skip_version_test
	}

	return cfg
}

// resolve merges the built-in defaults, the configuration file (if any) and the command line, in that order.
func (o *globalOptions) resolve(fs *pflag.FlagSet) (*config.Config, []string, error) {

	cfg := config.Default()

	if o.config != "" {

		file_cfg, err := config.LoadFile(o.config)

		if err != nil {
			return nil, nil, err
		}

		cfg.Apply(file_cfg)
	}

	notes := cfg.Apply(o.overlay(fs))

	err := cfg.Validate()

	if err != nil {
		return nil, nil, err
	}

	return cfg, notes, nil
}

// connect resolves the configuration, builds the logger and returns a connected session.
func (o *globalOptions) connect(ctx context.Context, fs *pflag.FlagSet) (*session, error) {

	cfg, notes, err := o.resolve(fs)

	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LoggingConfig())

	if err != nil {
		return nil, err
	}

	for _, n := range notes {
		logger.Info(n)
	}

	settings := cfg.ClientSettings()

	es_client, err := client.New(settings, logger)

	if err != nil {
		logger.DPanic("Unable to establish connection to Elasticsearch", zap.Error(err))
		return nil, err
	}

	v, err := client.Connect(ctx, es_client, settings)

	if err != nil {
		logger.DPanic("Unable to establish connection to Elasticsearch", zap.Error(err))
		return nil, err
	}

	if v != nil {
		logger.Debug("Connected to Elasticsearch", zap.String("version", v.String()))
	}

	s := &session{
		cfg:    cfg,
		logger: logger,
		client: es_client,
	}

	return s, nil
}

// fatal logs err at the CRITICAL level and returns it wrapped as fieldusage.ErrFatal.
func (s *session) fatal(msg string, err error) error {
	s.logger.DPanic(msg, zap.Error(err))
	return fmt.Errorf("%w: %s: %w", fieldusage.ErrFatal, msg, err)
}

// NewRootCmd returns the es-fieldusage command with all of its subcommands.
func NewRootCmd() *cobra.Command {

	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "es-fieldusage",
		Short: "Elasticsearch Index Field Usage Reporting Tool",
		Long: `Elasticsearch Index Field Usage Reporting Tool

Sum all field query/request access for one or more indices using the Elastic Field Usage API
(https://ela.st/usagestats)

Generate a report at the command-line with the stdout command for all indices in INDEX_PATTERN:

$ es-fieldusage stdout INDEX_PATTERN

To avoid errors, be sure to encapsulate wildcards in single-quotes:

$ es-fieldusage stdout 'index-*'`,
		Version:       VERSION,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", fieldusage.ErrConfiguration, err)
	})

	root.SetVersionTemplate("{{.Name}}, version {{.Version}}\n")
	root.SetUsageTemplate(root.UsageTemplate() + "\n" + EPILOG + "\n")

	opts.addFlags(root.PersistentFlags())

	root.AddCommand(NewStdoutCmd(opts))
	root.AddCommand(NewFileCmd(opts))
	root.AddCommand(NewShowIndicesCmd(opts))
	root.AddCommand(NewShowAllOptionsCmd())

	return root
}

// exactArgs is cobra.ExactArgs with the error classified as a configuration error.
func exactArgs(n int) cobra.PositionalArgs {

	return func(cmd *cobra.Command, args []string) error {

		err := cobra.ExactArgs(n)(cmd, args)

		if err != nil {
			return fmt.Errorf("%w: %w", fieldusage.ErrMissingArgument, err)
		}

		return nil
	}
}
