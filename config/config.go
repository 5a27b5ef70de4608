// Package config loads layered es-fieldusage settings: built-in defaults, then an optional YAML
// file, then command line values.
package config

import (
	"fmt"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/client"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/docker"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/logging"
	"gopkg.in/yaml.v3"
	"os"
	"strings"
	"time"
)

// DOCKER_FILEPATH is the default output directory for file reports inside a container.
const DOCKER_FILEPATH string = "/fileoutput"

// type Config is the complete set of es-fieldusage settings. Unset (nil) values fall through to
// the layer below.
type Config struct {
	Elasticsearch Elasticsearch `yaml:"elasticsearch"`
	Logging       Logging       `yaml:"logging"`
}

type Elasticsearch struct {
	Client        Client        `yaml:"client"`
	OtherSettings OtherSettings `yaml:"other_settings"`
}

type Client struct {
	Hosts                StringList `yaml:"hosts"`
	CloudID              *string    `yaml:"cloud_id"`
	BearerAuth           *string    `yaml:"bearer_auth"`
	OpaqueID             *string    `yaml:"opaque_id"`
	RequestTimeout       *float64   `yaml:"request_timeout"`
	HTTPCompress         *bool      `yaml:"http_compress"`
	VerifyCerts          *bool      `yaml:"verify_certs"`
	CACerts              *string    `yaml:"ca_certs"`
	ClientCert           *string    `yaml:"client_cert"`
	ClientKey            *string    `yaml:"client_key"`
	SSLAssertHostname    *string    `yaml:"ssl_assert_hostname"`
	SSLAssertFingerprint *string    `yaml:"ssl_assert_fingerprint"`
	SSLVersion           *string    `yaml:"ssl_version"`
}

type OtherSettings struct {
	MasterOnly      *bool   `yaml:"master_only"`
	SkipVersionTest *bool   `yaml:"skip_version_test"`
	Username        *string `yaml:"username"`
	Password        *string `yaml:"password"`
	APIKey          APIKey  `yaml:"api_key"`
}

type APIKey struct {
	ID     *string `yaml:"id"`
	APIKey *string `yaml:"api_key"`
	Token  *string `yaml:"token"`
}

type Logging struct {
	LogLevel  *string    `yaml:"loglevel"`
	LogFile   *string    `yaml:"logfile"`
	LogFormat *string    `yaml:"logformat"`
	Blacklist StringList `yaml:"blacklist"`
}

// type StringList is a list of strings that may be written in YAML as a single scalar.
type StringList []string

func (l *StringList) UnmarshalYAML(node *yaml.Node) error {

	switch node.Kind {
	case yaml.ScalarNode:

		v := strings.TrimSpace(node.Value)

		if v == "" {
			*l = nil
			return nil
		}

		*l = StringList{v}
		return nil

	case yaml.SequenceNode:

		var values []string

		err := node.Decode(&values)

		if err != nil {
			return err
		}

		list := make(StringList, 0, len(values))

		for _, v := range values {

			v = strings.TrimSpace(v)

			if v != "" {
				list = append(list, v)
			}
		}

		*l = list
		return nil

	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", node.Line)
	}
}

// Default returns the built-in settings.
func Default() *Config {

	level := logging.LEVEL_INFO
	format := logging.FORMAT_DEFAULT

	return &Config{
		Logging: Logging{
			LogLevel:  &level,
			LogFormat: &format,
			Blacklist: StringList{client.TRANSPORT_LOGGER},
		},
	}
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {

	filename := strings.TrimSpace(path)

	if filename == "" {
		return nil, fmt.Errorf("%w: config path is empty", fieldusage.ErrConfiguration)
	}

	data, err := os.ReadFile(filename)

	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file %q: %w", fieldusage.ErrConfiguration, filename, err)
	}

	cfg := &Config{}

	err = yaml.Unmarshal(data, cfg)

	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse config file %q: %w", fieldusage.ErrConfiguration, filename, err)
	}

	return cfg, nil
}

// Apply overlays every value set in overlay on top of c. Hosts and cloud_id supersede each other:
// an overlay cloud_id clears any hosts in c and overlay hosts clear any cloud_id in c. Apply
// returns a note for each value it superseded.
func (c *Config) Apply(overlay *Config) []string {

	notes := make([]string, 0)

	if overlay == nil {
		return notes
	}

	src_client := overlay.Elasticsearch.Client
	dst_client := &c.Elasticsearch.Client

	if src_client.CloudID != nil && *src_client.CloudID != "" {

		if len(dst_client.Hosts) > 0 {
			notes = append(notes, "cloud_id from command-line superseding configuration file settings")
		}

		dst_client.Hosts = nil
	}

	if len(src_client.Hosts) > 0 {

		if dst_client.CloudID != nil && *dst_client.CloudID != "" {
			notes = append(notes, "hosts from command-line superseding configuration file settings")
		}

		dst_client.CloudID = nil
		dst_client.Hosts = src_client.Hosts
	}

	set(&dst_client.CloudID, src_client.CloudID)
	set(&dst_client.BearerAuth, src_client.BearerAuth)
	set(&dst_client.OpaqueID, src_client.OpaqueID)
	set(&dst_client.RequestTimeout, src_client.RequestTimeout)
	set(&dst_client.HTTPCompress, src_client.HTTPCompress)
	set(&dst_client.VerifyCerts, src_client.VerifyCerts)
	set(&dst_client.CACerts, src_client.CACerts)
	set(&dst_client.ClientCert, src_client.ClientCert)
	set(&dst_client.ClientKey, src_client.ClientKey)
	set(&dst_client.SSLAssertHostname, src_client.SSLAssertHostname)
	set(&dst_client.SSLAssertFingerprint, src_client.SSLAssertFingerprint)
	set(&dst_client.SSLVersion, src_client.SSLVersion)

	src_other := overlay.Elasticsearch.OtherSettings
	dst_other := &c.Elasticsearch.OtherSettings

	set(&dst_other.MasterOnly, src_other.MasterOnly)
	set(&dst_other.SkipVersionTest, src_other.SkipVersionTest)
	set(&dst_other.Username, src_other.Username)
	set(&dst_other.Password, src_other.Password)
	set(&dst_other.APIKey.ID, src_other.APIKey.ID)
	set(&dst_other.APIKey.APIKey, src_other.APIKey.APIKey)
	set(&dst_other.APIKey.Token, src_other.APIKey.Token)

	set(&c.Logging.LogLevel, overlay.Logging.LogLevel)
	set(&c.Logging.LogFile, overlay.Logging.LogFile)
	set(&c.Logging.LogFormat, overlay.Logging.LogFormat)

	if overlay.Logging.Blacklist != nil {
		c.Logging.Blacklist = overlay.Logging.Blacklist
	}

	return notes
}

// Validate checks the merged settings.
func (c *Config) Validate() error {

	err := c.LoggingConfig().Validate()

	if err != nil {
		return err
	}

	return c.ClientSettings().Validate()
}

// ClientSettings returns the resolved client.Settings.
func (c *Config) ClientSettings() *client.Settings {

	s := client.DefaultSettings()

	cl := c.Elasticsearch.Client
	other := c.Elasticsearch.OtherSettings

	s.Hosts = cl.Hosts
	s.CloudID = value(cl.CloudID, "")
	s.BearerAuth = value(cl.BearerAuth, "")
	s.OpaqueID = value(cl.OpaqueID, "")
	s.HTTPCompress = value(cl.HTTPCompress, false)
	s.VerifyCerts = value(cl.VerifyCerts, true)
	s.CACerts = value(cl.CACerts, "")
	s.ClientCert = value(cl.ClientCert, "")
	s.ClientKey = value(cl.ClientKey, "")
	s.SSLAssertHostname = value(cl.SSLAssertHostname, "")
	s.SSLAssertFingerprint = value(cl.SSLAssertFingerprint, "")
	s.SSLVersion = value(cl.SSLVersion, "")

	if cl.RequestTimeout != nil && *cl.RequestTimeout > 0 {
		s.RequestTimeout = time.Duration(*cl.RequestTimeout * float64(time.Second))
	}

	s.MasterOnly = value(other.MasterOnly, false)
	s.SkipVersionTest = value(other.SkipVersionTest, false)
	s.Username = value(other.Username, "")
	s.Password = value(other.Password, "")

	s.APIKey = client.APIKey{
		ID:    value(other.APIKey.ID, ""),
		Key:   value(other.APIKey.APIKey, ""),
		Token: value(other.APIKey.Token, ""),
	}

	return s
}

// LoggingConfig returns the resolved logging.Config.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:     value(c.Logging.LogLevel, logging.LEVEL_INFO),
		File:      value(c.Logging.LogFile, ""),
		Format:    value(c.Logging.LogFormat, logging.FORMAT_DEFAULT),
		Blacklist: c.Logging.Blacklist,
	}
}

// DefaultFilePath returns the default directory for file reports: /fileoutput inside a container,
// otherwise the current working directory.
func DefaultFilePath() string {

	if docker.IsDocker() {
		return DOCKER_FILEPATH
	}

	cwd, err := os.Getwd()

	if err != nil {
		return "."
	}

	return cwd
}

func set[T any](dst **T, src *T) {

	if src != nil {
		v := *src
		*dst = &v
	}
}

func value[T any](v *T, fallback T) T {

	if v == nil {
		return fallback
	}

	return *v
}
