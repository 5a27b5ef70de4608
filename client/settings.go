// Package client builds Elasticsearch clients from layered connection settings.
package client

import (
	"encoding/base64"
	"fmt"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"net/url"
	"time"
)

// DEFAULT_HOST is used when neither hosts nor a cloud id are configured.
const DEFAULT_HOST string = "http://127.0.0.1:9200"

// DEFAULT_REQUEST_TIMEOUT is the default per-request timeout.
const DEFAULT_REQUEST_TIMEOUT time.Duration = 10 * time.Second

// type APIKey holds API key credentials, either as an id/key pair or as an already encoded token.
type APIKey struct {
	ID    string
	Key   string
	Token string
}

// Encoded returns the base64 encoded API key credentials, or "" if none are set.
func (k APIKey) Encoded() (string, error) {

	if k.Token != "" {
		return k.Token, nil
	}

	switch {
	case k.ID == "" && k.Key == "":
		return "", nil
	case k.ID == "" || k.Key == "":
		return "", fmt.Errorf("%w: API key id and api_key must both be set", fieldusage.ErrMissingArgument)
	}

	creds := fmt.Sprintf("%s:%s", k.ID, k.Key)
	return base64.StdEncoding.EncodeToString([]byte(creds)), nil
}

// type Settings are the resolved connection settings for an Elasticsearch client.
type Settings struct {
	Hosts                []string
	CloudID              string
	APIKey               APIKey
	Username             string
	Password             string
	BearerAuth           string
	OpaqueID             string
	RequestTimeout       time.Duration
	HTTPCompress         bool
	VerifyCerts          bool
	CACerts              string
	ClientCert           string
	ClientKey            string
	SSLAssertHostname    string
	SSLAssertFingerprint string
	SSLVersion           string
	MasterOnly           bool
	SkipVersionTest      bool
}

// DefaultSettings returns the settings used when nothing else is configured.
func DefaultSettings() *Settings {
	return &Settings{
		RequestTimeout: DEFAULT_REQUEST_TIMEOUT,
		VerifyCerts:    true,
	}
}

// Addresses returns the validated host URLs. If neither hosts nor a cloud id are set DEFAULT_HOST
// is returned.
func (s *Settings) Addresses() ([]string, error) {

	if len(s.Hosts) > 0 && s.CloudID != "" {
		return nil, fmt.Errorf("%w: hosts and cloud_id are mutually exclusive", fieldusage.ErrConfiguration)
	}

	if s.CloudID != "" {
		return nil, nil
	}

	if len(s.Hosts) == 0 {
		return []string{DEFAULT_HOST}, nil
	}

	addrs := make([]string, len(s.Hosts))

	for i, h := range s.Hosts {

		u, err := VerifyURLSchema(h)

		if err != nil {
			return nil, err
		}

		addrs[i] = u
	}

	return addrs, nil
}

// Validate checks s for missing or conflicting values.
func (s *Settings) Validate() error {

	_, err := s.Addresses()

	if err != nil {
		return err
	}

	if (s.Username == "") != (s.Password == "") {
		return fmt.Errorf("%w: username and password must both be set", fieldusage.ErrMissingArgument)
	}

	_, err = s.APIKey.Encoded()

	if err != nil {
		return err
	}

	if (s.ClientCert == "") != (s.ClientKey == "") {
		return fmt.Errorf("%w: client_cert and client_key must both be set", fieldusage.ErrMissingArgument)
	}

	if s.MasterOnly && len(s.Hosts) > 1 {
		return fmt.Errorf("%w: master_only can only be used with a single host", fieldusage.ErrConfiguration)
	}

	_, err = tlsVersion(s.SSLVersion)

	if err != nil {
		return err
	}

	return nil
}

// VerifyURLSchema ensures that u is an http(s) URL with an explicit port, adding port 80 or 443
// when none is present.
func VerifyURLSchema(u string) (string, error) {

	parsed, err := url.Parse(u)

	if err != nil {
		return "", fmt.Errorf("%w: invalid URL %q: %w", fieldusage.ErrConfiguration, u, err)
	}

	var default_port string

	switch parsed.Scheme {
	case "http":
		default_port = "80"
	case "https":
		default_port = "443"
	default:
		return "", fmt.Errorf("%w: URL %q must begin with http:// or https://", fieldusage.ErrConfiguration, u)
	}

	if parsed.Hostname() == "" {
		return "", fmt.Errorf("%w: URL %q is missing a host name", fieldusage.ErrConfiguration, u)
	}

	if parsed.Port() == "" {
		parsed.Host = fmt.Sprintf("%s:%s", parsed.Host, default_port)
	}

	return parsed.String(), nil
}
