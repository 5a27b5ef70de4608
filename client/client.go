package client

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"github.com/cenkalti/backoff/v4"
	es "github.com/elastic/go-elasticsearch/v7"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"go.uber.org/zap"
	"net/http"
	"os"
	"strings"
	"time"
)

// TRANSPORT_LOGGER is the name of the logger used for HTTP round trips.
const TRANSPORT_LOGGER string = "elastic_transport"

// New returns a new *es.Client derived from settings. Round trips are logged, at debug level, to
// a child of logger named TRANSPORT_LOGGER.
func New(settings *Settings, logger *zap.Logger) (*es.Client, error) {

	if logger == nil {
		logger = zap.NewNop()
	}

	err := settings.Validate()

	if err != nil {
		return nil, err
	}

	addrs, err := settings.Addresses()

	if err != nil {
		return nil, err
	}

	api_key, err := settings.APIKey.Encoded()

	if err != nil {
		return nil, err
	}

	tr, err := newTransport(settings)

	if err != nil {
		return nil, err
	}

	retry := backoff.NewExponentialBackOff()

	es_cfg := es.Config{
		Addresses:    addrs,
		CloudID:      settings.CloudID,
		Username:     settings.Username,
		Password:     settings.Password,
		APIKey:       api_key,
		ServiceToken: settings.BearerAuth,
		Transport:    tr,

		CompressRequestBody: settings.HTTPCompress,

		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff: func(i int) time.Duration {
			if i == 1 {
				retry.Reset()
			}
			return retry.NextBackOff()
		},
		MaxRetries: 5,

		Logger: &transportLogger{logger: logger.Named(TRANSPORT_LOGGER)},
	}

	if settings.OpaqueID != "" {
		es_cfg.Header = http.Header{}
		es_cfg.Header.Set("X-Opaque-Id", settings.OpaqueID)
	}

	es_client, err := es.NewClient(es_cfg)

	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Elasticsearch client: %w", fieldusage.ErrClient, err)
	}

	return es_client, nil
}

func newTransport(settings *Settings) (*http.Transport, error) {

	min_version, err := tlsVersion(settings.SSLVersion)

	if err != nil {
		return nil, err
	}

	tls_cfg := &tls.Config{
		MinVersion:         min_version,
		ServerName:         settings.SSLAssertHostname,
		InsecureSkipVerify: !settings.VerifyCerts,
	}

	if settings.CACerts != "" {

		pem, err := os.ReadFile(settings.CACerts)

		if err != nil {
			return nil, fmt.Errorf("%w: failed to read ca_certs %s: %w", fieldusage.ErrConfiguration, settings.CACerts, err)
		}

		pool := x509.NewCertPool()

		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("%w: no certificates found in %s", fieldusage.ErrConfiguration, settings.CACerts)
		}

		tls_cfg.RootCAs = pool
	}

	if settings.ClientCert != "" {

		cert, err := tls.LoadX509KeyPair(settings.ClientCert, settings.ClientKey)

		if err != nil {
			return nil, fmt.Errorf("%w: failed to load client certificate: %w", fieldusage.ErrConfiguration, err)
		}

		tls_cfg.Certificates = []tls.Certificate{cert}
	}

	if settings.SSLAssertFingerprint != "" {

		expected := normalizeFingerprint(settings.SSLAssertFingerprint)

		// The pinned certificate replaces chain verification
		tls_cfg.InsecureSkipVerify = true

		tls_cfg.VerifyPeerCertificate = func(raw_certs [][]byte, _ [][]*x509.Certificate) error {

			if len(raw_certs) == 0 {
				return fmt.Errorf("server presented no certificates")
			}

			sum := sha256.Sum256(raw_certs[0])

			if hex.EncodeToString(sum[:]) != expected {
				return fmt.Errorf("server certificate fingerprint does not match %s", settings.SSLAssertFingerprint)
			}

			return nil
		}
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = tls_cfg
	tr.ResponseHeaderTimeout = settings.RequestTimeout

	return tr, nil
}

func normalizeFingerprint(fp string) string {
	return strings.ToLower(strings.ReplaceAll(fp, ":", ""))
}

func tlsVersion(v string) (uint16, error) {

	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "":
		return 0, nil
	case "TLSV1", "TLSV1.0", "TLSV1_0", "1.0":
		return tls.VersionTLS10, nil
	case "TLSV1.1", "TLSV1_1", "1.1":
		return tls.VersionTLS11, nil
	case "TLSV1.2", "TLSV1_2", "1.2":
		return tls.VersionTLS12, nil
	case "TLSV1.3", "TLSV1_3", "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("%w: unsupported ssl_version %q", fieldusage.ErrConfiguration, v)
	}
}
