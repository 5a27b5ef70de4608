package client

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/estest"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestVerifyURLSchema(t *testing.T) {

	cases := []struct {
		URL      string
		Expected string
		Err      bool
	}{
		{URL: "http://localhost:9200", Expected: "http://localhost:9200"},
		{URL: "http://localhost", Expected: "http://localhost:80"},
		{URL: "https://es.example.com", Expected: "https://es.example.com:443"},
		{URL: "https://es.example.com:9243/prefix", Expected: "https://es.example.com:9243/prefix"},
		{URL: "localhost:9200", Err: true},
		{URL: "ftp://localhost", Err: true},
		{URL: "http://", Err: true},
	}

	for _, c := range cases {
		t.Run(c.URL, func(t *testing.T) {

			u, err := VerifyURLSchema(c.URL)

			if c.Err {
				assert.ErrorIs(t, err, fieldusage.ErrConfiguration)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, c.Expected, u)
		})
	}
}

func TestAPIKeyEncoded(t *testing.T) {

	enc, err := APIKey{}.Encoded()
	require.NoError(t, err)
	assert.Empty(t, enc)

	enc, err = APIKey{ID: "id", Key: "secret"}.Encoded()
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("id:secret")), enc)

	enc, err = APIKey{ID: "id", Key: "secret", Token: "tok"}.Encoded()
	require.NoError(t, err)
	assert.Equal(t, "tok", enc)

	_, err = APIKey{ID: "id"}.Encoded()
	assert.ErrorIs(t, err, fieldusage.ErrMissingArgument)
}

func TestSettingsValidate(t *testing.T) {

	cases := []struct {
		Name     string
		Settings Settings
		Err      error
	}{
		{Name: "defaults", Settings: *DefaultSettings()},
		{Name: "hosts and cloud id", Settings: Settings{Hosts: []string{"http://a:9200"}, CloudID: "x:eA=="}, Err: fieldusage.ErrConfiguration},
		{Name: "username only", Settings: Settings{Username: "elastic"}, Err: fieldusage.ErrMissingArgument},
		{Name: "client cert only", Settings: Settings{ClientCert: "cert.pem"}, Err: fieldusage.ErrMissingArgument},
		{Name: "master only many hosts", Settings: Settings{Hosts: []string{"http://a:9200", "http://b:9200"}, MasterOnly: true}, Err: fieldusage.ErrConfiguration},
		{Name: "bad ssl version", Settings: Settings{SSLVersion: "SSLv3"}, Err: fieldusage.ErrConfiguration},
		{Name: "bad host", Settings: Settings{Hosts: []string{"a:9200"}}, Err: fieldusage.ErrConfiguration},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {

			err := c.Settings.Validate()

			if c.Err == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, c.Err)
		})
	}
}

func TestSettingsAddresses(t *testing.T) {

	s := DefaultSettings()

	addrs, err := s.Addresses()
	require.NoError(t, err)
	assert.Equal(t, []string{DEFAULT_HOST}, addrs)

	s.Hosts = []string{"http://es1", "https://es2:9243"}

	addrs, err = s.Addresses()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://es1:80", "https://es2:9243"}, addrs)
}

func TestTransportTLS(t *testing.T) {

	s := DefaultSettings()
	s.SSLVersion = "TLSv1.2"
	s.SSLAssertHostname = "es.internal"
	s.SSLAssertFingerprint = "AB:CD:EF"

	tr, err := newTransport(s)
	require.NoError(t, err)

	assert.Equal(t, uint16(tls.VersionTLS12), tr.TLSClientConfig.MinVersion)
	assert.Equal(t, "es.internal", tr.TLSClientConfig.ServerName)
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)
	assert.NotNil(t, tr.TLSClientConfig.VerifyPeerCertificate)
	assert.Equal(t, DEFAULT_REQUEST_TIMEOUT, tr.ResponseHeaderTimeout)

	assert.Equal(t, "abcdef", normalizeFingerprint(s.SSLAssertFingerprint))

	s.CACerts = "testdata/does-not-exist.pem"

	_, err = newTransport(s)
	assert.ErrorIs(t, err, fieldusage.ErrConfiguration)
}

func TestConnect(t *testing.T) {

	ctx := context.Background()

	cases := []struct {
		Name     string
		Fixtures *estest.Fixtures
		Settings func(s *Settings)
		Err      bool
	}{
		{Name: "supported", Fixtures: &estest.Fixtures{Version: "7.17.9"}},
		{Name: "eight", Fixtures: &estest.Fixtures{Version: "8.11.1"}},
		{Name: "too old", Fixtures: &estest.Fixtures{Version: "7.14.0-alpha1"}, Err: true},
		{Name: "too new", Fixtures: &estest.Fixtures{Version: "9.0.0"}, Err: true},
		{Name: "too new but skipped", Fixtures: &estest.Fixtures{Version: "9.0.0"}, Settings: func(s *Settings) { s.SkipVersionTest = true }},
		{Name: "master", Fixtures: &estest.Fixtures{}, Settings: func(s *Settings) { s.MasterOnly = true }},
		{Name: "not master", Fixtures: &estest.Fixtures{MasterID: "other"}, Settings: func(s *Settings) { s.MasterOnly = true }, Err: true},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {

			srv := estest.NewServer(t, c.Fixtures)

			s := DefaultSettings()
			s.Hosts = []string{srv.URL}

			if c.Settings != nil {
				c.Settings(s)
			}

			es_client, err := New(s, nil)
			require.NoError(t, err)

			v, err := Connect(ctx, es_client, s)

			if c.Err {
				assert.ErrorIs(t, err, fieldusage.ErrClient)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, c.Fixtures.Version, v.Original())
		})
	}
}
