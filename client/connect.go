package client

import (
	"context"
	"fmt"
	"github.com/Masterminds/semver/v3"
	es "github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"github.com/tidwall/gjson"
	"io"
)

var (
	// VersionMin is the oldest Elasticsearch release that is supported.
	VersionMin = semver.MustParse("7.14.0")
	// VersionMax is the newest Elasticsearch release that is supported.
	VersionMax = semver.MustParse("8.99.99")
)

// Connect tests the connection to the cluster behind es_client. Unless settings.SkipVersionTest is
// set the cluster version must be between VersionMin and VersionMax. If settings.MasterOnly is set
// the node must be the elected master.
func Connect(ctx context.Context, es_client *es.Client, settings *Settings) (*semver.Version, error) {

	body, err := readResponse(es_client.Info(es_client.Info.WithContext(ctx)))

	if err != nil {
		return nil, fmt.Errorf("%w: unable to connect to Elasticsearch: %w", fieldusage.ErrClient, err)
	}

	number := gjson.GetBytes(body, "version.number").String()

	v, err := semver.NewVersion(number)

	if err != nil {
		return nil, fmt.Errorf("%w: unable to parse Elasticsearch version %q: %w", fieldusage.ErrClient, number, err)
	}

	if !settings.SkipVersionTest {

		if v.LessThan(VersionMin) || v.GreaterThan(VersionMax) {
			return nil, fmt.Errorf("%w: Elasticsearch version %s is not supported (must be between %s and %s)", fieldusage.ErrClient, v, VersionMin, VersionMax)
		}
	}

	if settings.MasterOnly {

		is_master, err := IsMasterNode(ctx, es_client)

		if err != nil {
			return nil, err
		}

		if !is_master {
			return nil, fmt.Errorf("%w: master_only is set and the connected node is not the elected master", fieldusage.ErrClient)
		}
	}

	return v, nil
}

// IsMasterNode reports whether the node es_client is connected to is the elected master.
func IsMasterNode(ctx context.Context, es_client *es.Client) (bool, error) {

	nodes_body, err := readResponse(es_client.Nodes.Info(
		es_client.Nodes.Info.WithNodeID("_local"),
		es_client.Nodes.Info.WithContext(ctx),
	))

	if err != nil {
		return false, fmt.Errorf("%w: unable to get local node info: %w", fieldusage.ErrClient, err)
	}

	local_id := ""

	gjson.GetBytes(nodes_body, "nodes").ForEach(func(key gjson.Result, _ gjson.Result) bool {
		local_id = key.String()
		return false
	})

	master_body, err := readResponse(es_client.Cat.Master(
		es_client.Cat.Master.WithFormat("json"),
		es_client.Cat.Master.WithContext(ctx),
	))

	if err != nil {
		return false, fmt.Errorf("%w: unable to get elected master: %w", fieldusage.ErrClient, err)
	}

	master_id := gjson.GetBytes(master_body, "0.id").String()

	return local_id != "" && local_id == master_id, nil
}

func readResponse(rsp *esapi.Response, err error) ([]byte, error) {

	if err != nil {
		return nil, err
	}

	defer rsp.Body.Close()

	err = fieldusage.CheckResponse(rsp)

	if err != nil {
		return nil, err
	}

	return io.ReadAll(rsp.Body)
}
