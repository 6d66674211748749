package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/sqzr-sharding/sqzr/pkg/sqzrlog"
	"github.com/sqzr-sharding/sqzr/statistics"
)

// RestClient talks to the storage cluster over its HTTP API.
type RestClient struct {
	endpoint string
	cli      *http.Client
}

var _ Client = &RestClient{}

func NewRestClient(endpoint string) *RestClient {
	return &RestClient{
		endpoint: endpoint,
		cli:      &http.Client{},
	}
}

func (c *RestClient) do(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, errors.Wrap(err, "marshal request body")
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reqBody)
	if err != nil {
		return 0, errors.Wrap(err, "build cluster request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.cli.Do(req)
	if err != nil {
		return 0, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	// a 408 still carries a meaningful body: the health API reports the
	// observed status that way when the wait expires
	decodable := resp.StatusCode < 300 || resp.StatusCode == http.StatusRequestTimeout
	if out != nil && decodable {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, errors.Wrapf(err, "decode response of %s %s", method, path)
		}
	}
	return resp.StatusCode, nil
}

func (c *RestClient) Health(ctx context.Context, index string, waitForStatus string, wait time.Duration) (string, bool, error) {
	t := time.Now()
	defer func() {
		statistics.RecordClusterOperation("Health", time.Since(t))
	}()

	path := fmt.Sprintf("/_cluster/health/%s?wait_for_status=%s&timeout=%ds",
		index, waitForStatus, int(wait.Seconds()))

	var body struct {
		Status   string `json:"status"`
		TimedOut bool   `json:"timed_out"`
	}
	code, err := c.do(ctx, http.MethodGet, path, nil, &body)
	if err != nil {
		return "", false, err
	}
	// the health API answers 408 when the wait times out, body still valid
	if code >= 300 && code != http.StatusRequestTimeout {
		return "", false, errors.Errorf("cluster health for %s returned status %d", index, code)
	}

	sqzrlog.Zero.Debug().
		Str("index", index).
		Str("status", body.Status).
		Bool("timed-out", body.TimedOut).
		Msg("restclient: cluster health")

	return body.Status, body.TimedOut, nil
}

type settingsResponse map[string]struct {
	Settings struct {
		Index struct {
			NumberOfShards   string `json:"number_of_shards"`
			NumberOfReplicas string `json:"number_of_replicas"`
		} `json:"index"`
	} `json:"settings"`
}

type statsResponse struct {
	Indices map[string]struct {
		Primaries struct {
			Store struct {
				SizeInBytes int64 `json:"size_in_bytes"`
			} `json:"store"`
		} `json:"primaries"`
		Shards map[string][]struct {
			Routing struct {
				State   string `json:"state"`
				Primary bool   `json:"primary"`
				Node    string `json:"node"`
			} `json:"routing"`
			SeqNo struct {
				LocalCheckpoint int64 `json:"local_checkpoint"`
			} `json:"seq_no"`
		} `json:"shards"`
	} `json:"indices"`
}

func (c *RestClient) IndexStats(ctx context.Context, index string) (*IndexStats, error) {
	t := time.Now()
	defer func() {
		statistics.RecordClusterOperation("IndexStats", time.Since(t))
	}()

	var settings settingsResponse
	if code, err := c.do(ctx, http.MethodGet, "/"+index+"/_settings", nil, &settings); err != nil {
		return nil, err
	} else if code >= 300 {
		return nil, errors.Errorf("settings of %s returned status %d", index, code)
	}

	cfg, ok := settings[index]
	if !ok {
		return nil, errors.Errorf("settings response misses index %s", index)
	}
	numShards, err := strconv.Atoi(cfg.Settings.Index.NumberOfShards)
	if err != nil {
		return nil, errors.Wrapf(err, "number_of_shards of %s", index)
	}
	numReplicas, err := strconv.Atoi(cfg.Settings.Index.NumberOfReplicas)
	if err != nil {
		return nil, errors.Wrapf(err, "number_of_replicas of %s", index)
	}

	var stats statsResponse
	if code, err := c.do(ctx, http.MethodGet, "/"+index+"/_stats?level=shards", nil, &stats); err != nil {
		return nil, err
	} else if code >= 300 {
		return nil, errors.Errorf("stats of %s returned status %d", index, code)
	}

	idx, ok := stats.Indices[index]
	if !ok {
		return nil, errors.Errorf("stats response misses index %s", index)
	}

	out := &IndexStats{
		Index:       index,
		NumShards:   numShards,
		NumReplicas: numReplicas,
		StoreBytes:  idx.Primaries.Store.SizeInBytes,
	}
	for id, copies := range idx.Shards {
		shardID, err := strconv.Atoi(id)
		if err != nil {
			return nil, errors.Wrapf(err, "shard id %q of %s", id, index)
		}
		for _, sh := range copies {
			out.Shards = append(out.Shards, ShardStats{
				ID:              shardID,
				Primary:         sh.Routing.Primary,
				Node:            sh.Routing.Node,
				State:           sh.Routing.State,
				LocalCheckpoint: sh.SeqNo.LocalCheckpoint,
			})
		}
	}
	sort.Slice(out.Shards, func(i, j int) bool {
		if out.Shards[i].ID != out.Shards[j].ID {
			return out.Shards[i].ID < out.Shards[j].ID
		}
		return out.Shards[i].Primary && !out.Shards[j].Primary
	})
	return out, nil
}

func (c *RestClient) NodesStats(ctx context.Context) ([]NodeStats, error) {
	t := time.Now()
	defer func() {
		statistics.RecordClusterOperation("NodesStats", time.Since(t))
	}()

	var body struct {
		Nodes map[string]struct {
			Name string `json:"name"`
			OS   struct {
				Mem struct {
					FreeInBytes  int64 `json:"free_in_bytes"`
					TotalInBytes int64 `json:"total_in_bytes"`
				} `json:"mem"`
			} `json:"os"`
		} `json:"nodes"`
	}
	if code, err := c.do(ctx, http.MethodGet, "/_nodes/stats/os", nil, &body); err != nil {
		return nil, err
	} else if code >= 300 {
		return nil, errors.Errorf("nodes stats returned status %d", code)
	}

	out := make([]NodeStats, 0, len(body.Nodes))
	for _, n := range body.Nodes {
		out = append(out, NodeStats{
			Name:          n.Name,
			MemFreeBytes:  n.OS.Mem.FreeInBytes,
			MemTotalBytes: n.OS.Mem.TotalInBytes,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *RestClient) CanMoveShard(ctx context.Context, index string, shard int, fromNode, toNode string) (bool, error) {
	t := time.Now()
	defer func() {
		statistics.RecordClusterOperation("CanMoveShard", time.Since(t))
	}()

	reqBody := map[string]any{
		"commands": []map[string]any{
			{
				"move": map[string]any{
					"index":     index,
					"shard":     shard,
					"from_node": fromNode,
					"to_node":   toNode,
				},
			},
		},
	}

	var body struct {
		Explanations []struct {
			Decisions []struct {
				Decision string `json:"decision"`
			} `json:"decisions"`
		} `json:"explanations"`
	}
	code, err := c.do(ctx, http.MethodPost, "/_cluster/reroute?dry_run=true&explain=true", reqBody, &body)
	if err != nil {
		return false, err
	}
	if code >= 300 {
		// a rejected move command is a "no", not a transport failure
		sqzrlog.Zero.Debug().
			Str("index", index).
			Int("shard", shard).
			Int("code", code).
			Msg("restclient: reroute simulation rejected")
		return false, nil
	}
	if len(body.Explanations) == 0 {
		return false, nil
	}
	for _, e := range body.Explanations {
		for _, d := range e.Decisions {
			if d.Decision != "YES" {
				return false, nil
			}
		}
	}
	return true, nil
}

func (c *RestClient) UpdateSettings(ctx context.Context, index string, settings map[string]any) (bool, error) {
	t := time.Now()
	defer func() {
		statistics.RecordClusterOperation("UpdateSettings", time.Since(t))
	}()

	var body struct {
		Acknowledged bool `json:"acknowledged"`
	}
	code, err := c.do(ctx, http.MethodPut, "/"+index+"/_settings", settings, &body)
	if err != nil {
		return false, err
	}
	if code >= 300 {
		return false, errors.Errorf("settings update of %s returned status %d", index, code)
	}
	return body.Acknowledged, nil
}

func (c *RestClient) Resize(ctx context.Context, req *ResizeRequest) (bool, error) {
	t := time.Now()
	defer func() {
		statistics.RecordClusterOperation("Resize", time.Since(t))
	}()

	aliases := map[string]any{}
	for _, a := range req.Aliases {
		aliases[a.Name] = map[string]any{"is_write_index": a.IsWriteIndex}
	}
	reqBody := map[string]any{
		"settings": map[string]any{
			"index.number_of_shards":                 req.NumShards,
			"index.routing.allocation.require._name": req.RequireNodeName,
		},
	}
	if len(aliases) > 0 {
		reqBody["aliases"] = aliases
	}

	var body struct {
		Acknowledged bool `json:"acknowledged"`
	}
	code, err := c.do(ctx, http.MethodPost, "/"+req.SourceIndex+"/_shrink/"+req.TargetIndex, reqBody, &body)
	if err != nil {
		return false, err
	}
	if code >= 300 {
		return false, errors.Errorf("shrink of %s into %s returned status %d", req.SourceIndex, req.TargetIndex, code)
	}
	return body.Acknowledged, nil
}

func (c *RestClient) IndexExists(ctx context.Context, index string) (bool, error) {
	t := time.Now()
	defer func() {
		statistics.RecordClusterOperation("IndexExists", time.Since(t))
	}()

	code, err := c.do(ctx, http.MethodHead, "/"+index, nil, nil)
	if err != nil {
		return false, err
	}
	switch code {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, errors.Errorf("index exists check of %s returned status %d", index, code)
	}
}
