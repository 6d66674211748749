package cluster_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqzr-sharding/sqzr/cluster"
)

func TestRestClientHealth(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/_cluster/health/idx", r.URL.Path)
		assert.Equal("green", r.URL.Query().Get("wait_for_status"))
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "green", "timed_out": false})
	}))
	defer srv.Close()

	cl := cluster.NewRestClient(srv.URL)
	ctx := context.TODO()
	status, timedOut, err := cl.Health(ctx, "idx", cluster.HealthGreen, time.Minute)

	assert.NoError(err)
	assert.Equal(cluster.HealthGreen, status)
	assert.False(timedOut)
}

func TestRestClientHealthTimedOut(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestTimeout)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "yellow", "timed_out": true})
	}))
	defer srv.Close()

	cl := cluster.NewRestClient(srv.URL)
	ctx := context.TODO()
	status, timedOut, err := cl.Health(ctx, "idx", cluster.HealthGreen, time.Second)

	assert.NoError(err)
	assert.Equal(cluster.HealthYellow, status)
	assert.True(timedOut)
}

func TestRestClientIndexStats(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/idx/_settings":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"idx": map[string]any{
					"settings": map[string]any{
						"index": map[string]any{
							"number_of_shards":   "2",
							"number_of_replicas": "1",
						},
					},
				},
			})
		case "/idx/_stats":
			assert.Equal("shards", r.URL.Query().Get("level"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"indices": map[string]any{
					"idx": map[string]any{
						"primaries": map[string]any{
							"store": map[string]any{"size_in_bytes": 1024},
						},
						"shards": map[string]any{
							"0": []any{
								map[string]any{
									"routing": map[string]any{"state": "STARTED", "primary": true, "node": "node-a"},
									"seq_no":  map[string]any{"local_checkpoint": 10},
								},
								map[string]any{
									"routing": map[string]any{"state": "STARTED", "primary": false, "node": "node-b"},
									"seq_no":  map[string]any{"local_checkpoint": 10},
								},
							},
							"1": []any{
								map[string]any{
									"routing": map[string]any{"state": "RELOCATING", "primary": true, "node": "node-b"},
									"seq_no":  map[string]any{"local_checkpoint": 9},
								},
							},
						},
					},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	cl := cluster.NewRestClient(srv.URL)
	ctx := context.TODO()
	stats, err := cl.IndexStats(ctx, "idx")

	require.NoError(t, err)
	assert.Equal(2, stats.NumShards)
	assert.Equal(1, stats.NumReplicas)
	assert.EqualValues(1024, stats.StoreBytes)
	require.Len(t, stats.Shards, 3)
	assert.Equal(1, stats.StartedPrimariesOn("node-a"))
	assert.Equal(0, stats.StartedPrimariesOn("node-b"))
}

func TestRestClientNodesStats(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/_nodes/stats/os", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"nodes": map[string]any{
				"abc123": map[string]any{
					"name": "node-a",
					"os": map[string]any{
						"mem": map[string]any{"free_in_bytes": 100, "total_in_bytes": 200},
					},
				},
			},
		})
	}))
	defer srv.Close()

	cl := cluster.NewRestClient(srv.URL)
	ctx := context.TODO()
	nodes, err := cl.NodesStats(ctx)

	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(cluster.NodeStats{Name: "node-a", MemFreeBytes: 100, MemTotalBytes: 200}, nodes[0])
}

func TestRestClientCanMoveShard(t *testing.T) {
	assert := assert.New(t)

	decisions := []string{"YES", "YES"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/_cluster/reroute", r.URL.Path)
		assert.Equal("true", r.URL.Query().Get("dry_run"))

		var req struct {
			Commands []map[string]map[string]any `json:"commands"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Commands, 1)
		assert.Equal("idx", req.Commands[0]["move"]["index"])

		var ds []map[string]string
		for _, d := range decisions {
			ds = append(ds, map[string]string{"decision": d})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"explanations": []any{map[string]any{"decisions": ds}},
		})
	}))
	defer srv.Close()

	cl := cluster.NewRestClient(srv.URL)
	ctx := context.TODO()

	ok, err := cl.CanMoveShard(ctx, "idx", 0, "node-a", "node-b")
	assert.NoError(err)
	assert.True(ok)

	decisions = []string{"YES", "THROTTLE"}
	ok, err = cl.CanMoveShard(ctx, "idx", 0, "node-a", "node-b")
	assert.NoError(err)
	assert.False(ok)
}

func TestRestClientUpdateSettingsAndResize(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/idx/_settings":
			_ = json.NewEncoder(w).Encode(map[string]any{"acknowledged": true})
		case r.Method == http.MethodPost && r.URL.Path == "/idx/_shrink/idx_shrunken":
			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			settings := req["settings"].(map[string]any)
			assert.EqualValues(2, settings["index.number_of_shards"])
			assert.Equal("node-a", settings["index.routing.allocation.require._name"])
			_ = json.NewEncoder(w).Encode(map[string]any{"acknowledged": true})
		default:
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	cl := cluster.NewRestClient(srv.URL)
	ctx := context.TODO()

	acked, err := cl.UpdateSettings(ctx, "idx", map[string]any{"index.blocks.writes": true})
	assert.NoError(err)
	assert.True(acked)

	acked, err = cl.Resize(ctx, &cluster.ResizeRequest{
		SourceIndex:     "idx",
		TargetIndex:     "idx_shrunken",
		NumShards:       2,
		RequireNodeName: "node-a",
	})
	assert.NoError(err)
	assert.True(acked)
}

func TestRestClientIndexExists(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(http.MethodHead, r.Method)
		if r.URL.Path == "/present" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cl := cluster.NewRestClient(srv.URL)
	ctx := context.TODO()

	exists, err := cl.IndexExists(ctx, "present")
	assert.NoError(err)
	assert.True(exists)

	exists, err = cl.IndexExists(ctx, "absent")
	assert.NoError(err)
	assert.False(exists)
}
