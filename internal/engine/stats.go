package engine

import (
	"runtime"
	"strconv"

	"github.com/exprkv/exprkv/internal/memheap"
)

// serverVersion mirrors a banner-style Version constant; there is no
// build-time injection here, so it and serverBuildDate are fixed literals.
const (
	serverVersion   = "1.0.0"
	serverBuildDate = "unmarked"
	serverAllocator = "go-runtime"
)

// statKeys is the fixed, ordered key list spec §6.3 requires. These are
// static string literals: the borrowed half of the STATS reply, never freed
// alongside the owned volatile values built to carry them.
var statKeys = []string{
	"server_version", "server_build_datetime", "server_allocator", "server_arch",
	"server_started", "server_time", "first_item_seen", "last_item_seen",
	"total_items", "total_compressed_items", "total_clients", "total_cron_done",
	"total_connections", "total_requests",
	"item_pool_current_used", "item_pool_current_capacity", "item_pool_total_capacity",
	"item_pool_object_size", "item_pool_max_block_size",
	"memory_available", "memory_usable", "memory_used", "memory_peak", "memory_fragmentation",
	"item_size_avg", "compr_rate_avg", "reqs_per_client_avg",
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// handleStats implements STATS (spec §4.7): materializes the fixed counter
// list as volatile items in freshly allocated key/value slices (the Server
// scratch lists are reset, not filled), sends one key/value set reply, then
// tears the volatile values down. It never fails.
func (s *Server) handleStats(sink ReplySink) {
	reqsPerClient := 0.0
	if s.connections > 0 {
		reqsPerClient = float64(s.requests) / float64(s.connections)
	}

	values := []string{
		serverVersion,
		serverBuildDate,
		serverAllocator,
		runtime.GOARCH,
		strconv.FormatInt(s.started, 10),
		strconv.FormatInt(s.time, 10),
		strconv.FormatInt(s.firstin, 10),
		strconv.FormatInt(s.lastin, 10),
		strconv.FormatInt(s.nitems, 10),
		strconv.FormatInt(s.ncompressed, 10),
		strconv.FormatInt(s.nclients, 10),
		strconv.FormatInt(s.crondone, 10),
		strconv.FormatInt(s.connections, 10),
		strconv.FormatInt(s.requests, 10),
		strconv.Itoa(s.pool.Used()),
		strconv.Itoa(s.pool.Capacity()),
		strconv.FormatInt(s.pool.TotalCapacity(), 10),
		strconv.FormatInt(int64(s.pool.ObjectSize()), 10),
		strconv.FormatInt(int64(s.pool.MaxBlockSize()), 10),
		strconv.FormatUint(memAvailable(), 10),
		strconv.FormatInt(s.limits.MaxMemBytes, 10), // memory_usable: the write ceiling memPressured() enforces, not a heap-usage figure
		strconv.FormatInt(s.memused, 10),
		strconv.FormatInt(s.mempeak, 10),
		formatFloat(memheap.MemFragmentationRatio()),
		formatFloat(s.sizeavg),
		formatFloat(s.compravg),
		formatFloat(reqsPerClient),
	}

	s.resetScratch()
	keys := make([][]byte, len(statKeys))
	items := make([]*Item, len(values))
	for i, v := range values {
		keys[i] = []byte(statKeys[i])
		data := []byte(v)
		items[i] = s.createVolatileItem(Plain, data, 0, len(data))
	}
	sink.EnqueueKV(keys, items)
	for _, it := range items {
		s.destroyVolatileItem(it)
	}
}

// memAvailable reports the system memory ceiling backing "memory_available".
// runtime.MemStats has no notion of a system-wide ceiling, so this reuses
// Sys — the memory the Go runtime has obtained from the OS — as the closest
// available proxy, consistent with memheap's other MemStats-derived figures.
func memAvailable() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Sys
}
