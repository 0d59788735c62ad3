package engine

import (
	"github.com/exprkv/exprkv/internal/objpool"
)

// Limits bounds the payload sizes and TTLs the engine will accept, sourced
// from internal/config.Config at bootstrap.
type Limits struct {
	MaxKeySize     int
	MaxValueSize   int
	MaxItemTTL     int64
	MaxMemBytes    int64 // 0 = unlimited
	ComprThreshold int
}

// Server is the process-wide engine state (spec §3.3): the storage index,
// the item pool, compression scratch, configured limits, and every counter
// STATS reports. A Server must only ever be driven by one goroutine at a
// time — see the package doc comment on the concurrency model.
type Server struct {
	index *Index
	pool  *objpool.Pool[Item]

	limits         Limits
	comprThreshold int

	lzfScratch []byte

	// scratch lists for multi-key replies (spec Glossary: "Scratch lists").
	// KEYS and STATS reset them but build their reply slices per call, so
	// nothing is appended here.
	scratchKeys   [][]byte
	scratchValues []*Item

	time    int64
	started int64

	nitems              int64
	ncompressed         int64
	ncompressedSamples  int64
	nclients            int64
	connections         int64
	requests            int64
	crondone            int64
	firstin             int64
	lastin              int64
	memused             int64
	mempeak             int64
	sizeavg             float64
	compravg            float64
}

// NewServer builds an engine with the given limits, anchored to startedAt
// as both server.started and the initial server.time (advanced later by
// Tick, driven by the external cron collaborator).
func NewServer(limits Limits, startedAt int64) *Server {
	s := &Server{
		index:          NewIndex(1024),
		pool:           newItemPool(),
		limits:         limits,
		comprThreshold: limits.ComprThreshold,
		time:           startedAt,
		started:        startedAt,
	}
	return s
}

// Tick advances server.time. It is called by the external periodic task
// (the "cron") described in spec §3.3/§4.3 — handlers only ever read
// server.time, never the OS clock.
func (s *Server) Tick(now int64) {
	s.time = now
	s.crondone++
}

// OnConnect / OnDisconnect track the nclients/connections counters the host
// accept loop (out of scope for the core) is expected to report through.
func (s *Server) OnConnect() {
	s.nclients++
	s.connections++
}

func (s *Server) OnDisconnect() {
	if s.nclients > 0 {
		s.nclients--
	}
}

// clampTTL enforces spec §4.4's "clamp to maxitemttl" rule for a
// user-supplied ttl. Values <= 0 are returned unchanged (0/negative ttl
// values other than exactly -1 are handled by each call site).
func (s *Server) clampTTL(ttl int64) int64 {
	if s.limits.MaxItemTTL > 0 && ttl > s.limits.MaxItemTTL {
		return s.limits.MaxItemTTL
	}
	return ttl
}

func (s *Server) memPressured() bool {
	return s.limits.MaxMemBytes > 0 && s.memused > s.limits.MaxMemBytes
}

// Snapshot is a read-only copy of the STATS counters for collaborators
// outside the engine package (admin HTTP, Prometheus) that need the numbers
// without going through the wire reply path.
type Snapshot struct {
	Time, Started                             int64
	NItems, NCompressed                       int64
	NClients, Connections, Requests, CronDone int64
	FirstIn, LastIn                           int64
	MemUsed, MemPeak                          int64
	SizeAvg, ComprAvg                         float64
	PoolUsed, PoolCapacity                    int
	PoolTotalCapacity                         int64
}

// Snapshot copies out the current counters.
func (s *Server) Snapshot() Snapshot {
	return Snapshot{
		Time: s.time, Started: s.started,
		NItems: s.nitems, NCompressed: s.ncompressed,
		NClients: s.nclients, Connections: s.connections,
		Requests: s.requests, CronDone: s.crondone,
		FirstIn: s.firstin, LastIn: s.lastin,
		MemUsed: s.memused, MemPeak: s.mempeak,
		SizeAvg: s.sizeavg, ComprAvg: s.compravg,
		PoolUsed: s.pool.Used(), PoolCapacity: s.pool.Capacity(),
		PoolTotalCapacity: s.pool.TotalCapacity(),
	}
}

// resetScratch truncates the scratch key/value lists. KEYS and STATS call it
// before assembling their replies; both build those replies in fresh slices
// (KEYS keys are owned copies from index.SearchKeys, STATS keys are copies
// of static literals, see stats.go), so the lists themselves stay empty.
func (s *Server) resetScratch() {
	s.scratchKeys = s.scratchKeys[:0]
	s.scratchValues = s.scratchValues[:0]
}
