package vecindex

import (
	"bufio"
	"encoding/gob"
	"io"
	"os"

	"github.com/bits-and-blooms/bitset"

	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/errs"
)

// fileVersion is bumped whenever the on-disk layout changes. Loading a file
// with a different version fails loudly rather than attempting a best-effort
// decode (§6.4 "mismatched versions fail loudly").
const fileVersion = 1

// snapshot is the gob-encoded on-disk representation of a Store. Only the
// configuration, the raw vectors, the slot-to-key table and the tombstone
// set are persisted (the key-to-slot map is rebuilt from the live slots on
// load); the fogfish/hnsw graph itself is
// never serialized and is rebuilt from scratch on load (§4.4's
// rebuild-on-dirty path doubles as the load path), matching the teacher's
// own rebuildHNSWIndex: it never serializes hnswIndex either, re-inserting
// every row read back from its backing table instead.
type snapshot struct {
	Version    int
	Dim        int
	Metric     catalog.VectorMetric
	Alg        catalog.HNSWAlgorithm
	Vectors    [][]float32
	KeyOfSlot  []string
	Tombstones []byte
}

// Save writes the store's live state to path (§6.4).
func (s *Store) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tb, err := s.tombstones.MarshalBinary()
	if err != nil {
		return errs.Wrap("vecindex.Save", err)
	}
	snap := snapshot{
		Version:    fileVersion,
		Dim:        s.dim,
		Metric:     s.metric,
		Alg:        s.alg,
		Vectors:    s.vectors,
		KeyOfSlot:  s.keyOfSlot,
		Tombstones: tb,
	}

	f, err := os.Create(path)
	if err != nil {
		return errs.New("vecindex.Save", errs.InternalError, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := gob.NewEncoder(w).Encode(&snap); err != nil {
		return errs.New("vecindex.Save", errs.InternalError, err)
	}
	return w.Flush()
}

// Load reads a Store previously written by Save. A version mismatch or
// truncated file returns an InternalError rather than a partially
// reconstructed store.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New("vecindex.Load", errs.InternalError, err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(bufio.NewReader(f)).Decode(&snap); err != nil && err != io.EOF {
		return nil, errs.New("vecindex.Load", errs.InternalError, err)
	}
	if snap.Version != fileVersion {
		return nil, errs.Newf("vecindex.Load", errs.InternalError,
			"vector index file version %d does not match supported version %d", snap.Version, fileVersion)
	}

	tb := &bitset.BitSet{}
	if err := tb.UnmarshalBinary(snap.Tombstones); err != nil {
		return nil, errs.New("vecindex.Load", errs.InternalError, err)
	}

	s := &Store{
		dim:        snap.Dim,
		metric:     snap.Metric,
		alg:        snap.Alg,
		distFn:     For(snap.Metric),
		vectors:    snap.Vectors,
		keyOfSlot:  snap.KeyOfSlot,
		slotOfKey:  make(map[string]uint32, len(snap.KeyOfSlot)),
		tombstones: tb,
		dirty:      true,
	}
	for slot, key := range snap.KeyOfSlot {
		if key == "" || tb.Test(uint(slot)) {
			continue
		}
		s.slotOfKey[key] = uint32(slot)
	}
	return s, nil
}
