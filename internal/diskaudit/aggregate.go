package diskaudit

import (
	"container/heap"
	"sort"
)

// FileRecord is a scanned file.
type FileRecord struct {
	// Path is the file path.
	Path string `json:"path" yaml:"path"`
	// Size is the size in bytes.
	Size int64 `json:"size" yaml:"size"`
	// Category is the file's extension category.
	Category string `json:"category" yaml:"category"`
	// Digest is the content hash.
	Digest Digest `json:"digest" yaml:"digest"`

	seq int
}

// candidates is a min-heap of the current top-K records. The root is the
// record that would be dropped first: smallest size, and among equal sizes
// the one seen last.
type candidates []FileRecord

func (c candidates) Len() int { return len(c) }

func (c candidates) Less(i, j int) bool {
	if c[i].Size != c[j].Size {
		return c[i].Size < c[j].Size
	}

	return c[i].seq > c[j].seq
}

func (c candidates) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

func (c *candidates) Push(x any) { *c = append(*c, x.(FileRecord)) } //nolint:forcetypeassert // heap contract

func (c *candidates) Pop() any {
	old := *c
	n := len(old)
	rec := old[n-1]
	*c = old[:n-1]

	return rec
}

// member is a path in a digest group with its scan position.
type member struct {
	path string
	seq  int
}

// group accumulates the paths sharing one digest.
type group struct {
	digest  Digest
	size    int64
	members []member
}

// firstSeq is the scan position of the earliest member.
func (g *group) firstSeq() int {
	first := g.members[0].seq
	for _, m := range g.members[1:] {
		first = min(first, m.seq)
	}

	return first
}

// aggregator folds FileRecords into category totals, digest groups and the
// top-K candidates. It is owned by a single goroutine and needs no locking.
// Records may arrive in any order; all output ordering derives from seq.
type aggregator struct {
	topK       int
	usage      map[string]int64
	groups     map[string]*group
	top        candidates
	fileCount  int64
	totalBytes int64
}

// newAggregator creates an aggregator keeping the topK largest files.
func newAggregator(topK int) *aggregator {
	return &aggregator{
		topK:   topK,
		usage:  make(map[string]int64),
		groups: make(map[string]*group),
		top:    make(candidates, 0, topK+1),
	}
}

// add folds one record into all accumulators.
func (a *aggregator) add(rec FileRecord) {
	a.fileCount++
	a.totalBytes += rec.Size
	a.usage[rec.Category] += rec.Size

	key := string(rec.Digest)

	g, ok := a.groups[key]
	if !ok {
		g = &group{digest: rec.Digest, size: rec.Size}
		a.groups[key] = g
	}

	g.members = append(g.members, member{path: rec.Path, seq: rec.seq})

	heap.Push(&a.top, rec)

	if a.top.Len() > a.topK {
		heap.Pop(&a.top)
	}
}

// duplicateGroups returns the groups with at least two members, ordered by
// their first-seen member, each with members in scan order.
func (a *aggregator) duplicateGroups() []*group {
	dups := make([]*group, 0)

	for _, g := range a.groups {
		if len(g.members) < 2 {
			continue
		}

		sort.Slice(g.members, func(i, j int) bool {
			return g.members[i].seq < g.members[j].seq
		})

		dups = append(dups, g)
	}

	sort.Slice(dups, func(i, j int) bool {
		return dups[i].firstSeq() < dups[j].firstSeq()
	})

	return dups
}

// topFiles drains the candidates into descending size order. Ties keep scan
// order, matching a stable sort of all records truncated to K.
func (a *aggregator) topFiles() []FileRecord {
	out := make([]FileRecord, a.top.Len())

	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&a.top).(FileRecord) //nolint:forcetypeassert // heap contract
	}

	return out
}

// finalize produces the Report. It must be called once, after the last add.
func (a *aggregator) finalize(root string) *Report {
	usage := make(CategoryUsage, len(a.usage))
	for k, v := range a.usage {
		usage[k] = v
	}

	groups := a.duplicateGroups()
	dups := make([]DuplicateGroup, 0, len(groups))

	for _, g := range groups {
		paths := make([]string, len(g.members))
		for i, m := range g.members {
			paths[i] = m.path
		}

		dups = append(dups, DuplicateGroup{Digest: g.digest, Size: g.size, Paths: paths})
	}

	return &Report{
		Root:          root,
		CategoryUsage: usage,
		Duplicates:    dups,
		TopFiles:      a.topFiles(),
		TopK:          a.topK,
		FileCount:     a.fileCount,
		TotalBytes:    a.totalBytes,
	}
}
