package resmgr

// record is a registry entry. In-flight signals are kept by the Manager,
// keyed by record index, so records never point back at their loads.
type record struct {
	url   string
	state State
}

// registry is an ordered arena of records for one resource kind.
// Records are addressed by index and never removed.
type registry struct {
	kind    Kind
	records []record
}

func newRegistry(kind Kind) *registry {
	return &registry{kind: kind}
}

// find returns the index of the first record with url.
func (r *registry) find(url string) (int, bool) {
	if r == nil {
		return -1, false
	}
	for i := range r.records {
		if r.records[i].url == url {
			return i, true
		}
	}
	return -1, false
}

// create appends a record and returns its index.
// Returns false for an empty url. It does not look for an existing record:
// callers check find first, and calling create twice with the same url
// leaves two records.
func (r *registry) create(url string, state State) (int, bool) {
	if url == "" {
		return -1, false
	}
	r.records = append(r.records, record{url: url, state: state})
	return len(r.records) - 1, true
}

func (r *registry) at(i int) record {
	return r.records[i]
}

func (r *registry) setState(i int, state State) {
	r.records[i].state = state
}

func (r *registry) len() int {
	if r == nil {
		return 0
	}
	return len(r.records)
}

// resource returns the public snapshot of record i.
func (r *registry) resource(i int) Resource {
	rec := r.records[i]
	return Resource{Kind: r.kind, URL: rec.url, State: rec.state}
}

// snapshot returns every record in insertion order.
func (r *registry) snapshot() []Resource {
	if r.len() == 0 {
		return nil
	}
	out := make([]Resource, len(r.records))
	for i := range r.records {
		out[i] = r.resource(i)
	}
	return out
}
