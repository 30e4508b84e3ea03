package extract

// Accumulator is the per-call collection structure extractors write into:
// section name -> key -> ordered set of distinct string values. It is
// constructed fresh for every extraction pass, threaded through all spec
// invocations, and handed to normalization at the end; no shared state.
//
// Extractors only write. The one sanctioned read path is First, used by
// extractors that explicitly chain on a previously extracted value (e.g.
// deriving a datasheet URL from an article number).
type Accumulator struct {
	sections []string
	data     map[string]*section
}

type section struct {
	keys    []string
	entries map[string]*entry
}

type entry struct {
	values []string
	seen   map[string]struct{}

	// structured holds a one-shot non-string value (variant item lists).
	// When set it supersedes values during normalization.
	structured any
	hasStruct  bool
}

func NewAccumulator() *Accumulator {
	return &Accumulator{data: make(map[string]*section)}
}

func (a *Accumulator) entryFor(sectionName, key string) *entry {
	if sectionName == "" {
		sectionName = "Unknown"
	}
	sec, ok := a.data[sectionName]
	if !ok {
		sec = &section{entries: make(map[string]*entry)}
		a.data[sectionName] = sec
		a.sections = append(a.sections, sectionName)
	}
	e, ok := sec.entries[key]
	if !ok {
		e = &entry{seen: make(map[string]struct{})}
		sec.entries[key] = e
		sec.keys = append(sec.keys, key)
	}
	return e
}

// Add appends value to the (section, key) ordered set. Duplicates by exact
// string equality and empty values are dropped.
func (a *Accumulator) Add(sectionName, key, value string) {
	if key == "" || value == "" {
		return
	}
	e := a.entryFor(sectionName, key)
	if _, dup := e.seen[value]; dup {
		return
	}
	e.seen[value] = struct{}{}
	e.values = append(e.values, value)
}

// PutList stores a structured value (e.g. a variant item list) under
// (section, key) in one shot, replacing any prior structured value. Unlike
// Add it is not merged value-by-value.
func (a *Accumulator) PutList(sectionName, key string, v any) {
	if key == "" || v == nil {
		return
	}
	e := a.entryFor(sectionName, key)
	e.structured = v
	e.hasStruct = true
}

// First returns the first accumulated value for (section, key). This is the
// explicit chaining read used by later specs that derive values from
// earlier ones.
func (a *Accumulator) First(sectionName, key string) (string, bool) {
	sec, ok := a.data[sectionName]
	if !ok {
		return "", false
	}
	e, ok := sec.entries[key]
	if !ok || len(e.values) == 0 {
		return "", false
	}
	return e.values[0], true
}

// Normalize flattens the accumulator into the final kv shape: a single
// accumulated value collapses to a scalar, two or more become an array in
// accumulation order, and empty entries are dropped (never emitted as empty
// scalars or arrays). The result is always non-nil.
func (a *Accumulator) Normalize() map[string]map[string]any {
	out := make(map[string]map[string]any)

	for _, name := range a.sections {
		sec := a.data[name]
		kv := make(map[string]any)

		for _, key := range sec.keys {
			e := sec.entries[key]
			switch {
			case e.hasStruct:
				kv[key] = e.structured
			case len(e.values) == 1:
				kv[key] = e.values[0]
			case len(e.values) > 1:
				vals := make([]string, len(e.values))
				copy(vals, e.values)
				kv[key] = vals
			}
		}

		if len(kv) > 0 {
			out[name] = kv
		}
	}
	return out
}
