package notebook

// Tags is the read-only set of tags attached to a cell.
type Tags struct {
	list []string
	set  map[string]struct{}
}

func newTags(list []string) Tags {
	t := Tags{set: make(map[string]struct{}, len(list))}
	for _, tag := range list {
		if _, dup := t.set[tag]; dup {
			continue
		}
		t.set[tag] = struct{}{}
		t.list = append(t.list, tag)
	}
	return t
}

// Has reports whether any of the given tags is present.
func (t Tags) Has(names ...string) bool {
	for _, n := range names {
		if _, ok := t.set[n]; ok {
			return true
		}
	}
	return false
}

// List returns the tags in source order, without duplicates.
func (t Tags) List() []string {
	out := make([]string, len(t.list))
	copy(out, t.list)
	return out
}

// Len returns the number of distinct tags.
func (t Tags) Len() int { return len(t.list) }
