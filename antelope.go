package pf

// AntelopePf is a parsed parameter file: the scalar attributes of one nesting
// level plus its tables and branches. It is read-only once built; tables and
// branches handed out by the accessors are copies.
type AntelopePf struct {
	name string
	md   *Metadata

	tables     map[string][]string
	tableOrder []string

	branches    map[string]*AntelopePf
	branchOrder []string
}

func newAntelopePf(name string) *AntelopePf {
	return &AntelopePf{
		name:     name,
		md:       NewMetadata(),
		tables:   make(map[string][]string),
		branches: make(map[string]*AntelopePf),
	}
}

// Load parses the parameter file at path with the default parser.
func Load(path string) (*AntelopePf, error) {
	return NewParser().LoadPf(path)
}

// Name returns the source name for a top-level file or the tag for a branch.
func (p *AntelopePf) Name() string {
	return p.name
}

// AsMetadata returns a copy of the scalar attributes as a plain store.
func (p *AntelopePf) AsMetadata() *Metadata {
	return p.md.Clone()
}

// Lookup returns the scalar stored under key.
func (p *AntelopePf) Lookup(key string) (Value, bool) {
	return p.md.Lookup(key)
}

// Has reports whether key is a scalar at this level.
func (p *AntelopePf) Has(key string) bool { return p.md.Has(key) }

// Keys returns the scalar keys in file order.
func (p *AntelopePf) Keys() []string { return p.md.Keys() }

// GetDouble returns a real attribute.
func (p *AntelopePf) GetDouble(key string) (float64, error) { return Get[float64](p, key) }

// GetInt returns an integer attribute as int.
func (p *AntelopePf) GetInt(key string) (int, error) { return Get[int](p, key) }

// GetLong returns an integer attribute.
func (p *AntelopePf) GetLong(key string) (int64, error) { return Get[int64](p, key) }

// GetString returns a text attribute.
func (p *AntelopePf) GetString(key string) (string, error) { return Get[string](p, key) }

// GetBool returns a boolean attribute.
func (p *AntelopePf) GetBool(key string) (bool, error) { return Get[bool](p, key) }

// GetTbl returns the rows of the table tagged tag, in file order.
func (p *AntelopePf) GetTbl(tag string) ([]string, error) {
	rows, ok := p.tables[tag]
	if !ok {
		return nil, &GetError{Key: tag, Space: SpaceTable}
	}
	return copyRows(rows), nil
}

// GetBranch returns an independent copy of the branch tagged tag.
func (p *AntelopePf) GetBranch(tag string) (*AntelopePf, error) {
	br, ok := p.branches[tag]
	if !ok {
		return nil, &GetError{Key: tag, Space: SpaceBranch}
	}
	return br.Clone(), nil
}

// TableTags returns the table tags in file order.
func (p *AntelopePf) TableTags() []string {
	return append([]string(nil), p.tableOrder...)
}

// BranchTags returns the branch tags in file order.
func (p *AntelopePf) BranchTags() []string {
	return append([]string(nil), p.branchOrder...)
}

// Clone returns a deep copy.
func (p *AntelopePf) Clone() *AntelopePf {
	out := newAntelopePf(p.name)
	out.md = p.md.Clone()
	for _, tag := range p.tableOrder {
		out.tables[tag] = copyRows(p.tables[tag])
	}
	out.tableOrder = append(out.tableOrder, p.tableOrder...)
	for _, tag := range p.branchOrder {
		out.branches[tag] = p.branches[tag].Clone()
	}
	out.branchOrder = append(out.branchOrder, p.branchOrder...)
	return out
}

// WithOverrides returns a copy whose scalar layer is merged with md, md
// winning on shared keys. Tables and branches are carried over unchanged and
// p itself is not modified. Keys of md that name a table or branch of p are
// skipped so the three namespaces stay disjoint.
func (p *AntelopePf) WithOverrides(md *Metadata) *AntelopePf {
	out := p.Clone()
	for _, k := range md.Keys() {
		if _, isTbl := p.tables[k]; isTbl {
			continue
		}
		if _, isBranch := p.branches[k]; isBranch {
			continue
		}
		v, _ := md.Lookup(k)
		out.md.Put(k, v)
	}
	return out
}

func copyRows(rows []string) []string {
	out := make([]string, len(rows))
	copy(out, rows)
	return out
}
