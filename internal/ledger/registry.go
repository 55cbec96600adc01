package ledger

// registry maps identities to organization profiles. Profiles are never removed.
type registry struct {
	orgs map[Identity]Organization
}

func newRegistry() *registry {
	return &registry{orgs: make(map[Identity]Organization)}
}

func (r *registry) isRegistered(id Identity) bool {
	o, ok := r.orgs[id]
	return ok && o.Registered
}

// lookup returns the stored profile, or a zero profile for unknown identities.
func (r *registry) lookup(id Identity) Organization {
	if o, ok := r.orgs[id]; ok {
		return o
	}
	return Organization{Identity: id}
}

func (r *registry) put(o Organization) {
	r.orgs[o.Identity] = o
}

func (r *registry) all() []Organization {
	out := make([]Organization, 0, len(r.orgs))
	for _, o := range r.orgs {
		out = append(out, o)
	}
	return out
}
