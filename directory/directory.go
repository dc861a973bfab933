// Package directory holds the identities and static group memberships known
// to the relay. It is loaded once at startup and read-only afterwards, so it
// needs no synchronization.
package directory

import (
	"chat-relay/domain"
	"sort"

	"github.com/samber/lo"
)

// Seed is one roster user with its initial plaintext password. Passwords are
// hashed into the user store at boot and never kept in memory afterwards.
type Seed struct {
	Username string `json:"username" validate:"required,min=2,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type Directory struct {
	identities map[string]struct{}
	groups     map[string]domain.Group
}

// New builds a directory from explicit identities and group memberships.
// Load is the roster-file front door; New serves programmatic construction.
func New(identities []string, groups map[string][]string) *Directory {
	dir := &Directory{
		identities: make(map[string]struct{}, len(identities)),
		groups:     make(map[string]domain.Group, len(groups)),
	}
	for _, id := range identities {
		dir.identities[id] = struct{}{}
	}
	for name, members := range groups {
		g := domain.Group{Name: name, Members: make(map[string]struct{}, len(members))}
		for _, m := range members {
			g.Members[m] = struct{}{}
		}
		dir.groups[name] = g
	}
	return dir
}

// Knows reports whether the identity may participate in routing.
func (d *Directory) Knows(identity string) bool {
	_, ok := d.identities[identity]
	return ok
}

// Identities returns every known identity in stable order.
func (d *Directory) Identities() []string {
	out := lo.Keys(d.identities)
	sort.Strings(out)
	return out
}

// Group looks up a group by name.
func (d *Directory) Group(name string) (domain.Group, bool) {
	g, ok := d.groups[name]
	return g, ok
}

// GroupNames returns every roster group name in stable order.
func (d *Directory) GroupNames() []string {
	out := lo.Keys(d.groups)
	sort.Strings(out)
	return out
}
