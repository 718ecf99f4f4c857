package netlist

import (
	"sort"

	"github.com/google/uuid"
)

// BusMember aliases one Net under a bus-local name
type BusMember struct {
	UUID uuid.UUID
	Name string
	Net  Ref[Net]
}

// Bus is a named grouping of nets
type Bus struct {
	UUID    uuid.UUID
	Name    string
	Members map[uuid.UUID]*BusMember
}

// AddMember adds net to the bus under name and returns the new member
func (b *Bus) AddMember(name string, net *Net) *BusMember {
	m := &BusMember{
		UUID: uuid.New(),
		Name: name,
		Net:  NewRef(net.UUID, net),
	}
	b.Members[m.UUID] = m
	return m
}

// RemoveMember drops a member; the net itself is left alone
func (b *Bus) RemoveMember(id uuid.UUID) {
	delete(b.Members, id)
}

// MemberByName returns the member with the given name
func (b *Bus) MemberByName(name string) (*BusMember, bool) {
	for _, m := range b.Members {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// HasNet reports whether any member aliases the given net
func (b *Bus) HasNet(net uuid.UUID) bool {
	for _, m := range b.Members {
		if m.Net.UUID == net {
			return true
		}
	}
	return false
}

// SortedMembers returns members ordered by name
func (b *Bus) SortedMembers() []*BusMember {
	members := make([]*BusMember, 0, len(b.Members))
	for _, m := range b.Members {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Name != members[j].Name {
			return members[i].Name < members[j].Name
		}
		return uuidLess(members[i].UUID, members[j].UUID)
	})
	return members
}
