package cache

import "time"

// Resource names a family of cached snapshots. The Redis key of an entry is
// "<resource>:<id>".
type Resource string

const (
	// GroupList is the per-user list of visible groups with membership flags
	GroupList Resource = "groups:list"
	// GroupDetail is one group with admins, members and requests populated
	GroupDetail Resource = "group"
	// GroupRequests is the pending join-request list of a group
	GroupRequests Resource = "group_requests"
	// GroupMessages is a group's chat history
	GroupMessages Resource = "group_messages"
	// Notifications is the newest-notifications list of a user
	Notifications Resource = "notifications"
)

// TTL tiers
const (
	TTLTight  = 60 * time.Second
	TTLShort  = 2 * time.Minute
	TTLMedium = 5 * time.Minute
	TTLLong   = 30 * time.Minute
)

var ttls = map[Resource]time.Duration{
	GroupList:     TTLShort,
	GroupDetail:   TTLLong,
	GroupRequests: TTLMedium,
	GroupMessages: TTLTight,
	Notifications: TTLMedium,
}

// Resources lists every cached resource family
func Resources() []Resource {
	return []Resource{GroupList, GroupDetail, GroupRequests, GroupMessages, Notifications}
}

// TTL returns the time-to-live for entries of r
func (r Resource) TTL() time.Duration {
	if ttl, ok := ttls[r]; ok {
		return ttl
	}
	return TTLTight
}

// Key identifies one cache entry
type Key struct {
	Resource Resource
	ID       string
}

// KeyOf builds the key of resource r for id
func KeyOf(r Resource, id string) Key {
	return Key{Resource: r, ID: id}
}

func (k Key) String() string {
	return string(k.Resource) + ":" + k.ID
}
