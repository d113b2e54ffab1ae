package cache

// Mutation names a write that makes cached snapshots stale
type Mutation string

const (
	GroupCreated        Mutation = "group_created"
	GroupJoined         Mutation = "group_joined"
	GroupLeft           Mutation = "group_left"
	JoinRequested       Mutation = "join_requested"
	JoinRequestAccepted Mutation = "join_request_accepted"
	JoinRequestRejected Mutation = "join_request_rejected"
	GroupDeleted        Mutation = "group_deleted"
	GroupMessagePosted  Mutation = "group_message_posted"
	NotificationCreated Mutation = "notification_created"
	NotificationsRead   Mutation = "notifications_read"
)

// Scope selects which id of a Subjects fills a key template
type Scope int

const (
	// ScopeGroup uses the affected group id
	ScopeGroup Scope = iota
	// ScopeActor uses the id of the user performing the mutation
	ScopeActor
	// ScopeSubject uses the id of the user the mutation is about
	// (the accepted requester, the notification recipient)
	ScopeSubject
)

// Target is a key template: a resource family plus the id that scopes it
type Target struct {
	Resource Resource
	Scope    Scope
}

// Subjects carries the ids a mutation touched
type Subjects struct {
	GroupID   string
	ActorID   string
	SubjectID string
}

func (s Subjects) id(scope Scope) string {
	switch scope {
	case ScopeGroup:
		return s.GroupID
	case ScopeActor:
		return s.ActorID
	default:
		return s.SubjectID
	}
}

// Policy maps each mutation to the cache entries it invalidates.
//
// Group lists are scoped to one user. When a public group gains or loses a
// member, other users' lists keep their stale isMember/member data until
// the list TTL expires. Only the acting user's list (and the accepted
// requester's) is deleted.
var Policy = map[Mutation][]Target{
	GroupCreated: {
		{GroupDetail, ScopeGroup},
		{GroupList, ScopeActor},
	},
	GroupJoined: {
		{GroupDetail, ScopeGroup},
		{GroupList, ScopeActor},
	},
	GroupLeft: {
		{GroupDetail, ScopeGroup},
		{GroupList, ScopeActor},
	},
	JoinRequested: {
		{GroupRequests, ScopeGroup},
		{GroupDetail, ScopeGroup},
	},
	JoinRequestAccepted: {
		{GroupRequests, ScopeGroup},
		{GroupDetail, ScopeGroup},
		{GroupList, ScopeSubject},
	},
	JoinRequestRejected: {
		{GroupRequests, ScopeGroup},
		{GroupDetail, ScopeGroup},
	},
	GroupDeleted: {
		{GroupDetail, ScopeGroup},
		{GroupMessages, ScopeGroup},
		{GroupRequests, ScopeGroup},
		{GroupList, ScopeActor},
	},
	GroupMessagePosted: {
		{GroupMessages, ScopeGroup},
	},
	NotificationCreated: {
		{Notifications, ScopeSubject},
	},
	NotificationsRead: {
		{Notifications, ScopeActor},
	},
}

// KeysFor expands the policy of m against s. Templates whose id is empty
// are skipped.
func KeysFor(m Mutation, s Subjects) []Key {
	targets := Policy[m]
	keys := make([]Key, 0, len(targets))
	for _, t := range targets {
		id := s.id(t.Scope)
		if id == "" {
			continue
		}
		keys = append(keys, KeyOf(t.Resource, id))
	}
	return keys
}
