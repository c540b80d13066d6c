package cache

import "strings"

const separator = ":"

// Entity kinds used as key namespaces. Centralized so invalidation sites and
// read sites cannot drift apart.
const (
	KindPlan               = "plan"
	KindPlanList           = "plan_list"
	KindSubscription       = "subscription"
	KindSubscriptionList   = "subscription_list"
	KindActiveSubscription = "subscription_active_user"
	KindUser               = "user"
)

// Key is a structured cache key: an entity kind plus an identifier. Typed
// keys avoid the fragility of free-form string templating; the rendered form
// is only an internal detail of the entry map.
type Key struct {
	Kind string
	ID   string
}

// NewKey builds a key for one entity.
func NewKey(kind, id string) Key {
	return Key{Kind: kind, ID: sanitize(id)}
}

// ListKey builds a key for a whole-collection entry.
func ListKey(kind string) Key {
	return Key{Kind: kind, ID: "all"}
}

func (k Key) String() string {
	return k.Kind + separator + k.ID
}

// sanitize escapes the separator in identifiers so an attacker-controlled id
// cannot collide with another kind's namespace.
func sanitize(s string) string {
	return strings.ReplaceAll(s, separator, "_")
}
