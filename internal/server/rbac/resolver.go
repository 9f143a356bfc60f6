package rbac

import "strings"

// ResourceContext identifies the acting user and the owner of the resource
// the action targets. It is only consulted by own-only rules.
type ResourceContext struct {
	OwnerID string
	UserID  string
}

// Resolve reports whether any of the given documents grants the action.
// Semantics are additive union: an explicit false or a failed condition in
// one role never vetoes a grant from another role. Absence of any matching
// entry anywhere denies. The function is pure; inactive roles must be
// filtered out before their documents reach it.
func Resolve(docs []Document, action string, rctx *ResourceContext) bool {
	for _, d := range docs {
		if d.allows(action, rctx) {
			return true
		}
	}
	return false
}

func (d Document) allows(action string, rctx *ResourceContext) bool {
	if _, ok := d.flat[action]; ok {
		return true
	}
	if d.resources == nil {
		return false
	}

	resource, act, found := strings.Cut(action, ".")
	if !found {
		return false
	}
	rules, ok := d.resources[resource]
	if !ok {
		return false
	}
	rule, ok := rules[act]
	if !ok || !rule.Allow {
		return false
	}
	switch rule.Condition {
	case "":
		return true
	case ConditionOwnOnly:
		return rctx != nil && rctx.OwnerID != "" && rctx.OwnerID == rctx.UserID
	default:
		// Unknown conditions never grant.
		return false
	}
}
