package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_EmptySetDenies(t *testing.T) {
	assert.False(t, Resolve(nil, "posts.create", nil))
	assert.False(t, Resolve([]Document{{}}, "posts.create", nil))
}

func TestResolve_FlatList(t *testing.T) {
	d := mustParse(t, `{"permissions": ["create_post", "posts.edit"]}`)

	assert.True(t, Resolve([]Document{d}, "create_post", nil))
	assert.True(t, Resolve([]Document{d}, "posts.edit", nil), "dotted names are plain members of a flat list")
	assert.False(t, Resolve([]Document{d}, "delete_post", nil))
}

func TestResolve_ResourceMap(t *testing.T) {
	d := mustParse(t, `{"posts": ["create", "read"], "comments": ["read"]}`)

	assert.True(t, Resolve([]Document{d}, "posts.create", nil))
	assert.True(t, Resolve([]Document{d}, "comments.read", nil))
	assert.False(t, Resolve([]Document{d}, "posts.delete", nil))
	assert.False(t, Resolve([]Document{d}, "users.read", nil))
	assert.False(t, Resolve([]Document{d}, "posts", nil), "bare resource name is not an action")
}

func TestResolve_ConditionalMap(t *testing.T) {
	d := mustParse(t, `{"posts": {"create": true, "publish": false, "edit": {"condition": "own_only"}}}`)

	assert.True(t, Resolve([]Document{d}, "posts.create", nil))
	assert.False(t, Resolve([]Document{d}, "posts.publish", nil))

	own := &ResourceContext{OwnerID: "5", UserID: "5"}
	other := &ResourceContext{OwnerID: "5", UserID: "6"}
	assert.True(t, Resolve([]Document{d}, "posts.edit", own))
	assert.False(t, Resolve([]Document{d}, "posts.edit", other))
	assert.False(t, Resolve([]Document{d}, "posts.edit", nil), "absent context denies own_only")
}

func TestResolve_UnknownConditionDenies(t *testing.T) {
	d := mustParse(t, `{"posts": {"edit": {"condition": "weekdays_only"}}}`)
	assert.False(t, Resolve([]Document{d}, "posts.edit", &ResourceContext{OwnerID: "1", UserID: "1"}))
}

// Union semantics: a deny in one role never vetoes a grant from another.
func TestResolve_UnionAcrossRoles(t *testing.T) {
	denies := mustParse(t, `{"posts": {"edit": false}}`)
	grants := mustParse(t, `{"posts": {"edit": true}}`)

	assert.True(t, Resolve([]Document{denies, grants}, "posts.edit", nil))
	assert.True(t, Resolve([]Document{grants, denies}, "posts.edit", nil), "order must not matter")

	conditioned := mustParse(t, `{"posts": {"edit": {"condition": "own_only"}}}`)
	other := &ResourceContext{OwnerID: "5", UserID: "6"}
	assert.True(t, Resolve([]Document{conditioned, grants}, "posts.edit", other),
		"failed condition in one role does not veto an unconditional grant elsewhere")
}

func TestResolve_IsPure(t *testing.T) {
	d := mustParse(t, `{"posts": {"edit": {"condition": "own_only"}}}`)
	docs := []Document{d}
	ctx := &ResourceContext{OwnerID: "5", UserID: "5"}

	for i := 0; i < 3; i++ {
		assert.True(t, Resolve(docs, "posts.edit", ctx))
		assert.False(t, Resolve(docs, "posts.edit", &ResourceContext{OwnerID: "5", UserID: "6"}))
		assert.False(t, Resolve(docs, "posts.delete", ctx))
	}
}
