// Package rbac resolves fine-grained permissions from role permission
// documents. Documents arrive as semi-structured JSON in one of three
// accepted shapes:
//
// Flat list:
//
//	{"permissions": ["create_post", "posts.edit"]}
//
// Resource map:
//
//	{"posts": ["create", "read"], "comments": ["read"]}
//
// Conditional map:
//
//	{"posts": {"create": true, "edit": {"condition": "own_only"}, "publish": false}}
//
// A document is parsed into a tagged Document exactly once, at load time;
// resolution never re-sniffs JSON.
package rbac

import (
	"encoding/json"
	"fmt"
)

// Kind tags the shape a document was parsed from.
type Kind int

const (
	// KindEmpty is an absent or empty document; it grants nothing.
	KindEmpty Kind = iota
	// KindFlatList is a bare list of permission names.
	KindFlatList
	// KindResourceMap maps resources to lists of allowed actions.
	KindResourceMap
	// KindConditionalMap maps resources to per-action rules with booleans
	// or conditions.
	KindConditionalMap
)

// Condition names a constraint attached to a granted action.
type Condition string

// ConditionOwnOnly grants only when the acting user owns the resource.
// Unrecognized conditions never grant.
const ConditionOwnOnly Condition = "own_only"

// Rule is the parsed value of one resource action.
type Rule struct {
	Allow     bool
	Condition Condition
}

// Document is a permission document parsed into an immutable, queryable
// form. The zero value grants nothing.
type Document struct {
	kind      Kind
	flat      map[string]struct{}
	resources map[string]map[string]Rule
}

// Kind reports which of the accepted shapes the document was parsed from.
func (d Document) Kind() Kind { return d.kind }

// ParseDocument turns raw role JSON into a Document. Shape detection is
// done here, once: a top-level "permissions" array selects the flat-list
// shape, otherwise every top-level key is treated as a resource. A shape
// that fits none of the accepted forms is an error so that malformed role
// rows fail at load time, not silently deny at check time.
func ParseDocument(raw json.RawMessage) (Document, error) {
	if len(raw) == 0 {
		return Document{}, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return Document{}, fmt.Errorf("permission document is not a JSON object: %w", err)
	}
	if len(top) == 0 {
		return Document{}, nil
	}

	if flatRaw, ok := top["permissions"]; ok {
		var names []string
		if err := json.Unmarshal(flatRaw, &names); err == nil {
			flat := make(map[string]struct{}, len(names))
			for _, n := range names {
				flat[n] = struct{}{}
			}
			return Document{kind: KindFlatList, flat: flat}, nil
		}
		// "permissions" used as an ordinary resource name falls through.
	}

	doc := Document{kind: KindResourceMap, resources: make(map[string]map[string]Rule, len(top))}
	for resource, value := range top {
		rules, conditional, err := parseResource(resource, value)
		if err != nil {
			return Document{}, err
		}
		if conditional {
			doc.kind = KindConditionalMap
		}
		doc.resources[resource] = rules
	}
	return doc, nil
}

// parseResource parses one resource entry: either an action list or an
// action→rule object. The second return reports whether any rule needs the
// conditional shape.
func parseResource(resource string, value json.RawMessage) (map[string]Rule, bool, error) {
	var actions []string
	if err := json.Unmarshal(value, &actions); err == nil {
		rules := make(map[string]Rule, len(actions))
		for _, a := range actions {
			rules[a] = Rule{Allow: true}
		}
		return rules, false, nil
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(value, &object); err != nil {
		return nil, false, fmt.Errorf("resource %q: want action list or action map", resource)
	}

	conditional := false
	rules := make(map[string]Rule, len(object))
	for action, rv := range object {
		rule, err := parseRule(resource, action, rv)
		if err != nil {
			return nil, false, err
		}
		rules[action] = rule
		conditional = true
	}
	return rules, conditional, nil
}

func parseRule(resource, action string, raw json.RawMessage) (Rule, error) {
	var allow bool
	if err := json.Unmarshal(raw, &allow); err == nil {
		return Rule{Allow: allow}, nil
	}

	var cond struct {
		Condition string `json:"condition"`
	}
	if err := json.Unmarshal(raw, &cond); err == nil && cond.Condition != "" {
		return Rule{Allow: true, Condition: Condition(cond.Condition)}, nil
	}

	return Rule{}, fmt.Errorf("resource %q action %q: want bool or condition object", resource, action)
}

// ParseAll parses a set of role documents, e.g. everything loaded for one
// user. A single malformed document fails the whole set.
func ParseAll(raws []json.RawMessage) ([]Document, error) {
	docs := make([]Document, 0, len(raws))
	for i, raw := range raws {
		d, err := ParseDocument(raw)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}
