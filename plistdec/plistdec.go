// Package plistdec decodes iChat archive bytes into a generic object
// tree. Archives are NSKeyedArchiver property lists: a flat $objects
// table plus a $top entry point, with nesting expressed through UID
// references. The property-list grammar itself (binary or XML) is
// handled by howett.net/plist; this package resolves the object graph
// into tree.Value so the rest of the pipeline never sees UIDs or
// archiver classes.
package plistdec

import (
	"fmt"
	"sort"
	"time"

	"howett.net/plist"

	"github.com/retrochat/ichat-recover/tree"
)

// NSDate stores seconds relative to 2001-01-01 00:00:00 UTC.
var appleEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// Decode parses one archive into an object tree. It fails only when the
// bytes are not a parseable property list; structural oddities inside a
// parseable archive degrade to Absent nodes instead of errors.
func Decode(data []byte) (tree.Value, error) {
	var raw any
	if _, err := plist.Unmarshal(data, &raw); err != nil {
		return tree.Value{}, fmt.Errorf("parse plist: %w", err)
	}

	if top, objects, ok := keyedArchive(raw); ok {
		a := &resolver{objects: objects, visiting: make(map[uint64]bool)}
		return a.resolveTop(top), nil
	}

	// Plain (non keyed-archive) plists pass through as-is.
	a := &resolver{visiting: make(map[uint64]bool)}
	return a.convert(raw), nil
}

func keyedArchive(raw any) (top map[string]any, objects []any, ok bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, nil, false
	}
	objects, haveObjects := m["$objects"].([]any)
	top, haveTop := m["$top"].(map[string]any)
	if !haveObjects || !haveTop {
		return nil, nil, false
	}
	return top, objects, true
}

type resolver struct {
	objects  []any
	visiting map[uint64]bool
}

// resolveTop unwraps a single-entry {root: ...} top directly; archives
// with multiple entry points decode to a map of all of them.
func (r *resolver) resolveTop(top map[string]any) tree.Value {
	if len(top) == 1 {
		if root, ok := top["root"]; ok {
			return r.convert(root)
		}
	}
	out := tree.NewMap()
	for _, key := range sortedKeys(top) {
		out.Set(key, r.convert(top[key]))
	}
	return out
}

// sortedKeys fixes an iteration order for plist dicts, which arrive as
// unordered Go maps, so repeated decodes build identical trees.
func sortedKeys(dict map[string]any) []string {
	keys := make([]string, 0, len(dict))
	for key := range dict {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (r *resolver) convert(raw any) tree.Value {
	switch v := raw.(type) {
	case plist.UID:
		return r.deref(uint64(v))
	case map[string]any:
		return r.convertDict(v)
	case []any:
		items := make([]tree.Value, len(v))
		for i, elem := range v {
			items[i] = r.convert(elem)
		}
		return tree.NewSeq(items)
	case string:
		return tree.NewText(v)
	case []byte:
		return tree.NewBytes(v)
	case time.Time:
		return tree.NewTime(v)
	case nil:
		return tree.Value{}
	default:
		return tree.NewScalar(v)
	}
}

func (r *resolver) deref(idx uint64) tree.Value {
	if idx >= uint64(len(r.objects)) {
		return tree.Value{}
	}
	if r.visiting[idx] {
		// Reference cycle; the archive format permits them but no
		// message field legitimately points back at its ancestors.
		return tree.Value{}
	}
	obj := r.objects[idx]
	if s, ok := obj.(string); ok && s == "$null" {
		return tree.Value{}
	}

	r.visiting[idx] = true
	out := r.convert(obj)
	delete(r.visiting, idx)
	return out
}

func (r *resolver) convertDict(dict map[string]any) tree.Value {
	switch r.className(dict) {
	case "NSDictionary", "NSMutableDictionary":
		return r.convertPairs(dict)
	case "NSArray", "NSMutableArray", "NSSet", "NSMutableSet", "NSMutableOrderedSet":
		elems, _ := dict["NS.objects"].([]any)
		items := make([]tree.Value, len(elems))
		for i, elem := range elems {
			items[i] = r.convert(elem)
		}
		return tree.NewSeq(items)
	case "NSString", "NSMutableString":
		if s, ok := dict["NS.string"].(string); ok {
			return tree.NewText(s)
		}
		return tree.NewText("")
	case "NSDate":
		return tree.NewTime(r.convertDate(dict["NS.time"]))
	}

	// Every other archived class (NSAttributedString, NSFileWrapper,
	// NSData, ...) keeps its instance fields as a map so callers can
	// navigate chains like NSAttachment -> NSFileWrapper -> NS.data.
	out := tree.NewMap()
	for _, key := range sortedKeys(dict) {
		if key == "$class" {
			continue
		}
		out.Set(key, r.convert(dict[key]))
	}
	return out
}

func (r *resolver) convertPairs(dict map[string]any) tree.Value {
	keys, _ := dict["NS.keys"].([]any)
	vals, _ := dict["NS.objects"].([]any)

	out := tree.NewMap()
	for i, rawKey := range keys {
		if i >= len(vals) {
			break
		}
		key, ok := r.convert(rawKey).Text()
		if !ok {
			continue
		}
		out.Set(key, r.convert(vals[i]))
	}
	return out
}

func (r *resolver) convertDate(raw any) time.Time {
	var secs float64
	switch v := raw.(type) {
	case float64:
		secs = v
	case uint64:
		secs = float64(v)
	case int64:
		secs = float64(v)
	default:
		return appleEpoch
	}
	return appleEpoch.Add(time.Duration(secs * float64(time.Second)))
}

func (r *resolver) className(dict map[string]any) string {
	uid, ok := dict["$class"].(plist.UID)
	if !ok {
		return ""
	}
	idx := uint64(uid)
	if idx >= uint64(len(r.objects)) {
		return ""
	}
	class, ok := r.objects[idx].(map[string]any)
	if !ok {
		return ""
	}
	name, _ := class["$classname"].(string)
	return name
}
