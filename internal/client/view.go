package client

import "encoding/json"

// view is the client's merged copy of the lobby state. Frames without a
// command are JSON merge patches against this view.
type view map[string]any

// mergePatch applies patch onto target following the JSON merge-patch
// semantics: objects merge recursively, null deletes a key, everything else
// replaces.
func mergePatch(target view, patch map[string]any) {
	for key, value := range patch {
		if value == nil {
			delete(target, key)
			continue
		}
		if patchObj, ok := value.(map[string]any); ok {
			targetObj, ok := target[key].(map[string]any)
			if !ok {
				targetObj = map[string]any{}
				target[key] = targetObj
			}
			mergePatch(targetObj, patchObj)
			continue
		}
		target[key] = value
	}
}

// field walks a path of object keys through the view.
func (v view) field(path ...string) (any, bool) {
	var current any = map[string]any(v)
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// intField reads a JSON number at path.
func (v view) intField(path ...string) (int, bool) {
	value, ok := v.field(path...)
	if !ok {
		return 0, false
	}
	number, ok := value.(float64)
	if !ok {
		return 0, false
	}
	return int(number), true
}

// rawField re-marshals the value at path so it can be decoded through the
// protocol package.
func (v view) rawField(path ...string) (json.RawMessage, bool) {
	value, ok := v.field(path...)
	if !ok {
		return nil, false
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, false
	}
	return raw, true
}
