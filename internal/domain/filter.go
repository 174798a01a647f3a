package domain

import "strings"

// ObjectFilter restricts which objects are turned into thumbnails.
// The zero value matches everything.
type ObjectFilter struct {
	Bucket string
	Prefix string
}

// Match reports whether ref passes the filter.
func (f ObjectFilter) Match(ref ObjectRef) bool {
	if f.Bucket != "" && ref.Bucket != f.Bucket {
		return false
	}
	return strings.HasPrefix(ref.Name, f.Prefix)
}

// Skips reports whether event names an object the filter rejects, along
// with that object. Events without a readable, complete payload are never
// skipped so the handler still gets to report them.
func (f ObjectFilter) Skips(event *NotificationEvent) (bool, ObjectRef) {
	if f == (ObjectFilter{}) || event == nil || event.Data == nil {
		return false, ObjectRef{}
	}

	payload, err := DecodePayload(*event.Data)
	if err != nil {
		return false, ObjectRef{}
	}

	ref := payload.Ref()
	if !ref.Valid() {
		return false, ref
	}

	return !f.Match(ref), ref
}
