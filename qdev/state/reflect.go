package state

import "reflect"

// reflectSlice normalizes any slice-typed value (e.g. []uint32, []*Widget)
// into a []interface{}, so Field.Get implementations can return natural Go
// slice types instead of always boxing into []interface{} by hand. Returns
// false if raw is not a slice or array, or if count is non-negative and
// does not match the slice length.
func reflectSlice(raw interface{}, count int) ([]interface{}, bool) {
	if raw == nil {
		return nil, false
	}
	v := reflect.ValueOf(raw)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if count >= 0 && v.Len() != count {
			return nil, false
		}
		out := make([]interface{}, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[i] = v.Index(i).Interface()
		}
		return out, true
	default:
		return nil, false
	}
}
