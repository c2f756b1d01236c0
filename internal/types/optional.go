package types

import "encoding/json"

// Optional distinguishes an absent JSON field from one explicitly set,
// including explicit null. Used for partial updates where absent means
// "keep the previous value".
type Optional[T any] struct {
	Set   bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	return json.Unmarshal(b, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}
