package stream

// Visitor consumes the value of one object field into an assembler. It must
// read or skip the value, and returns false to stop visiting the object.
type Visitor[A any] func(field string, a *A, it *Iter) bool

// VisitObject walks the object under the cursor, dispatching every field to
// visit with the same assembler. It reports false when the value was null
// or the walk hit an error.
func VisitObject[A any](it *Iter, a *A, visit Visitor[A]) bool {
	return it.ReadObject(func(field string, it *Iter) bool {
		return visit(field, a, it)
	})
}

// Parse decodes one value with fn and folds the cursor error into the result.
func Parse[T any](it *Iter, fn func(it *Iter) T) (T, error) {
	v := fn(it)
	if err := it.Err(); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// ParseBytes decodes a whole document with fn using a fresh cursor.
func ParseBytes[T any](b []byte, fn func(it *Iter) T) (T, error) {
	return Parse(New(b), fn)
}

// ReadList decodes an array whose elements are all read by fn. A null value
// yields a nil slice.
func ReadList[T any](it *Iter, fn func(it *Iter) T) []T {
	if it.ReadNull() {
		return nil
	}
	out := []T{}
	it.ReadArray(func(it *Iter) bool {
		out = append(out, fn(it))
		return it.Err() == nil
	})
	return out
}

// ReadStrings decodes an array of strings.
func ReadStrings(it *Iter) []string {
	return ReadList(it, (*Iter).ReadString)
}

// ReadUint64s decodes an array of unsigned integers.
func ReadUint64s(it *Iter) []uint64 {
	return ReadList(it, (*Iter).ReadUint64)
}
