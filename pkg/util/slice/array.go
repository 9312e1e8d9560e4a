/*
Package slice contains byte slice helpers.
*/
package slice

// Copy is a helper for copying slice data. A nil slice stays nil, an empty
// one stays empty.
func Copy(b []byte) []byte {
	if b == nil {
		return nil
	}
	d := make([]byte, len(b))
	copy(d, b)
	return d
}

// Concat returns a new slice holding all parts one after another.
func Concat(parts ...[]byte) []byte {
	var n int
	for i := range parts {
		n += len(parts[i])
	}
	res := make([]byte, 0, n)
	for i := range parts {
		res = append(res, parts[i]...)
	}
	return res
}
