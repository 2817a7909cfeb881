package proto

// putFixedString copies s into dst, truncating to len(dst) and leaving the
// remainder NUL padded. MU wire strings are fixed-size single-byte fields.
func putFixedString(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, s)
}

// fixedString interprets b as a NUL-padded fixed-size string.
func fixedString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
