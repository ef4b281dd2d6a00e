package mip

// Fletcher computes the two-byte Fletcher checksum used by MIP frames. The
// sum covers every byte from the first sync byte through the end of the
// payload.
func Fletcher(b []byte) (ck1, ck2 byte) {
	for _, x := range b {
		ck1 += x
		ck2 += ck1
	}
	return ck1, ck2
}
