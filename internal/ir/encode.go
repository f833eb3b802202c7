package ir

// Encode returns the mark/space samples of a complete NEC frame carrying
// address and command, as a receiver sampled with timing t would see it.
func Encode(address, command uint8, t Timing) []bool {
	frame := uint32(address)<<24 | uint32(^address)<<16 | uint32(command)<<8 | uint32(^command)
	return EncodeFrame(frame, t)
}

// EncodeFrame encodes 32 raw bits, most significant first. It does not
// enforce the complement bytes, which makes it useful for corrupt frames.
func EncodeFrame(frame uint32, t Timing) []bool {
	var out []bool
	out = appendRun(out, false, t.LeadOut+1)
	out = appendRun(out, true, 2*t.Space)
	out = appendRun(out, false, t.Space)
	for i := 31; i >= 0; i-- {
		out = append(out, true)
		if frame&(1<<uint(i)) != 0 {
			out = appendRun(out, false, t.Bit+1)
		} else {
			out = appendRun(out, false, 1)
		}
	}
	// Stop mark resolves the final bit.
	out = append(out, true)
	out = appendRun(out, false, t.EndOfMessage+1)
	return out
}

func appendRun(out []bool, level bool, n int) []bool {
	for i := 0; i < n; i++ {
		out = append(out, level)
	}
	return out
}
