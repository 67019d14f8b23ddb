package bridge

const logBodyLimit = 4096

func logSafe(b []byte) []byte {
	if len(b) > logBodyLimit {
		out := make([]byte, 0, logBodyLimit+16)
		out = append(out, b[:logBodyLimit]...)
		return append(out, "... [truncated]"...)
	}
	return b
}
