package sources

// SetMaxResponseBytes lowers the HTTP body cap for a test and returns a
// function restoring it.
func SetMaxResponseBytes(n int64) func() {
	prev := maxResponseBytes
	maxResponseBytes = n
	return func() { maxResponseBytes = prev }
}
