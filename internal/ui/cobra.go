package ui

// CobraOutWriter wraps stdout for Cobra, respecting quiet mode. It
// delegates to Writer() at write-time, so it picks up Configure()
// automatically.
type CobraOutWriter struct{}

func NewCobraOutWriter() *CobraOutWriter {
	return &CobraOutWriter{}
}

func (w *CobraOutWriter) Write(p []byte) (n int, err error) {
	if IsQuiet() {
		return len(p), nil
	}
	return Writer().Write(p)
}

// CobraErrWriter wraps stderr for Cobra; errors always pass through
// regardless of quiet mode.
type CobraErrWriter struct{}

func NewCobraErrWriter() *CobraErrWriter {
	return &CobraErrWriter{}
}

func (w *CobraErrWriter) Write(p []byte) (n int, err error) {
	return ErrWriter().Write(p)
}
