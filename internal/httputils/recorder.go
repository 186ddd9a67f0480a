// internal/httputils/recorder.go
package httputils

import (
	"net/http"
)

// Recorder remembers the status and size of the response passing through it.
// Hijack and other optional interfaces are reached through Unwrap by http.ResponseController.
type Recorder struct {
	http.ResponseWriter
	status  int
	size    int64
	started bool
}

// NewRecorder wraps w
func NewRecorder(w http.ResponseWriter) *Recorder {
	return &Recorder{ResponseWriter: w, status: http.StatusOK}
}

// Status is the status sent to the client, 200 when the handler never set one
func (r *Recorder) Status() int {
	return r.status
}

// Size is the number of body bytes written
func (r *Recorder) Size() int64 {
	return r.size
}

// WriteHeader records the first status only, later calls are dropped like net/http does
func (r *Recorder) WriteHeader(code int) {
	if r.started {
		return
	}
	// 1xx are informational and may precede the real status
	if code >= 100 && code < 200 && code != http.StatusSwitchingProtocols {
		r.ResponseWriter.WriteHeader(code)
		return
	}
	r.status = code
	r.started = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *Recorder) Write(b []byte) (int, error) {
	if !r.started {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += int64(n)
	return n, err
}

// Flush pushes streamed upstream bodies to the client as they arrive
func (r *Recorder) Flush() {
	if !r.started {
		r.WriteHeader(http.StatusOK)
	}
	_ = http.NewResponseController(r.ResponseWriter).Flush()
}

func (r *Recorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
