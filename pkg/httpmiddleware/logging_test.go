package httpmiddleware

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLogRequests_RecordsStatus(t *testing.T) {
	handler := Wrap(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
		InjectLogger(zap.NewNop()),
		LogRequests(),
	)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestLogRequests_ForwardsStreamingInterfaces(t *testing.T) {
	// An SSE-style handler needs Flusher and CloseNotify from the wrapped
	// writer; a recorder that hides them makes event streams fail.
	handler := Wrap(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			f, ok := w.(http.Flusher)
			require.True(t, ok, "writer must expose http.Flusher")
			_, ok = w.(http.CloseNotifier)
			require.True(t, ok, "writer must expose http.CloseNotifier")

			w.Header().Set("Content-Type", "text/event-stream")
			for i := range 2 {
				fmt.Fprintf(w, "data: event-%d\n\n", i)
				f.Flush()
			}
		}),
		InjectLogger(zap.NewNop()),
		LogRequests(),
	)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "data: event-0\n", line)
}

func TestStatusRecorder_FlushWithoutUnderlyingFlusher(t *testing.T) {
	// A writer with no Flusher support must not panic.
	rec := &statusRecorder{ResponseWriter: plainWriter{}, status: http.StatusOK}
	rec.Flush()

	select {
	case <-rec.CloseNotify():
		t.Fatal("expected CloseNotify to stay open")
	default:
	}
}

type plainWriter struct{}

func (plainWriter) Header() http.Header { return http.Header{} }
func (plainWriter) WriteHeader(int)     {}
func (plainWriter) Write(p []byte) (int, error) {
	return io.Discard.Write(p)
}
