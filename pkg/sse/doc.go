// Package sse implements the Server-Sent Events wire format.
//
// The package is transport-agnostic: it formats events and comments as
// byte slices and leaves writing and flushing to the caller. The
// framework's event-stream responses format their payloads through
// this package, and it can be used directly with a raw
// http.ResponseWriter as well.
//
// Example:
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		sse.WriteHeaders(w)
//		flusher := w.(http.Flusher)
//
//		for i := range 10 {
//			event := sse.Event{
//				ID:    strconv.Itoa(i),
//				Event: "tick",
//				Data:  time.Now().Format(time.RFC3339),
//			}
//			w.Write(event.Format())
//			flusher.Flush()
//			time.Sleep(time.Second)
//		}
//	}
package sse
