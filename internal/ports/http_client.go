package ports

import "net/http"

// HTTPClient abstracts HTTP operations so sinks can be tested with fakes.
// The standard *http.Client satisfies this interface.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
