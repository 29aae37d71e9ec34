package httpclient

import "net/http"

// Auth decorates an outgoing request with credentials. A nil Auth sends
// the request anonymously.
type Auth func(*http.Request)

// BearerAuth sends token as a bearer credential. An empty token yields
// nil so that public datasets are read anonymously.
func BearerAuth(token string) Auth {
	if token == "" {
		return nil
	}
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

// HeaderAuth sets a fixed header, for stores that take an API key.
func HeaderAuth(name, value string) Auth {
	return func(r *http.Request) { r.Header.Set(name, value) }
}
