// internal/testutil/mocks.go
package testutil

import (
	"io"
	"net/http"
	"strings"
)

// Nota: Los mocks específicos de domain/ports están en sus respectivos paquetes
// Este archivo contiene solo utilidades genéricas sin dependencias circulares

// RoundTripperFunc adapta una función a http.RoundTripper.
type RoundTripperFunc func(req *http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// MockTransport es un transporte HTTP para tests que registra las peticiones.
type MockTransport struct {
	RoundTripFunc func(req *http.Request) (*http.Response, error)
	CallCount     int
	LastURL       string
	LastMethod    string
}

// NewMockTransport crea un transporte mock.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// RoundTrip implementa http.RoundTripper.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.CallCount++
	m.LastURL = req.URL.String()
	m.LastMethod = req.Method
	if m.RoundTripFunc != nil {
		return m.RoundTripFunc(req)
	}
	return NewResponse(http.StatusOK, "{}"), nil
}

// NewResponse construye una http.Response con el status y body dados.
func NewResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}
