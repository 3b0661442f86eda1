// Package testutil provides a fake order service for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Paths served by the fake, mirroring the real deployment.
const (
	PagePath    = "/api/getRequestFsspResponse"
	DomainsPath = "/api/getRequestFsspResponseCountDomain"
)

// MockResponse is one scripted reply.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// PageRequest records the form fields of one page request.
type PageRequest struct {
	Token       string
	Count       int
	Offset      int
	SqueezeText string
}

type domainState struct {
	// total >= 0 serves records by offset; scripted replies take precedence.
	total    int
	script   []MockResponse
	requests []PageRequest
}

// MockOrders hosts any number of fake domains under one httptest server.
// A domain named "a" lives at URL()+"/a".
type MockOrders struct {
	server  *httptest.Server
	mu      sync.Mutex
	domains map[string]*domainState
	listing *MockResponse
	names   []string

	RequestCount int
}

// NewMockOrders starts the fake server.
func NewMockOrders() *MockOrders {
	m := &MockOrders{
		domains: make(map[string]*domainState),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// URL returns the server root, usable as the directory base URL.
func (m *MockOrders) URL() string {
	return m.server.URL
}

// DomainURL returns the base URL of the named fake domain.
func (m *MockOrders) DomainURL(name string) string {
	return m.server.URL + "/" + name
}

// Close shuts down the mock server.
func (m *MockOrders) Close() {
	m.server.Close()
}

// SetDataset makes the named domain hold total records served by offset.
func (m *MockOrders) SetDataset(name string, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.domain(name).total = total
}

// SetScript makes the named domain answer the n-th page request with
// responses[n]. Requests past the script get an empty array.
func (m *MockOrders) SetScript(name string, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.domain(name)
	d.script = append([]MockResponse(nil), responses...)
}

// SetDomains makes the directory list the named fake domains.
func (m *MockOrders) SetDomains(names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names = append([]string(nil), names...)
	m.listing = nil
}

// SetDomainsResponse overrides the directory reply.
func (m *MockOrders) SetDomainsResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listing = &resp
}

// Requests returns the page requests received by the named domain.
func (m *MockOrders) Requests(name string) []PageRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.domains[name]
	if !ok {
		return nil
	}
	return append([]PageRequest(nil), d.requests...)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockOrders) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}

func (m *MockOrders) domain(name string) *domainState {
	d, ok := m.domains[name]
	if !ok {
		d = &domainState{}
		m.domains[name] = d
	}
	return d
}

func (m *MockOrders) handle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.RequestCount++
	m.mu.Unlock()

	if r.URL.Path == DomainsPath {
		m.serveDomains(w)
		return
	}

	name, ok := strings.CutSuffix(strings.TrimPrefix(r.URL.Path, "/"), PagePath)
	if !ok || name == "" {
		http.NotFound(w, r)
		return
	}
	m.servePage(w, r, name)
}

func (m *MockOrders) serveDomains(w http.ResponseWriter) {
	m.mu.Lock()
	listing := m.listing
	names := append([]string(nil), m.names...)
	m.mu.Unlock()

	if listing != nil {
		write(w, *listing)
		return
	}

	entries := make([]map[string]string, 0, len(names))
	for _, name := range names {
		entries = append(entries, map[string]string{"domain": m.DomainURL(name)})
	}
	body, _ := json.Marshal(entries)
	write(w, MockResponse{StatusCode: http.StatusOK, Body: string(body)})
}

func (m *MockOrders) servePage(w http.ResponseWriter, r *http.Request, name string) {
	req := PageRequest{
		Token:       r.PostForm.Get("token"),
		SqueezeText: r.PostForm.Get("isSqueezeText"),
	}
	req.Count, _ = strconv.Atoi(r.PostForm.Get("count"))
	req.Offset, _ = strconv.Atoi(r.PostForm.Get("offset"))

	m.mu.Lock()
	d := m.domain(name)
	n := len(d.requests)
	d.requests = append(d.requests, req)
	var resp MockResponse
	switch {
	case len(d.script) > 0 && n < len(d.script):
		resp = d.script[n]
	case len(d.script) > 0:
		resp = MockResponse{StatusCode: http.StatusOK, Body: "[]"}
	default:
		served := d.total - req.Offset
		if served < 0 {
			served = 0
		}
		if served > req.Count {
			served = req.Count
		}
		resp = MockResponse{StatusCode: http.StatusOK, Body: RecordsBody(served)}
	}
	m.mu.Unlock()

	write(w, resp)
}

func write(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	if resp.StatusCode == 0 {
		resp.StatusCode = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		_, _ = w.Write([]byte(resp.Body))
	}
}

// RecordsBody renders a JSON array of n small order records.
func RecordsBody(n int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"id":%d,"text":"order %d"}`, i+1, i+1)
	}
	b.WriteByte(']')
	return b.String()
}

// Full returns a 200 reply carrying n records.
func Full(n int) MockResponse {
	return MockResponse{StatusCode: http.StatusOK, Body: RecordsBody(n)}
}

// Empty returns a 200 reply carrying an empty array.
func Empty() MockResponse {
	return MockResponse{StatusCode: http.StatusOK, Body: "[]"}
}

// ServerError returns a 500 reply.
func ServerError() MockResponse {
	return MockResponse{StatusCode: http.StatusInternalServerError, Body: `{"error":"internal server error"}`}
}
