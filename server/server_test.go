package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/veridict/veridict/analysis"
	"github.com/veridict/veridict/judge"
	"github.com/veridict/veridict/webfetch"
)

type stubInvoker struct {
	calls int
}

func (s *stubInvoker) Invoke(context.Context, string, []byte) ([]byte, error) {
	s.calls++
	return []byte(`{"content":[{"type":"text","text":"Looks fine."}]}`), nil
}

func newTestServer(t *testing.T) (*httptest.Server, *stubInvoker) {
	t.Helper()
	inv := &stubInvoker{}
	j := judge.New(judge.Config{}, judge.WithInvoker(inv))
	a := analysis.New(analysis.Config{}, webfetch.New(webfetch.Config{}), j)
	ts := httptest.NewServer(New(Config{}, a, j).Handler())
	t.Cleanup(ts.Close)
	return ts, inv
}

func postForm(t *testing.T, ts *httptest.Server, path string, form url.Values) map[string]any {
	t.Helper()
	resp, err := http.PostForm(ts.URL+path, form)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func postFile(t *testing.T, ts *httptest.Server, path, filename, contentType string, data []byte) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("part: %v", err)
	}
	part.Write(data)
	mw.Close()

	resp, err := http.Post(ts.URL+path, mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestAnalyzeTextEndpoint(t *testing.T) {
	// WHAT: A text form submission returns a judgement envelope.
	// WHY: The primary ingestion path must round-trip through HTTP.
	ts, inv := newTestServer(t)

	out := postForm(t, ts, "/analyze/text", url.Values{"content": {"win a free prize now"}})
	if out["type"] != "text" {
		t.Errorf("type: %v", out["type"])
	}
	if out["judgement"] == nil || out["judgement"] == "" {
		t.Error("judgement missing")
	}
	if inv.calls != 1 {
		t.Errorf("provider calls: %d", inv.calls)
	}
}

func TestAnalyzeTextEndpoint_MissingField(t *testing.T) {
	// WHAT: A missing content field yields an error envelope, still 200.
	// WHY: Clients handle one response shape for all outcomes.
	ts, inv := newTestServer(t)

	out := postForm(t, ts, "/analyze/text", url.Values{})
	if out["error"] != "No content provided for analysis." {
		t.Errorf("error: %v", out["error"])
	}
	if inv.calls != 0 {
		t.Errorf("provider calls: %d", inv.calls)
	}
}

func TestAnalyzeImageEndpoint_FakePNG(t *testing.T) {
	// WHAT: A declared PNG with bogus bytes comes back as an error envelope.
	// WHY: Signature sniffing must run behind the HTTP surface too.
	ts, inv := newTestServer(t)

	out := postFile(t, ts, "/analyze/image", "fake.png", "image/png", []byte("not a real png"))
	errMsg, _ := out["error"].(string)
	if !strings.Contains(errMsg, "Unsupported or corrupted") {
		t.Errorf("error: %q", errMsg)
	}
	if inv.calls != 0 {
		t.Errorf("provider calls: %d", inv.calls)
	}
}

func TestAnalyzeImageEndpoint_MissingFile(t *testing.T) {
	// WHAT: An empty multipart form reports "No file provided".
	// WHY: Matches the analyzer contract for absent uploads.
	ts, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()
	resp, err := http.Post(ts.URL+"/analyze/image", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	if out["error"] != "No file provided" {
		t.Errorf("error: %v", out["error"])
	}
}

func TestModelsInfo(t *testing.T) {
	// WHAT: /models/info reports both model tiers and the token budgets.
	// WHY: Operators inspect which models the service would pick.
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/models/info")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	text, _ := out["text_model"].(map[string]any)
	multi, _ := out["multimodal_model"].(map[string]any)
	if text["id"] != "anthropic.claude-3-haiku-20240307-v1:0" {
		t.Errorf("text model: %v", text["id"])
	}
	if multi["id"] != "anthropic.claude-3-5-sonnet-20241022-v2:0" {
		t.Errorf("multimodal model: %v", multi["id"])
	}
	if text["max_tokens"].(float64) != 500 || multi["max_tokens"].(float64) != 800 {
		t.Errorf("budgets: %v / %v", text["max_tokens"], multi["max_tokens"])
	}
}

func TestHealthAndHeaders(t *testing.T) {
	// WHAT: /healthz answers and every response carries the shield headers.
	// WHY: The middleware stack must wrap all routes.
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("nosniff header missing")
	}
	if resp.Header.Get("X-Trace-ID") == "" {
		t.Error("trace header missing")
	}
}
