package gemini

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func fakeGemini(t *testing.T, handler http.HandlerFunc) *Embedder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	e := New("test-key", "text-embedding-004")
	e.baseURL = srv.URL
	return e
}

func TestEmbed(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotReq embedRequest
	e := fakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings":[{"values":[3,4]},{"values":[0,1]}]}`))
	})

	vecs, err := e.Embed(context.Background(), []string{"first report", "second report"})
	if err != nil {
		t.Fatalf("Embed() = %v, want nil", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("len(vecs) = %d, want 2", len(vecs))
	}

	// [3,4] normalizes to [0.6, 0.8].
	if math.Abs(float64(vecs[0][0])-0.6) > 1e-6 || math.Abs(float64(vecs[0][1])-0.8) > 1e-6 {
		t.Errorf("vecs[0] = %v, want [0.6 0.8]", vecs[0])
	}

	if !strings.HasSuffix(gotPath, "models/text-embedding-004:batchEmbedContents") {
		t.Errorf("path = %q, want batchEmbedContents for the model", gotPath)
	}
	if len(gotReq.Requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(gotReq.Requests))
	}
	if gotReq.Requests[0].TaskType != "RETRIEVAL_DOCUMENT" {
		t.Errorf("taskType = %q, want RETRIEVAL_DOCUMENT", gotReq.Requests[0].TaskType)
	}
	if gotReq.Requests[1].Content.Parts[0].Text != "second report" {
		t.Errorf("second text = %q, want input order preserved", gotReq.Requests[1].Content.Parts[0].Text)
	}
}

func TestEmbed_Empty(t *testing.T) {
	t.Parallel()

	e := New("test-key", "text-embedding-004")
	vecs, err := e.Embed(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Errorf("Embed(nil) = %v, %v; want nil, nil", vecs, err)
	}
}

func TestEmbed_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantSub string
	}{
		{"api error", http.StatusForbidden, `{"error":{"message":"key invalid"}}`, "api error 403"},
		{"count mismatch", http.StatusOK, `{"embeddings":[{"values":[1]}]}`, "got 1 embeddings for 2"},
		{"empty vector", http.StatusOK, `{"embeddings":[{"values":[]},{"values":[1]}]}`, "empty embedding"},
		{"bad json", http.StatusOK, `not json`, "unmarshal response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := fakeGemini(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := e.Embed(context.Background(), []string{"a", "b"})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error = %q, want substring %q", err, tt.wantSub)
			}
		})
	}
}
