package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ccollicutt/fwtriage/pkg/acceptance"
	"github.com/ccollicutt/fwtriage/pkg/classify"
	"github.com/ccollicutt/fwtriage/pkg/events"
	"github.com/ccollicutt/fwtriage/pkg/output"
)

func newTestReport(accepted bool) *output.Report {
	verdict := acceptance.Verdict{Accepted: true, Reason: acceptance.ReasonNoCritical}
	if !accepted {
		verdict = acceptance.Verdict{
			Reason:   "firmware contains 3 critical sensor_error errors (limit 3)",
			Category: classify.SensorError,
			Count:    3,
		}
	}
	return &output.Report{
		Summary: output.Summary{
			LinesProcessed: 100,
			TotalEvents:    3,
			Categories:     1,
			Accepted:       accepted,
		},
		Verdict: verdict,
		Counts:  []events.CategoryCount{{Category: classify.SensorError, Count: 3}},
		Metadata: output.Metadata{
			RunID:      "3f0c5f7e-0000-4000-8000-000000000001",
			ConfigFile: "fwtriage.yaml",
			Sources:    []string{"fw.log"},
			AnalyzedAt: time.Now(),
			Duration:   time.Second,
		},
	}
}

func TestClient_Send_Success(t *testing.T) {
	var receivedBody []byte
	var receivedContentType, receivedAuth, receivedEvent, receivedUA string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedContentType = r.Header.Get("Content-Type")
		receivedAuth = r.Header.Get("Authorization")
		receivedEvent = r.Header.Get("X-Fwtriage-Event")
		receivedUA = r.Header.Get("User-Agent")
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	resp := NewClient().Send(context.Background(), newTestReport(false), SendOptions{URL: server.URL})

	if !resp.Success() {
		t.Errorf("expected success, got error: %v", resp.Error)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if resp.Body != `{"status":"ok"}` {
		t.Errorf("unexpected body: %s", resp.Body)
	}
	if receivedContentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", receivedContentType)
	}
	if receivedAuth != "" {
		t.Errorf("expected no Authorization header, got %s", receivedAuth)
	}
	if receivedEvent != EventRejected {
		t.Errorf("expected event %s, got %s", EventRejected, receivedEvent)
	}
	if receivedUA != "fwtriage-webhook" {
		t.Errorf("unexpected User-Agent %s", receivedUA)
	}

	var payload Payload
	if err := json.Unmarshal(receivedBody, &payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	if payload.Event != EventRejected || payload.RunID != "3f0c5f7e-0000-4000-8000-000000000001" {
		t.Errorf("unexpected payload envelope: %+v", payload)
	}
	if payload.Report == nil || payload.Report.Verdict.Category != classify.SensorError {
		t.Errorf("unexpected payload report: %+v", payload.Report)
	}
}

func TestClient_Send_WithToken(t *testing.T) {
	var receivedAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	resp := NewClient().Send(context.Background(), newTestReport(true), SendOptions{
		URL:   server.URL,
		Token: "secret-token",
	})

	if !resp.Success() {
		t.Errorf("expected success, got error: %v", resp.Error)
	}
	if receivedAuth != "Bearer secret-token" {
		t.Errorf("expected Bearer token, got %s", receivedAuth)
	}
}

func TestClient_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	resp := NewClient().Send(context.Background(), newTestReport(false), SendOptions{URL: server.URL})

	if resp.Success() {
		t.Error("expected failure for 500 response")
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", resp.StatusCode)
	}
	if resp.Error == nil {
		t.Error("expected error for 500 response")
	}
}

func TestClient_Send_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp := NewClient().Send(context.Background(), newTestReport(false), SendOptions{
		URL:     server.URL,
		Timeout: 50 * time.Millisecond,
	})

	if resp.Success() {
		t.Error("expected timeout failure")
	}
	if resp.Error == nil {
		t.Error("expected timeout error")
	}
}

func TestClient_Send_InvalidURL(t *testing.T) {
	resp := NewClient().Send(context.Background(), newTestReport(false), SendOptions{URL: "://bad"})
	if resp.Error == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestClient_Options(t *testing.T) {
	var receivedUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithUserAgent("fwtriage/1.0"), WithHTTPClient(server.Client()))
	resp := client.Send(context.Background(), newTestReport(true), SendOptions{URL: server.URL})
	if !resp.Success() {
		t.Fatalf("expected success, got %v", resp.Error)
	}
	if receivedUA != "fwtriage/1.0" {
		t.Errorf("User-Agent = %s", receivedUA)
	}
}

func TestNewPayload(t *testing.T) {
	if got := NewPayload(newTestReport(true)).Event; got != EventAccepted {
		t.Errorf("accepted report event = %s", got)
	}
	if got := NewPayload(newTestReport(false)).Event; got != EventRejected {
		t.Errorf("rejected report event = %s", got)
	}
}

func TestResponse_Success(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		want bool
	}{
		{"200", Response{StatusCode: 200}, true},
		{"204", Response{StatusCode: 204}, true},
		{"301", Response{StatusCode: 301}, false},
		{"404", Response{StatusCode: 404}, false},
		{"error", Response{StatusCode: 200, Error: io.EOF}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.resp.Success(); got != tt.want {
				t.Errorf("Success() = %v, want %v", got, tt.want)
			}
		})
	}
}
