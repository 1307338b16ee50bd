package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebRTCOffer(t *testing.T) {
	var gotPath, gotMethod string
	var gotOffer SessionDescription

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotOffer)
		json.NewEncoder(w).Encode(SessionDescription{Type: "answer", SDP: "v=0\r\n"})
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	answer, err := client.WebRTCOffer(context.Background(), &SessionDescription{SDP: "v=0\r\na=recvonly\r\n"})
	if err != nil {
		t.Fatalf("WebRTCOffer() error = %v", err)
	}

	if gotMethod != "POST" || gotPath != "/api/webrtc/offer" {
		t.Errorf("request = %s %s, want POST /api/webrtc/offer", gotMethod, gotPath)
	}
	if gotOffer.Type != "offer" {
		t.Errorf("offer type = %q, want offer (defaulted)", gotOffer.Type)
	}
	if answer.Type != "answer" || answer.SDP == "" {
		t.Errorf("answer = %+v", answer)
	}
}

func TestWebRTCOfferRejectsEmptySDP(t *testing.T) {
	client := NewClientWithBaseURL("http://localhost:8000")
	if _, err := client.WebRTCOffer(context.Background(), nil); err == nil {
		t.Error("WebRTCOffer(nil) expected error")
	}
	if _, err := client.WebRTCOffer(context.Background(), &SessionDescription{}); err == nil {
		t.Error("WebRTCOffer(empty) expected error")
	}
}
