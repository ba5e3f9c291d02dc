// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generate

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jeranaias/tagbot/internal/mistral"
)

// stubCompletion spins up a completions endpoint that always answers
// with reply, and returns a client pointed at it plus an accessor for
// the last request body it saw.
func stubCompletion(t *testing.T, reply string) (*mistral.Client, func() mistral.ChatRequest) {
	t.Helper()

	var mu sync.Mutex
	var last mistral.ChatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if err := json.NewDecoder(r.Body).Decode(&last); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "mistral-tiny",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": reply},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	}))
	t.Cleanup(srv.Close)

	client := mistral.NewClient("test-key").WithBaseURL(srv.URL)
	lastReq := func() mistral.ChatRequest {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
	return client, lastReq
}

// stubFailure spins up a completions endpoint that always fails with
// the given status.
func stubFailure(t *testing.T, status int) *mistral.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	return mistral.NewClient("test-key").WithBaseURL(srv.URL)
}
