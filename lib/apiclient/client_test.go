// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, StaticTokens("X-CSRF-TOKEN", "token-1"))
}

func TestRoomFetch(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rooms/sprint-12/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		io.WriteString(w, `{"name": "sprint-12", "cardSetName": "Fib", "votingClosed": false,
			"members": [{"username": "alice", "role": "VOTER"}]}`)
	}))

	room, err := client.Room(context.Background(), "sprint-12")
	if err != nil {
		t.Fatalf("Room: %v", err)
	}
	if room.Name != "sprint-12" || len(room.Members) != 1 {
		t.Errorf("unexpected room: %+v", room)
	}
}

func TestMutationsCarryCSRFPair(t *testing.T) {
	var header string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("X-CSRF-TOKEN")
	}))

	if err := client.JoinRoom(context.Background(), "r1"); err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	if header != "token-1" {
		t.Errorf("CSRF header = %q, want token-1", header)
	}
}

func TestEditRoomOmitsUnchangedFields(t *testing.T) {
	var method string
	var body map[string]json.RawMessage
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		payload, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(payload, &body); err != nil {
			t.Fatalf("patch body is not JSON: %v", err)
		}
	}))

	topic := "B"
	err := client.EditRoom(context.Background(), "r1", RoomPatch{Topic: &topic})
	if err != nil {
		t.Fatalf("EditRoom: %v", err)
	}
	if method != http.MethodPatch {
		t.Errorf("method = %q, want PATCH", method)
	}
	if string(body["topic"]) != `"B"` {
		t.Errorf("patch topic = %s, want \"B\"", body["topic"])
	}
	if _, present := body["cardSetName"]; present {
		t.Error("unchanged cardSetName must be omitted from the patch")
	}
	if _, present := body["extensions"]; present {
		t.Error("unchanged extensions must be omitted from the patch")
	}
}

func TestCastVoteQueryEncoding(t *testing.T) {
	var rawQuery string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
	}))

	if err := client.CastVote(context.Background(), "r1", "½"); err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if rawQuery != "card-name=%C2%BD" {
		t.Errorf("query = %q, want escaped card name", rawQuery)
	}
}

func TestEditMemberAction(t *testing.T) {
	var path, action string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		action = r.URL.Query().Get("action")
	}))

	if err := client.EditMember(context.Background(), "r1", "bob", Kick); err != nil {
		t.Fatalf("EditMember: %v", err)
	}
	if path != "/api/rooms/r1/members/bob" || action != "KICK" {
		t.Errorf("request = %s?action=%s", path, action)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		statusCode int
		body       string
		want       string
	}{
		{"forbidden", http.StatusForbidden, "",
			"missing permissions, you may have been kicked from the room"},
		{"not found", http.StatusNotFound, "",
			"not found, it may have been deleted"},
		{"server message", http.StatusBadRequest, `{"message": "card set Fib is unknown"}`,
			"card set Fib is unknown"},
		{"plain body", http.StatusInternalServerError, "boom",
			"HTTP 500: boom"},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(testCase.statusCode)
				io.WriteString(w, testCase.body)
			}))

			err := client.JoinRoom(context.Background(), "r1")
			var requestError *RequestError
			if !errors.As(err, &requestError) {
				t.Fatalf("expected RequestError, got %v", err)
			}
			if requestError.StatusCode != testCase.statusCode {
				t.Errorf("status = %d, want %d", requestError.StatusCode, testCase.statusCode)
			}
			if requestError.Message != testCase.want {
				t.Errorf("message = %q, want %q", requestError.Message, testCase.want)
			}
		})
	}
}

func TestRoomPatchIsEmpty(t *testing.T) {
	if !(RoomPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
	topic := "t"
	if (RoomPatch{Topic: &topic}).IsEmpty() {
		t.Error("patch with topic should not be empty")
	}
}

func TestPageTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><head>
			<meta name="_csrf" content="abc123"/>
			<meta name="_csrf_header" content="X-CSRF-TOKEN"/>
		</head></html>`)
	}))
	defer server.Close()

	source := PageTokens(server.Client(), server.URL)
	pair, err := source.Tokens(context.Background())
	if err != nil {
		t.Fatalf("Tokens: %v", err)
	}
	if pair.HeaderName != "X-CSRF-TOKEN" || pair.Token != "abc123" {
		t.Errorf("unexpected pair: %+v", pair)
	}

	// Second call serves from cache; shut the server down to prove it.
	server.Close()
	if _, err := source.Tokens(context.Background()); err != nil {
		t.Errorf("cached Tokens: %v", err)
	}
}

func TestMalformedRoomPayload(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"cardSetName": "Fib"}`)
	}))

	_, err := client.Room(context.Background(), "r1")
	if err == nil {
		t.Fatal("expected malformed payload error")
	}
}
