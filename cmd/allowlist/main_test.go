package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

type memStore struct {
	m   map[string]entry
	err error
}

func (s *memStore) Get(ctx context.Context, guildID string) (entry, error) {
	if s.err != nil {
		return entry{}, s.err
	}
	e, ok := s.m[guildID]
	if !ok {
		return entry{}, errNotFound
	}
	return e, nil
}

func (s *memStore) Set(ctx context.Context, guildID string, approved bool, note string) (entry, error) {
	if s.err != nil {
		return entry{}, s.err
	}
	e := s.m[guildID]
	e.GuildID, e.Approved, e.UpdatedAt = guildID, approved, time.Now()
	if note != "" {
		e.Note = note
	}
	s.m[guildID] = e
	return e, nil
}

func newApp() (*app, *memStore) {
	st := &memStore{m: map[string]entry{}}
	return &app{store: st, secret: "admin", log: slog.New(slog.NewTextHandler(io.Discard, nil))}, st
}

func request(method, path, secret, body string) events.APIGatewayV2HTTPRequest {
	req := events.APIGatewayV2HTTPRequest{RawPath: path, Body: body, Headers: map[string]string{}}
	req.RequestContext.HTTP.Method = method
	if secret != "" {
		req.Headers["X-Admin-Secret"] = secret
	}
	return req
}

func TestApproveRevokeGet(t *testing.T) {
	a, st := newApp()
	ctx := context.Background()

	res, _ := a.handle(ctx, request(http.MethodPost, "/guilds/123/approve", "admin", `{"note":"friends"}`))
	if res.StatusCode != http.StatusOK || !st.m["123"].Approved || st.m["123"].Note != "friends" {
		t.Fatalf("approve: %d %s", res.StatusCode, res.Body)
	}

	res, _ = a.handle(ctx, request(http.MethodPost, "/guilds/123/revoke", "admin", ""))
	if res.StatusCode != http.StatusOK || st.m["123"].Approved {
		t.Fatalf("revoke: %d %s", res.StatusCode, res.Body)
	}
	if st.m["123"].Note != "friends" {
		t.Error("revoke without note should keep the previous note")
	}

	res, _ = a.handle(ctx, request(http.MethodGet, "/guilds/123", "admin", ""))
	var got entry
	if err := json.Unmarshal([]byte(res.Body), &got); err != nil || res.StatusCode != http.StatusOK || got.Approved {
		t.Errorf("get: %d %s", res.StatusCode, res.Body)
	}
}

func TestBase64Body(t *testing.T) {
	a, st := newApp()
	req := request(http.MethodPost, "/guilds/9/approve", "admin", base64.StdEncoding.EncodeToString([]byte(`{"note":"b64"}`)))
	req.IsBase64Encoded = true
	if res, _ := a.handle(context.Background(), req); res.StatusCode != http.StatusOK || st.m["9"].Note != "b64" {
		t.Errorf("res = %d %s", res.StatusCode, res.Body)
	}
}

func TestRejections(t *testing.T) {
	a, st := newApp()
	cases := []struct {
		name string
		req  events.APIGatewayV2HTTPRequest
		want int
	}{
		{"no secret", request(http.MethodGet, "/guilds/1", "", ""), http.StatusUnauthorized},
		{"bad secret", request(http.MethodGet, "/guilds/1", "nope", ""), http.StatusUnauthorized},
		{"not found", request(http.MethodGet, "/guilds/1", "admin", ""), http.StatusNotFound},
		{"bad id", request(http.MethodGet, "/guilds/abc", "admin", ""), http.StatusNotFound},
		{"bad route", request(http.MethodPost, "/guilds/1/ban", "admin", ""), http.StatusMethodNotAllowed},
		{"bad json", request(http.MethodPost, "/guilds/1/approve", "admin", "{"), http.StatusBadRequest},
	}
	for _, tc := range cases {
		res, err := a.handle(context.Background(), tc.req)
		if err != nil || res.StatusCode != tc.want {
			t.Errorf("%s: status = %d (%v), want %d", tc.name, res.StatusCode, err, tc.want)
		}
	}
	if len(st.m) != 0 {
		t.Errorf("rejected requests wrote to the store: %v", st.m)
	}

	st.err = errors.New("db down")
	if res, _ := a.handle(context.Background(), request(http.MethodGet, "/guilds/1", "admin", "")); res.StatusCode != http.StatusInternalServerError {
		t.Errorf("store error: %d", res.StatusCode)
	}
}
