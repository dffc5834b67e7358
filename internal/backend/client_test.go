package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/restrainapp/restrain/internal/wire"
)

func TestListHabitsSendsAuthAndFilters(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]any{})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-key")
	if _, err := c.ListHabits(context.Background(), "user-1"); err != nil {
		t.Fatalf("ListHabits: %v", err)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	for _, want := range []string{"user_id=user-1", "is_active=true", "order=created_at.desc"} {
		if !containsParam(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

func containsParam(query, param string) bool {
	for _, p := range splitQuery(query) {
		if p == param {
			return true
		}
	}
	return false
}

func splitQuery(q string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(q); i++ {
		if i == len(q) || q[i] == '&' {
			out = append(out, q[start:i])
			start = i + 1
		}
	}
	return out
}

func TestErrorClassMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			json.NewEncoder(w).Encode(map[string]string{"code": "denied", "message": "nope"})
		}))
		c := New(srv.URL, "k")
		err := c.Health(context.Background())
		srv.Close()
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestInsertHabitDecodesConfirmedRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		w.Write([]byte(`{"id":"h-1","user_id":"user-1","name":"No vaping","category":"smoking",
			"created_at":"2026-08-31T10:00:00Z","updated_at":"2026-08-31T10:00:00Z",
			"start_date":"2026-08-31T10:00:00Z","is_active":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	row, err := c.InsertHabit(context.Background(), wire.HabitInsert{Name: "No vaping"})
	if err != nil {
		t.Fatalf("InsertHabit: %v", err)
	}
	if row.ID != "h-1" || row.Name != "No vaping" {
		t.Errorf("row = %+v", row)
	}
}

func TestHealthFailsWhenUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", "k")
	if err := c.Health(context.Background()); err == nil {
		t.Fatal("expected connection error")
	}
}
