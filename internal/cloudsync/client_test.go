package cloudsync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ubmqi/backend/internal/domain"
)

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		AppSignature: domain.SnapshotSignature,
		Members: []domain.Member{
			{ID: "mbr-001", Name: "Siti", Role: domain.RoleAnggota, Status: domain.MemberStatusAktif},
		},
		LastUpdated: "2026-08-30T00:00:00Z",
	}
}

func TestCreateReturnsServerID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var snap domain.Snapshot
		if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
			t.Errorf("decode uploaded snapshot: %v", err)
		}
		if snap.AppSignature != domain.SnapshotSignature {
			t.Errorf("uploaded snapshot missing signature, got %q", snap.AppSignature)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "doc-42"})
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second)
	id, err := client.Create(context.Background(), testSnapshot())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "doc-42" {
		t.Fatalf("expected doc-42, got %q", id)
	}
}

func TestCreateRejectsMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second)
	if _, err := client.Create(context.Background(), testSnapshot()); err == nil {
		t.Fatalf("expected error when create response has no id")
	}
}

func TestUpdateHitsDocumentPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(srv.URL+"/", time.Second)
	if err := client.Update(context.Background(), "doc-42", testSnapshot()); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !strings.HasSuffix(gotPath, "/doc-42") {
		t.Fatalf("expected request path to end with /doc-42, got %q", gotPath)
	}
}

func TestFetchValidatesSignature(t *testing.T) {
	good := testSnapshot()
	bad := testSnapshot()
	bad.AppSignature = "SOMETHING_ELSE"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/good"):
			json.NewEncoder(w).Encode(good)
		case strings.HasSuffix(r.URL.Path, "/bad"):
			json.NewEncoder(w).Encode(bad)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second)

	snap, err := client.Fetch(context.Background(), "good")
	if err != nil {
		t.Fatalf("fetch good: %v", err)
	}
	if len(snap.Members) != 1 || snap.Members[0].ID != "mbr-001" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	if _, err := client.Fetch(context.Background(), "bad"); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}

	if _, err := client.Fetch(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchRejectsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second)
	if _, err := client.Fetch(context.Background(), "doc-42"); err == nil {
		t.Fatalf("expected error on 500")
	}
}
