package s3

import (
	"context"
	"errors"
	"testing"

	"mskboard/internal/kv/core"
)

func TestStore_MockedRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	if store.Driver() != core.DriverS3 || store.Bucket() != "mock-bucket" {
		t.Fatalf("unexpected driver/bucket")
	}
	if _, err := store.Get(ctx, "msk-suggestion-store"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Set(ctx, "msk-suggestion-store", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "msk-suggestion-store", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := store.Get(ctx, "msk-suggestion-store")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"v":2}` {
		t.Fatalf("expected overwritten payload, got %s", got)
	}
	if err := store.Remove(ctx, "msk-suggestion-store"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := store.Get(ctx, "msk-suggestion-store"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found after remove, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestStore_New(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket required error")
	}
	store, err := New(context.Background(), Config{
		Bucket:          "b",
		Prefix:          "/boards/msk/",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		PathStyle:       true,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := store.objectKey("msk-user"); got != "boards/msk/msk-user.json" {
		t.Fatalf("unexpected object key %q", got)
	}
}

func TestNormalizePrefix(t *testing.T) {
	cases := map[string]string{"": "", "/": "", "a": "a/", "a/b/": "a/b/"}
	for in, want := range cases {
		if got := normalizePrefix(in); got != want {
			t.Fatalf("normalizePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDecodeChunkedHelper(t *testing.T) {
	if out, ok := decodeChunked([]byte("5\r\nhello\r\n0\r\n\r\n")); !ok || string(out) != "hello" {
		t.Fatalf("expected decoded body, got %q ok=%v", out, ok)
	}
	if _, ok := decodeChunked([]byte("zz\r\nhello\r\n0\r\n")); ok {
		t.Fatalf("expected invalid hex to fail")
	}
	if _, ok := decodeChunked([]byte("plain")); ok {
		t.Fatalf("expected plain body to be left alone")
	}
}
