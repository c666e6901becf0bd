package objstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		in             string
		bucket, prefix string
		wantErr        bool
	}{
		{"s3://reports", "reports", "", false},
		{"s3://reports/daily/", "reports", "daily", false},
		{"s3://reports/a/b", "reports", "a/b", false},
		{"https://reports/a", "", "", true},
		{"s3:///a", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			b, p, err := ParseS3URL(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if b != tt.bucket || p != tt.prefix {
				t.Errorf("got %q %q, want %q %q", b, p, tt.bucket, tt.prefix)
			}
		})
	}
}

func TestNewS3_RequiresBucket(t *testing.T) {
	if _, err := NewS3(context.Background(), S3Config{}); err == nil {
		t.Error("expected error without bucket")
	}
}

// TestPut_PathStyle runs a real upload against a fake S3 endpoint.
func TestPut_PathStyle(t *testing.T) {
	var (
		mu      sync.Mutex
		method  string
		gotPath string
		ctype   string
		body    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, gotPath, ctype, body = r.Method, r.URL.Path, r.Header.Get("Content-Type"), string(b)
		mu.Unlock()
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewS3(context.Background(), S3Config{
		Bucket:    "reports",
		Prefix:    "/exports/",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		t.Fatalf("NewS3() error = %v", err)
	}

	key, err := s.Put(context.Background(), "inventory-20240510.xlsx", strings.NewReader("PK-data"), "application/octet-stream")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if key != "exports/inventory-20240510.xlsx" {
		t.Errorf("key = %q", key)
	}

	mu.Lock()
	defer mu.Unlock()
	if method != http.MethodPut || gotPath != "/reports/exports/inventory-20240510.xlsx" {
		t.Errorf("request = %s %s", method, gotPath)
	}
	if ctype != "application/octet-stream" {
		t.Errorf("Content-Type = %q", ctype)
	}
	if !strings.Contains(body, "PK-data") {
		t.Errorf("body = %q", body)
	}
}
