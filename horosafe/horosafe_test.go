package horosafe

import (
	"bytes"
	"strings"
	"testing"
)

func TestValidateSecret(t *testing.T) {
	if err := ValidateSecret([]byte("short")); err == nil {
		t.Fatal("expected error for short secret")
	}
	if err := ValidateSecret(bytes.Repeat([]byte("a"), MinSecretLen)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url          string
		allowPrivate bool
		wantErr      bool
	}{
		{"https://93.184.216.34/cases", false, false},
		{"ftp://93.184.216.34/data", false, true},
		{"javascript:alert(1)", false, true},
		{"http://127.0.0.1/admin", false, true},
		{"http://10.0.0.1/internal", false, true},
		{"http://192.168.1.1/api", false, true},
		{"http://[::1]/api", false, true},
		{"http://10.0.0.1/internal", true, false},
		{"http:///nohost", true, true},
	}
	for _, tt := range tests {
		err := ValidateURL(tt.url, tt.allowPrivate)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q, %v) error=%v, wantErr=%v", tt.url, tt.allowPrivate, err, tt.wantErr)
		}
	}
}

func TestSafeRedirect(t *testing.T) {
	ok := []string{"/en/protected/person-case/privacy-statement", "/fr/protege?tid=abc"}
	bad := []string{"", "https://evil.example", "//evil.example/x", "/\\evil", "relative/path", "/x\r\nSet-Cookie: a=b"}

	for _, target := range ok {
		if _, err := SafeRedirect(target); err != nil {
			t.Errorf("SafeRedirect(%q): unexpected error %v", target, err)
		}
	}
	for _, target := range bad {
		if _, err := SafeRedirect(target); err == nil {
			t.Errorf("SafeRedirect(%q): expected error", target)
		}
	}
}

func TestLimitedReadAll(t *testing.T) {
	data, err := LimitedReadAll(strings.NewReader("hello"), 10)
	if err != nil || string(data) != "hello" {
		t.Fatalf("got %q, %v", data, err)
	}
	if _, err := LimitedReadAll(strings.NewReader("hello world"), 5); err == nil {
		t.Fatal("expected error when exceeding limit")
	}
}
