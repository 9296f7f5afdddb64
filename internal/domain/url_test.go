package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"https", "https://example.com/a", false},
		{"http with port", "http://localhost:8080/x", false},
		{"empty", "", true},
		{"no scheme", "example.com", true},
		{"garbage", "://nope", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateURL(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidURL) {
				t.Errorf("error %v is not ErrInvalidURL", err)
			}
		})
	}
}

func TestFilterValidURLs(t *testing.T) {
	got := FilterValidURLs([]string{" https://a.example ", "not a url", "", "http://b.example/x"})
	want := []string{"https://a.example", "http://b.example/x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterValidURLs() = %v, want %v", got, want)
	}
}

func TestExtractDomain(t *testing.T) {
	if got := ExtractDomain("https://www.example.com/path"); got != "example.com" {
		t.Errorf("ExtractDomain() = %q", got)
	}
	if got := ExtractDomain("nonsense"); got != "nonsense" {
		t.Errorf("ExtractDomain() = %q", got)
	}
}
