package inputval_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/dalemusser/communityhub/internal/app/system/inputval"
)

type tagged struct {
	Mobile      string `json:"mobile" validate:"omitempty,mobile10"`
	CountryCode string `json:"countryCode" validate:"omitempty,countrycode"`
	OTP         string `json:"otp" validate:"omitempty,otp6"`
	Password    string `json:"password" validate:"omitempty,strongpassword"`
	ID          string `json:"id" validate:"omitempty,objectid"`
	Secret      string `json:"secret" validate:"omitempty,max=72,bcrypt72"`
}

func invalidField(err error, field string) bool {
	e := apierr.As(err)
	if e == nil {
		return false
	}
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func TestMobile10(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"9876543210", true},
		{"0000000000", true},
		{"987654321", false},
		{"98765432101", false},
		{"98765-4321", false},
		{"+919876543210", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := inputval.Struct(tagged{Mobile: tt.in})
			if got := !invalidField(err, "mobile"); got != tt.want {
				t.Errorf("mobile10(%q) valid = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCountryCode(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"+91", true},
		{"+1", true},
		{"+1264", true},
		{"91", false},
		{"+", false},
		{"+12345", false},
		{"+9a", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := inputval.Struct(tagged{CountryCode: tt.in})
			if got := !invalidField(err, "countryCode"); got != tt.want {
				t.Errorf("countrycode(%q) valid = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOTP6(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"123456", true},
		{"000000", true},
		{"12345", false},
		{"1234567", false},
		{"12 456", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := inputval.Struct(tagged{OTP: tt.in})
			if got := !invalidField(err, "otp"); got != tt.want {
				t.Errorf("otp6(%q) valid = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStrongPassword(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Secret123", true},
		{"aB3", true},
		{"secret123", false},
		{"SECRET123", false},
		{"SecretPass", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := inputval.Struct(tagged{Password: tt.in})
			if got := !invalidField(err, "password"); got != tt.want {
				t.Errorf("strongpassword(%q) valid = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBcrypt72(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"ascii at limit", strings.Repeat("a", 72), true},
		{"ascii over limit", strings.Repeat("a", 73), false},
		{"multibyte within rune limit", "Aa1" + strings.Repeat("é", 69), false},
		{"multibyte within byte limit", "Aa1" + strings.Repeat("é", 34), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := inputval.Struct(tagged{Secret: tt.in})
			if got := !invalidField(err, "secret"); got != tt.want {
				t.Errorf("bcrypt72(%d bytes) valid = %v, want %v", len(tt.in), got, tt.want)
			}
		})
	}
}

func TestObjectID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"64b7f0c2a1b2c3d4e5f60718", true},
		{"64B7F0C2A1B2C3D4E5F60718", true},
		{"64b7f0c2a1b2c3d4e5f6071", false},
		{"zzb7f0c2a1b2c3d4e5f60718", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := inputval.Struct(tagged{ID: tt.in})
			if got := !invalidField(err, "id"); got != tt.want {
				t.Errorf("objectid(%q) valid = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecode_OversizedBody(t *testing.T) {
	body := `{"mobile":"` + strings.Repeat("9", inputval.MaxBodyBytes) + `"}`
	r := httptest.NewRequest("POST", "/", strings.NewReader(body))
	var s tagged
	e := apierr.As(inputval.Decode(httptest.NewRecorder(), r, &s))
	if e == nil || e.Message != "Invalid JSON body" {
		t.Fatalf("expected Invalid JSON body, got %v", e)
	}
}
