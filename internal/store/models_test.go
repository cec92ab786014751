package store

import (
	"strings"
	"testing"
)

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  bool
	}{
		{"valid 138 prefix", "13800138000", true},
		{"valid 199 prefix", "19912345678", true},
		{"surrounding whitespace", " 13800138000 ", true},
		{"empty", "", false},
		{"too short", "1380013800", false},
		{"too long", "138001380001", false},
		{"second digit 2", "12800138000", false},
		{"leading zero", "03800138000", false},
		{"letters", "13800abc000", false},
		{"internal whitespace", "138 0013 8000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidPhone(tt.phone); got != tt.want {
				t.Errorf("IsValidPhone(%q) = %v, want %v", tt.phone, got, tt.want)
			}
		})
	}
}

func TestFormDataValidate(t *testing.T) {
	valid := FormData{Name: "王小明", Phone: "13800138000"}

	tests := []struct {
		name      string
		form      FormData
		wantField string
		wantMsg   string
	}{
		{
			name: "valid minimal form",
			form: valid,
		},
		{
			name: "valid full form",
			form: FormData{
				Name:     "王小明",
				Phone:    "13800138000",
				Industry: "美妆",
				Message:  "想了解代运营服务",
			},
		},
		{
			name:      "missing name",
			form:      FormData{Phone: "13800138000"},
			wantField: "name",
			wantMsg:   MsgNameRequired,
		},
		{
			name:      "single character name",
			form:      FormData{Name: "王", Phone: "13800138000"},
			wantField: "name",
			wantMsg:   MsgNameTooShort,
		},
		{
			name:      "name over 20 characters",
			form:      FormData{Name: strings.Repeat("王", 21), Phone: "13800138000"},
			wantField: "name",
			wantMsg:   MsgNameTooLong,
		},
		{
			name:      "missing phone",
			form:      FormData{Name: "王小明"},
			wantField: "phone",
			wantMsg:   MsgPhoneRequired,
		},
		{
			name:      "malformed phone",
			form:      FormData{Name: "王小明", Phone: "123"},
			wantField: "phone",
			wantMsg:   MsgPhoneInvalid,
		},
		{
			name:      "industry over 100 characters",
			form:      FormData{Name: "王小明", Phone: "13800138000", Industry: strings.Repeat("业", 101)},
			wantField: "industry",
			wantMsg:   MsgIndustryTooLong,
		},
		{
			name:      "message over 500 characters",
			form:      FormData{Name: "王小明", Phone: "13800138000", Message: strings.Repeat("言", 501)},
			wantField: "message",
			wantMsg:   MsgMessageTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.form.Validate()

			if tt.wantField == "" {
				if errs.HasErrors() {
					t.Errorf("Expected no errors, got %v", errs)
				}
				return
			}

			if !errs.HasErrors() {
				t.Fatal("Expected validation errors")
			}
			msg := errs.ByField(tt.wantField)
			if msg == "" {
				t.Fatalf("Expected error on field %q, got %v", tt.wantField, errs)
			}
			if msg != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, msg)
			}
		})
	}
}

func TestFormDataBoundaryLengths(t *testing.T) {
	// Limits are rune counts; multibyte names at the exact boundary pass.
	tests := []struct {
		name string
		form FormData
		ok   bool
	}{
		{"name exactly 2", FormData{Name: "小明", Phone: "13800138000"}, true},
		{"name exactly 20", FormData{Name: strings.Repeat("名", 20), Phone: "13800138000"}, true},
		{"industry exactly 100", FormData{Name: "王小明", Phone: "13800138000", Industry: strings.Repeat("业", 100)}, true},
		{"message exactly 500", FormData{Name: "王小明", Phone: "13800138000", Message: strings.Repeat("言", 500)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := !tt.form.Validate().HasErrors(); got != tt.ok {
				t.Errorf("Expected ok=%v, got %v", tt.ok, got)
			}
		})
	}
}

func TestFormDataTrimmed(t *testing.T) {
	f := FormData{
		Name:     "  王小明 ",
		Phone:    "\t13800138000\n",
		Industry: " 美妆 ",
		Message:  "  你好  ",
	}

	got := f.Trimmed()
	want := FormData{Name: "王小明", Phone: "13800138000", Industry: "美妆", Message: "你好"}
	if got != want {
		t.Errorf("Trimmed() = %+v, want %+v", got, want)
	}
}
