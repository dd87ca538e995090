package generator

import (
	"testing"
)

func TestNewID(t *testing.T) {
	got := NewID()
	if !IsValidID(got) {
		t.Errorf("NewID() returned invalid UUID: %v", got)
	}

	got2 := NewID()
	if got == got2 {
		t.Errorf("NewID() generated the same ID twice: %v", got)
	}
}

func TestIsValidID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{
			name: "Canonical UUID",
			id:   "3f2504e0-4f89-41d3-9a0c-0305e82c3301",
			want: true,
		},
		{
			name: "Upper case UUID",
			id:   "3F2504E0-4F89-41D3-9A0C-0305E82C3301",
			want: false,
		},
		{
			name: "Braced UUID",
			id:   "{3f2504e0-4f89-41d3-9a0c-0305e82c3301}",
			want: false,
		},
		{
			name: "Empty string",
			id:   "",
			want: false,
		},
		{
			name: "Random text",
			id:   "not-a-uuid",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidID(tt.id); got != tt.want {
				t.Errorf("IsValidID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
