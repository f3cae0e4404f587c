package util

import (
	"testing"
)

func TestValidateIdent_Valid(t *testing.T) {
	valid := []string{
		"create_task",
		"send_notification",
		"trello",
		"slack",
		"append_row",
		"a1",
		"move_task",
		"sheets",
		"upload_file",
		"x2_y3",
	}
	for _, name := range valid {
		t.Run(name, func(t *testing.T) {
			if err := ValidateIdent("action", name); err != nil {
				t.Errorf("expected %q to be valid, got error: %v", name, err)
			}
		})
	}
}

func TestValidateIdent_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		wantMsg string
	}{
		{"", "at least 2 characters"},
		{"a", "at least 2 characters"},
		{"create task", "invalid characters"},
		{"Create_Task", "invalid characters"},
		{"create-task", "invalid characters"},
		{"_task", "must start with a letter"},
		{"1task", "must start with a letter"},
		{"task_", "must not end with an underscore"},
		{"task!", "invalid characters"},
		{"task\ttab", "invalid characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdent("action", tt.name)
			if err == nil {
				t.Errorf("expected %q to be invalid, got nil", tt.name)
				return
			}
			if got := err.Error(); !contains(got, tt.wantMsg) {
				t.Errorf("expected error containing %q, got %q", tt.wantMsg, got)
			}
		})
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && searchString(s, substr)
}

func searchString(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
