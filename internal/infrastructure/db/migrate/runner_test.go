package migrate

import "testing"

func TestRun_Validation(t *testing.T) {
	if err := Run("", "up"); err == nil {
		t.Error("expected error for empty dsn")
	}
	if err := Run("postgres://localhost/db", "sideways"); err == nil {
		t.Error("expected error for invalid direction")
	}
}
