package appid

import (
	"strings"
	"testing"

	appidentityassets "github.com/traktrelay/traktrelay/internal/assets/appidentity"
)

func TestEmbeddedIdentityYAML(t *testing.T) {
	if len(appidentityassets.YAML) == 0 {
		t.Fatal("embedded identity YAML is empty")
	}

	content := string(appidentityassets.YAML)
	for _, field := range []string{"binary_name", "env_prefix", "config_name"} {
		if !strings.Contains(content, field) {
			t.Errorf("embedded identity YAML missing field %q", field)
		}
	}

	if !strings.Contains(content, "traktrelay") {
		t.Error("embedded identity YAML does not name the binary")
	}
}
