package message

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinLanguagesShareKeys(t *testing.T) {
	zh, en := builtin["zh_CN"], builtin["en_US"]
	for k := range zh {
		if _, ok := en[k]; !ok {
			t.Fatalf("en_US missing key %s", k)
		}
	}
	if len(zh) != len(en) {
		t.Fatalf("key count zh=%d en=%d", len(zh), len(en))
	}
}

func TestLoadMessagesFallback(t *testing.T) {
	m, err := LoadMessages(t.TempDir(), "fr_FR")
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Get("welcome"); got != builtin["zh_CN"]["welcome"] {
		t.Fatalf("fallback welcome got %q", got)
	}
	if got := m.Get("no_such_key"); got != "no_such_key" {
		t.Fatalf("missing key got %q", got)
	}
}

func TestLoadMessagesFileOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "en_US.json"), []byte(`{"welcome":"Hi"}`), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadMessages(dir, "en_US")
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Get("welcome"); got != "Hi" {
		t.Fatalf("override got %q", got)
	}
	if got := m.Get("error"); got != builtin["en_US"]["error"] {
		t.Fatalf("untouched key got %q", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "zh_CN.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMessages(dir, "zh_CN"); err == nil {
		t.Fatalf("expected error for bad message file")
	}
}
