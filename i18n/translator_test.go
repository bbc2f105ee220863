package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("invalid_type", nil); msg == "invalid_type" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	if msg := T("invalid_type", nil); msg == "invalid type" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

type upperTranslator struct{}

func (upperTranslator) Message(code string, _ map[string]string) string { return "CODE:" + code }

func TestTranslator_CustomAndFallback(t *testing.T) {
	SetTranslator(upperTranslator{})
	if msg := T("too_big", nil); msg != "CODE:too_big" {
		t.Fatalf("custom translator not used, got %q", msg)
	}

	SetTranslator(nil)
	if msg := T("some_unknown_code", nil); msg != "some_unknown_code" {
		t.Fatalf("unknown codes fall back to the code itself, got %q", msg)
	}
}
