package jsonutil

import "testing"

func TestStripFences_JSONLabeled(t *testing.T) {
	in := "```json\n{\"a\":1}\n```"
	got := StripFences(in)
	if got != `{"a":1}` {
		t.Errorf("expected stripped JSON, got %q", got)
	}
}

func TestStripFences_Bare(t *testing.T) {
	in := "```\n{\"a\":1}\n```"
	got := StripFences(in)
	if got != `{"a":1}` {
		t.Errorf("expected stripped JSON, got %q", got)
	}
}

func TestStripFences_NoFences(t *testing.T) {
	in := `{"a":1}`
	got := StripFences(in)
	if got != in {
		t.Errorf("expected unchanged content, got %q", got)
	}
}

func TestDecode_Success(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	if err := Decode("```json\n{\"a\":7}\n```", &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.A != 7 {
		t.Errorf("expected A=7, got %d", v.A)
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	var v struct{}
	err := Decode("not json at all", &v)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	var pe *ParseError
	if ok := asParseError(err, &pe); !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Raw != "not json at all" {
		t.Errorf("expected Raw to preserve original content, got %q", pe.Raw)
	}
}

func TestDecode_Empty(t *testing.T) {
	var v struct{}
	err := Decode("   ", &v)
	if err == nil {
		t.Fatal("expected error for empty response")
	}
}

// asParseError is a small helper so tests don't need to import errors.As
// repeatedly for this single type.
func asParseError(err error, target **ParseError) bool {
	pe, ok := err.(*ParseError)
	if ok {
		*target = pe
	}
	return ok
}
