package facade

import "testing"

func TestFromJSON_Kinds(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
		str  string
	}{
		{`true`, KindBool, "true"},
		{`255`, KindNumber, "255"},
		{`0.5`, KindNumber, "0.5"},
		{`"Removed background"`, KindString, "Removed background"},
		{`null`, KindNull, "null"},
		{``, KindNull, "null"},
		{`{"idx":1,"len":3}`, KindMapping, "{idx: 1, len: 3}"},
		{`{broken`, KindError, ""},
	}
	for _, tt := range tests {
		v := FromJSON([]byte(tt.in))
		if v.Kind() != tt.kind {
			t.Errorf("FromJSON(%q): kind %s, want %s", tt.in, v.Kind(), tt.kind)
			continue
		}
		if tt.str != "" && v.String() != tt.str {
			t.Errorf("FromJSON(%q): String %q, want %q", tt.in, v.String(), tt.str)
		}
	}
}

func TestField_Paths(t *testing.T) {
	v := FromJSON([]byte(`{"history":{"len":4},"files":["a.png","b.png"]}`))
	if n, ok := v.Field("history.len").Int(); !ok || n != 4 {
		t.Errorf("history.len: got %d ok=%v", n, ok)
	}
	if s, ok := v.Field("files.1").Str(); !ok || s != "b.png" {
		t.Errorf("files.1: got %q ok=%v", s, ok)
	}
	if !v.Field("history.missing").IsError() {
		t.Error("missing field should be an error marker")
	}
	if !v.Field("files.0.name").IsError() {
		t.Error("walking into a string should be an error marker")
	}
}

func TestTrue_OnlyBoolean(t *testing.T) {
	if StringValue("true").True() {
		t.Error("string \"true\" treated as boolean")
	}
	if NumberValue(1).True() {
		t.Error("number 1 treated as boolean")
	}
	if !BoolValue(true).True() {
		t.Error("boolean true not True")
	}
}

func TestInt_NonIntegral(t *testing.T) {
	if _, ok := NumberValue(1.5).Int(); ok {
		t.Error("1.5 reported as integral")
	}
}
