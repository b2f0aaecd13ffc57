package errors

import "testing"

func TestInputErrorSentinels(t *testing.T) {
	tests := []struct {
		kind     InputKind
		sentinel error
	}{
		{KindMalformed, ErrMalformed},
		{KindSections, ErrSections},
		{KindOutOfRange, ErrOutOfRange},
		{KindStructural, ErrStructural},
		{KindIbid, ErrIbid},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := &InputError{Kind: tt.kind, Input: "Shabbos 99z", Message: "test"}
			if !Is(err, tt.sentinel) {
				t.Errorf("Is(%v, %v) = false", err, tt.sentinel)
			}
			var ie *InputError
			if !As(err, &ie) || ie.Kind != tt.kind {
				t.Errorf("As failed to recover InputError for kind %v", tt.kind)
			}
		})
	}
}

func TestInputErrorUnwrapsWrappedCause(t *testing.T) {
	cause := New("numeral overflow")
	err := &InputError{Kind: KindSections, Message: "bad section", Err: cause}
	if !Is(err, cause) {
		t.Error("wrapped cause not reachable through Is")
	}
	// The kind sentinel stays reachable alongside the cause.
	if !Is(err, ErrSections) {
		t.Error("kind sentinel not matched when a cause is attached")
	}
}

func TestBookNameErrorUnwrapsWrappedCause(t *testing.T) {
	cause := New("catalog closed")
	err := &BookNameError{Title: "Shabbos", Err: cause}
	if !Is(err, cause) {
		t.Error("wrapped cause not reachable through Is")
	}
	if !Is(err, ErrBookName) {
		t.Error("ErrBookName not matched when a cause is attached")
	}
}

func TestBookNameError(t *testing.T) {
	err := &BookNameError{Title: "Shabbos"}
	if !Is(err, ErrBookName) {
		t.Error("BookNameError does not match ErrBookName")
	}
	if got := err.Error(); got != `no book named "Shabbos"` {
		t.Errorf("Error() = %q", got)
	}

	withPart := &BookNameError{Title: "Rashbam", Part: "commentator"}
	if got := withPart.Error(); got != `no commentator named "Rashbam"` {
		t.Errorf("Error() = %q", got)
	}
}

func TestSchemaError(t *testing.T) {
	err := &SchemaError{Path: "root.nodes[1]", Message: "depth must be at least 1"}
	if !Is(err, ErrSchema) {
		t.Error("SchemaError does not match ErrSchema")
	}
	if got := err.Error(); got != "schema root.nodes[1]: depth must be at least 1" {
		t.Errorf("Error() = %q", got)
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind InputKind
		want string
	}{
		{KindMalformed, "malformed"},
		{KindSections, "sections"},
		{KindOutOfRange, "out_of_range"},
		{KindStructural, "structural"},
		{KindIbid, "ibid"},
		{InputKind(99), "malformed"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}
