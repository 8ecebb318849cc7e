package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	fetchErr := Errorf(KindFetch, "payments page 2: status 503")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
		{
			name: "classified error",
			err:  fetchErr,
			want: KindFetch,
		},
		{
			name: "classified error wrapped further",
			err:  fmt.Errorf("run aborted: %w", fetchErr),
			want: KindFetch,
		},
		{
			name: "unclassified error",
			err:  errors.New("boom"),
			want: KindInternal,
		},
		{
			name: "outermost kind wins over inner kind",
			err:  E(KindArtifact, Errorf(KindFetch, "inner")),
			want: KindArtifact,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Errorf(KindFetch, "payments page 1: %w", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() lost the wrapped cause")
	}

	var e *Error
	if !errors.As(err, &e) {
		t.Fatal("errors.As() did not find *Error")
	}
	if e.Kind != KindFetch {
		t.Errorf("Kind = %q, want %q", e.Kind, KindFetch)
	}
}

func TestE_NilPassthrough(t *testing.T) {
	if err := E(KindAuth, nil); err != nil {
		t.Errorf("E(kind, nil) = %v, want nil", err)
	}
}

func TestClassify(t *testing.T) {
	authErr := Errorf(KindAuth, "token request returned status 401")
	if got := Classify(authErr); got != authErr {
		t.Errorf("Classify() rewrapped an already classified error")
	}

	plain := errors.New("boom")
	classified := Classify(plain)
	if KindOf(classified) != KindInternal {
		t.Errorf("Classify() kind = %q, want %q", KindOf(classified), KindInternal)
	}
	if !errors.Is(classified, plain) {
		t.Error("Classify() lost the original error")
	}

	if Classify(nil) != nil {
		t.Error("Classify(nil) should stay nil")
	}
}
