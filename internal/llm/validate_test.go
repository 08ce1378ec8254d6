package llm

import (
	"errors"
	"testing"
)

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid", `{"answers":[{"value":42,"kind":"swap"},{"value":48}]}`, false},
		{"optional field missing", `{"answers":[{"value":7}]}`, false},
		{"missing required", `{"answers":[{"kind":"swap"}]}`, true},
		{"wrong type", `{"answers":[{"value":"42"}]}`, true},
		{"negative value", `{"answers":[{"value":-1}]}`, true},
		{"bad enum", `{"answers":[{"value":1,"kind":"guess"}]}`, true},
		{"too many items", `{"answers":[{"value":1},{"value":2},{"value":3},{"value":4}]}`, true},
		{"empty list", `{"answers":[]}`, true},
		{"malformed", `{"answers":`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(answerSchema(), raw(tt.content))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("expected ErrInvalidResponse, got %T", err)
				}
				if string(inv.Content) != tt.content {
					t.Errorf("error should carry the offending content, got %q", inv.Content)
				}
			}
		})
	}
}

func TestValidateResponse_NilSchemaAcceptsAnything(t *testing.T) {
	if err := validateResponse(nil, raw(`not json at all`)); err != nil {
		t.Fatalf("nil schema should accept anything, got %v", err)
	}
}

func TestValidateResponse_CompiledOncePerName(t *testing.T) {
	s := answerSchema()
	s.Name = "test-answers-cache"
	if err := validateResponse(s, raw(`{"answers":[{"value":1}]}`)); err != nil {
		t.Fatal(err)
	}
	if _, ok := compiledSchemas.Load(s.Name); !ok {
		t.Fatal("compiled schema should be cached by name")
	}
}
