package fault

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Salehnexta/Rahallah10.13/internal/domain"
)

func TestNewValidatesEnums(t *testing.T) {
	te, err := New(KindServer, CategoryChat, SeverityError, "backend failed", nil)
	require.NoError(t, err)
	assert.Equal(t, KindServer, te.Kind)
	assert.Equal(t, CategoryChat, te.Category)
	assert.False(t, te.OccurredAt.IsZero())

	_, err = New("bogus", CategoryChat, SeverityError, "x", nil)
	assert.Error(t, err, "unknown kind must fail loud")

	_, err = New(KindServer, "bogus", SeverityError, "x", nil)
	assert.Error(t, err, "unknown category must fail loud")

	_, err = New(KindServer, CategoryChat, "bogus", "x", nil)
	assert.Error(t, err, "unknown severity must fail loud")

	_, err = New(KindServer, CategoryChat, SeverityError, "", nil)
	assert.Error(t, err, "empty message must fail loud")
}

func TestClassifyMapsWellKnownCauses(t *testing.T) {
	tests := []struct {
		name     string
		cause    error
		wantKind Kind
	}{
		{"cancelled", context.Canceled, KindNetwork},
		{"deadline", context.DeadlineExceeded, KindServer},
		{"opaque", errors.New("boom"), KindUnknown},
		{"nil", nil, KindSystem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := Classify(tt.cause, CategoryChat)
			assert.Equal(t, tt.wantKind, te.Kind)
			assert.NotEmpty(t, te.Message)
		})
	}
}

func TestClassifyPassesThroughTypedErrors(t *testing.T) {
	orig, err := New(KindValidation, CategoryAPI, SeverityWarning, "bad input", nil)
	require.NoError(t, err)

	te := Classify(orig, CategoryChat)
	assert.Same(t, orig, te, "already-classified errors must not be reclassified")
}

func TestClassifyInvalidCategoryFallsBack(t *testing.T) {
	te := Classify(errors.New("boom"), "nonsense")
	assert.Equal(t, CategoryAPI, te.Category)
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root")
	te, err := New(KindServer, CategoryChat, SeverityError, "wrapped", cause)
	require.NoError(t, err)
	assert.True(t, errors.Is(te, cause))
}

func TestUserMessageIsTotal(t *testing.T) {
	for _, kind := range []Kind{KindNetwork, KindValidation, KindServer, KindAuth, KindSystem, KindUnknown} {
		te := &TypedError{Kind: kind}
		assert.NotEmpty(t, UserMessage(te, domain.LanguageEnglish))
		assert.NotEmpty(t, UserMessage(te, domain.LanguageArabic))
		assert.NotEqual(t,
			UserMessage(te, domain.LanguageEnglish),
			UserMessage(te, domain.LanguageArabic),
			"templates must be localized for kind %s", kind)
	}

	// Never fails regardless of input.
	assert.NotEmpty(t, UserMessage(nil, domain.LanguageEnglish))
	assert.NotEmpty(t, UserMessage(&TypedError{Kind: "garbage"}, domain.LanguageArabic))
	assert.NotEmpty(t, UserMessage(&TypedError{Kind: KindServer}, "klingon"))
}

func TestUserMessageDistinctPerKind(t *testing.T) {
	seen := map[string]Kind{}
	for _, kind := range []Kind{KindNetwork, KindValidation, KindServer, KindAuth, KindSystem, KindUnknown} {
		msg := UserMessage(&TypedError{Kind: kind}, domain.LanguageEnglish)
		if prev, dup := seen[msg]; dup {
			t.Fatalf("kinds %s and %s share a template", prev, kind)
		}
		seen[msg] = kind
	}
}
