package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_DefaultsApplied(t *testing.T) {
	t.Parallel()

	err := Newf("something broke").Build()

	require.Error(t, err)
	assert.Equal(t, CategoryGeneric, err.Category)
	assert.NotEmpty(t, err.Component)
	assert.False(t, err.Timestamp.IsZero())
}

func TestBuild_ExplicitMetadata(t *testing.T) {
	t.Parallel()

	err := Newf("conversion timed out").
		Category(CategoryTimeout).
		Component("convert").
		Context("job_id", "job-9").
		Build()

	assert.Equal(t, CategoryTimeout, err.Category)
	assert.Equal(t, "convert", err.Component)
	assert.Equal(t, "job-9", err.GetContext()["job_id"])
}

func TestEnhancedError_WrapsAndUnwraps(t *testing.T) {
	t.Parallel()

	base := fmt.Errorf("root cause")
	err := Newf("wrapped: %w", base).Category(CategoryFileIO).Build()

	assert.ErrorIs(t, err, base)
	assert.Equal(t, "wrapped: root cause", err.Error())

	var enhanced *EnhancedError
	require.ErrorAs(t, fmt.Errorf("outer: %w", err), &enhanced)
	assert.Equal(t, CategoryFileIO, enhanced.Category)
}

func TestEnhancedError_IsMatchesCategory(t *testing.T) {
	t.Parallel()

	a := Newf("a").Category(CategoryNetwork).Build()
	b := Newf("b").Category(CategoryNetwork).Build()
	c := Newf("c").Category(CategoryValidation).Build()

	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, c)
}

func TestGetContext_ReturnsCopy(t *testing.T) {
	t.Parallel()

	err := Newf("x").Context("key", "value").Build()

	ctx := err.GetContext()
	ctx["key"] = "mutated"

	assert.Equal(t, "value", err.GetContext()["key"])
}

func TestFileContext(t *testing.T) {
	t.Parallel()

	err := Newf("read failed").FileContext("/tmp/drawing.DWG", 2048).Build()

	ctx := err.GetContext()
	assert.Equal(t, ".dwg", ctx["file_extension"])
	assert.Equal(t, int64(2048), ctx["file_size"])
}
