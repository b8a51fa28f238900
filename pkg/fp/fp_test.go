package fp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string
	Qty  int
}

func TestValidateCollectsAllErrors(t *testing.T) {
	res := Validate(item{Name: " ", Qty: 0},
		func(i item) error { return Required("name")(i.Name) },
		func(i item) error { return Range("qty", 1, 10)(i.Qty) },
	)
	require.Error(t, Err(res))

	var errs ValidationErrors
	require.ErrorAs(t, Err(res), &errs)
	assert.Len(t, errs, 2)
	assert.Equal(t, "name: is required; qty: must be between 1 and 10", errs.Error())
}

func TestEachPrefixesIndex(t *testing.T) {
	v := Each("items", func(i item) error { return Required("service_name")(i.Name) })
	err := v([]item{{Name: "ok"}, {}})

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 1)
	assert.Equal(t, "items[1].service_name", errs[0].Field)
	assert.NoError(t, v(nil))
}

func TestOptionalAndPatterns(t *testing.T) {
	email := Optional(Email("email"))
	assert.NoError(t, email(""))
	assert.NoError(t, email("a@b.co"))
	assert.Error(t, email("nope"))

	assert.NoError(t, HexColor("color")("#2E7D32"))
	assert.Error(t, HexColor("color")("#2E7D3"))
	assert.Error(t, MaxLength("name", 3)("abcd"))
	assert.NoError(t, OneOf("format", "pdf", "word")("word"))
}

func TestFirstOk(t *testing.T) {
	first := Try(func() (int, error) { return 0, errors.New("first") })
	second := Try(func() (int, error) { return 7, nil })

	v, err := Unwrap(FirstOk(first, second))
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	third := Fail[int](errors.New("third"))
	err = Err(FirstOk(first, third))
	assert.EqualError(t, err, "first\nthird")
	assert.ErrorIs(t, Err(FirstOk[int]()), ErrNoCandidates)
}

func TestValidateFlattensNested(t *testing.T) {
	res := Validate([]item{{}},
		Each("items", func(i item) error { return Required("name")(i.Name) }),
		func([]item) error { return errors.New("plain") },
	)
	var errs ValidationErrors
	require.ErrorAs(t, Err(res), &errs)
	require.Len(t, errs, 2)
	assert.Equal(t, "items[0].name", errs[0].Field)
	assert.Equal(t, "", errs[1].Field)
	assert.Equal(t, "plain", errs[1].Message)

	ok, err := Unwrap(Validate(item{Name: "x"}))
	require.NoError(t, err)
	assert.Equal(t, "x", ok.Name)
}
