package client

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestIdOrder(t *testing.T) {
	// ulids are ordered by create time
	// batch ids and query tags from the same source can be ordered

	a := NewId()
	for i := 0; i < 1024; i++ {
		b := NewId()
		assert.Equal(t, a.LessThan(b), true)
		assert.Equal(t, b.LessThan(a), false)
		assert.Equal(t, b.LessThan(b), false)
		assert.Equal(t, b == a, false)
		assert.Equal(t, b == b, true)
		a = b
	}
}

func TestIdJsonCodec(t *testing.T) {
	type Test struct {
		A Id  `json:"a,omitempty"`
		B *Id `json:"b,omitempty"`
	}

	test1 := &Test{}
	test1.A = NewId()
	b_ := NewId()
	test1.B = &b_

	test1Json, err := json.Marshal(test1)
	assert.Equal(t, err, nil)

	test2 := &Test{}
	err = json.Unmarshal(test1Json, test2)
	assert.Equal(t, err, nil)

	assert.Equal(t, test1.A, test2.A)
	assert.Equal(t, test1.B, test2.B)
}

func TestParseId(t *testing.T) {
	a := NewId()

	parsed, err := ParseId(a.String())
	assert.Equal(t, err, nil)
	assert.Equal(t, a, parsed)

	_, err = ParseId("not-a-uuid")
	assert.NotEqual(t, err, nil)
}
