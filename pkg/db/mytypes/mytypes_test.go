package mytypes

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestSplits(t *testing.T) {
	in := Splits{1: 2 * time.Second, 3: 1500 * time.Millisecond}
	v, err := in.Value()
	assert.NilError(t, err)

	var fromText Splits
	assert.NilError(t, fromText.Scan(v))
	assert.DeepEqual(t, in, fromText)

	var fromBytes Splits
	assert.NilError(t, fromBytes.Scan([]byte(v.(string))))
	assert.DeepEqual(t, in, fromBytes)

	var empty Splits
	v, err = empty.Value()
	assert.NilError(t, err)
	assert.Equal(t, "{}", v)
	assert.NilError(t, empty.Scan(nil))
	assert.Equal(t, 0, len(empty))

	assert.ErrorContains(t, empty.Scan(42), "not []byte")
}
