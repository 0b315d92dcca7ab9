package symsorter_test

import (
	"testing"

	"github.com/frantjc/fwsym/symsorter"
	"github.com/stretchr/testify/assert"
)

func TestArgs(t *testing.T) {
	opts := &symsorter.SortOpts{
		IgnoreErrors: true,
		Compression:  2,
		Output:       "/tmp/out",
		Prefix:       "ios",
		BundleID:     "17.0_21A329_arm64e",
	}

	assert.Equal(t,
		[]string{"-zz", "--ignore-errors", "-o", "/tmp/out", "--prefix", "ios", "--bundle-id", "17.0_21A329_arm64e", "/tmp/in"},
		opts.Args("/tmp/in"),
	)
}

func TestArgsNil(t *testing.T) {
	var opts *symsorter.SortOpts
	assert.Equal(t, []string{"/tmp/in"}, opts.Args("/tmp/in"))
}
