package ipsw_test

import (
	"testing"

	"github.com/frantjc/fwsym/ipsw"
	"github.com/stretchr/testify/assert"
)

func TestDecryptedName(t *testing.T) {
	assert.Equal(t, "/tmp/x/090-123.dmg", ipsw.DecryptedName("/tmp/x/090-123.dmg.aea"))
	assert.Equal(t, "/tmp/x/090-123.dmg", ipsw.DecryptedName("/tmp/x/090-123.dmg"))
}
