package uuid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUUIDIsTimeOrdered(t *testing.T) {
	a, err := NewUUID()
	require.NoError(t, err)
	b := MustNewUUID()

	assert.NoError(t, ValidateUUID(a))
	assert.NoError(t, ValidateUUID(b))
	assert.Equal(t, byte('7'), a[14], "version nibble")
	assert.LessOrEqual(t, a[:13], b[:13])
}

func TestValidateUUID(t *testing.T) {
	assert.Error(t, ValidateUUID(""))
	assert.Error(t, ValidateUUID("o1"))
}

func TestStoragePath(t *testing.T) {
	p := StoragePath("leads", "l1", "brief.pdf")
	parts := strings.Split(p, "/")
	require.Len(t, parts, 4)
	assert.Equal(t, []string{"attachments", "leads", "l1"}, parts[:3])
	assert.True(t, strings.HasSuffix(parts[3], "-brief.pdf"))
	assert.NoError(t, ValidateUUID(strings.TrimSuffix(parts[3], "-brief.pdf")))
}
