package resp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCommandCompleteRequest(t *testing.T) {
	buf := []byte("*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n")
	args, consumed, err := ReadCommand(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), consumed)
	assert.Equal(t, [][]byte{[]byte("GET"), []byte("foo")}, args)
}

func TestReadCommandZeroArgc(t *testing.T) {
	args, consumed, err := ReadCommand([]byte("*0\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, consumed)
	assert.Empty(t, args)
}

func TestReadCommandNeedsMoreData(t *testing.T) {
	partials := []string{
		"",
		"*2\r\n",
		"*2\r\n$3\r\nGE",
		"*2\r\n$3\r\nGET\r\n$3\r\nfo",
	}
	for _, p := range partials {
		args, consumed, err := ReadCommand([]byte(p))
		assert.NoError(t, err, p)
		assert.Nil(t, args, p)
		assert.Zero(t, consumed, p)
	}
}

func TestReadCommandLeavesTrailingBytesForNextRequest(t *testing.T) {
	buf := []byte("*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nPONG\r\n")
	args, consumed, err := ReadCommand(buf)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("PING")}, args)

	rest := buf[consumed:]
	args2, consumed2, err2 := ReadCommand(rest)
	require.NoError(t, err2)
	assert.Equal(t, [][]byte{[]byte("PONG")}, args2)
	assert.Equal(t, len(rest), consumed2)
}

func TestReadCommandRejectsNonArrayLeadByte(t *testing.T) {
	_, _, err := ReadCommand([]byte("PING\r\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestReadCommandRejectsMalformedMultibulkLength(t *testing.T) {
	_, _, err := ReadCommand([]byte("*x\r\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestReadCommandRejectsMissingBulkMarker(t *testing.T) {
	_, _, err := ReadCommand([]byte("*1\r\n+3\r\nfoo\r\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestReadCommandRejectsBadBulkTerminator(t *testing.T) {
	_, _, err := ReadCommand([]byte("*1\r\n$3\r\nfooXX"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestReadCommandMultiDigitCounts(t *testing.T) {
	// Regression for the "only the header digit" bug noted in the
	// original implementation: argc and bulk lengths beyond a single
	// digit must parse correctly.
	args := make([][]byte, 12)
	buf := []byte("*12\r\n")
	for i := range args {
		args[i] = []byte("element-of-length-20")
		buf = AppendBulk(buf, args[i])
	}
	got, consumed, err := ReadCommand(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), consumed)
	assert.Equal(t, args, got)
}
