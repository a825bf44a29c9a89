package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeToken(t *testing.T) {
	createdAt := time.Date(2023, 5, 15, 14, 30, 45, 123456789, time.UTC)

	token := EncodeToken(createdAt, "txn-123")
	assert.NotEmpty(t, token, "Token should not be empty")

	decodedCreatedAt, decodedID, err := DecodeToken(token)
	assert.NoError(t, err, "Decoding should not return an error")
	assert.Equal(t, createdAt, decodedCreatedAt, "Created at time should match after decode")
	assert.Equal(t, "txn-123", decodedID, "Row ID should match after decode")

	// IDs containing the separator survive the round trip
	pipeToken := EncodeToken(createdAt, "id|with|pipes")
	_, decodedPipeID, err := DecodeToken(pipeToken)
	assert.NoError(t, err)
	assert.Equal(t, "id|with|pipes", decodedPipeID)

	// Zero time values
	zeroToken := EncodeToken(time.Time{}, "")
	decodedZeroTime, decodedZeroID, err := DecodeToken(zeroToken)
	assert.NoError(t, err, "Decoding zero time should not return an error")
	assert.Equal(t, time.Time{}, decodedZeroTime, "Zero time should match after decode")
	assert.Equal(t, "", decodedZeroID)
}

func TestDecodeTokenError(t *testing.T) {
	// Invalid base64
	_, _, err := DecodeToken("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode", "Error should mention base64 decoding")

	// Missing separator
	invalidToken := "MjAyMy0wNS0xNVQwMDowMDowMFo=" // Base64 encoded date without separator
	_, _, err = DecodeToken(invalidToken)
	assert.Error(t, err, "Should return an error for invalid token format")
	assert.Contains(t, err.Error(), "split", "Error should mention splitting issue")

	// Invalid date
	_, _, err = DecodeToken("bm90YWRhdGV8dHhuLTEyMw==") // "notadate|txn-123"
	assert.Error(t, err, "Should return an error for invalid date format")
	assert.Contains(t, err.Error(), "created_at parse", "Error should mention date parsing issue")
}
