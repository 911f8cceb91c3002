package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBodyText(t *testing.T) {
	body := BodyText("Norte", "Central", "Hello there.")
	assert.Contains(t, body, "District: Norte")
	assert.Contains(t, body, "Church: Central")
	assert.Contains(t, body, "Hello there.")
}
