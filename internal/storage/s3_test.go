package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestS3Storage_Key(t *testing.T) {
	s := &S3Storage{prefix: "archive"}
	assert.Equal(t, "archive/quarantine/ecoscan-activities/u1/1.json", s.key("quarantine/ecoscan-activities/u1/1.json"))

	s = &S3Storage{}
	assert.Equal(t, "exports/a.json", s.key("exports/a.json"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("exports/a.json"))
	assert.Equal(t, "application/octet-stream", contentType("quarantine/blob"))
}
