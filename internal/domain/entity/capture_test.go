package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCapturedImageDataURL(t *testing.T) {
	img := &CapturedImage{MIMEType: "image/jpeg", Data: []byte{0xFF, 0xD8, 0xFF}}
	require.Equal(t, "data:image/jpeg;base64,/9j/", img.DataURL())
}

func TestUploadOutcomeOK(t *testing.T) {
	require.True(t, UploadOutcome{FileName: "1.jpg"}.OK())
	require.False(t, UploadOutcome{Err: errors.New("boom")}.OK())
}
