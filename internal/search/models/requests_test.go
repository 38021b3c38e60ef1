package models

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "pastcheck/pkg/domain-errors"
)

func TestNewSearchRequest(t *testing.T) {
	t.Run("full submission", func(t *testing.T) {
		req, err := NewSearchRequest("Arjun Singh", "1990-01-31", "Delhi", "arjun@example.com", "+919812345678")
		require.NoError(t, err)
		assert.Equal(t, "Arjun Singh", req.Name)
		assert.Equal(t, "1990-01-31", FormatDOB(req.DOB))
		require.NotNil(t, req.State)
		assert.Equal(t, "Delhi", req.State.String())
		require.NotNil(t, req.Email)
		assert.Equal(t, "arjun@example.com", *req.Email)
		require.NotNil(t, req.Phone)
	})

	t.Run("optional fields become nil", func(t *testing.T) {
		req, err := NewSearchRequest("Arjun Singh", "1990-01-31", "", "", "")
		require.NoError(t, err)
		assert.Nil(t, req.State)
		assert.Nil(t, req.Email)
		assert.Nil(t, req.Phone)
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name                            string
			subject, dob, state, email, tel string
		}{
			{"empty name", "", "1990-01-31", "", "", ""},
			{"empty dob", "Arjun Singh", "", "", "", ""},
			{"wrong dob layout", "Arjun Singh", "31/01/1990", "", "", ""},
			{"unknown state", "Arjun Singh", "1990-01-31", "Gondor", "", ""},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewSearchRequest(tt.subject, tt.dob, tt.state, tt.email, tt.tel)
				require.Error(t, err)
				assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
			})
		}
	})
}

func TestSearchRequestCloneIsolation(t *testing.T) {
	email := "arjun@example.com"
	req, err := NewSearchRequest("Arjun Singh", "1990-01-31", "Punjab", email, "")
	require.NoError(t, err)

	clone := req.Clone()
	*clone.Email = "tampered@example.com"

	assert.Equal(t, email, *req.Email)
}

func TestValidatePhoto(t *testing.T) {
	t.Run("png accepted", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
		assert.NoError(t, ValidatePhoto(buf.Bytes()))
	})

	t.Run("jpeg magic accepted", func(t *testing.T) {
		// Minimal JPEG preamble is enough for content sniffing.
		data := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 32)...)
		assert.NoError(t, ValidatePhoto(data))
	})

	t.Run("empty rejected", func(t *testing.T) {
		err := ValidatePhoto(nil)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})

	t.Run("text rejected", func(t *testing.T) {
		err := ValidatePhoto([]byte("<html>not a photo</html>"))
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})

	t.Run("oversize rejected", func(t *testing.T) {
		big := make([]byte, MaxPhotoBytes+1)
		big[0], big[1], big[2] = 0xFF, 0xD8, 0xFF
		err := ValidatePhoto(big)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})
}
