package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateContent(t *testing.T) {
	tests := []struct {
		name    string
		content Content
		wantErr string
	}{
		{
			name:    "valid text",
			content: TextContent{Text: "hello"},
		},
		{
			name:    "empty text",
			content: TextContent{},
			wantErr: "text is required",
		},
		{
			name:    "oversized text",
			content: TextContent{Text: string(make([]byte, maxTextLength+1))},
			wantErr: "text exceeds 4096 characters",
		},
		{
			name:    "valid voice",
			content: VoiceContent{URL: "https://cdn/v.ogg", Duration: 3 * time.Second, Size: 1024},
		},
		{
			name:    "voice too long",
			content: VoiceContent{URL: "https://cdn/v.ogg", Duration: 6 * time.Minute, Size: 1024},
			wantErr: "voice duration must be between 1ms and 5m",
		},
		{
			name:    "file without name",
			content: FileContent{URL: "https://cdn/doc", Size: 10},
			wantErr: "file name is required",
		},
		{
			name:    "image dimension out of range",
			content: ImageContent{URL: "https://cdn/p.png", Width: 9000, Height: 600},
			wantErr: "image width must be between 1 and 8192",
		},
		{
			name:    "valid payment",
			content: PaymentContent{Amount: 9.99, Currency: "USD", Status: PaymentPending},
		},
		{
			name:    "unsupported currency",
			content: PaymentContent{Amount: 5, Currency: "JPY", Status: PaymentPending},
			wantErr: "unsupported currency: JPY",
		},
		{
			name:    "non-positive payment amount",
			content: PaymentContent{Amount: 0, Currency: "EUR", Status: PaymentCompleted},
			wantErr: "payment amount must be greater than 0",
		},
		{
			name:    "latitude out of range",
			content: LocationContent{Latitude: 95, Longitude: 10},
			wantErr: "latitude must be between -90 and 90",
		},
		{
			name:    "valid location on the boundary",
			content: LocationContent{Latitude: -90, Longitude: 180},
		},
		{
			name:    "sticker without id",
			content: StickerContent{},
			wantErr: "sticker id is required",
		},
		{
			name:    "system content is always valid",
			content: SystemContent{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContent(tt.content)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateContent_Nil(t *testing.T) {
	err := ValidateContent(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content is required")
}

func TestParseContent(t *testing.T) {
	c, err := ParseContent(TypeText, []byte(`{"text":"hi"}`))
	require.NoError(t, err)
	require.IsType(t, TextContent{}, c)
	assert.Equal(t, "hi", c.(TextContent).Text)
	assert.Equal(t, TypeText, c.Kind())
}

func TestParseContent_TypeMismatchedFieldsIgnored(t *testing.T) {
	// Unknown fields are dropped; the shape check later catches missing ones.
	c, err := ParseContent(TypeLocation, []byte(`{"latitude":1,"longitude":2,"text":"x"}`))
	require.NoError(t, err)
	loc, ok := c.(LocationContent)
	require.True(t, ok)
	assert.Equal(t, 1.0, loc.Latitude)
	assert.Equal(t, 2.0, loc.Longitude)
}

func TestParseContent_EmptyPayload(t *testing.T) {
	_, err := ParseContent(TypeText, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content is required for message type: text")

	c, err := ParseContent(TypeSystem, nil)
	require.NoError(t, err)
	assert.Equal(t, SystemContent{}, c)
}

func TestParseContent_InvalidType(t *testing.T) {
	_, err := ParseContent(Type("poll"), []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid message type: poll")
}

func TestParseContent_MalformedJSON(t *testing.T) {
	_, err := ParseContent(TypeText, []byte(`{"text":`))
	require.Error(t, err)
}

func TestEncodeContentRoundTrip(t *testing.T) {
	orig := PaymentContent{Amount: 12.5, Currency: "AED", Status: PaymentCompleted}
	data, err := EncodeContent(orig)
	require.NoError(t, err)

	back, err := ParseContent(TypePayment, data)
	require.NoError(t, err)
	assert.Equal(t, orig, back)
}
