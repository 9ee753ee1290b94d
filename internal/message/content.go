package message

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"messenger/infrastructure"
)

// Per-type content bounds. Untyped payloads are decoded into one of the
// closed content variants at the boundary; business logic only ever sees the
// typed form.
const (
	maxTextLength = 4096

	minVoiceDuration = time.Millisecond
	maxVoiceDuration = 5 * time.Minute
	maxVoiceSize     = 50 << 20

	maxFileSize = 100 << 20

	minDimension = 1
	maxDimension = 8192

	maxVideoDuration = 30 * time.Minute
	maxVideoSize     = 500 << 20
)

// allowedCurrencies is the fixed allow-list for payment messages.
var allowedCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "RUB": true,
	"KZT": true, "UZS": true, "AED": true,
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentCancelled:
		return true
	}
	return false
}

// Content is the closed set of message payload variants, one per message type.
type Content interface {
	Kind() Type
	validate(v *infrastructure.ValidationError)
}

type TextContent struct {
	Text string `json:"text"`
}

func (TextContent) Kind() Type { return TypeText }

func (c TextContent) validate(v *infrastructure.ValidationError) {
	if c.Text == "" {
		v.Add("text is required")
	}
	if len(c.Text) > maxTextLength {
		v.Add("text exceeds %d characters", maxTextLength)
	}
}

type VoiceContent struct {
	URL      string        `json:"url"`
	Duration time.Duration `json:"duration"`
	Size     int64         `json:"size"`
}

func (VoiceContent) Kind() Type { return TypeVoice }

func (c VoiceContent) validate(v *infrastructure.ValidationError) {
	if c.URL == "" {
		v.Add("voice url is required")
	}
	if c.Duration < minVoiceDuration || c.Duration > maxVoiceDuration {
		v.Add("voice duration must be between 1ms and 5m")
	}
	if c.Size <= 0 || c.Size > maxVoiceSize {
		v.Add("voice size must be between 1 byte and 50MB")
	}
}

type FileContent struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

func (FileContent) Kind() Type { return TypeFile }

func (c FileContent) validate(v *infrastructure.ValidationError) {
	if c.URL == "" {
		v.Add("file url is required")
	}
	if c.Name == "" {
		v.Add("file name is required")
	}
	if c.Size <= 0 || c.Size > maxFileSize {
		v.Add("file size must be between 1 byte and 100MB")
	}
}

type ImageContent struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (ImageContent) Kind() Type { return TypeImage }

func (c ImageContent) validate(v *infrastructure.ValidationError) {
	if c.URL == "" {
		v.Add("image url is required")
	}
	if c.Width < minDimension || c.Width > maxDimension {
		v.Add("image width must be between %d and %d", minDimension, maxDimension)
	}
	if c.Height < minDimension || c.Height > maxDimension {
		v.Add("image height must be between %d and %d", minDimension, maxDimension)
	}
}

type VideoContent struct {
	URL      string        `json:"url"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Duration time.Duration `json:"duration"`
	Size     int64         `json:"size"`
}

func (VideoContent) Kind() Type { return TypeVideo }

func (c VideoContent) validate(v *infrastructure.ValidationError) {
	if c.URL == "" {
		v.Add("video url is required")
	}
	if c.Width < minDimension || c.Width > maxDimension {
		v.Add("video width must be between %d and %d", minDimension, maxDimension)
	}
	if c.Height < minDimension || c.Height > maxDimension {
		v.Add("video height must be between %d and %d", minDimension, maxDimension)
	}
	if c.Duration <= 0 || c.Duration > maxVideoDuration {
		v.Add("video duration must be between 1ns and 30m")
	}
	if c.Size <= 0 || c.Size > maxVideoSize {
		v.Add("video size must be between 1 byte and 500MB")
	}
}

type PaymentContent struct {
	Amount   float64       `json:"amount"`
	Currency string        `json:"currency"`
	Status   PaymentStatus `json:"status"`
}

func (PaymentContent) Kind() Type { return TypePayment }

func (c PaymentContent) validate(v *infrastructure.ValidationError) {
	if c.Amount <= 0 {
		v.Add("payment amount must be greater than 0")
	}
	if !allowedCurrencies[c.Currency] {
		v.Add("unsupported currency: %s", c.Currency)
	}
	if !c.Status.Valid() {
		v.Add("invalid payment status: %s", c.Status)
	}
}

type LocationContent struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label,omitempty"`
}

func (LocationContent) Kind() Type { return TypeLocation }

func (c LocationContent) validate(v *infrastructure.ValidationError) {
	if c.Latitude < -90 || c.Latitude > 90 {
		v.Add("latitude must be between -90 and 90")
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		v.Add("longitude must be between -180 and 180")
	}
}

type StickerContent struct {
	StickerID string `json:"sticker_id"`
	SetID     string `json:"set_id,omitempty"`
}

func (StickerContent) Kind() Type { return TypeSticker }

func (c StickerContent) validate(v *infrastructure.ValidationError) {
	if c.StickerID == "" {
		v.Add("sticker id is required")
	}
}

// SystemContent is the only variant where an empty payload is legal.
type SystemContent struct {
	Event string `json:"event,omitempty"`
}

func (SystemContent) Kind() Type { return TypeSystem }

func (SystemContent) validate(*infrastructure.ValidationError) {}

// ValidateContent runs the type-specific shape checks and reports every
// violation at once.
func ValidateContent(c Content) error {
	if c == nil {
		v := infrastructure.NewValidationError("message")
		v.Add("content is required")
		return v.Err()
	}
	v := infrastructure.NewValidationError("message")
	c.validate(v)
	return v.Err()
}

// ParseContent decodes an untyped JSON payload into the variant matching the
// message type. This is the only place raw content maps are accepted.
func ParseContent(t Type, data []byte) (Content, error) {
	if len(data) == 0 {
		if t == TypeSystem {
			return SystemContent{}, nil
		}
		v := infrastructure.NewValidationError("message")
		v.Add("content is required for message type: %s", t)
		return nil, v.Err()
	}

	var c Content
	switch t {
	case TypeText:
		c = &TextContent{}
	case TypeVoice:
		c = &VoiceContent{}
	case TypeFile:
		c = &FileContent{}
	case TypeImage:
		c = &ImageContent{}
	case TypeVideo:
		c = &VideoContent{}
	case TypePayment:
		c = &PaymentContent{}
	case TypeLocation:
		c = &LocationContent{}
	case TypeSticker:
		c = &StickerContent{}
	case TypeSystem:
		c = &SystemContent{}
	default:
		v := infrastructure.NewValidationError("message")
		v.Add("invalid message type: %s", t)
		return nil, v.Err()
	}

	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to decode %s content: %w", t, err)
	}
	return deref(c), nil
}

// deref flattens the pointer used for unmarshalling back to the value form
// the rest of the package works with.
func deref(c Content) Content {
	switch v := c.(type) {
	case *TextContent:
		return *v
	case *VoiceContent:
		return *v
	case *FileContent:
		return *v
	case *ImageContent:
		return *v
	case *VideoContent:
		return *v
	case *PaymentContent:
		return *v
	case *LocationContent:
		return *v
	case *StickerContent:
		return *v
	case *SystemContent:
		return *v
	}
	return c
}

// EncodeContent is the storage/wire counterpart of ParseContent.
func EncodeContent(c Content) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}
