package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sanketcencora/squadron-verify-api/pkg/config"
)

func TestExtractTagLabeled(t *testing.T) {
	svc := NewOCRService(config.OCRConfig{}, nil)

	tag, found := svc.ExtractTag(context.Background(), "Dell Latitude 5440\nService Tag: 7GHJK29\nExpress Service Code")
	assert.True(t, found)
	assert.Equal(t, "7GHJK29", tag)
}

func TestExtractTagSerialLabel(t *testing.T) {
	svc := NewOCRService(config.OCRConfig{}, nil)

	tag, found := svc.ExtractTag(context.Background(), "HP EliteBook\nSerial No: 5CD1234XYZ")
	assert.True(t, found)
	assert.Equal(t, "5CD1234XYZ", tag)
}

func TestExtractTagUnlabeledCandidate(t *testing.T) {
	svc := NewOCRService(config.OCRConfig{}, nil)

	tag, found := svc.ExtractTag(context.Background(), "asset label b7xk2q9 property of squadron")
	assert.True(t, found)
	assert.Equal(t, "B7XK2Q9", tag)
}

func TestExtractTagSkipsCommonWords(t *testing.T) {
	svc := NewOCRService(config.OCRConfig{}, nil)

	_, found := svc.ExtractTag(context.Background(), "MODEL SERIAL SERVICE PRODUCT WINDOWS VERSION")
	assert.False(t, found)
}

func TestExtractTagRequiresDigit(t *testing.T) {
	svc := NewOCRService(config.OCRConfig{}, nil)

	_, found := svc.ExtractTag(context.Background(), "LAPTOPS BATTERY WARRANTY")
	assert.False(t, found)
}

func TestExtractTagEmptyText(t *testing.T) {
	svc := NewOCRService(config.OCRConfig{}, nil)

	_, found := svc.ExtractTag(context.Background(), "")
	assert.False(t, found)
}
