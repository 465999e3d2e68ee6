package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextsEnglishDefault(t *testing.T) {
	texts := NewTexts("")
	assert.Equal(t, "Could not load data", texts.Get(MsgDataReceivedError))
	assert.Equal(t, "Error", texts.Get(MsgError))
}

func TestTextsGerman(t *testing.T) {
	texts := NewTexts("de-DE")
	assert.Equal(t, "Daten konnten nicht geladen werden", texts.Get(MsgDataReceivedError))
}

func TestTextsUnknownLanguageFallsBack(t *testing.T) {
	texts := NewTexts("not a tag")
	assert.Equal(t, "Error", texts.Get(MsgError))
}

func TestTextsUnknownMessage(t *testing.T) {
	assert.Equal(t, "NoSuchMessage", NewTexts("en").Get("NoSuchMessage"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", ParseLevel("Debug").String())
	assert.Equal(t, "WARN", ParseLevel("warning").String())
	assert.Equal(t, "INFO", ParseLevel("bogus").String())
}
