package internal

import (
	"embed"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// Message identifiers of the localized texts shown by the engine.
const (
	MsgDataReceivedError           = "DataReceivedError"
	MsgError                       = "Error"
	MsgNavigationDisabledTitle     = "NavigationDisabledTitle"
	MsgNavigationDisabledMessage   = "NavigationDisabledMessage"
	MsgTransientContextDescription = "TransientContextDescription"
	MsgCannotHandleApp             = "CannotHandleApp"
)

//go:embed locales/*.toml
var localeFS embed.FS

var (
	bundleOnce sync.Once
	bundle     *i18n.Bundle
)

func getBundle() *i18n.Bundle {
	bundleOnce.Do(func() {
		bundle = i18n.NewBundle(language.English)
		bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

		entries, err := localeFS.ReadDir("locales")
		if err != nil {
			GetInternalLogger().Error("Failed to read embedded locales", "error", err)
			return
		}
		for _, entry := range entries {
			if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+entry.Name()); err != nil {
				GetInternalLogger().Error("Failed to load locale", "file", entry.Name(), "error", err)
			}
		}
	})
	return bundle
}

// Texts resolves localized engine texts for one language.
type Texts struct {
	localizer *i18n.Localizer
}

// NewTexts creates a Texts for the given language tag. Unknown or empty tags
// fall back to English.
func NewTexts(lang string) *Texts {
	tag := language.English
	if lang != "" {
		if parsed, err := language.Parse(lang); err == nil {
			tag = parsed
		}
	}
	return &Texts{localizer: i18n.NewLocalizer(getBundle(), tag.String(), language.English.String())}
}

// Get returns the text for messageID, or messageID itself if it is unknown.
func (t *Texts) Get(messageID string) string {
	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{MessageID: messageID})
	if err != nil {
		GetInternalLogger().Debug("Missing localized text", "id", messageID, "error", err)
		return messageID
	}
	return msg
}
