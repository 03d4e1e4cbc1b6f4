package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sync"
)

//go:embed lang/*.json
var langFS embed.FS

var (
	dictMu sync.RWMutex
	dicts  = map[string]map[string]string{}
)

// loadDictionary parses the embedded dictionary for lang, caching the result.
// A missing or malformed dictionary yields nil.
func loadDictionary(lang string) map[string]string {
	dictMu.RLock()
	dict, ok := dicts[lang]
	dictMu.RUnlock()
	if ok {
		return dict
	}

	data, err := langFS.ReadFile(path.Join("lang", lang+".json"))
	if err == nil {
		var parsed map[string]string
		if json.Unmarshal(data, &parsed) == nil {
			dict = parsed
		}
	}

	dictMu.Lock()
	dicts[lang] = dict
	dictMu.Unlock()
	return dict
}

// Translator maps message keys to localized strings for one language.
// The zero value is unusable; create instances with New. A Translator is
// read-only after construction and safe for concurrent use.
type Translator struct {
	translations map[string]string
}

// New creates a Translator for the requested language. If no dictionary
// exists for it, the fallback language's dictionary is used instead; if
// neither exists, the mapping is empty and Get echoes keys back.
func New(language, fallbackLanguage string) *Translator {
	dict := loadDictionary(language)
	if dict == nil {
		dict = loadDictionary(fallbackLanguage)
	}
	return &Translator{translations: dict}
}

// Get returns the localized message for key. Unknown keys are returned
// as-is so the caller can always produce some message. When args are given,
// the message is treated as a format string and interpolated positionally.
func (t *Translator) Get(key string, args ...interface{}) string {
	message, ok := t.translations[key]
	if !ok {
		message = key
	}

	if len(args) > 0 {
		return fmt.Sprintf(message, args...)
	}
	return message
}
