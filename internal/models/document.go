package models

import (
	"fmt"
	"strings"
	"time"
)

// TranslatedDocument is the result of a successful translation call. It
// is the source object for summary, insights and chat requests until a
// new upload replaces it.
type TranslatedDocument struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	SourceName string    `json:"sourceName"`
	Filename   string    `json:"filename"`
	Size       string    `json:"size"`
	SizeBytes  int64     `json:"sizeBytes"`
	Pages      int       `json:"pages,omitempty"`
	StorageKey string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TranslatedName derives the display filename for a translated document
// by tagging the source name with the target language.
func TranslatedName(source, langTag string) string {
	ext := ".pdf"
	base := strings.TrimSuffix(source, ext)
	return base + "_" + langTag + ext
}

// HumanSize renders a byte count the way the client displays it.
func HumanSize(bytes int64) string {
	return fmt.Sprintf("%.2f MB", float64(bytes)/1024/1024)
}
