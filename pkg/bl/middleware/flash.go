package middleware

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

// FlashCookieName is the name of the transient notification cookie.
const FlashCookieName = "flash"

// Flash is a one-shot notification carried across a redirect.
// It is consumed (and its cookie cleared) on the next page render.
type Flash struct {
	Level   string `json:"level"` // "success", "error" or "warning"
	Title   string `json:"title"`
	Message string `json:"message"`
}

// IsError returns true for error-level notifications.
func (f *Flash) IsError() bool {
	return f != nil && f.Level == "error"
}

// SetFlash stores a notification in the flash cookie.
func SetFlash(w http.ResponseWriter, level, title, message string) {
	payload, err := json.Marshal(Flash{Level: level, Title: title, Message: message})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(payload),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash reads the pending notification, if any, and clears the cookie.
func PopFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	payload, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}

	var f Flash
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil
	}
	return &f
}
