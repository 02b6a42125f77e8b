package httpapi

import (
	"encoding/gob"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	FlashKindSuccess = "success"
	FlashKindError   = "error"

	flashSessionName       = "mailadmin_flash"
	flashSessionKey        = "flash"
	flashCookieMaxAge      = 600
	minimumSessionSecret   = 32
	logEventSaveFlash      = "save_flash"
	logEventLoadFlash      = "load_flash"
	errorMessageSecretSize = "flash: session secret must be at least 32 bytes"
)

// ErrSessionSecretTooShort indicates a cookie secret too weak for signing.
var ErrSessionSecretTooShort = errors.New(errorMessageSecretSize)

// Flash is a one-shot notification carried across a redirect.
type Flash struct {
	Kind  string
	Title string
	Text  string
}

func init() {
	gob.Register(Flash{})
}

// FlashMessages stores flashes in a signed cookie session.
type FlashMessages struct {
	store  sessions.Store
	logger *zap.Logger
}

func NewFlashMessages(sessionSecret string, secureCookies bool, logger *zap.Logger) (*FlashMessages, error) {
	if len(strings.TrimSpace(sessionSecret)) < minimumSessionSecret {
		return nil, ErrSessionSecretTooShort
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cookieStore := sessions.NewCookieStore([]byte(sessionSecret))
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   flashCookieMaxAge,
		HttpOnly: true,
		Secure:   secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	return &FlashMessages{store: cookieStore, logger: logger}, nil
}

// Add queues flash for the next page rendered for this client.
func (flashes *FlashMessages) Add(context *gin.Context, flash Flash) {
	session, sessionErr := flashes.store.Get(context.Request, flashSessionName)
	if sessionErr != nil {
		// A stale or foreign cookie yields a fresh session alongside the error.
		flashes.logger.Debug(logEventLoadFlash, zap.Error(sessionErr))
	}
	session.AddFlash(flash, flashSessionKey)
	if saveErr := session.Save(context.Request, context.Writer); saveErr != nil {
		flashes.logger.Warn(logEventSaveFlash, zap.Error(saveErr))
	}
}

// Pop returns and clears the queued flashes.
func (flashes *FlashMessages) Pop(context *gin.Context) []Flash {
	session, sessionErr := flashes.store.Get(context.Request, flashSessionName)
	if sessionErr != nil {
		flashes.logger.Debug(logEventLoadFlash, zap.Error(sessionErr))
		return nil
	}
	storedFlashes := session.Flashes(flashSessionKey)
	if len(storedFlashes) == 0 {
		return nil
	}
	if saveErr := session.Save(context.Request, context.Writer); saveErr != nil {
		flashes.logger.Warn(logEventSaveFlash, zap.Error(saveErr))
	}
	result := make([]Flash, 0, len(storedFlashes))
	for _, storedFlash := range storedFlashes {
		if flash, ok := storedFlash.(Flash); ok {
			result = append(result, flash)
		}
	}
	return result
}

// Notifier binds the store to one request so the subscriber table can report
// delete outcomes as flashes.
func (flashes *FlashMessages) Notifier(context *gin.Context) FlashNotifier {
	return FlashNotifier{flashes: flashes, context: context}
}

type FlashNotifier struct {
	flashes *FlashMessages
	context *gin.Context
}

func (notifier FlashNotifier) Success(title string, text string) {
	notifier.flashes.Add(notifier.context, Flash{Kind: FlashKindSuccess, Title: title, Text: text})
}

func (notifier FlashNotifier) Error(title string, text string) {
	notifier.flashes.Add(notifier.context, Flash{Kind: FlashKindError, Title: title, Text: text})
}
