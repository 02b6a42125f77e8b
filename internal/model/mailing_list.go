package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const mailingListNameMaxLength = 200

var ErrInvalidMailingListName = errors.New("invalid_mailing_list_name")

// NewID generates the identifier assigned to new entities.
func NewID() string {
	return uuid.NewString()
}

// MailingList is a named collection of subscribers.
type MailingList struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"not null;size:200"`
	CreatedAt time.Time `json:"-" gorm:"autoCreateTime"`
}

// NewMailingList constructs a MailingList with a generated identifier.
func NewMailingList(name string) (MailingList, error) {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return MailingList{}, ErrInvalidMailingListName
	}
	if len(trimmedName) > mailingListNameMaxLength {
		return MailingList{}, fmt.Errorf("%w: too long", ErrInvalidMailingListName)
	}
	return MailingList{ID: NewID(), Name: trimmedName}, nil
}
