package model

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const (
	subscriberEmailMaxLength = 320
	subscriberNameMaxLength  = 200
)

var (
	ErrInvalidSubscriberListID  = errors.New("invalid_subscriber_list_id")
	ErrInvalidSubscriberEmail   = errors.New("invalid_subscriber_email")
	ErrInvalidSubscriberContact = errors.New("invalid_subscriber_contact")
)

// Subscriber is a single member of a mailing list.
type Subscriber struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	ListID    string    `json:"list_id,omitempty" gorm:"not null;size:36;uniqueIndex:idx_subscribers_list_email"`
	Name      string    `json:"name" gorm:"size:200"`
	Email     string    `json:"email" gorm:"not null;size:320;uniqueIndex:idx_subscribers_list_email"`
	CreatedAt time.Time `json:"-" gorm:"autoCreateTime"`
}

// SubscriberInput holds the raw values used to construct a Subscriber.
type SubscriberInput struct {
	ListID string
	Email  string
	Name   string
}

// NewSubscriber constructs a Subscriber with validated, normalized fields.
func NewSubscriber(input SubscriberInput) (Subscriber, error) {
	listID := strings.TrimSpace(input.ListID)
	if listID == "" {
		return Subscriber{}, ErrInvalidSubscriberListID
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateSubscriberEmail(email); err != nil {
		return Subscriber{}, err
	}

	name := strings.TrimSpace(input.Name)
	if len(name) > subscriberNameMaxLength {
		return Subscriber{}, fmt.Errorf("%w: name too long", ErrInvalidSubscriberContact)
	}

	return Subscriber{
		ID:     NewID(),
		ListID: listID,
		Email:  email,
		Name:   name,
	}, nil
}

func validateSubscriberEmail(email string) error {
	if email == "" || len(email) > subscriberEmailMaxLength {
		return fmt.Errorf("%w: empty or too long", ErrInvalidSubscriberEmail)
	}
	_, parseErr := mail.ParseAddress(email)
	if parseErr != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSubscriberEmail, parseErr)
	}
	return nil
}
