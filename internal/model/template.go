package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	templateNameMaxLength    = 200
	templateContentMaxLength = 256 * 1024
)

var (
	ErrInvalidTemplateName    = errors.New("invalid_template_name")
	ErrInvalidTemplateContent = errors.New("invalid_template_content")
)

// Template is a reusable message body.
type Template struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"not null;size:200"`
	Content   string    `json:"content" gorm:"type:text"`
	CreatedAt time.Time `json:"-" gorm:"autoCreateTime"`
}

// TemplateInput is the create payload for a template. It carries exactly the
// fields the templates endpoint accepts.
type TemplateInput struct {
	Name    string `json:"name" form:"name" binding:"required"`
	Content string `json:"content" form:"content" binding:"required"`
}

// NewTemplate constructs a Template from the provided input.
func NewTemplate(input TemplateInput) (Template, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > templateNameMaxLength {
		return Template{}, fmt.Errorf("%w: empty or too long", ErrInvalidTemplateName)
	}
	if strings.TrimSpace(input.Content) == "" {
		return Template{}, fmt.Errorf("%w: empty", ErrInvalidTemplateContent)
	}
	if len(input.Content) > templateContentMaxLength {
		return Template{}, fmt.Errorf("%w: too long", ErrInvalidTemplateContent)
	}
	return Template{
		ID:      NewID(),
		Name:    name,
		Content: input.Content,
	}, nil
}
