package ticket

import (
	"github.com/go-playground/validator/v10"
)

// Limits enforced on new tickets and listings.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 1000
	MaxPageSize          = 100
)

var validate = validator.New()

// CreateInput is the input of CreateTicket. Lengths count characters, not bytes.
type CreateInput struct {
	Title       string `json:"title" validate:"min=1,max=255"`
	Description string `json:"description" validate:"min=1,max=1000"`
}

// Validate checks the length constraints.
func (in CreateInput) Validate() error {
	return validate.Struct(in)
}

// PageInput is the pagination window of FindAll.
type PageInput struct {
	Offset int `json:"offset" validate:"gte=0"`
	Limit  int `json:"limit" validate:"gte=1,lte=100"`
}

// Validate checks the window bounds.
func (in PageInput) Validate() error {
	return validate.Struct(in)
}
