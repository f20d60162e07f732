package note

import (
	"strings"

	internal "github.com/caredesk/case-management/internal"
)

type CreateNoteDTO struct {
	Content string `json:"content"`
}

func (d CreateNoteDTO) Validate() *internal.AppError {
	if strings.TrimSpace(d.Content) == "" {
		return internal.NewValidationError("content must not be blank", internal.ErrCodeValidationFailed)
	}
	return nil
}

type UpdateNoteDTO struct {
	Content string `json:"content"`
}

func (d UpdateNoteDTO) Validate() *internal.AppError {
	if strings.TrimSpace(d.Content) == "" {
		return internal.NewValidationError("content must not be blank", internal.ErrCodeValidationFailed)
	}
	return nil
}
