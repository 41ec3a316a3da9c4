package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quiz-competition-service/internal/domain"
	"quiz-competition-service/internal/validation"
)

// ContactRepository stores contact form messages.
type ContactRepository interface {
	CreateContactMessage(ctx context.Context, msg *domain.ContactMessage) error
}

// ContactInput is the public contact form.
type ContactInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Message string `json:"message" validate:"required,max=5000"`
}

type ContactService struct {
	repo ContactRepository
	now  func() time.Time
}

func NewContactService(repo ContactRepository) *ContactService {
	return &ContactService{repo: repo, now: time.Now}
}

// Submit stores a contact message after trimming and validating every field.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (domain.ContactMessage, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Message = strings.TrimSpace(in.Message)
	if err := validation.Struct(in, "All fields are required."); err != nil {
		return domain.ContactMessage{}, err
	}

	msg := domain.ContactMessage{
		Name:        in.Name,
		Email:       in.Email,
		Message:     in.Message,
		SubmittedAt: s.now(),
	}
	if err := s.repo.CreateContactMessage(ctx, &msg); err != nil {
		return domain.ContactMessage{}, fmt.Errorf("store contact message: %w", err)
	}
	return msg, nil
}
