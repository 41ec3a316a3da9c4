package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quiz-competition-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// ParticipantRepository persists participants keyed by matriculation number.
// CreateParticipant must return domain.ErrParticipantExists on a uniqueness violation.
type ParticipantRepository interface {
	GetParticipantByMatric(ctx context.Context, matric string) (domain.Participant, error)
	CreateParticipant(ctx context.Context, participant *domain.Participant) error
	SetParticipantDepartment(ctx context.Context, participantID int64, departmentID *int64) error
}

// ParticipantDirectory implements get-or-create for participants.
type ParticipantDirectory struct {
	repo ParticipantRepository
	sf   singleflight.Group
}

func NewParticipantDirectory(repo ParticipantRepository) *ParticipantDirectory {
	return &ParticipantDirectory{repo: repo}
}

// NormalizeMatric trims and upper-cases a matriculation number.
func NormalizeMatric(matric string) string {
	return strings.ToUpper(strings.TrimSpace(matric))
}

// Upsert returns the participant with the given matric, creating it with name
// and departmentID when absent. An existing participant is returned unchanged.
func (d *ParticipantDirectory) Upsert(ctx context.Context, matric, name string, departmentID *int64) (domain.Participant, error) {
	matric = NormalizeMatric(matric)

	// Identical in-process requests share one round trip.
	result, err, _ := d.sf.Do(matric, func() (interface{}, error) {
		return d.getOrCreate(ctx, matric, name, departmentID)
	})
	if err != nil {
		return domain.Participant{}, err
	}
	return result.(domain.Participant), nil
}

func (d *ParticipantDirectory) getOrCreate(ctx context.Context, matric, name string, departmentID *int64) (domain.Participant, error) {
	existing, err := d.repo.GetParticipantByMatric(ctx, matric)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrParticipantNotFound) {
		return domain.Participant{}, fmt.Errorf("lookup participant: %w", err)
	}

	participant := domain.Participant{Matric: matric, Name: name, DepartmentID: departmentID}
	err = d.repo.CreateParticipant(ctx, &participant)
	if err == nil {
		return participant, nil
	}
	if !errors.Is(err, domain.ErrParticipantExists) {
		return domain.Participant{}, fmt.Errorf("create participant: %w", err)
	}

	// Lost a race with another writer; the row exists now.
	existing, err = d.repo.GetParticipantByMatric(ctx, matric)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("%w: participant %s: %v", domain.ErrConflict, matric, err)
	}
	return existing, nil
}

// Reassign points a participant at a new department.
func (d *ParticipantDirectory) Reassign(ctx context.Context, participant *domain.Participant, departmentID int64) error {
	if participant.DepartmentID != nil && *participant.DepartmentID == departmentID {
		return nil
	}
	if err := d.repo.SetParticipantDepartment(ctx, participant.ID, &departmentID); err != nil {
		return fmt.Errorf("reassign department: %w", err)
	}
	participant.DepartmentID = &departmentID
	return nil
}
