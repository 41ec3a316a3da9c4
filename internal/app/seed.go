package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"quiz-competition-service/internal/domain"

	"gopkg.in/yaml.v3"
)

// CatalogWriter creates departments and questions.
type CatalogWriter interface {
	// EnsureDepartment returns the department with name, creating it if needed.
	EnsureDepartment(ctx context.Context, name string) (domain.Department, error)
	CreateQuestion(ctx context.Context, question *domain.Question) error
}

// QuestionBank is the YAML document accepted by the seeder.
type QuestionBank struct {
	Departments []string       `yaml:"departments"`
	Questions   []BankQuestion `yaml:"questions"`
}

// BankQuestion is one question of a bank file. Type defaults to GEN.
type BankQuestion struct {
	Text       string   `yaml:"text"`
	Options    []string `yaml:"options"`
	Answer     string   `yaml:"answer"`
	Department string   `yaml:"department"`
	Type       string   `yaml:"type"`
}

// LoadQuestionBank decodes a bank file, rejecting unknown keys.
func LoadQuestionBank(r io.Reader) (QuestionBank, error) {
	var bank QuestionBank
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&bank); err != nil && !errors.Is(err, io.EOF) {
		return QuestionBank{}, fmt.Errorf("decode question bank: %w", err)
	}
	return bank, nil
}

// SeedReport counts what a seed run wrote.
type SeedReport struct {
	Departments int
	Questions   int
}

type Seeder struct {
	catalog CatalogWriter
}

func NewSeeder(catalog CatalogWriter) *Seeder {
	return &Seeder{catalog: catalog}
}

// Seed validates every question of the bank before writing anything, then
// creates departments and appends the questions.
func (s *Seeder) Seed(ctx context.Context, bank QuestionBank) (SeedReport, error) {
	questions := make([]domain.Question, 0, len(bank.Questions))
	for i, bq := range bank.Questions {
		q, err := bq.toDomain()
		if err != nil {
			return SeedReport{}, fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, q)
	}

	departments := make(map[string]domain.Department)
	ensure := func(name string) (domain.Department, error) {
		if d, ok := departments[name]; ok {
			return d, nil
		}
		d, err := s.catalog.EnsureDepartment(ctx, name)
		if err != nil {
			return domain.Department{}, fmt.Errorf("department %q: %w", name, err)
		}
		departments[name] = d
		return d, nil
	}

	for _, name := range bank.Departments {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		if _, err := ensure(name); err != nil {
			return SeedReport{}, err
		}
	}

	report := SeedReport{}
	for i := range questions {
		q := &questions[i]
		if q.Department != "" {
			d, err := ensure(q.Department)
			if err != nil {
				return report, err
			}
			q.DepartmentID = &d.ID
		}
		if err := s.catalog.CreateQuestion(ctx, q); err != nil {
			return report, fmt.Errorf("question %d: %w", i+1, err)
		}
		report.Questions++
	}
	report.Departments = len(departments)
	return report, nil
}

func (bq BankQuestion) toDomain() (domain.Question, error) {
	if len(bq.Options) != domain.OptionCount {
		return domain.Question{}, fmt.Errorf("%w: expected %d options, got %d", domain.ErrInvalidQuestion, domain.OptionCount, len(bq.Options))
	}
	typ := domain.QuestionType(strings.ToUpper(strings.TrimSpace(bq.Type)))
	if typ == "" {
		typ = domain.QuestionTypeGeneral
	}
	q := domain.Question{
		Text:       strings.TrimSpace(bq.Text),
		Answer:     bq.Answer,
		Department: strings.TrimSpace(bq.Department),
		Type:       typ,
	}
	copy(q.Options[:], bq.Options)
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}
