package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"personapi/internal/apperr"
	"personapi/internal/model"
	"personapi/internal/repository"
	"personapi/internal/validation"
)

// MsgEmailInUse is the conflict message returned when an email is already held by another person.
const MsgEmailInUse = "Email already in use"

var tracer = otel.Tracer("personapi/service")

// PersonService defines the use cases for handling persons.
// NotFound is reported through the bool results, never as an error.
type PersonService interface {
	// CreatePerson validates p, stamps CreatedAt and inserts it. Any ID on p is ignored.
	CreatePerson(ctx context.Context, p model.Person) (*model.Person, error)

	// GetAllPersons returns every person ordered by id.
	GetAllPersons(ctx context.Context) ([]model.Person, error)

	// GetPersonByID returns false when no person has the id.
	GetPersonByID(ctx context.Context, id int64) (*model.Person, bool, error)

	// GetPersonsByName returns an empty slice when nobody matches.
	GetPersonsByName(ctx context.Context, name string) ([]model.Person, error)

	// UpdatePerson replaces name, age, email and phone of the person with the given id
	// and stamps UpdatedAt. Returns false when the id is absent.
	UpdatePerson(ctx context.Context, id int64, p model.Person) (*model.Person, bool, error)

	// DeletePerson removes the person and returns false when the id is absent.
	DeletePerson(ctx context.Context, id int64) (bool, error)
}

// Option configures a personService.
type Option func(*personService)

// WithClock replaces time.Now as the source of CreatedAt and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *personService) { s.now = now }
}

type personService struct {
	repo     repository.PersonRepository
	validate *validation.Validator
	now      func() time.Time
}

// NewPersonService constructs a new PersonService.
func NewPersonService(repo repository.PersonRepository, v *validation.Validator, opts ...Option) PersonService {
	s := &personService{repo: repo, validate: v, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *personService) CreatePerson(ctx context.Context, p model.Person) (_ *model.Person, err error) {
	ctx, span := tracer.Start(ctx, "PersonService.CreatePerson")
	defer func() { endSpan(span, err) }()

	normalize(&p)
	if err := s.validate.Struct(p); err != nil {
		return nil, err
	}

	p.ID = 0
	p.CreatedAt = s.now().UTC()
	p.UpdatedAt = nil

	stored, err := s.repo.Insert(ctx, &p)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperr.NewDuplicate(MsgEmailInUse)
		}
		return nil, fmt.Errorf("insert person: %w", err)
	}
	span.SetAttributes(attribute.Int64("person.id", stored.ID))
	return stored, nil
}

func (s *personService) GetAllPersons(ctx context.Context) (_ []model.Person, err error) {
	ctx, span := tracer.Start(ctx, "PersonService.GetAllPersons")
	defer func() { endSpan(span, err) }()

	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	return items, nil
}

func (s *personService) GetPersonByID(ctx context.Context, id int64) (_ *model.Person, _ bool, err error) {
	ctx, span := tracer.Start(ctx, "PersonService.GetPersonByID", trace.WithAttributes(attribute.Int64("person.id", id)))
	defer func() { endSpan(span, err) }()

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("find person %d: %w", id, err)
	}
	return p, true, nil
}

func (s *personService) GetPersonsByName(ctx context.Context, name string) (_ []model.Person, err error) {
	ctx, span := tracer.Start(ctx, "PersonService.GetPersonsByName")
	defer func() { endSpan(span, err) }()

	items, err := s.repo.FindAllByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find persons by name: %w", err)
	}
	span.SetAttributes(attribute.Int("person.matches", len(items)))
	return items, nil
}

func (s *personService) UpdatePerson(ctx context.Context, id int64, p model.Person) (_ *model.Person, _ bool, err error) {
	ctx, span := tracer.Start(ctx, "PersonService.UpdatePerson", trace.WithAttributes(attribute.Int64("person.id", id)))
	defer func() { endSpan(span, err) }()

	normalize(&p)
	if err := s.validate.Struct(p); err != nil {
		return nil, false, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("find person %d: %w", id, err)
	}

	// Early rejection only; the store's unique constraint catches concurrent writers.
	_, err = s.repo.FindByEmail(ctx, p.Email, id)
	switch {
	case err == nil:
		return nil, false, apperr.NewDuplicate(MsgEmailInUse)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, fmt.Errorf("check email: %w", err)
	}

	now := s.now().UTC()
	existing.Name = p.Name
	existing.Age = p.Age
	existing.Email = p.Email
	existing.Phone = p.Phone
	existing.UpdatedAt = &now

	updated, err := s.repo.Update(ctx, id, existing)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, false, apperr.NewDuplicate(MsgEmailInUse)
		case errors.Is(err, repository.ErrNotFound):
			// deleted between lookup and write
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("update person %d: %w", id, err)
	}
	return updated, true, nil
}

func (s *personService) DeletePerson(ctx context.Context, id int64) (_ bool, err error) {
	ctx, span := tracer.Start(ctx, "PersonService.DeletePerson", trace.WithAttributes(attribute.Int64("person.id", id)))
	defer func() { endSpan(span, err) }()

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("find person %d: %w", id, err)
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete person %d: %w", id, err)
	}
	return deleted, nil
}

// normalize trims the text fields and treats an empty phone as absent.
func normalize(p *model.Person) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	if p.Phone != nil {
		phone := strings.TrimSpace(*p.Phone)
		if phone == "" {
			p.Phone = nil
		} else {
			p.Phone = &phone
		}
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
