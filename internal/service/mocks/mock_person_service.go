package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"personapi/internal/model"
)

type MockPersonService struct {
	mock.Mock
}

func (m *MockPersonService) CreatePerson(ctx context.Context, p model.Person) (*model.Person, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Person), args.Error(1)
}

func (m *MockPersonService) GetAllPersons(ctx context.Context) ([]model.Person, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Person), args.Error(1)
}

func (m *MockPersonService) GetPersonByID(ctx context.Context, id int64) (*model.Person, bool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Person), args.Bool(1), args.Error(2)
}

func (m *MockPersonService) GetPersonsByName(ctx context.Context, name string) ([]model.Person, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Person), args.Error(1)
}

func (m *MockPersonService) UpdatePerson(ctx context.Context, id int64, p model.Person) (*model.Person, bool, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Person), args.Bool(1), args.Error(2)
}

func (m *MockPersonService) DeletePerson(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
