package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"personapi/internal/model"
)

type MockPersonRepository struct {
	mock.Mock
}

func (m *MockPersonRepository) Insert(ctx context.Context, p *model.Person) (*model.Person, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Person), args.Error(1)
}

func (m *MockPersonRepository) FindByID(ctx context.Context, id int64) (*model.Person, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Person), args.Error(1)
}

func (m *MockPersonRepository) FindByEmail(ctx context.Context, email string, excludeID int64) (*model.Person, error) {
	args := m.Called(ctx, email, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Person), args.Error(1)
}

func (m *MockPersonRepository) FindAllByName(ctx context.Context, name string) ([]model.Person, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Person), args.Error(1)
}

func (m *MockPersonRepository) ListAll(ctx context.Context) ([]model.Person, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Person), args.Error(1)
}

func (m *MockPersonRepository) Update(ctx context.Context, id int64, p *model.Person) (*model.Person, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Person), args.Error(1)
}

func (m *MockPersonRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
