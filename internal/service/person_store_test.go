package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personapi/internal/apperr"
	"personapi/internal/model"
	"personapi/internal/repository/memory"
	"personapi/internal/validation"
)

// steppingClock advances by one second on every call.
func steppingClock(start time.Time) Option {
	var mu sync.Mutex
	cur := start
	return WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	})
}

func newStoreBacked() PersonService {
	return NewPersonService(memory.NewPersonStore(), validation.New(), steppingClock(t0))
}

func TestPersonService_Scenario(t *testing.T) {
	ctx := context.Background()
	svc := newStoreBacked()

	ana, err := svc.CreatePerson(ctx, model.Person{Name: "Ana", Age: 30, Email: "ana@x.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), ana.ID)
	assert.False(t, ana.CreatedAt.IsZero())
	assert.Nil(t, ana.UpdatedAt)

	_, err = svc.CreatePerson(ctx, model.Person{Name: "Bea", Age: 22, Email: "ana@x.com"})
	require.Error(t, err)
	assert.Equal(t, apperr.Duplicate, apperr.KindOf(err))
	assert.Equal(t, "Email already in use", apperr.MessageOf(err))

	updated, found, err := svc.UpdatePerson(ctx, ana.ID, model.Person{Name: "Ana B.", Age: 31, Email: "ana@x.com"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Ana B.", updated.Name)
	assert.Equal(t, 31, updated.Age)
	require.NotNil(t, updated.UpdatedAt)
	assert.True(t, updated.UpdatedAt.After(ana.CreatedAt))
	assert.Equal(t, ana.CreatedAt, updated.CreatedAt)
}

func TestPersonService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newStoreBacked()
	phone := "+1 555 0100"

	created, err := svc.CreatePerson(ctx, model.Person{ID: 500, Name: "Cid", Age: 40, Email: "cid@x.com", Phone: &phone})
	require.NoError(t, err)
	assert.NotEqual(t, int64(500), created.ID)

	got, found, err := svc.GetPersonByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created, got)
}

func TestPersonService_UpdateCollisionLeavesOriginal(t *testing.T) {
	ctx := context.Background()
	svc := newStoreBacked()

	_, err := svc.CreatePerson(ctx, model.Person{Name: "Ana", Age: 30, Email: "ana@x.com"})
	require.NoError(t, err)
	bea, err := svc.CreatePerson(ctx, model.Person{Name: "Bea", Age: 22, Email: "bea@x.com"})
	require.NoError(t, err)

	_, _, err = svc.UpdatePerson(ctx, bea.ID, model.Person{Name: "Bea", Age: 23, Email: "ana@x.com"})
	assert.Equal(t, apperr.Duplicate, apperr.KindOf(err))

	got, _, err := svc.GetPersonByID(ctx, bea.ID)
	require.NoError(t, err)
	assert.Equal(t, bea, got)
}

func TestPersonService_NotFoundSignals(t *testing.T) {
	ctx := context.Background()
	svc := newStoreBacked()

	_, found, err := svc.GetPersonByID(ctx, 42)
	assert.NoError(t, err)
	assert.False(t, found)

	_, found, err = svc.UpdatePerson(ctx, 42, model.Person{Name: "X", Age: 1, Email: "x@x.com"})
	assert.NoError(t, err)
	assert.False(t, found)

	p, err := svc.CreatePerson(ctx, model.Person{Name: "Ana", Age: 30, Email: "ana@x.com"})
	require.NoError(t, err)

	ok, err := svc.DeletePerson(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.DeletePerson(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, found, err = svc.GetPersonByID(ctx, p.ID)
	assert.NoError(t, err)
	assert.False(t, found)

	none, err := svc.GetPersonsByName(ctx, "NoSuchName")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPersonService_ConcurrentCreatesSameEmail(t *testing.T) {
	ctx := context.Background()
	svc := newStoreBacked()

	const callers = 16
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreatePerson(ctx, model.Person{Name: fmt.Sprintf("p%d", i), Age: 20, Email: "same@x.com"})
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.KindOf(err) == apperr.Duplicate:
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, dup)
}
