package effects

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/port"
	"github.com/ties-together/marketplace-backend/internal/testutil/memrepo"
)

type recorder struct {
	mu  sync.Mutex
	ops map[string]error
}

func (r *recorder) ObserveEffect(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[op] = err
}

type mailerFunc func(ctx context.Context, msg port.EmailMessage) error

func (f mailerFunc) Send(ctx context.Context, msg port.EmailMessage) error { return f(ctx, msg) }

func TestNilEffectsAreNoOps(t *testing.T) {
	var e *Effects
	res := <-e.Notify(context.Background(), port.Notification{Type: "x"})
	assert.NoError(t, res.Err)
	res = <-e.Email(context.Background(), uuid.New(), "s", "t", nil)
	assert.NoError(t, res.Err)
	res = <-e.InvalidateFeed(context.Background(), uuid.New())
	assert.NoError(t, res.Err)
}

func TestEmailResolvesRecipient(t *testing.T) {
	store := memrepo.New()
	user := uuid.New()
	store.AddProfile(entity.Profile{ID: user, DisplayName: "Sam", Email: "sam@example.com"})

	var sent port.EmailMessage
	obs := &recorder{ops: map[string]error{}}
	e := &Effects{
		Mailer: mailerFunc(func(_ context.Context, msg port.EmailMessage) error {
			sent = msg
			return nil
		}),
		Profiles: store.Profiles(),
		Observer: obs,
	}

	res := <-e.Email(context.Background(), user, "Hello", "welcome", nil)
	require.NoError(t, res.Err)
	assert.Equal(t, "sam@example.com", sent.To)
	assert.Equal(t, "Sam", sent.Data["name"])

	res = <-e.Email(context.Background(), uuid.New(), "Hello", "welcome", nil)
	assert.Error(t, res.Err, "unknown users have no address")

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Error(t, obs.ops["email:welcome"])
}

func TestFailuresDoNotPanic(t *testing.T) {
	e := &Effects{Mailer: mailerFunc(func(context.Context, port.EmailMessage) error {
		return errors.New("down")
	})}
	res := <-e.Email(context.Background(), uuid.New(), "s", "t", nil)
	assert.NoError(t, res.Err, "without profiles email is skipped")
}

func TestEmailLeavesCallerDataUntouched(t *testing.T) {
	store := memrepo.New()
	user := uuid.New()
	store.AddProfile(entity.Profile{ID: user, DisplayName: "Sam", Email: "sam@example.com"})

	var sent port.EmailMessage
	e := &Effects{
		Mailer: mailerFunc(func(_ context.Context, msg port.EmailMessage) error {
			sent = msg
			return nil
		}),
		Profiles: store.Profiles(),
	}

	data := map[string]any{"booking_id": "b-1"}
	res := <-e.Email(context.Background(), user, "Hello", "welcome", data)
	require.NoError(t, res.Err)

	assert.Equal(t, map[string]any{"booking_id": "b-1"}, data)
	assert.Equal(t, "b-1", sent.Data["booking_id"])
	assert.Equal(t, "Sam", sent.Data["name"])
}
