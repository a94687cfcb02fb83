package account_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/signals"
	"github.com/xraph/signals/account"
	"github.com/xraph/signals/id"
	"github.com/xraph/signals/signal"
	"github.com/xraph/signals/store/memory"
)

func seedUser(t *testing.T, st *memory.Store, username string) *account.User {
	t.Helper()
	u := &account.User{Entity: signals.NewEntity(), ID: id.NewUserID(), Username: username}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func TestProfileHandler(t *testing.T) {
	tests := []struct {
		name        string
		meta        signal.Metadata
		wantProfile bool
	}{
		{"created", signal.Metadata{Created: true}, true},
		{"updated", signal.Metadata{}, false},
		{"raw load", signal.Metadata{Created: true, Raw: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := memory.New()
			u := seedUser(t, st, "erin")
			h := account.NewProfileHandler(st, nil)

			err := h.Handle(context.Background(), &signal.Event{
				Kind:    signal.PostSave,
				Source:  account.SourceUser,
				Payload: u,
				Meta:    tt.meta,
			})
			require.NoError(t, err)

			exists, err := st.ProfileExists(context.Background(), "erin")
			require.NoError(t, err)
			assert.Equal(t, tt.wantProfile, exists)
		})
	}
}

func TestProfileHandler_UnexpectedPayload(t *testing.T) {
	h := account.NewProfileHandler(memory.New(), nil)
	err := h.Handle(context.Background(), &signal.Event{
		Kind:    signal.PostSave,
		Source:  account.SourceUser,
		Payload: "not a user",
		Meta:    signal.Metadata{Created: true},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected payload string")
}

func TestProfileHandler_SecondProfileFails(t *testing.T) {
	st := memory.New()
	u := seedUser(t, st, "frank")
	h := account.NewProfileHandler(st, nil)
	e := &signal.Event{Payload: u, Meta: signal.Metadata{Created: true}}

	require.NoError(t, h.Handle(context.Background(), e))
	assert.ErrorIs(t, h.Handle(context.Background(), e), signals.ErrProfileAlreadyExists)
}

func TestProfileHandler_Name(t *testing.T) {
	h := account.NewProfileHandler(memory.New(), nil)
	assert.Equal(t, "account.create-profile", signal.HandlerName(h))
}
