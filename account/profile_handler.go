package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/signals"
	"github.com/xraph/signals/id"
	"github.com/xraph/signals/signal"
)

var _ signal.Handler = (*ProfileHandler)(nil)

// ProfileHandler creates a profile for every newly created user. Register
// it for post_save on SourceUser.
type ProfileHandler struct {
	store  Store
	logger *slog.Logger
}

// NewProfileHandler creates a profile handler writing through store.
func NewProfileHandler(store Store, logger *slog.Logger) *ProfileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileHandler{store: store, logger: logger}
}

// Name implements the optional handler naming interface.
func (h *ProfileHandler) Name() string { return "account.create-profile" }

// Handle implements signal.Handler. Updates and raw loads are ignored.
func (h *ProfileHandler) Handle(ctx context.Context, e *signal.Event) error {
	if !e.Meta.Created || e.Meta.Raw {
		return nil
	}
	u, ok := e.Payload.(*User)
	if !ok {
		return fmt.Errorf("account: unexpected payload %T for %s", e.Payload, e.Key())
	}

	st := h.store
	if e.Scope != nil {
		st = st.WithScope(e.Scope)
	}

	p := &Profile{
		Entity: signals.NewEntity(),
		ID:     id.NewProfileID(),
		UserID: u.ID,
	}
	if err := st.CreateProfile(ctx, p); err != nil {
		return err
	}

	h.logger.Debug("profile created",
		slog.String("user_id", u.ID.String()),
		slog.String("profile_id", p.ID.String()),
	)
	return nil
}
