package collateral

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lendledger/internal/domain/collateral"
	"lendledger/internal/domain/events"
	"lendledger/internal/domain/uow"
	"lendledger/internal/domain/user"
	"lendledger/internal/domain/valuation"
	"lendledger/internal/infrastructure/metrics"
	"lendledger/internal/usecase/paging"
	"lendledger/pkg/id"
)

type Usecase struct {
	uow         uow.UnitOfWork
	users       user.Repository
	collaterals collateral.Repository
	gateway     valuation.Gateway
	policy      valuation.Policy
	images      collateral.ImageStore
	publisher   events.Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

type Option func(*Usecase)

func WithPolicy(p valuation.Policy) Option          { return func(u *Usecase) { u.policy = p } }
func WithImageStore(s collateral.ImageStore) Option { return func(u *Usecase) { u.images = s } }
func WithPublisher(p events.Publisher) Option       { return func(u *Usecase) { u.publisher = p } }
func WithMetrics(m *metrics.Metrics) Option         { return func(u *Usecase) { u.metrics = m } }
func WithLogger(l *slog.Logger) Option              { return func(u *Usecase) { u.logger = l } }
func WithClock(now func() time.Time) Option         { return func(u *Usecase) { u.now = now } }

func NewUsecase(w uow.UnitOfWork, users user.Repository, collaterals collateral.Repository, gw valuation.Gateway, opts ...Option) *Usecase {
	u := &Usecase{
		uow:         w,
		users:       users,
		collaterals: collaterals,
		gateway:     gw,
		policy:      valuation.DefaultPolicy(),
		publisher:   events.Nop{},
		logger:      slog.Default(),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// Submit stores a pending item and asks the valuation service for terms.
// If the service fails the item is kept pending and a *PendingError is returned.
func (u *Usecase) Submit(ctx context.Context, in SubmitInput) (*CollateralDTO, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, collateral.ErrInvalidDetails
	}
	if _, err := u.users.GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}
	images, err := u.storeImages(ctx, in.Images, in.Uploads)
	if err != nil {
		return nil, err
	}

	c := &collateral.Collateral{
		ID:              id.NewID32(),
		UserID:          in.UserID,
		Name:            name,
		Description:     strings.TrimSpace(in.Description),
		Status:          collateral.StatusPending,
		ImagePaths:      images,
		Metadata:        collateral.Metadata{Annotations: in.Annotations},
		StatusUpdatedAt: u.now(),
	}
	if err := u.collaterals.Create(ctx, c); err != nil {
		return nil, err
	}
	u.logger.InfoContext(ctx, "collateral submitted", "collateral_id", c.ID, "user_id", c.UserID, "images", len(images))
	return u.evaluate(ctx, c)
}

// Evaluate retries the valuation of a pending item.
func (u *Usecase) Evaluate(ctx context.Context, collateralID string) (*CollateralDTO, error) {
	c, err := u.collaterals.GetByID(ctx, collateralID)
	if err != nil {
		return nil, err
	}
	if c.Status != collateral.StatusPending {
		return nil, collateral.ErrInvalidTransition
	}
	return u.evaluate(ctx, c)
}

// evaluate calls the gateway outside any database transaction, then applies
// the policy decision under a row lock.
func (u *Usecase) evaluate(ctx context.Context, c *collateral.Collateral) (*CollateralDTO, error) {
	req := valuation.Request{ItemTitle: c.Name, Description: c.Description, Photos: u.photos(ctx, c.ImagePaths)}

	res, err := u.value(ctx, req)
	if err != nil {
		u.logger.ErrorContext(ctx, "valuation failed", "collateral_id", c.ID, "provider", u.gateway.Name(), "err", err)
		return nil, &PendingError{CollateralID: c.ID, Err: err}
	}

	now := u.now()
	decision := u.policy.Decide(res, now)
	snapshot := &collateral.ValuationSnapshot{
		Provider:       u.gateway.Name(),
		Success:        res.Success,
		EstimatedValue: res.EstimatedValue,
		LoanAmount:     res.LoanAmount,
		Confidence:     res.Confidence,
		Item:           res.Item,
		Decision:       "approved",
		EvaluatedAt:    now,
	}
	if !decision.Accept {
		snapshot.Decision = "rejected: " + decision.Reason
	}

	return u.transition(ctx, c.ID, decision.Reason, func(c *collateral.Collateral) error {
		if c.Status != collateral.StatusPending {
			return collateral.ErrInvalidTransition
		}
		c.Metadata.Valuation = snapshot
		if decision.Accept {
			return c.Approve(collateral.Terms{LoanLimit: decision.LoanLimit, Interest: decision.Interest, DueDate: decision.DueDate}, now)
		}
		return c.Reject(decision.Reason, now)
	})
}

// value calls the gateway; every failure comes back wrapping valuation.ErrUpstream.
func (u *Usecase) value(ctx context.Context, req valuation.Request) (*valuation.Result, error) {
	start := time.Now()
	res, err := u.gateway.Evaluate(ctx, req)
	if err != nil {
		u.metrics.ObserveValuation(u.gateway.Name(), "error", time.Since(start))
		if !errors.Is(err, valuation.ErrUpstream) {
			err = fmt.Errorf("%w: %v", valuation.ErrUpstream, err)
		}
		return nil, err
	}
	u.metrics.ObserveValuation(u.gateway.Name(), "ok", time.Since(start))
	return res, nil
}

// Quote values an item and applies the policy without storing anything.
// Inline data: URIs are sent to the gateway as-is and never written to the
// image store.
func (u *Usecase) Quote(ctx context.Context, in QuoteInput) (*QuoteDTO, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, collateral.ErrInvalidDetails
	}
	if _, err := u.users.GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}
	photos, err := u.quotePhotos(ctx, in.Images)
	if err != nil {
		return nil, err
	}

	res, err := u.value(ctx, valuation.Request{ItemTitle: name, Description: strings.TrimSpace(in.Description), Photos: photos})
	if err != nil {
		u.logger.ErrorContext(ctx, "quote failed", "user_id", in.UserID, "provider", u.gateway.Name(), "err", err)
		return nil, err
	}

	decision := u.policy.Decide(res, u.now())
	out := &QuoteDTO{
		UserID:         in.UserID,
		Name:           name,
		Provider:       u.gateway.Name(),
		Success:        res.Success,
		EstimatedValue: res.EstimatedValue.StringFixed(2),
		LoanAmount:     res.LoanAmount.StringFixed(2),
		Confidence:     res.Confidence,
		Item:           res.Item,
		Accepted:       decision.Accept,
		Reason:         decision.Reason,
	}
	if decision.Accept {
		due := decision.DueDate
		out.LoanLimit = decision.LoanLimit.StringFixed(2)
		out.Interest = decision.Interest.StringFixed(4)
		out.DueDate = &due
	}
	u.logger.InfoContext(ctx, "collateral quoted", "user_id", in.UserID, "accepted", decision.Accept)
	return out, nil
}

// Approve sets loan terms by manual review.
func (u *Usecase) Approve(ctx context.Context, in ApproveInput) (*CollateralDTO, error) {
	now := u.now()
	if !in.LoanLimit.IsPositive() || in.Interest.IsNegative() || !in.DueDate.After(now) {
		return nil, collateral.ErrInvalidTerms
	}
	return u.transition(ctx, in.CollateralID, in.Note, func(c *collateral.Collateral) error {
		if err := c.Approve(collateral.Terms{LoanLimit: in.LoanLimit.Round(2), Interest: in.Interest, DueDate: in.DueDate}, now); err != nil {
			return err
		}
		c.Metadata.Review = &collateral.Review{ReviewerID: in.ReviewerID, Note: in.Note, ReviewedAt: now}
		return nil
	})
}

func (u *Usecase) Reject(ctx context.Context, in RejectInput) (*CollateralDTO, error) {
	now := u.now()
	return u.transition(ctx, in.CollateralID, in.Reason, func(c *collateral.Collateral) error {
		if err := c.Reject(in.Reason, now); err != nil {
			return err
		}
		c.Metadata.Review = &collateral.Review{ReviewerID: in.ReviewerID, Note: in.Reason, ReviewedAt: now}
		return nil
	})
}

// transition locks the row, applies fn and publishes the status change.
func (u *Usecase) transition(ctx context.Context, collateralID, reason string, fn func(*collateral.Collateral) error) (*CollateralDTO, error) {
	var (
		out  *collateral.Collateral
		from collateral.Status
	)
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		c, err := r.Collaterals.GetByIDForUpdate(ctx, collateralID)
		if err != nil {
			return err
		}
		from = c.Status
		if err := fn(c); err != nil {
			return err
		}
		out = c
		return r.Collaterals.Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	if out.Status != from {
		u.statusChanged(ctx, out, from, reason)
	}
	dto := toDTO(out)
	return &dto, nil
}

func (u *Usecase) statusChanged(ctx context.Context, c *collateral.Collateral, from collateral.Status, reason string) {
	u.metrics.IncTransition(string(from), string(c.Status))
	u.logger.InfoContext(ctx, "collateral status changed", "collateral_id", c.ID, "from", from, "to", c.Status, "reason", reason)
	ev := events.Event{
		Type: events.TypeCollateralStatusChanged,
		Key:  c.ID,
		Payload: events.CollateralStatusChanged{
			CollateralID: c.ID, UserID: c.UserID, From: string(from), To: string(c.Status), Reason: reason,
		},
	}
	if err := u.publisher.Publish(ctx, ev); err != nil {
		u.metrics.IncPublishFailure(ev.Type)
		u.logger.ErrorContext(ctx, "publish event", "type", ev.Type, "key", ev.Key, "err", err)
	}
}

// Update edits a pending item. New data: URIs are stored like on submission.
func (u *Usecase) Update(ctx context.Context, in UpdateInput) (*CollateralDTO, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, collateral.ErrInvalidDetails
	}
	var images []string
	if in.Images != nil {
		var err error
		if images, err = u.storeImages(ctx, in.Images, nil); err != nil {
			return nil, err
		}
	}
	var out *collateral.Collateral
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		c, err := r.Collaterals.GetByIDForUpdate(ctx, in.CollateralID)
		if err != nil {
			return err
		}
		if err := c.UpdateDetails(in.Name, in.Description, images); err != nil {
			return err
		}
		out = c
		return r.Collaterals.Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	dto := toDTO(out)
	return &dto, nil
}

func (u *Usecase) Get(ctx context.Context, collateralID string) (*CollateralDTO, error) {
	c, err := u.collaterals.GetByID(ctx, collateralID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(c)
	return &dto, nil
}

// Image returns a stored photo of the item.
func (u *Usecase) Image(ctx context.Context, collateralID string, index int) (*collateral.Image, error) {
	c, err := u.collaterals.GetByID(ctx, collateralID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(c.ImagePaths) || u.images == nil || !u.images.Owns(c.ImagePaths[index]) {
		return nil, collateral.ErrImageNotFound
	}
	return u.images.Get(ctx, c.ImagePaths[index])
}

func (u *Usecase) List(ctx context.Context, in ListInput) (*paging.Result[CollateralDTO], error) {
	if in.Status != "" && !in.Status.Valid() {
		return nil, collateral.ErrInvalidStatus
	}
	p, err := in.Page.Normalize()
	if err != nil {
		return nil, err
	}
	list, total, err := u.collaterals.List(ctx, collateral.Filter{UserID: in.UserID, Status: in.Status, Offset: p.Offset(), Limit: p.PageSize})
	if err != nil {
		return nil, err
	}
	return paging.NewResult(paging.Map(list, toDTO), total, p), nil
}
