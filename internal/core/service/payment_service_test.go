package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cashflow/card-gateway/internal/adapter/secondary/database"
	"github.com/cashflow/card-gateway/internal/adapter/secondary/eventbus"
	"github.com/cashflow/card-gateway/internal/core"
	"github.com/cashflow/card-gateway/internal/core/acquirer"
	"github.com/cashflow/card-gateway/internal/core/service"
	"github.com/cashflow/card-gateway/internal/port/input"
	"github.com/cashflow/card-gateway/internal/port/output"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const resolutionDelay = 30 * time.Millisecond

type gateway struct {
	service   input.PaymentService
	repo      *database.MemoryPaymentRepository
	scheduler *acquirer.TimerScheduler
}

func newGateway(t *testing.T, index acquirer.IndexGenerator) *gateway {
	t.Helper()
	log := zap.NewNop()

	repo := database.NewMemoryPaymentRepository()
	bus := eventbus.NewBus[core.PaymentResult](core.PaymentStatusUpdate, log)
	bus.Subscribe(service.NewStatusSynchronizer(repo, log).Handle)

	scheduler := acquirer.NewTimerScheduler(acquirer.NewSettler(index, bus, log))
	t.Cleanup(func() { scheduler.Stop() })

	resolver := acquirer.NewResolver(index, scheduler, resolutionDelay)
	return &gateway{
		service:   service.NewPaymentService(repo, acquirer.DefaultClassifier(), resolver, log),
		repo:      repo,
		scheduler: scheduler,
	}
}

func submitRequest(cardNumber string) input.SubmitPaymentRequest {
	return input.SubmitPaymentRequest{
		CardHolderName:     "Ada Lovelace",
		CardNumber:         cardNumber,
		CardExpirationDate: "12/30",
		CVV:                "123",
		Amount:             decimal.RequireFromString("49.99"),
		Currency:           "EUR",
	}
}

func TestSubmitPaymentAcceptedCard(t *testing.T) {
	gw := newGateway(t, acquirer.RandomIndex)

	resp, err := gw.service.SubmitPayment(context.Background(), submitRequest("378734493671000"))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Equal(t, core.PaymentStatusSuccess, resp.Status)
	assert.Equal(t, core.StatusCodeSuccessfulPayment, resp.Code)
	assert.Equal(t, "**** **** **** 1000", resp.CardNumber)
	assert.Equal(t, "**/30", resp.CardExpirationDate)
	assert.Equal(t, "***", resp.CVV)
	assert.Equal(t, "Ada Lovelace", resp.CardHolderName)
	assert.True(t, decimal.RequireFromString("49.99").Equal(resp.Amount))
	assert.Equal(t, "EUR", resp.Currency)
	assert.Equal(t, 0, gw.scheduler.Pending())
}

func TestSubmitPaymentDeclinedCard(t *testing.T) {
	gw := newGateway(t, acquirer.RandomIndex)

	resp, err := gw.service.SubmitPayment(context.Background(), submitRequest("378282246310005"))
	require.NoError(t, err)

	assert.Equal(t, core.PaymentStatusFailed, resp.Status)
	assert.True(t, core.IsRejectionCode(resp.Code))
	assert.Equal(t, 0, gw.scheduler.Pending())
}

func TestSubmitPaymentNeverStoresRawCardData(t *testing.T) {
	gw := newGateway(t, acquirer.RandomIndex)

	resp, err := gw.service.SubmitPayment(context.Background(), submitRequest("4111111111111111"))
	require.NoError(t, err)

	stored, err := gw.repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "**** **** **** 1111", stored.CardNumber)
	assert.Equal(t, "**/30", stored.CardExpirationDate)
	assert.Equal(t, "***", stored.CVV)
	assert.NotEqual(t, uuid.Nil, stored.BankTransactionID)
}

func TestSubmitPaymentUnknownCardResolvesLater(t *testing.T) {
	// settle draw: index 0 is success
	gw := newGateway(t, acquirer.IndexFunc(func(int) (int, error) { return 0, nil }))

	resp, err := gw.service.SubmitPayment(context.Background(), submitRequest("4242424242424242"))
	require.NoError(t, err)
	assert.Equal(t, core.PaymentStatusPending, resp.Status)
	assert.Equal(t, core.StatusCodeProcessingPayment, resp.Code)

	require.Eventually(t, func() bool {
		got, err := gw.service.GetPaymentStatus(context.Background(), resp.ID)
		return err == nil && got.Status == core.PaymentStatusSuccess
	}, 2*time.Second, 10*time.Millisecond)

	got, err := gw.service.GetPaymentStatus(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCodeSuccessfulPayment, got.Code)
}

func TestSubmitPaymentUnknownCardCanFailLater(t *testing.T) {
	// settle draw: index 1 is failed, then rejection code index 1
	gw := newGateway(t, acquirer.IndexFunc(func(int) (int, error) { return 1, nil }))

	resp, err := gw.service.SubmitPayment(context.Background(), submitRequest("5105105105105100"))
	require.NoError(t, err)
	require.Equal(t, core.PaymentStatusPending, resp.Status)

	require.Eventually(t, func() bool {
		got, err := gw.service.GetPaymentStatus(context.Background(), resp.ID)
		return err == nil && got.Status == core.PaymentStatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	got, err := gw.service.GetPaymentStatus(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCodeLostCard, got.Code)
}

func TestSubmitPaymentTerminalStatusDoesNotChange(t *testing.T) {
	gw := newGateway(t, acquirer.RandomIndex)

	resp, err := gw.service.SubmitPayment(context.Background(), submitRequest("4111111111111111"))
	require.NoError(t, err)

	for range 3 {
		got, err := gw.service.GetPaymentStatus(context.Background(), resp.ID)
		require.NoError(t, err)
		assert.Equal(t, resp, got)
	}
}

func TestGetPaymentStatusNotFound(t *testing.T) {
	gw := newGateway(t, acquirer.RandomIndex)
	id := uuid.New()

	_, err := gw.service.GetPaymentStatus(context.Background(), id)

	var gwErr *core.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, core.ErrKeyPaymentNotFound, gwErr.Key)
	assert.Equal(t, "Payment with id "+id.String()+" was not found.", gwErr.Message)
}

type mockPaymentRepository struct {
	mock.Mock
}

func (m *mockPaymentRepository) Create(ctx context.Context, payment *core.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *mockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*core.Payment, error) {
	args := m.Called(ctx, id)
	payment, _ := args.Get(0).(*core.Payment)
	return payment, args.Error(1)
}

func (m *mockPaymentRepository) ResolvePayment(ctx context.Context, bankTransactionID uuid.UUID, status core.PaymentStatus, code core.StatusCode) error {
	return m.Called(ctx, bankTransactionID, status, code).Error(0)
}

var _ output.PaymentRepository = (*mockPaymentRepository)(nil)

type countingScheduler struct {
	calls int
}

func (s *countingScheduler) Schedule(context.Context, uuid.UUID, time.Duration) error {
	s.calls++
	return nil
}

func TestSubmitPaymentCreateFailureSchedulesNothing(t *testing.T) {
	repo := &mockPaymentRepository{}
	boom := errors.New("disk full")
	repo.On("Create", mock.Anything, mock.AnythingOfType("*core.Payment")).Return(boom)

	scheduler := &countingScheduler{}
	resolver := acquirer.NewResolver(acquirer.RandomIndex, scheduler, resolutionDelay)
	svc := service.NewPaymentService(repo, acquirer.DefaultClassifier(), resolver, zap.NewNop())

	_, err := svc.SubmitPayment(context.Background(), submitRequest("4242424242424242"))

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, scheduler.calls)
	repo.AssertExpectations(t)
}

func TestSubmitPaymentRejectsShortCardData(t *testing.T) {
	repo := &mockPaymentRepository{}
	resolver := acquirer.NewResolver(acquirer.RandomIndex, &countingScheduler{}, resolutionDelay)
	svc := service.NewPaymentService(repo, acquirer.DefaultClassifier(), resolver, zap.NewNop())

	req := submitRequest("4111")
	_, err := svc.SubmitPayment(context.Background(), req)
	assert.True(t, core.HasKey(err, core.ErrKeyInvalidCardNumber))

	req = submitRequest("4111111111111111")
	req.CVV = "1"
	_, err = svc.SubmitPayment(context.Background(), req)
	assert.True(t, core.HasKey(err, core.ErrKeyInvalidCVV))

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetPaymentStatusRepositoryFailure(t *testing.T) {
	repo := &mockPaymentRepository{}
	boom := errors.New("connection reset")
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(nil, boom)

	resolver := acquirer.NewResolver(acquirer.RandomIndex, &countingScheduler{}, resolutionDelay)
	svc := service.NewPaymentService(repo, acquirer.DefaultClassifier(), resolver, zap.NewNop())

	_, err := svc.GetPaymentStatus(context.Background(), id)
	assert.ErrorIs(t, err, boom)
	assert.False(t, core.HasKey(err, core.ErrKeyPaymentNotFound))
}

type failingScheduler struct {
	err error
}

func (s failingScheduler) Schedule(context.Context, uuid.UUID, time.Duration) error {
	return s.err
}

func TestSubmitPaymentScheduleFailureReturnsStoredPayment(t *testing.T) {
	repo := database.NewMemoryPaymentRepository()
	resolver := acquirer.NewResolver(acquirer.RandomIndex, failingScheduler{err: acquirer.ErrSchedulerStopped}, resolutionDelay)
	svc := service.NewPaymentService(repo, acquirer.DefaultClassifier(), resolver, zap.NewNop())

	resp, err := svc.SubmitPayment(context.Background(), submitRequest("4242424242424242"))
	require.NoError(t, err)
	assert.Equal(t, core.PaymentStatusPending, resp.Status)
	assert.Equal(t, core.StatusCodeProcessingPayment, resp.Code)

	got, err := svc.GetPaymentStatus(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp, got)
}

type contextScheduler struct {
	ctxErr error
}

func (s *contextScheduler) Schedule(ctx context.Context, _ uuid.UUID, _ time.Duration) error {
	s.ctxErr = ctx.Err()
	return ctx.Err()
}

func TestSubmitPaymentSchedulesDespiteCancelledRequest(t *testing.T) {
	scheduler := &contextScheduler{}
	resolver := acquirer.NewResolver(acquirer.RandomIndex, scheduler, resolutionDelay)

	// the request goes away after the payment is stored
	ctx, cancel := context.WithCancel(context.Background())
	repo := &cancellingRepository{MemoryPaymentRepository: database.NewMemoryPaymentRepository(), cancel: cancel}
	svc := service.NewPaymentService(repo, acquirer.DefaultClassifier(), resolver, zap.NewNop())

	resp, err := svc.SubmitPayment(ctx, submitRequest("4242424242424242"))
	require.NoError(t, err)
	assert.Equal(t, core.PaymentStatusPending, resp.Status)
	require.Error(t, ctx.Err())
	assert.NoError(t, scheduler.ctxErr)
}

type cancellingRepository struct {
	*database.MemoryPaymentRepository
	cancel context.CancelFunc
}

func (r *cancellingRepository) Create(ctx context.Context, payment *core.Payment) error {
	defer r.cancel()
	return r.MemoryPaymentRepository.Create(ctx, payment)
}

func TestSubmitPaymentRoundsAmountToCents(t *testing.T) {
	gw := newGateway(t, acquirer.RandomIndex)

	req := submitRequest("4111111111111111")
	req.Amount = decimal.RequireFromString("12.344")
	resp, err := gw.service.SubmitPayment(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.34").Equal(resp.Amount), resp.Amount.String())

	got, err := gw.service.GetPaymentStatus(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.True(t, resp.Amount.Equal(got.Amount))
}
