package leads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"saave-bot/internal/metrics"
	"saave-bot/internal/quote"
	"saave-bot/internal/storage"
	"saave-bot/pkg/crm"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveLead(ctx context.Context, lead storage.Lead) (int64, error) {
	args := m.Called(ctx, lead)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) MarkCRMResult(ctx context.Context, reference, status string) (bool, error) {
	args := m.Called(ctx, reference, status)
	return args.Bool(0), args.Error(1)
}

type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(ctx context.Context, payload any) (*crm.Receipt, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Receipt), args.Error(1)
}

const testRef = "3f1c8a52-2222-4000-8000-000000000001"

func newTestQuoter(t *testing.T) *quote.Quoter {
	t.Helper()
	q, err := quote.NewQuoter(quote.DesignScheme(), quote.DefaultCatalog(),
		quote.WithClock(func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }),
		quote.WithIDGenerator(func() string { return testRef }),
	)
	require.NoError(t, err)
	return q
}

func validRequest() Request {
	return Request{
		Contact:   quote.Contact{Name: "Ana", Phone: "+573001234567", Email: "ana@example.com"},
		Responses: quote.Responses{Lot: "si", PrincipalBed: "queen", ExtraSpaces: []string{"estudio", "turco"}},
		ChatID:    99,
		Source:    storage.SourceTelegram,
	}
}

func TestCreateStoresAndForwards(t *testing.T) {
	store := new(MockStore)
	sub := new(MockSubmitter)
	m := metrics.New()

	store.On("SaveLead", mock.Anything, mock.MatchedBy(func(l storage.Lead) bool {
		return l.Reference == testRef && l.ChatID == 99 && l.CRMStatus == storage.CRMPending
	})).Return(int64(5), nil)
	sub.On("Submit", mock.Anything, mock.AnythingOfType("quote.Payload")).
		Return(&crm.Receipt{ID: "crm-1"}, nil)
	store.On("MarkCRMResult", mock.Anything, testRef, storage.CRMSent).Return(true, nil)

	svc := NewService(newTestQuoter(t), store, sub, time.Second, m, zap.NewNop())
	res, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	require.NoError(t, svc.Wait(context.Background()))

	assert.True(t, res.Stored)
	assert.Equal(t, int64(5), res.LeadID)
	assert.Equal(t, testRef, res.Record.ID)
	assert.InDelta(t, 109.5, res.Record.Area.Total, 1e-9)

	store.AssertExpectations(t)
	sub.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuotesCompleted.WithLabelValues(storage.SourceTelegram, quote.SchemeDesign)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CRMSubmissions.WithLabelValues(storage.CRMSent)))
}

func TestCreateMarksFailedCRM(t *testing.T) {
	store := new(MockStore)
	sub := new(MockSubmitter)
	m := metrics.New()

	store.On("SaveLead", mock.Anything, mock.Anything).Return(int64(6), nil)
	sub.On("Submit", mock.Anything, mock.Anything).Return(nil, errors.New("webhook down"))
	store.On("MarkCRMResult", mock.Anything, testRef, storage.CRMFailed).Return(true, nil)

	svc := NewService(newTestQuoter(t), store, sub, time.Second, m, zap.NewNop())
	res, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	require.NoError(t, svc.Wait(context.Background()))

	assert.True(t, res.Stored)
	store.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CRMSubmissions.WithLabelValues(storage.CRMFailed)))
}

func TestCreateWithoutCRM(t *testing.T) {
	store := new(MockStore)
	store.On("SaveLead", mock.Anything, mock.MatchedBy(func(l storage.Lead) bool {
		return l.CRMStatus == storage.CRMDisabled
	})).Return(int64(7), nil)

	svc := NewService(newTestQuoter(t), store, nil, time.Second, metrics.New(), zap.NewNop())
	res, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, res.Stored)
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "MarkCRMResult", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateStorageFailureStillQuotes(t *testing.T) {
	store := new(MockStore)
	sub := new(MockSubmitter)
	m := metrics.New()
	store.On("SaveLead", mock.Anything, mock.Anything).Return(int64(0), errors.New("connection refused"))

	svc := NewService(newTestQuoter(t), store, sub, time.Second, m, zap.NewNop())
	res, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	require.NoError(t, svc.Wait(context.Background()))

	assert.False(t, res.Stored)
	assert.NotEmpty(t, res.Record.Text)
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuotesFailed.WithLabelValues(storage.SourceTelegram, "storage")))
}

func TestCreateInvalidInput(t *testing.T) {
	store := new(MockStore)
	m := metrics.New()

	req := validRequest()
	req.Responses.PrincipalBed = ""

	svc := NewService(newTestQuoter(t), store, nil, time.Second, m, zap.NewNop())
	res, err := svc.Create(context.Background(), req)

	assert.Nil(t, res)
	assert.ErrorIs(t, err, quote.ErrInvalidInput)
	store.AssertNotCalled(t, "SaveLead", mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuotesFailed.WithLabelValues(storage.SourceTelegram, "invalid_input")))
}

func TestWaitHonoursContext(t *testing.T) {
	store := new(MockStore)
	sub := new(MockSubmitter)
	release := make(chan struct{})

	store.On("SaveLead", mock.Anything, mock.Anything).Return(int64(1), nil)
	sub.On("Submit", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(&crm.Receipt{}, nil)
	store.On("MarkCRMResult", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	svc := NewService(newTestQuoter(t), store, sub, time.Second, metrics.New(), zap.NewNop())
	_, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Wait(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, svc.Wait(context.Background()))
}

func TestCreateAfterWaitLeavesLeadPending(t *testing.T) {
	store := new(MockStore)
	sub := new(MockSubmitter)
	store.On("SaveLead", mock.Anything, mock.MatchedBy(func(l storage.Lead) bool {
		return l.CRMStatus == storage.CRMPending
	})).Return(int64(3), nil)

	svc := NewService(newTestQuoter(t), store, sub, time.Second, metrics.New(), zap.NewNop())
	require.NoError(t, svc.Wait(context.Background()))

	res, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	require.NoError(t, svc.Wait(context.Background()))

	assert.True(t, res.Stored)
	store.AssertExpectations(t)
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "MarkCRMResult", mock.Anything, mock.Anything, mock.Anything)
}
