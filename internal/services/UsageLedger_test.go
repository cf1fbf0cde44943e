package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/structures"
	"github.com/borkya1/smart-gallery/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *structures.Config {
	return &structures.Config{
		Limits: structures.LimitsConfig{
			GuestLifetime: 10,
			UserDaily:     25,
		},
		Storage: structures.StorageConfig{
			Bucket:           "bucket",
			Prefix:           "images",
			LegacyHostMarker: models.DefaultLegacyHostMarker,
		},
		Otp: structures.OtpConfig{Expiry: 10 * time.Minute},
	}
}

func newLedger(st *testutil.MemoryLedgerStore, conf *structures.Config, now time.Time) (*UsageLedger, *testutil.MockMetrics) {
	metrics := testutil.NewMockMetrics()
	l := NewUsageLedger(st, conf, &testutil.MockLogger{}, metrics).(*UsageLedger)
	l.now = func() time.Time { return now }
	return l, metrics
}

var day1 = time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)

func TestCheckAndConsume_GuestUpToLimit(t *testing.T) {
	st := testutil.NewMemoryLedgerStore()
	l, metrics := newLedger(st, testConfig(), day1)
	guest := models.NewGuest("203.0.113.7")

	for i := 1; i <= 10; i++ {
		allowance, err := l.CheckAndConsume(context.Background(), guest)
		require.NoError(t, err, "upload %d", i)
		assert.Equal(t, i, allowance.Used)
		assert.Equal(t, 10-i, allowance.Remaining)
	}

	_, err := l.CheckAndConsume(context.Background(), guest)
	var limitErr *models.LimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 10, limitErr.Used)
	assert.Equal(t, 10, limitErr.Limit)
	assert.Equal(t, models.IdentityGuest, limitErr.Kind)
	assert.Equal(t, 10, st.Guests["203.0.113.7"])
	assert.Equal(t, 10, metrics.Allowed["guest"])
	assert.Equal(t, 1, metrics.Denied["guest"])
}

func TestCheckAndConsume_GuestLimitIsLifetime(t *testing.T) {
	st := testutil.NewMemoryLedgerStore()
	st.Guests["203.0.113.7"] = 10
	l, _ := newLedger(st, testConfig(), day1.AddDate(1, 0, 0))

	_, err := l.CheckAndConsume(context.Background(), models.NewGuest("203.0.113.7"))
	assert.ErrorIs(t, err, models.ErrLimitExceeded)
}

func TestCheckAndConsume_GuestAboveLimitStillDenied(t *testing.T) {
	st := testutil.NewMemoryLedgerStore()
	st.Guests["203.0.113.7"] = 12
	l, _ := newLedger(st, testConfig(), day1)

	_, err := l.CheckAndConsume(context.Background(), models.NewGuest("203.0.113.7"))

	var limitErr *models.LimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 12, limitErr.Used)
	assert.Equal(t, 12, st.Guests["203.0.113.7"])
}

func TestCheckAndConsume_GuestsAreIndependent(t *testing.T) {
	st := testutil.NewMemoryLedgerStore()
	st.Guests["203.0.113.7"] = 10
	l, _ := newLedger(st, testConfig(), day1)

	_, err := l.CheckAndConsume(context.Background(), models.NewGuest("203.0.113.8"))
	require.NoError(t, err)
	assert.Equal(t, 1, st.Guests["203.0.113.8"])
}

func TestCheckAndConsume_UserFirstUpload(t *testing.T) {
	st := testutil.NewMemoryLedgerStore()
	l, _ := newLedger(st, testConfig(), day1)

	allowance, err := l.CheckAndConsume(context.Background(), models.NewUser("uid-1", "a@example.com"))

	require.NoError(t, err)
	assert.Equal(t, 1, allowance.Used)
	assert.Equal(t, models.UserUsage{UserID: "uid-1", LastUploadDate: "2026-03-14", DailyCount: 1}, st.Users["uid-1"])
}

func TestCheckAndConsume_UserDailyLimit(t *testing.T) {
	st := testutil.NewMemoryLedgerStore()
	l, metrics := newLedger(st, testConfig(), day1)
	user := models.NewUser("uid-1", "a@example.com")

	for k := 1; k <= 25; k++ {
		_, err := l.CheckAndConsume(context.Background(), user)
		require.NoError(t, err, "upload %d", k)
	}

	_, err := l.CheckAndConsume(context.Background(), user)
	var limitErr *models.LimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, models.IdentityUser, limitErr.Kind)
	assert.Equal(t, 25, limitErr.Used)
	assert.Equal(t, 25, limitErr.Limit)
	assert.Equal(t, 25, st.Users["uid-1"].DailyCount)
	assert.Equal(t, 1, metrics.Denied["user"])
}

func TestCheckAndConsume_UserRolloverResets(t *testing.T) {
	st := testutil.NewMemoryLedgerStore()
	st.Users["uid-1"] = models.UserUsage{UserID: "uid-1", LastUploadDate: "2026-03-14", DailyCount: 40}
	l, _ := newLedger(st, testConfig(), day1.Add(2*time.Minute))

	allowance, err := l.CheckAndConsume(context.Background(), models.NewUser("uid-1", ""))

	require.NoError(t, err)
	assert.Equal(t, 1, allowance.Used)
	assert.Equal(t, 24, allowance.Remaining)
	assert.Equal(t, "2026-03-15", st.Users["uid-1"].LastUploadDate)
	assert.Equal(t, 1, st.Users["uid-1"].DailyCount)
}

func TestCheckAndConsume_UserDateIsUTC(t *testing.T) {
	st := testutil.NewMemoryLedgerStore()
	st.Users["uid-1"] = models.UserUsage{UserID: "uid-1", LastUploadDate: "2026-03-14", DailyCount: 25}
	// 2026-03-15 01:00 in UTC+3 is still 2026-03-14 in UTC.
	local := time.Date(2026, 3, 15, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*3600))
	l, _ := newLedger(st, testConfig(), local)

	_, err := l.CheckAndConsume(context.Background(), models.NewUser("uid-1", ""))
	assert.ErrorIs(t, err, models.ErrLimitExceeded)
}

func TestCheckAndConsume_StoreFailureFailsClosed(t *testing.T) {
	st := testutil.NewMemoryLedgerStore()
	st.Err = errors.New("dynamodb unreachable")
	l, _ := newLedger(st, testConfig(), day1)

	for _, who := range []models.Identity{models.NewGuest("203.0.113.7"), models.NewUser("uid-1", "")} {
		_, err := l.CheckAndConsume(context.Background(), who)

		var infraErr *models.InfrastructureError
		require.True(t, errors.As(err, &infraErr), who.Kind.String())
		assert.NotErrorIs(t, err, models.ErrLimitExceeded)
	}
	assert.Zero(t, st.Writes)
}

func TestCheckAndConsume_StrictModeRejectsConditionalFailure(t *testing.T) {
	conf := testConfig()
	conf.Limits.Strict = true
	st := testutil.NewMemoryLedgerStore()
	l, _ := newLedger(st, conf, day1)

	// Another request consumed the last unit between the read and the write.
	l.store = &racingLedgerStore{MemoryLedgerStore: st, bumpTo: 10}
	st.Guests["203.0.113.7"] = 9

	_, err := l.CheckAndConsume(context.Background(), models.NewGuest("203.0.113.7"))

	var limitErr *models.LimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 10, limitErr.Used)
	assert.Equal(t, 10, st.Guests["203.0.113.7"])
}

func TestCheckAndConsume_RelaxedModeMayOvershoot(t *testing.T) {
	st := testutil.NewMemoryLedgerStore()
	l, _ := newLedger(st, testConfig(), day1)
	l.store = &racingLedgerStore{MemoryLedgerStore: st, bumpTo: 10}
	st.Guests["203.0.113.7"] = 9

	_, err := l.CheckAndConsume(context.Background(), models.NewGuest("203.0.113.7"))

	require.NoError(t, err)
	assert.Equal(t, 11, st.Guests["203.0.113.7"])
}

// racingLedgerStore simulates a concurrent increment landing between the
// read and the write of a guest consumption.
type racingLedgerStore struct {
	*testutil.MemoryLedgerStore
	bumpTo int
}

func (r *racingLedgerStore) IncrementGuestUsage(ctx context.Context, address string, ceiling int) (int, error) {
	r.Guests[address] = r.bumpTo
	return r.MemoryLedgerStore.IncrementGuestUsage(ctx, address, ceiling)
}

func TestCheckAndConsume_StrictModeConcurrentDayReset(t *testing.T) {
	conf := testConfig()
	conf.Limits.Strict = true
	st := testutil.NewMemoryLedgerStore()
	st.Users["uid-1"] = models.UserUsage{UserID: "uid-1", LastUploadDate: "2026-03-13", DailyCount: 25}
	l, _ := newLedger(st, conf, day1)
	l.store = &staleUserLedgerStore{MemoryLedgerStore: st, seen: st.Users["uid-1"]}

	allowed := 0
	for i := 0; i < 30; i++ {
		_, err := l.CheckAndConsume(context.Background(), models.NewUser("uid-1", "a@example.com"))
		if err == nil {
			allowed++
			continue
		}
		var limitErr *models.LimitExceededError
		require.True(t, errors.As(err, &limitErr), "upload %d", i)
	}

	assert.Equal(t, 25, allowed)
	assert.Equal(t, models.UserUsage{UserID: "uid-1", LastUploadDate: "2026-03-14", DailyCount: 25}, st.Users["uid-1"])
}

func TestCheckAndConsume_RelaxedModeDayResetMayOvershoot(t *testing.T) {
	st := testutil.NewMemoryLedgerStore()
	st.Users["uid-1"] = models.UserUsage{UserID: "uid-1", LastUploadDate: "2026-03-13", DailyCount: 25}
	l, _ := newLedger(st, testConfig(), day1)
	l.store = &staleUserLedgerStore{MemoryLedgerStore: st, seen: st.Users["uid-1"]}

	for i := 0; i < 30; i++ {
		_, err := l.CheckAndConsume(context.Background(), models.NewUser("uid-1", "a@example.com"))
		require.NoError(t, err, "upload %d", i)
	}

	assert.Equal(t, 1, st.Users["uid-1"].DailyCount)
}

// staleUserLedgerStore simulates requests that all read the usage record
// before any of them writes, as concurrent first uploads of a day do.
type staleUserLedgerStore struct {
	*testutil.MemoryLedgerStore
	seen models.UserUsage
}

func (s *staleUserLedgerStore) GetUserUsage(_ context.Context, _ string) (*models.UserUsage, error) {
	usage := s.seen
	return &usage, nil
}
