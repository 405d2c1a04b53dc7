package availability

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"roomly/internal/rooms"
	"roomly/internal/shared/constants"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// fakeCache mimics the Redis-backed cache service with an in-memory map of
// JSON-encoded values, matching what MSet would actually store.
type fakeCache struct {
	data map[string]string
	down bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	val, ok := f.data[key]
	if !ok {
		return errors.New("cache miss")
	}
	return json.Unmarshal([]byte(val), dest)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = string(data)
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func (f *fakeCache) DeletePattern(ctx context.Context, pattern string) error { return nil }

func (f *fakeCache) Exists(ctx context.Context, key string) bool {
	_, ok := f.data[key]
	return ok
}

func (f *fakeCache) MGetRaw(ctx context.Context, keys []string) ([]interface{}, error) {
	if f.down {
		return nil, errors.New("connection refused")
	}
	result := make([]interface{}, len(keys))
	for i, key := range keys {
		if val, ok := f.data[key]; ok {
			result[i] = val
		}
	}
	return result, nil
}

func (f *fakeCache) MSet(ctx context.Context, items map[string]interface{}, ttl time.Duration) error {
	if f.down {
		return errors.New("connection refused")
	}
	for key, value := range items {
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		f.data[key] = string(data)
	}
	return nil
}

func (f *fakeCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error {
	return errors.New("not implemented")
}

func (f *fakeCache) Ping(ctx context.Context) error { return nil }

type MockAvailabilityRepo struct {
	mock.Mock
}

func (m *MockAvailabilityRepo) GetConsumingSpans(ctx context.Context, roomID uuid.UUID, start, end time.Time) ([]ConsumingSpan, error) {
	args := m.Called(ctx, roomID, start, end)
	return args.Get(0).([]ConsumingSpan), args.Error(1)
}

func (m *MockAvailabilityRepo) GetConsumingSpansForRooms(ctx context.Context, roomIDs []uuid.UUID, start, end time.Time) (map[uuid.UUID][]ConsumingSpan, error) {
	args := m.Called(ctx, roomIDs, start, end)
	return args.Get(0).(map[uuid.UUID][]ConsumingSpan), args.Error(1)
}

type MockRoomRepo struct {
	mock.Mock
}

func (m *MockRoomRepo) GetRoomByID(ctx context.Context, id uuid.UUID) (*rooms.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rooms.Room), args.Error(1)
}

func (m *MockRoomRepo) GetRoomsByIDs(ctx context.Context, ids []uuid.UUID) ([]rooms.Room, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]rooms.Room), args.Error(1)
}

func (m *MockRoomRepo) ListActiveRooms(ctx context.Context) ([]rooms.Room, error) {
	args := m.Called(ctx)
	return args.Get(0).([]rooms.Room), args.Error(1)
}

func (m *MockRoomRepo) GetOverridesForRange(ctx context.Context, roomID uuid.UUID, start, end time.Time) ([]rooms.RoomAvailabilityOverride, error) {
	args := m.Called(ctx, roomID, start, end)
	return args.Get(0).([]rooms.RoomAvailabilityOverride), args.Error(1)
}

func (m *MockRoomRepo) GetOverridesForRooms(ctx context.Context, roomIDs []uuid.UUID, start, end time.Time) ([]rooms.RoomAvailabilityOverride, error) {
	args := m.Called(ctx, roomIDs, start, end)
	return args.Get(0).([]rooms.RoomAvailabilityOverride), args.Error(1)
}

func (m *MockRoomRepo) UpsertOverrides(ctx context.Context, overrides []rooms.RoomAvailabilityOverride) (int, error) {
	args := m.Called(ctx, overrides)
	return args.Int(0), args.Error(1)
}

func TestGenerateLedger_WritesEveryNight(t *testing.T) {
	repo := new(MockAvailabilityRepo)
	roomRepo := new(MockRoomRepo)
	fc := newFakeCache()
	svc := NewService(repo, roomRepo, fc, 90, 24*time.Hour)

	room := rooms.Room{ID: uuid.New(), Name: "Standard Twin", TotalUnits: 3, DefaultPrice: 80, IsActive: true}
	ids := []uuid.UUID{room.ID}

	roomRepo.On("GetRoomsByIDs", mock.Anything, ids).Return([]rooms.Room{room}, nil)
	roomRepo.On("GetOverridesForRooms", mock.Anything, ids, day(1), day(4)).
		Return([]rooms.RoomAvailabilityOverride{}, nil)
	repo.On("GetConsumingSpansForRooms", mock.Anything, ids, day(1), day(4)).
		Return(map[uuid.UUID][]ConsumingSpan{
			room.ID: {{RoomID: room.ID, CheckIn: day(2), CheckOut: day(3), Quantity: 1}},
		}, nil)

	err := svc.GenerateLedger(context.Background(), ids, day(1), day(4))

	assert.NoError(t, err)
	assert.Equal(t, "3", fc.data[constants.LedgerKey(room.ID.String(), day(1))])
	assert.Equal(t, "2", fc.data[constants.LedgerKey(room.ID.String(), day(2))])
	assert.Equal(t, "3", fc.data[constants.LedgerKey(room.ID.String(), day(3))])
}

func TestGenerateLedger_InvalidRange(t *testing.T) {
	svc := NewService(new(MockAvailabilityRepo), new(MockRoomRepo), newFakeCache(), 90, 24*time.Hour)

	err := svc.GenerateLedger(context.Background(), []uuid.UUID{uuid.New()}, day(4), day(1))

	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestTryGetMinAvailable_FullCoverage(t *testing.T) {
	fc := newFakeCache()
	svc := NewService(new(MockAvailabilityRepo), new(MockRoomRepo), fc, 90, 24*time.Hour)

	roomID := uuid.New()
	fc.data[constants.LedgerKey(roomID.String(), day(1))] = "4"
	fc.data[constants.LedgerKey(roomID.String(), day(2))] = "1"
	fc.data[constants.LedgerKey(roomID.String(), day(3))] = "3"

	min, ok := svc.TryGetMinAvailable(context.Background(), roomID, day(1), day(4))

	assert.True(t, ok)
	assert.Equal(t, 1, min)
}

func TestTryGetMinAvailable_MissingNightMeansNoCoverage(t *testing.T) {
	fc := newFakeCache()
	svc := NewService(new(MockAvailabilityRepo), new(MockRoomRepo), fc, 90, 24*time.Hour)

	roomID := uuid.New()
	fc.data[constants.LedgerKey(roomID.String(), day(1))] = "4"
	// night 2 absent

	_, ok := svc.TryGetMinAvailable(context.Background(), roomID, day(1), day(3))

	assert.False(t, ok)
}

func TestTryGetMinAvailable_CacheDownMeansNoCoverage(t *testing.T) {
	fc := newFakeCache()
	fc.down = true
	svc := NewService(new(MockAvailabilityRepo), new(MockRoomRepo), fc, 90, 24*time.Hour)

	_, ok := svc.TryGetMinAvailable(context.Background(), uuid.New(), day(1), day(3))

	assert.False(t, ok)
}

func TestComputeBlockedRooms_HonorsCandidateSet(t *testing.T) {
	repo := new(MockAvailabilityRepo)
	roomRepo := new(MockRoomRepo)
	svc := NewService(repo, roomRepo, newFakeCache(), 90, 24*time.Hour)

	full := rooms.Room{ID: uuid.New(), Name: "Penthouse", TotalUnits: 1, DefaultPrice: 400, IsActive: true}
	ids := []uuid.UUID{full.ID}

	roomRepo.On("GetRoomsByIDs", mock.Anything, ids).Return([]rooms.Room{full}, nil)
	roomRepo.On("GetOverridesForRooms", mock.Anything, ids, day(1), day(3)).
		Return([]rooms.RoomAvailabilityOverride{}, nil)
	repo.On("GetConsumingSpansForRooms", mock.Anything, ids, day(1), day(3)).
		Return(map[uuid.UUID][]ConsumingSpan{
			full.ID: {{RoomID: full.ID, CheckIn: day(1), CheckOut: day(3), Quantity: 1}},
		}, nil)

	blocked, err := svc.ComputeBlockedRooms(context.Background(), ids, day(1), day(3), 1)

	assert.NoError(t, err)
	assert.Equal(t, ids, blocked)
	roomRepo.AssertNotCalled(t, "ListActiveRooms")
}

func TestGetMinAvailable_FallsBackToLiveComputation(t *testing.T) {
	repo := new(MockAvailabilityRepo)
	roomRepo := new(MockRoomRepo)
	fc := newFakeCache() // empty ledger forces fallback
	svc := NewService(repo, roomRepo, fc, 90, 24*time.Hour)

	room := rooms.Room{ID: uuid.New(), Name: "Suite", TotalUnits: 2, DefaultPrice: 200, IsActive: true}

	roomRepo.On("GetRoomByID", mock.Anything, room.ID).Return(&room, nil)
	roomRepo.On("GetOverridesForRange", mock.Anything, room.ID, day(1), day(3)).
		Return([]rooms.RoomAvailabilityOverride{}, nil)
	repo.On("GetConsumingSpans", mock.Anything, room.ID, day(1), day(3)).
		Return([]ConsumingSpan{{RoomID: room.ID, CheckIn: day(1), CheckOut: day(3), Quantity: 1}}, nil)

	min, err := svc.GetMinAvailable(context.Background(), room.ID, day(1), day(3))

	assert.NoError(t, err)
	assert.Equal(t, 1, min)
	repo.AssertExpectations(t)
}
