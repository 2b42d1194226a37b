package factory

import (
	"time"

	"github.com/mcoot/bullsgame/internal/dependencies/mocks"
	"github.com/mcoot/bullsgame/internal/model"
	"github.com/mcoot/bullsgame/internal/storage/memory"
	"github.com/mcoot/bullsgame/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithRoomConfig(model.DefaultRoomConfig())
}

// NewTestAppWithRoomConfig creates a test App whose rooms use roomCfg
func NewTestAppWithRoomConfig(roomCfg model.RoomConfig) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, roomCfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
