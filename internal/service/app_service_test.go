package service

import (
	"errors"
	"go-pusher-gateway/internal/model"
	"go-pusher-gateway/internal/protocol"
	"go-pusher-gateway/pkg/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupConfigService(t *testing.T) *AppService {
	if err := config.InitTest(); err != nil {
		t.Fatalf("Failed to initialize config: %v", err)
	}
	service, err := NewAppServiceFromConfig(config.GlobalConfig.Apps)
	require.NoError(t, err)
	return service
}

func TestAppService_FindByKey(t *testing.T) {
	service := setupConfigService(t)

	tests := []struct {
		name    string
		key     string
		wantID  string
		wantErr error
	}{
		{name: "Known key", key: "test-key", wantID: "test-id"},
		{name: "Wildcard app", key: "open-key", wantID: "open-id"},
		{name: "Unknown key", key: "missing", wantErr: ErrAppNotFound},
		{name: "Empty key", key: "", wantErr: ErrAppNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, err := service.FindByKey(tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, app)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, app.ID)
		})
	}
}

func TestAppService_FindByID(t *testing.T) {
	service := setupConfigService(t)

	app, err := service.FindByID("open-id")
	require.NoError(t, err)
	assert.Equal(t, "open-key", app.Key)
	assert.Equal(t, 1, app.MaxConnections)
	assert.True(t, app.AllowsAnyOrigin())

	_, err = service.FindByID("nope")
	assert.True(t, IsNotFound(err))
}

func TestAppService_All(t *testing.T) {
	service := setupConfigService(t)

	apps, err := service.All()
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "open-id", apps[0].ID)
	assert.Equal(t, "test-id", apps[1].ID)
	assert.Equal(t, []string{"example.com"}, apps[1].AllowedOrigins)
}

func TestAppService_NotFoundClassifiesAs4001(t *testing.T) {
	service := NewConfigAppService(nil)

	_, err := service.FindByKey("missing")
	failure := protocol.Classify(err)
	assert.Equal(t, protocol.ProtocolViolation, failure.Kind)
	assert.Equal(t, 4001, failure.Code)
	assert.Equal(t, "Application does not exist", failure.Message)
}

type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) FindByKey(string) (*model.App, error) { return nil, errStoreDown }
func (failingStore) FindByID(string) (*model.App, error)  { return nil, errStoreDown }
func (failingStore) All() ([]*model.App, error)           { return nil, errStoreDown }

func TestAppService_StoreErrorsAreWrapped(t *testing.T) {
	service := &AppService{store: failingStore{}}

	_, err := service.FindByKey("k")
	assert.ErrorIs(t, err, errStoreDown)
	assert.False(t, IsNotFound(err))

	_, err = service.FindByID("id")
	assert.ErrorIs(t, err, errStoreDown)
}

func TestNewAppServiceFromConfig_UnsupportedProvider(t *testing.T) {
	_, err := NewAppServiceFromConfig(config.AppsConfig{Provider: "redis"})
	assert.Error(t, err)
}
