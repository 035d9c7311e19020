package service

import (
	"errors"
	"fmt"
	"go-pusher-gateway/internal/model"
	"go-pusher-gateway/internal/protocol"
	"go-pusher-gateway/internal/repository"
	"go-pusher-gateway/pkg/config"
	"sort"
)

// 查找不到 App 时返回，可被 protocol.Classify 识别为 4001
var ErrAppNotFound = protocol.ErrApplicationNotFound

// appStore 是 App 的持久化来源
type appStore interface {
	FindByKey(key string) (*model.App, error)
	FindByID(id string) (*model.App, error)
	All() ([]*model.App, error)
}

// AppService 根据 key 或 ID 解析租户
type AppService struct {
	store appStore
}

// 基于数据库创建 App 服务
func NewAppService(repo *repository.AppRepository) *AppService {
	return &AppService{store: repo}
}

// 基于配置文件中的 apps.list 创建 App 服务
func NewConfigAppService(apps []config.AppConfig) *AppService {
	return &AppService{store: newStaticStore(apps)}
}

// 根据 apps.provider 选择 App 来源
func NewAppServiceFromConfig(cfg config.AppsConfig) (*AppService, error) {
	switch cfg.Provider {
	case config.AppProviderConfig:
		return NewConfigAppService(cfg.List), nil
	case config.AppProviderDatabase:
		return NewAppService(repository.NewAppRepository()), nil
	default:
		return nil, fmt.Errorf("unsupported apps.provider %q", cfg.Provider)
	}
}

func (s *AppService) FindByKey(key string) (*model.App, error) {
	if key == "" {
		return nil, ErrAppNotFound
	}
	app, err := s.store.FindByKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to find app by key: %w", err)
	}
	if app == nil {
		return nil, ErrAppNotFound
	}
	return app, nil
}

func (s *AppService) FindByID(id string) (*model.App, error) {
	if id == "" {
		return nil, ErrAppNotFound
	}
	app, err := s.store.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to find app by id: %w", err)
	}
	if app == nil {
		return nil, ErrAppNotFound
	}
	return app, nil
}

func (s *AppService) All() ([]*model.App, error) {
	return s.store.All()
}

// IsNotFound 判断错误是否表示 App 不存在
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAppNotFound)
}

// staticStore 保存配置文件中声明的 App
type staticStore struct {
	byKey map[string]*model.App
	byID  map[string]*model.App
}

func newStaticStore(apps []config.AppConfig) *staticStore {
	s := &staticStore{
		byKey: make(map[string]*model.App, len(apps)),
		byID:  make(map[string]*model.App, len(apps)),
	}
	for _, a := range apps {
		app := &model.App{
			ID:              a.ID,
			Key:             a.Key,
			Secret:          a.Secret,
			AllowedOrigins:  append([]string(nil), a.AllowedOrigins...),
			MaxConnections:  a.MaxConnections,
			MaxMessageSize:  a.MaxMessageSize,
			ActivityTimeout: a.ActivityTimeout,
		}
		s.byKey[app.Key] = app
		s.byID[app.ID] = app
	}
	return s
}

func (s *staticStore) FindByKey(key string) (*model.App, error) {
	return s.byKey[key], nil
}

func (s *staticStore) FindByID(id string) (*model.App, error) {
	return s.byID[id], nil
}

func (s *staticStore) All() ([]*model.App, error) {
	apps := make([]*model.App, 0, len(s.byID))
	for _, app := range s.byID {
		apps = append(apps, app)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].ID < apps[j].ID })
	return apps, nil
}
