package repository

import (
	"errors"
	"go-pusher-gateway/internal/model"
	"go-pusher-gateway/pkg/db"

	"gorm.io/gorm"
)

// AppRepository 处理 App 凭证的持久化
type AppRepository struct {
	db *gorm.DB
}

// 创建一个新的 App 存储库实例
func NewAppRepository() *AppRepository {
	return &AppRepository{db: db.DB}
}

// 新建 App
func (r *AppRepository) Create(app *model.App) error {
	return r.db.Create(app).Error
}

// 通过 key 查找 App
func (r *AppRepository) FindByKey(key string) (*model.App, error) {
	var app model.App
	if err := r.db.Where("`key` = ?", key).First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // App 不存在
		}
		return nil, err
	}
	return &app, nil
}

// 通过ID查找 App
func (r *AppRepository) FindByID(id string) (*model.App, error) {
	var app model.App
	if err := r.db.Where("id = ?", id).First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // App 不存在
		}
		return nil, err
	}
	return &app, nil
}

func (r *AppRepository) All() ([]*model.App, error) {
	var apps []*model.App
	if err := r.db.Order("id").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// 删除 App
func (r *AppRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.App{}).Error
}
