package sqlstore

import (
	"context"

	"lendledger/internal/domain/user"

	"gorm.io/gorm"
)

type UserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error, nil, user.ErrAlreadyExists)
}

func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	return translate(r.db.WithContext(ctx).Save(u).Error, nil, user.ErrAlreadyExists)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	var out user.User
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, user.ErrNotFound, nil)
	}
	return &out, nil
}

func (r *UserRepository) GetByRole(ctx context.Context, role user.Role) (*user.User, error) {
	var out user.User
	res := r.db.WithContext(ctx).Where("role = ?", role).Order("created_at ASC").First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, user.ErrNotFound, nil)
	}
	return &out, nil
}

func (r *UserRepository) List(ctx context.Context, f user.Filter) ([]user.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&user.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []user.User
	err := page(q, f.Offset, f.Limit).Order("created_at DESC, id DESC").Find(&out).Error
	return out, total, err
}
