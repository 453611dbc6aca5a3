package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sujith333333/redeemx-repo/internal/model"
	"github.com/sujith333333/redeemx-repo/internal/repository"
)

var (
	ErrInvalidUsername   = fmt.Errorf("%w: username must not be empty", model.ErrValidation)
	ErrEmpIDRequired     = fmt.Errorf("%w: employee must have an employee id", model.ErrValidation)
	ErrInvalidVendorName = fmt.Errorf("%w: vendor name must not be empty", model.ErrValidation)
	ErrNotVendorAccount  = fmt.Errorf("%w: vendor owner must have the VENDOR role", model.ErrValidation)
	ErrNotAdminAccount   = fmt.Errorf("%w: user does not have the ADMIN role", model.ErrForbidden)
)

// NewUser описывает учётную запись, создаваемую оператором.
type NewUser struct {
	Username string
	Name     string
	EmpID    string
	Role     model.Role
}

// CreateUser заводит учётную запись сотрудника, вендора или администратора.
// Выпуск учётных данных выполняет внешний сервис аутентификации.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (*model.User, error) {
	u := &model.User{
		Username: strings.TrimSpace(in.Username),
		Name:     strings.TrimSpace(in.Name),
		Role:     in.Role,
	}
	if u.Username == "" {
		return nil, ErrInvalidUsername
	}
	if _, ok := model.ParseRole(string(u.Role)); !ok {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrValidation, in.Role)
	}
	if u.Name == "" {
		u.Name = u.Username
	}
	if empID := strings.TrimSpace(in.EmpID); empID != "" {
		u.EmpID = &empID
	} else if u.Role == model.RoleEmployee {
		return nil, ErrEmpIDRequired
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		zap.String("user_id", u.ID.String()),
		zap.String("username", u.Username),
		zap.String("role", string(u.Role)),
	)
	return u, nil
}

// CreateVendor регистрирует вендора, принадлежащего учётной записи с ролью VENDOR.
func (s *Service) CreateVendor(ctx context.Context, ownerID uuid.UUID, name, description string) (*model.Vendor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidVendorName
	}

	owner, err := s.repo.GetUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner.Role != model.RoleVendor {
		return nil, ErrNotVendorAccount
	}

	v := &model.Vendor{UserID: owner.ID, Name: name, Description: strPtr(strings.TrimSpace(description))}
	if err := s.repo.CreateVendor(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info("vendor created",
		zap.String("vendor_id", v.ID.String()),
		zap.String("vendor_name", v.Name),
		zap.String("owner_id", owner.ID.String()),
	)
	return v, nil
}

// LookupVendor находит вендора по имени, идентификатору вендора или владельца.
func (s *Service) LookupVendor(ctx context.Context, ref string) (*model.Vendor, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, repository.ErrVendorNotFound
	}
	return s.repo.FindVendor(ctx, ref)
}

// AdminIdentity возвращает удостоверение администратора для учётной записи с ролью ADMIN.
func (s *Service) AdminIdentity(ctx context.Context, userID uuid.UUID) (model.Identity, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return model.Identity{}, err
	}
	if u.Role != model.RoleAdmin {
		return model.Identity{}, ErrNotAdminAccount
	}
	return model.Identity{UserID: u.ID, Role: model.RoleAdmin}, nil
}
