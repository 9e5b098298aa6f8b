package account

import (
	"context"
	"errors"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/medhaven/hospital-api/internal/model"
	"github.com/medhaven/hospital-api/internal/repository"
	apperrors "github.com/medhaven/hospital-api/pkg/errors"
	"github.com/medhaven/hospital-api/pkg/metrics"
	"github.com/medhaven/hospital-api/pkg/security"
	"github.com/medhaven/hospital-api/pkg/storage"
)

// Login failures deliberately share one message so usernames cannot be probed.
const loginFailedMessage = "Username or password is wrong"

// TokenIssuer is the session-token boundary consumed by the lifecycle service.
type TokenIssuer interface {
	Now() time.Time
	IssueAccessToken(principal *model.Principal) (string, time.Time, error)
	NewRefreshToken() (string, time.Time)
}

// RoleManager is the role registry/membership boundary.
type RoleManager interface {
	Exists(ctx context.Context, name string) (bool, error)
	Assign(ctx context.Context, principalID uuid.UUID, name string) error
	Unassign(ctx context.Context, principalID uuid.UUID, name string) error
	ListForPrincipal(ctx context.Context, principalID uuid.UUID) ([]string, error)
}

// EventEmitter records lifecycle events; emission is best-effort.
type EventEmitter interface {
	Emit(ctx context.Context, eventType string, payload interface{}) error
}

// WelcomeMailer sends the post-registration mail; delivery is best-effort.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, email, name string) error
}

// Options fixes the kind-specific policy of a Service instance.
type Options struct {
	Kind               model.PrincipalKind
	ImageRoot          string
	SingleActive       bool
	RequiresDepartment bool
	MaxImageMB         int64
}

// OptionsForKind returns the canonical policy for a principal kind.
func OptionsForKind(kind model.PrincipalKind) Options {
	opts := Options{
		Kind:       kind,
		ImageRoot:  "imgs/" + string(kind),
		MaxImageMB: 3,
	}
	switch kind {
	case model.KindAdministrator:
		opts.SingleActive = true
	case model.KindNurse, model.KindDoctor:
		opts.RequiresDepartment = true
	}
	return opts
}

// Service orchestrates the identity lifecycle for one principal kind:
// creation, soft delete and restore, login, refresh login, updates and role
// membership. One instance exists per kind; the kind policy lives in Options.
type Service struct {
	opts        Options
	principals  repository.PrincipalRepository
	hospitals   repository.HospitalRepository
	departments repository.DepartmentRepository
	roles       RoleManager
	tokens      TokenIssuer
	files       storage.FileStore
	hasher      security.PasswordHasher
	emails      WelcomeMailer
	events      EventEmitter
	metrics     *metrics.Metrics
}

// NewService wires a lifecycle service. emails, events and metrics may be nil;
// the corresponding side effects are skipped.
func NewService(
	opts Options,
	principals repository.PrincipalRepository,
	hospitals repository.HospitalRepository,
	departments repository.DepartmentRepository,
	roles RoleManager,
	tokens TokenIssuer,
	files storage.FileStore,
	hasher security.PasswordHasher,
	emails WelcomeMailer,
	events EventEmitter,
	m *metrics.Metrics,
) *Service {
	return &Service{
		opts:        opts,
		principals:  principals,
		hospitals:   hospitals,
		departments: departments,
		roles:       roles,
		tokens:      tokens,
		files:       files,
		hasher:      hasher,
		emails:      emails,
		events:      events,
		metrics:     m,
	}
}

// Kind returns the principal kind this instance manages.
func (s *Service) Kind() model.PrincipalKind {
	return s.opts.Kind
}

// Create registers a new principal. The single-active-administrator rule is
// checked before uniqueness so it takes priority; the image is persisted
// before the record so a stored reference is always valid.
func (s *Service) Create(ctx context.Context, req *model.CreatePrincipalRequest, image *multipart.FileHeader) (*model.Principal, error) {
	if s.opts.SingleActive {
		exists, err := s.principals.ExistsActive(ctx, s.opts.Kind)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if exists {
			return nil, apperrors.AlreadyExists(string(s.opts.Kind))
		}
	}

	if image != nil {
		if !storage.IsSizeValid(image, s.opts.MaxImageMB) {
			return nil, apperrors.SizeInvalid(int(s.opts.MaxImageMB))
		}
		if !storage.IsTypeValid(image, "image") {
			return nil, apperrors.TypeInvalid("image")
		}
	}

	taken, err := s.principals.ExistsByUsernameOrEmail(ctx, req.Username, req.Email, nil)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if taken {
		return nil, apperrors.AlreadyExists(string(s.opts.Kind))
	}

	if details := security.ValidatePassword(req.Password); len(details) > 0 {
		return nil, apperrors.RegistrationFailed(details)
	}

	principal := &model.Principal{
		Kind:      s.opts.Kind,
		Username:  req.Username,
		Email:     req.Email,
		Name:      req.Name,
		Surname:   req.Surname,
		Status:    model.StatusActive,
		StartDate: s.tokens.Now(),
	}

	if s.opts.SingleActive {
		hospital, err := s.hospitals.GetFirst(ctx)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NotFound("hospital")
			}
			return nil, apperrors.Internal(err)
		}
		principal.HospitalID = &hospital.ID
	}

	if s.opts.RequiresDepartment {
		if req.DepartmentID == nil {
			return nil, apperrors.InvalidArgument("department_id")
		}
		department, err := s.departments.Get(ctx, *req.DepartmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NotFound("department")
			}
			return nil, apperrors.Internal(err)
		}
		principal.DepartmentID = &department.ID
	}

	if image != nil {
		url, err := s.files.Upload(ctx, image, s.opts.ImageRoot)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		principal.ImageURL = &url
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	principal.PasswordHash = hash

	if err := s.principals.Create(ctx, principal); err != nil {
		return nil, s.mapStoreError(err, apperrors.RegistrationFailed)
	}

	s.countCreated()
	s.emit(ctx, model.EventPrincipalCreated, principal)

	if s.emails != nil {
		if err := s.emails.SendWelcome(ctx, principal.Email, principal.Name); err != nil {
			log.Warn().Err(err).Str("username", principal.Username).Msg("failed to send welcome email")
		}
	}

	return principal, nil
}

// SoftDelete marks the principal deleted. Administrators are detached from the
// hospital in the same write. Repeating the call is a no-op.
func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID) error {
	principal, err := s.principals.Get(ctx, s.opts.Kind, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(string(s.opts.Kind))
		}
		return apperrors.Internal(err)
	}

	if err := s.principals.SoftDelete(ctx, principal.ID, s.tokens.Now(), s.opts.SingleActive); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(string(s.opts.Kind))
		}
		return apperrors.Internal(err)
	}

	s.countTransition("soft_delete")
	s.emit(ctx, model.EventPrincipalDeleted, principal)
	return nil
}

// RevertSoftDelete restores a soft-deleted principal. Restoring an
// administrator while another is active is rejected; administrators are
// re-attached to the current hospital.
func (s *Service) RevertSoftDelete(ctx context.Context, id uuid.UUID) error {
	principal, err := s.principals.Get(ctx, s.opts.Kind, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(string(s.opts.Kind))
		}
		return apperrors.Internal(err)
	}

	var hospitalID *uuid.UUID
	if s.opts.SingleActive {
		exists, err := s.principals.ExistsActive(ctx, s.opts.Kind)
		if err != nil {
			return apperrors.Internal(err)
		}
		if exists {
			return apperrors.AlreadyExists(string(s.opts.Kind))
		}

		hospital, err := s.hospitals.GetFirst(ctx)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("hospital")
			}
			return apperrors.Internal(err)
		}
		hospitalID = &hospital.ID
	}

	if err := s.principals.Restore(ctx, principal.ID, s.tokens.Now(), hospitalID); err != nil {
		var appErr *apperrors.AppError
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperrors.NotFound(string(s.opts.Kind))
		case errors.As(err, &appErr):
			// The partial unique index caught a racing restore.
			return appErr
		default:
			return apperrors.Internal(err)
		}
	}

	s.countTransition("restore")
	s.emit(ctx, model.EventPrincipalRestored, principal)
	return nil
}

// Login verifies password credentials and issues a fresh token pair. Unknown
// username and wrong password produce the identical failure.
func (s *Service) Login(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	principal, err := s.principals.GetByUsername(ctx, s.opts.Kind, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.countLogin("failure")
			return nil, apperrors.LoginFailed(loginFailedMessage)
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.hasher.Compare(principal.PasswordHash, password); err != nil {
		s.countLogin("failure")
		return nil, apperrors.LoginFailed(loginFailedMessage)
	}

	tokens, err := s.issueTokens(ctx, principal)
	if err != nil {
		return nil, err
	}

	s.countLogin("success")
	s.emit(ctx, model.EventPrincipalLogin, principal)
	return tokens, nil
}

// LoginWithRefreshToken exchanges a stored refresh token for a fresh pair.
// Expiry is compared against the offset clock used at issuance: a token whose
// expiry is strictly before now-plus-offset is rejected.
func (s *Service) LoginWithRefreshToken(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidArgument("refresh token")
	}

	principal, err := s.principals.GetByRefreshToken(ctx, s.opts.Kind, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.countRefresh("failure")
			return nil, apperrors.NotFound(string(s.opts.Kind))
		}
		return nil, apperrors.Internal(err)
	}

	if principal.RefreshTokenExpiresAt == nil || principal.RefreshTokenExpiresAt.Before(s.tokens.Now()) {
		s.countRefresh("expired")
		return nil, apperrors.RefreshTokenExpired()
	}

	tokens, err := s.issueTokens(ctx, principal)
	if err != nil {
		return nil, err
	}

	s.countRefresh("success")
	return tokens, nil
}

// Update applies a partial update to the principal with the given id; the
// handler resolves the id, either from the caller's authenticated identity or
// from an explicit route parameter. A status transition drives the soft-delete
// lifecycle as a side effect so the two can never fall out of sync.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePrincipalRequest, image *multipart.FileHeader) (*model.Principal, error) {
	if id == uuid.Nil {
		return nil, apperrors.InvalidArgument("id")
	}

	principal, err := s.principals.Get(ctx, s.opts.Kind, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(string(s.opts.Kind))
		}
		return nil, apperrors.Internal(err)
	}

	username := principal.Username
	if req.Username != nil {
		username = *req.Username
	}
	email := principal.Email
	if req.Email != nil {
		email = *req.Email
	}

	taken, err := s.principals.ExistsByUsernameOrEmail(ctx, username, email, &principal.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if taken {
		return nil, apperrors.AlreadyExists(string(s.opts.Kind))
	}

	if image != nil {
		// The old image goes first, best-effort; replacing it is not
		// transactional with the rest of the update.
		if principal.ImageURL != nil {
			if err := s.files.Delete(*principal.ImageURL); err != nil {
				log.Warn().Err(err).Str("url", *principal.ImageURL).Msg("failed to delete old image")
			}
		}
		if !storage.IsSizeValid(image, s.opts.MaxImageMB) {
			return nil, apperrors.SizeInvalid(int(s.opts.MaxImageMB))
		}
		if !storage.IsTypeValid(image, "image") {
			return nil, apperrors.TypeInvalid("image")
		}
		url, err := s.files.Upload(ctx, image, s.opts.ImageRoot)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		principal.ImageURL = &url
	}

	if req.Status != nil && *req.Status != principal.Status {
		switch *req.Status {
		case model.StatusOnLeave:
			if err := s.SoftDelete(ctx, principal.ID); err != nil {
				return nil, err
			}
		case model.StatusActive:
			if err := s.RevertSoftDelete(ctx, principal.ID); err != nil {
				return nil, err
			}
		}
	}

	principal.Username = username
	principal.Email = email
	if req.Name != nil {
		principal.Name = *req.Name
	}
	if req.Surname != nil {
		principal.Surname = *req.Surname
	}

	if err := s.principals.Update(ctx, principal); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(string(s.opts.Kind))
		}
		return nil, s.mapStoreError(err, apperrors.UpdateFailed)
	}

	s.emit(ctx, model.EventPrincipalUpdated, principal)

	updated, err := s.principals.Get(ctx, s.opts.Kind, principal.ID)
	if err != nil {
		return principal, nil
	}
	return updated, nil
}

// AddRole grants a registered role to the principal with the given username.
// The role must already exist in the registry.
func (s *Service) AddRole(ctx context.Context, username, roleName string) error {
	if err := s.checkRoleTarget(ctx, roleName); err != nil {
		return err
	}

	principal, err := s.principals.GetByUsername(ctx, s.opts.Kind, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(string(s.opts.Kind))
		}
		return apperrors.Internal(err)
	}

	if err := s.roles.Assign(ctx, principal.ID, roleName); err != nil {
		return apperrors.RoleOperationFailed([]apperrors.FieldError{{
			Code:        "AssignFailed",
			Field:       "role",
			Description: err.Error(),
		}})
	}

	return nil
}

// RemoveRole revokes a registered role from the principal.
func (s *Service) RemoveRole(ctx context.Context, username, roleName string) error {
	if err := s.checkRoleTarget(ctx, roleName); err != nil {
		return err
	}

	principal, err := s.principals.GetByUsername(ctx, s.opts.Kind, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(string(s.opts.Kind))
		}
		return apperrors.Internal(err)
	}

	if err := s.roles.Unassign(ctx, principal.ID, roleName); err != nil {
		return apperrors.RoleOperationFailed([]apperrors.FieldError{{
			Code:        "UnassignFailed",
			Field:       "role",
			Description: err.Error(),
		}})
	}

	return nil
}

// List returns principals of this kind with their roles.
func (s *Service) List(ctx context.Context, includeDeleted bool) ([]*model.PrincipalListItem, error) {
	principals, err := s.principals.List(ctx, s.opts.Kind, includeDeleted)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	items := make([]*model.PrincipalListItem, 0, len(principals))
	for _, p := range principals {
		roles, err := s.roles.ListForPrincipal(ctx, p.ID)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		items = append(items, &model.PrincipalListItem{
			ID:           p.ID,
			Username:     p.Username,
			Email:        p.Email,
			Name:         p.Name,
			Surname:      p.Surname,
			ImageURL:     p.ImageURL,
			Status:       p.Status,
			StartDate:    p.StartDate,
			EndDate:      p.EndDate,
			DepartmentID: p.DepartmentID,
			Roles:        roles,
		})
	}

	return items, nil
}

func (s *Service) issueTokens(ctx context.Context, principal *model.Principal) (*model.TokenResponse, error) {
	accessToken, expiresAt, err := s.tokens.IssueAccessToken(principal)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	refreshToken, refreshExpiresAt := s.tokens.NewRefreshToken()
	if err := s.principals.UpdateRefreshToken(ctx, principal.ID, refreshToken, refreshExpiresAt); err != nil {
		return nil, apperrors.Internal(err)
	}

	if s.metrics != nil {
		s.metrics.TokensIssued.WithLabelValues(string(s.opts.Kind)).Inc()
	}

	return &model.TokenResponse{
		AccessToken:           accessToken,
		ExpiresAt:             expiresAt,
		Username:              principal.Username,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: refreshExpiresAt,
	}, nil
}

func (s *Service) checkRoleTarget(ctx context.Context, roleName string) error {
	exists, err := s.roles.Exists(ctx, roleName)
	if err != nil {
		return apperrors.Internal(err)
	}
	if !exists {
		return apperrors.NotFound("role")
	}
	return nil
}

// mapStoreError folds a store failure into the given aggregate constructor,
// keeping already-typed failures intact.
func (s *Service) mapStoreError(err error, aggregate func([]apperrors.FieldError) *apperrors.AppError) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if len(appErr.Details) > 0 {
			return aggregate(appErr.Details)
		}
		return appErr
	}
	return apperrors.Internal(err)
}

func (s *Service) emit(ctx context.Context, eventType string, principal *model.Principal) {
	if s.events == nil {
		return
	}
	err := s.events.Emit(ctx, eventType, model.PrincipalEventPayload{
		PrincipalID: principal.ID,
		Kind:        principal.Kind,
		Username:    principal.Username,
		Status:      principal.Status,
	})
	if err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("failed to record lifecycle event")
	}
}

func (s *Service) countCreated() {
	if s.metrics != nil {
		s.metrics.PrincipalsCreated.WithLabelValues(string(s.opts.Kind)).Inc()
	}
}

func (s *Service) countTransition(transition string) {
	if s.metrics != nil {
		s.metrics.LifecycleTransitions.WithLabelValues(string(s.opts.Kind), transition).Inc()
	}
}

func (s *Service) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues(string(s.opts.Kind), outcome).Inc()
	}
}

func (s *Service) countRefresh(outcome string) {
	if s.metrics != nil {
		s.metrics.RefreshLogins.WithLabelValues(string(s.opts.Kind), outcome).Inc()
	}
}
