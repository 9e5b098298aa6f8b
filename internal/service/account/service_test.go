package account

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medhaven/hospital-api/internal/model"
	"github.com/medhaven/hospital-api/internal/repository"
	apperrors "github.com/medhaven/hospital-api/pkg/errors"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakePrincipals struct {
	byID        map[uuid.UUID]*model.Principal
	softDeletes []uuid.UUID
	restores    []uuid.UUID
}

func newFakePrincipals() *fakePrincipals {
	return &fakePrincipals{byID: make(map[uuid.UUID]*model.Principal)}
}

func (f *fakePrincipals) Create(ctx context.Context, p *model.Principal) error {
	p.ID = uuid.New()
	f.byID[p.ID] = p
	return nil
}

func (f *fakePrincipals) Get(ctx context.Context, kind model.PrincipalKind, id uuid.UUID) (*model.Principal, error) {
	p, ok := f.byID[id]
	if !ok || p.Kind != kind {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePrincipals) GetByUsername(ctx context.Context, kind model.PrincipalKind, username string) (*model.Principal, error) {
	for _, p := range f.byID {
		if p.Kind == kind && p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePrincipals) GetByRefreshToken(ctx context.Context, kind model.PrincipalKind, token string) (*model.Principal, error) {
	for _, p := range f.byID {
		if p.Kind == kind && p.RefreshToken != nil && *p.RefreshToken == token {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePrincipals) ExistsByUsernameOrEmail(ctx context.Context, username, email string, excludeID *uuid.UUID) (bool, error) {
	for _, p := range f.byID {
		if excludeID != nil && p.ID == *excludeID {
			continue
		}
		if p.Username == username || p.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePrincipals) ExistsActive(ctx context.Context, kind model.PrincipalKind) (bool, error) {
	for _, p := range f.byID {
		if p.Kind == kind && !p.IsDeleted() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePrincipals) Update(ctx context.Context, p *model.Principal) error {
	existing, ok := f.byID[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *p
	cp.Status = existing.Status
	cp.EndDate = existing.EndDate
	cp.StartDate = existing.StartDate
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakePrincipals) SoftDelete(ctx context.Context, id uuid.UUID, endDate time.Time, clearHospital bool) error {
	p, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = model.StatusOnLeave
	p.EndDate = &endDate
	p.DeletedAt = &endDate
	if clearHospital {
		p.HospitalID = nil
	}
	f.softDeletes = append(f.softDeletes, id)
	return nil
}

func (f *fakePrincipals) Restore(ctx context.Context, id uuid.UUID, startDate time.Time, hospitalID *uuid.UUID) error {
	p, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = model.StatusActive
	p.StartDate = startDate
	p.EndDate = nil
	p.DeletedAt = nil
	if hospitalID != nil {
		p.HospitalID = hospitalID
	}
	f.restores = append(f.restores, id)
	return nil
}

func (f *fakePrincipals) UpdateRefreshToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	p, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.RefreshToken = &token
	p.RefreshTokenExpiresAt = &expiresAt
	return nil
}

func (f *fakePrincipals) List(ctx context.Context, kind model.PrincipalKind, includeDeleted bool) ([]*model.Principal, error) {
	var out []*model.Principal
	for _, p := range f.byID {
		if p.Kind != kind {
			continue
		}
		if !includeDeleted && p.IsDeleted() {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

type fakeHospitals struct {
	hospital *model.Hospital
}

func (f *fakeHospitals) Create(ctx context.Context, h *model.Hospital) error {
	h.ID = uuid.New()
	f.hospital = h
	return nil
}

func (f *fakeHospitals) GetFirst(ctx context.Context) (*model.Hospital, error) {
	if f.hospital == nil {
		return nil, repository.ErrNotFound
	}
	return f.hospital, nil
}

func (f *fakeHospitals) Get(ctx context.Context, id uuid.UUID) (*model.Hospital, error) {
	if f.hospital == nil || f.hospital.ID != id {
		return nil, repository.ErrNotFound
	}
	return f.hospital, nil
}

func (f *fakeHospitals) Update(ctx context.Context, h *model.Hospital) error {
	f.hospital = h
	return nil
}

type fakeDepartments struct {
	byID map[uuid.UUID]*model.Department
}

func newFakeDepartments() *fakeDepartments {
	return &fakeDepartments{byID: make(map[uuid.UUID]*model.Department)}
}

func (f *fakeDepartments) Create(ctx context.Context, d *model.Department) error {
	d.ID = uuid.New()
	f.byID[d.ID] = d
	return nil
}

func (f *fakeDepartments) Get(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	d, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d, nil
}

func (f *fakeDepartments) Update(ctx context.Context, d *model.Department) error { return nil }
func (f *fakeDepartments) SoftDelete(ctx context.Context, id uuid.UUID) error    { return nil }
func (f *fakeDepartments) List(ctx context.Context) ([]*model.Department, error) { return nil, nil }

type fakeRoles struct {
	names       map[string]bool
	assignments map[uuid.UUID][]string
}

func newFakeRoles(names ...string) *fakeRoles {
	f := &fakeRoles{names: make(map[string]bool), assignments: make(map[uuid.UUID][]string)}
	for _, n := range names {
		f.names[n] = true
	}
	return f
}

func (f *fakeRoles) Exists(ctx context.Context, name string) (bool, error) {
	return f.names[name], nil
}

func (f *fakeRoles) Assign(ctx context.Context, principalID uuid.UUID, name string) error {
	f.assignments[principalID] = append(f.assignments[principalID], name)
	return nil
}

func (f *fakeRoles) Unassign(ctx context.Context, principalID uuid.UUID, name string) error {
	roles := f.assignments[principalID]
	for i, r := range roles {
		if r == name {
			f.assignments[principalID] = append(roles[:i], roles[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeRoles) ListForPrincipal(ctx context.Context, principalID uuid.UUID) ([]string, error) {
	return f.assignments[principalID], nil
}

type fakeTokens struct {
	now     time.Time
	counter int
}

func (f *fakeTokens) Now() time.Time { return f.now }

func (f *fakeTokens) IssueAccessToken(p *model.Principal) (string, time.Time, error) {
	return "access-" + p.Username, f.now.Add(time.Hour), nil
}

func (f *fakeTokens) NewRefreshToken() (string, time.Time) {
	f.counter++
	return fmt.Sprintf("refresh-%d", f.counter), f.now.Add(168 * time.Hour)
}

type fakeFiles struct {
	ops []string
}

func (f *fakeFiles) Upload(ctx context.Context, file *multipart.FileHeader, root string) (string, error) {
	url := root + "/" + file.Filename
	f.ops = append(f.ops, "upload:"+url)
	return url, nil
}

func (f *fakeFiles) Delete(url string) error {
	f.ops = append(f.ops, "delete:"+url)
	return nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (fakeHasher) Compare(hashed, password string) error {
	if hashed != "hashed:"+password {
		return fmt.Errorf("mismatch")
	}
	return nil
}

type fixture struct {
	principals  *fakePrincipals
	hospitals   *fakeHospitals
	departments *fakeDepartments
	roles       *fakeRoles
	tokens      *fakeTokens
	files       *fakeFiles
}

func newFixture(kind model.PrincipalKind) (*Service, *fixture) {
	f := &fixture{
		principals:  newFakePrincipals(),
		hospitals:   &fakeHospitals{},
		departments: newFakeDepartments(),
		roles:       newFakeRoles("Staff"),
		tokens:      &fakeTokens{now: testNow},
		files:       &fakeFiles{},
	}
	f.hospitals.Create(context.Background(), &model.Hospital{Name: "General"})

	svc := NewService(
		OptionsForKind(kind),
		f.principals,
		f.hospitals,
		f.departments,
		f.roles,
		f.tokens,
		f.files,
		fakeHasher{},
		nil,
		nil,
		nil,
	)
	return svc, f
}

func createRequest(username string) *model.CreatePrincipalRequest {
	return &model.CreatePrincipalRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "passw0rd1",
		Name:     "Ada",
		Surname:  "Lovelace",
	}
}

func imageFile(name, contentType string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: name,
		Size:     size,
		Header:   textproto.MIMEHeader{"Content-Type": []string{contentType}},
	}
}

func TestCreateAdministrator(t *testing.T) {
	svc, f := newFixture(model.KindAdministrator)
	ctx := context.Background()

	admin, err := svc.Create(ctx, createRequest("root"), nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, admin.Status)
	assert.Equal(t, "hashed:passw0rd1", admin.PasswordHash)
	require.NotNil(t, admin.HospitalID)
	assert.Equal(t, f.hospitals.hospital.ID, *admin.HospitalID)
	assert.Equal(t, testNow, admin.StartDate)
}

func TestCreateSecondAdministratorRejected(t *testing.T) {
	svc, _ := newFixture(model.KindAdministrator)
	ctx := context.Background()

	_, err := svc.Create(ctx, createRequest("root"), nil)
	require.NoError(t, err)

	// Priority: the single-active check fires before uniqueness, so a
	// request reusing the same username still reports the existing admin.
	_, err = svc.Create(ctx, createRequest("root"), nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists))
}

func TestCreateDuplicateUsernameAcrossKinds(t *testing.T) {
	adminSvc, f := newFixture(model.KindAdministrator)
	ctx := context.Background()

	_, err := adminSvc.Create(ctx, createRequest("shared"), nil)
	require.NoError(t, err)

	patientSvc := NewService(
		OptionsForKind(model.KindPatient),
		f.principals, f.hospitals, f.departments, f.roles, f.tokens, f.files,
		fakeHasher{}, nil, nil, nil,
	)
	_, err = patientSvc.Create(ctx, createRequest("shared"), nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists))
}

func TestCreatePasswordPolicy(t *testing.T) {
	svc, _ := newFixture(model.KindPatient)

	req := createRequest("weak")
	req.Password = "shortpw!"

	_, err := svc.Create(context.Background(), req, nil)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrRegistrationFailed))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "PasswordRequiresDigit", appErr.Details[0].Code)
}

func TestCreateNurseRequiresDepartment(t *testing.T) {
	svc, f := newFixture(model.KindNurse)
	ctx := context.Background()

	_, err := svc.Create(ctx, createRequest("nina"), nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidArgument))

	unknown := uuid.New()
	req := createRequest("nina")
	req.DepartmentID = &unknown
	_, err = svc.Create(ctx, req, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	dept := &model.Department{Name: "Cardiology"}
	require.NoError(t, f.departments.Create(ctx, dept))
	req.DepartmentID = &dept.ID
	nurse, err := svc.Create(ctx, req, nil)
	require.NoError(t, err)
	require.NotNil(t, nurse.DepartmentID)
	assert.Equal(t, dept.ID, *nurse.DepartmentID)
	assert.Nil(t, nurse.HospitalID)
}

func TestCreateImageValidation(t *testing.T) {
	svc, f := newFixture(model.KindPatient)
	ctx := context.Background()

	_, err := svc.Create(ctx, createRequest("pat"), imageFile("big.png", "image/png", 4<<20))
	assert.True(t, apperrors.Is(err, apperrors.ErrSizeInvalid))

	_, err = svc.Create(ctx, createRequest("pat"), imageFile("doc.pdf", "application/pdf", 1024))
	assert.True(t, apperrors.Is(err, apperrors.ErrTypeInvalid))

	p, err := svc.Create(ctx, createRequest("pat"), imageFile("face.png", "image/png", 1024))
	require.NoError(t, err)
	require.NotNil(t, p.ImageURL)
	assert.Equal(t, "imgs/patient/face.png", *p.ImageURL)
	assert.Equal(t, []string{"upload:imgs/patient/face.png"}, f.files.ops)
}

func TestLogin(t *testing.T) {
	svc, f := newFixture(model.KindDoctor)
	ctx := context.Background()

	dept := &model.Department{Name: "Surgery"}
	require.NoError(t, f.departments.Create(ctx, dept))
	req := createRequest("gregory")
	req.DepartmentID = &dept.ID
	doctor, err := svc.Create(ctx, req, nil)
	require.NoError(t, err)

	tokens, err := svc.Login(ctx, "gregory", "passw0rd1")
	require.NoError(t, err)
	assert.Equal(t, "access-gregory", tokens.AccessToken)
	assert.Equal(t, "gregory", tokens.Username)
	assert.Equal(t, "refresh-1", tokens.RefreshToken)
	assert.Equal(t, testNow.Add(168*time.Hour), tokens.RefreshTokenExpiresAt)

	stored := f.principals.byID[doctor.ID]
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, "refresh-1", *stored.RefreshToken)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, f := newFixture(model.KindPatient)
	ctx := context.Background()

	_, err := svc.Create(ctx, createRequest("pat"), nil)
	require.NoError(t, err)

	_, unknownErr := svc.Login(ctx, "nobody", "passw0rd1")
	_, wrongErr := svc.Login(ctx, "pat", "wrongpass1")

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.True(t, apperrors.Is(unknownErr, apperrors.ErrLoginFailed))
	assert.True(t, apperrors.Is(wrongErr, apperrors.ErrLoginFailed))
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())

	stored := f.principals.byID[principalID(f, "pat")]
	assert.Nil(t, stored.RefreshToken)
}

func principalID(f *fixture, username string) uuid.UUID {
	for id, p := range f.principals.byID {
		if p.Username == username {
			return id
		}
	}
	return uuid.Nil
}

func TestRefreshLogin(t *testing.T) {
	svc, _ := newFixture(model.KindPatient)
	ctx := context.Background()

	_, err := svc.Create(ctx, createRequest("pat"), nil)
	require.NoError(t, err)
	first, err := svc.Login(ctx, "pat", "passw0rd1")
	require.NoError(t, err)

	second, err := svc.LoginWithRefreshToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The replaced token no longer resolves.
	_, err = svc.LoginWithRefreshToken(ctx, first.RefreshToken)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = svc.LoginWithRefreshToken(ctx, "")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidArgument))
}

func TestRefreshLoginExpiry(t *testing.T) {
	svc, f := newFixture(model.KindPatient)
	ctx := context.Background()

	_, err := svc.Create(ctx, createRequest("pat"), nil)
	require.NoError(t, err)
	tokens, err := svc.Login(ctx, "pat", "passw0rd1")
	require.NoError(t, err)

	// A token expiring exactly now is still accepted; only strictly-past
	// expiries are rejected.
	f.tokens.now = tokens.RefreshTokenExpiresAt
	_, err = svc.LoginWithRefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)

	id := principalID(f, "pat")
	stored := f.principals.byID[id]
	f.tokens.now = stored.RefreshTokenExpiresAt.Add(time.Second)
	_, err = svc.LoginWithRefreshToken(ctx, *stored.RefreshToken)
	assert.True(t, apperrors.Is(err, apperrors.ErrRefreshTokenExpired))
}

func TestSoftDeleteAndRestoreAdministrator(t *testing.T) {
	svc, f := newFixture(model.KindAdministrator)
	ctx := context.Background()

	admin, err := svc.Create(ctx, createRequest("root"), nil)
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, admin.ID))
	stored := f.principals.byID[admin.ID]
	assert.Equal(t, model.StatusOnLeave, stored.Status)
	assert.Nil(t, stored.HospitalID)
	require.NotNil(t, stored.EndDate)
	assert.Equal(t, testNow, *stored.EndDate)

	// With the seat free again, a second admin can be created.
	other, err := svc.Create(ctx, createRequest("backup"), nil)
	require.NoError(t, err)

	// Restoring the first admin is now blocked.
	err = svc.RevertSoftDelete(ctx, admin.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists))

	require.NoError(t, svc.SoftDelete(ctx, other.ID))
	require.NoError(t, svc.RevertSoftDelete(ctx, admin.ID))

	stored = f.principals.byID[admin.ID]
	assert.Equal(t, model.StatusActive, stored.Status)
	assert.Nil(t, stored.EndDate)
	require.NotNil(t, stored.HospitalID)
	assert.Equal(t, f.hospitals.hospital.ID, *stored.HospitalID)
}

func TestSoftDeleteUnknownPrincipal(t *testing.T) {
	svc, _ := newFixture(model.KindPatient)

	err := svc.SoftDelete(context.Background(), uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateStatusTransitionDrivesLifecycle(t *testing.T) {
	svc, f := newFixture(model.KindPatient)
	ctx := context.Background()

	p, err := svc.Create(ctx, createRequest("pat"), nil)
	require.NoError(t, err)

	onLeave := model.StatusOnLeave
	_, err = svc.Update(ctx, p.ID, &model.UpdatePrincipalRequest{Status: &onLeave}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p.ID}, f.principals.softDeletes)
	assert.Equal(t, model.StatusOnLeave, f.principals.byID[p.ID].Status)

	active := model.StatusActive
	_, err = svc.Update(ctx, p.ID, &model.UpdatePrincipalRequest{Status: &active}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p.ID}, f.principals.restores)
	assert.Equal(t, model.StatusActive, f.principals.byID[p.ID].Status)
}

func TestUpdateRejectsTakenUsername(t *testing.T) {
	svc, _ := newFixture(model.KindPatient)
	ctx := context.Background()

	first, err := svc.Create(ctx, createRequest("one"), nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, createRequest("two"), nil)
	require.NoError(t, err)

	taken := "two"
	_, err = svc.Update(ctx, first.ID, &model.UpdatePrincipalRequest{Username: &taken}, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists))

	// Keeping your own username is not a conflict.
	same := "one"
	_, err = svc.Update(ctx, first.ID, &model.UpdatePrincipalRequest{Username: &same}, nil)
	assert.NoError(t, err)
}

func TestUpdateReplacesImage(t *testing.T) {
	svc, f := newFixture(model.KindPatient)
	ctx := context.Background()

	p, err := svc.Create(ctx, createRequest("pat"), imageFile("old.png", "image/png", 1024))
	require.NoError(t, err)

	_, err = svc.Update(ctx, p.ID, &model.UpdatePrincipalRequest{}, imageFile("new.png", "image/png", 2048))
	require.NoError(t, err)

	// The old image is removed before the replacement is validated and stored.
	assert.Equal(t, []string{
		"upload:imgs/patient/old.png",
		"delete:imgs/patient/old.png",
		"upload:imgs/patient/new.png",
	}, f.files.ops)

	stored := f.principals.byID[p.ID]
	require.NotNil(t, stored.ImageURL)
	assert.Equal(t, "imgs/patient/new.png", *stored.ImageURL)
}

func TestUpdateNilID(t *testing.T) {
	svc, _ := newFixture(model.KindPatient)

	_, err := svc.Update(context.Background(), uuid.Nil, &model.UpdatePrincipalRequest{}, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidArgument))
}

func TestRoleMembership(t *testing.T) {
	svc, f := newFixture(model.KindNurse)
	ctx := context.Background()

	dept := &model.Department{Name: "ER"}
	require.NoError(t, f.departments.Create(ctx, dept))
	req := createRequest("nina")
	req.DepartmentID = &dept.ID
	nurse, err := svc.Create(ctx, req, nil)
	require.NoError(t, err)

	// The role registry is checked before the principal lookup: an unknown
	// role reports role-not-found even for an unknown username.
	err = svc.AddRole(ctx, "ghost", "NoSuchRole")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Contains(t, err.Error(), "role")

	err = svc.AddRole(ctx, "ghost", "Staff")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	require.NoError(t, svc.AddRole(ctx, "nina", "Staff"))
	assert.Equal(t, []string{"Staff"}, f.roles.assignments[nurse.ID])

	require.NoError(t, svc.RemoveRole(ctx, "nina", "Staff"))
	assert.Empty(t, f.roles.assignments[nurse.ID])
}

func TestListIncludesRolesAndFiltersDeleted(t *testing.T) {
	svc, _ := newFixture(model.KindPatient)
	ctx := context.Background()

	first, err := svc.Create(ctx, createRequest("one"), nil)
	require.NoError(t, err)
	second, err := svc.Create(ctx, createRequest("two"), nil)
	require.NoError(t, err)

	require.NoError(t, svc.AddRole(ctx, "one", "Staff"))
	require.NoError(t, svc.SoftDelete(ctx, second.ID))

	items, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, []string{"Staff"}, items[0].Roles)

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
