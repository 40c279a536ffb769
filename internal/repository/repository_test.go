package repository_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
	"github.com/otcheredev/clinical-records-api/internal/models"
	"github.com/otcheredev/clinical-records-api/internal/repository"
	"github.com/otcheredev/clinical-records-api/internal/testutil"
)

func strPtr(s string) *string { return &s }

func TestTenantRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repository.NewTenantRepository(db)
	ctx := testutil.Ctx(t)

	tenant := testutil.NewTenant(testutil.Visible("email", "first_name"), testutil.HIPAA(true), testutil.Partial(false))
	tenant.ID = uuid.Nil
	require.NoError(t, repo.Create(ctx, tenant))
	require.NotEqual(t, uuid.Nil, tenant.ID)

	got, err := repo.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisibleFields{"email", "first_name"}, got.PatientVisibleFields)
	assert.True(t, got.SSNHIPAAMandatory)
	assert.False(t, got.AllowPartialPatients)
	assert.Equal(t, models.RecordsTypeRigid, got.PatientRecordsType)

	got.Premium = true
	require.NoError(t, repo.Update(ctx, got))
	again, err := repo.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.True(t, again.Premium)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUserRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repository.NewUserRepository(db)
	ctx := testutil.Ctx(t)
	tenant := testutil.CreateTenant(t, db)

	user := &models.User{Username: "ada", IsActive: true}
	require.NoError(t, repo.Create(ctx, user))

	err := repo.Create(ctx, &models.User{Username: "ada", IsActive: true})
	assert.True(t, apperr.Is(err, apperr.KindConstraintConflict))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Profile)
	assert.Nil(t, models.PrincipalFromUser(got).TenantID)

	_, err = repo.AssignTenant(ctx, user.ID, tenant.ID)
	require.NoError(t, err)
	_, err = repo.AssignTenant(ctx, user.ID, tenant.ID)
	assert.True(t, apperr.Is(err, apperr.KindConstraintConflict))

	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Profile)
	p := models.PrincipalFromUser(got)
	require.NotNil(t, p.TenantID)
	assert.Equal(t, tenant.ID, *p.TenantID)

	require.NoError(t, repo.SetActive(ctx, user.ID, false))
	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	err = repo.SetActive(ctx, uuid.New(), false)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = repo.GetByID(ctx, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestPatientRepositoryScoping(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repository.NewPatientRepository(db)
	ctx := testutil.Ctx(t)
	mine := testutil.CreateTenant(t, db)
	theirs := testutil.CreateTenant(t, db)

	patient := &models.Patient{TenantID: mine.ID, FirstName: "Ada", Email: "ada@example.com", SSN: strPtr("123")}
	require.NoError(t, repo.Create(ctx, patient))

	got, err := repo.GetByID(ctx, patient.ID, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)
	require.NotNil(t, got.SSN)
	assert.Equal(t, "123", *got.SSN)
	assert.Nil(t, got.SSNData)

	_, err = repo.GetByID(ctx, patient.ID, theirs.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	list, err := repo.GetByTenantID(ctx, theirs.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = repo.Delete(ctx, patient.ID, theirs.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = repo.GetByID(ctx, patient.ID, mine.ID)
	assert.NoError(t, err)
}

func TestPatientRepositoryEmailConflict(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repository.NewPatientRepository(db)
	ctx := testutil.Ctx(t)
	a := testutil.CreateTenant(t, db)
	b := testutil.CreateTenant(t, db)

	require.NoError(t, repo.Create(ctx, &models.Patient{TenantID: a.ID, Email: "dup@example.com"}))

	err := repo.Create(ctx, &models.Patient{TenantID: b.ID, Email: "dup@example.com"})
	require.Error(t, err)
	e := apperr.As(err)
	assert.Equal(t, apperr.KindConstraintConflict, e.Kind)
	assert.Equal(t, 409, e.Status())
	assert.Equal(t, "patient with this email already exists.", e.Body()["detail"])

	other := &models.Patient{TenantID: a.ID, Email: "other@example.com"}
	require.NoError(t, repo.Create(ctx, other))
	other.Email = "dup@example.com"
	assert.True(t, apperr.Is(repo.Update(ctx, other), apperr.KindConstraintConflict))
}

func TestPatientRepositoryStructuredSSN(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repository.NewPatientRepository(db)
	ctx := testutil.Ctx(t)
	tenant := testutil.CreateTenant(t, db, testutil.HIPAA(true))

	patient := &models.Patient{
		TenantID: tenant.ID,
		Email:    "ada@example.com",
		SSNData:  &models.SSNData{Number: "123-45-6789", Verified: "true", VerificationDate: "null"},
	}
	require.NoError(t, repo.Create(ctx, patient))

	got, err := repo.GetByID(ctx, patient.ID, tenant.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SSN)
	require.NotNil(t, got.SSNData)
	assert.Equal(t, "123-45-6789", got.SSNData.Number)
	assert.Equal(t, "true", got.SSNData.Verified)
	assert.Equal(t, "null", got.SSNData.VerificationDate)
}

func TestPatientRepositoryPaging(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repository.NewPatientRepository(db)
	ctx := testutil.Ctx(t)
	tenant := testutil.CreateTenant(t, db)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		require.NoError(t, repo.Create(ctx, &models.Patient{TenantID: tenant.ID, Email: email}))
	}

	all, err := repo.GetByTenantID(ctx, tenant.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := repo.GetByTenantID(ctx, tenant.ID, 2, 1)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestPatientDeleteRemovesRecords(t *testing.T) {
	db := testutil.OpenDB(t)
	patients := repository.NewPatientRepository(db)
	records := repository.NewRecordRepository(db)
	ctx := testutil.Ctx(t)
	tenant := testutil.CreateTenant(t, db)

	patient := &models.Patient{TenantID: tenant.ID, Email: "ada@example.com"}
	require.NoError(t, patients.Create(ctx, patient))
	require.NoError(t, records.Create(ctx, &models.RigidRecord{PatientID: patient.ID, Diagnosis: "Flu"}))

	require.NoError(t, patients.Delete(ctx, patient.ID, tenant.ID))

	list, err := records.List(ctx, models.RecordsTypeRigid, tenant.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, list)

	var count int64
	require.NoError(t, db.Model(&models.RigidRecord{}).Count(&count).Error)
	assert.Zero(t, count)

	err = patients.Delete(ctx, patient.ID, tenant.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRecordRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	patients := repository.NewPatientRepository(db)
	repo := repository.NewRecordRepository(db)
	ctx := testutil.Ctx(t)
	mine := testutil.CreateTenant(t, db)
	theirs := testutil.CreateTenant(t, db)

	ada := &models.Patient{TenantID: mine.ID, Email: "ada@example.com"}
	bob := &models.Patient{TenantID: mine.ID, Email: "bob@example.com"}
	eve := &models.Patient{TenantID: theirs.ID, Email: "eve@example.com"}
	for _, p := range []*models.Patient{ada, bob, eve} {
		require.NoError(t, patients.Create(ctx, p))
	}

	adaRecord := &models.RigidRecord{PatientID: ada.ID, Diagnosis: "Flu", DoctorName: "Dr. House"}
	require.NoError(t, repo.Create(ctx, adaRecord))
	require.NoError(t, repo.Create(ctx, &models.RigidRecord{PatientID: bob.ID, Diagnosis: "Cold"}))
	eveRecord := &models.RigidRecord{PatientID: eve.ID, Diagnosis: "Secret"}
	require.NoError(t, repo.Create(ctx, eveRecord))
	flexible := &models.FlexibleRecord{PatientID: ada.ID, RecordType: "lab"}
	require.NoError(t, repo.Create(ctx, flexible))

	got, err := repo.GetByID(ctx, models.RecordsTypeRigid, adaRecord.ID, mine.ID)
	require.NoError(t, err)
	rigid, ok := got.(*models.RigidRecord)
	require.True(t, ok)
	assert.Equal(t, "Dr. House", rigid.DoctorName)
	assert.Equal(t, ada.ID, rigid.PatientRef())

	_, err = repo.GetByID(ctx, models.RecordsTypeRigid, eveRecord.ID, mine.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = repo.GetByID(ctx, models.RecordsTypeFlexible, adaRecord.ID, mine.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	list, err := repo.List(ctx, models.RecordsTypeRigid, mine.ID, nil)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, rec := range list {
		assert.Equal(t, models.RecordsTypeRigid, rec.Variant())
	}

	list, err = repo.List(ctx, models.RecordsTypeRigid, mine.ID, &bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, bob.ID, list[0].PatientRef())

	flex, err := repo.List(ctx, models.RecordsTypeFlexible, mine.ID, nil)
	require.NoError(t, err)
	require.Len(t, flex, 1)
	assert.Equal(t, map[string]any{}, flex[0].(*models.FlexibleRecord).Data)

	err = repo.Delete(ctx, models.RecordsTypeRigid, eveRecord.ID, mine.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	require.NoError(t, repo.Delete(ctx, models.RecordsTypeRigid, adaRecord.ID, mine.ID))
	_, err = repo.GetByID(ctx, models.RecordsTypeRigid, adaRecord.ID, mine.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = repo.List(ctx, "hybrid", mine.ID, nil)
	assert.True(t, apperr.Is(err, apperr.KindConfiguration))
}

func TestAuditRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repository.NewAuditRepository(db)
	ctx := testutil.Ctx(t)
	tenant := testutil.CreateTenant(t, db)
	objectID := uuid.New()

	require.NoError(t, repo.Create(ctx, &models.AuditLog{
		TenantID: tenant.ID,
		Model:    "Patient",
		ObjectID: &objectID,
		Action:   models.AuditActionView,
		Metadata: map[string]any{"path": "/api/patients/x", "method": "GET"},
	}))
	require.NoError(t, repo.Create(ctx, &models.AuditLog{
		TenantID: tenant.ID,
		Model:    "Patient",
		Action:   models.AuditActionList,
	}))

	logs, err := repo.GetByTenantID(ctx, tenant.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	byObject, err := repo.GetByObject(ctx, tenant.ID, "Patient", objectID)
	require.NoError(t, err)
	require.Len(t, byObject, 1)
	assert.Equal(t, models.AuditActionView, byObject[0].Action)
	assert.Equal(t, "GET", byObject[0].Metadata["method"])
}
