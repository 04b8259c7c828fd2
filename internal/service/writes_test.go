package service

import (
	"context"
	"errors"
	"testing"

	"healthsync/internal/client"
	"healthsync/internal/models"
	"healthsync/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreatePatient_ValidatesBeforeCallingAPI(t *testing.T) {
	api := new(MockPatientAPI)
	audit := repository.NewMemoryAuditRepo(10)
	s := newTestService(api, nil, audit, Options{})

	_, err := s.CreatePatient(context.Background(), models.PatientInput{Name: "  ", Age: 40})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	api.AssertNotCalled(t, "CreatePatient", mock.Anything, mock.Anything)
	entries, _ := audit.ListRecent(context.Background(), 0)
	assert.Empty(t, entries)
}

func TestCreatePatient_SuccessRefreshesAndAudits(t *testing.T) {
	api := new(MockPatientAPI)
	expectHealthyFetch(api)
	api.On("CreatePatient", mock.Anything, mock.MatchedBy(func(in models.PatientInput) bool {
		return in.Name == "Ana Ruiz" && in.ConnectionStatus == "Online"
	})).Return(&models.Patient{PatientID: "P-3", Name: "Ana Ruiz"}, nil)

	audit := repository.NewMemoryAuditRepo(10)
	s := newTestService(api, nil, audit, Options{})
	ctx := WithOperator(context.Background(), "nurse-1")

	p, err := s.CreatePatient(ctx, models.PatientInput{Name: " Ana Ruiz ", Age: 33, ConnectionStatus: "online"})
	require.NoError(t, err)
	assert.Equal(t, "P-3", p.PatientID)

	api.AssertCalled(t, "ListPatients", mock.Anything)
	assert.Len(t, s.Snapshot().Patients, 2)

	entries, err := audit.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditPatientCreate, entries[0].Action)
	assert.Equal(t, "P-3", entries[0].TargetID)
	assert.Equal(t, "nurse-1", entries[0].Operator)
	assert.True(t, entries[0].Success)
}

func TestDeletePatient_FailureLeavesProjection(t *testing.T) {
	api := new(MockPatientAPI)
	expectHealthyFetch(api)
	api.On("DeletePatient", mock.Anything, "P-1").
		Return(&client.APIError{StatusCode: 404, Message: "Patient not found"})

	audit := repository.NewMemoryAuditRepo(10)
	s := newTestService(api, nil, audit, Options{})
	require.NoError(t, s.Refresh(context.Background()))
	before := s.Snapshot()

	err := s.DeletePatient(context.Background(), "P-1")
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))
	assert.Equal(t, before, s.Snapshot())
	assert.Empty(t, s.LastError())

	api.AssertNumberOfCalls(t, "ListPatients", 1)

	entries, _ := audit.ListRecent(context.Background(), 0)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
	require.NotNil(t, entries[0].ErrorMessage)
	assert.Contains(t, *entries[0].ErrorMessage, "Patient not found")
	assert.JSONEq(t, `{"name":"Maria Lopez"}`, string(entries[0].Details))
	assert.Equal(t, DefaultOperator, entries[0].Operator)
}

func TestUpdatePatient(t *testing.T) {
	api := new(MockPatientAPI)
	expectHealthyFetch(api)
	api.On("UpdatePatient", mock.Anything, "P-2", mock.Anything).Return(nil, nil)

	s := newTestService(api, nil, nil, Options{})
	_, err := s.UpdatePatient(context.Background(), "P-2", models.PatientInput{Name: "John", Age: 46})
	require.NoError(t, err)

	_, err = s.UpdatePatient(context.Background(), " ", models.PatientInput{Name: "John"})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = s.UpdatePatient(context.Background(), "P-2", models.PatientInput{Name: "John", OxygenLevel: intPtr(120)})
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.True(t, errors.Is(err, models.ErrInvalidPatient))
}

func TestResolveAlert(t *testing.T) {
	api := new(MockPatientAPI)
	expectHealthyFetch(api)
	api.On("ResolveAlert", mock.Anything, "a1").Return(nil)

	audit := repository.NewMemoryAuditRepo(10)
	s := newTestService(api, nil, audit, Options{})
	require.NoError(t, s.ResolveAlert(context.Background(), "a1"))

	entries, _ := audit.ListRecent(context.Background(), 0)
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditAlertResolve, entries[0].Action)

	assert.True(t, errors.Is(s.ResolveAlert(context.Background(), ""), ErrInvalidInput))
}

type failingAudit struct{}

func (failingAudit) Record(context.Context, *models.AuditEntry) error {
	return errors.New("db down")
}

func (failingAudit) ListRecent(context.Context, int) ([]models.AuditEntry, error) {
	return nil, errors.New("db down")
}

func TestAuditFailureDoesNotFailWrite(t *testing.T) {
	api := new(MockPatientAPI)
	expectHealthyFetch(api)
	api.On("ResolveAlert", mock.Anything, "a1").Return(nil)

	s := newTestService(api, nil, failingAudit{}, Options{})
	assert.NoError(t, s.ResolveAlert(context.Background(), "a1"))
}
