package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	appclinic "github.com/medcare/backend/internal/application/clinic"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/domain/clinic"
	"github.com/medcare/backend/internal/domain/shared"
	"github.com/medcare/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func clinicRouter(p *billing.Principal, writer ClinicWriter) http.Handler {
	h := NewClinicHandler(writer)
	r := newTestRouter(p)
	r.POST("/appointments", h.CreateAppointment)
	r.POST("/doctors", h.CreateDoctor)
	r.POST("/patients", h.CreatePatient)
	return r
}

func TestClinicHandler_CreateAppointment(t *testing.T) {
	p := hospitalAdmin()
	doctorID, patientID := uuid.New(), uuid.New()
	at := time.Date(2026, 6, 2, 9, 30, 0, 0, time.UTC)

	t.Run("created", func(t *testing.T) {
		writer := new(mockClinicWriter)
		writer.On("CreateAppointment", mock.Anything, p, mock.MatchedBy(func(in appclinic.CreateAppointmentInput) bool {
			return *in.DoctorID == doctorID && in.PatientID == patientID &&
				in.ScheduledAt.Equal(at) && in.Notes == "follow-up"
		})).Return(&clinic.Appointment{
			BaseEntity:  shared.NewBaseEntity(),
			DoctorID:    doctorID,
			PatientID:   patientID,
			HospitalID:  &p.Hospital.ID,
			ScheduledAt: at,
			Status:      clinic.AppointmentScheduled,
		}, nil)

		w := doJSON(t, clinicRouter(p, writer), http.MethodPost, "/appointments", map[string]any{
			"doctorId": doctorID, "patientId": patientID, "scheduledAt": at, "notes": "follow-up",
		})

		require.Equal(t, http.StatusCreated, w.Code)
		var data AppointmentResponse
		decode(t, w, &data)
		assert.Equal(t, doctorID, data.DoctorID)
		assert.Equal(t, "SCHEDULED", data.Status)
		writer.AssertExpectations(t)
	})

	t.Run("limit exceeded", func(t *testing.T) {
		writer := new(mockClinicWriter)
		writer.On("CreateAppointment", mock.Anything, p, mock.Anything).
			Return(nil, billing.NewLimitExceededError(billing.LimitAppointmentsPerMonth, 200, 200, 1))

		w := doJSON(t, clinicRouter(p, writer), http.MethodPost, "/appointments", map[string]any{
			"doctorId": doctorID, "patientId": patientID, "scheduledAt": at,
		})

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		resp := decode(t, w, nil)
		assert.Equal(t, dto.ErrCodeLimitExceeded, resp.Error.Code)
		require.NotNil(t, resp.Error.Limit)
		assert.Equal(t, "appointmentsPerMonth", resp.Error.Limit.Key)
		assert.Equal(t, int64(200), resp.Error.Limit.Usage)
	})

	t.Run("plan configuration missing", func(t *testing.T) {
		writer := new(mockClinicWriter)
		writer.On("CreateAppointment", mock.Anything, p, mock.Anything).Return(nil, billing.ErrPlanConfigMissing)

		w := doJSON(t, clinicRouter(p, writer), http.MethodPost, "/appointments", map[string]any{
			"doctorId": doctorID, "patientId": patientID, "scheduledAt": at,
		})

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("missing patient", func(t *testing.T) {
		writer := new(mockClinicWriter)
		w := doJSON(t, clinicRouter(p, writer), http.MethodPost, "/appointments", map[string]any{"scheduledAt": at})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		writer.AssertNotCalled(t, "CreateAppointment", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestClinicHandler_CreateDoctor(t *testing.T) {
	p := hospitalAdmin()

	t.Run("created", func(t *testing.T) {
		writer := new(mockClinicWriter)
		writer.On("CreateDoctor", mock.Anything, p, appclinic.CreateDoctorInput{FullName: "Dr. Ada Reyes", Specialty: "Cardiology"}).
			Return(&clinic.Doctor{BaseEntity: shared.NewBaseEntity(), HospitalID: &p.Hospital.ID, FullName: "Dr. Ada Reyes", Specialty: "Cardiology"}, nil)

		w := doJSON(t, clinicRouter(p, writer), http.MethodPost, "/doctors", `{"fullName":"Dr. Ada Reyes","specialty":"Cardiology"}`)

		require.Equal(t, http.StatusCreated, w.Code)
		var data DoctorResponse
		decode(t, w, &data)
		assert.Equal(t, p.Hospital.ID, *data.HospitalID)
	})

	t.Run("subscription blocked", func(t *testing.T) {
		writer := new(mockClinicWriter)
		writer.On("CreateDoctor", mock.Anything, p, mock.Anything).
			Return(nil, billing.NewSubscriptionBlockedError(billing.StatusInactive, "Your subscription is not active. Choose a plan to continue."))

		w := doJSON(t, clinicRouter(p, writer), http.MethodPost, "/doctors", `{"fullName":"Dr. Ada Reyes"}`)

		assert.Equal(t, http.StatusForbidden, w.Code)
		resp := decode(t, w, nil)
		assert.Equal(t, dto.ErrCodeSubscriptionBlocked, resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "not active")
	})

	t.Run("wrong role", func(t *testing.T) {
		writer := new(mockClinicWriter)
		writer.On("CreateDoctor", mock.Anything, mock.Anything, mock.Anything).Return(nil, appclinic.ErrRoleNotPermitted)

		w := doJSON(t, clinicRouter(platformAdmin(), writer), http.MethodPost, "/doctors", `{"fullName":"Dr. Ada Reyes"}`)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrCodeForbidden, decode(t, w, nil).Error.Code)
	})
}

func TestClinicHandler_CreatePatient(t *testing.T) {
	doctorID := uuid.New()
	p := &billing.Principal{
		Role:   billing.RoleIndependentDoctor,
		UserID: uuid.New(),
		Doctor: &billing.DoctorRecord{ID: doctorID, IsIndependent: true},
	}

	t.Run("created", func(t *testing.T) {
		writer := new(mockClinicWriter)
		writer.On("CreatePatient", mock.Anything, p, appclinic.CreatePatientInput{
			FullName: "Lena Ortiz", DocumentNumber: "X-123", Email: "lena@example.com",
		}).Return(&clinic.Patient{BaseEntity: shared.NewBaseEntity(), FullName: "Lena Ortiz", DoctorID: &doctorID}, nil)

		w := doJSON(t, clinicRouter(p, writer), http.MethodPost, "/patients",
			`{"fullName":"Lena Ortiz","documentNumber":"X-123","email":"lena@example.com"}`)

		require.Equal(t, http.StatusCreated, w.Code)
		var data PatientResponse
		decode(t, w, &data)
		assert.Equal(t, doctorID, *data.DoctorID)
		assert.Nil(t, data.HospitalID)
	})

	t.Run("invalid email", func(t *testing.T) {
		writer := new(mockClinicWriter)
		w := doJSON(t, clinicRouter(p, writer), http.MethodPost, "/patients", `{"fullName":"Lena Ortiz","email":"nope"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w, nil)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "email", resp.Error.Details[0].Field)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		writer := new(mockClinicWriter)
		writer.On("CreatePatient", mock.Anything, (*billing.Principal)(nil), mock.Anything).Return(nil, billing.ErrUnauthenticated)

		w := doJSON(t, clinicRouter(nil, writer), http.MethodPost, "/patients", `{"fullName":"Lena Ortiz"}`)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
