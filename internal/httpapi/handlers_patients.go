// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/audit"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/auth"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/clinic"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/validate"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/pkg/errutil"
)

type patientResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	Species   string    `json:"species"`
	Breed     string    `json:"breed,omitempty"`
	AgeYears  int       `json:"age"`
	WeightKg  float64   `json:"weight"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newPatientResponse(p *clinic.Patient) patientResponse {
	return patientResponse{
		ID:        p.ID.String(),
		OwnerID:   p.OwnerID.String(),
		Name:      p.Name,
		Species:   p.Species,
		Breed:     p.Breed,
		AgeYears:  p.AgeYears,
		WeightKg:  p.WeightKg,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type createPatientRequest struct {
	clinic.PatientInput
	OwnerID string `json:"ownerId,omitempty"`
}

// canManagePatients is the allowed set for every patient route; scoping
// within the set happens per record.
var canManagePatients = []auth.Role{auth.RoleAdmin, auth.RoleDoctor, auth.RolePetOwner}

// isStaff reports whether the role sees all patients rather than only its own.
func isStaff(role auth.Role) bool {
	return role == auth.RoleAdmin || role == auth.RoleDoctor
}

// patientIDFromPath validates the {id} path segment as a canonical UUID
// before it goes anywhere near a query.
func patientIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.PathValue("id")
	if res := validate.UUID(raw, "id"); !res.Valid {
		writeError(w, http.StatusBadRequest, res.Err)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// loadScopedPatient fetches a patient and enforces ownership: pet owners
// only reach their own records. Returns nil after writing the response on
// any failure.
func (s *Server) loadScopedPatient(w http.ResponseWriter, r *http.Request, user *auth.User, id uuid.UUID) *clinic.Patient {
	patient, err := s.patients.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Patient not found")
			return nil
		}
		errutil.LogError(slog.Default(), "patient lookup failed", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return nil
	}

	if !isStaff(user.Role) && patient.OwnerID != user.ID {
		s.writeAudit(r.Context(), user.Email, audit.ActionAccessDenied, "patient/"+id.String(), audit.OutcomeDenied, "not owner")
		writeError(w, http.StatusForbidden, "Insufficient permissions")
		return nil
	}

	return patient
}

func (s *Server) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	res := s.authmw.RequireRole(r.Context(), NewClientContext(r), canManagePatients...)
	if !res.Authorized {
		writeError(w, res.Status, res.Err)
		return
	}

	var req createPatientRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ownerID := res.User.ID
	if req.OwnerID != "" {
		if !isStaff(res.User.Role) {
			writeError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}
		if vr := validate.UUID(req.OwnerID, "ownerId"); !vr.Valid {
			writeError(w, http.StatusBadRequest, vr.Err)
			return
		}
		parsed, err := uuid.Parse(req.OwnerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "ownerId must be a valid UUID")
			return
		}
		ownerID = parsed
	}

	if vr := req.Validate(); !vr.Valid {
		writeError(w, http.StatusBadRequest, vr.Err)
		return
	}

	patient, err := clinic.NewPatient(ownerID, req.PatientInput)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid patient data")
		return
	}

	if err := s.patients.Create(r.Context(), patient); err != nil {
		errutil.LogError(slog.Default(), "patient create failed", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	s.writeAudit(r.Context(), res.User.Email, audit.ActionPatientCreate, "patient/"+patient.ID.String(), audit.OutcomeSuccess, patient.Name)
	writeJSON(w, http.StatusCreated, newPatientResponse(patient))
}

func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	res := s.authmw.RequireRole(r.Context(), NewClientContext(r), canManagePatients...)
	if !res.Authorized {
		writeError(w, res.Status, res.Err)
		return
	}

	var (
		patients []*clinic.Patient
		err      error
	)
	if isStaff(res.User.Role) {
		patients, err = s.patients.ListAll(r.Context())
	} else {
		patients, err = s.patients.ListByOwner(r.Context(), res.User.ID)
	}
	if err != nil {
		errutil.LogError(slog.Default(), "patient list failed", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	out := make([]patientResponse, 0, len(patients))
	for _, p := range patients {
		out = append(out, newPatientResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	res := s.authmw.RequireRole(r.Context(), NewClientContext(r), canManagePatients...)
	if !res.Authorized {
		writeError(w, res.Status, res.Err)
		return
	}

	id, ok := patientIDFromPath(w, r)
	if !ok {
		return
	}

	patient := s.loadScopedPatient(w, r, res.User, id)
	if patient == nil {
		return
	}

	writeJSON(w, http.StatusOK, newPatientResponse(patient))
}

func (s *Server) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	res := s.authmw.RequireRole(r.Context(), NewClientContext(r), canManagePatients...)
	if !res.Authorized {
		writeError(w, res.Status, res.Err)
		return
	}

	id, ok := patientIDFromPath(w, r)
	if !ok {
		return
	}

	patient := s.loadScopedPatient(w, r, res.User, id)
	if patient == nil {
		return
	}

	var input clinic.PatientInput
	if !decodeBody(w, r, &input) {
		return
	}

	if vr := input.Validate(); !vr.Valid {
		writeError(w, http.StatusBadRequest, vr.Err)
		return
	}

	if err := patient.ApplyUpdate(input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid patient data")
		return
	}

	if err := s.patients.Update(r.Context(), patient); err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Patient not found")
			return
		}
		errutil.LogError(slog.Default(), "patient update failed", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	s.writeAudit(r.Context(), res.User.Email, audit.ActionPatientUpdate, "patient/"+patient.ID.String(), audit.OutcomeSuccess, "")
	writeJSON(w, http.StatusOK, newPatientResponse(patient))
}

func (s *Server) handleDeletePatient(w http.ResponseWriter, r *http.Request) {
	res := s.authmw.RequireRole(r.Context(), NewClientContext(r), canManagePatients...)
	if !res.Authorized {
		writeError(w, res.Status, res.Err)
		return
	}

	id, ok := patientIDFromPath(w, r)
	if !ok {
		return
	}

	patient := s.loadScopedPatient(w, r, res.User, id)
	if patient == nil {
		return
	}

	if err := s.patients.Delete(r.Context(), id); err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Patient not found")
			return
		}
		errutil.LogError(slog.Default(), "patient delete failed", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	s.writeAudit(r.Context(), res.User.Email, audit.ActionPatientDelete, "patient/"+id.String(), audit.OutcomeSuccess, patient.Name)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Patient deleted"})
}
