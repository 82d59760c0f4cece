// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

// Package clinic holds the veterinary domain types backing the CRUD surface.
package clinic

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/validate"
)

// Species values accepted for a patient.
var Species = []string{"dog", "cat", "bird", "rabbit", "reptile", "other"}

// Notes length bounds.
const (
	MinNotesLength = 1
	MaxNotesLength = 2000
)

// Patient is an animal under the clinic's care.
type Patient struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Species   string
	Breed     string
	AgeYears  int
	WeightKg  float64
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PatientInput is the untrusted payload for creating or updating a patient.
type PatientInput struct {
	Name     string  `json:"name"`
	Species  string  `json:"species"`
	Breed    string  `json:"breed"`
	AgeYears float64 `json:"age"`
	WeightKg float64 `json:"weight"`
	Notes    string  `json:"notes"`
}

// Validate checks every field of the input and returns the first failure as
// a validate.Result suitable for a 400 response.
func (in PatientInput) Validate() validate.Result {
	if res := validate.Name(in.Name, "name"); !res.Valid {
		return res
	}
	if res := validate.Enum(in.Species, Species, "species"); !res.Valid {
		return res
	}
	if in.Breed != "" {
		if res := validate.Name(in.Breed, "breed"); !res.Valid {
			return res
		}
	}
	if res := validate.Age(in.AgeYears); !res.Valid {
		return res
	}
	if res := validate.Weight(in.WeightKg); !res.Valid {
		return res
	}
	if in.Notes != "" {
		if res := validate.TextField(in.Notes, "notes", MinNotesLength, MaxNotesLength); !res.Valid {
			return res
		}
	}
	return validate.Result{Valid: true}
}

// NewPatient creates a Patient from a validated input.
func NewPatient(ownerID uuid.UUID, in PatientInput) (*Patient, error) {
	if ownerID == uuid.Nil {
		return nil, oops.Code("PATIENT_INVALID_OWNER").Errorf("owner ID cannot be zero")
	}
	if res := in.Validate(); !res.Valid {
		return nil, oops.Code("PATIENT_INVALID_INPUT").Errorf("%s", res.Err)
	}

	now := time.Now()
	return &Patient{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      validate.SanitizeName(in.Name),
		Species:   in.Species,
		Breed:     validate.SanitizeName(in.Breed),
		AgeYears:  int(in.AgeYears),
		WeightKg:  in.WeightKg,
		Notes:     validate.SanitizeString(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ApplyUpdate overwrites the mutable fields from a validated input.
func (p *Patient) ApplyUpdate(in PatientInput) error {
	if res := in.Validate(); !res.Valid {
		return oops.Code("PATIENT_INVALID_INPUT").Errorf("%s", res.Err)
	}
	p.Name = validate.SanitizeName(in.Name)
	p.Species = in.Species
	p.Breed = validate.SanitizeName(in.Breed)
	p.AgeYears = int(in.AgeYears)
	p.WeightKg = in.WeightKg
	p.Notes = validate.SanitizeString(in.Notes)
	p.UpdatedAt = time.Now()
	return nil
}

// PatientRepository manages patient persistence.
type PatientRepository interface {
	// Create stores a new patient.
	Create(ctx context.Context, patient *Patient) error

	// GetByID retrieves a patient by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// ListByOwner retrieves all patients for an owner, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Patient, error)

	// ListAll retrieves every patient, newest first.
	ListAll(ctx context.Context) ([]*Patient, error)

	// Update persists the mutable fields of a patient.
	Update(ctx context.Context, patient *Patient) error

	// Delete removes a patient.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ErrNotFound is returned when a requested patient does not exist.
var ErrNotFound = oops.Errorf("patient not found")
