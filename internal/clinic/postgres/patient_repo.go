// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

// Package postgres implements the clinic repositories using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/clinic"
)

// DBPool is the subset of pgxpool.Pool the repositories need. pgxmock
// satisfies it in unit tests.
type DBPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PatientRepository implements clinic.PatientRepository using PostgreSQL.
type PatientRepository struct {
	pool DBPool
}

// NewPatientRepository creates a new PatientRepository.
func NewPatientRepository(pool DBPool) *PatientRepository {
	return &PatientRepository{pool: pool}
}

const patientColumns = `id, owner_id, name, species, breed, age_years, weight_kg, notes, created_at, updated_at`

// Create stores a new patient.
func (r *PatientRepository) Create(ctx context.Context, patient *clinic.Patient) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, owner_id, name, species, breed, age_years, weight_kg, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		patient.ID.String(),
		patient.OwnerID.String(),
		patient.Name,
		patient.Species,
		patient.Breed,
		patient.AgeYears,
		patient.WeightKg,
		patient.Notes,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return oops.Code("PATIENT_CREATE_FAILED").
			With("operation", "insert patient").
			With("patient_id", patient.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a patient by ID.
func (r *PatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*clinic.Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = $1
	`, id.String())

	patient, err := scanPatient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PATIENT_NOT_FOUND").
			With("id", id.String()).
			Wrap(clinic.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PATIENT_GET_FAILED").
			With("operation", "get patient by id").
			With("id", id.String()).
			Wrap(err)
	}
	return patient, nil
}

// ListByOwner retrieves all patients for an owner, newest first.
func (r *PatientRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*clinic.Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, ownerID.String())
	if err != nil {
		return nil, oops.Code("PATIENT_LIST_FAILED").
			With("operation", "list patients by owner").
			With("owner_id", ownerID.String()).
			Wrap(err)
	}
	defer rows.Close()

	return collectPatients(rows)
}

// ListAll retrieves every patient, newest first.
func (r *PatientRepository) ListAll(ctx context.Context) ([]*clinic.Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, oops.Code("PATIENT_LIST_FAILED").
			With("operation", "list all patients").
			Wrap(err)
	}
	defer rows.Close()

	return collectPatients(rows)
}

// Update persists the mutable fields of a patient.
func (r *PatientRepository) Update(ctx context.Context, patient *clinic.Patient) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE patients
		SET name = $2, species = $3, breed = $4, age_years = $5, weight_kg = $6, notes = $7, updated_at = $8
		WHERE id = $1
	`,
		patient.ID.String(),
		patient.Name,
		patient.Species,
		patient.Breed,
		patient.AgeYears,
		patient.WeightKg,
		patient.Notes,
		patient.UpdatedAt,
	)
	if err != nil {
		return oops.Code("PATIENT_UPDATE_FAILED").
			With("operation", "update patient").
			With("patient_id", patient.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PATIENT_NOT_FOUND").
			With("id", patient.ID.String()).
			Wrap(clinic.ErrNotFound)
	}
	return nil
}

// Delete removes a patient.
func (r *PatientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM patients WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("PATIENT_DELETE_FAILED").
			With("operation", "delete patient").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PATIENT_NOT_FOUND").
			With("id", id.String()).
			Wrap(clinic.ErrNotFound)
	}
	return nil
}

func scanPatient(row pgx.Row) (*clinic.Patient, error) {
	var (
		idStr      string
		ownerIDStr string
		patient    clinic.Patient
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := row.Scan(
		&idStr,
		&ownerIDStr,
		&patient.Name,
		&patient.Species,
		&patient.Breed,
		&patient.AgeYears,
		&patient.WeightKg,
		&patient.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("PATIENT_SCAN_FAILED").
			With("operation", "scan patient").
			Wrap(err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("PATIENT_INVALID_ID").
			With("operation", "parse patient id").
			With("id", idStr).
			Wrap(err)
	}
	ownerID, err := uuid.Parse(ownerIDStr)
	if err != nil {
		return nil, oops.Code("PATIENT_INVALID_OWNER_ID").
			With("operation", "parse owner id").
			With("owner_id", ownerIDStr).
			Wrap(err)
	}

	patient.ID = id
	patient.OwnerID = ownerID
	patient.CreatedAt = createdAt
	patient.UpdatedAt = updatedAt
	return &patient, nil
}

func collectPatients(rows pgx.Rows) ([]*clinic.Patient, error) {
	var patients []*clinic.Patient
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("PATIENT_ROWS_FAILED").
			With("operation", "iterate patient rows").
			Wrap(err)
	}
	return patients, nil
}

// Compile-time interface check.
var _ clinic.PatientRepository = (*PatientRepository)(nil)
