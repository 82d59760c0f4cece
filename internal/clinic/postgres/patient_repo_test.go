// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/clinic"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/clinic/postgres"
)

var patientColumns = []string{
	"id", "owner_id", "name", "species", "breed",
	"age_years", "weight_kg", "notes", "created_at", "updated_at",
}

func newPatientFixture(t *testing.T) *clinic.Patient {
	t.Helper()
	patient, err := clinic.NewPatient(uuid.New(), clinic.PatientInput{
		Name:     "Rex",
		Species:  "dog",
		Breed:    "Border Collie",
		AgeYears: 4,
		WeightKg: 18.5,
		Notes:    "Friendly.",
	})
	require.NoError(t, err)
	return patient
}

func patientRow(p *clinic.Patient) *pgxmock.Rows {
	return pgxmock.NewRows(patientColumns).
		AddRow(p.ID.String(), p.OwnerID.String(), p.Name, p.Species, p.Breed,
			p.AgeYears, p.WeightKg, p.Notes, p.CreatedAt, p.UpdatedAt)
}

func TestPatientRepository_Create(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface, p *clinic.Patient)
		wantErr   bool
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface, p *clinic.Patient) {
				mock.ExpectExec(`INSERT INTO patients`).
					WithArgs(p.ID.String(), p.OwnerID.String(), p.Name, p.Species, p.Breed,
						p.AgeYears, p.WeightKg, p.Notes, p.CreatedAt, p.UpdatedAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface, p *clinic.Patient) {
				mock.ExpectExec(`INSERT INTO patients`).
					WithArgs(p.ID.String(), p.OwnerID.String(), p.Name, p.Species, p.Breed,
						p.AgeYears, p.WeightKg, p.Notes, p.CreatedAt, p.UpdatedAt).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			patient := newPatientFixture(t)
			tt.setupMock(mock, patient)

			repo := postgres.NewPatientRepository(mock)
			err = repo.Create(context.Background(), patient)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestPatientRepository_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		want := newPatientFixture(t)
		mock.ExpectQuery(`SELECT (.+) FROM patients`).
			WithArgs(want.ID.String()).
			WillReturnRows(patientRow(want))

		repo := postgres.NewPatientRepository(mock)
		got, err := repo.GetByID(context.Background(), want.ID)
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.OwnerID, got.OwnerID)
		assert.Equal(t, want.Name, got.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := uuid.New()
		mock.ExpectQuery(`SELECT (.+) FROM patients`).
			WithArgs(id.String()).
			WillReturnRows(pgxmock.NewRows(patientColumns))

		repo := postgres.NewPatientRepository(mock)
		_, err = repo.GetByID(context.Background(), id)
		require.Error(t, err)
		assert.ErrorIs(t, err, clinic.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPatientRepository_ListByOwner(t *testing.T) {
	t.Run("returns all patients for owner", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		ownerID := uuid.New()
		now := time.Now().UTC()
		rows := pgxmock.NewRows(patientColumns).
			AddRow(uuid.New().String(), ownerID.String(), "Rex", "dog", "Border Collie",
				4, 18.5, "", now, now).
			AddRow(uuid.New().String(), ownerID.String(), "Misha", "cat", "",
				2, 4.2, "", now.Add(-time.Hour), now.Add(-time.Hour))
		mock.ExpectQuery(`SELECT (.+) FROM patients`).
			WithArgs(ownerID.String()).
			WillReturnRows(rows)

		repo := postgres.NewPatientRepository(mock)
		patients, err := repo.ListByOwner(context.Background(), ownerID)
		require.NoError(t, err)
		require.Len(t, patients, 2)
		assert.Equal(t, "Rex", patients[0].Name)
		assert.Equal(t, "Misha", patients[1].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("owner with no patients returns empty", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		ownerID := uuid.New()
		mock.ExpectQuery(`SELECT (.+) FROM patients`).
			WithArgs(ownerID.String()).
			WillReturnRows(pgxmock.NewRows(patientColumns))

		repo := postgres.NewPatientRepository(mock)
		patients, err := repo.ListByOwner(context.Background(), ownerID)
		require.NoError(t, err)
		assert.Empty(t, patients)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPatientRepository_Update(t *testing.T) {
	t.Run("updates existing patient", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		patient := newPatientFixture(t)
		mock.ExpectExec(`UPDATE patients`).
			WithArgs(patient.ID.String(), patient.Name, patient.Species, patient.Breed,
				patient.AgeYears, patient.WeightKg, patient.Notes, patient.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := postgres.NewPatientRepository(mock)
		assert.NoError(t, repo.Update(context.Background(), patient))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing patient maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		patient := newPatientFixture(t)
		mock.ExpectExec(`UPDATE patients`).
			WithArgs(patient.ID.String(), patient.Name, patient.Species, patient.Breed,
				patient.AgeYears, patient.WeightKg, patient.Notes, patient.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := postgres.NewPatientRepository(mock)
		err = repo.Update(context.Background(), patient)
		require.Error(t, err)
		assert.ErrorIs(t, err, clinic.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPatientRepository_Delete(t *testing.T) {
	t.Run("deletes existing patient", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := uuid.New()
		mock.ExpectExec(`DELETE FROM patients WHERE id`).
			WithArgs(id.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		repo := postgres.NewPatientRepository(mock)
		assert.NoError(t, repo.Delete(context.Background(), id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing patient maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := uuid.New()
		mock.ExpectExec(`DELETE FROM patients WHERE id`).
			WithArgs(id.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		repo := postgres.NewPatientRepository(mock)
		err = repo.Delete(context.Background(), id)
		require.Error(t, err)
		assert.ErrorIs(t, err, clinic.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
