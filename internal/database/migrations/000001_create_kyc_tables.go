package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createKYCTablesMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_kyc_tables",
		Migrate: func(tx *gorm.DB) error {
			// Create KYC records table
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS kyc_records (
					id UUID PRIMARY KEY,
					subject_type VARCHAR(20) NOT NULL,
					subject_id VARCHAR(64) NOT NULL,
					aadhar_number VARCHAR(20) NOT NULL,
					aadhar_image_ref TEXT NOT NULL,
					pan_number VARCHAR(20),
					pan_image_ref TEXT,
					status VARCHAR(20) NOT NULL DEFAULT 'pending',
					submitted_at TIMESTAMP WITH TIME ZONE NOT NULL,
					reviewed_at TIMESTAMP WITH TIME ZONE,
					reviewed_by VARCHAR(64),
					rejection_reason TEXT,
					remarks TEXT,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_kyc_records_subject ON kyc_records(subject_type, subject_id);
				CREATE INDEX IF NOT EXISTS idx_kyc_records_status ON kyc_records(status);
			`).Error; err != nil {
				return err
			}

			// Create status history table
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS kyc_status_histories (
					id UUID PRIMARY KEY,
					record_id UUID NOT NULL REFERENCES kyc_records(id),
					previous_status VARCHAR(20) NOT NULL,
					new_status VARCHAR(20) NOT NULL,
					changed_by VARCHAR(64),
					comment TEXT,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_kyc_status_histories_record_id ON kyc_status_histories(record_id);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			if err := tx.Exec("DROP TABLE IF EXISTS kyc_status_histories").Error; err != nil {
				return err
			}
			return tx.Exec("DROP TABLE IF EXISTS kyc_records").Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createKYCTablesMigration())
}
