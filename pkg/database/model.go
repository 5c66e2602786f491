package database

import "time"

// Crash is a confirmed, reproducible finding persisted to the
// public.crashes table. Unconfirmed candidates are never written.
type Crash struct {
	ID         int       `gorm:"primaryKey;column:id"`
	RunID      string    `gorm:"column:run_id;not null"`
	Target     string    `gorm:"column:target;not null"`
	Project    string    `gorm:"column:project"`
	TestCase   string    `gorm:"column:test_case;not null"`
	Engine     string    `gorm:"column:engine;not null"`
	Sanitizer  string    `gorm:"column:sanitizer;not null"`
	DetectedAt time.Time `gorm:"column:detected_at;default:now()"`
}

// NewCrash builds a Crash row for the libFuzzer/ASan runner configuration.
func NewCrash(runID, target, project, testCase string, detectedAt time.Time) *Crash {
	return &Crash{
		RunID:      runID,
		Target:     target,
		Project:    project,
		TestCase:   testCase,
		Engine:     "libfuzzer",
		Sanitizer:  "address",
		DetectedAt: detectedAt,
	}
}
