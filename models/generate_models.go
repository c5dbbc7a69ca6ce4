package models

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

/*
Local schema tooling.

The only table this service owns is the upload journal (pending_uploads). Everything
else lives behind the external API.

GENERATE_MODELS=true migrates the journal table, prints a column report and writes
typed query helpers to ./generated.
*/

// localModels are the tables this service migrates and owns.
func localModels() map[string]interface{} {
	return map[string]interface{}{
		"pending_uploads": PendingUpload{},
	}
}

// Migrate creates or updates the local tables.
func Migrate(db *gorm.DB) error {
	return db.Session(&gorm.Session{SkipDefaultTransaction: true}).AutoMigrate(&PendingUpload{})
}

func GenerateModels(db *gorm.DB, logger zerolog.Logger) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	db = db.Session(&gorm.Session{
		Logger:                 verboseGormLogger(),
		SkipDefaultTransaction: true,
		PrepareStmt:            false,
	})

	logger.Info().Msg("Migrating local models...")
	if err := Migrate(db); err != nil {
		return fmt.Errorf("error during models migration: %w", err)
	}

	report, err := ColumnMismatchReport(db)
	if err != nil {
		return err
	}
	for table, columns := range report {
		if len(columns) == 0 {
			logger.Info().Str("table", table).Msg("All columns are accounted for in the model")
			continue
		}
		logger.Warn().Str("table", table).Strs("columns", columns).Msg("Columns not accounted for in model")
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:           "./generated",
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(PendingUpload{})
	g.Execute()

	logger.Info().Msg("Model generation complete")
	return nil
}

// ColumnMismatchReport lists, per local table, the database columns no model field maps to.
func ColumnMismatchReport(db *gorm.DB) (map[string][]string, error) {
	report := make(map[string][]string)
	for tableName, model := range localModels() {
		dbColumns, err := db.Migrator().ColumnTypes(tableName)
		if err != nil {
			return nil, fmt.Errorf("error querying columns for table %s: %w", tableName, err)
		}

		modelColumns, err := modelColumnNames(model, db.NamingStrategy)
		if err != nil {
			return nil, err
		}

		names := make([]string, 0, len(dbColumns))
		for _, column := range dbColumns {
			names = append(names, column.Name())
		}
		report[tableName] = findColumnMismatches(names, modelColumns)
	}
	return report, nil
}

func modelColumnNames(model interface{}, namer schema.Namer) ([]string, error) {
	s, err := schema.Parse(model, &sync.Map{}, namer)
	if err != nil {
		return nil, fmt.Errorf("error parsing model schema: %w", err)
	}
	return s.DBNames, nil
}

// findColumnMismatches finds columns that exist in the database but not in the model
func findColumnMismatches(dbColumns, modelFields []string) []string {
	modelFieldSet := make(map[string]bool, len(modelFields))
	for _, field := range modelFields {
		modelFieldSet[field] = true
	}

	mismatches := []string{}
	for _, col := range dbColumns {
		if !modelFieldSet[col] {
			mismatches = append(mismatches, col)
		}
	}
	return mismatches
}

func verboseGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             0,
			LogLevel:                  logger.Info,
			IgnoreRecordNotFoundError: false,
			Colorful:                  true,
		},
	)
}
