// Package sqlite writes normalized spectra as an mzVault-compatible SQLite library
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ChrisMcGann/mgfprep/pkg/core"
	_ "github.com/mattn/go-sqlite3"
)

const (
	// Date format for HeaderTable (ISO 8601)
	headerDateFormat = "2006-01-02"
	// Date format for MaintenanceTable (space-separated, matches R implementation)
	maintenanceDateFormat = "2006 01 02"
)

// Writer handles writing spectra to SQLite database files
type Writer struct {
	db           *sql.DB
	tx           *sql.Tx
	outputPath   string
	description  string
	compoundStmt *sql.Stmt
	spectrumStmt *sql.Stmt
	compoundID   int
	done         bool
}

// NewWriter creates a new SQLite writer. An existing file at outputPath is
// replaced. All rows are written in one transaction that Finalize commits.
func NewWriter(outputPath, description string) (*Writer, error) {
	if err := os.Remove(outputPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to replace existing database: %w", err)
	}

	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:          db,
		outputPath:  outputPath,
		description: description,
		compoundID:  1,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	w.tx, err = db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := w.prepareStatements(); err != nil {
		w.tx.Rollback()
		db.Close()
		return nil, err
	}

	return w, nil
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS CompoundTable (
		CompoundId INTEGER PRIMARY KEY,
		Formula TEXT,
		Name TEXT,
		Synonyms BLOB_TEXT,
		Tag TEXT,
		Sequence TEXT,
		CASId TEXT,
		ChemSpiderId TEXT,
		HMDBId TEXT,
		KEGGId TEXT,
		PubChemId TEXT,
		Structure BLOB_TEXT,
		mzCloudId INTEGER,
		CompoundClass TEXT,
		SmilesDescription TEXT,
		InChiKey TEXT
	);

	CREATE TABLE IF NOT EXISTS SpectrumTable (
		SpectrumId INTEGER PRIMARY KEY,
		CompoundId INTEGER REFERENCES CompoundTable(CompoundId),
		mzCloudURL TEXT,
		ScanFilter TEXT,
		RetentionTime DOUBLE,
		ScanNumber INTEGER,
		PrecursorMass DOUBLE,
		NeutralMass DOUBLE,
		CollisionEnergy DOUBLE,
		Polarity TEXT,
		FragmentationMode TEXT,
		IonizationMode TEXT,
		MassAnalyzer TEXT,
		InstrumentName TEXT,
		InstrumentOperator TEXT,
		RawFileURL TEXT,
		blobMass BLOB,
		blobIntensity BLOB,
		blobAccuracy BLOB,
		blobResolution BLOB,
		blobNoises BLOB,
		blobFlags BLOB,
		blobTopPeaks BLOB,
		Version INTEGER,
		CreationDate TEXT,
		Curator TEXT,
		CurationType TEXT,
		PrecursorIonType TEXT,
		Accession TEXT
	);

	CREATE TABLE IF NOT EXISTS HeaderTable (
		version INTEGER NOT NULL DEFAULT 0,
		CreationDate TEXT,
		LastModifiedDate TEXT,
		Description TEXT,
		Company TEXT,
		ReadOnly BOOL,
		UserAccess TEXT,
		PartialEdits BOOL
	);

	CREATE TABLE IF NOT EXISTS MaintenanceTable (
		CreationDate TEXT,
		NoofCompoundsModified INTEGER,
		Description TEXT
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.compoundStmt, err = w.tx.Prepare(`
		INSERT INTO CompoundTable (
			CompoundId, Formula, Name, Synonyms, Tag, Sequence,
			CASId, ChemSpiderId, HMDBId, KEGGId, PubChemId,
			Structure, mzCloudId, CompoundClass, SmilesDescription, InChiKey
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare compound statement: %w", err)
	}

	w.spectrumStmt, err = w.tx.Prepare(`
		INSERT INTO SpectrumTable (
			SpectrumId, CompoundId, mzCloudURL, ScanFilter, RetentionTime,
			ScanNumber, PrecursorMass, NeutralMass, CollisionEnergy, Polarity,
			FragmentationMode, IonizationMode, MassAnalyzer, InstrumentName,
			InstrumentOperator, RawFileURL, blobMass, blobIntensity,
			blobAccuracy, blobResolution, blobNoises, blobFlags,
			blobTopPeaks, Version, CreationDate, Curator, CurationType,
			PrecursorIonType, Accession
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare spectrum statement: %w", err)
	}

	return nil
}

// WriteSpectrum writes a single spectrum to the database. emptied marks a
// spectrum whose peaks were dropped by charge normalization.
func (w *Writer) WriteSpectrum(spec *core.Spectrum, emptied bool) error {
	// Without a charge (no-filter mode) the charge-derived columns are NULL.
	charge, err := spec.Charge.First()
	hasCharge := err == nil

	tag := "charge:none"
	if hasCharge {
		tag = fmt.Sprintf("charge:%d", charge)
	}
	if emptied {
		tag += " emptied"
	}

	// Insert into CompoundTable
	_, err = w.compoundStmt.Exec(
		w.compoundID, // CompoundId
		"",           // Formula
		spec.Title,   // Name
		"",           // Synonyms
		tag,          // Tag
		"",           // Sequence
		"",           // CASId
		"",           // ChemSpiderId
		"",           // HMDBId
		"",           // KEGGId
		"",           // PubChemId
		"",           // Structure
		nil,          // mzCloudId
		"",           // CompoundClass
		"",           // SmilesDescription
		"",           // InChiKey
	)
	if err != nil {
		return fmt.Errorf("failed to insert compound: %w", err)
	}

	// Encode peaks as binary blobs (little-endian float64)
	mzBlob := encodeFloat64s(spec.MZ)
	intBlob := encodeFloat64s(spec.Intensity)

	// Handle optional retention time
	var rt interface{} = nil
	if v, ok := spec.RetentionTime(); ok {
		rt = v
	}

	// Handle optional precursor m/z
	var precursor, neutral interface{} = nil, nil
	if mz, ok := spec.PrecursorMZ(); ok {
		precursor = mz
		if hasCharge {
			neutral = core.NeutralMass(mz, charge)
		}
	}

	var polarity, ionType interface{} = nil, nil
	if hasCharge {
		polarity = "+"
		if charge < 0 {
			polarity = "-"
		}
		ionType = core.PrecursorIonType(charge)
	}

	// Insert into SpectrumTable
	_, err = w.spectrumStmt.Exec(
		w.compoundID,     // SpectrumId (same as CompoundId for 1:1 mapping)
		w.compoundID,     // CompoundId
		"",               // mzCloudURL
		"",               // ScanFilter
		rt,               // RetentionTime
		scanNumber(spec), // ScanNumber
		precursor,        // PrecursorMass
		neutral,          // NeutralMass
		nil,              // CollisionEnergy
		polarity,         // Polarity
		"",               // FragmentationMode
		"ESI",            // IonizationMode
		"",               // MassAnalyzer
		"",               // InstrumentName
		"",               // InstrumentOperator
		"",               // RawFileURL
		mzBlob,           // blobMass
		intBlob,          // blobIntensity
		nil,              // blobAccuracy
		nil,              // blobResolution
		nil,              // blobNoises
		nil,              // blobFlags
		nil,              // blobTopPeaks
		nil,              // Version
		nil,              // CreationDate
		"",               // Curator
		"",               // CurationType
		ionType,          // PrecursorIonType
		"",               // Accession
	)
	if err != nil {
		return fmt.Errorf("failed to insert spectrum: %w", err)
	}

	w.compoundID++
	return nil
}

// Count returns the number of spectra written so far.
func (w *Writer) Count() int {
	return w.compoundID - 1
}

// scanNumber parses the SCANS param; 0 when absent or a range.
func scanNumber(spec *core.Spectrum) int {
	v, ok := spec.Param("scans")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

// encodeFloat64s encodes values as a little-endian float64 blob
func encodeFloat64s(values []float64) []byte {
	buf := make([]byte, len(values)*8)
	for i, value := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(value))
	}
	return buf
}

// DecodeFloat64s is the inverse of the blob encoding used for peak arrays.
func DecodeFloat64s(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(blob))
	}
	values := make([]float64, len(blob)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return values, nil
}

// Finalize writes the header and maintenance tables, commits and closes the database
func (w *Writer) Finalize() error {
	if w.done {
		return nil
	}
	w.done = true

	now := time.Now()

	// Write HeaderTable
	_, err := w.tx.Exec(`
		INSERT INTO HeaderTable (version, CreationDate, LastModifiedDate, Description, Company, ReadOnly, UserAccess, PartialEdits)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, 5, now.Format(headerDateFormat), now.Format(headerDateFormat), w.description, "", false, "", false)
	if err != nil {
		w.abort()
		return fmt.Errorf("failed to insert header: %w", err)
	}

	// Write MaintenanceTable
	_, err = w.tx.Exec(`
		INSERT INTO MaintenanceTable (CreationDate, NoofCompoundsModified, Description)
		VALUES (?, ?, ?)
	`, now.Format(maintenanceDateFormat), w.Count(), w.description)
	if err != nil {
		w.abort()
		return fmt.Errorf("failed to insert maintenance: %w", err)
	}

	w.closeStatements()

	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return fmt.Errorf("failed to commit database: %w", err)
	}

	// Close database
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Close rolls back and closes a writer that was not finalized. It is a
// no-op after Finalize.
func (w *Writer) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	return w.abort()
}

func (w *Writer) abort() error {
	w.closeStatements()
	w.tx.Rollback()
	return w.db.Close()
}

func (w *Writer) closeStatements() {
	if w.compoundStmt != nil {
		w.compoundStmt.Close()
	}
	if w.spectrumStmt != nil {
		w.spectrumStmt.Close()
	}
}
