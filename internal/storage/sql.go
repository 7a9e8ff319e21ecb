package storage

import (
	_ "embed"
)

//go:embed schema.sql
var initSchemaSQL string

//go:embed indexes.sql
var initIndexesSQL string

const (
	insertRunSQL = `
INSERT INTO runs (id,
                  field,
                  source,
                  samples,
                  spacing,
                  config)
VALUES (?, ?, ?, ?, ?, ?)`

	selectRunSQL = `
SELECT 
    id, 
    created_at, 
    field, 
    source, 
    samples, 
    spacing, 
    config 
FROM runs 
WHERE 
    id = ?`

	selectRunsSQL = `
SELECT 
    id, 
    created_at, 
    field, 
    source, 
    samples, 
    spacing, 
    config 
FROM runs
ORDER BY created_at, rowid`

	insertSpectrumSQL = `
INSERT INTO spectrum (run_id,
                      component,
                      bin,
                      frequency,
                      power,
                      derivative)
VALUES `

	insertPeakSQL = `
INSERT INTO peaks (run_id,
                   component,
                   bin,
                   frequency,
                   power)
VALUES (?, ?, ?, ?, ?)`

	selectSpectrumSQL = `
SELECT 
    component, 
    bin, 
    frequency, 
    power, 
    derivative
FROM spectrum
WHERE 
    run_id = ?`

	selectPeaksSQL = `
SELECT 
    component, 
    bin, 
    frequency, 
    power
FROM peaks
WHERE 
    run_id = ?`
)
