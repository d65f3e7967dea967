// Package db carries the Postgres schema for jobs, transcripts and questions.
package db

import _ "embed"

//go:embed schema.sql
var Schema string
