package db

import _ "embed"

//go:embed schema.sql
var Schema string

type Status string

const (
	STATUS_SUCCESS Status = "SUCCESS"
	STATUS_FAILED  Status = "FAILED"
)
