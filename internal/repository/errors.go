package repository

import "errors"

var (
	// ErrReportNotFound indicates the report id is unknown
	ErrReportNotFound = errors.New("report not found")

	// ErrSourceUnavailable indicates the requested image source is not configured
	ErrSourceUnavailable = errors.New("image source unavailable")
)
