package orcid

import "errors"

var (
	ErrRecordNotFound                     = errors.New("record not found")
	ErrInputDataInvalid                   = errors.New("input data invalid")
	ErrPutcodeNotFoundInRegistry          = errors.New("putcode not found in orcid")
	ErrPutcodeNotFoundAfterReconciliation = errors.New("putcode not found in cache after caching all author putcodes")
	ErrLockTimeout                        = errors.New("lock acquisition timed out")
)
