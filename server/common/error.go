package common

import "errors"

var (
	ErrRequestParamEmpty   = errors.New("request param is empty")
	ErrRequestParamInvalid = errors.New("request param is invalid")
	ErrServiceUnavailable  = errors.New("service is not configured")
)
