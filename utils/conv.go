package utils

func StringToPtr(val string) *string {
	return &val
}
