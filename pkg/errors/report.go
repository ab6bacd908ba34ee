package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Report is the structured form in which failures are recorded.
type Report struct {
	Name    string `json:"name" dynamodbav:"name"`
	Message string `json:"message" dynamodbav:"message"`
	Stack   string `json:"stack" dynamodbav:"stack"`
}

// Capture turns any error into a Report. AppErrors keep the stack captured
// at construction; other errors get the stack of the caller.
func Capture(err error) Report {
	if err == nil {
		return Report{}
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		name := string(appErr.Type)
		if appErr.Code != "" {
			name = appErr.Code
		}
		return Report{Name: name, Message: err.Error(), Stack: appErr.StackTrace}
	}
	name := fmt.Sprintf("%T", err)
	name = strings.TrimPrefix(name, "*")
	return Report{Name: name, Message: err.Error(), Stack: captureStackTrace()}
}
