package domain

// MessagePhotosSent is the fixed success message.
const MessagePhotosSent = "Photos sent successfully"

// NotificationResult is the structured outcome of one invocation. It is
// produced fresh per request and never persisted.
type NotificationResult struct {
	Success  bool
	Message  string
	Details  any
	Category Category
}

func Succeeded(message string) NotificationResult {
	return NotificationResult{
		Success: true,
		Message: message,
	}
}

func Failed(category Category, message string, details any) NotificationResult {
	if category == CategoryNone {
		category = CategoryInternal
	}
	return NotificationResult{
		Success:  false,
		Message:  message,
		Details:  details,
		Category: category,
	}
}

func (r NotificationResult) HTTPStatus() int {
	if r.Success {
		return CategoryNone.HTTPStatus()
	}
	if r.Category == CategoryNone {
		return CategoryInternal.HTTPStatus()
	}
	return r.Category.HTTPStatus()
}
