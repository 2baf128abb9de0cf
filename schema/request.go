package schema

import (
	"fmt"
	"strings"
	"time"
)

const (
	STATUS_PENDING  = "pending"
	STATUS_APPROVED = "approved"
	STATUS_REJECTED = "rejected"
)

const (
	SUBJECT_COURSE_RELATED  = "course-related"
	SUBJECT_FACULTY_REQUEST = "faculty-request"
	SUBJECT_ADMINISTRATIVE  = "administrative"
	SUBJECT_OTHER           = "other"
)

var (
	ErrMissingSubject     = fmt.Errorf("subject is required")
	ErrMissingDescription = fmt.Errorf("description is required")
	ErrUnknownSubject     = fmt.Errorf("subject is not one of the known request types")
)

// Subjects is the closed set of request categories offered by the portal.
var Subjects = []string{
	SUBJECT_COURSE_RELATED,
	SUBJECT_FACULTY_REQUEST,
	SUBJECT_ADMINISTRATIVE,
	SUBJECT_OTHER,
}

// Request is a unit of work submitted for an administrative decision.
// ID is the internal record id assigned by the portal database; RequestID is
// the human-facing display id. Remark and AdminResponse are empty until a
// decision has been made.
type Request struct {
	ID            string       `json:"_id"`
	RequestID     string       `json:"requestId"`
	Subject       string       `json:"subject"`
	Description   string       `json:"description"`
	Status        string       `json:"status"`
	CreatedAt     time.Time    `json:"createdAt"`
	Attachments   []Attachment `json:"attachments"`
	Remark        string       `json:"remark,omitempty"`
	AdminResponse string       `json:"adminResponse,omitempty"`
	Submitter     *User        `json:"user,omitempty"`
}

// Attachment metadata travels in one of two stages: FileData carries the
// base64 payload before upload, FilePath carries the server-assigned location
// afterwards. Exactly one of the two is set.
type Attachment struct {
	// StagedID identifies an attachment before the server has assigned a
	// file path. It is client-local and never sent on the wire.
	StagedID string `json:"-"`

	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
	FileData string `json:"fileData,omitempty"`
	FilePath string `json:"filePath,omitempty"`
}

// Draft is the closed record a caller fills in before creating a request.
type Draft struct {
	Subject     string       `json:"subject"`
	Description string       `json:"description"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Validate rejects a draft before it is handed to the portal.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Subject) == "" {
		return ErrMissingSubject
	}
	if strings.TrimSpace(d.Description) == "" {
		return ErrMissingDescription
	}
	for _, s := range Subjects {
		if d.Subject == s {
			return nil
		}
	}
	return ErrUnknownSubject
}

// StatusChange is the payload of an admin decision.
type StatusChange struct {
	Status string `json:"status"`
	Remark string `json:"remark"`
}

// Terminal reports whether a status admits no further transition.
func Terminal(status string) bool {
	return status == STATUS_APPROVED || status == STATUS_REJECTED
}
