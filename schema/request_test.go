package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campusdesk/reqsync/schema"
)

func TestDraftValidate(t *testing.T) {
	draft := schema.Draft{
		Subject:     schema.SUBJECT_COURSE_RELATED,
		Description: "Need room booking",
	}
	assert.NoError(t, draft.Validate())

	assert.Equal(t, schema.ErrMissingSubject, schema.Draft{Description: "x"}.Validate())
	assert.Equal(t, schema.ErrMissingDescription, schema.Draft{Subject: schema.SUBJECT_OTHER}.Validate())
	assert.Equal(t, schema.ErrMissingDescription, schema.Draft{Subject: schema.SUBJECT_OTHER, Description: " \t"}.Validate())
	assert.Equal(t, schema.ErrUnknownSubject, schema.Draft{Subject: "gardening", Description: "x"}.Validate())
}

func TestTerminal(t *testing.T) {
	assert.False(t, schema.Terminal(schema.STATUS_PENDING))
	assert.True(t, schema.Terminal(schema.STATUS_APPROVED))
	assert.True(t, schema.Terminal(schema.STATUS_REJECTED))
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, schema.User{Role: schema.ROLE_ADMIN}.IsAdmin())
	assert.False(t, schema.User{Role: schema.ROLE_FACULTY}.IsAdmin())
	assert.False(t, schema.User{Role: schema.ROLE_STUDENT}.IsAdmin())
}
