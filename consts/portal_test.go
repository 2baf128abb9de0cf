package consts_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/campusdesk/reqsync/consts"
)

func TestFileTypeByName(t *testing.T) {
	mapping := map[string]string{
		"report.pdf":    "application/pdf",
		"letter.doc":    "application/msword",
		"letter.DOCX":   "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"marks.xls":     "application/vnd.ms-excel",
		"marks.xlsx":    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"photo.jpg":     "image/jpeg",
		"photo.jpeg":    "image/jpeg",
		"receipt.PNG":   "image/png",
		"dir/notes.pdf": "application/pdf",
	}

	for name, mime := range mapping {
		actual, err := consts.FileTypeByName(name)
		assert.NoError(t, err, "unexpected error")
		assert.Equal(t, mime, actual, "wrong mime type")
	}
}

func TestFileTypeByNameRejected(t *testing.T) {
	for _, name := range []string{"setup.exe", "archive.zip", "script.sh", "noext"} {
		_, err := consts.FileTypeByName(name)
		assert.Error(t, err, "expected rejection")
	}
}

func TestWindowDuration(t *testing.T) {
	d, ok := consts.WindowDuration(consts.WINDOW_DAY)
	assert.True(t, ok)
	assert.Equal(t, 24*time.Hour, d)

	d, ok = consts.WindowDuration(consts.WINDOW_WEEK)
	assert.True(t, ok)
	assert.Equal(t, 7*24*time.Hour, d)

	d, ok = consts.WindowDuration(consts.WINDOW_MONTH)
	assert.True(t, ok)
	assert.Equal(t, 30*24*time.Hour, d)

	_, ok = consts.WindowDuration(consts.WINDOW_ALL)
	assert.False(t, ok)
}
