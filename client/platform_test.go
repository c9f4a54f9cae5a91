package client

import (
	"fmt"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestShareExam(t *testing.T) {
	platform := &testPlatform{credential: "blob"}
	exam := &ExamRecord{
		Id:     NewId(),
		Year:   2022,
		Course: &Course{Id: NewId(), Name: "Calculus I"},
	}

	ShareExam(platform, "https://fetenahub.app", exam)

	assert.Equal(t, platform.shares, []string{
		fmt.Sprintf("https://fetenahub.app/exam/%s", exam.Id),
	})
	assert.Equal(t, platform.shareTexts, []string{"Check out this exam: Calculus I"})
	assert.Equal(t, platform.notifies, []string{NotifyLight})
}

func TestShareExamNilSafe(t *testing.T) {
	platform := &testPlatform{}

	ShareExam(platform, "https://fetenahub.app", nil)
	ShareExam(nil, "https://fetenahub.app", &ExamRecord{Id: NewId()})

	assert.Equal(t, len(platform.shares), 0)
	assert.Equal(t, len(platform.notifies), 0)
}
