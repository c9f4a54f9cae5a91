package client

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestNormalizeExamKind(t *testing.T) {
	canonical := map[ExamKind]bool{
		ExamKindMid:   true,
		ExamKindFinal: true,
		ExamKindQuiz:  true,
		ExamKindOther: true,
	}

	inputs := map[ExamKind]ExamKind{
		"mid":   ExamKindMid,
		"Mid":   ExamKindMid,
		"MID":   ExamKindMid,
		"final": ExamKindFinal,
		"quiz":  ExamKindQuiz,
		"weird": ExamKindOther,
		"":      ExamKindOther,
	}
	for input, expected := range inputs {
		out := NormalizeExamKind(input)
		assert.Equal(t, expected, out)
		assert.Equal(t, canonical[out], true)
		// idempotent
		assert.Equal(t, out, NormalizeExamKind(out))
	}

	// json null decodes to the empty kind
	exam := &ExamRecord{}
	err := json.Unmarshal([]byte(`{"exam_type": null}`), exam)
	assert.Equal(t, err, nil)
	assert.Equal(t, NormalizeExamKind(exam.ExamKind), ExamKindOther)
}

func TestExamKindForApi(t *testing.T) {
	assert.Equal(t, ExamKindForApi(ExamKindMid), "mid")
	assert.Equal(t, ExamKindForApi(ExamKindFinal), "final")
	assert.Equal(t, ExamKindForApi(ExamKindQuiz), "quiz")
	assert.Equal(t, ExamKindForApi(ExamKindOther), "other")
}

func TestNormalizeExamFileAlias(t *testing.T) {
	examId := NewId()
	legacy := []*ExamPage{
		{Id: NewId(), ExamId: examId, PageOrder: 0},
		{Id: NewId(), ExamId: examId, PageOrder: 1},
		{Id: NewId(), ExamId: examId, PageOrder: 2},
	}

	// legacy shape: only exam_files present
	exam := &ExamRecord{
		Id:          examId,
		ExamKind:    "final",
		LegacyFiles: legacy,
	}
	NormalizeExam(exam)
	assert.Equal(t, len(exam.Files), 3)
	for i := range legacy {
		assert.Equal(t, exam.Files[i], legacy[i])
	}
	assert.Equal(t, exam.ExamKind, ExamKindFinal)

	// normalizing again is a no-op
	files := exam.Files
	NormalizeExam(exam)
	assert.Equal(t, len(exam.Files), 3)
	for i := range files {
		assert.Equal(t, exam.Files[i], files[i])
	}
	assert.Equal(t, exam.ExamKind, ExamKindFinal)

	// current shape is untouched
	current := []*ExamPage{{Id: NewId(), ExamId: examId, PageOrder: 0}}
	exam2 := &ExamRecord{
		Id:       examId,
		ExamKind: "quiz",
		Files:    current,
	}
	NormalizeExam(exam2)
	assert.Equal(t, len(exam2.Files), 1)
	assert.Equal(t, exam2.Files[0], current[0])

	// nil safe
	assert.Equal(t, NormalizeExam(nil), nil)
}
