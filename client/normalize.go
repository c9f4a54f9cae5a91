package client

import (
	"strings"
)

// normalization of the loosely typed server shapes into the canonical
// shapes. all functions here are pure, total, and idempotent: normalizing
// an already normalized record is a no-op.

// NormalizeExamKind maps any input to exactly one of the four canonical
// kinds. unrecognized input, including empty, maps to Other.
func NormalizeExamKind(value ExamKind) ExamKind {
	switch strings.ToLower(string(value)) {
	case "mid":
		return ExamKindMid
	case "final":
		return ExamKindFinal
	case "quiz":
		return ExamKindQuiz
	default:
		return ExamKindOther
	}
}

// ExamKindForApi is the outbound direction: canonical kind back to the
// lowercase form the server stores.
func ExamKindForApi(value ExamKind) string {
	return strings.ToLower(string(value))
}

// NormalizeExam reconciles the two server response shapes in place:
//   - a record carrying only the legacy `exam_files` field gets `files`
//     aliased to it, preserving order
//   - the exam kind is canonicalized
func NormalizeExam(exam *ExamRecord) *ExamRecord {
	if exam == nil {
		return nil
	}
	if exam.Files == nil && exam.LegacyFiles != nil {
		exam.Files = exam.LegacyFiles
	}
	exam.ExamKind = NormalizeExamKind(exam.ExamKind)
	return exam
}

func NormalizeExams(exams []*ExamRecord) []*ExamRecord {
	for _, exam := range exams {
		NormalizeExam(exam)
	}
	return exams
}
