package client

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// canonical entity shapes. every record that crosses the transport is
// normalized into these before the rest of the system sees it.

type Identity struct {
	Id             Id     `json:"id"`
	CreatedAt      string `json:"created_at,omitempty"`
	TelegramId     string `json:"telegram_id,omitempty"`
	Username       string `json:"username,omitempty"`
	Bio            string `json:"bio,omitempty"`
	AvatarUrl      string `json:"avatar_url,omitempty"`
	FollowersCount int    `json:"followers_count,omitempty"`
	FollowingCount int    `json:"following_count,omitempty"`
	// viewer relative. only meaningful when the record was fetched
	// relative to a signed in viewer
	Following bool `json:"is_following,omitempty"`
}

type University struct {
	Id        Id     `json:"id"`
	CreatedAt string `json:"created_at,omitempty"`
	Name      string `json:"name"`
}

type Course struct {
	Id        Id     `json:"id"`
	CreatedAt string `json:"created_at,omitempty"`
	Name      string `json:"name"`
}

type ExamKind string

const (
	ExamKindMid   ExamKind = "Mid"
	ExamKindFinal ExamKind = "Final"
	ExamKindQuiz  ExamKind = "Quiz"
	ExamKindOther ExamKind = "Other"
)

type ExamRecord struct {
	Id           Id       `json:"id"`
	CreatedAt    string   `json:"created_at,omitempty"`
	UserId       Id       `json:"user_id"`
	UniversityId Id       `json:"university_id"`
	CourseId     Id       `json:"course_id"`
	Year         int      `json:"year"`
	ExamKind     ExamKind `json:"exam_type"`
	TeacherName  string   `json:"teacher_name,omitempty"`
	Hidden       bool     `json:"is_hidden,omitempty"`

	// joined records, embedded by the server on feed queries
	User       *Identity   `json:"users,omitempty"`
	University *University `json:"universities,omitempty"`
	Course     *Course     `json:"courses,omitempty"`

	// `Files` is the current field. `LegacyFiles` is the older response
	// shape. normalization aliases one into the other so downstream code
	// only ever reads `Files`.
	Files       []*ExamPage `json:"files,omitempty"`
	LegacyFiles []*ExamPage `json:"exam_files,omitempty"`

	// viewer relative
	Liked      bool `json:"is_liked,omitempty"`
	LikesCount int  `json:"likes_count,omitempty"`
}

// immutable after creation. `PageOrder` matches the upload submission order.
type ExamPage struct {
	Id        Id     `json:"id"`
	CreatedAt string `json:"created_at,omitempty"`
	ExamId    Id     `json:"exam_id"`
	FileUrl   string `json:"file_url"`
	PageOrder int    `json:"page_order"`
}

const (
	ReportTargetExam = "exam"
	ReportTargetUser = "user"
)

const (
	ReportReasonWrongContent   = "wrong_content"
	ReportReasonSpam           = "spam"
	ReportReasonCopyrightIssue = "copyright_issue"
)

type Report struct {
	Id         Id     `json:"id"`
	CreatedAt  string `json:"created_at,omitempty"`
	ReporterId Id     `json:"reporter_id,omitempty"`
	TargetType string `json:"report_type"`
	TargetId   Id     `json:"reported_id"`
	Reason     string `json:"reason"`
	Status     string `json:"status,omitempty"`
}

// FilterSpec is a pure value object describing one feed query.
// Absent fields are omitted from the outbound query entirely.
// `Followed` is a boolean and is always encoded.
type FilterSpec struct {
	UniversityId *Id
	CourseId     *Id
	Year         int
	Search       string
	Teacher      string
	UserId       *Id
	Followed     bool
}

// encodeQuery builds the flat query string the server expects.
// field order is fixed so identical filters encode identically.
func (self *FilterSpec) encodeQuery() string {
	parts := []string{}
	appendPart := func(key string, value string) {
		parts = append(parts, fmt.Sprintf("%s=%s", key, url.QueryEscape(value)))
	}
	if self.UniversityId != nil {
		appendPart("university_id", self.UniversityId.String())
	}
	if self.CourseId != nil {
		appendPart("course_id", self.CourseId.String())
	}
	if self.Search != "" {
		appendPart("search", self.Search)
	}
	if self.Teacher != "" {
		appendPart("teacher", self.Teacher)
	}
	if self.UserId != nil {
		appendPart("user_id", self.UserId.String())
	}
	if self.Year != 0 {
		appendPart("year", strconv.Itoa(self.Year))
	}
	appendPart("followed", strconv.FormatBool(self.Followed))
	return strings.Join(parts, "&")
}
