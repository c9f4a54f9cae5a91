package client

import (
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestFilterSpecEncodeOmission(t *testing.T) {
	universityId := NewId()
	courseId := NewId()

	filter := &FilterSpec{
		UniversityId: &universityId,
		CourseId:     &courseId,
		Year:         2021,
		Search:       "calculus II",
		Followed:     true,
	}
	query := filter.encodeQuery()
	assert.Equal(t, strings.Contains(query, "university_id="+universityId.String()), true)
	assert.Equal(t, strings.Contains(query, "course_id="+courseId.String()), true)
	assert.Equal(t, strings.Contains(query, "year=2021"), true)
	assert.Equal(t, strings.Contains(query, "search=calculus+II"), true)
	assert.Equal(t, strings.Contains(query, "followed=true"), true)
	assert.Equal(t, strings.Contains(query, "teacher="), false)
	assert.Equal(t, strings.Contains(query, "user_id="), false)

	// absent fields are omitted, not sent empty. the boolean is always sent
	empty := &FilterSpec{}
	assert.Equal(t, empty.encodeQuery(), "followed=false")
}

func TestFilterSpecEncodeEndToEnd(t *testing.T) {
	filter := &FilterSpec{
		Year:     2023,
		Followed: false,
	}
	query := filter.encodeQuery()
	assert.Equal(t, strings.Contains(query, "year=2023&followed=false"), true)
	assert.Equal(t, strings.Contains(query, "university_id"), false)
	assert.Equal(t, strings.Contains(query, "course_id"), false)
	assert.Equal(t, strings.Contains(query, "search"), false)
}

func TestFilterSpecEncodeStable(t *testing.T) {
	// identical filters encode identically, so repeated debounced calls
	// are idempotent on the wire
	userId := NewId()
	a := &FilterSpec{Year: 2022, Search: "algebra", UserId: &userId}
	b := &FilterSpec{Year: 2022, Search: "algebra", UserId: &userId}
	assert.Equal(t, a.encodeQuery(), b.encodeQuery())
}
