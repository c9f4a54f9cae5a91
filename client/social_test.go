package client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestToggleLike(t *testing.T) {
	examId := NewId()
	methods := []string{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Path, "/exams/"+examId.String()+"/like")
		methods = append(methods, r.Method)
		writeJson(w, 200, &OkResult{Ok: true})
	}))
	defer server.Close()

	platform := &testPlatform{credential: "blob"}
	api := NewFetenaHubApi(server.URL, platform)
	coordinator := NewSocialCoordinator(api)

	exam := &ExamRecord{Id: examId, Liked: false, LikesCount: 3}

	liked, err := coordinator.ToggleLikeSync(exam, nil)
	assert.Equal(t, err, nil)
	assert.Equal(t, liked, true)
	assert.Equal(t, exam.Liked, true)
	assert.Equal(t, exam.LikesCount, 4)

	liked, err = coordinator.ToggleLikeSync(exam, nil)
	assert.Equal(t, err, nil)
	assert.Equal(t, liked, false)
	assert.Equal(t, exam.Liked, false)
	assert.Equal(t, exam.LikesCount, 3)

	assert.Equal(t, methods, []string{"POST", "DELETE"})
	// haptic on the confirmed like only
	assert.Equal(t, platform.notifies, []string{NotifySuccess})
}

func TestToggleLikeRollback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, 500, map[string]string{"error": "db down"})
	}))
	defer server.Close()

	api := NewFetenaHubApi(server.URL, &testPlatform{credential: "blob"})
	coordinator := NewSocialCoordinator(api)

	exam := &ExamRecord{Id: NewId(), Liked: true, LikesCount: 7}

	// a failed toggle ends in the last known confirmed state, exactly
	liked, err := coordinator.ToggleLikeSync(exam, nil)
	assert.NotEqual(t, err, nil)
	assert.Equal(t, liked, true)
	assert.Equal(t, exam.Liked, true)
	assert.Equal(t, exam.LikesCount, 7)

	// the target is usable again after the rollback
	assert.Equal(t, len(coordinator.PendingTargets()), 0)
}

func TestToggleLikeRejectsWhilePending(t *testing.T) {
	started := make(chan struct{})
	block := make(chan struct{})
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests += 1
		close(started)
		<-block
		writeJson(w, 200, &OkResult{Ok: true})
	}))
	defer server.Close()

	api := NewFetenaHubApi(server.URL, &testPlatform{credential: "blob"})
	coordinator := NewSocialCoordinator(api)

	exam := &ExamRecord{Id: NewId(), Liked: false, LikesCount: 0}

	done := make(chan error)
	go func() {
		_, err := coordinator.ToggleLikeSync(exam, nil)
		done <- err
	}()
	<-started
	assert.Equal(t, coordinator.PendingTargets(), []Id{exam.Id})

	// rejected, not queued, and no second remote call
	_, err := coordinator.ToggleLikeSync(exam, nil)
	assert.Equal(t, err, ErrTogglePending)

	close(block)
	assert.Equal(t, <-done, nil)
	assert.Equal(t, requests, 1)
	assert.Equal(t, exam.Liked, true)
	assert.Equal(t, exam.LikesCount, 1)
}

func TestToggleFollow(t *testing.T) {
	userId := NewId()
	methods := []string{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Path, "/users/"+userId.String()+"/follow")
		methods = append(methods, r.Method)
		writeJson(w, 200, &OkResult{Ok: true})
	}))
	defer server.Close()

	api := NewFetenaHubApi(server.URL, &testPlatform{credential: "blob"})
	coordinator := NewSocialCoordinator(api)

	identity := &Identity{Id: userId, Following: false, FollowersCount: 10}

	following, err := coordinator.ToggleFollowSync(identity, nil)
	assert.Equal(t, err, nil)
	assert.Equal(t, following, true)
	assert.Equal(t, identity.FollowersCount, 11)

	following, err = coordinator.ToggleFollowSync(identity, nil)
	assert.Equal(t, err, nil)
	assert.Equal(t, following, false)
	assert.Equal(t, identity.FollowersCount, 10)

	assert.Equal(t, methods, []string{"POST", "DELETE"})
}

func TestToggleFollowRollback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, 403, map[string]string{"error": "not allowed"})
	}))
	defer server.Close()

	api := NewFetenaHubApi(server.URL, &testPlatform{credential: "blob"})
	coordinator := NewSocialCoordinator(api)

	identity := &Identity{Id: NewId(), Following: false, FollowersCount: 2}

	following, err := coordinator.ToggleFollowSync(identity, nil)
	assert.NotEqual(t, err, nil)
	assert.Equal(t, following, false)
	assert.Equal(t, identity.Following, false)
	assert.Equal(t, identity.FollowersCount, 2)
}
