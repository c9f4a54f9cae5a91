package client

import (
	"sync"

	"github.com/golang/glog"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ErrTogglePending rejects a toggle while one is already in flight for the
// same target. the second call is dropped, never queued.
var ErrTogglePending = &ValidationError{Message: "toggle already pending for target"}

type ToggleCallback apiCallback[bool]

// SocialCoordinator applies like/unlike and follow/unfollow optimistically:
// the local flag and count flip before the remote call resolves, and a
// remote failure restores the captured prior values exactly. a failed
// toggle always ends in the last known confirmed state.
//
// one in flight toggle per target id at a time. the pending mark is held
// in a plain set since all mutation goes through the state lock.
type SocialCoordinator struct {
	api      *FetenaHubApi
	platform PlatformContext

	stateLock sync.Mutex
	pending   map[Id]bool
}

func NewSocialCoordinator(api *FetenaHubApi) *SocialCoordinator {
	return &SocialCoordinator{
		api:      api,
		platform: api.platform,
		pending:  map[Id]bool{},
	}
}

// PendingTargets lists target ids with an in flight toggle, ordered.
func (self *SocialCoordinator) PendingTargets() []Id {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	targetIds := maps.Keys(self.pending)
	slices.SortFunc(targetIds, func(a Id, b Id) int {
		if a.LessThan(b) {
			return -1
		} else if b.LessThan(a) {
			return 1
		} else {
			return 0
		}
	})
	return targetIds
}

func (self *SocialCoordinator) acquire(targetId Id) bool {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	if self.pending[targetId] {
		return false
	}
	self.pending[targetId] = true
	return true
}

func (self *SocialCoordinator) release(targetId Id) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	delete(self.pending, targetId)
}

func (self *SocialCoordinator) ToggleLike(exam *ExamRecord, callback ToggleCallback) {
	go self.ToggleLikeSync(exam, callback)
}

// ToggleLikeSync flips `Liked` and the count delta synchronously, then
// confirms with the remote. returns the settled liked state.
func (self *SocialCoordinator) ToggleLikeSync(exam *ExamRecord, callback ToggleCallback) (bool, error) {
	if callback == nil {
		callback = NewNoopApiCallback[bool]()
	}
	if !self.acquire(exam.Id) {
		callback.Result(exam.Liked, ErrTogglePending)
		return exam.Liked, ErrTogglePending
	}
	defer self.release(exam.Id)

	// capture the prior confirmed values
	priorLiked := exam.Liked
	priorCount := exam.LikesCount

	// optimistic flip
	exam.Liked = !priorLiked
	if exam.Liked {
		exam.LikesCount = priorCount + 1
	} else {
		exam.LikesCount = priorCount - 1
	}

	var err error
	if exam.Liked {
		_, err = self.api.LikeExamSync(exam.Id, nil)
	} else {
		_, err = self.api.UnlikeExamSync(exam.Id, nil)
	}

	if err != nil {
		// roll back to the last confirmed state
		exam.Liked = priorLiked
		exam.LikesCount = priorCount
		glog.Infof("[social]like rollback %s = %s\n", exam.Id, err)
		callback.Result(exam.Liked, err)
		return exam.Liked, err
	}

	if exam.Liked {
		self.platform.Notify(NotifySuccess)
	}
	callback.Result(exam.Liked, nil)
	return exam.Liked, nil
}

func (self *SocialCoordinator) ToggleFollow(identity *Identity, callback ToggleCallback) {
	go self.ToggleFollowSync(identity, callback)
}

// ToggleFollowSync is the follow edge, identical shape to the like edge.
func (self *SocialCoordinator) ToggleFollowSync(identity *Identity, callback ToggleCallback) (bool, error) {
	if callback == nil {
		callback = NewNoopApiCallback[bool]()
	}
	if !self.acquire(identity.Id) {
		callback.Result(identity.Following, ErrTogglePending)
		return identity.Following, ErrTogglePending
	}
	defer self.release(identity.Id)

	priorFollowing := identity.Following
	priorCount := identity.FollowersCount

	identity.Following = !priorFollowing
	if identity.Following {
		identity.FollowersCount = priorCount + 1
	} else {
		identity.FollowersCount = priorCount - 1
	}

	var err error
	if identity.Following {
		_, err = self.api.FollowUserSync(identity.Id, nil)
	} else {
		_, err = self.api.UnfollowUserSync(identity.Id, nil)
	}

	if err != nil {
		identity.Following = priorFollowing
		identity.FollowersCount = priorCount
		glog.Infof("[social]follow rollback %s = %s\n", identity.Id, err)
		callback.Result(identity.Following, err)
		return identity.Following, err
	}

	if identity.Following {
		self.platform.Notify(NotifySuccess)
	}
	callback.Result(identity.Following, nil)
	return identity.Following, nil
}
