package client

import (
	"errors"
	"sync"

	"github.com/golang/glog"
)

// ErrSuperseded marks a query completion that arrived after a newer query
// was issued. the stale result was discarded and visible state untouched.
var ErrSuperseded = errors.New("query superseded")

// FeedResult is what one query leaves behind. `Stale` marks the degraded
// success path: the records came from the fallback snapshot because the
// query itself failed. the error is reported alongside, never swallowed.
type FeedResult struct {
	Exams []*ExamRecord
	Stale bool
}

type FeedCallback apiCallback[*FeedResult]

type FeedUpdateFunction func(exams []*ExamRecord)

// FeedEngine turns a `FilterSpec` into a canonical query, executes it, and
// reconciles results against the fallback snapshot on failure.
//
// ordering: every query gets a tag. a completion whose tag is no longer the
// most recently issued one is discarded, so a late response can never
// overwrite a newer result. this also makes caller side debounce cheap:
// superseded in flight calls are simply ignored.
type FeedEngine struct {
	api   *FetenaHubApi
	store SnapshotStore

	updateCallbacks callbackList[FeedUpdateFunction]

	stateLock sync.Mutex
	nextTag   uint64
	latestTag uint64
	visible   []*ExamRecord
}

func NewFeedEngine(api *FetenaHubApi, store SnapshotStore) *FeedEngine {
	if store == nil {
		store = NewMemorySnapshotStore()
	}
	return &FeedEngine{
		api:   api,
		store: store,
	}
}

// Exams is the current visible result set.
func (self *FeedEngine) Exams() []*ExamRecord {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return self.visible
}

// AddUpdateCallback registers a listener for visible state changes.
// returns a remove function.
func (self *FeedEngine) AddUpdateCallback(updateCallback FeedUpdateFunction) func() {
	callbackId := self.updateCallbacks.add(updateCallback)
	return func() {
		self.updateCallbacks.remove(callbackId)
	}
}

func (self *FeedEngine) Query(filter *FilterSpec, callback FeedCallback) {
	go self.QuerySync(filter, callback)
}

// QuerySync runs one feed query to completion.
//   - success: records are normalized, the snapshot slot is overwritten, the
//     visible set replaced, listeners notified
//   - failure with a snapshot: the snapshot is served together with the
//     error (degraded success, the caller must see the failure)
//   - failure with no snapshot: the error propagates with no results
//   - superseded: `ErrSuperseded`, nothing applied
func (self *FeedEngine) QuerySync(filter *FilterSpec, callback FeedCallback) (*FeedResult, error) {
	if callback == nil {
		callback = NewNoopApiCallback[*FeedResult]()
	}

	self.stateLock.Lock()
	self.nextTag += 1
	tag := self.nextTag
	self.latestTag = tag
	self.stateLock.Unlock()

	result, err := self.api.GetExamsSync(filter, nil)

	self.stateLock.Lock()
	if tag != self.latestTag {
		self.stateLock.Unlock()
		glog.V(2).Infof("[feed]discard superseded query %d\n", tag)
		callback.Result(nil, ErrSuperseded)
		return nil, ErrSuperseded
	}

	if err == nil && result != nil {
		// records arrive normalized from the api layer
		exams := result.Exams
		if exams == nil {
			exams = []*ExamRecord{}
		}
		self.visible = exams
		self.stateLock.Unlock()

		if saveErr := self.store.Save(exams); saveErr != nil {
			glog.Infof("[feed]snapshot save failed = %s\n", saveErr)
		}
		for _, updateCallback := range self.updateCallbacks.get() {
			updateCallback(exams)
		}

		feedResult := &FeedResult{
			Exams: exams,
		}
		callback.Result(feedResult, nil)
		return feedResult, nil
	}
	self.stateLock.Unlock()

	if err == nil {
		// a 2xx with no decodable body is still a transport level defect
		err = &RequestError{Message: ErrorCodeRequestFailed}
	}

	cached, loadErr := self.store.Load()
	if loadErr != nil {
		glog.Infof("[feed]snapshot load failed = %s\n", loadErr)
	}
	if cached != nil {
		// serve stale data, but still report the failure
		self.stateLock.Lock()
		if tag == self.latestTag {
			self.visible = cached
		}
		self.stateLock.Unlock()
		glog.Infof("[feed]query failed, serving snapshot = %s\n", err)

		feedResult := &FeedResult{
			Exams: cached,
			Stale: true,
		}
		callback.Result(feedResult, err)
		return feedResult, err
	}

	callback.Result(nil, err)
	return nil, err
}
